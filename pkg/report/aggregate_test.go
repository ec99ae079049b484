package report_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qaops/reportoor/pkg/report"
)

func mustParse(t *testing.T, raw string) *report.TestRunReport {
	t.Helper()

	r, err := report.Parse([]byte(raw))
	require.NoError(t, err)

	return r
}

func TestComputeSummary_Counts(t *testing.T) {
	t.Parallel()

	r := mustParse(t, `{"tests": [
		{"nodeid": "t::1", "outcome": "passed"},
		{"nodeid": "t::2", "outcome": "passed"},
		{"nodeid": "t::3", "outcome": "failed"},
		{"nodeid": "t::4", "outcome": "skipped"},
		{"nodeid": "t::5", "outcome": "xfailed"},
		{"nodeid": "t::6", "outcome": "rerun"}
	]}`)

	s := report.ComputeSummary(r)

	assert.Equal(t, 6, s.Total)
	assert.Equal(t, 2, s.Passed)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.Skipped)

	// Named buckets plus unnamed outcomes always add up to the total.
	other := 0
	for _, oc := range report.OutcomeDistribution(r) {
		switch oc.Outcome {
		case report.OutcomePassed, report.OutcomeFailed, report.OutcomeSkipped:
		default:
			other += oc.Count
		}
	}

	assert.Equal(t, s.Total, s.Passed+s.Failed+s.Skipped+other)
}

func TestComputeSummary_EmptyReport(t *testing.T) {
	t.Parallel()

	s := report.ComputeSummary(mustParse(t, `{"tests": []}`))

	assert.Zero(t, s.Total)
	assert.Zero(t, s.PassRate)
	assert.Equal(t, report.HealthNeedsAttention, s.Health)
}

func TestComputeSummary_HealthBoundaries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		passed int
		total  int
		want   report.Health
	}{
		{"exactly 95 percent is excellent", 95, 100, report.HealthExcellent},
		{"just under 95 percent is good", 9499, 10000, report.HealthGood},
		{"exactly 80 percent is good", 80, 100, report.HealthGood},
		{"just under 80 percent needs attention", 7999, 10000, report.HealthNeedsAttention},
		{"all passing", 10, 10, report.HealthExcellent},
		{"none passing", 0, 10, report.HealthNeedsAttention},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := report.ComputeSummary(synthetic(t, tt.passed, tt.total))
			assert.Equal(t, tt.want, s.Health)
			assert.GreaterOrEqual(t, s.PassRate, 0.0)
			assert.LessOrEqual(t, s.PassRate, 100.0)
		})
	}
}

// synthetic builds a report with the given number of passed entries and
// the remainder failed.
func synthetic(t *testing.T, passed, total int) *report.TestRunReport {
	t.Helper()

	raw := `{"tests": [`

	for i := 0; i < total; i++ {
		outcome := "failed"
		if i < passed {
			outcome = "passed"
		}

		if i > 0 {
			raw += ","
		}

		raw += fmt.Sprintf(`{"nodeid": "t::%d", "outcome": %q}`, i, outcome)
	}

	return mustParse(t, raw+`]}`)
}

func TestListFailures(t *testing.T) {
	t.Parallel()

	r := mustParse(t, `{"tests": [
		{"nodeid": "t::ok", "outcome": "passed"},
		{"nodeid": "t::boom", "outcome": "failed",
			"call": {"duration": 1.5, "longrepr": "AssertionError"}},
		{"nodeid": "t::bare", "outcome": "failed"},
		{"nodeid": "t::skip", "outcome": "skipped"}
	]}`)

	failures := report.ListFailures(r)
	require.Len(t, failures, 2)

	// Report order preserved.
	assert.Equal(t, "t::boom", failures[0].NodeID)
	assert.Equal(t, "t::bare", failures[1].NodeID)

	require.NotNil(t, failures[0].Duration)
	assert.Equal(t, 1.5, *failures[0].Duration)
	require.NotNil(t, failures[0].Longrepr)
	assert.Equal(t, "AssertionError", *failures[0].Longrepr)

	// Unresolved fields stay nil so renderers can show a placeholder.
	assert.Nil(t, failures[1].Duration)
	assert.Nil(t, failures[1].Longrepr)
}

func TestRankSlowest(t *testing.T) {
	t.Parallel()

	r := mustParse(t, `{"tests": [
		{"nodeid": "t::a", "outcome": "passed", "duration": 2.0},
		{"nodeid": "t::b", "outcome": "passed", "duration": 5.0},
		{"nodeid": "t::c", "outcome": "passed", "duration": 2.0},
		{"nodeid": "t::d", "outcome": "passed"},
		{"nodeid": "t::e", "outcome": "passed", "duration": 0},
		{"nodeid": "t::f", "outcome": "failed", "call": {"duration": 3.0}}
	]}`)

	t.Run("descending and stable on ties", func(t *testing.T) {
		t.Parallel()

		got := report.RankSlowest(r, 10, false)
		require.Len(t, got, 5)

		assert.Equal(t, "t::b", got[0].NodeID)
		assert.Equal(t, "t::f", got[1].NodeID)
		// t::a and t::c tie at 2.0 and keep report order.
		assert.Equal(t, "t::a", got[2].NodeID)
		assert.Equal(t, "t::c", got[3].NodeID)
		assert.Equal(t, "t::e", got[4].NodeID)

		for i := 1; i < len(got); i++ {
			assert.GreaterOrEqual(t, got[i-1].Duration, got[i].Duration)
		}
	})

	t.Run("exclude zero", func(t *testing.T) {
		t.Parallel()

		got := report.RankSlowest(r, 10, true)
		require.Len(t, got, 4)

		for _, st := range got {
			assert.NotZero(t, st.Duration)
		}
	})

	t.Run("limit truncates", func(t *testing.T) {
		t.Parallel()

		got := report.RankSlowest(r, 2, false)
		require.Len(t, got, 2)
		assert.Equal(t, "t::b", got[0].NodeID)
		assert.Equal(t, "t::f", got[1].NodeID)
	})

	t.Run("no resolvable durations yields empty", func(t *testing.T) {
		t.Parallel()

		bare := mustParse(t, `{"tests": [
			{"nodeid": "t::x", "outcome": "passed"}
		]}`)

		assert.Empty(t, report.RankSlowest(bare, 10, false))
	})
}

func TestCategorize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		nodeID string
		want   string
	}{
		{
			name:   "nested path uses second segment",
			nodeID: "tests/api/test_api.py::test_get_user",
			want:   "api",
		},
		{
			name:   "no slash maps to other",
			nodeID: "test_something",
			want:   "other",
		},
		{
			name:   "single segment path maps to other",
			nodeID: "test_login.py::test_login",
			want:   "other",
		},
		{
			name:   "two segment path uses the file",
			nodeID: "tests/test_smoke.py::test_boot",
			want:   "test_smoke.py",
		},
		{
			name:   "parameterized node id",
			nodeID: "tests/ui/test_login.py::test_login[chrome]",
			want:   "ui",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := mustParse(t, fmt.Sprintf(
				`{"tests": [{"nodeid": %q, "outcome": "passed"}]}`,
				tt.nodeID,
			))

			got := report.Categorize(r)
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0].Category)
			assert.Equal(t, 1, got[0].Count)
		})
	}
}

func TestCategorize_FirstSeenOrder(t *testing.T) {
	t.Parallel()

	r := mustParse(t, `{"tests": [
		{"nodeid": "tests/ui/test_a.py::t1", "outcome": "passed"},
		{"nodeid": "tests/api/test_b.py::t2", "outcome": "passed"},
		{"nodeid": "tests/ui/test_c.py::t3", "outcome": "failed"},
		{"nodeid": "standalone", "outcome": "passed"}
	]}`)

	got := report.Categorize(r)

	require.Len(t, got, 3)
	assert.Equal(t, report.CategoryCount{Category: "ui", Count: 2}, got[0])
	assert.Equal(t, report.CategoryCount{Category: "api", Count: 1}, got[1])
	assert.Equal(t, report.CategoryCount{Category: "other", Count: 1}, got[2])
}

func TestOutcomeDistribution(t *testing.T) {
	t.Parallel()

	r := mustParse(t, `{"tests": [
		{"nodeid": "t::1", "outcome": "failed"},
		{"nodeid": "t::2", "outcome": "passed"},
		{"nodeid": "t::3", "outcome": "failed"},
		{"nodeid": "t::4", "outcome": "flaky"}
	]}`)

	got := report.OutcomeDistribution(r)

	require.Len(t, got, 3)
	assert.Equal(t, report.OutcomeCount{Outcome: "failed", Count: 2}, got[0])
	assert.Equal(t, report.OutcomeCount{Outcome: "passed", Count: 1}, got[1])
	assert.Equal(t, report.OutcomeCount{Outcome: "flaky", Count: 1}, got[2])

	total := 0
	for _, oc := range got {
		total += oc.Count
	}

	assert.Equal(t, report.ComputeSummary(r).Total, total)
}

// TestEndToEndScenario walks a ten-test report through every derived
// view the dashboard consumes.
func TestEndToEndScenario(t *testing.T) {
	t.Parallel()

	r := mustParse(t, `{"created": "2024-06-01", "duration": 42.0, "tests": [
		{"nodeid": "tests/api/t.py::p1", "outcome": "passed", "duration": 0},
		{"nodeid": "tests/api/t.py::p2", "outcome": "passed"},
		{"nodeid": "tests/api/t.py::p3", "outcome": "passed"},
		{"nodeid": "tests/api/t.py::p4", "outcome": "passed"},
		{"nodeid": "tests/ui/t.py::p5", "outcome": "passed"},
		{"nodeid": "tests/ui/t.py::p6", "outcome": "passed"},
		{"nodeid": "tests/ui/t.py::p7", "outcome": "passed"},
		{"nodeid": "tests/ui/t.py::f1", "outcome": "failed",
			"call": {"duration": 5.2, "longrepr": "boom"}},
		{"nodeid": "tests/ui/t.py::f2", "outcome": "failed"},
		{"nodeid": "tests/api/t.py::s1", "outcome": "skipped"}
	]}`)

	s := report.ComputeSummary(r)
	assert.Equal(t, 10, s.Total)
	assert.Equal(t, 7, s.Passed)
	assert.Equal(t, 2, s.Failed)
	assert.Equal(t, 1, s.Skipped)
	assert.Equal(t, 70.0, s.PassRate)
	assert.Equal(t, report.HealthNeedsAttention, s.Health)

	slowest := report.RankSlowest(r, 1, true)
	require.Len(t, slowest, 1)
	assert.Equal(t, "tests/ui/t.py::f1", slowest[0].NodeID)
	assert.Equal(t, 5.2, slowest[0].Duration)
}
