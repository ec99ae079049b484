package report_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qaops/reportoor/pkg/report"
)

func TestRenderMarkdown(t *testing.T) {
	raw := []byte(`{
		"created": "2024-06-01T10:00:00",
		"duration": 42.0,
		"tests": [
			{"nodeid": "tests/api/test_users.py::test_get",
			 "outcome": "passed", "call": {"duration": 1.5}},
			{"nodeid": "tests/api/test_users.py::test_post",
			 "outcome": "failed",
			 "call": {"duration": 0.4,
			          "longrepr": "AssertionError: a | b\nmore detail"}},
			{"nodeid": "tests/db/test_conn.py::test_ping",
			 "outcome": "failed"},
			{"nodeid": "test_root.py::test_smoke", "outcome": "skipped"}
		]
	}`)

	rep, err := report.Parse(raw)
	require.NoError(t, err)

	md := report.RenderMarkdown(rep, 10, false)

	assert.Contains(t, md, "# Test Run Summary")
	assert.Contains(t, md, "| Total tests | 4 |")
	assert.Contains(t, md, "| Pass rate | 25.0% |")
	assert.Contains(t, md, "| Health | Needs Attention |")

	// Multi-line detail trimmed to its first line, pipe escaped.
	assert.Contains(t, md, "AssertionError: a \\| b")
	assert.NotContains(t, md, "more detail")

	// Failure without detail gets the placeholder, without duration a dash.
	assert.Contains(t,
		md, "| `tests/db/test_conn.py::test_ping` | - | No error details available |")

	assert.Contains(t, md, "| api | 2 |")
	assert.Contains(t, md, "| db | 1 |")
	assert.Contains(t, md, "| other | 1 |")
	assert.Contains(t, md, "| skipped | 1 |")
}

func TestRenderMarkdown_NoDurations(t *testing.T) {
	raw := []byte(`{"tests": [
		{"nodeid": "tests/a/t.py::x", "outcome": "passed"}
	]}`)

	rep, err := report.Parse(raw)
	require.NoError(t, err)

	md := report.RenderMarkdown(rep, 10, false)

	assert.Contains(t, md, "No duration data available.")
	assert.Contains(t, md, "No failing tests.")
	assert.Contains(t, md, "| Created | unknown |")
}
