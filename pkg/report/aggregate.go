package report

import (
	"sort"
	"strings"
)

// ComputeSummary counts outcomes and classifies the pass rate. Outcomes
// outside the named buckets still count toward Total.
func ComputeSummary(r *TestRunReport) Summary {
	s := Summary{Total: len(r.Tests)}

	for i := range r.Tests {
		switch r.Tests[i].Outcome {
		case OutcomePassed:
			s.Passed++
		case OutcomeFailed:
			s.Failed++
		case OutcomeSkipped:
			s.Skipped++
		}
	}

	if s.Total > 0 {
		s.PassRate = float64(s.Passed) / float64(s.Total) * 100
	}

	s.Health = classifyHealth(s.PassRate)

	return s
}

// classifyHealth maps a pass rate to a health label. Cutoffs are
// inclusive on the lower bound of each bucket.
func classifyHealth(passRate float64) Health {
	switch {
	case passRate >= 95:
		return HealthExcellent
	case passRate >= 80:
		return HealthGood
	default:
		return HealthNeedsAttention
	}
}

// ListFailures returns the failed tests in report order with their
// resolved duration and failure detail. Nil fields mean the report did
// not carry them; renderers substitute an explicit placeholder.
func ListFailures(r *TestRunReport) []FailureRecord {
	failures := make([]FailureRecord, 0)

	for i := range r.Tests {
		t := &r.Tests[i]
		if t.Outcome != OutcomeFailed {
			continue
		}

		failures = append(failures, FailureRecord{
			NodeID:   t.NodeID,
			Duration: t.Duration,
			Longrepr: t.Longrepr,
		})
	}

	return failures
}

// RankSlowest returns up to limit tests ordered by resolved duration
// descending. Entries without a resolvable duration are skipped, as are
// zero durations when excludeZero is set. The sort is stable so equal
// durations keep report order. An empty result means no entry resolved
// a duration (or all were excluded), which callers must present as
// "duration unavailable" rather than an empty ranking.
func RankSlowest(r *TestRunReport, limit int, excludeZero bool) []SlowTest {
	ranked := make([]SlowTest, 0, len(r.Tests))

	for i := range r.Tests {
		t := &r.Tests[i]
		if t.Duration == nil {
			continue
		}

		if excludeZero && *t.Duration == 0 {
			continue
		}

		ranked = append(ranked, SlowTest{
			NodeID:   t.NodeID,
			Duration: *t.Duration,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Duration > ranked[j].Duration
	})

	if limit >= 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	return ranked
}

// fallbackCategory is used for node IDs without a second path segment.
const fallbackCategory = "other"

// Categorize groups tests by the second segment of the node ID's
// path prefix ("tests/api/test_api.py::test_x" belongs to "api").
// Buckets appear in first-seen order.
func Categorize(r *TestRunReport) []CategoryCount {
	counts := make(map[string]int, 8)
	order := make([]string, 0, 8)

	for i := range r.Tests {
		cat := categoryOf(r.Tests[i].NodeID)

		if _, seen := counts[cat]; !seen {
			order = append(order, cat)
		}

		counts[cat]++
	}

	out := make([]CategoryCount, 0, len(order))
	for _, cat := range order {
		out = append(out, CategoryCount{Category: cat, Count: counts[cat]})
	}

	return out
}

// categoryOf derives the category label for a single node ID: the
// second segment of the path prefix before the first "::".
func categoryOf(nodeID string) string {
	path, _, _ := strings.Cut(nodeID, "::")

	segments := strings.Split(path, "/")
	if len(segments) < 2 || segments[1] == "" {
		return fallbackCategory
	}

	return segments[1]
}

// OutcomeDistribution groups tests by exact outcome value in first-seen
// order. The bucket total always equals Summary.Total for the same
// report since every test lands in exactly one bucket.
func OutcomeDistribution(r *TestRunReport) []OutcomeCount {
	counts := make(map[Outcome]int, 8)
	order := make([]Outcome, 0, 8)

	for i := range r.Tests {
		o := r.Tests[i].Outcome

		if _, seen := counts[o]; !seen {
			order = append(order, o)
		}

		counts[o]++
	}

	out := make([]OutcomeCount, 0, len(order))
	for _, o := range order {
		out = append(out, OutcomeCount{Outcome: o, Count: counts[o]})
	}

	return out
}
