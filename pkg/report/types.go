package report

// Outcome is the terminal status of a single test case. The set below
// covers the common pytest statuses, but the taxonomy is extensible:
// unknown values pass through verbatim and count toward the total
// without landing in any named bucket.
type Outcome string

const (
	OutcomePassed  Outcome = "passed"
	OutcomeFailed  Outcome = "failed"
	OutcomeSkipped Outcome = "skipped"
	OutcomeXFailed Outcome = "xfailed"
	OutcomeXPassed Outcome = "xpassed"
)

// FieldSource identifies the nesting level an optional field was
// resolved from. Resolution is first-match-wins over the fixed order
// top-level, call, setup.
type FieldSource int

const (
	SourceNone FieldSource = iota
	SourceTopLevel
	SourceCall
	SourceSetup
)

// String returns the lowercase name of the field source.
func (s FieldSource) String() string {
	switch s {
	case SourceTopLevel:
		return "top-level"
	case SourceCall:
		return "call"
	case SourceSetup:
		return "setup"
	default:
		return "none"
	}
}

// TestRunReport is the parsed, immutable form of one test-run report
// artifact. Tests preserve report order.
type TestRunReport struct {
	// CreatedAt is the report generation time as found in the artifact,
	// or "unknown" when absent.
	CreatedAt string

	// SuiteDurationSeconds is the whole-suite wall time. Zero when the
	// report does not carry it (documented zero-default, suite level only).
	SuiteDurationSeconds float64

	Tests []TestResult
}

// TestResult is a single test entry with its optional fields already
// resolved against the nesting priority. A nil Duration or Longrepr
// means the field was absent at every level, which renderers must show
// as "unavailable" rather than a fabricated value.
type TestResult struct {
	NodeID  string
	Outcome Outcome

	Duration       *float64
	DurationSource FieldSource

	Longrepr       *string
	LongreprSource FieldSource
}

// Health classifies a pass rate for display.
type Health string

const (
	HealthExcellent      Health = "Excellent"
	HealthGood           Health = "Good"
	HealthNeedsAttention Health = "Needs Attention"
)

// Summary holds the headline counts for one report.
type Summary struct {
	Total    int     `json:"total"`
	Passed   int     `json:"passed"`
	Failed   int     `json:"failed"`
	Skipped  int     `json:"skipped"`
	PassRate float64 `json:"pass_rate"`
	Health   Health  `json:"health"`
}

// FailureRecord is one failed test with whatever detail the report
// carried for it.
type FailureRecord struct {
	NodeID   string   `json:"nodeid"`
	Duration *float64 `json:"duration,omitempty"`
	Longrepr *string  `json:"longrepr,omitempty"`
}

// SlowTest is one entry of the slowest-tests ranking.
type SlowTest struct {
	NodeID   string  `json:"nodeid"`
	Duration float64 `json:"duration"`
}

// CategoryCount is one category bucket of the category distribution.
// Slices of these preserve first-seen order.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// OutcomeCount is one outcome bucket of the outcome distribution.
// Slices of these preserve first-seen order.
type OutcomeCount struct {
	Outcome Outcome `json:"outcome"`
	Count   int     `json:"count"`
}
