package report

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ParseErrorKind names the structural failure modes of a report artifact.
type ParseErrorKind string

const (
	// MalformedJSON means the raw bytes did not decode as JSON at all.
	MalformedJSON ParseErrorKind = "MalformedJSON"

	// MissingTestsField means the document decoded but has no "tests"
	// key. Callers decide whether that is a warning or fatal; it is
	// never silently treated as an empty run.
	MissingTestsField ParseErrorKind = "MissingTestsField"

	// MissingOutcomeField means at least one test entry has no
	// resolvable outcome, so any summary computed over it would be
	// wrong. Aggregation is aborted instead.
	MissingOutcomeField ParseErrorKind = "MissingOutcomeField"
)

// ParseError is a structural parse failure with a branchable kind.
type ParseError struct {
	Kind ParseErrorKind
	Err  error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}

	return string(e.Kind)
}

// Unwrap exposes the underlying cause, if any.
func (e *ParseError) Unwrap() error { return e.Err }

// rawPhase is the nested call/setup block of a test entry.
type rawPhase struct {
	Duration *float64 `json:"duration"`
	Longrepr *string  `json:"longrepr"`
}

// rawTest mirrors one entry of the artifact's "tests" array. Pointers
// distinguish absent fields from zero values.
type rawTest struct {
	NodeID   string    `json:"nodeid"`
	Outcome  *string   `json:"outcome"`
	Duration *float64  `json:"duration"`
	Longrepr *string   `json:"longrepr"`
	Call     *rawPhase `json:"call"`
	Setup    *rawPhase `json:"setup"`
}

// rawEnvelope mirrors the top level of the artifact. Tests stays nil
// when the key is missing entirely, which is how MissingTestsField is
// told apart from an empty run.
type rawEnvelope struct {
	Created  json.RawMessage `json:"created"`
	Duration *float64        `json:"duration"`
	Tests    *[]rawTest      `json:"tests"`
}

// Parse decodes a report artifact into an immutable TestRunReport,
// resolving every optional field once so later aggregation is
// deterministic. It is pure: no I/O, no mutation of the input.
//
// Failures are returned as *ParseError with kinds MalformedJSON,
// MissingTestsField, or MissingOutcomeField.
func Parse(raw []byte) (*TestRunReport, error) {
	var env rawEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &ParseError{Kind: MalformedJSON, Err: err}
	}

	if env.Tests == nil {
		return nil, &ParseError{Kind: MissingTestsField}
	}

	out := &TestRunReport{
		CreatedAt: createdString(env.Created),
		Tests:     make([]TestResult, 0, len(*env.Tests)),
	}

	if env.Duration != nil && *env.Duration > 0 {
		out.SuiteDurationSeconds = *env.Duration
	}

	for i := range *env.Tests {
		t := &(*env.Tests)[i]

		if t.Outcome == nil || *t.Outcome == "" {
			return nil, &ParseError{
				Kind: MissingOutcomeField,
				Err:  fmt.Errorf("test entry %d (%q)", i, t.NodeID),
			}
		}

		tr := TestResult{
			NodeID:  t.NodeID,
			Outcome: Outcome(*t.Outcome),
		}

		tr.Duration, tr.DurationSource = resolveDuration(t)
		tr.Longrepr, tr.LongreprSource = resolveLongrepr(t)

		out.Tests = append(out.Tests, tr)
	}

	return out, nil
}

// resolveDuration picks the effective duration: top-level, then
// call.duration, then setup.duration.
func resolveDuration(t *rawTest) (*float64, FieldSource) {
	if t.Duration != nil {
		return t.Duration, SourceTopLevel
	}

	if t.Call != nil && t.Call.Duration != nil {
		return t.Call.Duration, SourceCall
	}

	if t.Setup != nil && t.Setup.Duration != nil {
		return t.Setup.Duration, SourceSetup
	}

	return nil, SourceNone
}

// resolveLongrepr picks the effective failure detail: top-level, then
// call.longrepr, then setup.longrepr (setup failures surface their
// detail there).
func resolveLongrepr(t *rawTest) (*string, FieldSource) {
	if t.Longrepr != nil {
		return t.Longrepr, SourceTopLevel
	}

	if t.Call != nil && t.Call.Longrepr != nil {
		return t.Call.Longrepr, SourceCall
	}

	if t.Setup != nil && t.Setup.Longrepr != nil {
		return t.Setup.Longrepr, SourceSetup
	}

	return nil, SourceNone
}

// createdString renders the "created" field, which appears as either a
// string or an epoch number depending on the report generator.
func createdString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "unknown"
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}

	return "unknown"
}
