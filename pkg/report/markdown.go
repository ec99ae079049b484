package report

import (
	"fmt"
	"strings"
)

// markdownNoDetails is shown for failures whose report carried no
// detail at any nesting level.
const markdownNoDetails = "No error details available"

// RenderMarkdown renders an offline markdown summary of one report:
// the headline counts, the failing tests, the slow-test ranking, and
// the category and outcome distributions. limit bounds the slowest
// section; a negative limit means unlimited.
func RenderMarkdown(r *TestRunReport, limit int, excludeZero bool) string {
	summary := ComputeSummary(r)

	var sb strings.Builder

	sb.Grow(4096)

	sb.WriteString("# Test Run Summary\n\n")

	writeOverview(&sb, r, &summary)
	writeFailures(&sb, ListFailures(r))
	writeSlowest(&sb, RankSlowest(r, limit, excludeZero))
	writeCategories(&sb, Categorize(r))
	writeOutcomes(&sb, OutcomeDistribution(r))

	return sb.String()
}

func writeOverview(sb *strings.Builder, r *TestRunReport, s *Summary) {
	sb.WriteString("## Overview\n\n")
	sb.WriteString("| Field | Value |\n")
	sb.WriteString("|-------|-------|\n")
	fmt.Fprintf(sb, "| Created | %s |\n", r.CreatedAt)
	fmt.Fprintf(sb, "| Suite duration | %.2fs |\n", r.SuiteDurationSeconds)
	fmt.Fprintf(sb, "| Total tests | %d |\n", s.Total)
	fmt.Fprintf(sb, "| Passed | %d |\n", s.Passed)
	fmt.Fprintf(sb, "| Failed | %d |\n", s.Failed)
	fmt.Fprintf(sb, "| Skipped | %d |\n", s.Skipped)
	fmt.Fprintf(sb, "| Pass rate | %.1f%% |\n", s.PassRate)
	fmt.Fprintf(sb, "| Health | %s |\n", s.Health)
	sb.WriteString("\n")
}

func writeFailures(sb *strings.Builder, failures []FailureRecord) {
	sb.WriteString("## Failing Tests\n\n")

	if len(failures) == 0 {
		sb.WriteString("No failing tests.\n\n")

		return
	}

	sb.WriteString("| Test | Duration | Details |\n")
	sb.WriteString("|------|----------|---------|\n")

	for i := range failures {
		f := &failures[i]

		duration := "-"
		if f.Duration != nil {
			duration = fmt.Sprintf("%.3fs", *f.Duration)
		}

		detail := markdownNoDetails
		if f.Longrepr != nil {
			detail = firstLine(*f.Longrepr)
		}

		fmt.Fprintf(sb, "| `%s` | %s | %s |\n",
			f.NodeID, duration, escapeCell(detail))
	}

	sb.WriteString("\n")
}

func writeSlowest(sb *strings.Builder, tests []SlowTest) {
	sb.WriteString("## Slowest Tests\n\n")

	if len(tests) == 0 {
		sb.WriteString("No duration data available.\n\n")

		return
	}

	sb.WriteString("| Test | Duration |\n")
	sb.WriteString("|------|----------|\n")

	for i := range tests {
		fmt.Fprintf(sb, "| `%s` | %.3fs |\n",
			tests[i].NodeID, tests[i].Duration)
	}

	sb.WriteString("\n")
}

func writeCategories(sb *strings.Builder, categories []CategoryCount) {
	sb.WriteString("## Tests by Category\n\n")
	sb.WriteString("| Category | Count |\n")
	sb.WriteString("|----------|-------|\n")

	for i := range categories {
		fmt.Fprintf(sb, "| %s | %d |\n",
			categories[i].Category, categories[i].Count)
	}

	sb.WriteString("\n")
}

func writeOutcomes(sb *strings.Builder, outcomes []OutcomeCount) {
	sb.WriteString("## Outcome Distribution\n\n")
	sb.WriteString("| Outcome | Count |\n")
	sb.WriteString("|---------|-------|\n")

	for i := range outcomes {
		fmt.Fprintf(sb, "| %s | %d |\n",
			outcomes[i].Outcome, outcomes[i].Count)
	}

	sb.WriteString("\n")
}

// firstLine trims a multi-line failure detail to its first line so the
// table stays readable.
func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")

	return strings.TrimSpace(line)
}

// escapeCell keeps table syntax intact for details containing pipes.
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
