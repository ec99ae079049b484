package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/qaops/reportoor/pkg/report"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Generate a markdown summary from a report file",
	Long: `Reads a pytest-style JSON report from disk and produces a markdown
summary with headline counts, failing tests, the slow-test ranking, and
the category and outcome distributions.`,
	RunE: runSummary,
}

var (
	summaryReport      string
	summaryOutput      string
	summaryLimit       int
	summaryExcludeZero bool
)

func init() {
	rootCmd.AddCommand(summaryCmd)
	summaryCmd.Flags().StringVar(&summaryReport, "report", "",
		"Path to the JSON report file")
	summaryCmd.Flags().StringVar(&summaryOutput, "output", "",
		"Output file path (default: stdout)")
	summaryCmd.Flags().IntVar(&summaryLimit, "limit", 10,
		"Number of slowest tests to include (negative for all)")
	summaryCmd.Flags().BoolVar(&summaryExcludeZero, "exclude-zero", false,
		"Exclude zero-duration tests from the slowest ranking")

	if err := summaryCmd.MarkFlagRequired("report"); err != nil {
		panic(err)
	}
}

func runSummary(_ *cobra.Command, _ []string) error {
	raw, err := os.ReadFile(summaryReport)
	if err != nil {
		return fmt.Errorf("reading report file: %w", err)
	}

	rep, err := report.Parse(raw)
	if err != nil {
		return fmt.Errorf("parsing report: %w", err)
	}

	md := report.RenderMarkdown(rep, summaryLimit, summaryExcludeZero)

	if summaryOutput == "" {
		fmt.Print(md)

		return nil
	}

	if err := os.WriteFile(summaryOutput, []byte(md), 0644); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}

	log.WithField("output", summaryOutput).
		Info("Markdown summary generated successfully")

	return nil
}
