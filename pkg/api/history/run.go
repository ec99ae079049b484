package history

import "time"

// Run is one ingested report snapshot. The fingerprint is the sha256 of
// the raw artifact bytes, so re-ingesting an unchanged report updates
// the existing row instead of growing the table.
type Run struct {
	ID          uint   `gorm:"primaryKey"`
	Source      string `gorm:"not null;uniqueIndex:idx_runs_source_fp"`
	Fingerprint string `gorm:"not null;uniqueIndex:idx_runs_source_fp"`

	// ReportCreated is the artifact's own creation marker, kept as the
	// opaque string the report carried ("unknown" when absent).
	ReportCreated string

	SuiteDuration float64

	// Denormalized summary fields.
	TestsTotal   int
	TestsPassed  int
	TestsFailed  int
	TestsSkipped int
	PassRate     float64
	Health       string

	IndexedAt time.Time
}
