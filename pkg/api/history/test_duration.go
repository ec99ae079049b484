package history

// TestDuration is one per-test timing entry of an ingested snapshot,
// kept for duration-trend views.
type TestDuration struct {
	ID          uint   `gorm:"primaryKey"`
	Fingerprint string `gorm:"not null;uniqueIndex:idx_td_fp_node"`
	NodeID      string `gorm:"not null;uniqueIndex:idx_td_fp_node"`
	Outcome     string
	Seconds     float64
}
