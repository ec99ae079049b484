package history_test

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qaops/reportoor/pkg/api/history"
	"github.com/qaops/reportoor/pkg/config"
)

func setupTestStore(t *testing.T) history.Store {
	t.Helper()

	cfg := &config.DatabaseConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteConfig{Path: ":memory:"},
	}

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	s := history.NewStore(log, cfg)
	require.NoError(t, s.Start(context.Background()))

	t.Cleanup(func() { _ = s.Stop() })

	return s
}

func TestStore_UpsertAndListRuns(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	runA := &history.Run{
		Source:        "staging",
		Fingerprint:   "fp-1",
		ReportCreated: "2024-06-01",
		TestsTotal:    10,
		TestsPassed:   9,
		TestsFailed:   1,
		PassRate:      90,
		Health:        "Good",
		IndexedAt:     time.Now().UTC(),
	}
	runB := &history.Run{
		Source:      "prod",
		Fingerprint: "fp-2",
		TestsTotal:  5,
		TestsPassed: 5,
		PassRate:    100,
		Health:      "Excellent",
		IndexedAt:   time.Now().UTC().Add(time.Second),
	}

	require.NoError(t, s.UpsertRun(ctx, runA))
	require.NoError(t, s.UpsertRun(ctx, runB))

	staging, err := s.ListRuns(ctx, "staging")
	require.NoError(t, err)
	require.Len(t, staging, 1)
	assert.Equal(t, "fp-1", staging[0].Fingerprint)
	assert.Equal(t, 9, staging[0].TestsPassed)

	all, err := s.ListAllRuns(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestStore_UpsertRunIdempotent(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	run := &history.Run{
		Source:      "staging",
		Fingerprint: "fp-1",
		TestsTotal:  10,
		TestsFailed: 2,
		IndexedAt:   time.Now().UTC(),
	}
	require.NoError(t, s.UpsertRun(ctx, run))

	// Same source + fingerprint with updated fields replaces in place.
	again := &history.Run{
		Source:      "staging",
		Fingerprint: "fp-1",
		TestsTotal:  10,
		TestsFailed: 3,
		IndexedAt:   time.Now().UTC(),
	}
	require.NoError(t, s.UpsertRun(ctx, again))

	runs, err := s.ListRuns(ctx, "staging")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 3, runs[0].TestsFailed)
}

func TestStore_ReplaceTestDurations(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	first := []*history.TestDuration{
		{Fingerprint: "fp-1", NodeID: "t::a", Outcome: "passed", Seconds: 1.5},
		{Fingerprint: "fp-1", NodeID: "t::b", Outcome: "failed", Seconds: 5.2},
	}
	require.NoError(t, s.ReplaceTestDurations(ctx, "fp-1", first))

	got, err := s.ListTestDurations(ctx, "fp-1")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	// Replacement drops stale rows.
	second := []*history.TestDuration{
		{Fingerprint: "fp-1", NodeID: "t::c", Outcome: "passed", Seconds: 0.1},
	}
	require.NoError(t, s.ReplaceTestDurations(ctx, "fp-1", second))

	got, err = s.ListTestDurations(ctx, "fp-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "t::c", got[0].NodeID)

	// Other fingerprints are untouched.
	other := []*history.TestDuration{
		{Fingerprint: "fp-2", NodeID: "t::z", Outcome: "passed", Seconds: 9},
	}
	require.NoError(t, s.ReplaceTestDurations(ctx, "fp-2", other))
	require.NoError(t, s.ReplaceTestDurations(ctx, "fp-1", nil))

	got, err = s.ListTestDurations(ctx, "fp-2")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestStore_UnsupportedDriver(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	s := history.NewStore(log, &config.DatabaseConfig{Driver: "oracle"})
	assert.ErrorContains(t, s.Start(context.Background()),
		"unsupported database driver")
}
