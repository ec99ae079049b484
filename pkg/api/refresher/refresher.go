package refresher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/qaops/reportoor/pkg/api/history"
	"github.com/qaops/reportoor/pkg/report"
	"github.com/qaops/reportoor/pkg/source"
)

// defaultConcurrency is the number of sources refreshed in parallel.
const defaultConcurrency = 4

// Refresher is a background service that periodically fetches every
// configured report source and records a snapshot of its summary in
// the history store.
type Refresher interface {
	Start(ctx context.Context) error
	Stop() error
}

// Compile-time interface check.
var _ Refresher = (*refresher)(nil)

type refresher struct {
	log       logrus.FieldLogger
	store     history.Store
	providers map[string]source.CachedProvider
	interval  time.Duration
	done      chan struct{}
	wg        sync.WaitGroup
}

// NewRefresher creates a new background refresher.
func NewRefresher(
	log logrus.FieldLogger,
	store history.Store,
	providers map[string]source.CachedProvider,
	interval time.Duration,
) Refresher {
	return &refresher{
		log:       log.WithField("component", "refresher"),
		store:     store,
		providers: providers,
		interval:  interval,
		done:      make(chan struct{}),
	}
}

// Start launches a background goroutine that runs an immediate pass and
// then ticks at the configured interval. The first pass is asynchronous
// so the caller (the API server) is not blocked.
func (rf *refresher) Start(ctx context.Context) error {
	rf.log.WithFields(logrus.Fields{
		"interval": rf.interval.String(),
		"sources":  len(rf.providers),
	}).Info("Starting refresher")

	rf.wg.Add(1)

	go func() {
		defer rf.wg.Done()

		rf.runPass(ctx)

		ticker := time.NewTicker(rf.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				rf.runPass(ctx)
			case <-rf.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop signals the refresher goroutine to stop and waits for it.
func (rf *refresher) Stop() error {
	close(rf.done)
	rf.wg.Wait()

	rf.log.Info("Refresher stopped")

	return nil
}

// runPass snapshots every source with bounded parallelism. Individual
// source failures are logged and skipped so one flaky endpoint never
// starves the rest.
func (rf *refresher) runPass(ctx context.Context) {
	start := time.Now()

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(defaultConcurrency)

	for name, p := range rf.providers {
		g.Go(func() error {
			select {
			case <-gCtx.Done():
				return gCtx.Err()
			case <-rf.done:
				return nil
			default:
			}

			if err := rf.snapshotSource(gCtx, name, p); err != nil {
				rf.log.WithError(err).
					WithField("source", name).
					Warn("Failed to snapshot source")

				return nil //nolint:nilerr // log and continue
			}

			return nil
		})
	}

	_ = g.Wait()

	rf.log.WithField("duration", time.Since(start).Round(time.Millisecond)).
		Debug("Refresh pass completed")
}

// snapshotSource fetches, parses, and records one source.
func (rf *refresher) snapshotSource(
	ctx context.Context, name string, p source.Provider,
) error {
	raw, err := p.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetching report: %w", err)
	}

	rep, err := report.Parse(raw)
	if err != nil {
		return fmt.Errorf("parsing report: %w", err)
	}

	sum := sha256.Sum256(raw)
	fingerprint := hex.EncodeToString(sum[:])

	summary := report.ComputeSummary(rep)

	run := &history.Run{
		Source:        name,
		Fingerprint:   fingerprint,
		ReportCreated: rep.CreatedAt,
		SuiteDuration: rep.SuiteDurationSeconds,
		TestsTotal:    summary.Total,
		TestsPassed:   summary.Passed,
		TestsFailed:   summary.Failed,
		TestsSkipped:  summary.Skipped,
		PassRate:      summary.PassRate,
		Health:        string(summary.Health),
		IndexedAt:     time.Now().UTC(),
	}

	if err := rf.store.UpsertRun(ctx, run); err != nil {
		return fmt.Errorf("recording run: %w", err)
	}

	durations := make([]*history.TestDuration, 0, len(rep.Tests))

	for i := range rep.Tests {
		t := &rep.Tests[i]
		if t.Duration == nil {
			continue
		}

		durations = append(durations, &history.TestDuration{
			Fingerprint: fingerprint,
			NodeID:      t.NodeID,
			Outcome:     string(t.Outcome),
			Seconds:     *t.Duration,
		})
	}

	if err := rf.store.ReplaceTestDurations(
		ctx, fingerprint, durations,
	); err != nil {
		return fmt.Errorf("recording test durations: %w", err)
	}

	rf.log.WithFields(logrus.Fields{
		"source":      name,
		"fingerprint": fingerprint[:12],
		"tests":       summary.Total,
	}).Info("Snapshotted source")

	return nil
}
