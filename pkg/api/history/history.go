package history

import (
	"context"
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/qaops/reportoor/pkg/config"
)

// Store provides persistence for ingested report snapshots.
type Store interface {
	Start(ctx context.Context) error
	Stop() error

	UpsertRun(ctx context.Context, run *Run) error
	ListRuns(ctx context.Context, source string) ([]Run, error)
	ListAllRuns(ctx context.Context) ([]Run, error)

	ReplaceTestDurations(
		ctx context.Context, fingerprint string, durations []*TestDuration,
	) error
	ListTestDurations(
		ctx context.Context, fingerprint string,
	) ([]TestDuration, error)
}

// Compile-time interface check.
var _ Store = (*store)(nil)

type store struct {
	log logrus.FieldLogger
	cfg *config.DatabaseConfig
	db  *gorm.DB
}

// NewStore creates a history Store backed by the configured database driver.
func NewStore(
	log logrus.FieldLogger,
	cfg *config.DatabaseConfig,
) Store {
	return &store{
		log: log.WithField("component", "history"),
		cfg: cfg,
	}
}

// Start opens the database connection and runs migrations.
func (s *store) Start(ctx context.Context) error {
	var dialector gorm.Dialector

	gormCfg := &gorm.Config{
		Logger: logger.Discard,
	}

	switch s.cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(s.cfg.SQLite.Path)
	case "postgres":
		dsn := fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			s.cfg.Postgres.Host,
			s.cfg.Postgres.Port,
			s.cfg.Postgres.User,
			s.cfg.Postgres.Password,
			s.cfg.Postgres.Database,
			s.cfg.Postgres.SSLMode,
		)
		dialector = postgres.Open(dsn)
	default:
		return fmt.Errorf("unsupported database driver: %s", s.cfg.Driver)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return fmt.Errorf("opening history database: %w", err)
	}

	s.db = db

	if err := s.db.WithContext(ctx).AutoMigrate(
		&Run{},
		&TestDuration{},
	); err != nil {
		return fmt.Errorf("running history migrations: %w", err)
	}

	s.log.WithField("driver", s.cfg.Driver).
		Info("History database connected")

	return nil
}

// Stop closes the underlying database connection.
func (s *store) Stop() error {
	if s.db == nil {
		return nil
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("getting underlying db: %w", err)
	}

	return sqlDB.Close()
}

// UpsertRun inserts or updates a snapshot keyed by source + fingerprint.
func (s *store) UpsertRun(ctx context.Context, run *Run) error {
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "source"}, {Name: "fingerprint"},
		},
		UpdateAll: true,
	}).Create(run).Error; err != nil {
		return fmt.Errorf("upserting run: %w", err)
	}

	return nil
}

// ListRuns returns all snapshots for a source, newest first.
func (s *store) ListRuns(
	ctx context.Context, source string,
) ([]Run, error) {
	var runs []Run
	if err := s.db.WithContext(ctx).
		Where("source = ?", source).
		Order("indexed_at DESC").
		Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}

	return runs, nil
}

// ListAllRuns returns all snapshots across all sources, newest first.
func (s *store) ListAllRuns(ctx context.Context) ([]Run, error) {
	var runs []Run
	if err := s.db.WithContext(ctx).
		Order("indexed_at DESC").
		Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("listing all runs: %w", err)
	}

	return runs, nil
}

// ReplaceTestDurations swaps the per-test entries for a fingerprint in
// one transaction so a re-ingested report never leaves stale rows.
func (s *store) ReplaceTestDurations(
	ctx context.Context, fingerprint string, durations []*TestDuration,
) error {
	const batchSize = 100

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("fingerprint = ?", fingerprint).
			Delete(&TestDuration{}).Error; err != nil {
			return fmt.Errorf("deleting stale test durations: %w", err)
		}

		if len(durations) == 0 {
			return nil
		}

		if err := tx.CreateInBatches(durations, batchSize).Error; err != nil {
			return fmt.Errorf("inserting test durations: %w", err)
		}

		return nil
	})
}

// ListTestDurations returns the per-test entries for a fingerprint.
func (s *store) ListTestDurations(
	ctx context.Context, fingerprint string,
) ([]TestDuration, error) {
	var durations []TestDuration
	if err := s.db.WithContext(ctx).
		Where("fingerprint = ?", fingerprint).
		Find(&durations).Error; err != nil {
		return nil, fmt.Errorf("listing test durations: %w", err)
	}

	return durations, nil
}
