package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/qaops/reportoor/pkg/api/history"
	"github.com/qaops/reportoor/pkg/api/refresher"
	"github.com/qaops/reportoor/pkg/config"
	"github.com/qaops/reportoor/pkg/report"
	"github.com/qaops/reportoor/pkg/source"
)

const shutdownTimeout = 10 * time.Second

// Server exposes the dashboard API HTTP server lifecycle.
type Server interface {
	Start(ctx context.Context) error
	Stop() error
}

// Compile-time interface check.
var _ Server = (*server)(nil)

type server struct {
	log         logrus.FieldLogger
	cfg         *config.Config
	providers   map[string]source.CachedProvider
	sourceOrder []string
	store       history.Store
	refresher   refresher.Refresher
	httpServer  *http.Server
	wg          sync.WaitGroup
	done        chan struct{}
}

// NewServer creates a new dashboard API server.
func NewServer(
	log logrus.FieldLogger,
	cfg *config.Config,
) Server {
	return &server{
		log:  log.WithField("component", "api"),
		cfg:  cfg,
		done: make(chan struct{}),
	}
}

// Start builds the report providers, opens the history store when
// enabled, and starts the HTTP server.
func (s *server) Start(ctx context.Context) error {
	s.providers = make(
		map[string]source.CachedProvider, len(s.cfg.Sources),
	)
	s.sourceOrder = make([]string, 0, len(s.cfg.Sources))

	for i := range s.cfg.Sources {
		src := &s.cfg.Sources[i]

		p, err := source.NewFromConfig(s.log, src)
		if err != nil {
			return fmt.Errorf("building source %q: %w", src.Name, err)
		}

		s.providers[src.Name] = p
		s.sourceOrder = append(s.sourceOrder, src.Name)
	}

	// Open the history store before the router so the /runs endpoints
	// are wired, but start the background refresher only once the
	// server is listening.
	if s.historyEnabled() {
		s.store = history.NewStore(s.log, &s.cfg.Server.History.Database)
		if err := s.store.Start(ctx); err != nil {
			return fmt.Errorf("starting history store: %w", err)
		}

		s.refresher = refresher.NewRefresher(
			s.log, s.store, s.providers,
			s.cfg.Server.RefreshIntervalDuration(),
		)
	}

	router := s.buildRouter()

	s.httpServer = &http.Server{
		Addr:              s.cfg.Server.Listen,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Bind the listener synchronously so we fail fast on port conflicts.
	ln, err := net.Listen("tcp", s.cfg.Server.Listen)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Server.Listen, err)
	}

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()

		s.log.WithField("listen", s.cfg.Server.Listen).
			Info("Dashboard API server starting")

		if err := s.httpServer.Serve(ln); err != nil &&
			err != http.ErrServerClosed {
			s.log.WithError(err).Error("HTTP server error")
		}
	}()

	if s.refresher != nil {
		if err := s.refresher.Start(ctx); err != nil {
			return fmt.Errorf("starting refresher: %w", err)
		}
	}

	return nil
}

// Stop gracefully shuts down the HTTP server, the refresher, and the
// history store.
func (s *server) Stop() error {
	close(s.done)

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(
			context.Background(), shutdownTimeout,
		)
		defer cancel()

		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.log.WithError(err).Warn("HTTP server shutdown error")
		}
	}

	s.wg.Wait()

	if s.refresher != nil {
		if err := s.refresher.Stop(); err != nil {
			s.log.WithError(err).Warn("Refresher stop error")
		}
	}

	if s.store != nil {
		if err := s.store.Stop(); err != nil {
			return fmt.Errorf("stopping history store: %w", err)
		}
	}

	s.log.Info("Dashboard API server stopped")

	return nil
}

func (s *server) historyEnabled() bool {
	return s.cfg.Server.History != nil && s.cfg.Server.History.Enabled
}

// loadReport fetches and parses the current report for a named source.
// The provider layers the raw-bytes cache and any fallback underneath.
func (s *server) loadReport(
	ctx context.Context, name string,
) (*report.TestRunReport, error) {
	p, ok := s.providers[name]
	if !ok {
		return nil, errUnknownSource
	}

	raw, err := p.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	return report.Parse(raw)
}
