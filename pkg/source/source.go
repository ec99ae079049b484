package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/qaops/reportoor/pkg/config"
	"github.com/sirupsen/logrus"
)

// ErrNoData is the terminal condition for one render cycle: every
// configured location for a source failed or was absent. Callers must
// show an explicit "no data" state and skip aggregation entirely.
var ErrNoData = errors.New("no report data available")

// Provider supplies raw report bytes from one location. It does not
// interpret them; the report package decides whether they parse.
type Provider interface {
	// Name identifies the provider for logs and error messages.
	Name() string

	// Fetch returns the raw report bytes or an error. Errors wrapping
	// ErrNoData mean the artifact is definitively absent.
	Fetch(ctx context.Context) ([]byte, error)
}

// CachedProvider is a Provider whose results are held in a
// time-bounded cache that the caller can invalidate for a force
// refresh.
type CachedProvider interface {
	Provider

	// Invalidate drops any cached bytes so the next Fetch goes to the
	// underlying location.
	Invalidate()
}

// NewFromConfig builds the provider chain for one configured source:
// the primary location, an optional local fallback, and a raw-bytes
// cache on top.
func NewFromConfig(
	log logrus.FieldLogger,
	cfg *config.SourceConfig,
) (CachedProvider, error) {
	primary, err := primaryProvider(cfg)
	if err != nil {
		return nil, err
	}

	var p Provider = primary

	if cfg.FallbackPath != "" {
		p = newFallbackProvider(
			log, primary, newLocalProvider(cfg.FallbackPath),
		)
	}

	return newCachedProvider(p, cfg.CacheTTLDuration()), nil
}

// primaryProvider picks the provider for the source's primary location.
func primaryProvider(cfg *config.SourceConfig) (Provider, error) {
	switch {
	case cfg.URL != "":
		return newRemoteProvider(cfg.URL, cfg.FetchTimeoutDuration()), nil
	case cfg.Path != "":
		return newLocalProvider(cfg.Path), nil
	case cfg.S3 != nil:
		return newS3Provider(cfg.S3), nil
	default:
		return nil, fmt.Errorf(
			"source %q has no location configured", cfg.Name,
		)
	}
}
