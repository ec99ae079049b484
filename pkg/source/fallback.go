package source

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Compile-time interface check.
var _ Provider = (*fallbackProvider)(nil)

// fallbackProvider is a two-step sequential attempt: primary first,
// then the fallback when the primary fails. There is no retry loop;
// each location gets exactly one try per fetch.
type fallbackProvider struct {
	log      logrus.FieldLogger
	primary  Provider
	fallback Provider
}

func newFallbackProvider(
	log logrus.FieldLogger,
	primary, fallback Provider,
) *fallbackProvider {
	return &fallbackProvider{
		log:      log.WithField("component", "source-fallback"),
		primary:  primary,
		fallback: fallback,
	}
}

// Name identifies the provider by its primary location.
func (p *fallbackProvider) Name() string {
	return p.primary.Name()
}

// Fetch tries the primary, then the fallback. Both failing is the
// caller-facing "no data" condition regardless of the individual
// failure modes.
func (p *fallbackProvider) Fetch(ctx context.Context) ([]byte, error) {
	data, primaryErr := p.primary.Fetch(ctx)
	if primaryErr == nil {
		return data, nil
	}

	p.log.WithError(primaryErr).
		WithField("primary", p.primary.Name()).
		WithField("fallback", p.fallback.Name()).
		Warn("Primary report source failed, trying fallback")

	data, fallbackErr := p.fallback.Fetch(ctx)
	if fallbackErr == nil {
		return data, nil
	}

	return nil, fmt.Errorf(
		"primary (%v) and fallback (%v): %w",
		primaryErr, fallbackErr, ErrNoData,
	)
}
