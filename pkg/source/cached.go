package source

import (
	"context"
	"sync"
	"time"
)

// Compile-time interface check.
var _ CachedProvider = (*cachedProvider)(nil)

// cachedProvider keeps the last successful fetch's raw bytes for a
// bounded window so repeated renders within that window skip the
// network. Failures are never cached. The mutex exists only because
// the HTTP server shares one provider across requests; there is no
// concurrent writer to the cached value beyond Fetch itself.
type cachedProvider struct {
	inner Provider
	ttl   time.Duration

	mu        sync.Mutex
	data      []byte
	fetchedAt time.Time

	// now is injectable for tests.
	now func() time.Time
}

func newCachedProvider(inner Provider, ttl time.Duration) *cachedProvider {
	return &cachedProvider{
		inner: inner,
		ttl:   ttl,
		now:   time.Now,
	}
}

// Name identifies the underlying provider.
func (p *cachedProvider) Name() string {
	return p.inner.Name()
}

// Fetch returns cached bytes while they are fresh, otherwise delegates
// to the underlying provider and caches the result.
func (p *cachedProvider) Fetch(ctx context.Context) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.data != nil && p.now().Sub(p.fetchedAt) < p.ttl {
		return p.data, nil
	}

	data, err := p.inner.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	p.data = data
	p.fetchedAt = p.now()

	return data, nil
}

// Invalidate drops the cached bytes. The caller's force-refresh signal
// calls this before the next fetch attempt.
func (p *cachedProvider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.data = nil
	p.fetchedAt = time.Time{}
}
