package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxReportBytes bounds how much of a response body is read. Report
// artifacts are small; anything larger is a misconfigured endpoint.
const maxReportBytes = 64 << 20

// Compile-time interface check.
var _ Provider = (*remoteProvider)(nil)

// remoteProvider fetches the report artifact from an HTTP endpoint with
// a bounded timeout. It never retries; fallback handling is layered on
// top by fallbackProvider.
type remoteProvider struct {
	url    string
	client *http.Client
}

func newRemoteProvider(url string, timeout time.Duration) *remoteProvider {
	return &remoteProvider{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Name identifies the provider by its URL.
func (p *remoteProvider) Name() string {
	return p.url
}

// Fetch performs one GET against the endpoint. Non-2xx statuses are
// errors so the caller can fall back instead of parsing an error page.
func (p *remoteProvider) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, p.url, nil,
	)
	if err != nil {
		return nil, fmt.Errorf("building report request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching report from %s: %w", p.url, err)
	}

	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf(
			"fetching report from %s: unexpected status %d",
			p.url, resp.StatusCode,
		)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxReportBytes))
	if err != nil {
		return nil, fmt.Errorf("reading report body: %w", err)
	}

	return data, nil
}
