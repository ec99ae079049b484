package source

import (
	"context"
	"fmt"
	"os"
)

// Compile-time interface check.
var _ Provider = (*localProvider)(nil)

// localProvider reads the report artifact from a local file path.
type localProvider struct {
	path string
}

func newLocalProvider(path string) *localProvider {
	return &localProvider{path: path}
}

// Name identifies the provider by its file path.
func (p *localProvider) Name() string {
	return "file:" + p.path
}

// Fetch reads the file. A missing file is a definitive "no data"
// condition rather than a transient failure.
func (p *localProvider) Fetch(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("report file %s: %w", p.path, ErrNoData)
		}

		return nil, fmt.Errorf("reading report file %s: %w", p.path, err)
	}

	return data, nil
}
