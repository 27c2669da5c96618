package mocks

import (
	"context"
	"sync"
)

// ImageLoader is a mock implementation of ports.ImageLoader.
type ImageLoader struct {
	// Images maps avatar references to the data returned for them.
	Images map[string]string
	// Errs fails lookups for specific references.
	Errs map[string]error
	Err  error

	// Gate, when set, blocks every call until it is closed or ctx is done.
	Gate chan struct{}
	// Started receives each reference before the call blocks on Gate.
	Started chan string

	mu    sync.Mutex
	calls []string
}

// GetImageData returns the configured data for ref.
func (m *ImageLoader) GetImageData(ctx context.Context, ref string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, ref)
	m.mu.Unlock()

	if m.Started != nil {
		m.Started <- ref
	}
	if m.Gate != nil {
		select {
		case <-m.Gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if m.Err != nil {
		return "", m.Err
	}
	if err := m.Errs[ref]; err != nil {
		return "", err
	}
	return m.Images[ref], nil
}

// Calls returns the references requested so far.
func (m *ImageLoader) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}
