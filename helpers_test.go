//nolint:exhaustruct // tests
package apifetch

import (
	"context"
	"sync"
	"testing"
	"time"
)

// fakeTransport answers every descriptor with {"uri": uri} and counts calls per identity.
type fakeTransport struct {
	mu    sync.Mutex
	calls map[string]int
	gate  chan struct{}
	fail  map[string]error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		calls: make(map[string]int),
		fail:  make(map[string]error),
	}
}

// hold makes calls block until release is called.
func (f *fakeTransport) hold() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.gate = make(chan struct{})
}

func (f *fakeTransport) release() {
	f.mu.Lock()
	defer f.mu.Unlock()

	close(f.gate)
}

func (f *fakeTransport) failOn(uri string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.fail[uri] = err
}

func (f *fakeTransport) callCount(identity string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls[identity]
}

func (f *fakeTransport) Fetch(ctx context.Context, _ any, d Descriptor) (any, error) {
	f.mu.Lock()
	f.calls[d.Identity()]++
	gate := f.gate
	err := f.fail[d.URI]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err != nil {
		return nil, err
	}

	return map[string]any{"uri": d.URI}, nil
}

// mockLogger is a mock implementation of the ILogger interface for testing purposes.
type mockLogger struct {
	name string

	cacheHit  int
	cacheMiss int

	fetched int
	failed  int

	mu sync.Mutex
}

func (m *mockLogger) LogCacheHitRatio(_ context.Context, name string, hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.name = name
	if hit {
		m.cacheHit++
	} else {
		m.cacheMiss++
	}
}

func (m *mockLogger) LogFetch(_ context.Context, name, _ string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.name = name
	if err != nil {
		m.failed++
	} else {
		m.fetched++
	}
}

func leaf(name string, fetches map[string]FetchSpec) *Component {
	return &Component{Name: name, Fetches: fetches}
}

func parent(name string, children ...func() Element) *Component {
	return &Component{
		Name: name,
		Render: func(Props) []Element {
			res := make([]Element, 0, len(children))
			for _, child := range children {
				res = append(res, child())
			}
			return res
		},
	}
}

// notifier returns an onFetched callback and a channel receiving one value per call.
func notifier() (func(), chan struct{}) {
	ch := make(chan struct{}, 16)
	return func() { ch <- struct{}{} }, ch
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for onFetched")
	}
}
