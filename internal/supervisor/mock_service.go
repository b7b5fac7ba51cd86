package supervisor

import (
	"context"
	"sync"
	"sync/atomic"
)

// mockService is a test helper implementing suture.Service, used to observe
// start/stop behavior of the tree's three layers without spinning up real
// listener/upstream/maintenance components.
type mockService struct {
	name       string
	startCount atomic.Int32
	stopCount  atomic.Int32
	mu         sync.Mutex
	err        error
}

func newMockService(name string) *mockService {
	return &mockService{name: name}
}

func (m *mockService) Serve(ctx context.Context) error {
	m.startCount.Add(1)
	defer m.stopCount.Add(1)

	m.mu.Lock()
	err := m.err
	m.mu.Unlock()
	if err != nil {
		return err
	}

	<-ctx.Done()
	return ctx.Err()
}

func (m *mockService) StartCount() int32 { return m.startCount.Load() }
func (m *mockService) StopCount() int32  { return m.stopCount.Load() }
func (m *mockService) String() string    { return m.name }
