package relayengine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plebos/nostr-relay-mux/internal/config"
)

func fastSupervisorConfig() *config.Config {
	return &config.Config{
		ConnectBackoff:     2 * time.Millisecond,
		ReconnectJitterMin: 1 * time.Millisecond,
		ReconnectJitterMax: 3 * time.Millisecond,
	}
}

func TestSupervisor_RegistersOnConnectAndRemovesOnDrop(t *testing.T) {
	p := newPool()
	ep := testEndpoint(config.PoolPublic)

	sock1 := newFakeSocket()
	sock2 := newFakeSocket()
	var dialCount int
	var mu sync.Mutex
	dial := func(_ context.Context, _ config.Endpoint) (socket, error) {
		mu.Lock()
		defer mu.Unlock()
		dialCount++
		if dialCount == 1 {
			return sock1, nil
		}
		return sock2, nil
	}

	sup := newSupervisor(ep, p, func(context.Context, config.Endpoint, []byte) {}, dial, fastSupervisorConfig())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sup.Serve(ctx) }()

	require.Eventually(t, func() bool { return p.size() == 1 }, time.Second, time.Millisecond)

	_ = sock1.Close() // simulate a dropped connection

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return dialCount >= 2
	}, time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return p.size() == 1 }, time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Serve did not exit after context cancellation")
	}
}

func TestSupervisor_RetriesAfterConnectFailure(t *testing.T) {
	p := newPool()
	ep := testEndpoint(config.PoolPublic)

	var dialCount int
	var mu sync.Mutex
	dial := func(_ context.Context, _ config.Endpoint) (socket, error) {
		mu.Lock()
		defer mu.Unlock()
		dialCount++
		if dialCount < 3 {
			return nil, errors.New("connection refused")
		}
		return newFakeSocket(), nil
	}

	sup := newSupervisor(ep, p, func(context.Context, config.Endpoint, []byte) {}, dial, fastSupervisorConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- sup.Serve(ctx) }()

	require.Eventually(t, func() bool { return p.size() == 1 }, time.Second, time.Millisecond)
	mu.Lock()
	assert.GreaterOrEqual(t, dialCount, 3)
	mu.Unlock()

	cancel()
	<-done
}

func TestSupervisor_NeverHasTwoLiveConnectionsSimultaneously(t *testing.T) {
	p := newPool()
	ep := testEndpoint(config.PoolPrivate)

	var maxObserved int
	var mu sync.Mutex
	dial := func(_ context.Context, _ config.Endpoint) (socket, error) {
		s := newFakeSocket()
		mu.Lock()
		if n := p.size(); n > maxObserved {
			maxObserved = n
		}
		mu.Unlock()
		return s, nil
	}

	sup := newSupervisor(ep, p, func(context.Context, config.Endpoint, []byte) {}, dial, fastSupervisorConfig())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sup.Serve(ctx) }()

	// Let a few connect/drop cycles happen by repeatedly closing whatever is
	// currently registered.
	for i := 0; i < 3; i++ {
		require.Eventually(t, func() bool { return p.size() == 1 }, time.Second, time.Millisecond)
		for _, c := range p.snapshot() {
			_ = c.conn.Close()
		}
	}

	cancel()
	<-done

	assert.LessOrEqual(t, maxObserved, 1)
}

func TestSupervisor_DeliversFramesToHandler(t *testing.T) {
	p := newPool()
	ep := testEndpoint(config.PoolPublic)

	sock := newFakeSocket()
	dial := func(_ context.Context, _ config.Endpoint) (socket, error) { return sock, nil }

	var mu sync.Mutex
	var received [][]byte
	handle := func(_ context.Context, _ config.Endpoint, raw []byte) {
		mu.Lock()
		received = append(received, raw)
		mu.Unlock()
	}

	sup := newSupervisor(ep, p, handle, dial, fastSupervisorConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- sup.Serve(ctx) }()

	require.Eventually(t, func() bool { return p.size() == 1 }, time.Second, time.Millisecond)
	sock.readCh <- []byte(`["NOTICE","hello"]`)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 1
	}, time.Second, time.Millisecond)

	cancel()
	<-done
}
