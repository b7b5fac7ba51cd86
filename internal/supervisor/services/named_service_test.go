package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeContextService struct {
	called chan struct{}
	err    error
}

func (f *fakeContextService) Serve(ctx context.Context) error {
	close(f.called)
	<-ctx.Done()
	if f.err != nil {
		return f.err
	}
	return ctx.Err()
}

func TestNamedService_DelegatesServeAndString(t *testing.T) {
	fake := &fakeContextService{called: make(chan struct{})}
	svc := NewNamedService("dedup-sweep", fake)

	assert.Equal(t, "dedup-sweep", svc.String())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	select {
	case <-fake.called:
	case <-time.After(time.Second):
		t.Fatal("wrapped service was never started")
	}

	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
}

func TestNamedService_PropagatesWrappedError(t *testing.T) {
	boom := errors.New("boom")
	fake := &fakeContextService{called: make(chan struct{}), err: boom}
	svc := NewNamedService("listener", fake)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	<-fake.called
	cancel()

	err := <-errCh
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestServeFunc_AdaptsPlainFunctionToContextService(t *testing.T) {
	var gotCtx context.Context
	fn := ServeFunc(func(ctx context.Context) error {
		gotCtx = ctx
		return nil
	})

	ctx := context.Background()
	err := fn.Serve(ctx)

	require.NoError(t, err)
	assert.Equal(t, ctx, gotCtx)
}
