package dedup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckAndRecord_FirstSeenIsNotDuplicate(t *testing.T) {
	c := NewCache(time.Minute, 0)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.False(t, c.CheckAndRecord("sig-a", now))
	assert.Equal(t, 1, c.Size())
}

func TestCheckAndRecord_RepeatWithinTTLIsDuplicate(t *testing.T) {
	c := NewCache(time.Minute, 0)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.False(t, c.CheckAndRecord("sig-a", now))
	assert.True(t, c.CheckAndRecord("sig-a", now.Add(30*time.Second)))
}

func TestCheckAndRecord_RepeatAfterTTLIsNotDuplicate(t *testing.T) {
	c := NewCache(time.Minute, 0)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.False(t, c.CheckAndRecord("sig-a", now))
	assert.False(t, c.CheckAndRecord("sig-a", now.Add(2*time.Minute)))
}

func TestSweep_RemovesOnlyAgedEntries(t *testing.T) {
	c := NewCache(time.Minute, 0)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	c.CheckAndRecord("old", base)
	c.CheckAndRecord("fresh", base.Add(50*time.Second))

	removed := c.sweep(base.Add(90 * time.Second))
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, c.Size())
}

func TestServe_StopsOnContextCancel(t *testing.T) {
	c := NewCache(time.Millisecond, 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- c.Serve(ctx) }()

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after context cancellation")
	}
}
