package relayengine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plebos/nostr-relay-mux/internal/config"
	"github.com/plebos/nostr-relay-mux/internal/dedup"
)

type fakeBroadcaster struct {
	frames [][]byte
}

func (f *fakeBroadcaster) Broadcast(frame []byte) {
	f.frames = append(f.frames, frame)
}

func signedEventFrame(t *testing.T, content string) string {
	t.Helper()
	sk := nostr.GeneratePrivateKey()
	pk, err := nostr.GetPublicKey(sk)
	require.NoError(t, err)

	evt := nostr.Event{
		PubKey:    pk,
		CreatedAt: nostr.Now(),
		Kind:      1,
		Tags:      nostr.Tags{},
		Content:   content,
	}
	require.NoError(t, evt.Sign(sk))

	payload, err := evt.MarshalJSON()
	require.NoError(t, err)
	return `["EVENT","sub1",` + string(payload) + `]`
}

func testEngine(t *testing.T, cfg *config.Config, fb *fakeBroadcaster) *Engine {
	t.Helper()
	cache := dedup.NewCache(cfg.NoteCacheTime, cfg.DedupSweepInterval)
	return NewEngine(cfg, fb, cache)
}

func TestEngine_ForwardsVerifiedUniqueEvent(t *testing.T) {
	fb := &fakeBroadcaster{}
	cfg := &config.Config{NoteCacheTime: time.Minute}
	e := testEngine(t, cfg, fb)

	frame := signedEventFrame(t, "hello")
	e.handleUpstreamFrame(context.Background(), testEndpoint(config.PoolPublic), []byte(frame))

	assert.Len(t, fb.frames, 1)
}

func TestEngine_DropsDuplicateSecondDelivery(t *testing.T) {
	fb := &fakeBroadcaster{}
	cfg := &config.Config{NoteCacheTime: time.Minute}
	e := testEngine(t, cfg, fb)

	frame := signedEventFrame(t, "hello")
	ep := testEndpoint(config.PoolPublic)
	e.handleUpstreamFrame(context.Background(), ep, []byte(frame))
	e.handleUpstreamFrame(context.Background(), ep, []byte(frame))

	assert.Len(t, fb.frames, 1)
}

func TestEngine_DropsUnverifiedEvent(t *testing.T) {
	fb := &fakeBroadcaster{}
	cfg := &config.Config{NoteCacheTime: time.Minute}
	e := testEngine(t, cfg, fb)

	frame := `["EVENT","sub1",{"id":"aa","pubkey":"bb","created_at":1,"kind":1,"tags":[],"content":"x","sig":"00"}]`
	e.handleUpstreamFrame(context.Background(), testEndpoint(config.PoolPublic), []byte(frame))

	assert.Empty(t, fb.frames)
}

func TestEngine_PassesThroughNonEventMessage(t *testing.T) {
	fb := &fakeBroadcaster{}
	cfg := &config.Config{NoteCacheTime: time.Minute}
	e := testEngine(t, cfg, fb)

	e.handleUpstreamFrame(context.Background(), testEndpoint(config.PoolPublic), []byte(`["EOSE","sub1"]`))

	require.Len(t, fb.frames, 1)
	assert.Equal(t, `["EOSE","sub1"]`, string(fb.frames[0]))
}

func TestEngine_DropsEventOverLargeMediaThreshold(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "2000000")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	fb := &fakeBroadcaster{}
	cfg := &config.Config{
		NoteCacheTime:     time.Minute,
		FilterLargeMedia:  true,
		MaxMediaBytes:     1_000_000,
		MediaProbeTimeout: 2 * time.Second,
	}
	e := testEngine(t, cfg, fb)

	frame := signedEventFrame(t, "pic "+srv.URL+"/y.png")
	e.handleUpstreamFrame(context.Background(), testEndpoint(config.PoolPublic), []byte(frame))

	assert.Empty(t, fb.frames)
}

func TestEngine_KeepsEventUnderLargeMediaThreshold(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	fb := &fakeBroadcaster{}
	cfg := &config.Config{
		NoteCacheTime:     time.Minute,
		FilterLargeMedia:  true,
		MaxMediaBytes:     1_000_000,
		MediaProbeTimeout: 2 * time.Second,
	}
	e := testEngine(t, cfg, fb)

	frame := signedEventFrame(t, "pic "+srv.URL+"/y.png")
	e.handleUpstreamFrame(context.Background(), testEndpoint(config.PoolPublic), []byte(frame))

	assert.Len(t, fb.frames, 1)
}
