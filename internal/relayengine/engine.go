package relayengine

import (
	"context"
	"time"

	"github.com/plebos/nostr-relay-mux/internal/config"
	"github.com/plebos/nostr-relay-mux/internal/dedup"
	"github.com/plebos/nostr-relay-mux/internal/logging"
	"github.com/plebos/nostr-relay-mux/internal/mediafilter"
	"github.com/plebos/nostr-relay-mux/internal/metrics"
	"github.com/plebos/nostr-relay-mux/internal/validate"
)

// broadcaster is satisfied by *wsrelay.Hub. Narrowing Engine's dependency
// to this interface keeps the validate/dedup/media-filter pipeline
// testable against a fake that records frames, independent of the hub's
// WebSocket client dispatch.
type broadcaster interface {
	Broadcast(frame []byte)
}

// Engine owns the membership sets, the Router, and the Upstream Reader's
// per-frame validate/dedup/media-filter pipeline, gluing every leaf
// component (internal/dedup, internal/validate, internal/mediafilter,
// internal/wsrelay) into the one object main() constructs Supervisors and
// a Listener from.
type Engine struct {
	hub         broadcaster
	router      *Router
	public      *pool
	private     *pool
	dedupCache  *dedup.Cache
	mediaFilter *mediafilter.Filter
	cfg         *config.Config
}

// NewEngine constructs an Engine. hub is the client broadcaster
// (internal/wsrelay.Hub, already adapted to this domain); cache is the
// dedup cache, constructed by the caller so it can also be wired into the
// maintenance supervisor layer for its independent sweep loop.
func NewEngine(cfg *config.Config, hub broadcaster, cache *dedup.Cache) *Engine {
	var filter *mediafilter.Filter
	if cfg.FilterLargeMedia {
		filter = mediafilter.NewFilter(cfg.MediaProbeTimeout, cfg.MaxMediaBytes)
	}

	public := newPool()
	private := newPool()

	return &Engine{
		hub:         hub,
		router:      newRouter(public, private),
		public:      public,
		private:     private,
		dedupCache:  cache,
		mediaFilter: filter,
		cfg:         cfg,
	}
}

// Router returns the fan-out router client sessions submit frames to.
func (e *Engine) Router() *Router { return e.router }

// NewSupervisor builds a Connection Supervisor for endpoint, registering
// its live connection in the pool matching endpoint.Pool and routing
// accepted upstream frames through e.handleUpstreamFrame.
func (e *Engine) NewSupervisor(endpoint config.Endpoint) *Supervisor {
	p := e.public
	if endpoint.Pool == config.PoolPrivate {
		p = e.private
	}
	return newSupervisor(endpoint, p, e.handleUpstreamFrame, defaultDial(e.cfg.HandshakeTimeout), e.cfg)
}

// handleUpstreamFrame is the upstream reader's per-frame pipeline: validate
// the frame's shape and (for EVENTs) signature, consult the dedup cache,
// optionally apply the large-media filter, and broadcast whatever survives
// to every connected client.
func (e *Engine) handleUpstreamFrame(ctx context.Context, ep config.Endpoint, raw []byte) {
	result := validate.Validate(raw)

	switch result.Outcome {
	case validate.OutcomeReject:
		metrics.RecordFrameDropped("malformed-or-unverified")
		logging.Debug().Str("endpoint", ep.String()).Str("reason", result.Reason).Msg("dropped invalid upstream frame")
		return

	case validate.OutcomePassThrough:
		e.broadcast(raw)
		return

	case validate.OutcomeForwardEvent:
		e.handleEvent(ctx, ep, raw, result)
	}
}

func (e *Engine) handleEvent(ctx context.Context, ep config.Endpoint, raw []byte, result validate.Result) {
	if e.dedupCache.CheckAndRecord(result.Event.Sig, time.Now()) {
		metrics.RecordDuplicate()
		metrics.RecordFrameDropped("duplicate")
		logging.Debug().Str("endpoint", ep.String()).Str("sig", result.Event.Sig).Msg("dropped duplicate event")
		return
	}

	if e.mediaFilter != nil && e.mediaFilter.ShouldDrop(ctx, result.Event.Content) {
		metrics.RecordLargeMediaDropped()
		metrics.RecordFrameDropped("large-media")
		logging.Debug().Str("endpoint", ep.String()).Str("sig", result.Event.Sig).Msg("dropped event over media size threshold")
		return
	}

	e.broadcast(raw)
}

func (e *Engine) broadcast(raw []byte) {
	e.hub.Broadcast(raw)
	metrics.RecordFrameForwarded("upstream-to-client")
}
