package relayengine

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/plebos/nostr-relay-mux/internal/config"
	"github.com/plebos/nostr-relay-mux/internal/logging"
	"github.com/plebos/nostr-relay-mux/internal/metrics"
)

// dialFunc opens a socket to endpoint. Swappable so tests can drive the
// Connecting/Recovering transitions without a real network dial.
type dialFunc func(ctx context.Context, endpoint config.Endpoint) (socket, error)

// defaultDial opens a real outbound WebSocket connection using
// gorilla/websocket, with the handshake bounded by the dialer's
// HandshakeTimeout.
func defaultDial(timeout time.Duration) dialFunc {
	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	return func(ctx context.Context, endpoint config.Endpoint) (socket, error) {
		conn, _, err := dialer.DialContext(ctx, endpoint.String(), nil)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}
}

// frameHandler is the Upstream Reader's per-frame pipeline: validate,
// dedup, optionally filter large media, and broadcast on acceptance. It is
// supplied by the Engine so the Supervisor itself stays ignorant of
// validation/dedup/filtering concerns.
type frameHandler func(ctx context.Context, ep config.Endpoint, raw []byte)

// Supervisor owns exactly one live upstream connection for one configured
// relay endpoint, reconnecting with jittered backoff whenever it drops.
// The Connecting -> Running -> Recovering state machine is a single
// Serve(ctx) loop. Wrapped as a suture.Service, a panic inside Serve is
// itself caught and restarted by the supervisor tree, so the never-stop-
// retrying guarantee holds even across a bug in this loop.
type Supervisor struct {
	endpoint config.Endpoint
	pool     *pool
	handle   frameHandler
	dial     dialFunc

	connectBackoff time.Duration
	jitterMin      time.Duration
	jitterMax      time.Duration
	rng            *rand.Rand
}

// newSupervisor constructs a Supervisor for endpoint, registering live
// connections in pool and delegating accepted frames to handle.
func newSupervisor(endpoint config.Endpoint, p *pool, handle frameHandler, dial dialFunc, cfg *config.Config) *Supervisor {
	return &Supervisor{
		endpoint:       endpoint,
		pool:           p,
		handle:         handle,
		dial:           dial,
		connectBackoff: cfg.ConnectBackoff,
		jitterMin:      cfg.ReconnectJitterMin,
		jitterMax:      cfg.ReconnectJitterMax,
		rng:            rand.New(rand.NewSource(time.Now().UnixNano() ^ int64(upstreamConnIDCounter.Load()))),
	}
}

// Serve drives the reconnect loop until ctx is canceled. It never returns a
// non-nil error except ctx.Err() on cancellation: every other failure mode
// (dial failure, read/write error) is handled internally by looping back to
// Connecting, so reconnection is an infinite loop until process shutdown.
func (s *Supervisor) Serve(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		conn, err := s.dial(ctx, s.endpoint)
		if err != nil {
			metrics.RecordReconnect(s.endpoint.String())
			logging.Warn().Err(err).Str("endpoint", s.endpoint.String()).Msg("upstream connect failed, retrying")
			if !sleepCtx(ctx, s.connectBackoff) {
				return ctx.Err()
			}
			continue
		}

		uc := newUpstreamConn(s.endpoint, conn)
		connID := uuid.NewString()
		s.pool.add(uc)
		updatePoolGauge(string(s.endpoint.Pool), s.pool.size())
		logging.Info().
			Str("connection_id", connID).
			Str("endpoint", s.endpoint.String()).
			Str("pool", string(s.endpoint.Pool)).
			Msg("upstream connected")

		closeOnCancel := make(chan struct{})
		go func() {
			select {
			case <-ctx.Done():
				_ = uc.conn.Close()
			case <-closeOnCancel:
			}
		}()

		s.readLoop(ctx, uc)
		close(closeOnCancel)

		s.pool.remove(uc)
		updatePoolGauge(string(s.endpoint.Pool), s.pool.size())
		_ = conn.Close()
		logging.Info().Str("connection_id", connID).Str("endpoint", s.endpoint.String()).Msg("upstream disconnected, recovering")

		if ctx.Err() != nil {
			return ctx.Err()
		}

		if !sleepCtx(ctx, s.jitter()) {
			return ctx.Err()
		}
	}
}

// readLoop is the Running-state Upstream Reader: it receives frames until
// the connection errors or ctx is canceled, handing each one to s.handle.
// A per-client send failure during the handler's eventual broadcast is not
// this loop's concern; only this upstream socket's own read errors end the
// loop.
func (s *Supervisor) readLoop(ctx context.Context, uc *upstreamConn) {
	for {
		if ctx.Err() != nil {
			return
		}
		_, raw, err := uc.conn.ReadMessage()
		if err != nil {
			return
		}
		s.handle(ctx, s.endpoint, raw)
	}
}

// jitter returns a uniformly random duration in [jitterMin, jitterMax).
func (s *Supervisor) jitter() time.Duration {
	span := s.jitterMax - s.jitterMin
	if span <= 0 {
		return s.jitterMin
	}
	return s.jitterMin + time.Duration(s.rng.Int63n(int64(span)))
}

// sleepCtx sleeps for d or until ctx is canceled, whichever comes first. It
// reports whether the sleep completed normally (false means ctx ended it).
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
