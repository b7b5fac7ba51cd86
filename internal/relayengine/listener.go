package relayengine

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/plebos/nostr-relay-mux/internal/logging"
	"github.com/plebos/nostr-relay-mux/internal/metrics"
	"github.com/plebos/nostr-relay-mux/internal/wsrelay"
)

const listenerShutdownTimeout = 5 * time.Second

// Listener serves the client-facing side of the proxy: it accepts inbound
// WebSocket upgrades on a pre-bound net.Listener and hands each connection
// to the hub and Router. Binding is done by the caller (see NewListener)
// so a bind failure is observed before the supervisor tree starts, letting
// main() exit non-zero immediately rather than retrying a port that will
// never become free.
type Listener struct {
	ln       net.Listener
	hub      *wsrelay.Hub
	router   *Router
	upgrader websocket.Upgrader
}

// NewListener binds addr:port immediately and returns a Listener ready to
// Serve, or an error if the bind itself fails.
func NewListener(ip string, port int, hub *wsrelay.Hub, router *Router) (*Listener, error) {
	ln, err := net.Listen("tcp", net.JoinHostPort(ip, strconv.Itoa(port)))
	if err != nil {
		return nil, err
	}
	return &Listener{
		ln:     ln,
		hub:    hub,
		router: router,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The proxy has no session concept to authenticate against, so
			// it accepts upgrades from any origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}, nil
}

// Serve runs the HTTP server accepting WebSocket upgrades on the
// pre-bound listener until ctx is canceled.
func (l *Listener) Serve(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", l.handleUpgrade)
	srv := &http.Server{Handler: mux}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(l.ln) }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), listenerShutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// handleUpgrade accepts one inbound client connection, registers it with
// the hub, and wires its read loop to the Router. This is the Client
// Session's establishment half; the per-frame receive loop itself is
// wsrelay.Client.readPump.
func (l *Listener) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Debug().Err(err).Msg("client websocket upgrade failed")
		return
	}

	connID := uuid.NewString()
	logging.Debug().Str("connection_id", connID).Str("remote_addr", r.RemoteAddr).Msg("client connected")

	client := wsrelay.NewClient(l.hub, conn)
	client.OnFrame = func(frame []byte) {
		metrics.RecordFrameForwarded("client-to-upstream")
		l.router.Route(frame)
	}

	l.hub.Register <- client
	client.Start()
}
