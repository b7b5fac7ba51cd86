package relayengine

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/plebos/nostr-relay-mux/internal/metrics"
)

// MetricsServer serves the Prometheus /metrics scrape endpoint as its own
// maintenance-layer service, so a stalled metrics handler never touches the
// relay data path.
type MetricsServer struct {
	addr string
}

// NewMetricsServer constructs a MetricsServer bound to addr (host:port).
func NewMetricsServer(addr string) *MetricsServer {
	return &MetricsServer{addr: addr}
}

// Serve runs the metrics HTTP server until ctx is canceled.
func (m *MetricsServer) Serve(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: m.addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
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
