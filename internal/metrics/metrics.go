// Package metrics exposes Prometheus counters and gauges for the relay
// multiplexer's operational state.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	clientsConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relaymux_clients_connected",
		Help: "Current number of connected clients",
	})

	publicUpstreamsConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relaymux_public_upstreams_connected",
		Help: "Current number of connected public upstream relays",
	})

	privateUpstreamsConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relaymux_private_upstreams_connected",
		Help: "Current number of connected private upstream relays",
	})

	dedupCacheEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relaymux_dedup_cache_entries",
		Help: "Current number of entries in the dedup cache",
	})

	framesForwardedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relaymux_frames_forwarded_total",
		Help: "Total number of frames forwarded, by direction",
	}, []string{"direction"})

	framesDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relaymux_frames_dropped_total",
		Help: "Total number of frames dropped, by reason",
	}, []string{"reason"})

	duplicatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relaymux_duplicate_events_total",
		Help: "Total number of events suppressed as duplicates",
	})

	largeMediaDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relaymux_large_media_dropped_total",
		Help: "Total number of events dropped by the large-media filter",
	})

	mediaProbeFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relaymux_media_probe_failures_total",
		Help: "Total number of media HEAD probes that failed or timed out",
	})

	reconnectsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relaymux_upstream_reconnects_total",
		Help: "Total number of upstream reconnect attempts, by endpoint",
	}, []string{"endpoint"})
)

// SetClientsConnected updates the connected-clients gauge.
func SetClientsConnected(n int) { clientsConnected.Set(float64(n)) }

// SetPublicUpstreamsConnected updates the connected-public-upstreams gauge.
func SetPublicUpstreamsConnected(n int) { publicUpstreamsConnected.Set(float64(n)) }

// SetPrivateUpstreamsConnected updates the connected-private-upstreams gauge.
func SetPrivateUpstreamsConnected(n int) { privateUpstreamsConnected.Set(float64(n)) }

// SetDedupCacheSize updates the dedup cache entry-count gauge.
func SetDedupCacheSize(n int) { dedupCacheEntries.Set(float64(n)) }

// RecordFrameForwarded increments the forwarded-frames counter for direction
// ("client-to-upstream" or "upstream-to-client").
func RecordFrameForwarded(direction string) { framesForwardedTotal.WithLabelValues(direction).Inc() }

// RecordFrameDropped increments the dropped-frames counter for reason
// ("malformed-or-unverified", "duplicate", "large-media",
// "upstream-send-failure").
func RecordFrameDropped(reason string) { framesDroppedTotal.WithLabelValues(reason).Inc() }

// RecordDuplicate increments the duplicate-events counter.
func RecordDuplicate() { duplicatesTotal.Inc() }

// RecordLargeMediaDropped increments the large-media-dropped counter.
func RecordLargeMediaDropped() { largeMediaDroppedTotal.Inc() }

// RecordMediaProbeFailure increments the media-probe-failure counter.
func RecordMediaProbeFailure() { mediaProbeFailuresTotal.Inc() }

// RecordReconnect increments the reconnect-attempt counter for endpoint.
func RecordReconnect(endpoint string) { reconnectsTotal.WithLabelValues(endpoint).Inc() }

// Handler returns the Prometheus scrape handler for mounting on a /metrics
// route.
func Handler() http.Handler {
	return promhttp.Handler()
}
