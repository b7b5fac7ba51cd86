package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetClientsConnected(t *testing.T) {
	SetClientsConnected(7)
	assert.Equal(t, float64(7), testutil.ToFloat64(clientsConnected))
}

func TestSetUpstreamsConnectedGauges(t *testing.T) {
	SetPublicUpstreamsConnected(3)
	SetPrivateUpstreamsConnected(1)

	assert.Equal(t, float64(3), testutil.ToFloat64(publicUpstreamsConnected))
	assert.Equal(t, float64(1), testutil.ToFloat64(privateUpstreamsConnected))
}

func TestSetDedupCacheSize(t *testing.T) {
	SetDedupCacheSize(42)
	assert.Equal(t, float64(42), testutil.ToFloat64(dedupCacheEntries))
}

func TestRecordFrameForwarded(t *testing.T) {
	before := testutil.ToFloat64(framesForwardedTotal.WithLabelValues("client-to-upstream"))
	RecordFrameForwarded("client-to-upstream")
	assert.Equal(t, before+1, testutil.ToFloat64(framesForwardedTotal.WithLabelValues("client-to-upstream")))
}

func TestRecordFrameDropped(t *testing.T) {
	before := testutil.ToFloat64(framesDroppedTotal.WithLabelValues("duplicate"))
	RecordFrameDropped("duplicate")
	assert.Equal(t, before+1, testutil.ToFloat64(framesDroppedTotal.WithLabelValues("duplicate")))
}

func TestRecordDuplicateAndLargeMediaAndProbeFailure(t *testing.T) {
	beforeDup := testutil.ToFloat64(duplicatesTotal)
	beforeMedia := testutil.ToFloat64(largeMediaDroppedTotal)
	beforeProbe := testutil.ToFloat64(mediaProbeFailuresTotal)

	RecordDuplicate()
	RecordLargeMediaDropped()
	RecordMediaProbeFailure()

	assert.Equal(t, beforeDup+1, testutil.ToFloat64(duplicatesTotal))
	assert.Equal(t, beforeMedia+1, testutil.ToFloat64(largeMediaDroppedTotal))
	assert.Equal(t, beforeProbe+1, testutil.ToFloat64(mediaProbeFailuresTotal))
}

func TestRecordReconnect(t *testing.T) {
	before := testutil.ToFloat64(reconnectsTotal.WithLabelValues("wss://relay.example:443"))
	RecordReconnect("wss://relay.example:443")
	assert.Equal(t, before+1, testutil.ToFloat64(reconnectsTotal.WithLabelValues("wss://relay.example:443")))
}

func TestHandler_ServesPrometheusExposition(t *testing.T) {
	SetClientsConnected(2)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()

	Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "relaymux_clients_connected")
}
