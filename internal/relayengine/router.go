package relayengine

import (
	"strings"

	"github.com/plebos/nostr-relay-mux/internal/logging"
	"github.com/plebos/nostr-relay-mux/internal/metrics"
)

// privacyTag is the literal substring a client embeds in a frame to keep it
// off the public pool. It is a publication hint, not a protocol field, so
// the match is a plain substring test anywhere in the frame.
const privacyTag = "[private]"

// Router fans a client-originated frame out to the private pool
// unconditionally and to the public pool unless the frame carries the
// privacy tag.
type Router struct {
	public  *pool
	private *pool
}

func newRouter(public, private *pool) *Router {
	return &Router{public: public, private: private}
}

// Route fans frame out per the privacy policy. It is safe to call from any
// number of client read loops concurrently; both pools serialize their own
// membership mutation internally.
func (r *Router) Route(frame []byte) {
	fanOutAndPrune(r.private, frame, "private")

	if strings.Contains(string(frame), privacyTag) {
		return
	}

	fanOutAndPrune(r.public, frame, "public")
}

// fanOutAndPrune sends frame to every connection currently in p, removing
// any that fail after the pass completes so a slow or dead peer never
// corrupts the snapshot being iterated.
func fanOutAndPrune(p *pool, frame []byte, poolName string) {
	conns := p.snapshot()

	var failed []*upstreamConn
	for _, c := range conns {
		if err := c.send(frame); err != nil {
			failed = append(failed, c)
		}
	}

	if len(failed) == 0 {
		return
	}

	for _, c := range failed {
		p.remove(c)
		_ = c.conn.Close()
		logging.Debug().Str("pool", poolName).Str("endpoint", c.endpoint.String()).Msg("dropped upstream after send failure")
	}
	updatePoolGauge(poolName, p.size())
	metrics.RecordFrameDropped("upstream-send-failure")
}

func updatePoolGauge(poolName string, size int) {
	switch poolName {
	case "public":
		metrics.SetPublicUpstreamsConnected(size)
	case "private":
		metrics.SetPrivateUpstreamsConnected(size)
	}
}
