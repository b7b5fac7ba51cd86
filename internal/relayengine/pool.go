package relayengine

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/plebos/nostr-relay-mux/internal/config"
)

// upstreamConnIDCounter mints unique, monotonically increasing identifiers
// for upstream connections, mirroring the client hub's clientIDCounter
// pattern in internal/wsrelay/client.go so fan-out order is reproducible.
var upstreamConnIDCounter atomic.Uint64

// socket is the subset of *websocket.Conn a Supervisor and a pool need.
// Narrowing to an interface lets tests exercise the reconnect state machine
// and fan-out pruning against an in-memory fake instead of a real TCP
// socket; *websocket.Conn satisfies it without any adapter.
type socket interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
}

// upstreamConn is a live UpstreamConnection: the endpoint it was dialed
// from, its classification, and the socket itself. Writes are serialized
// with a mutex because both the Router (client-to-upstream fan-out) and,
// in principle, keepalive pings could write concurrently.
type upstreamConn struct {
	id       uint64
	endpoint config.Endpoint
	conn     socket
	writeMu  sync.Mutex
}

func newUpstreamConn(endpoint config.Endpoint, conn socket) *upstreamConn {
	return &upstreamConn{
		id:       upstreamConnIDCounter.Add(1),
		endpoint: endpoint,
		conn:     conn,
	}
}

const upstreamWriteWait = 10 * time.Second

// send writes frame to the upstream socket, serialized against any other
// concurrent writer.
func (u *upstreamConn) send(frame []byte) error {
	u.writeMu.Lock()
	defer u.writeMu.Unlock()
	if err := u.conn.SetWriteDeadline(time.Now().Add(upstreamWriteWait)); err != nil {
		return err
	}
	return u.conn.WriteMessage(websocket.TextMessage, frame)
}

// pool is a mutex-protected membership set of upstream connections
// belonging to one classification (public or private). Iteration always
// works from a snapshot slice so a send failure discovered mid-fan-out can
// be pruned from the authoritative map afterward, never during a
// concurrent range over it.
type pool struct {
	mu    sync.RWMutex
	conns map[*upstreamConn]struct{}
}

func newPool() *pool {
	return &pool{conns: make(map[*upstreamConn]struct{})}
}

func (p *pool) add(c *upstreamConn) {
	p.mu.Lock()
	p.conns[c] = struct{}{}
	p.mu.Unlock()
}

func (p *pool) remove(c *upstreamConn) {
	p.mu.Lock()
	delete(p.conns, c)
	p.mu.Unlock()
}

func (p *pool) snapshot() []*upstreamConn {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*upstreamConn, 0, len(p.conns))
	for c := range p.conns {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].id < out[j].id
	})
	return out
}

func (p *pool) size() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.conns)
}
