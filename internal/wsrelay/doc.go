/*
Package wsrelay provides the client-facing side of the relay multiplexer: a
hub that fans opaque relay frames out to every connected subscriber, and the
per-connection read/write pumps that bridge a gorilla/websocket connection to
that hub.

Unlike a typical application websocket layer, this package never inspects or
re-encodes the payloads it moves. A frame arriving from an upstream relay is
handed to the hub as raw bytes and written to each client socket unchanged;
there is no typed envelope, no message-type switch, no JSON re-marshaling on
the hot path. Validation, deduplication, and privacy-tag routing happen
upstream of this package, in internal/relayengine.

Architecture:

	┌─────┐
	│ Hub │ ← broadcasts raw frames to every registered client
	└──┬──┘
	   │
	┌──┴───┬────────┬────────┐
	│      │        │        │
	│ C1   │  C2    │  C3    │  C4
	└──────┴────────┴────────┘

Each Client runs two goroutines:
  - readPump: reads frames off the socket, applies the idle-read deadline,
    answers ping/pong keepalive, and unregisters the client on any read error
  - writePump: drains the client's send channel onto the socket and emits
    periodic pings

Connection Lifecycle:

 1. Listener accepts an HTTP upgrade and constructs a Client
 2. Hub registers the client (added to the live client set)
 3. Client.Start launches readPump/writePump
 4. Hub.Broadcast fans frames to the client's send channel
 5. Client disconnects (read error, write error, or hub shutdown)
 6. Hub unregisters the client and closes its send channel

Thread Safety:

The Hub's client set is guarded by a mutex; Register/Unregister are channels
so client lifecycle never blocks a broadcast in flight. Broadcast iterates a
client list sorted by each client's monotonic ID rather than raw map order,
so delivery order is reproducible across runs even though it carries no
ordering guarantee relative to other publishers.

Configuration:

	writeWait:    10 seconds (deadline for a single frame write)
	pongWait:     60 seconds (deadline for a pong before the peer is dead)
	pingPeriod:   54 seconds (must stay below pongWait)
	maxMessageSize: 512 KB

See Also:

  - github.com/gorilla/websocket: underlying WebSocket library
  - internal/relayengine: validation, dedup, and routing that feeds Broadcast
*/
package wsrelay
