// Package relayengine wires the relay multiplexer's connection lifecycle,
// fan-out routing, and reconnection controller together: everything not
// already owned by internal/dedup, internal/validate, internal/mediafilter,
// or internal/wsrelay.
//
// Responsibilities:
//
//   - Supervisor: one per configured upstream endpoint, driving the
//     Connecting -> Running -> Recovering state machine and restarting
//     the connection with jittered backoff on any drop.
//   - upstreamConn / pool: the public and private upstream membership
//     sets, mutex-protected and snapshotted before every fan-out so a
//     send failure can be pruned after iteration completes rather than
//     mutating the set mid-range.
//   - Router: fans a client frame out to every private upstream
//     unconditionally, and to every public upstream unless the frame
//     carries the literal "[private]" substring.
//   - Listener: accepts inbound client websocket upgrades and wires each
//     one to the client hub (internal/wsrelay) and the Router; the
//     per-connection receive loop itself lives in wsrelay.Client.readPump,
//     which already does exactly "read a frame, hand it to a callback,
//     unregister on error."
//   - Engine: owns the dedup cache and media filter, and implements the
//     Upstream Reader's per-frame pipeline (validate -> dedup -> media
//     filter -> broadcast) that each Supervisor's read loop calls into.
package relayengine
