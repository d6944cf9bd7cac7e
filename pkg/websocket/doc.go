// Package websocket is a lightweight yet robust client-only
// implementation of the WebSocket protocol (RFC 6455).
//
// It separates the protocol engine into pure, independently testable
// pieces - frame decoding, frame encoding, message reassembly, and
// handshake validation - and an orchestrator ([Client]) that wires them
// to a pluggable [Transport] and drives the connection state machine.
//
// It is designed primarily for ease of use and correctness.
// Additional design goals: reliability, maintainability, and efficiency.
//
// How does this package optimize for those goals?
//  1. The frame decoder and encoder are pure functions, so they can be
//     fuzzed and property-tested without a live connection
//  2. A single concrete [Transport] owns the socket; there is no
//     reconnect-with-backoff loop or second standby connection, so
//     callers never observe duplicate deliveries from an overlap
//     between an old and a new connection
//  3. Fast detection of, and a single clean state transition on,
//     unexpected disconnections
//  4. Idiomatic, minimalistic, and modern code patterns
//
// Note A: the read, write, and notification lanes described in
// [Client]'s documentation rely on Go channels and goroutines to keep
// ordering guarantees without busy-waiting.
//
// Note B: a disconnection - peer-initiated or transport-reported -
// always moves a [Client] straight to [StateDisconnected]. Reconnecting
// is the caller's responsibility: call [NewClient] to establish a fresh
// connection. A [Client] does not reset its handshake, close, or lane
// state on disconnection, so calling [Client.Connect] again on the same
// [Client] does not establish a working connection.
//
// Note C: WebSocket [extensions] and [subprotocols] are not supported yet.
//
// [extensions]: https://www.iana.org/assignments/websocket/websocket.xhtml#extension-name
// [subprotocols]: https://www.iana.org/assignments/websocket/websocket.xhtml#subprotocol-name
package websocket
