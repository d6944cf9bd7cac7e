package websocket

import "net/http"

// ConnectionState is the sealed tagged variant of the connection
// lifecycle: Disconnected{code,reason}, Connecting, Waiting{err},
// Connected{headers}. A private marker method keeps it closed to this
// package - exhaustive switching is preferred over a subtype hierarchy.
type ConnectionState interface {
	isConnectionState()
	String() string
}

// StateDisconnected is the terminal/idle state: no transport is active.
// Code and Reason explain why the last connection or connection attempt
// ended; a [Client] that was never connected has Code [CloseCodeNone].
type StateDisconnected struct {
	Code   CloseCode
	Reason string
}

func (StateDisconnected) isConnectionState() {}
func (s StateDisconnected) String() string   { return "disconnected(" + s.Code.String() + ")" }

// StateConnecting means connect() was called and the transport is being
// established; no upgrade response has been validated yet.
type StateConnecting struct{}

func (StateConnecting) isConnectionState() {}
func (StateConnecting) String() string     { return "connecting" }

// StateWaiting is a transient transport backoff/retry condition that
// does not itself constitute a disconnection.
type StateWaiting struct {
	Err error
}

func (StateWaiting) isConnectionState() {}
func (s StateWaiting) String() string {
	if s.Err == nil {
		return "waiting"
	}
	return "waiting(" + s.Err.Error() + ")"
}

// StateConnected means the upgrade handshake succeeded; Headers are the
// response headers returned by the server.
type StateConnected struct {
	Headers http.Header
}

func (StateConnected) isConnectionState() {}
func (StateConnected) String() string     { return "connected" }

// sameState reports whether a and b are the same tagged variant with
// equal fields, used to suppress duplicate delegate notifications (the
// state machine emits at most one notification per distinct state).
// StateConnected values are compared by variant only: their Headers are
// not compared.
func sameState(a, b ConnectionState) bool {
	switch av := a.(type) {
	case StateDisconnected:
		bv, ok := b.(StateDisconnected)
		return ok && av == bv
	case StateConnecting:
		_, ok := b.(StateConnecting)
		return ok
	case StateWaiting:
		bv, ok := b.(StateWaiting)
		return ok && av.Err == bv.Err
	case StateConnected:
		_, ok := b.(StateConnected)
		return ok
	default:
		return false
	}
}
