package websocket

import (
	"context"
	"time"
)

// TransportStateKind tags the variant of a [TransportState] callback.
type TransportStateKind int

const (
	TransportSetup TransportStateKind = iota
	TransportPreparing
	TransportWaiting
	TransportReady
	TransportFailed
	TransportCancelled
)

// TransportState is the state a [Transport] reports through its
// StateChanged callback; Err is only meaningful for Waiting and Failed.
type TransportState struct {
	Kind TransportStateKind
	Err  error
}

// Transport is the engine's only collaborator that actually moves bytes:
// the underlying TCP/TLS connection. It is described here only by the
// interface it must satisfy - the engine never assumes a concrete
// implementation (see internal/nettransport for the one this module
// ships).
//
// Connect must be non-blocking: it reports progress through the
// StateChanged callback (setup -> preparing -> ready, or -> failed).
// Send is also asynchronous; its completion callback reports a non-nil
// error on failure. DataReceived delivers opaque byte chunks - possibly
// containing more than one frame, or less than one - as they arrive.
type Transport interface {
	Connect(ctx context.Context, host, port string, tlsEnabled bool, connectTimeout time.Duration)
	Send(data []byte, completion func(err error))
	Cancel()

	SetStateChanged(func(TransportState))
	SetViabilityChanged(func(viable bool))
	SetBetterPathAvailable(func(available bool))
	SetDataReceived(func(data []byte))
}

// Delegate receives the connection's lifecycle and message notifications,
// always on the user-notification lane (see [Client]'s documentation for
// the three-lane ordering contract).
type Delegate interface {
	OnStateChanged(ConnectionState)
	OnViabilityChanged(viable bool)
	OnBetterPathAvailable(available bool)
	OnMessage(Message)
}

// Message is what the delegate receives for inbound data: a text or
// binary message reassembled from one or more frames, or the payload of
// a received Ping or Pong control frame (Opcode tells which).
type Message struct {
	Opcode Opcode
	Data   []byte
}

// NopDelegate is a [Delegate] whose methods all do nothing, useful as an
// embeddable base for delegates that only care about some callbacks.
type NopDelegate struct{}

func (NopDelegate) OnStateChanged(ConnectionState) {}
func (NopDelegate) OnViabilityChanged(bool)        {}
func (NopDelegate) OnBetterPathAvailable(bool)     {}
func (NopDelegate) OnMessage(Message)              {}
