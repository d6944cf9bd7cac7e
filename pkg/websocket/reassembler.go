package websocket

import (
	"unicode/utf8"

	"github.com/tzrikka/wsengine/internal/utf8stream"
)

// EventKind tags the variant of an [Event] emitted by the [Reassembler].
type EventKind int

const (
	EventText EventKind = iota
	EventBinary
	EventPing
	EventPong
	EventClosed
	EventError
)

// Event is the nested tagged variant the reassembler emits: a completed
// message, a control notification, or a terminal close/error condition.
// It is a sealed sum type: callers are expected to switch exhaustively
// on Kind.
type Event struct {
	Kind EventKind

	// Text / Binary
	Data []byte

	// Ping / Pong
	Payload []byte

	// Closed / Error
	Code    CloseCode
	Message string
}

// Reassembler implements C4: it consumes a stream of decoded [Frame]
// values and turns them into application-level [Event]s, enforcing the
// fragmentation rules of
// https://datatracker.ietf.org/doc/html/rfc6455#section-5.4.
//
// It holds no transport or delegate reference: callers own event
// dispatch (see [Client] for how the orchestrator wires it up).
type Reassembler struct {
	buffer     []byte
	frameCount uint32
	isText     bool
	utf8       utf8stream.Validator
}

// Consume feeds one decoded frame and returns zero or more events. Most
// frames produce exactly one event; a non-final data frame produces none.
//
// Grounded on the teacher's readMessage switch over h.opcode, generalized
// into the state table of the reassembler's contract:
//
//	state         | incoming opcode | action
//	any           | Close           | emit Closed; terminal
//	any           | Ping            | emit Ping; no state change
//	any           | Pong            | emit Pong; no state change
//	idle          | Continuation    | emit Error(1002); reset
//	mid-message   | Text/Binary     | emit Error(1002); reset
//	idle          | Text/Binary     | start message; emit if FIN
//	mid-message   | Continuation    | append; emit if FIN
func (r *Reassembler) Consume(f Frame) []Event {
	switch f.Opcode {
	case OpcodeClose:
		code := f.CloseCode
		reason := ""
		if code == CloseCodeNone {
			code = CloseNoStatusReceived
		}
		if len(f.Payload) > 2 {
			reason = string(f.Payload[2:])
		}
		return []Event{{Kind: EventClosed, Code: code, Message: reason}}

	case OpcodePing:
		return []Event{{Kind: EventPing, Payload: f.Payload}}

	case OpcodePong:
		return []Event{{Kind: EventPong, Payload: f.Payload}}

	case OpcodeContinuation:
		if r.frameCount == 0 {
			r.reset()
			return []Event{r.protocolError("first frame cannot be continuation")}
		}
		return r.appendAndMaybeFinish(f)

	case OpcodeText, OpcodeBinary:
		if r.frameCount > 0 {
			r.reset()
			return []Event{r.protocolError("interleaved data frame")}
		}
		r.isText = f.Opcode == OpcodeText
		r.utf8.Reset()
		r.frameCount = 1
		if r.isText && !r.utf8.Append(f.Payload) {
			r.reset()
			return []Event{r.invalidUTF8()}
		}
		r.buffer = append(r.buffer, f.Payload...)
		if f.Fin {
			return []Event{r.finish()}
		}
		return nil

	default:
		r.reset()
		return []Event{r.protocolError("unexpected opcode in reassembler")}
	}
}

func (r *Reassembler) appendAndMaybeFinish(f Frame) []Event {
	r.frameCount++
	if r.isText && !r.utf8.Append(f.Payload) {
		r.reset()
		return []Event{r.invalidUTF8()}
	}
	r.buffer = append(r.buffer, f.Payload...)
	if f.Fin {
		return []Event{r.finish()}
	}
	return nil
}

// finish emits the completed message event and resets the reassembler.
// On the FIN frame, a text message's whole buffer must be strict UTF-8
// (catching the case where the stream ended mid-sequence, which Append
// alone cannot detect).
func (r *Reassembler) finish() Event {
	data := r.buffer
	isText := r.isText
	complete := r.utf8.Finish() && (!isText || utf8.Valid(data))
	r.reset()

	if isText && !complete {
		return Event{Kind: EventError, Code: CloseInvalidFramePayloadData, Message: "invalid UTF-8"}
	}
	if isText {
		return Event{Kind: EventText, Data: data}
	}
	return Event{Kind: EventBinary, Data: data}
}

func (r *Reassembler) invalidUTF8() Event {
	return Event{Kind: EventError, Code: CloseInvalidFramePayloadData, Message: "invalid UTF-8"}
}

func (r *Reassembler) protocolError(msg string) Event {
	return Event{Kind: EventError, Code: CloseProtocolError, Message: msg}
}

// reset clears buffer, frame_count, and semantically is_text, per
// invariant I1 of the reassembler's state.
func (r *Reassembler) reset() {
	r.buffer = nil
	r.frameCount = 0
	r.isText = false
	r.utf8.Reset()
}
