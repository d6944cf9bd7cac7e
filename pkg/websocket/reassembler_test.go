package websocket

import (
	"bytes"
	"testing"
)

func TestReassemblerSingleFrameText(t *testing.T) {
	var r Reassembler
	events := r.Consume(Frame{Fin: true, Opcode: OpcodeText, Payload: []byte("Hello")})
	if len(events) != 1 || events[0].Kind != EventText || string(events[0].Data) != "Hello" {
		t.Fatalf("Consume() = %+v, want one Text(Hello) event", events)
	}
}

// Scenario 3/P4: a well-formed two-fragment message emits exactly one
// Text event equal to the concatenation of both payloads.
func TestReassemblerFragmentedText(t *testing.T) {
	var r Reassembler

	events := r.Consume(Frame{Fin: false, Opcode: OpcodeText, Payload: []byte("Hel")})
	if len(events) != 0 {
		t.Fatalf("first fragment: got %+v, want no events", events)
	}

	events = r.Consume(Frame{Fin: true, Opcode: OpcodeContinuation, Payload: []byte("lo")})
	if len(events) != 1 || events[0].Kind != EventText || string(events[0].Data) != "Hello" {
		t.Fatalf("final fragment: got %+v, want one Text(Hello) event", events)
	}
}

// Scenario 4: a Ping interleaved mid-message is delivered separately and
// does not perturb the final payload.
func TestReassemblerInterleavedPing(t *testing.T) {
	var r Reassembler

	events := r.Consume(Frame{Fin: false, Opcode: OpcodeText, Payload: []byte("Hel")})
	if len(events) != 0 {
		t.Fatalf("first fragment: got %+v", events)
	}

	events = r.Consume(Frame{Fin: true, Opcode: OpcodePing, Payload: nil})
	if len(events) != 1 || events[0].Kind != EventPing {
		t.Fatalf("ping: got %+v, want one Ping event", events)
	}

	events = r.Consume(Frame{Fin: true, Opcode: OpcodeContinuation, Payload: []byte("lo")})
	if len(events) != 1 || events[0].Kind != EventText || string(events[0].Data) != "Hello" {
		t.Fatalf("final fragment: got %+v, want one Text(Hello) event", events)
	}
}

// Scenario 5: a Close frame emits a Closed event carrying the code.
func TestReassemblerClose(t *testing.T) {
	var r Reassembler
	events := r.Consume(Frame{Fin: true, Opcode: OpcodeClose, CloseCode: CloseNormalClosure, Payload: []byte{0x03, 0xe8}})
	if len(events) != 1 || events[0].Kind != EventClosed {
		t.Fatalf("Consume() = %+v, want one Closed event", events)
	}
	if events[0].Code != CloseNormalClosure {
		t.Errorf("Code = %v, want %v", events[0].Code, CloseNormalClosure)
	}
	if events[0].Message != "" {
		t.Errorf("Message = %q, want empty", events[0].Message)
	}
}

// Scenario 6: invalid UTF-8 in a text message produces an Error(1007)
// and clears the reassembler's state (P5).
func TestReassemblerInvalidUTF8(t *testing.T) {
	var r Reassembler
	// 0xc3 0x28 is an invalid two-byte sequence (0x28 is not a
	// continuation byte).
	events := r.Consume(Frame{Fin: true, Opcode: OpcodeText, Payload: []byte{0xc3, 0x28}})
	if len(events) != 1 || events[0].Kind != EventError || events[0].Code != CloseInvalidFramePayloadData {
		t.Fatalf("Consume() = %+v, want one Error(1007) event", events)
	}

	assertReset(t, &r)
}

// Scenario 7: a continuation frame with no prior data frame is a
// protocol error (P5: state resets after any error event).
func TestReassemblerBareContinuation(t *testing.T) {
	var r Reassembler
	events := r.Consume(Frame{Fin: false, Opcode: OpcodeContinuation, Payload: []byte("A")})
	if len(events) != 1 || events[0].Kind != EventError || events[0].Code != CloseProtocolError {
		t.Fatalf("Consume() = %+v, want one Error(1002) event", events)
	}

	assertReset(t, &r)
}

// A non-continuation data frame mid-message is an interleaved-data
// protocol error, per I3.
func TestReassemblerInterleavedDataFrame(t *testing.T) {
	var r Reassembler
	events := r.Consume(Frame{Fin: false, Opcode: OpcodeText, Payload: []byte("Hel")})
	if len(events) != 0 {
		t.Fatalf("first fragment: got %+v", events)
	}

	events = r.Consume(Frame{Fin: true, Opcode: OpcodeBinary, Payload: []byte{1, 2, 3}})
	if len(events) != 1 || events[0].Kind != EventError || events[0].Code != CloseProtocolError {
		t.Fatalf("Consume() = %+v, want one Error(1002) event", events)
	}

	assertReset(t, &r)
}

// P4: a message composed of many fragments (here 64) concatenates
// correctly and emits exactly one event.
func TestReassemblerManyFragments(t *testing.T) {
	var r Reassembler
	const n = 64

	var want bytes.Buffer
	var got []Event
	for i := 0; i < n; i++ {
		chunk := []byte{byte('a' + i%26)}
		want.Write(chunk)

		opcode := OpcodeContinuation
		if i == 0 {
			opcode = OpcodeBinary
		}
		got = r.Consume(Frame{Fin: i == n-1, Opcode: opcode, Payload: chunk})
	}

	if len(got) != 1 || got[0].Kind != EventBinary {
		t.Fatalf("Consume() final = %+v, want one Binary event", got)
	}
	if !bytes.Equal(got[0].Data, want.Bytes()) {
		t.Errorf("Data = %v, want %v", got[0].Data, want.Bytes())
	}
}

// Streaming UTF-8: a multi-byte rune split across two fragments must
// still validate correctly once both fragments have arrived.
func TestReassemblerSplitMultibyteRune(t *testing.T) {
	var r Reassembler
	full := []byte("héllo") // 'é' is the 2-byte sequence 0xc3 0xa9
	split := bytes.IndexByte(full, 0xc3) + 1

	events := r.Consume(Frame{Fin: false, Opcode: OpcodeText, Payload: full[:split]})
	if len(events) != 0 {
		t.Fatalf("first fragment: got %+v, want no events (incomplete rune pending)", events)
	}

	events = r.Consume(Frame{Fin: true, Opcode: OpcodeContinuation, Payload: full[split:]})
	if len(events) != 1 || events[0].Kind != EventText || string(events[0].Data) != string(full) {
		t.Fatalf("final fragment: got %+v, want one Text(%q) event", events, full)
	}
}

func assertReset(t *testing.T, r *Reassembler) {
	t.Helper()
	if r.frameCount != 0 {
		t.Errorf("frameCount = %d, want 0", r.frameCount)
	}
	if len(r.buffer) != 0 {
		t.Errorf("buffer = %v, want empty", r.buffer)
	}
}
