// Package utf8stream validates UTF-8 text that arrives in chunks, as
// required when a WebSocket text message spans multiple fragments:
// https://datatracker.ietf.org/doc/html/rfc6455#section-8.1.
//
// A trailing, incomplete multi-byte sequence is legal between chunks
// (the next chunk may complete it) but must be complete by [Validator.Finish].
package utf8stream

import "unicode/utf8"

// Validator tracks the incremental validation state of a UTF-8 byte
// stream across successive [Validator.Append] calls.
type Validator struct {
	// pending holds the bytes of a multi-byte sequence that started
	// in a previous chunk and has not yet been completed.
	pending [utf8.UTFMax]byte
	pendLen int
}

// Append validates the next chunk, given whatever incomplete sequence is
// pending from a previous chunk. It returns false if the combined bytes
// contain an invalid UTF-8 encoding.
func (v *Validator) Append(chunk []byte) bool {
	if len(chunk) == 0 {
		return true
	}

	// Fold any pending bytes back in front of the new chunk so rune
	// boundaries are checked across the join.
	buf := chunk
	if v.pendLen > 0 {
		buf = make([]byte, 0, v.pendLen+len(chunk))
		buf = append(buf, v.pending[:v.pendLen]...)
		buf = append(buf, chunk...)
	}
	v.pendLen = 0

	for len(buf) > 0 {
		r, size := utf8.DecodeRune(buf)
		if r != utf8.RuneError {
			buf = buf[size:]
			continue
		}
		if size == 1 {
			// A genuinely invalid byte, not just a truncated sequence.
			if !couldBeIncomplete(buf) {
				return false
			}
			// The remainder might be a valid sequence cut short by the
			// chunk boundary; stash it and let the next Append decide.
			if len(buf) > utf8.UTFMax {
				return false
			}
			v.pendLen = copy(v.pending[:], buf)
			return true
		}
		// RuneError with size > 1 is a literal, validly encoded U+FFFD.
		// (size == 0 means an empty buf, which the loop guard excludes.)
		buf = buf[size:]
	}

	return true
}

// couldBeIncomplete reports whether buf looks like the start of a valid
// UTF-8 sequence that was simply cut short at the end of a chunk.
func couldBeIncomplete(buf []byte) bool {
	if len(buf) == 0 || len(buf) >= utf8.UTFMax {
		return false
	}

	b0 := buf[0]
	var want int
	switch {
	case b0&0x80 == 0x00:
		want = 1
	case b0&0xe0 == 0xc0:
		want = 2
	case b0&0xf0 == 0xe0:
		want = 3
	case b0&0xf8 == 0xf0:
		want = 4
	default:
		return false
	}
	if want <= len(buf) {
		return false // a full sequence of this length was already rejected above
	}

	for _, b := range buf[1:] {
		if b&0xc0 != 0x80 {
			return false
		}
	}
	return true
}

// Finish reports whether the stream ended on a valid UTF-8 boundary: no
// incomplete multi-byte sequence may be left pending.
func (v *Validator) Finish() bool {
	return v.pendLen == 0
}

// Reset clears all state, for reuse across messages.
func (v *Validator) Reset() {
	v.pendLen = 0
}
