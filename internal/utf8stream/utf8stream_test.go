package utf8stream

import "testing"

func TestValidatorWholeChunk(t *testing.T) {
	var v Validator
	if !v.Append([]byte("hello, 世界")) {
		t.Fatal("Append() = false, want true")
	}
	if !v.Finish() {
		t.Fatal("Finish() = false, want true")
	}
}

func TestValidatorInvalidByte(t *testing.T) {
	var v Validator
	if v.Append([]byte{0xc3, 0x28}) {
		t.Fatal("Append() = true, want false for an invalid 2-byte sequence")
	}
}

func TestValidatorSplitAcrossAppend(t *testing.T) {
	full := []byte("h\xc3\xa9llo") // "héllo"

	for split := 0; split <= len(full); split++ {
		var v Validator
		ok1 := v.Append(full[:split])
		if !ok1 {
			t.Fatalf("split %d: first Append() = false, want true", split)
		}
		ok2 := v.Append(full[split:])
		if !ok2 {
			t.Fatalf("split %d: second Append() = false, want true", split)
		}
		if !v.Finish() {
			t.Fatalf("split %d: Finish() = false, want true", split)
		}
	}
}

func TestValidatorIncompleteAtFinish(t *testing.T) {
	var v Validator
	// 0xe4 0xb8 starts a 3-byte sequence ('世' is 0xe4 0xb8 0x96); cut
	// short here, it must be flagged only at Finish, not at Append.
	if !v.Append([]byte{0xe4, 0xb8}) {
		t.Fatal("Append() = false, want true (sequence might still complete)")
	}
	if v.Finish() {
		t.Fatal("Finish() = true, want false: sequence never completed")
	}
}

func TestValidatorGenuinelyInvalidTail(t *testing.T) {
	var v Validator
	// 0xff is never a valid UTF-8 lead byte, incomplete or not.
	if v.Append([]byte{0x41, 0xff}) {
		t.Fatal("Append() = true, want false for a lone 0xff byte")
	}
}

func TestValidatorResetClearsPending(t *testing.T) {
	var v Validator
	v.Append([]byte{0xe4, 0xb8}) // leaves a pending incomplete sequence
	v.Reset()
	if !v.Finish() {
		t.Fatal("Finish() after Reset() = false, want true")
	}
}

func TestValidatorEmptyChunk(t *testing.T) {
	var v Validator
	if !v.Append(nil) {
		t.Fatal("Append(nil) = false, want true")
	}
	if !v.Finish() {
		t.Fatal("Finish() = false, want true")
	}
}
