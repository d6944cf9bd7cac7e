package websocket

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpcodeIsControl(t *testing.T) {
	assert.False(t, OpcodeContinuation.IsControl())
	assert.False(t, OpcodeText.IsControl())
	assert.False(t, OpcodeBinary.IsControl())
	assert.True(t, OpcodeClose.IsControl())
	assert.True(t, OpcodePing.IsControl())
	assert.True(t, OpcodePong.IsControl())
}

func TestOpcodeIsKnown(t *testing.T) {
	assert.True(t, OpcodeText.isKnown())
	assert.False(t, Opcode(3).isKnown())
	assert.False(t, Opcode(11).isKnown())
}

func TestOpcodeString(t *testing.T) {
	assert.Equal(t, "text", OpcodeText.String())
	assert.Equal(t, "close", OpcodeClose.String())
	assert.Equal(t, "3", Opcode(3).String())
}
