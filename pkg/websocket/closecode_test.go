package websocket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloseCodeValues(t *testing.T) {
	require.EqualValues(t, 1000, CloseNormalClosure)
	require.EqualValues(t, 1001, CloseGoingAway)
	require.EqualValues(t, 1002, CloseProtocolError)
	require.EqualValues(t, 1003, CloseUnsupportedData)
	require.EqualValues(t, 1005, CloseNoStatusReceived)
	require.EqualValues(t, 1006, CloseAbnormalClosure)
	require.EqualValues(t, 1007, CloseInvalidFramePayloadData)
	require.EqualValues(t, 1008, ClosePolicyViolation)
	require.EqualValues(t, 1009, CloseMessageTooBig)
	require.EqualValues(t, 1015, CloseTLSHandshake)
}

func TestCloseCodeIsValidOnWire(t *testing.T) {
	assert.True(t, CloseNormalClosure.isValidOnWire())
	assert.True(t, CloseCode(3000).isValidOnWire())
	assert.True(t, CloseCode(4999).isValidOnWire())

	assert.False(t, CloseCodeNone.isValidOnWire())
	assert.False(t, CloseCode(1004).isValidOnWire())
	assert.False(t, CloseNoStatusReceived.isValidOnWire())
	assert.False(t, CloseAbnormalClosure.isValidOnWire())
	assert.False(t, CloseCode(2000).isValidOnWire())
}

func TestCloseCodeString(t *testing.T) {
	assert.Equal(t, "normal closure", CloseNormalClosure.String())
	assert.Equal(t, "3001", CloseCode(3001).String())
}
