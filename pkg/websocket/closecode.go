package websocket

import "strconv"

// CloseCode indicates a reason for the closure of an established
// WebSocket connection, as defined in
// https://datatracker.ietf.org/doc/html/rfc6455#section-7.4.
//
// See also https://www.iana.org/assignments/websocket/websocket.xhtml#close-code-number.
//
// Other status code ranges:
//   - 0-999: not used
//   - 3000-3999: reserved for use by libraries, frameworks, and applications
//   - 4000-4999: reserved for private use and thus can't be registered
type CloseCode uint16

const (
	// CloseCodeNone is the sentinel meaning "invalid/unset": no status
	// code has been assigned yet. It is never sent on the wire.
	CloseCodeNone CloseCode = 0

	// The purpose for which the connection was established has been fulfilled.
	CloseNormalClosure CloseCode = iota + 999
	// An endpoint is "going away", such as a server going
	// down or a browser having navigated away from a page.
	CloseGoingAway
	// An endpoint is terminating the connection due to a protocol error.
	CloseProtocolError
	// An endpoint is terminating the connection because it has received a
	// type of data it cannot accept (e.g., an endpoint that understands
	// only text data MAY send this if it receives a binary message).
	CloseUnsupportedData
	// Reserved. The specific meaning might be defined in the future.
	_
	// Reserved value, MUST NOT be set as a status code in a Close control
	// frame by an endpoint. It is designated for use in applications expecting
	// a status code to indicate that no status code was actually present.
	CloseNoStatusReceived
	// Reserved value, MUST NOT be set as a status code in a Close control
	// frame by an endpoint. It is designated for use in applications expecting
	// a status code to indicate that the connection was closed abnormally,
	// e.g., without sending or receiving a Close control frame.
	CloseAbnormalClosure
	// An endpoint is terminating the connection because it has received data
	// within a message that was not consistent with the type of the message
	// (e.g., non-UTF-8 RFC 3629 data within a text message).
	CloseInvalidFramePayloadData
	// An endpoint is terminating the connection because it has received a message
	// that violates its policy. This is a generic status code that can be returned
	// when there is no other more suitable status code (e.g., 1003 or 1009)
	// or if there is a need to hide specific details about the policy.
	ClosePolicyViolation
	// An endpoint is terminating the connection because it has
	// received a message that is too big for it to process.
	CloseMessageTooBig
	// An endpoint (client) is terminating the connection because it has expected the
	// server to negotiate one or more extensions, but the server didn't return them in
	// the response message of the WebSocket handshake. The list of extensions that are
	// needed SHOULD appear in the reason part of the Close frame. Note that this status
	// code is not used by the server, because it can fail the WebSocket handshake instead.
	CloseMandatoryExtension
	// A remote endpoint is terminating the connection because it encountered
	// an unexpected condition that prevented it from fulfilling the request.
	// See https://www.rfc-editor.org/errata_search.php?eid=3227.
	CloseInternalError
	// See https://www.iana.org/assignments/websocket/websocket.xhtml#close-code-number.
	CloseServiceRestart
	// See https://www.iana.org/assignments/websocket/websocket.xhtml#close-code-number.
	CloseTryAgainLater
	// See https://www.iana.org/assignments/websocket/websocket.xhtml#close-code-number.
	CloseBadGateway
	// Reserved value, MUST NOT be set as a status code in a Close control frame
	// by an endpoint. It is designated for use in applications expecting a status
	// code to indicate that the connection was closed due to a failure to perform
	// a TLS handshake (e.g., the server certificate can't be verified).
	CloseTLSHandshake
)

// String returns the close code's name, or its number if it's unrecognized.
func (s CloseCode) String() string {
	switch s {
	case CloseCodeNone:
		return "none"
	case CloseNormalClosure:
		return "normal closure"
	case CloseGoingAway:
		return "going away"
	case CloseProtocolError:
		return "protocol error"
	case CloseUnsupportedData:
		return "unsupported data"
	case CloseNoStatusReceived:
		return "no status received"
	case CloseAbnormalClosure:
		return "abnormal closure"
	case CloseInvalidFramePayloadData:
		return "invalid frame payload data"
	case ClosePolicyViolation:
		return "policy violation"
	case CloseMessageTooBig:
		return "message too big"
	case CloseMandatoryExtension:
		return "expected extension negotiation"
	case CloseInternalError:
		return "internal error"
	case CloseServiceRestart:
		return "service restart"
	case CloseTryAgainLater:
		return "try again later"
	case CloseBadGateway:
		return "bad gateway"
	case CloseTLSHandshake:
		return "TLS handshake"
	default:
		return strconv.Itoa(int(s))
	}
}

// isValidOnWire reports whether s is a code an endpoint is allowed to
// place in an outbound or inbound Close frame body, per
// https://datatracker.ietf.org/doc/html/rfc6455#section-7.4.
func (s CloseCode) isValidOnWire() bool {
	switch {
	case s < CloseNormalClosure:
		return false
	case s == 1004 || s == CloseNoStatusReceived || s == CloseAbnormalClosure || s == CloseTLSHandshake:
		return false
	case s > CloseTLSHandshake && s < 3000, s > 4999:
		return false
	default:
		return true
	}
}
