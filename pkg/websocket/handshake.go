package websocket

import (
	"crypto/rand"
	"crypto/sha1" //nolint:gosec // required by the WebSocket protocol
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/net/http/httpguts"
)

// GenerateKey generates a nonce consisting of a randomly selected
// 16-byte value that has been Base64-encoded, for the
// "Sec-WebSocket-Key" header. It MUST be selected randomly for each
// connection, per https://datatracker.ietf.org/doc/html/rfc6455#section-4.1.
func GenerateKey() (string, error) {
	return generateKey(rand.Reader)
}

func generateKey(r io.Reader) (string, error) {
	b := make([]byte, 16)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", fmt.Errorf("failed to generate WebSocket handshake key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

var acceptGUID = []byte("258EAFA5-E914-47DA-95CA-C5AB0DC85B11")

// ExpectedAccept constructs the expected value of the
// "Sec-WebSocket-Accept" response header, as defined in
// https://datatracker.ietf.org/doc/html/rfc6455#section-4.2.2.
func ExpectedAccept(key string) string {
	h := sha1.New() //nolint:gosec // required by the WebSocket protocol
	h.Write([]byte(key))
	h.Write(acceptGUID)
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// BuildRequest constructs the client's upgrade request, as defined in
// https://datatracker.ietf.org/doc/html/rfc6455#section-4.1. origin, if
// empty, is defaulted from wsURL's scheme and host. No extensions or
// subprotocols are requested, since this engine implements neither.
func BuildRequest(wsURL, key, origin string, extraHeaders http.Header) (*http.Request, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse WebSocket URL: %w", err)
	}

	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	case "http", "https":
		// Do nothing.
	default:
		return nil, fmt.Errorf("unexpected WebSocket URL scheme: %q", u.Scheme)
	}

	req, err := http.NewRequest(http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create WebSocket handshake request: %w", err)
	}

	if extraHeaders != nil {
		req.Header = extraHeaders.Clone()
	} else {
		req.Header = http.Header{}
	}

	if origin == "" {
		origin = defaultOrigin(u)
	}

	req.Header.Set("Upgrade", "websocket")
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Sec-WebSocket-Key", key)
	req.Header.Set("Sec-WebSocket-Version", "13")
	req.Header.Set("Origin", origin)
	// Sec-WebSocket-Extensions, Sec-WebSocket-Protocol: not implemented.

	return req, nil
}

// defaultOrigin derives an Origin header value from the handshake URL's
// scheme and host, per https://datatracker.ietf.org/doc/html/rfc6454.
func defaultOrigin(u *url.URL) string {
	scheme := "http"
	if u.Scheme == "https" {
		scheme = "https"
	}
	return scheme + "://" + u.Host
}

// ValidateResponse checks the server's handshake response against
// https://datatracker.ietf.org/doc/html/rfc6455#section-4.2.2. Absence
// of Sec-WebSocket-Accept, or any mismatch, is treated as a server that
// does not implement the upgrade correctly and is rejected.
func ValidateResponse(resp *http.Response, key string) error {
	if resp.StatusCode != http.StatusSwitchingProtocols {
		msg := fmt.Sprintf("WebSocket handshake response status: got %d, want %d",
			resp.StatusCode, http.StatusSwitchingProtocols)
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		if len(body) > 0 {
			msg = fmt.Sprintf("%s (%s)", msg, string(body))
		}
		return fmt.Errorf("%s", msg)
	}

	if !httpguts.HeaderValuesContainsToken(resp.Header["Upgrade"], "websocket") {
		return fmt.Errorf("WebSocket handshake response header %q: got %q, want %q",
			"Upgrade", resp.Header.Get("Upgrade"), "websocket")
	}
	if !httpguts.HeaderValuesContainsToken(resp.Header["Connection"], "Upgrade") {
		return fmt.Errorf("WebSocket handshake response header %q: got %q, want %q",
			"Connection", resp.Header.Get("Connection"), "Upgrade")
	}

	want := ExpectedAccept(key)
	got := resp.Header.Get("Sec-WebSocket-Accept")
	if got == "" || got != want {
		return fmt.Errorf("WebSocket handshake response header %q: got %q, want %q",
			"Sec-WebSocket-Accept", got, want)
	}

	return nil
}
