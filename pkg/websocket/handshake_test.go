package websocket

import (
	"bufio"
	"bytes"
	"crypto/sha1" //nolint:gosec // required by the WebSocket protocol
	"encoding/base64"
	"net/http"
	"strings"
	"testing"
)

func TestGenerateKey(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}

	raw, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		t.Fatalf("GenerateKey() = %q, not valid base64: %v", key, err)
	}
	if len(raw) != 16 {
		t.Errorf("len(decoded key) = %d, want 16", len(raw))
	}

	other, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	if key == other {
		t.Errorf("GenerateKey() returned the same value twice: %q", key)
	}
}

// https://datatracker.ietf.org/doc/html/rfc6455#section-1.3's worked example.
func TestExpectedAccept(t *testing.T) {
	got := ExpectedAccept("dGhlIHNhbXBsZSBub25jZQ==")
	want := "s3pPLMBiTxaQ9kYGzzhZRbK+xOo="
	if got != want {
		t.Errorf("ExpectedAccept() = %q, want %q", got, want)
	}
}

func TestExpectedAcceptMatchesManualSHA1(t *testing.T) {
	key := "x3JJHMbDL1EzLkh9GBhXDw=="
	h := sha1.New() //nolint:gosec // required by the WebSocket protocol
	h.Write([]byte(key))
	h.Write(acceptGUID)
	want := base64.StdEncoding.EncodeToString(h.Sum(nil))

	if got := ExpectedAccept(key); got != want {
		t.Errorf("ExpectedAccept() = %q, want %q", got, want)
	}
}

func TestBuildRequest(t *testing.T) {
	req, err := BuildRequest("ws://example.com/chat", "dGhlIHNhbXBsZSBub25jZQ==", "", nil)
	if err != nil {
		t.Fatalf("BuildRequest() error = %v", err)
	}

	if req.URL.Scheme != "http" {
		t.Errorf("req.URL.Scheme = %q, want %q", req.URL.Scheme, "http")
	}
	if req.Header.Get("Upgrade") != "websocket" {
		t.Errorf("Upgrade header = %q, want %q", req.Header.Get("Upgrade"), "websocket")
	}
	if req.Header.Get("Connection") != "Upgrade" {
		t.Errorf("Connection header = %q, want %q", req.Header.Get("Connection"), "Upgrade")
	}
	if req.Header.Get("Sec-WebSocket-Version") != "13" {
		t.Errorf("Sec-WebSocket-Version header = %q, want %q", req.Header.Get("Sec-WebSocket-Version"), "13")
	}
	if req.Header.Get("Sec-WebSocket-Key") != "dGhlIHNhbXBsZSBub25jZQ==" {
		t.Errorf("Sec-WebSocket-Key header = %q", req.Header.Get("Sec-WebSocket-Key"))
	}
	if req.Header.Get("Origin") != "http://example.com" {
		t.Errorf("default Origin header = %q, want %q", req.Header.Get("Origin"), "http://example.com")
	}
}

func TestBuildRequestCustomOrigin(t *testing.T) {
	req, err := BuildRequest("wss://example.com/chat", "key", "https://app.example.net", nil)
	if err != nil {
		t.Fatalf("BuildRequest() error = %v", err)
	}
	if req.Header.Get("Origin") != "https://app.example.net" {
		t.Errorf("Origin header = %q, want %q", req.Header.Get("Origin"), "https://app.example.net")
	}
}

func TestValidateResponse(t *testing.T) {
	key := "dGhlIHNhbXBsZSBub25jZQ=="
	accept := ExpectedAccept(key)

	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{
			name: "valid",
			raw: "HTTP/1.1 101 Switching Protocols\r\n" +
				"Upgrade: websocket\r\n" +
				"Connection: Upgrade\r\n" +
				"Sec-WebSocket-Accept: " + accept + "\r\n\r\n",
		},
		{
			name: "valid_comma_separated_connection",
			raw: "HTTP/1.1 101 Switching Protocols\r\n" +
				"Upgrade: websocket\r\n" +
				"Connection: keep-alive, Upgrade\r\n" +
				"Sec-WebSocket-Accept: " + accept + "\r\n\r\n",
		},
		{
			name: "wrong_status",
			raw: "HTTP/1.1 200 OK\r\n" +
				"Upgrade: websocket\r\n" +
				"Connection: Upgrade\r\n" +
				"Sec-WebSocket-Accept: " + accept + "\r\n\r\n",
			wantErr: true,
		},
		{
			name: "missing_upgrade_header",
			raw: "HTTP/1.1 101 Switching Protocols\r\n" +
				"Connection: Upgrade\r\n" +
				"Sec-WebSocket-Accept: " + accept + "\r\n\r\n",
			wantErr: true,
		},
		{
			name: "missing_accept_header",
			raw: "HTTP/1.1 101 Switching Protocols\r\n" +
				"Upgrade: websocket\r\n" +
				"Connection: Upgrade\r\n\r\n",
			wantErr: true,
		},
		{
			name: "wrong_accept_value",
			raw: "HTTP/1.1 101 Switching Protocols\r\n" +
				"Upgrade: websocket\r\n" +
				"Connection: Upgrade\r\n" +
				"Sec-WebSocket-Accept: not-the-right-value\r\n\r\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.ReadResponse(bufio.NewReader(strings.NewReader(tt.raw)), nil)
			if err != nil {
				t.Fatalf("http.ReadResponse() error = %v", err)
			}
			defer resp.Body.Close()

			err = ValidateResponse(resp, key)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateResponse() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBuildRequestSerializesCleanly(t *testing.T) {
	req, err := BuildRequest("ws://example.com/chat", "key", "", nil)
	if err != nil {
		t.Fatalf("BuildRequest() error = %v", err)
	}

	var buf bytes.Buffer
	if err := req.Write(&buf); err != nil {
		t.Fatalf("req.Write() error = %v", err)
	}
	if !strings.Contains(buf.String(), "Sec-Websocket-Key: key\r\n") &&
		!strings.Contains(buf.String(), "Sec-WebSocket-Key: key\r\n") {
		t.Errorf("serialized request missing Sec-WebSocket-Key header:\n%s", buf.String())
	}
}
