// Package nettransport implements the one concrete
// [github.com/tzrikka/wsengine/pkg/websocket.Transport] this module
// ships: a plain net.Dialer/crypto-tls duplex byte stream. It is
// grounded on the teacher's dial.go Dial/adjustHTTPClient flow, adapted
// from "hijack an *http.Client round trip" into direct dialer control,
// since the connect-timeout parameter the Transport interface exposes
// needs it more directly than http.Client.Do allows.
package nettransport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"
)

// Transport is a [github.com/tzrikka/wsengine/pkg/websocket.Transport]
// backed by a real TCP (optionally TLS) connection.
type Transport struct {
	mu   sync.Mutex
	conn net.Conn

	onStateChanged         func(kind int, err error)
	onViabilityChanged     func(bool)
	onBetterPathAvailable  func(bool)
	onDataReceived         func([]byte)
}

// New returns an unconnected [Transport]. Callers wire its callbacks
// with the Set* methods before calling Connect, matching
// [github.com/tzrikka/wsengine/pkg/websocket.Transport]'s contract.
func New() *Transport {
	return &Transport{}
}

func (t *Transport) SetStateChangedFunc(f func(kind int, err error)) { t.onStateChanged = f }
func (t *Transport) SetViabilityChangedFunc(f func(bool))            { t.onViabilityChanged = f }
func (t *Transport) SetBetterPathAvailableFunc(f func(bool))         { t.onBetterPathAvailable = f }
func (t *Transport) SetDataReceivedFunc(f func([]byte))              { t.onDataReceived = f }

// Transport state kinds, mirrored here (rather than imported) to avoid
// an import cycle with the websocket package, which imports this one.
const (
	StateSetup = iota
	StatePreparing
	StateWaiting
	StateReady
	StateFailed
	StateCancelled
)

// Connect dials host:port, performs a TLS handshake if tlsEnabled, and
// starts a background goroutine relaying inbound bytes to the
// DataReceived callback. It reports progress through the StateChanged
// callback: preparing, then ready or failed.
func (t *Transport) Connect(ctx context.Context, host, port string, tlsEnabled bool, connectTimeout time.Duration) {
	t.report(StatePreparing, nil)

	dialer := &net.Dialer{Timeout: connectTimeout}
	addr := net.JoinHostPort(host, port)

	var conn net.Conn
	var err error
	if tlsEnabled {
		conn, err = tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12})
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		t.report(StateFailed, fmt.Errorf("failed to connect to %s: %w", addr, err))
		return
	}

	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()

	t.report(StateReady, nil)
	go t.readLoop(conn)
}

func (t *Transport) readLoop(conn net.Conn) {
	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if n > 0 && t.onDataReceived != nil {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			t.onDataReceived(chunk)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				t.report(StateCancelled, nil)
			} else {
				t.report(StateFailed, err)
			}
			return
		}
	}
}

// Send writes data to the connection and reports the outcome through
// completion. It is safe to call Send concurrently; the caller (the
// orchestrator's write lane) is expected to serialize calls anyway.
func (t *Transport) Send(data []byte, completion func(err error)) {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()

	if conn == nil {
		if completion != nil {
			completion(errors.New("transport not connected"))
		}
		return
	}

	_, err := conn.Write(data)
	if completion != nil {
		completion(err)
	}
}

// Cancel closes the underlying connection immediately.
func (t *Transport) Cancel() {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
}

func (t *Transport) report(kind int, err error) {
	if t.onStateChanged != nil {
		t.onStateChanged(kind, err)
	}
}
