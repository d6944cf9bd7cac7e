package websocket

import (
	"bufio"
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tzrikka/wsengine/internal/wslog"
)

// DialOpt configures a [Client] created by [NewClient].
type DialOpt func(*dialConfig)

type dialConfig struct {
	transport      Transport
	headers        http.Header
	origin         string
	connectTimeout time.Duration
	tlsConfig      *tls.Config
	bearerTokenErr error
}

func defaultDialConfig() *dialConfig {
	return &dialConfig{headers: http.Header{}, connectTimeout: 10 * time.Second}
}

// WithTransport lets callers substitute a custom [Transport], mainly
// for testing. Production callers get [internal/nettransport]'s
// net.Dialer/crypto-tls implementation by default.
func WithTransport(t Transport) DialOpt {
	return func(c *dialConfig) { c.transport = t }
}

// WithHTTPHeader adds a single HTTP header to the handshake request.
// Use [WithHTTPHeaders] to add several at once.
func WithHTTPHeader(key, value string) DialOpt {
	return func(c *dialConfig) { c.headers.Add(key, value) }
}

// WithHTTPHeaders adds multiple HTTP headers to the handshake request.
func WithHTTPHeaders(hs http.Header) DialOpt {
	return func(c *dialConfig) {
		for k, vs := range hs {
			for _, v := range vs {
				c.headers.Add(k, v)
			}
		}
	}
}

// WithOrigin overrides the default Origin header (scheme+host of the
// dial URL) sent with the handshake request.
func WithOrigin(origin string) DialOpt {
	return func(c *dialConfig) { c.origin = origin }
}

// WithConnectTimeout overrides the transport's default 10-second
// connect timeout, per the spec's configurable connect_timeout.
func WithConnectTimeout(d time.Duration) DialOpt {
	return func(c *dialConfig) { c.connectTimeout = d }
}

// WithTLSConfig stores cfg in the client's dial configuration. No
// [Transport] receives it: the default transport dials "wss://" URLs
// with its own [tls.Config] (ServerName set to the URL's host, TLS 1.2
// minimum), so cfg has no effect on the connection.
func WithTLSConfig(cfg *tls.Config) DialOpt {
	return func(c *dialConfig) { c.tlsConfig = cfg }
}

// Client is the C6 connection orchestrator: it owns the state machine
// (Disconnected -> Connecting -> (Waiting <-> Connecting) -> Connected
// -> Disconnected), wires a [Transport] to the frame decoder and
// [Reassembler], and serializes outbound writes.
//
// Concurrency model (three lanes, see the module's design notes):
//
//  1. Read lane: the transport's own single reader goroutine calling
//     onData serially. Decoding and reassembly happen here, in FIFO
//     order, with no separate goroutine (the transport's read loop IS
//     the read lane).
//  2. Write lane: a dedicated goroutine draining writeCh in submission
//     order, owning frame encoding and transport.Send.
//  3. User-notification lane: a dedicated goroutine draining notifyCh,
//     executing delegate callbacks and write completions in the order
//     they were enqueued by lanes 1 and 2.
//
// A single mutex guards state; critical sections never span a send,
// receive, or user callback.
type Client struct {
	id       uuid.UUID
	logger   zerolog.Logger
	delegate Delegate
	cfg      *dialConfig

	wsURL string
	host  string
	port  string
	tls   bool

	transport Transport

	mu    sync.Mutex
	state ConnectionState

	reassembler Reassembler
	decodeBuf   []byte

	handshakeKey  string
	handshakeBuf  []byte
	handshakeDone bool

	writeCh  chan writeRequest
	notifyCh chan func()
	lanesWG  sync.WaitGroup

	closeMu       sync.Mutex
	closeSent     bool
	closeReceived bool
}

type writeRequest struct {
	opcode     Opcode
	payload    []byte
	completion func(error)
}

// NewClient constructs a [Client] for wsURL ("ws://..." or "wss://...")
// without connecting. Call [Client.Connect] to begin the handshake.
func NewClient(ctx context.Context, wsURL string, delegate Delegate, opts ...DialOpt) (*Client, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse WebSocket URL: %w", err)
	}

	host, port, tlsEnabled, err := hostPortTLS(u)
	if err != nil {
		return nil, err
	}

	cfg := defaultDialConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.bearerTokenErr != nil {
		return nil, cfg.bearerTokenErr
	}

	if delegate == nil {
		delegate = NopDelegate{}
	}

	id := uuid.New()
	c := &Client{
		id:       id,
		logger:   wslog.FromContext(ctx).With().Str("conn_id", id.String()).Logger(),
		delegate: delegate,
		cfg:      cfg,
		wsURL:    wsURL,
		host:     host,
		port:     port,
		tls:      tlsEnabled,
		state:    StateDisconnected{Code: CloseCodeNone},
		writeCh:  make(chan writeRequest, 32),
		notifyCh: make(chan func(), 32),
	}

	c.transport = cfg.transport
	if c.transport == nil {
		c.transport = newDefaultTransport()
	}

	return c, nil
}

func hostPortTLS(u *url.URL) (host, port string, tlsEnabled bool, err error) {
	switch u.Scheme {
	case "ws":
		tlsEnabled = false
	case "wss":
		tlsEnabled = true
	default:
		return "", "", false, fmt.Errorf("unexpected WebSocket URL scheme: %q", u.Scheme)
	}

	host = u.Hostname()
	port = u.Port()
	if port == "" {
		if tlsEnabled {
			port = "443"
		} else {
			port = "80"
		}
	}
	return host, port, tlsEnabled, nil
}

// ID returns the client's unique identity, suitable for log correlation.
func (c *Client) ID() string { return c.id.String() }

// State returns the current [ConnectionState].
func (c *Client) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// setState updates the state and, if it actually changed, enqueues a
// delegate notification on the user-notification lane. Never called
// while holding a lock across the notifyCh send (the lock is released
// first).
func (c *Client) setState(s ConnectionState) {
	c.mu.Lock()
	changed := !sameState(c.state, s)
	c.state = s
	c.mu.Unlock()

	if changed {
		c.notify(func() { c.delegate.OnStateChanged(s) })
	}
}

// notify enqueues f on the user-notification lane. It blocks if the
// lane's buffer is full, rather than dropping the notification.
func (c *Client) notify(f func()) {
	c.notifyCh <- f
}

// Connect initiates the transport and begins the handshake. It is a
// no-op unless the client is currently Disconnected.
func (c *Client) Connect(ctx context.Context) {
	c.mu.Lock()
	_, disconnected := c.state.(StateDisconnected)
	if !disconnected {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	c.setState(StateConnecting{})

	c.transport.SetStateChanged(func(ts TransportState) { c.onTransportStateChanged(ctx, ts) })
	c.transport.SetViabilityChanged(func(v bool) { c.notify(func() { c.delegate.OnViabilityChanged(v) }) })
	c.transport.SetBetterPathAvailable(func(v bool) { c.notify(func() { c.delegate.OnBetterPathAvailable(v) }) })
	c.transport.SetDataReceived(func(data []byte) { c.onData(data) })

	c.lanesWG.Add(2)
	go c.writeLoop()
	go c.notifyLoop()

	c.transport.Connect(ctx, c.host, c.port, c.tls, c.cfg.connectTimeout)
}

func (c *Client) onTransportStateChanged(ctx context.Context, ts TransportState) {
	switch ts.Kind {
	case TransportReady:
		c.startHandshake(ctx)
	case TransportWaiting:
		c.setState(StateWaiting{Err: ts.Err})
	case TransportFailed:
		c.finishWithTransportError(ts.Err)
	case TransportCancelled:
		c.mu.Lock()
		alreadyDisconnected := isDisconnected(c.state)
		c.mu.Unlock()
		if !alreadyDisconnected {
			c.setState(StateDisconnected{Code: CloseAbnormalClosure, Reason: "transport cancelled"})
		}
	}
}

func isDisconnected(s ConnectionState) bool {
	_, ok := s.(StateDisconnected)
	return ok
}

func (c *Client) finishWithTransportError(err error) {
	reason := "transport error"
	if err != nil {
		reason = err.Error()
	}
	c.setState(StateDisconnected{Code: CloseAbnormalClosure, Reason: reason})
}

// startHandshake builds and sends the HTTP upgrade request over the
// now-ready transport, per C5 (handshake.go).
func (c *Client) startHandshake(ctx context.Context) {
	key, err := GenerateKey()
	if err != nil {
		c.finishWithTransportError(err)
		return
	}
	c.handshakeKey = key

	req, err := BuildRequest(c.wsURL, key, c.cfg.origin, c.cfg.headers)
	if err != nil {
		c.finishWithTransportError(err)
		return
	}
	req = req.WithContext(ctx)

	var buf bytes.Buffer
	if err := req.Write(&buf); err != nil {
		c.finishWithTransportError(fmt.Errorf("failed to serialize handshake request: %w", err))
		return
	}

	c.logger.Debug().Msg("sending WebSocket handshake request")
	c.transport.Send(buf.Bytes(), func(err error) {
		if err != nil {
			c.finishWithTransportError(err)
		}
	})
}

// onData is the sole entry point for inbound bytes, called serially by
// the transport's own reader goroutine - this is the read lane.
func (c *Client) onData(data []byte) {
	if !c.handshakeDone {
		c.onHandshakeData(data)
		return
	}
	c.onFrameData(data)
}

func (c *Client) onHandshakeData(data []byte) {
	c.handshakeBuf = append(c.handshakeBuf, data...)

	idx := bytes.Index(c.handshakeBuf, []byte("\r\n\r\n"))
	if idx < 0 {
		return // Keep waiting for the rest of the response headers.
	}

	headerBytes := c.handshakeBuf[:idx+4]
	trailing := c.handshakeBuf[idx+4:]
	c.handshakeBuf = nil

	resp, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(headerBytes)), nil)
	if err != nil {
		c.finishWithTransportError(fmt.Errorf("failed to parse handshake response: %w", err))
		return
	}
	defer resp.Body.Close()

	if err := ValidateResponse(resp, c.handshakeKey); err != nil {
		c.setState(StateDisconnected{Code: CloseAbnormalClosure, Reason: err.Error()})
		c.transport.Cancel()
		return
	}

	c.handshakeDone = true
	c.setState(StateConnected{Headers: resp.Header})

	if len(trailing) > 0 {
		c.onFrameData(trailing)
	}
}

// onFrameData accumulates inbound bytes and feeds complete frames to the
// reassembler in a loop, per ordering guarantees O1/O2/O4.
func (c *Client) onFrameData(data []byte) {
	c.decodeBuf = append(c.decodeBuf, data...)

	for {
		outcome := DecodeFrame(c.decodeBuf)
		switch outcome.Kind {
		case DecodeNeedsMore:
			return
		case DecodeFailed:
			c.failConnection(outcome.Code, outcome.Reason)
			return
		case DecodeFrameReady:
			c.decodeBuf = c.decodeBuf[outcome.Consumed:]
			if !c.handleFrame(outcome.Frame) {
				return
			}
		}
	}
}

// handleFrame dispatches one decoded frame through the reassembler and
// returns false if the connection was closed as a result (so onFrameData
// should stop looping).
func (c *Client) handleFrame(f Frame) bool {
	events := c.reassembler.Consume(f)
	for _, ev := range events {
		switch ev.Kind {
		case EventText:
			c.notify(func() { c.delegate.OnMessage(Message{Opcode: OpcodeText, Data: ev.Data}) })
		case EventBinary:
			c.notify(func() { c.delegate.OnMessage(Message{Opcode: OpcodeBinary, Data: ev.Data}) })
		case EventPing:
			// O4: submit the Pong before processing the next inbound frame.
			c.submitWrite(OpcodePong, ev.Payload, nil)
			c.notify(func() { c.delegate.OnMessage(Message{Opcode: OpcodePing, Data: ev.Payload}) })
		case EventPong:
			c.notify(func() { c.delegate.OnMessage(Message{Opcode: OpcodePong, Data: ev.Payload}) })
		case EventClosed:
			c.onPeerClose(ev.Code, ev.Message)
			return false
		case EventError:
			c.failConnection(ev.Code, ev.Message)
			return false
		}
	}
	return true
}

func (c *Client) onPeerClose(code CloseCode, reason string) {
	c.closeMu.Lock()
	c.closeReceived = true
	c.closeMu.Unlock()

	// A code that may not appear on the wire (e.g. 1005 for an empty
	// close body) is answered with a normal closure instead.
	echo := code
	if !echo.isValidOnWire() {
		echo = CloseNormalClosure
	}
	c.sendCloseFrame(echo, "")
	c.setState(StateDisconnected{Code: code, Reason: reason})
	c.transport.Cancel()
}

// failConnection handles a protocol/payload error from the decoder or
// reassembler: best-effort close frame, then Disconnected.
func (c *Client) failConnection(code CloseCode, reason string) {
	c.reassembler = Reassembler{}
	c.sendCloseFrame(code, reason)
	c.setState(StateDisconnected{Code: code, Reason: reason})
	c.transport.Cancel()
}

// sendCloseFrame is idempotent: per
// https://datatracker.ietf.org/doc/html/rfc6455#section-7, only the
// first call actually emits a Close frame.
func (c *Client) sendCloseFrame(code CloseCode, reason string) {
	c.closeMu.Lock()
	if c.closeSent {
		c.closeMu.Unlock()
		return
	}
	c.closeSent = true
	c.closeMu.Unlock()

	payload := make([]byte, 2+len(reason))
	writeUint16BE(payload[:2], uint16(code))
	copy(payload[2:], reason)
	c.submitWrite(OpcodeClose, payload, nil)
}

// Disconnect performs a WebSocket closing handshake to initiate the
// closure of an open connection, per
// https://datatracker.ietf.org/doc/html/rfc6455#section-7.1.2.
func (c *Client) Disconnect(code CloseCode, reason string) {
	c.mu.Lock()
	_, connected := c.state.(StateConnected)
	c.mu.Unlock()
	if !connected {
		return
	}

	if !code.isValidOnWire() {
		c.logger.Warn().Stringer("code", code).Msg("invalid close code, sending normal closure instead")
		code = CloseNormalClosure
	}
	c.sendCloseFrame(code, reason)
}

// ForceDisconnect cancels the transport immediately, without sending a
// close frame, per the spec's force_disconnect() operation.
func (c *Client) ForceDisconnect() {
	c.transport.Cancel()
	c.setState(StateDisconnected{Code: CloseAbnormalClosure, Reason: "forced"})
}

// WriteText sends a UTF-8 text message. completion, if non-nil, is
// invoked on the user-notification lane with the write's outcome.
func (c *Client) WriteText(data []byte, completion func(error)) {
	c.write(OpcodeText, data, completion)
}

// WriteBinary sends a binary message.
func (c *Client) WriteBinary(data []byte, completion func(error)) {
	c.write(OpcodeBinary, data, completion)
}

// WritePing sends an unsolicited ping control frame.
func (c *Client) WritePing(data []byte, completion func(error)) {
	c.write(OpcodePing, data, completion)
}

// WritePong sends an unsolicited pong control frame.
func (c *Client) WritePong(data []byte, completion func(error)) {
	c.write(OpcodePong, data, completion)
}

var errNotConnected = errors.New("WebSocket write rejected: connection is not Connected")

func (c *Client) write(opcode Opcode, data []byte, completion func(error)) {
	c.mu.Lock()
	_, connected := c.state.(StateConnected)
	c.mu.Unlock()

	if !connected {
		if completion != nil {
			c.notify(func() { completion(errNotConnected) })
		}
		return
	}

	c.submitWrite(opcode, data, completion)
}

func (c *Client) submitWrite(opcode Opcode, data []byte, completion func(error)) {
	c.writeCh <- writeRequest{opcode: opcode, payload: data, completion: completion}
}

// writeLoop is the write lane: it owns frame encoding and transport.Send,
// processing requests strictly in submission order (O3).
func (c *Client) writeLoop() {
	defer c.lanesWG.Done()
	for req := range c.writeCh {
		encoded, err := EncodeFrame(req.opcode, req.payload)
		if err != nil {
			if req.completion != nil {
				c.notify(func() { req.completion(err) })
			}
			continue
		}

		done := make(chan error, 1)
		c.transport.Send(encoded, func(err error) { done <- err })
		err = <-done

		if req.completion != nil {
			cb := req.completion
			c.notify(func() { cb(err) })
		}
	}
}

// notifyLoop is the user-notification lane: it executes enqueued
// delegate callbacks and write completions in FIFO order.
func (c *Client) notifyLoop() {
	defer c.lanesWG.Done()
	for f := range c.notifyCh {
		f()
	}
}
