// Wstest tests this module's [WebSocket client] against the fuzzing
// server of the [Autobahn Testsuite].
//
// [WebSocket client]: https://pkg.go.dev/github.com/tzrikka/wsengine/pkg/websocket
// [Autobahn Testsuite]: https://github.com/crossbario/autobahn-testsuite
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tzrikka/wsengine/internal/wslog"
	"github.com/tzrikka/wsengine/pkg/websocket"
)

const (
	baseURL = "ws://127.0.0.1:9001"
	agent   = "wsengine"

	dialTimeout = 10 * time.Second
)

func main() {
	n := getCaseCount()
	log.Info().Int("n", n).Msg("case count")

	// Not implemented by this engine (excluded in "config/fuzzingserver.json"):
	//   - 12.* and 13.*: WebSocket compression.
	for i := 1; i <= n; i++ {
		runCase(i)
	}

	updateReports()
}

// echoDelegate bridges the callback-based [websocket.Delegate] interface
// to the channel-based control flow this CLI drives.
type echoDelegate struct {
	websocket.NopDelegate
	states   chan websocket.ConnectionState
	messages chan websocket.Message
}

func newEchoDelegate() *echoDelegate {
	return &echoDelegate{
		states:   make(chan websocket.ConnectionState, 4),
		messages: make(chan websocket.Message, 64),
	}
}

func (d *echoDelegate) OnStateChanged(s websocket.ConnectionState) { d.states <- s }
func (d *echoDelegate) OnMessage(m websocket.Message)              { d.messages <- m }

// dial connects a new [websocket.Client] to url and blocks until the
// upgrade handshake either succeeds or fails.
func dial(url string) (*websocket.Client, *echoDelegate, error) {
	ctx := context.Background()
	d := newEchoDelegate()

	c, err := websocket.NewClient(ctx, url, d)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create client: %w", err)
	}
	c.Connect(ctx)

	deadline := time.After(dialTimeout)
	for {
		select {
		case s := <-d.states:
			switch s.(type) {
			case websocket.StateConnected:
				return c, d, nil
			case websocket.StateDisconnected:
				return nil, nil, fmt.Errorf("handshake failed: %s", s)
			}
		case <-deadline:
			return nil, nil, fmt.Errorf("timed out dialing %s", url)
		}
	}
}

// getCaseCount retrieves the number of enabled test cases from the
// Autobahn fuzzing server, using a WebSocket request.
func getCaseCount() int {
	c, d, err := dial(baseURL + "/getCaseCount")
	if err != nil {
		wslog.FatalError(context.Background(), "dial error", err)
	}
	defer c.ForceDisconnect()

	select {
	case msg := <-d.messages:
		n, err := strconv.Atoi(string(msg.Data))
		if err != nil {
			wslog.FatalError(context.Background(), "invalid test case count", err)
		}
		return n
	case <-d.states:
		log.Debug().Msg("connection closed before case count arrived")
		return 0
	}
}

// updateReports instructs the Autobahn fuzzing server to generate/update
// all the HTML and JSON files for all the test-case results.
func updateReports() {
	log.Info().Msg("updating reports")

	url := fmt.Sprintf("%s/updateReports?agent=%s", baseURL, agent)
	c, _, err := dial(url)
	if err != nil {
		wslog.FatalError(context.Background(), "dial error", err)
	}
	c.ForceDisconnect()
}

func runCase(i int) {
	l := log.With().Int("case", i).Logger()
	l.Info().Msg("starting test")

	url := fmt.Sprintf("%s/runCase?case=%d&agent=%s", baseURL, i, agent)
	c, d, err := dial(url)
	if err != nil {
		wslog.FatalError(context.Background(), "dial error", err)
	}
	defer c.ForceDisconnect()

	// Echo loop.
	for {
		select {
		case msg := <-d.messages:
			l = l.With().Str("opcode", msg.Opcode.String()).Logger()
			l.Info().Int("length", len(msg.Data)).Msg("received message")

			switch msg.Opcode {
			case websocket.OpcodeText:
				c.WriteText(msg.Data, echoCompletion(l))
			case websocket.OpcodeBinary:
				c.WriteBinary(msg.Data, echoCompletion(l))
			default:
				l.Error().Msg("unexpected opcode in data message")
				os.Exit(1)
			}
		case s := <-d.states:
			if _, ok := s.(websocket.StateDisconnected); ok {
				l.Debug().Msg("connection closed")
				return
			}
		}
	}
}

func echoCompletion(l zerolog.Logger) func(error) {
	return func(err error) {
		if err != nil {
			l.Error().Err(err).Msg("echo error")
		}
	}
}
