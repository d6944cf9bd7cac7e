// Wsping dials a WebSocket URL, sends one message, and prints whatever
// comes back, as a minimal demonstration of the client engine.
package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"
	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli-altsrc/v3/toml"
	"github.com/urfave/cli/v3"

	"github.com/tzrikka/wsengine/internal/wslog"
	"github.com/tzrikka/wsengine/pkg/websocket"
)

func main() {
	bi, _ := debug.ReadBuildInfo()

	cmd := &cli.Command{
		Name:    "wsping",
		Usage:   "dial a WebSocket URL and exchange one message",
		Version: bi.Main.Version,
		Flags:   flags(),
		Action:  run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func flags() []cli.Flag {
	configPath := altsrc.StringSourcer("config.toml")

	return []cli.Flag{
		&cli.StringFlag{
			Name:     "url",
			Usage:    "WebSocket URL to dial, e.g. wss://echo.example.com",
			Required: true,
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("WSPING_URL"),
				toml.TOML("wsping.url", configPath),
			),
		},
		&cli.StringFlag{
			Name:  "message",
			Usage: "text message to send once connected",
			Value: "hello",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("WSPING_MESSAGE"),
				toml.TOML("wsping.message", configPath),
			),
		},
		&cli.StringFlag{
			Name:  "timeout",
			Usage: "how long to wait for a reply before giving up",
			Value: "10s",
		},
		&cli.BoolFlag{
			Name:  "dev",
			Usage: "human-readable console logging, instead of JSON",
		},
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	l := initLog(cmd.Bool("dev"))
	ctx = wslog.InContext(ctx, l)

	d := newPingDelegate(l)
	c, err := websocket.NewClient(ctx, cmd.String("url"), d)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	c.Connect(ctx)

	waitFor, err := time.ParseDuration(cmd.String("timeout"))
	if err != nil {
		c.ForceDisconnect()
		return fmt.Errorf("invalid --timeout value: %w", err)
	}
	timeout := time.After(waitFor)

	for {
		select {
		case s := <-d.states:
			l.Info().Str("state", s.String()).Msg("state changed")
			if _, ok := s.(websocket.StateConnected); ok {
				c.WriteText([]byte(cmd.String("message")), func(err error) {
					if err != nil {
						l.Error().Err(err).Msg("write failed")
					}
				})
			}
			if _, ok := s.(websocket.StateDisconnected); ok {
				return nil
			}
		case msg := <-d.messages:
			l.Info().Str("opcode", msg.Opcode.String()).Str("data", string(msg.Data)).Msg("received message")
			c.Disconnect(websocket.CloseNormalClosure, "")
		case <-timeout:
			c.ForceDisconnect()
			return fmt.Errorf("timed out waiting for a reply")
		}
	}
}

type pingDelegate struct {
	websocket.NopDelegate
	logger   zerolog.Logger
	states   chan websocket.ConnectionState
	messages chan websocket.Message
}

func newPingDelegate(l zerolog.Logger) *pingDelegate {
	return &pingDelegate{
		logger:   l,
		states:   make(chan websocket.ConnectionState, 4),
		messages: make(chan websocket.Message, 4),
	}
}

func (d *pingDelegate) OnStateChanged(s websocket.ConnectionState) { d.states <- s }
func (d *pingDelegate) OnMessage(m websocket.Message)              { d.messages <- m }

// initLog sets up this CLI's logger: pretty console output in dev mode,
// structured JSON otherwise.
func initLog(devMode bool) zerolog.Logger {
	if devMode {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
