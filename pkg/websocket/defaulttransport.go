package websocket

import (
	"context"
	"time"

	"github.com/tzrikka/wsengine/internal/nettransport"
)

// defaultTransport adapts [nettransport.Transport] to the [Transport]
// interface. nettransport cannot import this package (it would create
// an import cycle, since this package depends on nettransport for its
// default), so it reports state changes as plain ints; this adapter
// translates them into this package's [TransportState] vocabulary.
type defaultTransport struct {
	t *nettransport.Transport
}

func newDefaultTransport() Transport {
	return &defaultTransport{t: nettransport.New()}
}

func (d *defaultTransport) Connect(ctx context.Context, host, port string, tlsEnabled bool, connectTimeout time.Duration) {
	// nettransport's Connect dials synchronously; running it on its own
	// goroutine keeps this Connect non-blocking, as [Transport] requires.
	go d.t.Connect(ctx, host, port, tlsEnabled, connectTimeout)
}

func (d *defaultTransport) Send(data []byte, completion func(err error)) {
	d.t.Send(data, completion)
}

func (d *defaultTransport) Cancel() {
	d.t.Cancel()
}

func (d *defaultTransport) SetStateChanged(f func(TransportState)) {
	d.t.SetStateChangedFunc(func(kind int, err error) {
		f(TransportState{Kind: TransportStateKind(kind), Err: err})
	})
}

func (d *defaultTransport) SetViabilityChanged(f func(bool)) {
	d.t.SetViabilityChangedFunc(f)
}

func (d *defaultTransport) SetBetterPathAvailable(f func(bool)) {
	d.t.SetBetterPathAvailableFunc(f)
}

func (d *defaultTransport) SetDataReceived(f func([]byte)) {
	d.t.SetDataReceivedFunc(f)
}
