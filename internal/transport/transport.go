// Package transport owns the single framed WebSocket connection to the
// ACNET gateway. It knows nothing about commands, requests, or
// correlation — it only moves whole binary frames and reports
// disconnection.
package transport

import (
	"context"
	"crypto/tls"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

// subprotocol is the WebSocket sub-protocol token the gateway expects.
const subprotocol = "acnet-client"

// Transport is a single-owner, bidirectional framed connection. Once
// constructed it is read from a dedicated goroutine; Close tears it
// down and unblocks that goroutine.
type Transport struct {
	conn   *websocket.Conn
	frames chan []byte
	done   chan error
}

// Dial opens a secure framed session against url. Compression is
// disabled and the acnet-client sub-protocol is advertised, mirroring
// the gateway's expectations.
func Dial(ctx context.Context, url string, tlsConfig *tls.Config) (*Transport, error) {
	dialer := websocket.Dialer{
		TLSClientConfig:  tlsConfig,
		Subprotocols:     []string{subprotocol},
		EnableCompression: false,
	}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "transport: dial gateway")
	}
	t := &Transport{
		conn:   conn,
		frames: make(chan []byte, 64),
		done:   make(chan error, 1),
	}
	go t.readPump()
	return t, nil
}

// readPump is the transport's single reader goroutine. It exits, and
// reports exactly one "done" event, on the first read error or a
// graceful close from the peer.
func (t *Transport) readPump() {
	defer close(t.frames)
	for {
		_, data, err := t.conn.ReadMessage()
		if err != nil {
			t.done <- errors.WithStack(err)
			return
		}
		t.frames <- data
	}
}

// Frames returns the channel of whole binary frames received from the
// gateway. It is closed when the read pump exits.
func (t *Transport) Frames() <-chan []byte {
	return t.frames
}

// Done fires exactly once, carrying the error (if any) that ended the
// read pump.
func (t *Transport) Done() <-chan error {
	return t.done
}

// Send writes a whole frame to the gateway.
func (t *Transport) Send(data []byte) error {
	if err := t.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return errors.Wrap(err, "transport: write frame")
	}
	return nil
}

// Close tears down the underlying socket. It does not wait for the
// read pump to observe the close; callers select on Done() for that.
func (t *Transport) Close() error {
	return errors.WithStack(t.conn.Close())
}
