// Package acnet is a client for the ACNET control-system protocol: a
// single multiplexed connection to a local gateway carrying
// administrative commands and per-request reply streams over one
// framed WebSocket transport.
package acnet

import (
	"bytes"
	"context"
	"crypto/tls"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fnal-controls/acnet-go/internal/dispatch"
	"github.com/fnal-controls/acnet-go/internal/transport"
	"github.com/fnal-controls/acnet-go/internal/wire"
	"github.com/fnal-controls/acnet-go/rad50"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// DefaultURL is the gateway endpoint historically used in production.
const DefaultURL = "wss://acnet-gateway.fnal.gov:443/acnet-ws-test"

const reconnectDelay = 5 * time.Second

// State is a connection lifecycle transition published on the
// Connection's state-change channel.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "Connecting"
	case StateConnected:
		return "Connected"
	default:
		return "Disconnected"
	}
}

// ErrClosed is returned by operations attempted after Close.
type ErrClosed struct{}

func (ErrClosed) Error() string { return "acnet: connection closed" }

// Config supplies everything an embedding application configures about
// a Connection. The zero value dials DefaultURL with no TLS overrides
// and a nop logger.
type Config struct {
	URL       string
	TLSConfig *tls.Config
	Log       zerolog.Logger
}

func (c Config) url() string {
	if c.URL == "" {
		return DefaultURL
	}
	return c.URL
}

// connCtx is the resolved connection context: the handle assigned by
// the gateway's connect-ack, and the transport it rides on. It is
// replaced wholesale on every reconnect.
type connCtx struct {
	handle uint32
	tr     *transport.Transport
}

// Connection is a single multiplexed session with an ACNET gateway. It
// reconnects automatically on transport loss and serializes all
// dispatcher mutation behind one mutex, never held across I/O.
type Connection struct {
	cfg  Config
	log  zerolog.Logger
	disp *dispatch.Dispatcher

	mu      sync.Mutex
	ctx     *connCtx
	waiters []chan *connCtx
	closed  bool

	state    int32 // atomic State
	stateSub sync.Mutex
	subs     []chan State

	done chan struct{}
}

// NewConnection starts the connect loop in the background and returns
// immediately; callers observe readiness via awaitContext (internally)
// or by subscribing to state changes with Subscribe.
func NewConnection(cfg Config) *Connection {
	c := &Connection{
		cfg:  cfg,
		log:  cfg.Log,
		disp: dispatch.New(cfg.Log),
		done: make(chan struct{}),
	}
	go c.connectLoop()
	return c
}

// Subscribe returns a channel receiving subsequent state transitions.
// The channel buffers 8 transitions; a transition published while the
// buffer is full is dropped for that subscriber. The channel is never
// closed by Connection; callers should read it from a dedicated
// goroutine and stop when Close fires.
func (c *Connection) Subscribe() <-chan State {
	ch := make(chan State, 8)
	c.stateSub.Lock()
	c.subs = append(c.subs, ch)
	c.stateSub.Unlock()
	return ch
}

func (c *Connection) setState(s State) {
	atomic.StoreInt32(&c.state, int32(s))
	c.stateSub.Lock()
	defer c.stateSub.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- s:
		default:
		}
	}
}

// CurrentState returns a snapshot of the connection's lifecycle state.
func (c *Connection) CurrentState() State {
	return State(atomic.LoadInt32(&c.state))
}

func (c *Connection) connectLoop() {
	delay := time.Duration(0)
	for {
		select {
		case <-c.done:
			return
		case <-time.After(delay):
		}
		delay = reconnectDelay

		c.setState(StateConnecting)
		ctx, err := c.dialOnce()
		if err != nil {
			c.log.Warn().Err(err).Msg("acnet: connect attempt failed")
			c.setState(StateDisconnected)
			continue
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			ctx.tr.Close()
			c.setState(StateDisconnected)
			return
		}
		c.ctx = ctx
		c.setState(StateConnected)
		waiters := c.waiters
		c.waiters = nil
		c.mu.Unlock()
		for _, w := range waiters {
			w <- ctx
			close(w)
		}

		c.log.Info().Uint32("handle", ctx.handle).Msg("acnet: connected")

		c.runUntilDisconnect(ctx)
		c.setState(StateDisconnected)

		c.mu.Lock()
		c.ctx = nil
		c.mu.Unlock()

		snapshot := c.disp.DrainCommands()
		for _, sink := range snapshot {
			sink(wire.NackDisconnect)
		}
	}
}

func (c *Connection) dialOnce() (*connCtx, error) {
	dialCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tr, err := transport.Dial(dialCtx, c.cfg.url(), c.cfg.TLSConfig)
	if err != nil {
		return nil, errors.Wrap(err, "acnet: dial")
	}

	ackCh := make(chan []byte, 1)
	c.disp.PushCommand(func(inner []byte) { ackCh <- inner })
	if err := tr.Send(wire.BuildConnect()); err != nil {
		tr.Close()
		c.disp.DrainCommands() // the pushed sink will never be acked now
		return nil, errors.Wrap(err, "acnet: send connect command")
	}

	deadline := time.After(10 * time.Second)
	for {
		select {
		case frame, ok := <-tr.Frames():
			if !ok {
				c.disp.DrainCommands()
				return nil, errors.Wrap(<-tr.Done(), "acnet: transport closed awaiting connect-ack")
			}
			c.disp.HandleFrame(frame)
		case inner := <-ackCh:
			handle := wire.InnerHandle(inner)
			return &connCtx{handle: handle, tr: tr}, nil
		case err := <-tr.Done():
			c.disp.DrainCommands()
			return nil, errors.Wrap(err, "acnet: transport closed awaiting connect-ack")
		case <-deadline:
			tr.Close()
			c.disp.DrainCommands()
			return nil, errors.New("acnet: timed out awaiting connect-ack")
		}
	}
}

// runUntilDisconnect pumps frames from the transport into the
// dispatcher until the transport reports it is done.
func (c *Connection) runUntilDisconnect(ctx *connCtx) {
	for {
		select {
		case frame, ok := <-ctx.tr.Frames():
			if !ok {
				<-ctx.tr.Done()
				return
			}
			c.disp.HandleFrame(frame)
		case <-ctx.tr.Done():
			return
		}
	}
}

// awaitContext blocks until a connection is established, ctx is
// cancelled, or the Connection is closed.
func (c *Connection) awaitContext(ctx context.Context) (*connCtx, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed{}
	}
	if c.ctx != nil {
		cc := c.ctx
		c.mu.Unlock()
		return cc, nil
	}
	w := make(chan *connCtx, 1)
	c.waiters = append(c.waiters, w)
	c.mu.Unlock()

	select {
	case cc := <-w:
		return cc, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		return nil, ErrClosed{}
	}
}

// Close tears down the connection and its transport permanently. No
// further reconnection attempts occur after Close.
func (c *Connection) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	ctx := c.ctx
	c.mu.Unlock()

	close(c.done)
	if ctx != nil {
		return ctx.tr.Close()
	}
	return nil
}

// Handle awaits the connection and returns its gateway-assigned
// handle as a RAD50-decoded string.
func (c *Connection) Handle(ctx context.Context) (string, error) {
	cc, err := c.awaitContext(ctx)
	if err != nil {
		return "", err
	}
	return rad50.Decode(cc.handle), nil
}

// GetNodeAddress resolves name to its numeric trunk/node address,
// fast-pathing "LOCAL" to 0. It raises on non-good status.
func (c *Connection) GetNodeAddress(ctx context.Context, name string) (uint16, error) {
	if name == "LOCAL" {
		return 0, nil
	}

	cc, err := c.awaitContext(ctx)
	if err != nil {
		return 0, err
	}

	ackCh := make(chan []byte, 1)
	if err := c.sendCommandOn(cc, wire.BuildNodeNameToAddr(cc.handle, rad50.Encode(name)), func(inner []byte) { ackCh <- inner }); err != nil {
		return 0, err
	}

	inner, err := awaitValue(ctx, ackCh, cc.tr)
	if err != nil {
		return 0, err
	}
	if isDisconnectSentinel(inner) {
		return 0, statusDisconnect
	}
	if len(inner) < 4 {
		return 0, StatusBug
	}
	if status := Status(wire.InnerStatus(inner)); !status.IsGood() {
		return 0, status
	}
	if len(inner) < 6 {
		return 0, StatusBug
	}
	return wire.InnerAddr(inner), nil
}

// GetNodeName resolves addr to its symbolic node name, fast-pathing 0
// to "LOCAL". It raises on non-good status.
func (c *Connection) GetNodeName(ctx context.Context, addr uint16) (string, error) {
	if addr == 0 {
		return "LOCAL", nil
	}

	cc, err := c.awaitContext(ctx)
	if err != nil {
		return "", err
	}

	ackCh := make(chan []byte, 1)
	if err := c.sendCommandOn(cc, wire.BuildAddrToNodeName(cc.handle, addr), func(inner []byte) { ackCh <- inner }); err != nil {
		return "", err
	}

	inner, err := awaitValue(ctx, ackCh, cc.tr)
	if err != nil {
		return "", err
	}
	if isDisconnectSentinel(inner) {
		return "", statusDisconnect
	}
	if len(inner) < 4 {
		return "", StatusBug
	}
	status := Status(wire.InnerStatus(inner))
	if !status.IsGood() {
		return "", status
	}
	if len(inner) < 8 {
		return "", StatusBug
	}
	return rad50.Decode(wire.InnerRad50Name(inner)), nil
}

// GetLocalNode resolves and returns the name of the node the gateway
// itself runs on.
func (c *Connection) GetLocalNode(ctx context.Context) (string, error) {
	cc, err := c.awaitContext(ctx)
	if err != nil {
		return "", err
	}

	ackCh := make(chan []byte, 1)
	if err := c.sendCommandOn(cc, wire.BuildLocalNode(cc.handle), func(inner []byte) { ackCh <- inner }); err != nil {
		return "", err
	}

	inner, err := awaitValue(ctx, ackCh, cc.tr)
	if err != nil {
		return "", err
	}
	if isDisconnectSentinel(inner) {
		return "", statusDisconnect
	}
	if len(inner) < 4 {
		return "", StatusBug
	}
	status := Status(wire.InnerStatus(inner))
	if !status.IsGood() {
		return "", status
	}
	if len(inner) < 6 {
		return "", StatusBug
	}
	return c.GetNodeName(ctx, wire.InnerAddr(inner))
}

// sendCommandOn pushes sink onto the dispatcher's FIFO command queue
// and writes req over cc's transport. sink runs synchronously on the
// connection's frame-processing goroutine when the ack arrives, so any
// req_table registration it performs happens-before the next inbound
// frame is processed.
func (c *Connection) sendCommandOn(cc *connCtx, req []byte, sink dispatch.CommandSink) error {
	c.disp.PushCommand(sink)
	return cc.tr.Send(req)
}

// isDisconnectSentinel reports whether inner is the dispatcher's
// synthetic NACK fed to a pending command's sink when the transport
// drops before the gateway's real acknowledgement arrives. Its errCode
// (1) is technically non-negative, so a naive IsGood() check would
// read it as a partial success rather than the disconnect it signals —
// callers must check for it before interpreting the frame's status.
func isDisconnectSentinel(inner []byte) bool {
	return bytes.Equal(inner, wire.NackDisconnect)
}

// awaitValue waits for a value delivered on ch or for ctx to be
// cancelled, whichever comes first. It does not read the transport's
// Done event: the connect loop is its only reader, and on disconnect
// it resolves every pending command sink with the NACK-disconnect
// sentinel, which then arrives here on ch.
func awaitValue[T any](ctx context.Context, ch <-chan T, _ *transport.Transport) (T, error) {
	var zero T
	select {
	case v := <-ch:
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
