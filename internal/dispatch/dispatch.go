// Package dispatch correlates gateway command acknowledgements and
// request replies arriving interleaved on a single transport. It owns
// no I/O of its own: callers feed it inbound frames and it calls back
// into sinks they registered.
package dispatch

import (
	"fmt"
	"sync"

	"github.com/fnal-controls/acnet-go/internal/wire"
	"github.com/rs/zerolog"
)

// CommandSink receives the inner frame of the next command-ack in FIFO
// order. It is called at most once.
type CommandSink func(inner []byte)

// ReplySink receives replies for a single pending request.
//
// deliver reports whether the table entry should be removed now,
// regardless of the terminal flag — a single-reply request resolves
// and removes itself on the first reply it sees, while a streaming
// request only asks for removal once terminal is true.
type ReplySink interface {
	deliver(sender uint16, status int16, payload []byte, terminal bool) (removeNow bool)
}

// OneShotSink returns a ReplySink that hands the first reply it
// receives to fn and then asks to be removed from the table
// regardless of the terminal flag — the semantics requestReply needs.
func OneShotSink(fn func(sender uint16, status int16, payload []byte)) ReplySink {
	return &oneShotSink{fn: fn}
}

type oneShotSink struct {
	fn func(sender uint16, status int16, payload []byte)
}

func (s *oneShotSink) deliver(sender uint16, status int16, payload []byte, terminal bool) bool {
	s.fn(sender, status, payload)
	return true
}

// StreamSink returns a ReplySink that forwards every reply to fn and
// only asks for removal once the terminal flag is set — the semantics
// requestReplyStream needs.
func StreamSink(fn func(sender uint16, status int16, payload []byte, terminal bool)) ReplySink {
	return &streamSink{fn: fn}
}

type streamSink struct {
	fn func(sender uint16, status int16, payload []byte, terminal bool)
}

func (s *streamSink) deliver(sender uint16, status int16, payload []byte, terminal bool) bool {
	s.fn(sender, status, payload, terminal)
	return terminal
}

type errUnhandledFrame struct {
	reason string
}

func (e errUnhandledFrame) Error() string { return fmt.Sprintf("unhandled frame: %s", e.reason) }

// Dispatcher multiplexes one transport's inbound frames onto pending
// commands and pending requests. All of its state is guarded by a
// single mutex; HandleFrame never holds that mutex while invoking a
// sink.
type Dispatcher struct {
	log zerolog.Logger

	mu       sync.Mutex
	cmdQueue []CommandSink
	reqTable map[uint16]ReplySink
}

// New returns an empty Dispatcher.
func New(log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		log:      log,
		reqTable: make(map[uint16]ReplySink),
	}
}

// PushCommand enqueues sink to receive the next command-ack. Commands
// are acknowledged strictly in FIFO submission order, so callers must
// push before — or as part of — writing the corresponding frame.
func (d *Dispatcher) PushCommand(sink CommandSink) {
	d.mu.Lock()
	d.cmdQueue = append(d.cmdQueue, sink)
	d.mu.Unlock()
}

// RegisterRequest installs sink as the handler for replies carrying
// requestID. The gateway may reuse requestID once the entry is removed.
func (d *Dispatcher) RegisterRequest(requestID uint16, sink ReplySink) {
	d.mu.Lock()
	d.reqTable[requestID] = sink
	d.mu.Unlock()
}

// CancelRequest removes requestID from the table if present, reporting
// whether it was there. Used when a streaming caller cancels — the
// gateway-side Cancel-request command is sent by the caller separately.
func (d *Dispatcher) CancelRequest(requestID uint16) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.reqTable[requestID]; ok {
		delete(d.reqTable, requestID)
		return true
	}
	return false
}

// DrainCommands atomically empties the command queue and returns its
// former contents, for the connection manager to fail with the
// disconnect sentinel. Pending requests are deliberately left alone:
// an already-accepted request keeps its table entry and relies on the
// gateway-side timeout.
func (d *Dispatcher) DrainCommands() []CommandSink {
	d.mu.Lock()
	defer d.mu.Unlock()
	snap := d.cmdQueue
	d.cmdQueue = nil
	return snap
}

// HandleFrame routes one inbound frame per the gateway's two wire
// shapes: command-acks go to the head of the command queue in FIFO
// order, network replies go to the pending request they name.
func (d *Dispatcher) HandleFrame(pkt []byte) {
	if len(pkt) < 2 || pkt[0] != 0x00 {
		d.log.Warn().Err(errUnhandledFrame{"short or malformed lead byte"}).Int("len", len(pkt)).Msg("dropping frame")
		return
	}

	if pkt[1] == 0x02 {
		d.deliverCommandAck(pkt)
		return
	}

	if len(pkt) >= 20 {
		d.deliverReply(pkt)
		return
	}

	d.log.Warn().Err(errUnhandledFrame{"undersized network reply"}).Int("len", len(pkt)).Msg("dropping frame")
}

func (d *Dispatcher) deliverCommandAck(pkt []byte) {
	d.mu.Lock()
	if len(d.cmdQueue) == 0 {
		d.mu.Unlock()
		d.log.Error().Msg("command-ack received with no pending command")
		return
	}
	sink := d.cmdQueue[0]
	d.cmdQueue = d.cmdQueue[1:]
	d.mu.Unlock()

	sink(wire.CommandAckInner(pkt))
}

func (d *Dispatcher) deliverReply(pkt []byte) {
	rf := wire.ParseReply(pkt)
	terminal := wire.IsLast(rf.Flags)

	d.mu.Lock()
	sink, ok := d.reqTable[rf.RequestID]
	if ok && terminal {
		delete(d.reqTable, rf.RequestID)
	}
	d.mu.Unlock()

	if !ok {
		d.log.Debug().Uint16("request_id", rf.RequestID).Msg("reply for unknown or already-terminated request")
		return
	}

	if removeNow := sink.deliver(rf.Sender, rf.Status, rf.Payload, terminal); removeNow && !terminal {
		d.mu.Lock()
		delete(d.reqTable, rf.RequestID)
		d.mu.Unlock()
	}
}
