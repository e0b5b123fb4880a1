package acnet

import (
	"context"
	"time"

	"github.com/fnal-controls/acnet-go/internal/dispatch"
	"github.com/fnal-controls/acnet-go/internal/wire"
)

// Reply is one (sender, status, payload) triple delivered for a
// request. Status carries the outcome; callers read it uniformly
// whether the reply is genuine or a synthetic pre-dispatch failure.
type Reply struct {
	Sender  uint16
	Status  Status
	Payload []byte
}

// ReplyStream delivers every reply of a streaming request in order,
// closing Replies() after the terminal reply. Cancel stops further
// deliveries but does not close Replies().
type ReplyStream struct {
	conn      *Connection
	handle    uint32
	requestID uint16
	replies   chan Reply
	canceled  bool
}

// Replies returns the channel of replies. It is closed once the
// terminal reply has been delivered.
func (s *ReplyStream) Replies() <-chan Reply {
	return s.replies
}

// Cancel removes the local request-table entry and sends a
// Cancel-request command to the gateway. Late-arriving replies for
// this request-id are silently discarded by the dispatcher.
func (s *ReplyStream) Cancel() error {
	if s.canceled {
		return nil
	}
	s.canceled = true
	s.conn.disp.CancelRequest(s.requestID)

	cc, err := s.conn.awaitContext(context.Background())
	if err != nil {
		return nil
	}
	return cc.tr.Send(wire.BuildCancelRequest(s.handle, s.requestID))
}

func singleSyntheticReply(status Status) Reply {
	return Reply{Sender: 0, Status: status, Payload: nil}
}

// RequestReply sends a single-reply request to task with timeout
// (carried to the gateway, which owns expiry). Address-parse and
// accept-ack failures never raise: they come back as a synthetic
// Reply so callers can always read Status uniformly.
func (c *Connection) RequestReply(ctx context.Context, task string, data []byte, timeout time.Duration) Reply {
	addr, taskCode, status := c.resolveRequestTarget(ctx, task)
	if status != StatusSuccess {
		return singleSyntheticReply(status)
	}

	cc, err := c.awaitContext(ctx)
	if err != nil {
		return singleSyntheticReply(StatusNotConnected)
	}

	replyCh := make(chan Reply, 1)
	acceptCh := make(chan Status, 1)
	var requestID uint16

	// This sink runs on the connection's frame-processing goroutine, so
	// the RegisterRequest below happens-before any later frame (in
	// particular the reply it is registered for) is processed — a
	// separate goroutine waiting on acceptCh before registering could
	// lose a reply that arrives immediately after the accept-ack.
	sink := func(inner []byte) {
		if isDisconnectSentinel(inner) {
			acceptCh <- statusDisconnect
			return
		}
		if len(inner) < 4 {
			acceptCh <- StatusBug
			return
		}
		acceptStatus := Status(wire.InnerStatus(inner))
		if !acceptStatus.IsGood() {
			acceptCh <- acceptStatus
			return
		}
		if len(inner) < 8 {
			acceptCh <- StatusBug
			return
		}
		requestID = wire.InnerAcceptRequestID(inner)
		c.disp.RegisterRequest(requestID, dispatch.OneShotSink(func(sender uint16, status int16, payload []byte) {
			replyCh <- Reply{Sender: sender, Status: Status(status), Payload: payload}
		}))
		acceptCh <- StatusSuccess
	}

	if err := c.sendCommandOn(cc, wire.BuildSendRequest(cc.handle, taskCode, addr, false, uint32(timeout/time.Millisecond), data), sink); err != nil {
		return singleSyntheticReply(StatusNotConnected)
	}

	acceptStatus, err := awaitValue(ctx, acceptCh, cc.tr)
	if err != nil {
		return singleSyntheticReply(StatusNotConnected)
	}
	if acceptStatus != StatusSuccess {
		return singleSyntheticReply(acceptStatus)
	}

	select {
	case r := <-replyCh:
		return r
	case <-ctx.Done():
		c.disp.CancelRequest(requestID)
		return singleSyntheticReply(StatusReqTmo)
	}
}

// RequestReplyStream sends a multiple-reply request to task. Every
// reply the gateway emits is forwarded to the returned stream until
// the terminal reply or Cancel.
func (c *Connection) RequestReplyStream(ctx context.Context, task string, data []byte, timeout time.Duration) *ReplyStream {
	addr, taskCode, status := c.resolveRequestTarget(ctx, task)
	if status != StatusSuccess {
		return singleFailureStream(status)
	}

	cc, err := c.awaitContext(ctx)
	if err != nil {
		return singleFailureStream(StatusNotConnected)
	}

	acceptCh := make(chan Status, 1)
	stream := &ReplyStream{conn: c, handle: cc.handle, replies: make(chan Reply, 16)}

	sink := func(inner []byte) {
		if isDisconnectSentinel(inner) {
			acceptCh <- statusDisconnect
			return
		}
		if len(inner) < 4 {
			acceptCh <- StatusBug
			return
		}
		acceptStatus := Status(wire.InnerStatus(inner))
		if !acceptStatus.IsGood() {
			acceptCh <- acceptStatus
			return
		}
		if len(inner) < 8 {
			acceptCh <- StatusBug
			return
		}
		stream.requestID = wire.InnerAcceptRequestID(inner)
		c.disp.RegisterRequest(stream.requestID, dispatch.StreamSink(func(sender uint16, status int16, payload []byte, terminal bool) {
			stream.replies <- Reply{Sender: sender, Status: Status(status), Payload: payload}
			if terminal {
				close(stream.replies)
			}
		}))
		acceptCh <- StatusSuccess
	}

	if err := c.sendCommandOn(cc, wire.BuildSendRequest(cc.handle, taskCode, addr, true, uint32(timeout/time.Millisecond), data), sink); err != nil {
		return singleFailureStream(StatusNotConnected)
	}

	acceptStatus, err := awaitValue(ctx, acceptCh, cc.tr)
	if err != nil {
		return singleFailureStream(StatusNotConnected)
	}
	if acceptStatus != StatusSuccess {
		return singleFailureStream(acceptStatus)
	}
	return stream
}

func singleFailureStream(status Status) *ReplyStream {
	ch := make(chan Reply, 1)
	ch <- singleSyntheticReply(status)
	close(ch)
	return &ReplyStream{replies: ch, canceled: true}
}

// resolveRequestTarget parses task and resolves its node to a numeric
// address, returning StatusSuccess on success or the failure status
// that should become a synthetic Reply.
func (c *Connection) resolveRequestTarget(ctx context.Context, task string) (addr uint16, taskCode uint32, status Status) {
	ta, err := ParseTaskAddr(task)
	if err != nil {
		return 0, 0, err.(Status)
	}
	if ta.NumericNode {
		return ta.Addr, ta.Task, StatusSuccess
	}
	resolved, err := c.GetNodeAddress(ctx, ta.Node)
	if err != nil {
		if s, ok := err.(Status); ok {
			return 0, 0, s
		}
		return 0, 0, StatusNotConnected
	}
	return resolved, ta.Task, StatusSuccess
}
