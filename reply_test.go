package acnet_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fnal-controls/acnet-go"
	"github.com/fnal-controls/acnet-go/internal/wire"
	"github.com/fortytw2/leaktest"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requestGateway answers Connect and send-request commands, replaying a
// fixed script of reply payloads per request and tracking any
// cancel-request commands it receives.
type requestGateway struct {
	mu          sync.Mutex
	conn        *websocket.Conn
	nextReqID   uint16
	streamReply [][]byte // successive payloads, last one sent with flags=4
	singleReply []byte
	canceled    int32
	canceledID  uint16
}

func (g *requestGateway) serve(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	g.mu.Lock()
	g.conn = conn
	g.nextReqID = 1
	g.mu.Unlock()

	for {
		_, pkt, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if len(pkt) < 2 {
			continue
		}
		kind := uint16(pkt[0])<<8 | uint16(pkt[1])
		switch kind {
		case wire.CmdConnect:
			inner := make([]byte, 9)
			inner[8] = 1 // handle = 1
			conn.WriteMessage(websocket.BinaryMessage, append([]byte{0x00, 0x02}, inner...))
		case wire.CmdCancelRequest:
			atomic.StoreInt32(&g.canceled, 1)
			g.mu.Lock()
			g.canceledID = uint16(pkt[8]) | uint16(pkt[9])<<8
			g.mu.Unlock()
		case wire.CmdSendRequest:
			multiFlag := uint16(pkt[22]) | uint16(pkt[23])<<8

			g.mu.Lock()
			reqID := g.nextReqID
			g.nextReqID++
			g.mu.Unlock()

			acceptInner := make([]byte, 8)
			acceptInner[0] = 2
			acceptInner[6], acceptInner[7] = byte(reqID), byte(reqID>>8)
			conn.WriteMessage(websocket.BinaryMessage, append([]byte{0x00, 0x02}, acceptInner...))

			if multiFlag == 0 {
				conn.WriteMessage(websocket.BinaryMessage, replyFrame(reqID, true, g.singleReply))
				continue
			}
			for i, payload := range g.streamReply {
				last := i == len(g.streamReply)-1
				conn.WriteMessage(websocket.BinaryMessage, replyFrame(reqID, last, payload))
			}
		}
	}
}

func replyFrame(reqID uint16, last bool, payload []byte) []byte {
	frame := make([]byte, 20+len(payload))
	if last {
		frame[0], frame[1] = 0x00, 0x04
	} else {
		frame[0], frame[1] = 0x00, 0x05
	}
	frame[18], frame[19] = byte(reqID), byte(reqID>>8)
	copy(frame[20:], payload)
	return frame
}

func newRequestTestConnection(t *testing.T, gw *requestGateway) (*acnet.Connection, func()) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(gw.serve))
	conn := acnet.NewConnection(acnet.Config{URL: "ws" + strings.TrimPrefix(srv.URL, "http")})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := conn.Handle(ctx)
	require.NoError(t, err)
	return conn, func() {
		conn.Close()
		srv.Close()
	}
}

func TestRequestReplySingle(t *testing.T) {
	defer leaktest.Check(t)()

	gw := &requestGateway{singleReply: []byte{0xAA, 0xBB}}
	conn, cleanup := newRequestTestConnection(t, gw)
	defer cleanup()

	r := conn.RequestReply(context.Background(), "TASK@#261", []byte{1, 2, 3}, time.Second)
	require.True(t, r.Status.IsGood())
	assert.Equal(t, []byte{0xAA, 0xBB}, r.Payload)
}

func TestRequestReplyBadTaskAddrNeverRaises(t *testing.T) {
	gw := &requestGateway{}
	conn, cleanup := newRequestTestConnection(t, gw)
	defer cleanup()

	r := conn.RequestReply(context.Background(), "no-at-sign", nil, time.Second)
	assert.Equal(t, acnet.StatusInvArg, r.Status)
	assert.Equal(t, uint16(0), r.Sender)
	assert.Empty(t, r.Payload)
}

func TestRequestReplyStreamDeliversEachReplyAndCloses(t *testing.T) {
	defer leaktest.Check(t)()

	gw := &requestGateway{streamReply: [][]byte{{1}, {2}, {3}}}
	conn, cleanup := newRequestTestConnection(t, gw)
	defer cleanup()

	stream := conn.RequestReplyStream(context.Background(), "TASK@#261", nil, time.Second)

	var got []byte
	for r := range stream.Replies() {
		require.True(t, r.Status.IsGood())
		got = append(got, r.Payload...)
	}
	assert.Equal(t, []byte{1, 2, 3}, got)
}

func TestRequestReplyStreamCancelSendsCancelRequest(t *testing.T) {
	defer leaktest.Check(t)()

	// A multi-reply stream short enough to stay well under the reply
	// channel's buffer, so cancelling after the first reply can't block
	// the dispatcher on a full channel no one is draining anymore.
	reply := make([][]byte, 5)
	for i := range reply {
		reply[i] = []byte{byte(i)}
	}
	gw := &requestGateway{streamReply: reply}
	conn, cleanup := newRequestTestConnection(t, gw)
	defer cleanup()

	stream := conn.RequestReplyStream(context.Background(), "TASK@#261", nil, time.Second)

	<-stream.Replies() // take one reply, then cancel before the stream drains
	require.NoError(t, stream.Cancel())

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&gw.canceled) == 1
	}, time.Second, 10*time.Millisecond, "expected a Cancel-request command to reach the gateway")
}
