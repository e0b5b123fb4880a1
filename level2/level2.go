// Package level2 implements ACNET's Level-II diagnostic sub-protocol:
// a handful of well-known requests every node's ACNET@<node> service
// answers, used here as a representative consumer of the connection
// and dispatch engine.
package level2

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/fnal-controls/acnet-go"
	"github.com/fnal-controls/acnet-go/rad50"
)

// acnetService is the well-known task name every Level-II request
// targets.
const acnetService = "ACNET"

func target(node string) string {
	return acnetService + "@" + node
}

// Ping reports whether node's ACNET service answered with good status
// and the expected two-byte reply within 100ms.
func Ping(ctx context.Context, conn *acnet.Connection, node string) bool {
	r := conn.RequestReply(ctx, target(node), []byte{0x00, 0x00}, 100*time.Millisecond)
	return r.Status.IsGood() && len(r.Payload) == 2
}

// GetVersions returns the gateway's three version components formatted
// as "hi.lo" strings, raising on non-good status.
func GetVersions(ctx context.Context, conn *acnet.Connection, node string) ([3]string, error) {
	var out [3]string
	r := conn.RequestReply(ctx, target(node), []byte{0x03, 0x00}, 100*time.Millisecond)
	if !r.Status.IsGood() {
		return out, r.Status
	}
	if len(r.Payload) < 6 {
		return out, acnet.StatusTruncReply
	}
	for i := 0; i < 3; i++ {
		v := binary.LittleEndian.Uint16(r.Payload[i*2:])
		out[i] = fmt.Sprintf("%d.%d", v/256, v%256)
	}
	return out, nil
}

// GetTaskId resolves task's numeric task id on node.
func GetTaskId(ctx context.Context, conn *acnet.Connection, task, node string) (uint16, error) {
	req := make([]byte, 0, 6)
	req = append(req, 0x01, 0x00)
	nameBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(nameBuf, rad50.Encode(task))
	req = append(req, nameBuf...)

	r := conn.RequestReply(ctx, target(node), req, 200*time.Millisecond)
	if !r.Status.IsGood() {
		return 0, r.Status
	}
	if len(r.Payload) < 2 {
		return 0, acnet.StatusTruncReply
	}
	return binary.LittleEndian.Uint16(r.Payload), nil
}

// GetTaskName resolves the RAD50-decoded name of task id on node.
func GetTaskName(ctx context.Context, conn *acnet.Connection, id uint16, node string) (string, error) {
	var req []byte
	if id < 256 {
		req = []byte{0x02, byte(id)}
	} else {
		req = []byte{0x12, 0x00, byte(id / 256), byte(id % 256)}
	}

	r := conn.RequestReply(ctx, target(node), req, 500*time.Millisecond)
	if !r.Status.IsGood() {
		return "", r.Status
	}
	if len(r.Payload) < 4 {
		return "", acnet.StatusTruncReply
	}
	return rad50.Decode(binary.LittleEndian.Uint32(r.Payload)), nil
}

// GetTaskIp resolves the IPv4 address of task id on node.
func GetTaskIp(ctx context.Context, conn *acnet.Connection, id uint16, node string) (uint32, error) {
	req := []byte{0x13, 0x00, byte(id), byte(id >> 8)}
	r := conn.RequestReply(ctx, target(node), req, 200*time.Millisecond)
	if !r.Status.IsGood() {
		return 0, r.Status
	}
	if len(r.Payload) != 4 {
		return 0, acnet.StatusLevel2
	}
	return binary.LittleEndian.Uint32(r.Payload), nil
}

// TaskInfo is one task's traffic counters as reported by
// GetTaskInfo.
type TaskInfo struct {
	Handle string
	UsmXmt uint16
	ReqXmt uint16
	RpyXmt uint16
	UsmRcv uint16
	ReqRcv uint16
	RpyRcv uint16
}

const taskInfoRecordSize = 18
const taskInfoPrefixSize = 8

// GetTaskInfo returns every task's traffic counters on node, keyed by
// task id. Pass reset=true to have the gateway zero its counters after
// reporting them.
func GetTaskInfo(ctx context.Context, conn *acnet.Connection, node string, reset bool) (map[uint16]TaskInfo, error) {
	flag := byte(0)
	if reset {
		flag = 1
	}
	r := conn.RequestReply(ctx, target(node), []byte{0x07, flag}, 500*time.Millisecond)
	if !r.Status.IsGood() {
		return nil, r.Status
	}
	if len(r.Payload) < taskInfoPrefixSize {
		return nil, acnet.StatusTruncReply
	}

	body := r.Payload[taskInfoPrefixSize:]
	if len(body)%taskInfoRecordSize != 0 {
		return nil, acnet.StatusTruncReply
	}

	out := make(map[uint16]TaskInfo, len(body)/taskInfoRecordSize)
	for off := 0; off < len(body); off += taskInfoRecordSize {
		rec := body[off : off+taskInfoRecordSize]
		id := binary.LittleEndian.Uint16(rec[0:2])
		out[id] = TaskInfo{
			Handle: rad50.Decode(binary.LittleEndian.Uint32(rec[2:6])),
			UsmXmt: binary.LittleEndian.Uint16(rec[6:8]),
			ReqXmt: binary.LittleEndian.Uint16(rec[8:10]),
			RpyXmt: binary.LittleEndian.Uint16(rec[10:12]),
			UsmRcv: binary.LittleEndian.Uint16(rec[12:14]),
			ReqRcv: binary.LittleEndian.Uint16(rec[14:16]),
			RpyRcv: binary.LittleEndian.Uint16(rec[16:18]),
		}
	}
	return out, nil
}
