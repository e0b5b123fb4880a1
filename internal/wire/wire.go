// Package wire builds and parses the binary command and reply frames
// exchanged with the ACNET gateway. It knows nothing about connection
// lifecycle or request bookkeeping — it only turns Go values into bytes
// and back.
package wire

import "encoding/binary"

// Command kinds, the first field of every outgoing command header.
const (
	CmdConnect        = uint16(0x0001)
	CmdCancelRequest  = uint16(0x0008)
	CmdNodeNameToAddr = uint16(0x000b)
	CmdAddrToNodeName = uint16(0x000c)
	CmdLocalNode      = uint16(0x000d)
	CmdSendRequest    = uint16(0x0012)
)

// Reply flag values, carried in the big-endian flags field that opens
// the 20-byte network reply header (so on the wire as "00 04" / "00 05").
const (
	ReplyFlagLast = uint16(4)
	ReplyFlagMore = uint16(5)
)

// NackDisconnect is the synthetic command-ack inner frame ("00 00 DE 01")
// the connection manager feeds to pending command sinks when the
// transport drops before the gateway's real acknowledgement arrives. It
// decodes under InnerStatus to facility 0xDE, errCode 1.
var NackDisconnect = []byte{0x00, 0x00, 0xde, 0x01}

// commandHeaderSize is the length of the kind+reserved+handle prefix on
// every outgoing command frame.
const commandHeaderSize = 8

func appendHeader(buf []byte, kind uint16, handle uint32) []byte {
	buf = binary.BigEndian.AppendUint16(buf, kind)
	buf = binary.BigEndian.AppendUint16(buf, 1) // reserved word
	buf = binary.BigEndian.AppendUint32(buf, handle)
	return buf
}

func zeroPad(buf []byte, n int) []byte {
	for i := 0; i < n; i++ {
		buf = append(buf, 0)
	}
	return buf
}

// BuildConnect returns the 18-byte Connect command. The gateway assigns
// the handle, so it travels as zero; the remaining ten bytes are the
// command's zero tail.
func BuildConnect() []byte {
	buf := make([]byte, 0, commandHeaderSize+10)
	buf = appendHeader(buf, CmdConnect, 0)
	buf = zeroPad(buf, 10)
	return buf
}

// BuildCancelRequest returns the Cancel-request command for requestID.
func BuildCancelRequest(handle uint32, requestID uint16) []byte {
	buf := make([]byte, 0, commandHeaderSize+2)
	buf = appendHeader(buf, CmdCancelRequest, handle)
	buf = binary.LittleEndian.AppendUint16(buf, requestID)
	return buf
}

// BuildNodeNameToAddr returns the command resolving a RAD50-packed node
// name to its numeric address.
func BuildNodeNameToAddr(handle uint32, name uint32) []byte {
	buf := make([]byte, 0, commandHeaderSize+8+4)
	buf = appendHeader(buf, CmdNodeNameToAddr, handle)
	buf = zeroPad(buf, 8)
	buf = binary.LittleEndian.AppendUint32(buf, name)
	return buf
}

// BuildAddrToNodeName returns the command resolving a numeric node
// address to its RAD50-packed name.
func BuildAddrToNodeName(handle uint32, addr uint16) []byte {
	buf := make([]byte, 0, commandHeaderSize+8+2)
	buf = appendHeader(buf, CmdAddrToNodeName, handle)
	buf = zeroPad(buf, 8)
	buf = binary.BigEndian.AppendUint16(buf, addr)
	return buf
}

// BuildLocalNode returns the command asking the gateway for the local
// node's address.
func BuildLocalNode(handle uint32) []byte {
	buf := make([]byte, 0, commandHeaderSize+8)
	buf = appendHeader(buf, CmdLocalNode, handle)
	buf = zeroPad(buf, 8)
	return buf
}

// BuildSendRequest returns the command issuing a request to a remote
// task. multi selects streaming (multiple-reply) semantics.
func BuildSendRequest(handle uint32, task uint32, addr uint16, multi bool, timeoutMs uint32, payload []byte) []byte {
	buf := make([]byte, 0, commandHeaderSize+8+4+2+2+4+len(payload))
	buf = appendHeader(buf, CmdSendRequest, handle)
	buf = zeroPad(buf, 8)
	buf = binary.LittleEndian.AppendUint32(buf, task)
	buf = binary.BigEndian.AppendUint16(buf, addr)
	multiFlag := uint16(0)
	if multi {
		multiFlag = 1
	}
	buf = binary.LittleEndian.AppendUint16(buf, multiFlag)
	buf = binary.LittleEndian.AppendUint32(buf, timeoutMs)
	buf = append(buf, payload...)
	return buf
}

// IsCommandAck reports whether pkt is a command-ack frame ("00 02" lead).
func IsCommandAck(pkt []byte) bool {
	return len(pkt) >= 2 && pkt[0] == 0x00 && pkt[1] == 0x02
}

// CommandAckInner strips the two-byte command-ack marker, returning the
// inner frame a pending command sink parses.
func CommandAckInner(pkt []byte) []byte {
	return pkt[2:]
}

// InnerResultKind returns the result-kind field at the start of a
// command-ack inner frame.
func InnerResultKind(inner []byte) uint16 {
	return binary.LittleEndian.Uint16(inner[0:2])
}

// InnerStatus returns the status field of a command-ack inner frame.
func InnerStatus(inner []byte) int16 {
	return int16(binary.LittleEndian.Uint16(inner[2:4]))
}

// InnerHandle returns the connect-ack's assigned handle.
func InnerHandle(inner []byte) uint32 {
	return binary.BigEndian.Uint32(inner[5:9])
}

// InnerAcceptRequestID returns the request-id assigned by an accept-ack
// (the command-ack for a send-request command).
func InnerAcceptRequestID(inner []byte) uint16 {
	return binary.LittleEndian.Uint16(inner[6:8])
}

// InnerAddr returns the trunk/node address carried by a node-name⇄address
// lookup or local-node ack.
func InnerAddr(inner []byte) uint16 {
	return binary.BigEndian.Uint16(inner[4:6])
}

// InnerRad50Name returns the RAD50-packed node name carried by an
// address→name lookup ack.
func InnerRad50Name(inner []byte) uint32 {
	return binary.BigEndian.Uint32(inner[4:8])
}

// replyHeaderSize is the length of the fixed portion of a network reply
// frame, before the payload.
const replyHeaderSize = 20

// ReplyFrame is a parsed network reply frame.
type ReplyFrame struct {
	Flags     uint16
	Status    int16
	Sender    uint16
	RequestID uint16
	Payload   []byte
}

// IsNetworkReply reports whether pkt is long enough to hold a network
// reply header and isn't a command-ack.
func IsNetworkReply(pkt []byte) bool {
	return len(pkt) >= replyHeaderSize && !(len(pkt) >= 2 && pkt[1] == 0x02)
}

// ParseReply decodes a network reply frame. Callers must first check
// IsNetworkReply (or an equivalent length check).
func ParseReply(pkt []byte) ReplyFrame {
	return ReplyFrame{
		Flags:     binary.BigEndian.Uint16(pkt[0:2]),
		Status:    int16(binary.LittleEndian.Uint16(pkt[2:4])),
		Sender:    binary.BigEndian.Uint16(pkt[4:6]),
		RequestID: binary.LittleEndian.Uint16(pkt[18:20]),
		Payload:   pkt[replyHeaderSize:],
	}
}

// IsLast reports whether flags marks the terminal reply of a request.
func IsLast(flags uint16) bool {
	return flags == ReplyFlagLast
}
