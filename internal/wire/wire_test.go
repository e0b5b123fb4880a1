package wire

import (
	"testing"
)

func TestBuildConnectShape(t *testing.T) {
	buf := BuildConnect()
	if len(buf) != 18 {
		t.Fatalf("BuildConnect() length = %d, want 18", len(buf))
	}
	if buf[0] != 0x00 || buf[1] != 0x01 {
		t.Fatalf("BuildConnect() kind = % x, want 00 01", buf[0:2])
	}
	if buf[2] != 0x00 || buf[3] != 0x01 {
		t.Fatalf("BuildConnect() reserved = % x, want 00 01", buf[2:4])
	}
	for _, b := range buf[4:] {
		if b != 0 {
			t.Fatalf("BuildConnect() expected all-zero tail, got % x", buf[4:])
		}
	}
}

func TestBuildCancelRequest(t *testing.T) {
	buf := BuildCancelRequest(0x1234, 0x0507)
	if len(buf) != 10 {
		t.Fatalf("len = %d, want 10", len(buf))
	}
	if got := uint16(buf[8]) | uint16(buf[9])<<8; got != 0x0507 {
		t.Fatalf("request-id = %#x, want %#x", got, 0x0507)
	}
}

func TestCommandAckRouting(t *testing.T) {
	pkt := []byte{0x00, 0x02, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	if !IsCommandAck(pkt) {
		t.Fatal("expected command-ack")
	}
	inner := CommandAckInner(pkt)
	if InnerStatus(inner) != 0 {
		t.Fatalf("status = %d, want 0", InnerStatus(inner))
	}
}

func TestNackDisconnectDecodesToDEFacility(t *testing.T) {
	status := InnerStatus(NackDisconnect)
	facility := uint8(status & 0xff)
	errCode := int8(status >> 8)
	if facility != 0xde || errCode != 1 {
		t.Fatalf("NackDisconnect decoded to facility=%#x errCode=%d, want facility=0xde errCode=1", facility, errCode)
	}
}

func TestParseReplyLastFlag(t *testing.T) {
	pkt := make([]byte, replyHeaderSize+3)
	pkt[0], pkt[1] = 0x00, 0x04 // flags = 4 (last), big-endian
	pkt[2], pkt[3] = 0x00, 0x00 // status = 0
	pkt[4], pkt[5] = 0x02, 0x01 // sender, big-endian
	pkt[18], pkt[19] = 0x07, 0x00 // request-id, little-endian = 7
	copy(pkt[replyHeaderSize:], []byte{1, 2, 3})

	if !IsNetworkReply(pkt) {
		t.Fatal("expected network reply")
	}
	rf := ParseReply(pkt)
	if rf.Flags != ReplyFlagLast {
		t.Fatalf("flags = %d, want %d", rf.Flags, ReplyFlagLast)
	}
	if !IsLast(rf.Flags) {
		t.Fatal("IsLast should be true")
	}
	if rf.RequestID != 7 {
		t.Fatalf("request-id = %d, want 7", rf.RequestID)
	}
	if rf.Sender != 0x0201 {
		t.Fatalf("sender = %#x, want 0x0201", rf.Sender)
	}
	if len(rf.Payload) != 3 {
		t.Fatalf("payload length = %d, want 3", len(rf.Payload))
	}
}

func TestIsCommandAckVsNetworkReplyDiscrimination(t *testing.T) {
	cmdAck := []byte{0x00, 0x02, 0, 0, 0, 0, 0, 0, 0, 0}
	if !IsCommandAck(cmdAck) || IsNetworkReply(cmdAck) {
		t.Fatal("a command-ack frame must not also classify as a network reply")
	}
}
