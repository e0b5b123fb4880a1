package acnet

import "fmt"

// Status is ACNET's signed 16-bit outcome code: errCode in the high
// byte, facility in the low byte. It implements error directly — every
// gateway-reported, protocol, truncation, and address-parsing failure
// this package raises is a Status value from the catalog below, not a
// distinct Go error type.
type Status int16

// Raw returns the underlying 16-bit value, errCode*256+facility.
func (s Status) Raw() int16 { return int16(s) }

// Facility returns the low byte identifying which subsystem produced
// the status.
func (s Status) Facility() uint8 { return uint8(int16(s) & 0xff) }

// ErrCode returns the signed high byte.
func (s Status) ErrCode() int8 { return int8(int16(s) >> 8) }

// IsSuccess reports whether errCode is exactly zero.
func (s Status) IsSuccess() bool { return s.ErrCode() == 0 }

// IsGood reports whether errCode is non-negative. Positive codes are
// informational (e.g. end-of-multiple-reply), not failures.
func (s Status) IsGood() bool { return s.ErrCode() >= 0 }

// IsBad reports whether errCode is negative.
func (s Status) IsBad() bool { return s.ErrCode() < 0 }

// Compare orders s against other by (facility, errCode), returning a
// negative, zero, or positive value the way sort comparators expect.
func (s Status) Compare(other Status) int {
	if d := int(s.Facility()) - int(other.Facility()); d != 0 {
		return d
	}
	return int(s.ErrCode()) - int(other.ErrCode())
}

// Less reports whether s orders before other.
func (s Status) Less(other Status) bool { return s.Compare(other) < 0 }

// String renders the canonical "[<facility> <errCode>]" form.
func (s Status) String() string {
	return fmt.Sprintf("[%d %d]", s.Facility(), s.ErrCode())
}

// Error satisfies the error interface so Status can be returned
// directly from any call that fails with an ACNET outcome.
func (s Status) Error() string {
	return fmt.Sprintf("acnet: status %s", s.String())
}

func makeStatus(facility uint8, errCode int8) Status {
	return Status(int16(errCode)<<8 | int16(facility))
}

// The fixed ACNET status catalog, facility=1 unless noted.
const (
	StatusReplyTimeout  = Status(3<<8 | 1)
	StatusEndMult       = Status(2<<8 | 1)
	StatusPend          = Status(1<<8 | 1)
	StatusSuccess       = Status(0<<8 | 1)
	StatusRetry         = Status(-1<<8 | 1)
	StatusNoLclMem      = Status(-2<<8 | 1)
	StatusNoRemMem      = Status(-3<<8 | 1)
	StatusRplyPack      = Status(-4<<8 | 1)
	StatusReqPack       = Status(-5<<8 | 1)
	StatusReqTmo        = Status(-6<<8 | 1)
	StatusQueFull       = Status(-7<<8 | 1)
	StatusBusy          = Status(-8<<8 | 1)
	StatusNotConnected  = Status(-21<<8 | 1)
	StatusArg           = Status(-22<<8 | 1)
	StatusIvm           = Status(-23<<8 | 1)
	StatusNoSuch        = Status(-24<<8 | 1)
	StatusReqRej        = Status(-25<<8 | 1)
	StatusCanceled      = Status(-26<<8 | 1)
	StatusNameInUse     = Status(-27<<8 | 1)
	StatusNcr           = Status(-28<<8 | 1)
	StatusNoNode        = Status(-30<<8 | 1)
	StatusTruncRequest  = Status(-31<<8 | 1)
	StatusTruncReply    = Status(-32<<8 | 1)
	StatusNoTask        = Status(-33<<8 | 1)
	StatusDisconnected  = Status(-34<<8 | 1)
	StatusLevel2        = Status(-35<<8 | 1)
	StatusHardIO        = Status(-41<<8 | 1)
	StatusNodeDown      = Status(-42<<8 | 1)
	StatusSys           = Status(-43<<8 | 1)
	StatusNxe           = Status(-44<<8 | 1)
	StatusBug           = Status(-45<<8 | 1)
	StatusNe1           = Status(-46<<8 | 1)
	StatusNe2           = Status(-47<<8 | 1)
	StatusNe3           = Status(-48<<8 | 1)
	StatusUTime         = Status(-49<<8 | 1)
	StatusInvArg        = Status(-50<<8 | 1)
	StatusMemFail       = Status(-51<<8 | 1)
	StatusNoHandle      = Status(-52<<8 | 1)
)

// statusDisconnect is the synthetic status delivered to every caller
// whose command is still awaiting its ack when the transport drops:
// facility 0xDE, errCode 1, decoded from the NACK-disconnect sentinel
// per the wire package.
var statusDisconnect = makeStatus(0xde, 1)
