package acnet

import "testing"

func TestStatusDecomposition(t *testing.T) {
	s := makeStatus(1, -6)
	if s.Facility() != 1 {
		t.Fatalf("facility = %d, want 1", s.Facility())
	}
	if s.ErrCode() != -6 {
		t.Fatalf("errCode = %d, want -6", s.ErrCode())
	}
	if s != StatusReqTmo {
		t.Fatalf("makeStatus(1, -6) = %v, want StatusReqTmo (%v)", s, StatusReqTmo)
	}
}

func TestStatusPredicates(t *testing.T) {
	if !StatusSuccess.IsSuccess() || !StatusSuccess.IsGood() || StatusSuccess.IsBad() {
		t.Fatal("SUCCESS should be success, good, not bad")
	}
	if !StatusPend.IsGood() || StatusPend.IsSuccess() {
		t.Fatal("PEND (errCode=1) should be good but not success")
	}
	if !StatusBug.IsBad() || StatusBug.IsGood() {
		t.Fatal("BUG should be bad, not good")
	}
}

func TestStatusOrdering(t *testing.T) {
	low := makeStatus(1, -50)
	high := makeStatus(1, 3)
	if !low.Less(high) {
		t.Fatal("more negative errCode should order before a positive one")
	}
	if makeStatus(1, 0).Compare(makeStatus(1, 0)) != 0 {
		t.Fatal("equal raw values should compare equal")
	}
	acrossFacility := makeStatus(2, -100)
	if !high.Less(acrossFacility) {
		t.Fatal("facility is the primary ordering key")
	}
}

func TestStatusString(t *testing.T) {
	if got := StatusSuccess.String(); got != "[1 0]" {
		t.Fatalf("String() = %q, want %q", got, "[1 0]")
	}
}

func TestDisconnectSentinelDecomposition(t *testing.T) {
	if statusDisconnect.Facility() != 0xde || statusDisconnect.ErrCode() != 1 {
		t.Fatalf("disconnect sentinel = %v, want facility 0xde errCode 1", statusDisconnect)
	}
}

func TestStatusImplementsError(t *testing.T) {
	var err error = StatusBug
	if err.Error() == "" {
		t.Fatal("Status.Error() should not be empty")
	}
}
