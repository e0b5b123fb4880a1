package rad50

import "testing"

func TestRoundTrip(t *testing.T) {
	cases := []string{"ACNET", "CLX73", "A", "", "X.Y$Z%", "123456"}
	for _, s := range cases {
		got := Decode(Encode(s))
		if got != s {
			t.Errorf("Decode(Encode(%q)) = %q, want %q", s, got, s)
		}
	}
}

func TestEncodeFoldsCase(t *testing.T) {
	if Encode("acnet") != Encode("ACNET") {
		t.Errorf("lowercase should fold to uppercase before encoding")
	}
}

func TestEncodeOutOfAlphabetMapsToSpace(t *testing.T) {
	// '&' is not in the alphabet, so it should encode the same as a space.
	if Encode("A&C") != Encode("A C") {
		t.Errorf("out-of-alphabet character should encode as space")
	}
}

func TestEncodeKnownValue(t *testing.T) {
	// "ACNET": A=1 C=3 N=14 give 1*1600+3*40+14 = 0x06C6 (low half);
	// E=5 T=20 space=0 give 5*1600+20*40 = 0x2260 (high half).
	if got := Encode("ACNET"); got != 0x226006C6 {
		t.Errorf("Encode(%q) = %#x, want %#x", "ACNET", got, 0x226006C6)
	}
}

func TestDecodeTrimsTrailingSpaces(t *testing.T) {
	if got := Decode(Encode("AB")); got != "AB" {
		t.Errorf("Decode(Encode(%q)) = %q, want %q", "AB", got, "AB")
	}
}
