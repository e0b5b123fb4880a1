package acnet

import (
	"testing"

	"github.com/fnal-controls/acnet-go/rad50"
)

func TestParseTaskAddrSymbolicNode(t *testing.T) {
	ta, err := ParseTaskAddr("ACNET@CLXTST")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ta.NumericNode {
		t.Fatal("should not be a numeric node")
	}
	if ta.Node != "CLXTST" {
		t.Fatalf("Node = %q, want CLXTST", ta.Node)
	}
	if ta.Task != rad50.Encode("ACNET") {
		t.Fatalf("Task not RAD50-encoded correctly")
	}
}

func TestParseTaskAddrNumericNode(t *testing.T) {
	ta, err := ParseTaskAddr("ACNET@#261")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ta.NumericNode || ta.Addr != 261 {
		t.Fatalf("got NumericNode=%v Addr=%d, want true 261", ta.NumericNode, ta.Addr)
	}
}

func TestParseTaskAddrMissingAt(t *testing.T) {
	if _, err := ParseTaskAddr("ACNETCLXTST"); err != StatusInvArg {
		t.Fatalf("err = %v, want StatusInvArg", err)
	}
}

func TestParseTaskAddrEmptyParts(t *testing.T) {
	cases := []string{"@NODE", "TASK@", "@"}
	for _, s := range cases {
		if _, err := ParseTaskAddr(s); err != StatusInvArg {
			t.Errorf("ParseTaskAddr(%q) err = %v, want StatusInvArg", s, err)
		}
	}
}

func TestParseTaskAddrBadNumericLiteral(t *testing.T) {
	if _, err := ParseTaskAddr("ACNET@#notanumber"); err != StatusInvArg {
		t.Fatalf("err = %v, want StatusInvArg", err)
	}
}
