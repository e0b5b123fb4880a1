package acnet

import (
	"strconv"
	"strings"

	"github.com/fnal-controls/acnet-go/rad50"
)

// TaskAddr is a parsed "TASK@NODE" address: a RAD50-packed task name
// paired with either a symbolic node name or an explicit numeric
// trunk/node address.
type TaskAddr struct {
	Task uint32 // RAD50-packed task name

	// Node is the symbolic node name (empty when NumericNode is set).
	Node string

	// NumericNode is true when the address used the "#nnn" literal
	// form and Addr already carries the resolved trunk/node value.
	NumericNode bool
	Addr        uint16
}

// ParseTaskAddr parses "TASK@NODE" or "TASK@#nnn". Malformed forms —
// missing "@", an unparsable numeric literal, or an empty task/node —
// fail with ACNET_INVARG.
func ParseTaskAddr(s string) (TaskAddr, error) {
	at := strings.IndexByte(s, '@')
	if at < 0 {
		return TaskAddr{}, StatusInvArg
	}
	taskPart, nodePart := s[:at], s[at+1:]
	if taskPart == "" || nodePart == "" {
		return TaskAddr{}, StatusInvArg
	}

	task := rad50.Encode(taskPart)

	if strings.HasPrefix(nodePart, "#") {
		n, err := strconv.ParseUint(nodePart[1:], 10, 16)
		if err != nil {
			return TaskAddr{}, StatusInvArg
		}
		return TaskAddr{Task: task, NumericNode: true, Addr: uint16(n)}, nil
	}

	return TaskAddr{Task: task, Node: nodePart}, nil
}
