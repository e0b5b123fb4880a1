// Package rad50 packs and unpacks six-character ACNET symbols into the
// 32-bit integers that cross the wire as node names, task names, and
// handles.
package rad50

// alphabet is the base-40 character set, space first.
const alphabet = " ABCDEFGHIJKLMNOPQRSTUVWXYZ$.%0123456789"

func idx(c byte) uint32 {
	if c >= 'a' && c <= 'z' {
		c -= 'a' - 'A'
	}
	for i := 0; i < len(alphabet); i++ {
		if alphabet[i] == c {
			return uint32(i)
		}
	}
	return 0
}

// Encode packs the first six characters of s (space-padded if shorter)
// into a 32-bit RAD50 value. Characters outside the alphabet map to space.
func Encode(s string) uint32 {
	var c [6]byte
	for i := range c {
		c[i] = ' '
	}
	for i := 0; i < len(c) && i < len(s); i++ {
		c[i] = s[i]
	}
	v1 := idx(c[0])*1600 + idx(c[1])*40 + idx(c[2])
	v2 := idx(c[3])*1600 + idx(c[4])*40 + idx(c[5])
	return v2<<16 | v1
}

// Decode inverts Encode, returning the six characters with trailing
// spaces trimmed.
func Decode(v uint32) string {
	v1 := v & 0xffff
	v2 := v >> 16
	var b [6]byte
	b[0] = alphabet[(v1/1600)%40]
	b[1] = alphabet[(v1/40)%40]
	b[2] = alphabet[v1%40]
	b[3] = alphabet[(v2/1600)%40]
	b[4] = alphabet[(v2/40)%40]
	b[5] = alphabet[v2%40]
	n := len(b)
	for n > 0 && b[n-1] == ' ' {
		n--
	}
	return string(b[:n])
}
