package recovery

import (
	"fmt"
	"strings"
)

// Repair rewrites span so that string values contain no raw control
// characters. Outside strings all whitespace is dropped. Inside strings
// escape sequences pass through untouched, a raw newline becomes \n, a raw
// tab becomes \t, a raw carriage return is removed and any other control
// byte becomes a \u escape.
func Repair(span string) string {
	var b strings.Builder
	b.Grow(len(span) + len(span)/16)

	inString := false
	escaped := false
	for i := 0; i < len(span); i++ {
		c := span[i]
		if !inString {
			switch c {
			case ' ', '\n', '\r', '\t':
				continue
			case '"':
				inString = true
			}
			b.WriteByte(c)
			continue
		}

		if escaped {
			escaped = false
			b.WriteByte(c)
			continue
		}
		switch {
		case c == '\\':
			escaped = true
			b.WriteByte(c)
		case c == '"':
			inString = false
			b.WriteByte(c)
		case c == '\n':
			b.WriteString(`\n`)
		case c == '\r':
		case c == '\t':
			b.WriteString(`\t`)
		case c < 0x20:
			fmt.Fprintf(&b, `\u%04x`, c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
