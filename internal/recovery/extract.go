package recovery

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// quotedValue matches the body of a JSON string, honouring backslash escapes.
const quotedValue = `"((?:[^"\\]|\\.)*)"`

var quotedString = regexp.MustCompile(`(?s)` + quotedValue)

// Extract pulls each schema field out of span independently. Missing fields
// are simply absent from the result.
func Extract(span string, schema Schema) map[string]any {
	fields := make(map[string]any)
	for _, name := range schema.ShortFields {
		if value, ok := extractShort(span, name); ok {
			fields[name] = value
		}
	}
	if schema.LongField != "" {
		if value, ok := ScanLongField(span, schema.LongField); ok {
			fields[schema.LongField] = value
		}
	}
	for _, name := range schema.ListFields {
		if values, ok := extractList(span, name); ok {
			fields[name] = values
		}
	}
	return fields
}

func fieldPrefix(name string) string {
	return `"` + regexp.QuoteMeta(name) + `"\s*:\s*`
}

func extractShort(span, name string) (string, bool) {
	re := regexp.MustCompile(`(?s)` + fieldPrefix(name) + quotedValue)
	m := re.FindStringSubmatch(span)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(Unescape(m[1])), true
}

func extractList(span, name string) ([]string, bool) {
	re := regexp.MustCompile(`(?s)` + fieldPrefix(name) + `\[(.*?)\]`)
	m := re.FindStringSubmatch(span)
	if m == nil {
		return nil, false
	}
	values := []string{}
	for _, item := range quotedString.FindAllStringSubmatch(m[1], -1) {
		if v := strings.TrimSpace(Unescape(item[1])); v != "" {
			values = append(values, v)
		}
	}
	return values, true
}

// ScanLongField finds the string value of name when it may contain raw
// newlines and unescaped quotes. The value ends at the first unescaped
// quote followed, after optional whitespace, by ',' or '}' or the end of the
// input. Without such a quote the rest of the input is taken, which rescues
// output cut off mid-field.
func ScanLongField(span, name string) (string, bool) {
	re := regexp.MustCompile(fieldPrefix(name) + `"`)
	loc := re.FindStringIndex(span)
	if loc == nil {
		return "", false
	}
	start := loc[1]

	escaped := false
	for i := start; i < len(span); i++ {
		c := span[i]
		if escaped {
			escaped = false
			continue
		}
		if c == '\\' {
			escaped = true
			continue
		}
		if c != '"' {
			continue
		}
		rest := strings.TrimLeft(span[i+1:], " \t\r\n")
		if rest == "" || rest[0] == ',' || rest[0] == '}' {
			return Unescape(span[start:i]), true
		}
	}

	tail := strings.TrimRight(span[start:], " \t\r\n}")
	tail = strings.TrimSuffix(tail, `"`)
	if strings.TrimSpace(tail) == "" {
		return "", false
	}
	return Unescape(tail), true
}

// Unescape decodes JSON string escapes in a single pass. Carriage returns,
// escaped or raw, are dropped. Unknown escapes are kept verbatim.
func Unescape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\r' {
			continue
		}
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}
		next := s[i+1]
		switch next {
		case '"', '\\', '/':
			b.WriteByte(next)
			i++
		case 'n':
			b.WriteByte('\n')
			i++
		case 't':
			b.WriteByte('\t')
			i++
		case 'r':
			i++
		case 'b', 'f':
			i++
		case 'u':
			if r, ok := decodeUnicode(s[i+2:]); ok {
				b.WriteRune(r)
				i += 5
				continue
			}
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func decodeUnicode(s string) (rune, bool) {
	if len(s) < 4 {
		return 0, false
	}
	v, err := strconv.ParseUint(s[:4], 16, 32)
	if err != nil {
		return 0, false
	}
	r := rune(v)
	if !utf8.ValidRune(r) {
		return utf8.RuneError, true
	}
	return r, true
}
