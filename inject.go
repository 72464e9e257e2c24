package lazyload

import (
	"strings"
)

// InjectLoading returns tagHTML with loading="value" inserted directly after
// "<name" and the whitespace that follows it. Every other byte of the tag
// is kept as it was. tagHTML is returned unchanged when value is empty,
// when it does not start with "<name" followed by whitespace, or when it
// already declares a loading attribute.
func InjectLoading(tagHTML, name, value string) string {
	if value == "" {
		return tagHTML
	}
	prefix := "<" + name
	if !strings.HasPrefix(tagHTML, prefix) {
		return tagHTML
	}
	rest := tagHTML[len(prefix):]
	ws := len(rest) - len(strings.TrimLeft(rest, " \t\n\r\f"))
	if ws == 0 {
		return tagHTML
	}
	if _, ok := tagAttrs(tagHTML)["loading"]; ok {
		return tagHTML
	}

	var b strings.Builder
	b.Grow(len(tagHTML) + len(value) + 11)
	b.WriteString(prefix)
	b.WriteString(rest[:ws])
	b.WriteString(`loading="`)
	b.WriteString(value)
	b.WriteString(`" `)
	b.WriteString(rest[ws:])
	return b.String()
}

// appendAttrs inserts the pre-rendered attribute text attrs (starting with
// a space) just before the closing ">" or "/>" of tagHTML, keeping any
// whitespace that preceded the closing bracket after the new attributes.
func appendAttrs(tagHTML, attrs string) string {
	end := strings.LastIndexByte(tagHTML, '>')
	if end < 0 {
		return tagHTML
	}
	if end > 0 && tagHTML[end-1] == '/' {
		end--
	}
	for end > 0 && isSpace(tagHTML[end-1]) {
		end--
	}
	return tagHTML[:end] + attrs + tagHTML[end:]
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f':
		return true
	}
	return false
}
