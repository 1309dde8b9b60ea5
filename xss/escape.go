// Package xss neutralizes HTML metacharacters in untrusted request input.
package xss

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
)

// Escape replaces < > ' " & / with HTML entities. An ampersand that already
// starts a well-formed entity is kept, so Escape(Escape(s)) == Escape(s).
func Escape(s string) string {
	if !strings.ContainsAny(s, `<>'"&/`) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 16)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '\'':
			b.WriteString("&#39;")
		case '"':
			b.WriteString("&quot;")
		case '/':
			b.WriteString("&#x2F;")
		case '&':
			if n := entityLen(s[i:]); n > 0 {
				b.WriteString(s[i : i+n])
				i += n - 1
				continue
			}
			b.WriteString("&amp;")
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// entityLen returns the length of the entity reference at the start of s,
// or 0 if s does not start with one. Accepted forms: &name; &#123; &#x1F;
func entityLen(s string) int {
	if len(s) < 3 || s[0] != '&' {
		return 0
	}
	i := 1
	switch {
	case s[1] == '#' && len(s) > 2 && (s[2] == 'x' || s[2] == 'X'):
		i = 3
		start := i
		for i < len(s) && i-start < 6 && isHex(s[i]) {
			i++
		}
		if i == start {
			return 0
		}
	case s[1] == '#':
		i = 2
		start := i
		for i < len(s) && i-start < 7 && isDigit(s[i]) {
			i++
		}
		if i == start {
			return 0
		}
	case isAlpha(s[1]):
		start := i
		for i < len(s) && i-start < 32 && (isAlpha(s[i]) || isDigit(s[i])) {
			i++
		}
	default:
		return 0
	}
	if i < len(s) && s[i] == ';' {
		return i + 1
	}
	return 0
}

func isAlpha(c byte) bool { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' }
func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isHex(c byte) bool {
	return isDigit(c) || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}

// Clean escapes s and trims surrounding whitespace. It is applied to query
// and form values.
func Clean(s string) string {
	return strings.TrimSpace(Escape(s))
}

// EscapeJSON escapes every string value in a JSON document. Object keys,
// numbers and structure are preserved; numbers keep their original text.
// ok is false when body is not a single well-formed JSON value, in which case
// the caller should keep the original bytes.
func EscapeJSON(body []byte) (out []byte, changed bool, ok bool) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false, false
	}
	// only whitespace may follow the first value
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, false, false
	}

	v, changed = escapeValue(v)
	if !changed {
		return body, false, true
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, false, false
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), true, true
}

func escapeValue(v any) (any, bool) {
	switch t := v.(type) {
	case string:
		e := Escape(t)
		return e, e != t
	case []any:
		changed := false
		for i, item := range t {
			var c bool
			t[i], c = escapeValue(item)
			changed = changed || c
		}
		return t, changed
	case map[string]any:
		changed := false
		for k, item := range t {
			var c bool
			t[k], c = escapeValue(item)
			changed = changed || c
		}
		return t, changed
	default:
		return v, false
	}
}
