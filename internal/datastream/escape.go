package datastream

import (
	"strings"
	"unicode/utf8"
)

const hexDigits = "0123456789abcdef"

// EscapeJSON returns text as a quoted JSON string literal using the default encoder.
func EscapeJSON(text string) string {
	return defaultEncoder.escape(text)
}

// escape runs text through the primary marshaller and falls back to
// manualEscape when it fails. It never returns an error.
func (e *Encoder) escape(text string) string {
	quoted, err := e.safeMarshal(text)
	if err != nil {
		e.observer.OnFallback(TagText, err)
		return manualEscape(text)
	}
	return quoted
}

// manualEscape is the last-resort string quoter. Quotes, backslashes and all
// C0 control characters are escaped; everything else is copied through.
func manualEscape(text string) string {
	var b strings.Builder
	b.Grow(len(text) + 2)
	b.WriteByte('"')
	for i := 0; i < len(text); {
		c := text[i]
		if c < utf8.RuneSelf {
			switch c {
			case '"':
				b.WriteString(`\"`)
			case '\\':
				b.WriteString(`\\`)
			case '\n':
				b.WriteString(`\n`)
			case '\r':
				b.WriteString(`\r`)
			case '\t':
				b.WriteString(`\t`)
			default:
				if c < 0x20 || c == 0x7f {
					b.WriteString(`\u00`)
					b.WriteByte(hexDigits[c>>4])
					b.WriteByte(hexDigits[c&0xf])
				} else {
					b.WriteByte(c)
				}
			}
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(text[i:])
		if r == utf8.RuneError && size == 1 {
			b.WriteString("\ufffd")
		} else {
			b.WriteString(text[i : i+size])
		}
		i += size
	}
	b.WriteByte('"')
	return b.String()
}
