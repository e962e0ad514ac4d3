package gff

import (
	"fmt"
	"strings"
)

// escapes maps ASCII codepoints to their percent-encoded form. Empty string
// means the character passes through unchanged.
var escapes [128]string

func init() {
	// Control characters, space included (0-32), and DEL.
	for i := 0; i <= 32; i++ {
		escapes[i] = fmt.Sprintf("%%%02x", i)
	}
	escapes[127] = "%7f"
	// GFF3-reserved literals.
	for _, c := range `"%&'(),;=[\]` {
		escapes[c] = fmt.Sprintf("%%%02x", c)
	}
}

// Escape percent-encodes the characters GFF3 reserves in free-text
// attribute values: codepoints 0-32, DEL, and "%&'(),;=[\]. Encoding is
// lowercase zero-padded two-digit hex. All other runes pass through.
func Escape(text string) string {
	var sb strings.Builder
	sb.Grow(len(text))
	for _, r := range text {
		if r < 128 && escapes[r] != "" {
			sb.WriteString(escapes[r])
		} else {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
