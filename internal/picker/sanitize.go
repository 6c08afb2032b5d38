package picker

import (
	"regexp"

	"github.com/mattn/go-runewidth"
)

// ansiRE matches ANSI escape sequences: CSI sequences (SGR, cursor
// movement), OSC sequences (terminated by ST or BEL) and two-byte
// escapes.
var ansiRE = regexp.MustCompile(`\x1b(?:` +
	`\[[0-9;]*[A-Za-z]` +
	`|` +
	`\].*?(?:\x1b\\|\x07)` +
	`|` +
	`[()][A-B0-2]` +
	`|` +
	`[#()*+\-./][A-Za-z0-9]` +
	`)`)

// StripANSI removes ANSI escape sequences from a string. Item text comes
// from external metadata and must never be allowed to move the cursor.
func StripANSI(s string) string {
	return ansiRE.ReplaceAllString(s, "")
}

// MiddleTruncate truncates a string in the middle with an ellipsis if
// its display width exceeds maxWidth. Display-width-aware, so CJK
// characters and emoji that occupy two columns are handled correctly.
func MiddleTruncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}

	const ellipsis = "…"
	if maxWidth < 3 {
		return truncateLeft(s, maxWidth)
	}

	remaining := maxWidth - 1
	head := truncateLeft(s, (remaining+1)/2)
	tail := truncateRight(s, remaining/2)
	return head + ellipsis + tail
}

// truncateLeft returns the longest prefix of s whose display width does
// not exceed maxWidth.
func truncateLeft(s string, maxWidth int) string {
	w := 0
	for i, r := range s {
		rw := runewidth.RuneWidth(r)
		if w+rw > maxWidth {
			return s[:i]
		}
		w += rw
	}
	return s
}

// truncateRight returns the longest suffix of s whose display width does
// not exceed maxWidth.
func truncateRight(s string, maxWidth int) string {
	runes := []rune(s)
	w := 0
	start := len(runes)
	for i := len(runes) - 1; i >= 0; i-- {
		rw := runewidth.RuneWidth(runes[i])
		if w+rw > maxWidth {
			break
		}
		w += rw
		start = i
	}
	return string(runes[start:])
}
