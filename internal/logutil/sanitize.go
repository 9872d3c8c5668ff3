package logutil

import "strings"

const maxLoggedLen = 256

// Sanitize strips control characters from strings that originate outside the
// process (client names, DDNS hostnames, command output) before they are
// written to the log, and truncates anything unreasonably long. Hostnames in
// particular are attacker-influenced and must not be able to forge log lines.
func Sanitize(s string) string {
	if len(s) > maxLoggedLen {
		s = s[:maxLoggedLen] + "..."
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			b.WriteRune(' ')
		case r < 32:
			// drop other control characters
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
