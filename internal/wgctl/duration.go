package wgctl

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var unitSeconds = map[string]int64{
	"second": 1,
	"minute": 60,
	"hour":   3600,
	"day":    86400,
}

// ParseRelativeTime converts wg(8)'s human-readable handshake age ("Now",
// "45 seconds ago", "1 minute, 45 seconds ago") into an elapsed duration.
//
// The accepted grammar is "Now", "<N> <unit>(s) ago" for second/minute/hour/
// day, or a comma-joined pair of those units. Anything else is an error;
// callers classify the peer as connected anyway (fail open) so that one
// unexpected format cannot trigger a false disconnect alert storm.
func ParseRelativeTime(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "now") {
		return 0, nil
	}

	trimmed, ok := strings.CutSuffix(s, " ago")
	if !ok {
		return 0, fmt.Errorf("relative time %q: missing %q suffix", s, "ago")
	}

	parts := strings.Split(trimmed, ", ")
	if len(parts) == 0 || len(parts) > 2 {
		return 0, fmt.Errorf("relative time %q: expected one or two units", s)
	}

	var total int64
	for _, part := range parts {
		fields := strings.Fields(part)
		if len(fields) != 2 {
			return 0, fmt.Errorf("relative time %q: malformed component %q", s, part)
		}
		n, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("relative time %q: bad count %q", s, fields[0])
		}
		unit := strings.TrimSuffix(fields[1], "s")
		mult, ok := unitSeconds[unit]
		if !ok {
			return 0, fmt.Errorf("relative time %q: unknown unit %q", s, fields[1])
		}
		total += n * mult
	}

	return time.Duration(total) * time.Second, nil
}
