// Package duration parses and renders the compact h/m/s durations used in
// commands, e.g. "1h30m", "1h 30m" or "45s".
package duration

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalid is returned for any input that is not a positive h/m/s duration.
var ErrInvalid = errors.New("invalid duration")

// maxDuration bounds parsed values well below time.Duration overflow.
const maxDuration = 100 * 365 * 24 * time.Hour

var units = map[rune]time.Duration{
	'h': time.Hour,
	'm': time.Minute,
	's': time.Second,
}

// Parse sums whitespace-separated segments of <digits><unit> pairs.
// A segment may chain several pairs ("1h30m"). Units are case-insensitive.
func Parse(s string) (time.Duration, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, ErrInvalid
	}

	var total time.Duration
	for _, field := range fields {
		d, err := parseSegment(field)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalid, field)
		}
		total += d
		if total > maxDuration {
			return 0, fmt.Errorf("%w: %q is too long", ErrInvalid, s)
		}
	}

	if total <= 0 {
		return 0, fmt.Errorf("%w: %q is not positive", ErrInvalid, s)
	}
	return total, nil
}

// IsDuration reports whether a single token parses as a duration.
func IsDuration(token string) bool {
	_, err := Parse(token)
	return err == nil && !strings.ContainsAny(token, " \t")
}

func parseSegment(seg string) (time.Duration, error) {
	var (
		total   time.Duration
		n       int64
		digits  int
		applied bool
	)
	for _, r := range strings.ToLower(seg) {
		switch {
		case r >= '0' && r <= '9':
			n = n*10 + int64(r-'0')
			digits++
			if digits > 12 {
				return 0, ErrInvalid
			}
		default:
			unit, ok := units[r]
			if !ok || digits == 0 {
				return 0, ErrInvalid
			}
			// Bound before multiplying so huge values cannot wrap.
			if n > int64(maxDuration/unit) || total > maxDuration-time.Duration(n)*unit {
				return 0, ErrInvalid
			}
			total += time.Duration(n) * unit
			n, digits, applied = 0, 0, true
		}
	}
	if digits != 0 || !applied {
		return 0, ErrInvalid
	}
	return total, nil
}

// Format renders hours and minutes, omitting zero parts ("1h 30m", "1h", "30m").
// Seconds are dropped; a positive value under a minute renders as "<1m".
func Format(d time.Duration) string {
	if d <= 0 {
		return "0m"
	}
	h := int64(d / time.Hour)
	m := int64((d % time.Hour) / time.Minute)

	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	case m > 0:
		return fmt.Sprintf("%dm", m)
	default:
		return "<1m"
	}
}
