package timeutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseShortDuration parses the compact duration grammar used in chat
// commands: an integer followed by one of m (minutes), h (hours), d (days)
// or w (weeks), e.g. "4m", "3h", "6d", "5w".
func ParseShortDuration(val string) (time.Duration, error) {
	val = strings.TrimSpace(strings.ToLower(val))
	if len(val) < 2 {
		return 0, fmt.Errorf("invalid time value: %q", val)
	}

	unit := val[len(val)-1]
	n, err := strconv.ParseInt(val[:len(val)-1], 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid time value: %q", val)
	}

	switch unit {
	case 'm':
		return time.Duration(n) * time.Minute, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	case 'w':
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("invalid time unit in %q, expected m/h/d/w", val)
	}
}

// ExtractExpiry resolves a short duration string to an absolute expiry.
func ExtractExpiry(val string) (time.Time, error) {
	d, err := ParseShortDuration(val)
	if err != nil {
		return time.Time{}, err
	}
	return time.Now().Add(d), nil
}
