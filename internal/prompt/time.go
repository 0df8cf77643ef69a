package prompt

import (
	"strconv"
	"strings"
	"time"
)

// epochMillisThreshold separates epoch seconds from epoch milliseconds.
// Second-resolution values stay below it until the year 33658.
const epochMillisThreshold = 1e12

// ParseTimestamp parses the timestamp formats found in assistant history
// stores: RFC3339 (with or without fractional seconds), naive ISO datetimes
// as written by the manual tracker, and numeric epoch seconds or
// milliseconds. Unparseable input yields the zero time.
func ParseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return FromEpoch(n)
	}
	for _, layout := range []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05.999999",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// FromEpoch converts epoch seconds or milliseconds to a UTC time. Values that
// are not positive yield the zero time.
func FromEpoch(v float64) time.Time {
	if v <= 0 {
		return time.Time{}
	}
	if v >= epochMillisThreshold {
		return time.UnixMilli(int64(v)).UTC()
	}
	sec := int64(v)
	nsec := int64((v - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).UTC()
}
