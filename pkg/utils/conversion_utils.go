package utils

import (
	"fmt"
	"strconv"
	"time"
)

// DateLayout is the wire format for calendar days (session dates, report ranges).
const DateLayout = "2006-01-02"

// Int64ToStr converts an int64 to its string representation.
func Int64ToStr(num int64) string {
	return strconv.FormatInt(num, 10)
}

// StrToInt64 converts a string to an int64.
func StrToInt64(s string) (int64, error) {
	num, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse '%s' as int64: %w", s, err)
	}
	return num, nil
}

// ParseDate parses a YYYY-MM-DD string into a UTC midnight time.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date '%s', use YYYY-MM-DD: %w", s, err)
	}
	return t, nil
}

// TruncateToDay returns UTC midnight of t's calendar day (as seen in t's own location).
func TruncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
