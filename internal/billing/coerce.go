package billing

import (
	"strconv"
	"strings"
	"time"
)

// The backing records arrive loosely typed (form fields and sheet imports
// carry amounts and dates as strings). Coercion happens here, at one
// boundary, instead of inline at every call site. Malformed numbers coerce
// to zero by policy; this source data is known to be sloppy and a zero fee
// is recoverable, a crashed request is not.

// ParseAmount parses a currency amount in integer units. Empty, malformed,
// or negative input coerces to 0.
func ParseAmount(raw string) int64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// ParseDate parses a YYYY-MM-DD calendar date. The second return value is
// false when the input does not parse.
func ParseDate(raw string) (time.Time, bool) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FormatDate renders a calendar date the way the console and receipts show
// it.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}
