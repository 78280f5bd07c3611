package importers

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	leadingIntRe   = regexp.MustCompile(`^[+-]?\d+`)
	leadingFloatRe = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
)

// readAtLayouts lists the date formats accepted for readAt values, most
// common first. Goodreads feeds use RFC1123 with a numeric zone.
var readAtLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	time.RFC822Z,
	time.RFC822,
	time.RFC3339Nano,
	time.RFC3339,
	time.RubyDate,
	time.UnixDate,
	"2006-01-02",
	"2006/01/02",
}

// CleanField strips one leading and one trailing quote character (single or
// double) and then surrounding whitespace.
func CleanField(s string) string {
	if s != "" && (s[0] == '"' || s[0] == '\'') {
		s = s[1:]
	}
	if n := len(s); n > 0 && (s[n-1] == '"' || s[n-1] == '\'') {
		s = s[:n-1]
	}
	return strings.TrimSpace(s)
}

// ParseLeadingInt parses the integer prefix of s ("4 stars" -> 4, "3.9" -> 3).
// Returns 0 when s does not start with a number.
func ParseLeadingInt(s string) int {
	m := leadingIntRe.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

// ParseLeadingFloat parses the decimal prefix of s. Returns 0 when s does not
// start with a number.
func ParseLeadingFloat(s string) float64 {
	m := leadingFloatRe.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return f
}

// BuildDate turns year/month/day components into an RFC1123 GMT string at
// midnight UTC. Non-numeric or out-of-range components yield "".
func BuildDate(year, month, day string) string {
	y, err := strconv.Atoi(strings.TrimSpace(year))
	if err != nil || y < 1 || y > 9999 {
		return ""
	}
	m, err := strconv.Atoi(strings.TrimSpace(month))
	if err != nil || m < 1 || m > 12 {
		return ""
	}
	d, err := strconv.Atoi(strings.TrimSpace(day))
	if err != nil || d < 1 {
		return ""
	}

	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (Feb 30 -> Mar 2); reject it instead.
	if t.Day() != d || int(t.Month()) != m {
		return ""
	}
	return t.Format(http.TimeFormat)
}

// ParseReadAt parses a readAt value. The boolean is false for empty or
// unrecognized input.
func ParseReadAt(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range readAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func clampRating(r int) int {
	switch {
	case r < 0:
		return 0
	case r > 5:
		return 5
	default:
		return r
	}
}

func nonNegative[T int | float64](v T) T {
	if v < 0 {
		return 0
	}
	return v
}
