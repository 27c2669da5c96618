package timeline

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ParseDate interprets a date-like value. Strings are parsed in loc; nil,
// blank, zero and unparseable values report false.
func ParseDate(v any, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}

	switch d := v.(type) {
	case time.Time:
		if d.IsZero() {
			return time.Time{}, false
		}
		return d.In(loc), true
	case *time.Time:
		if d == nil {
			return time.Time{}, false
		}
		return ParseDate(*d, loc)
	case string:
		return parseDateString(d, loc)
	case *string:
		if d == nil {
			return time.Time{}, false
		}
		return parseDateString(*d, loc)
	default:
		return time.Time{}, false
	}
}

func parseDateString(s string, loc *time.Location) (t time.Time, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	// dateparse has panicked on some malformed inputs in the past.
	defer func() {
		if recover() != nil {
			t, ok = time.Time{}, false
		}
	}()

	parsed, err := dateparse.ParseIn(s, loc)
	if err != nil || parsed.IsZero() {
		return time.Time{}, false
	}
	return parsed.In(loc), true
}

// StartOfDay returns 00:00:00.000 of t's calendar day.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59.999 of t's calendar day.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// dayKey identifies a calendar day.
func dayKey(t time.Time) string {
	return t.Format("20060102")
}
