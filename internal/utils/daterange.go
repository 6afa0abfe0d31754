package utils

import (
	"strings"
	"time"

	"lightfoot-pos/internal/apperr"
)

const dateLayout = "2006-01-02"

// Range is a half-open UTC interval [From, To).
type Range struct {
	From time.Time
	To   time.Time
}

func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.From) && t.Before(r.To)
}

// ParseRange reads dates as store-local calendar days or RFC 3339 instants.
// A bare end date covers that whole day.
func ParseRange(start, end string, loc *time.Location) (Range, error) {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if start == "" || end == "" {
		return Range{}, apperr.Validation("startDate and endDate are required")
	}

	from, _, err := parseBound(start, loc)
	if err != nil {
		return Range{}, apperr.Validation("invalid startDate %q", start)
	}
	to, dateOnly, err := parseBound(end, loc)
	if err != nil {
		return Range{}, apperr.Validation("invalid endDate %q", end)
	}
	if dateOnly {
		to = to.AddDate(0, 0, 1)
	}
	if !to.After(from) {
		return Range{}, apperr.Validation("endDate must not be before startDate")
	}

	return Range{From: from.UTC(), To: to.UTC()}, nil
}

func parseBound(s string, loc *time.Location) (time.Time, bool, error) {
	if t, err := time.ParseInLocation(dateLayout, s, loc); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	return t, false, err
}

// Day returns the store-local calendar day containing t.
func Day(t time.Time, loc *time.Location) Range {
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return Range{From: start.UTC(), To: start.AddDate(0, 0, 1).UTC()}
}
