package reconcile

import (
	"fmt"
	"strings"
	"time"
)

var defaultLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
	"02-01-2006 15:04:05",
	"02-01-2006",
	"1/2/06 15:04",
	"1/2/06",
}

// DateOrder picks how ambiguous nn/nn/yyyy dates are read. ISO dates are
// unaffected.
type DateOrder string

const (
	DayFirst   DateOrder = "dmy"
	MonthFirst DateOrder = "mdy"
)

var monthFirstLayouts = []string{
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006",
	"01-02-2006 15:04:05",
	"01-02-2006",
}

// ParseDateOrder accepts "dmy" (the default when empty) or "mdy".
func ParseDateOrder(raw string) (DateOrder, error) {
	switch DateOrder(strings.ToLower(strings.TrimSpace(raw))) {
	case "", DayFirst:
		return DayFirst, nil
	case MonthFirst:
		return MonthFirst, nil
	default:
		return "", fmt.Errorf("unknown date order %q (want %s or %s)", raw, DayFirst, MonthFirst)
	}
}

// WithDateOrder reads ambiguous dates month first when order is MonthFirst.
func WithDateOrder(order DateOrder) Option {
	if order != MonthFirst {
		return func(*Reconciler) {}
	}
	return WithTimeLayouts(monthFirstLayouts...)
}

// parseDate parses a timestamp cell and truncates it to its calendar date.
func (r *Reconciler) parseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range r.layouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q (expected YYYY-MM-DD HH:MM:SS)", raw)
}
