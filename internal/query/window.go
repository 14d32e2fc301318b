package query

import (
	"strconv"
	"strings"
	"time"

	"inventory-api/pkg/apperror"
)

// DefaultAlertMonths are the expiry horizons reported when none are requested.
var DefaultAlertMonths = []int{1, 3, 6}

const maxHorizonMonths = 120

// Window is the expiry horizon (From, To]. A unit is inside it when its expiry is
// strictly after From and not after To.
type Window struct {
	From time.Time
	To   time.Time
}

// NewWindow returns the horizon that starts at now and ends months calendar months later.
func NewWindow(now time.Time, months int) Window {
	return Window{From: now, To: now.AddDate(0, months, 0)}
}

func (w Window) Contains(t time.Time) bool {
	return t.After(w.From) && !t.After(w.To)
}

// ParseMonths parses a comma separated list of month horizons such as "1,3,6".
// An empty string yields DefaultAlertMonths. Duplicates are dropped, order is kept.
func ParseMonths(raw string) ([]int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		out := make([]int, len(DefaultAlertMonths))
		copy(out, DefaultAlertMonths)
		return out, nil
	}

	seen := make(map[int]bool)
	var months []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		m, err := strconv.Atoi(part)
		if err != nil || m < 1 || m > maxHorizonMonths {
			return nil, apperror.Validation("Invalid months value: " + part)
		}
		if seen[m] {
			continue
		}
		seen[m] = true
		months = append(months, m)
	}
	if len(months) == 0 {
		return nil, apperror.Validation("Invalid months value: " + raw)
	}
	return months, nil
}

// BucketKey is the alert response key for a horizon, e.g. "3Month".
func BucketKey(months int) string {
	return strconv.Itoa(months) + "Month"
}

// ParseTime accepts RFC3339 timestamps and plain YYYY-MM-DD dates (UTC midnight).
func ParseTime(raw string) (t time.Time, dateOnly bool, err error) {
	if t, err = time.Parse(time.RFC3339, raw); err == nil {
		return t, false, nil
	}
	if t, err = time.Parse(time.DateOnly, raw); err == nil {
		return t, true, nil
	}
	return time.Time{}, false, err
}
