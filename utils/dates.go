package utils

import (
	"fmt"
	"sort"
	"time"
)

// DateLayout is the only date format accepted by inputs and configs.
const DateLayout = "2006-01-02"

// SortDates sorts a slice of time.Time in ascending order.
func SortDates(dates []time.Time) {
	sort.Slice(dates, func(i, j int) bool {
		return dates[i].Before(dates[j])
	})
}

// IsChronological reports whether dates are strictly increasing.
func IsChronological(dates []time.Time) bool {
	for i := 1; i < len(dates); i++ {
		if !dates[i].After(dates[i-1]) {
			return false
		}
	}
	return true
}

// ParseDate converts YYYY-MM-DD to a UTC time.Time.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("ParseDate: %w", err)
	}
	return t, nil
}

// MustDate builds a UTC midnight date; intended for static term sheets.
func MustDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Days returns the number of calendar days between two dates.
func Days(start, end time.Time) float64 {
	return end.Sub(start).Hours() / 24
}
