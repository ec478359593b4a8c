package utils

import (
	"time"
)

// Day count conventions understood by YearFraction.
const (
	Act360     = "ACT/360"
	Act365F    = "ACT/365F"
	Thirty360  = "30/360"
	ActActISDA = "ACT/ACT"
)

// YearFraction computes year fraction between two dates using the specified day count convention.
// Supported conventions: ACT/360, ACT/365F, 30E/360, 30/360, ACT/ACT (ISDA).
// Unknown conventions fall back to ACT/365F.
func YearFraction(start, end time.Time, convention string) float64 {
	switch convention {
	case Act360:
		return Days(start, end) / 360.0
	case Act365F:
		return Days(start, end) / 365.0
	case "30E/360", Thirty360:
		d1 := start.Day()
		if d1 > 30 {
			d1 = 30
		}
		d2 := end.Day()
		if d2 > 30 {
			d2 = 30
		}
		y1, m1 := start.Year(), int(start.Month())
		y2, m2 := end.Year(), int(end.Month())
		return float64(360*(y2-y1)+30*(m2-m1)+(d2-d1)) / 360.0
	case ActActISDA, "ACT/ACT ISDA":
		return actActISDA(start, end)
	default:
		return Days(start, end) / 365.0
	}
}

// actActISDA splits the period at year boundaries and divides each piece by
// the length of its own year.
func actActISDA(start, end time.Time) float64 {
	if end.Before(start) {
		return -actActISDA(end, start)
	}
	if start.Year() == end.Year() {
		return Days(start, end) / daysInYear(start.Year())
	}
	nextYear := time.Date(start.Year()+1, time.January, 1, 0, 0, 0, 0, time.UTC)
	endYear := time.Date(end.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	frac := Days(start, nextYear) / daysInYear(start.Year())
	frac += float64(end.Year() - start.Year() - 1)
	frac += Days(endYear, end) / daysInYear(end.Year())
	return frac
}

func daysInYear(y int) float64 {
	if (y%4 == 0 && y%100 != 0) || y%400 == 0 {
		return 366
	}
	return 365
}

// YearFractions maps each date to its year fraction from the anchor date.
func YearFractions(anchor time.Time, dates []time.Time, convention string) []float64 {
	out := make([]float64, len(dates))
	for i, d := range dates {
		out[i] = YearFraction(anchor, d, convention)
	}
	return out
}
