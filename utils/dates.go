package utils

import "time"

const DayFormat = "2006-01-02"

// Day strips the time component, leaving a UTC calendar date.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DayKey formats a time as its calendar-date key, e.g. "2024-01-05".
func DayKey(t time.Time) string {
	return Day(t).Format(DayFormat)
}

// ParseDay parses a "YYYY-MM-DD" string into a UTC calendar date.
func ParseDay(s string) (time.Time, error) {
	return time.Parse(DayFormat, s)
}

// MustDay is ParseDay for hardcoded dates; it panics on bad input.
func MustDay(s string) time.Time {
	t, err := ParseDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func SameDay(a, b time.Time) bool {
	return Day(a).Equal(Day(b))
}

func AddDays(t time.Time, days int) time.Time {
	return Day(t).AddDate(0, 0, days)
}

// DaysBetween returns the number of whole calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}
