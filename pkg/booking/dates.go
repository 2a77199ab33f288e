package booking

import (
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// maxRangeDays bounds range registrations and availability views.
const maxRangeDays = 366

// ParseDate parses a calendar day in YYYY-MM-DD form.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return d, nil
}

// Day truncates t to midnight UTC of its own calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// rangeTooLong reports whether [start, end] spans more than maxRangeDays
// days, without materialising the range.
func rangeTooLong(start, end time.Time) bool {
	return Day(end).After(Day(start).AddDate(0, 0, maxRangeDays-1))
}

// daysBetween lists every day in [start, end].
func daysBetween(start, end time.Time) []time.Time {
	start, end = Day(start), Day(end)
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// currentAndNextMonth returns the first day of now's month and the last
// day of the following month.
func currentAndNextMonth(now time.Time) (time.Time, time.Time) {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 2, -1)
	return first, last
}
