package utils

import (
	"fmt"
	"time"
)

// WeekOf returns the ISO year and week of the box office weekend covering t.
// The weekend is anchored on the most recent Friday, so Monday through
// Thursday still report the weekend that just ended.
func WeekOf(t time.Time) (year, week int) {
	daysSinceFriday := (int(t.Weekday()) - int(time.Friday) + 7) % 7
	friday := t.AddDate(0, 0, -daysSinceFriday)
	return friday.ISOWeek()
}

// WeekMonday returns the Monday starting the given ISO week, at midnight UTC.
func WeekMonday(year, week int) time.Time {
	// January 4th is always inside ISO week 1
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	weekdayFromMonday := (int(jan4.Weekday()) + 6) % 7
	week1Monday := jan4.AddDate(0, 0, -weekdayFromMonday)
	return week1Monday.AddDate(0, 0, (week-1)*7)
}

// WeekendRange returns the Friday and Sunday of the given ISO week.
func WeekendRange(year, week int) (friday, sunday time.Time) {
	monday := WeekMonday(year, week)
	return monday.AddDate(0, 0, 4), monday.AddDate(0, 0, 6)
}

// WeekID formats a year and week as the identifier used in file names,
// e.g. "2026W07".
func WeekID(year, week int) string {
	return fmt.Sprintf("%dW%02d", year, week)
}
