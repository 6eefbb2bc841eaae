package utils

import (
	"testing"
	"time"
)

func TestWeekOf(t *testing.T) {
	tests := []struct {
		name     string
		date     time.Time
		wantYear int
		wantWeek int
	}{
		{
			name:     "friday reports its own week",
			date:     time.Date(2026, time.February, 13, 12, 0, 0, 0, time.UTC),
			wantYear: 2026,
			wantWeek: 7,
		},
		{
			name:     "sunday reports the same weekend",
			date:     time.Date(2026, time.February, 15, 12, 0, 0, 0, time.UTC),
			wantYear: 2026,
			wantWeek: 7,
		},
		{
			name:     "thursday still reports the previous weekend",
			date:     time.Date(2026, time.February, 19, 12, 0, 0, 0, time.UTC),
			wantYear: 2026,
			wantWeek: 7,
		},
		{
			name:     "next friday rolls over to the new weekend",
			date:     time.Date(2026, time.February, 20, 0, 0, 0, 0, time.UTC),
			wantYear: 2026,
			wantWeek: 8,
		},
		{
			name:     "early january can belong to the previous ISO year",
			date:     time.Date(2027, time.January, 3, 12, 0, 0, 0, time.UTC),
			wantYear: 2026,
			wantWeek: 53,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			year, week := WeekOf(tt.date)
			if year != tt.wantYear || week != tt.wantWeek {
				t.Errorf("WeekOf(%s) = %d, %d; want %d, %d",
					tt.date.Format("2006-01-02"), year, week, tt.wantYear, tt.wantWeek)
			}
		})
	}
}

func TestWeekendRange(t *testing.T) {
	friday, sunday := WeekendRange(2026, 7)
	if got := friday.Format("2006-01-02"); got != "2026-02-13" {
		t.Errorf("friday = %s, want 2026-02-13", got)
	}
	if got := sunday.Format("2006-01-02"); got != "2026-02-15" {
		t.Errorf("sunday = %s, want 2026-02-15", got)
	}
}

func TestWeekendRangeRoundTripsWeekOf(t *testing.T) {
	for week := 1; week <= 52; week++ {
		friday, _ := WeekendRange(2026, week)
		year, gotWeek := WeekOf(friday)
		if year != 2026 || gotWeek != week {
			t.Fatalf("WeekOf(WeekendRange(2026, %d).friday) = %d, %d", week, year, gotWeek)
		}
	}
}

func TestWeekID(t *testing.T) {
	if got := WeekID(2026, 7); got != "2026W07" {
		t.Errorf("WeekID(2026, 7) = %q, want 2026W07", got)
	}
	if got := WeekID(2026, 42); got != "2026W42" {
		t.Errorf("WeekID(2026, 42) = %q, want 2026W42", got)
	}
}
