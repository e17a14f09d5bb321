package dateutil

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMonthsBetween(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		from time.Time
		to   time.Time
		want int
	}{
		{"same instant", date(2025, time.March, 10), date(2025, time.March, 10), 0},
		{"same month different day", date(2025, time.March, 1), date(2025, time.March, 31), 0},
		{"adjacent days across boundary", date(2025, time.January, 31), date(2025, time.February, 1), 1},
		{"full month", date(2025, time.January, 15), date(2025, time.February, 15), 1},
		{"year rollover", date(2024, time.December, 20), date(2025, time.January, 5), 1},
		{"several years", date(2023, time.June, 1), date(2025, time.June, 1), 24},
		{"negative", date(2025, time.February, 1), date(2025, time.January, 31), -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := MonthsBetween(tt.from, tt.to); got != tt.want {
				t.Errorf("MonthsBetween(%v, %v) = %d, want %d", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestSameBillingMonth(t *testing.T) {
	t.Parallel()

	if !SameBillingMonth(date(2025, time.March, 1), date(2025, time.March, 31)) {
		t.Error("March 1 and March 31 should share a billing month")
	}
	if SameBillingMonth(date(2025, time.January, 31), date(2025, time.February, 1)) {
		t.Error("Jan 31 and Feb 1 should not share a billing month")
	}
}
