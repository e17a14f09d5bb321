// Package dateutil provides calendar arithmetic for billing-month resets.
package dateutil

import "time"

// MonthsBetween returns the number of calendar-month boundaries crossed from
// one instant to another: (year delta)*12 + (month delta). Days and clock
// times are ignored, so Jan 31 to Feb 1 counts as one month. Negative when
// to precedes from.
func MonthsBetween(from, to time.Time) int {
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}

// SameBillingMonth reports whether two instants fall in the same calendar
// (year, month) pair.
func SameBillingMonth(a, b time.Time) bool {
	return MonthsBetween(a, b) == 0
}
