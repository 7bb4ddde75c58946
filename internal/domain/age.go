package domain

import "time"

// AgeAt returns the number of whole years between birth and now, counting a
// year only once now has reached the birth month and day. Both values are
// read as calendar dates in their own locations, so callers should convert
// now to the zone the answer is meant for.
//
// A Feb 29 birthday is reached on Mar 1 in non-leap years.
func AgeAt(birth, now time.Time) int {
	by, bm, bd := birth.Date()
	ny, nm, nd := now.Date()

	age := ny - by
	if nm < bm || (nm == bm && nd < bd) {
		age--
	}
	return age
}
