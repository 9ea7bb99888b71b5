package utils

import "time"

// TimeNowUTC returns the current time in UTC. All freshness decisions are
// made against the UTC calendar day.
func TimeNowUTC() time.Time {
	return time.Now().UTC()
}

// SameUTCDay reports whether a and b fall on the same UTC calendar date.
func SameUTCDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
