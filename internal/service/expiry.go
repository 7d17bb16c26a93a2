package service

import "time"

// ExpiringSoonWindowDays is the size of the near-expiry window. A line whose
// expiry falls on the reference day or up to this many days after it counts
// as expiring soon; strictly before the reference day counts as expired.
const ExpiringSoonWindowDays = 10

// ExpiryClassification is the day-granularity status of one expiry date
// relative to a reference time.
type ExpiryClassification struct {
	Expired       bool `json:"expired"`
	ExpiringSoon  bool `json:"expiring_soon"`
	DaysRemaining int  `json:"days_remaining"` // negative when already expired
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysBetween counts whole calendar days from one date to another. Both dates
// are re-anchored to UTC midnights first so a DST transition between them
// cannot shorten or stretch a day and shift the count.
func daysBetween(from, to time.Time) int {
	fromUTC := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	toUTC := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(toUTC.Sub(fromUTC).Hours() / 24)
}

// ClassifyExpiry is the single expiry rule for the whole system. Every query
// path and the discard engine use this function with an explicit reference
// time, so the boundary cannot drift between call sites.
func ClassifyExpiry(expiryDate, reference time.Time) ExpiryClassification {
	today := StartOfDay(reference)
	expiry := StartOfDay(expiryDate.In(reference.Location()))

	days := daysBetween(today, expiry)

	return ExpiryClassification{
		Expired:       expiry.Before(today),
		ExpiringSoon:  !expiry.Before(today) && days <= ExpiringSoonWindowDays,
		DaysRemaining: days,
	}
}
