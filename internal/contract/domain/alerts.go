package contract

import "time"

// AlertThresholds are the expiry checkpoints, in days before the end date.
var AlertThresholds = [3]int{90, 60, 30}

// DaysUntilEnd returns whole days from today until the contract end date,
// comparing calendar dates in UTC.
func DaysUntilEnd(end, today time.Time) int {
	endDay := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	todayDay := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	return int(endDay.Sub(todayDay).Hours() / 24)
}

// NextAlert returns the expiry threshold due for a contract with daysUntilEnd
// days remaining, given the tightest threshold already fired (0 for none).
//
// A threshold fires once it is reached or passed, so a sweep that skips the
// exact day still fires the alert on its next run. Each threshold fires at
// most once; a contract already past its end date raises nothing new.
func NextAlert(daysUntilEnd, lastFired int) (int, bool) {
	if daysUntilEnd < 0 {
		return 0, false
	}
	due := 0
	for _, threshold := range AlertThresholds {
		if daysUntilEnd <= threshold {
			due = threshold
		}
	}
	if due == 0 {
		return 0, false
	}
	if lastFired != 0 && lastFired <= due {
		return 0, false
	}
	return due, true
}

// ReminderDue reports whether an expiry reminder should be scheduled today:
// the end date must fall exactly 90, 60 or 30 days ahead.
func ReminderDue(end, today time.Time) (int, bool) {
	days := DaysUntilEnd(end, today)
	for _, threshold := range AlertThresholds {
		if days == threshold {
			return threshold, true
		}
	}
	return 0, false
}
