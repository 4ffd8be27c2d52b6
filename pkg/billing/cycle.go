// Package billing holds the pure billing arithmetic: cycle advancement and
// fee calculation. Nothing here touches the database.
package billing

import "time"

const defaultCustomDays = 30

// NextBillingDate advances from the previous billing date by exactly one
// cycle. Calendar cycles use calendar arithmetic (a monthly subscription
// started on the 1st bills on the 1st, not every 30 days), so repeated
// advancement never drifts.
func NextBillingDate(cycle string, customDays *int, from time.Time) time.Time {
	switch cycle {
	case "weekly":
		return from.AddDate(0, 0, 7)
	case "biweekly":
		return from.AddDate(0, 0, 14)
	case "monthly":
		return from.AddDate(0, 1, 0)
	case "quarterly":
		return from.AddDate(0, 3, 0)
	case "semiannual":
		return from.AddDate(0, 6, 0)
	case "annual":
		return from.AddDate(1, 0, 0)
	case "custom":
		days := defaultCustomDays
		if customDays != nil && *customDays > 0 {
			days = *customDays
		}
		return from.AddDate(0, 0, days)
	default:
		return from.AddDate(0, 0, defaultCustomDays)
	}
}

// DateOnly truncates t to midnight UTC. Due-date comparisons are date-only.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
