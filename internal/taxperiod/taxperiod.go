// Package taxperiod provides pure functions for UAE tax filing deadlines
// and document expiry risk. These functions have ZERO dependencies on HTTP,
// database, or any other infrastructure — making them trivially testable
// and reusable. The current moment is always passed in explicitly.
package taxperiod

import "time"

// ── Risk Bands ───────────────────────────────────────────────────
// A band is always computed from (daysRemaining, now). It is never
// stored in the database.

const (
	BandUnknown  = "unknown"  // No expiry date on record
	BandExpired  = "expired"  // Expiry date is in the past
	BandCritical = "critical" // Expires within 30 days
	BandWarning  = "warning"  // Expires within 31–90 days
	BandHealthy  = "healthy"  // More than 90 days remaining
)

// ── VAT Period Types ─────────────────────────────────────────────

const (
	PeriodMonthly   = "monthly"
	PeriodQuarterly = "quarterly"
)

// VATConfig is a contact's VAT filing configuration.
// FirstPeriodEnd is the end date of the first reporting period ever
// configured; ReturnDueDays is how many calendar days after a period's
// end the return is due.
type VATConfig struct {
	Registered     bool
	PeriodType     string // "monthly" | "quarterly" — anything else falls back to monthly
	FirstPeriodEnd *time.Time
	ReturnDueDays  *int
}

// CTConfig is a contact's Corporate Tax filing configuration.
// FinancialYearStartMonth is 1–12; FilingDueMonths is how many calendar
// months after the financial year end the CT return is due.
type CTConfig struct {
	Registered              bool
	FinancialYearStartMonth *int
	FilingDueMonths         *int
}

// ── Date Utilities ───────────────────────────────────────────────

// ToDateOnly returns the calendar-date portion (YYYY-MM-DD) of a date or
// datetime string. The leading 10 characters are trusted as the calendar
// date; no timezone conversion is performed. Empty input yields "".
func ToDateOnly(s string) string {
	if len(s) < 10 {
		return ""
	}
	return s[:10]
}

// DaysUntil returns the signed number of whole days between today at
// midnight and the given YYYY-MM-DD date (positive = future, negative =
// past, 0 = today). Returns nil for an empty or unparseable date.
func DaysUntil(dateOnly string, now time.Time) *int {
	d := ToDateOnly(dateOnly)
	if d == "" {
		return nil
	}
	target, err := time.Parse("2006-01-02", d)
	if err != nil {
		return nil
	}
	days := daysBetween(now, target)
	return &days
}

// ── VAT Due-Date Projection ──────────────────────────────────────

// NextVATDue computes the due date of the next VAT return: the first
// period boundary on or after today, plus the filing grace window.
// Periods advance from FirstPeriodEnd in steps of one month (monthly,
// the default) or three months (quarterly). Returns nil when
// FirstPeriodEnd or ReturnDueDays is not configured.
//
// A period ending today is still the "next" period — its return is due,
// not yet overdue — so the walk uses a strict before-today comparison.
func NextVATDue(cfg VATConfig, now time.Time) *time.Time {
	if cfg.FirstPeriodEnd == nil || cfg.ReturnDueDays == nil {
		return nil
	}

	step := 1
	if cfg.PeriodType == PeriodQuarterly {
		step = 3
	}

	today := truncateToDay(now)
	periodEnd := truncateToDay(*cfg.FirstPeriodEnd)
	for periodEnd.Before(today) {
		periodEnd = AddMonths(periodEnd, step)
	}

	due := periodEnd.AddDate(0, 0, *cfg.ReturnDueDays)
	return &due
}

// ── Corporate Tax Due-Date Projection ────────────────────────────

// NextCTDue computes the due date of the next Corporate Tax return:
// the most recently completed (or completing-today) financial year end,
// plus FilingDueMonths calendar months. The financial year end is the
// last day of the month preceding FinancialYearStartMonth; for a January
// start that is December 31 of the prior calendar year. Returns nil when
// FinancialYearStartMonth or FilingDueMonths is not configured or the
// start month is out of range.
//
// Unlike the VAT projection this steps back at most one year. It assumes
// it is evaluated at least once per financial year; it does not walk
// across multiple dormant years.
func NextCTDue(cfg CTConfig, now time.Time) *time.Time {
	if cfg.FinancialYearStartMonth == nil || cfg.FilingDueMonths == nil {
		return nil
	}
	startMonth := *cfg.FinancialYearStartMonth
	if startMonth < 1 || startMonth > 12 {
		return nil
	}

	today := truncateToDay(now)

	// Day 0 of the start month normalizes to the last day of the
	// preceding month.
	yearEnd := time.Date(today.Year(), time.Month(startMonth), 0, 0, 0, 0, 0, time.UTC)
	if yearEnd.After(today) {
		yearEnd = time.Date(today.Year()-1, time.Month(startMonth), 0, 0, 0, 0, 0, time.UTC)
	}

	due := AddMonths(yearEnd, *cfg.FilingDueMonths)
	return &due
}

// ── Expiry Risk Classification ───────────────────────────────────

// ClassifyExpiry maps days-remaining to a risk band. Total over its
// domain: every input (including nil) maps to exactly one band, and the
// bands partition the integer line at 0, 30 and 90.
func ClassifyExpiry(daysRemaining *int) string {
	switch {
	case daysRemaining == nil:
		return BandUnknown
	case *daysRemaining < 0:
		return BandExpired
	case *daysRemaining <= 30:
		return BandCritical
	case *daysRemaining <= 90:
		return BandWarning
	default:
		return BandHealthy
	}
}

// BandColor returns the display color class for a risk band.
func BandColor(band string) string {
	switch band {
	case BandExpired, BandCritical:
		return "danger"
	case BandWarning:
		return "warning"
	case BandHealthy:
		return "success"
	default:
		return "neutral"
	}
}

// ── Calendar Arithmetic ──────────────────────────────────────────

// AddMonths advances a date by n calendar months, clamping to the last
// valid day when the target month is shorter (Jan 31 + 1 month is
// Feb 29 in a leap year, not Mar 2). Plain AddDate would spill into the
// following month, which shifts VAT due dates; the clamped form matches
// the period arithmetic the filing schedule is defined against.
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	if last := lastDayOfMonth(first.Year(), first.Month()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, t.Location())
}

// lastDayOfMonth returns the number of days in the given month.
func lastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// truncateToDay strips the time component, keeping only the date.
// The result is anchored in UTC so day differences are exact whole days
// regardless of the caller's zone or DST transitions.
func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// daysBetween returns the whole-day difference from a's calendar date to
// b's calendar date.
func daysBetween(a, b time.Time) int {
	return int(truncateToDay(b).Sub(truncateToDay(a)).Hours() / 24)
}
