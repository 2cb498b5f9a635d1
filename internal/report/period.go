package report

import (
	"fmt"
	"strings"
	"time"

	"fintrack/internal/core"
)

const (
	Week  Period = "week"
	Month Period = "month"
	Year  Period = "year"
)

// Period is a relative reporting window anchored to "now".
type Period string

// ParsePeriod maps a user-supplied string to a Period, case-insensitively.
func ParsePeriod(s string) (Period, error) {
	switch Period(strings.ToLower(strings.TrimSpace(s))) {
	case Week:
		return Week, nil
	case Month:
		return Month, nil
	case Year:
		return Year, nil
	}
	return "", fmt.Errorf("unknown period %q", s)
}

// PeriodStart returns the inclusive lower bound of the window anchored at now.
// Week is "now minus 7 calendar days" at midnight, not a rolling 168 hours and
// not an ISO week. Month and Year start at the first day of the current month
// and at January 1 respectively, both at midnight in now's location.
func PeriodStart(p Period, now time.Time) time.Time {
	switch p {
	case Week:
		return time.Date(now.Year(), now.Month(), now.Day()-7, 0, 0, 0, 0, now.Location())
	case Month:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	case Year:
		return time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
	}
	return time.Time{}
}

// FilterByPeriod returns the transactions dated within the window, both income
// and expense. Relative input order is preserved.
func FilterByPeriod(txs []core.Transaction, p Period, now time.Time) []core.Transaction {
	start := PeriodStart(p, now)
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if !tx.Date.Before(start) {
			out = append(out, tx)
		}
	}
	return out
}

// ExpensesByPeriod is FilterByPeriod restricted to expense records. This is
// the subset the insights views aggregate over.
func ExpensesByPeriod(txs []core.Transaction, p Period, now time.Time) []core.Transaction {
	start := PeriodStart(p, now)
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Type == core.Expense && !tx.Date.Before(start) {
			out = append(out, tx)
		}
	}
	return out
}
