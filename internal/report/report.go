// Package report is the aggregation and reporting engine. Every function is a
// pure transformation over an already-materialized transaction list; the store
// delivers a fresh snapshot on each change and callers recompute from scratch.
// Nothing here validates, blocks, or touches I/O.
package report

import (
	"sort"
	"time"

	"fintrack/internal/core"
)

type (
	// CategoryShare is one category's slice of the spending breakdown.
	// Percentage is rounded half-up independently per category, so shares of
	// one breakdown may not sum to exactly 100.
	CategoryShare struct {
		Category   string
		Amount     core.Money
		Percentage int
	}

	// DateGroup is a run of transactions displayed under one date label.
	DateGroup struct {
		Label        string
		Transactions []core.Transaction
	}

	// Overview carries the headline numbers for a user's wallet view.
	Overview struct {
		Balance      core.Money
		TotalIncome  core.Money
		TotalExpense core.Money
		MonthToDate  core.Money
	}
)

// Balance returns total income minus total expense. Empty input yields zero.
func Balance(txs []core.Transaction) core.Money {
	var total core.Money
	for _, tx := range txs {
		if tx.Type == core.Income {
			total = total.Add(tx.Amount)
		} else {
			total = total.Sub(tx.Amount)
		}
	}
	return total
}

// Totals returns the income and expense sums separately.
func Totals(txs []core.Transaction) (income, expense core.Money) {
	for _, tx := range txs {
		if tx.Type == core.Income {
			income = income.Add(tx.Amount)
		} else {
			expense = expense.Add(tx.Amount)
		}
	}
	return income, expense
}

// SpendingByCategory groups expense records by exact category label and sums
// their amounts. Categories absent from the input produce no entry. The
// resulting values do not depend on input order.
func SpendingByCategory(txs []core.Transaction) map[string]core.Money {
	byCat := make(map[string]core.Money)
	for _, tx := range txs {
		if tx.Type != core.Expense {
			continue
		}
		byCat[tx.Category] = byCat[tx.Category].Add(tx.Amount)
	}
	return byCat
}

// Distribution computes the per-category spending breakdown with integer
// percentages of the expense grand total. When the grand total is zero every
// percentage is zero. Shares are ordered by amount descending, then category
// name ascending, so equal inputs always produce identical output.
func Distribution(txs []core.Transaction) []CategoryShare {
	byCat := SpendingByCategory(txs)
	var grandTotal int64
	for _, amt := range byCat {
		grandTotal += amt.Cents
	}

	shares := make([]CategoryShare, 0, len(byCat))
	for name, amt := range byCat {
		pct := 0
		if grandTotal > 0 {
			// round half-up
			pct = int((amt.Cents*100 + grandTotal/2) / grandTotal)
		}
		shares = append(shares, CategoryShare{Category: name, Amount: amt, Percentage: pct})
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Amount.Cents != shares[j].Amount.Cents {
			return shares[i].Amount.Cents > shares[j].Amount.Cents
		}
		return shares[i].Category < shares[j].Category
	})
	return shares
}

// MonthToDateSpend sums expense amounts dated on or after the first calendar
// day of now's month.
func MonthToDateSpend(txs []core.Transaction, now time.Time) core.Money {
	var total core.Money
	for _, tx := range ExpensesByPeriod(txs, Month, now) {
		total = total.Add(tx.Amount)
	}
	return total
}

// BuildOverview computes the headline wallet numbers in one pass over the
// snapshot.
func BuildOverview(txs []core.Transaction, now time.Time) Overview {
	income, expense := Totals(txs)
	return Overview{
		Balance:      income.Sub(expense),
		TotalIncome:  income,
		TotalExpense: expense,
		MonthToDate:  MonthToDateSpend(txs, now),
	}
}

// DisplayDateLabel renders a transaction date for chronological grouping:
// "Today" and "Yesterday" relative to today's calendar day, a short month/day
// string ("Mar 5") otherwise.
func DisplayDateLabel(date, today time.Time) string {
	y, m, d := today.Date()
	ty, tm, td := date.Date()
	if y == ty && m == tm && d == td {
		return "Today"
	}
	yy, ym, yd := today.AddDate(0, 0, -1).Date()
	if yy == ty && ym == tm && yd == td {
		return "Yesterday"
	}
	return date.Format("Jan 2")
}

// GroupByDisplayDate partitions the input into labeled date groups. Groups are
// emitted in the order their first member appears while scanning the input,
// and each group preserves the relative input order of its members. Every
// record lands in exactly one group.
func GroupByDisplayDate(txs []core.Transaction, today time.Time) []DateGroup {
	groups := make([]DateGroup, 0)
	index := make(map[string]int)
	for _, tx := range txs {
		label := DisplayDateLabel(tx.Date, today)
		i, ok := index[label]
		if !ok {
			i = len(groups)
			index[label] = i
			groups = append(groups, DateGroup{Label: label})
		}
		groups[i].Transactions = append(groups[i].Transactions, tx)
	}
	return groups
}
