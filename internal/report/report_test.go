package report

import (
	"testing"
	"time"

	"fintrack/internal/core"
)

func tx(typ core.TransactionType, cents int64, category string, date time.Time) core.Transaction {
	return core.Transaction{
		UserID:   "u1",
		Amount:   core.Money{Cents: cents},
		Type:     typ,
		Category: category,
		Date:     date,
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBalanceEmpty(t *testing.T) {
	if got := Balance(nil); got.Cents != 0 {
		t.Fatalf("Balance(nil) = %d, want 0", got.Cents)
	}
	if got := Balance([]core.Transaction{}); got.Cents != 0 {
		t.Fatalf("Balance([]) = %d, want 0", got.Cents)
	}
}

func TestBalanceIsIncomeMinusExpense(t *testing.T) {
	txs := []core.Transaction{
		tx(core.Income, 10000, "Other", day(2024, 3, 1)),
		tx(core.Expense, 4000, "Food & Dining", day(2024, 3, 2)),
		tx(core.Income, 500, "Other", day(2024, 3, 3)),
		tx(core.Expense, 2000, "Shopping", day(2024, 3, 3)),
	}
	income, expense := Totals(txs)
	if income.Cents != 10500 || expense.Cents != 6000 {
		t.Fatalf("Totals = %d/%d, want 10500/6000", income.Cents, expense.Cents)
	}
	if got := Balance(txs); got.Cents != income.Cents-expense.Cents {
		t.Fatalf("Balance = %d, want %d", got.Cents, income.Cents-expense.Cents)
	}
}

func TestSpendingByCategoryTotalsMatchExpenseSum(t *testing.T) {
	txs := []core.Transaction{
		tx(core.Expense, 1100, "Food & Dining", day(2024, 1, 1)),
		tx(core.Expense, 900, "Food & Dining", day(2024, 1, 2)),
		tx(core.Expense, 300, "Transportation", day(2024, 1, 3)),
		tx(core.Income, 5000, "Other", day(2024, 1, 4)), // ignored
	}
	byCat := SpendingByCategory(txs)
	if len(byCat) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(byCat))
	}
	if byCat["Food & Dining"].Cents != 2000 {
		t.Fatalf("Food & Dining = %d, want 2000", byCat["Food & Dining"].Cents)
	}
	var sum int64
	for _, amt := range byCat {
		sum += amt.Cents
	}
	_, expense := Totals(txs)
	if sum != expense.Cents {
		t.Fatalf("category sum %d != expense total %d", sum, expense.Cents)
	}
}

func TestSpendingByCategoryOrderIndependent(t *testing.T) {
	a := []core.Transaction{
		tx(core.Expense, 100, "A", day(2024, 1, 1)),
		tx(core.Expense, 200, "B", day(2024, 1, 2)),
		tx(core.Expense, 300, "A", day(2024, 1, 3)),
	}
	b := []core.Transaction{a[2], a[0], a[1]}
	ba, bb := SpendingByCategory(a), SpendingByCategory(b)
	for name, amt := range ba {
		if bb[name] != amt {
			t.Fatalf("category %s differs across orders: %d vs %d", name, amt.Cents, bb[name].Cents)
		}
	}
}

func TestDistributionPercentageDriftIsBounded(t *testing.T) {
	// Independent half-up rounding per category: the sum may miss 100, but
	// never by more than the number of categories.
	txs := []core.Transaction{
		tx(core.Expense, 100, "A", day(2024, 1, 1)),
		tx(core.Expense, 100, "B", day(2024, 1, 1)),
		tx(core.Expense, 100, "C", day(2024, 1, 1)),
		tx(core.Expense, 33, "D", day(2024, 1, 1)),
		tx(core.Expense, 67, "E", day(2024, 1, 1)),
	}
	shares := Distribution(txs)
	sum := 0
	for _, s := range shares {
		sum += s.Percentage
	}
	if diff := sum - 100; diff > len(shares) || diff < -len(shares) {
		t.Fatalf("percentage sum %d drifts more than ±%d from 100", sum, len(shares))
	}
}

func TestDistributionThirdsSumTo99(t *testing.T) {
	// Three equal categories round 33.33 down to 33 each; the missing point
	// is not redistributed.
	txs := []core.Transaction{
		tx(core.Expense, 100, "A", day(2024, 1, 1)),
		tx(core.Expense, 100, "B", day(2024, 1, 1)),
		tx(core.Expense, 100, "C", day(2024, 1, 1)),
	}
	sum := 0
	for _, s := range Distribution(txs) {
		if s.Percentage != 33 {
			t.Fatalf("share %s = %d, want 33", s.Category, s.Percentage)
		}
		sum += s.Percentage
	}
	if sum != 99 {
		t.Fatalf("percentage sum = %d, want 99", sum)
	}
}

func TestDistributionZeroTotal(t *testing.T) {
	if shares := Distribution(nil); len(shares) != 0 {
		t.Fatalf("expected empty distribution, got %v", shares)
	}
	// Income-only input has a zero expense grand total.
	txs := []core.Transaction{tx(core.Income, 1000, "Other", day(2024, 1, 1))}
	if shares := Distribution(txs); len(shares) != 0 {
		t.Fatalf("income-only input should produce no shares, got %v", shares)
	}
}

func TestDistributionDeterministicOrder(t *testing.T) {
	txs := []core.Transaction{
		tx(core.Expense, 100, "B", day(2024, 1, 1)),
		tx(core.Expense, 100, "A", day(2024, 1, 1)),
		tx(core.Expense, 300, "C", day(2024, 1, 1)),
	}
	shares := Distribution(txs)
	want := []string{"C", "A", "B"} // amount desc, then name asc on ties
	for i, s := range shares {
		if s.Category != want[i] {
			t.Fatalf("share %d = %s, want %s", i, s.Category, want[i])
		}
	}
}

func TestPeriodWindowsAreNested(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	txs := []core.Transaction{
		tx(core.Expense, 100, "A", day(2024, 3, 15)),  // week
		tx(core.Expense, 100, "A", day(2024, 3, 9)),   // week (7 calendar days back)
		tx(core.Expense, 100, "A", day(2024, 3, 1)),   // month, not week
		tx(core.Expense, 100, "A", day(2024, 1, 2)),   // year only
		tx(core.Expense, 100, "A", day(2023, 12, 31)), // outside
		tx(core.Income, 100, "A", day(2024, 3, 10)),   // week, income
	}
	week := FilterByPeriod(txs, Week, now)
	month := FilterByPeriod(txs, Month, now)
	year := FilterByPeriod(txs, Year, now)
	if len(week) != 3 || len(month) != 4 || len(year) != 5 {
		t.Fatalf("window sizes = %d/%d/%d, want 3/4/5", len(week), len(month), len(year))
	}
	contains := func(haystack []core.Transaction, needle core.Transaction) bool {
		for _, h := range haystack {
			if h.Date.Equal(needle.Date) && h.Type == needle.Type {
				return true
			}
		}
		return false
	}
	for _, w := range week {
		if !contains(month, w) {
			t.Fatalf("week member %v missing from month window", w.Date)
		}
	}
	for _, m := range month {
		if !contains(year, m) {
			t.Fatalf("month member %v missing from year window", m.Date)
		}
	}
}

func TestWeekIsCalendarDays(t *testing.T) {
	// now late in the day: a record exactly 7 calendar days back at any hour
	// is inside the window even though it is more than 168 hours ago.
	now := time.Date(2024, 3, 15, 23, 0, 0, 0, time.UTC)
	old := time.Date(2024, 3, 8, 1, 0, 0, 0, time.UTC)
	txs := []core.Transaction{tx(core.Expense, 100, "A", old)}
	if got := FilterByPeriod(txs, Week, now); len(got) != 1 {
		t.Fatalf("record 7 calendar days back should be in the week window")
	}
	txs[0].Date = time.Date(2024, 3, 7, 23, 59, 0, 0, time.UTC)
	if got := FilterByPeriod(txs, Week, now); len(got) != 0 {
		t.Fatalf("record 8 calendar days back should be outside the week window")
	}
}

func TestExpensesByPeriodDropsIncome(t *testing.T) {
	now := day(2024, 3, 15)
	txs := []core.Transaction{
		tx(core.Income, 100, "Other", day(2024, 3, 14)),
		tx(core.Expense, 200, "Shopping", day(2024, 3, 14)),
	}
	got := ExpensesByPeriod(txs, Month, now)
	if len(got) != 1 || got[0].Type != core.Expense {
		t.Fatalf("ExpensesByPeriod = %v, want the single expense", got)
	}
}

func TestMonthToDateSpend(t *testing.T) {
	now := time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC)
	txs := []core.Transaction{
		tx(core.Expense, 4000, "Food & Dining", day(2024, 3, 2)),
		tx(core.Expense, 2000, "Shopping", day(2024, 2, 28)), // previous month
		tx(core.Income, 9000, "Other", day(2024, 3, 10)),
	}
	if got := MonthToDateSpend(txs, now); got.Cents != 4000 {
		t.Fatalf("MonthToDateSpend = %d, want 4000", got.Cents)
	}
	if got := MonthToDateSpend(nil, now); got.Cents != 0 {
		t.Fatalf("MonthToDateSpend(nil) = %d, want 0", got.Cents)
	}
}

func TestBuildOverview(t *testing.T) {
	now := day(2024, 3, 15)
	txs := []core.Transaction{
		tx(core.Income, 10000, "Other", day(2024, 3, 1)),
		tx(core.Expense, 4000, "Food & Dining", day(2024, 3, 2)),
		tx(core.Expense, 2000, "Shopping", day(2024, 2, 3)),
	}
	ov := BuildOverview(txs, now)
	if ov.Balance.Cents != 4000 || ov.TotalIncome.Cents != 10000 || ov.TotalExpense.Cents != 6000 {
		t.Fatalf("overview = %+v", ov)
	}
	if ov.MonthToDate.Cents != 4000 {
		t.Fatalf("month-to-date = %d, want 4000", ov.MonthToDate.Cents)
	}
}

// Scenario from the insights screen: one income and two expenses.
func TestScenarioBalanceAndDistribution(t *testing.T) {
	txs := []core.Transaction{
		tx(core.Income, 10000, "Other", day(2024, 3, 1)),
		tx(core.Expense, 4000, "Food & Dining", day(2024, 3, 2)),
		tx(core.Expense, 2000, "Shopping", day(2024, 3, 3)),
	}
	if got := Balance(txs); got.Cents != 4000 {
		t.Fatalf("balance = %d, want 4000", got.Cents)
	}
	byCat := SpendingByCategory(txs)
	if byCat["Food & Dining"].Cents != 4000 || byCat["Shopping"].Cents != 2000 {
		t.Fatalf("byCat = %v", byCat)
	}
	shares := Distribution(txs)
	pct := map[string]int{}
	sum := 0
	for _, s := range shares {
		pct[s.Category] = s.Percentage
		sum += s.Percentage
	}
	if pct["Food & Dining"] != 67 || pct["Shopping"] != 33 {
		t.Fatalf("percentages = %v, want 67/33", pct)
	}
	if sum != 100 {
		t.Fatalf("percentage sum = %d", sum)
	}
}

func TestGroupByDisplayDateLabels(t *testing.T) {
	today := day(2024, 3, 15)
	txs := []core.Transaction{
		tx(core.Expense, 100, "A", day(2024, 3, 15)),
		tx(core.Expense, 200, "B", day(2024, 3, 14)),
		tx(core.Expense, 300, "C", day(2024, 2, 1)),
	}
	groups := GroupByDisplayDate(txs, today)
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	want := []string{"Today", "Yesterday", "Feb 1"}
	for i, g := range groups {
		if g.Label != want[i] {
			t.Fatalf("group %d label = %q, want %q", i, g.Label, want[i])
		}
	}
}

func TestGroupByDisplayDatePartitions(t *testing.T) {
	today := day(2024, 3, 15)
	txs := []core.Transaction{
		tx(core.Expense, 1, "A", day(2024, 3, 15)),
		tx(core.Expense, 2, "B", day(2024, 3, 14)),
		tx(core.Expense, 3, "C", day(2024, 3, 15)),
		tx(core.Income, 4, "D", day(2024, 3, 1)),
		tx(core.Expense, 5, "E", day(2024, 3, 14)),
	}
	groups := GroupByDisplayDate(txs, today)

	// No record lost or duplicated.
	var flat []core.Transaction
	for _, g := range groups {
		flat = append(flat, g.Transactions...)
	}
	if len(flat) != len(txs) {
		t.Fatalf("partition has %d records, want %d", len(flat), len(txs))
	}
	seen := map[int64]bool{}
	for _, tx := range flat {
		if seen[tx.Amount.Cents] {
			t.Fatalf("record %d duplicated", tx.Amount.Cents)
		}
		seen[tx.Amount.Cents] = true
	}

	// Groups appear in first-occurrence order; members keep input order.
	if groups[0].Label != "Today" || groups[1].Label != "Yesterday" || groups[2].Label != "Mar 1" {
		t.Fatalf("group order = %v", []string{groups[0].Label, groups[1].Label, groups[2].Label})
	}
	if groups[0].Transactions[0].Amount.Cents != 1 || groups[0].Transactions[1].Amount.Cents != 3 {
		t.Fatalf("Today group order broken: %v", groups[0].Transactions)
	}
	if groups[1].Transactions[0].Amount.Cents != 2 || groups[1].Transactions[1].Amount.Cents != 5 {
		t.Fatalf("Yesterday group order broken: %v", groups[1].Transactions)
	}
}

func TestEmptyInputDegenerateValues(t *testing.T) {
	now := day(2024, 3, 15)
	if got := Balance(nil); got.Cents != 0 {
		t.Fatalf("Balance")
	}
	if got := SpendingByCategory(nil); len(got) != 0 {
		t.Fatalf("SpendingByCategory")
	}
	if got := Distribution(nil); len(got) != 0 {
		t.Fatalf("Distribution")
	}
	if got := GroupByDisplayDate(nil, now); len(got) != 0 {
		t.Fatalf("GroupByDisplayDate")
	}
	if got := FilterByPeriod(nil, Week, now); len(got) != 0 {
		t.Fatalf("FilterByPeriod")
	}
	if got := MonthToDateSpend(nil, now); got.Cents != 0 {
		t.Fatalf("MonthToDateSpend")
	}
}

func TestParsePeriod(t *testing.T) {
	for _, s := range []string{"week", "Week", " MONTH ", "year"} {
		if _, err := ParsePeriod(s); err != nil {
			t.Fatalf("ParsePeriod(%q) unexpected error: %v", s, err)
		}
	}
	if _, err := ParsePeriod("decade"); err == nil {
		t.Fatalf("expected error for unknown period")
	}
}
