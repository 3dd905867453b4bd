// Package report computes derived views over a transaction collection.
//
// Every function here is pure: inputs are never mutated and no state is
// shared, so callers may invoke them concurrently on read-only snapshots.
package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
)

// PeriodLayout is the time layout of a monthly group key.
const PeriodLayout = "2006-01"

// AnyType disables the type predicate of a Criteria.
const AnyType core.Type = ""

// Criteria selects transactions. Zero bounds are ignored; all set predicates
// are ANDed.
type Criteria struct {
	Type core.Type
	From time.Time // inclusive
	To   time.Time // inclusive up to the end of To's calendar day
}

var hundred = decimal.NewFromInt(100)

// Totals sums income and expense and derives the balance.
func Totals(txns []core.Transaction) core.Totals {
	income, expense := decimal.Zero, decimal.Zero
	for _, t := range txns {
		switch t.Type {
		case core.Income:
			income = income.Add(t.Amount)
		case core.Expense:
			expense = expense.Add(t.Amount)
		}
	}
	return core.Totals{
		Income:  income,
		Expense: expense,
		Balance: income.Sub(expense),
	}
}

// MonthlyBreakdown groups by calendar month, most recent month first, and
// scales each month's total against the largest one.
func MonthlyBreakdown(txns []core.Transaction) []core.MonthSummary {
	groups := make(map[string]*core.MonthSummary)
	for _, t := range txns {
		key := t.Date.Format(PeriodLayout)
		g, ok := groups[key]
		if !ok {
			g = &core.MonthSummary{Period: key, Income: decimal.Zero, Expense: decimal.Zero}
			groups[key] = g
		}
		switch t.Type {
		case core.Income:
			g.Income = g.Income.Add(t.Amount)
		case core.Expense:
			g.Expense = g.Expense.Add(t.Amount)
		}
	}

	out := make([]core.MonthSummary, 0, len(groups))
	largest := decimal.Zero
	for _, g := range groups {
		g.Total = g.Income.Add(g.Expense)
		if g.Total.GreaterThan(largest) {
			largest = g.Total
		}
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period > out[j].Period })

	if largest.IsZero() {
		return out
	}
	for i := range out {
		out[i].BarPercent = int(out[i].Total.Mul(hundred).Div(largest).Round(0).IntPart())
	}
	return out
}

// Filter keeps the transactions matching c, preserving input order.
func Filter(txns []core.Transaction, c Criteria) []core.Transaction {
	var end time.Time
	if !c.To.IsZero() {
		end = EndOfDay(c.To)
	}
	out := make([]core.Transaction, 0, len(txns))
	for _, t := range txns {
		if c.Type != AnyType && t.Type != c.Type {
			continue
		}
		if !c.From.IsZero() && t.Date.Before(c.From) {
			continue
		}
		if !end.IsZero() && t.Date.After(end) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// SortByDateDesc returns a copy ordered most recent first. Equal dates are
// ordered by id so the display order is deterministic.
func SortByDateDesc(txns []core.Transaction) []core.Transaction {
	out := append([]core.Transaction(nil), txns...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].ID < out[j].ID
		}
		return out[i].Date.After(out[j].Date)
	})
	return out
}

// EndOfDay returns the last representable instant of d's calendar day in d's
// location.
func EndOfDay(d time.Time) time.Time {
	y, m, day := d.Date()
	return time.Date(y, m, day+1, 0, 0, 0, 0, d.Location()).Add(-time.Nanosecond)
}

// ParseDay parses a YYYY-MM-DD filter bound as midnight UTC. An empty string
// yields the zero time, meaning "no bound".
func ParseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.DateOnly, s)
}
