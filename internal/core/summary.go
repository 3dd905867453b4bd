package core

import "github.com/shopspring/decimal"

// Totals is the aggregate over a set of transactions.
type Totals struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
	Balance decimal.Decimal // Income - Expense
}

// MonthSummary is one row of the monthly breakdown.
type MonthSummary struct {
	Period     string // YYYY-MM
	Income     decimal.Decimal
	Expense    decimal.Decimal
	Total      decimal.Decimal // Income + Expense
	BarPercent int             // 0-100, relative to the largest Total
}
