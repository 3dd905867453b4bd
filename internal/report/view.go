package report

import (
	"slices"

	"ledger/internal/core"
)

// Listing is what the presentation layer renders for one criteria: the
// matching transactions in display order plus the monthly breakdown of
// exactly those transactions.
type Listing struct {
	Transactions []core.Transaction
	Months       []core.MonthSummary
}

// Clone returns a listing that shares no backing arrays with l.
func (l Listing) Clone() Listing {
	return Listing{
		Transactions: slices.Clone(l.Transactions),
		Months:       slices.Clone(l.Months),
	}
}

// View runs the display pipeline: filter, sort most recent first, then break
// the visible transactions down by month.
func View(txns []core.Transaction, c Criteria) Listing {
	visible := SortByDateDesc(Filter(txns, c))
	return Listing{
		Transactions: visible,
		Months:       MonthlyBreakdown(visible),
	}
}
