package services

import (
	"context"
	"testing"
	"time"

	"ledger/internal/core"
	"ledger/internal/report"
)

func TestViewsMatchReport(t *testing.T) {
	s, _ := newTestStore(t)
	seed(t, s, scenarioTxns()...)
	v := NewViews(s, 8, time.Minute)

	tot := v.Totals()
	if tot.Income.IntPart() != 1000 || tot.Expense.IntPart() != 500 || tot.Balance.IntPart() != 500 {
		t.Fatalf("unexpected totals %+v", tot)
	}

	l := v.Listing(report.Criteria{})
	sameIDs(t, l.Transactions, "c", "b", "a")
	if len(l.Months) != 2 || l.Months[0].Period != "2024-02" || l.Months[0].BarPercent != 7 {
		t.Fatalf("unexpected months %+v", l.Months)
	}
}

func TestViewsCacheFollowsRevision(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	seed(t, s, scenarioTxns()...)
	v := NewViews(s, 8, 0)
	c := report.Criteria{Type: core.Expense}

	first := v.Listing(c)
	_ = v.Listing(c)
	if st := v.Stats(); st.Hits != 1 || st.Misses != 1 {
		t.Fatalf("expected one hit and one miss, got %+v", st)
	}

	if err := s.Remove(ctx, "c"); err != nil {
		t.Fatal(err)
	}
	after := v.Listing(c)
	if len(first.Transactions) != 2 || len(after.Transactions) != 1 {
		t.Fatalf("stale listing served: before=%d after=%d", len(first.Transactions), len(after.Transactions))
	}
	if v.Totals().Expense.IntPart() != 400 {
		t.Fatalf("stale totals served")
	}
}

func TestListingCallersCannotAlterCache(t *testing.T) {
	s, _ := newTestStore(t)
	seed(t, s, scenarioTxns()...)
	v := NewViews(s, 8, 0)
	c := report.Criteria{}

	first := v.Listing(c)
	first.Transactions[0].Category = "changed"
	first.Months[0].BarPercent = 0

	again := v.Listing(c)
	if again.Transactions[0].Category == "changed" || again.Months[0].BarPercent != 7 {
		t.Fatalf("cached listing was modified through a returned copy: %+v", again)
	}
	stored, _ := s.Get(again.Transactions[0].ID)
	if !stored.Equal(again.Transactions[0]) {
		t.Fatalf("listing diverged from store: %+v vs %+v", again.Transactions[0], stored)
	}
	if st := v.Stats(); st.Hits != 1 {
		t.Fatalf("second listing should come from the cache, got %+v", st)
	}
}
