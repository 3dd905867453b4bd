package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
	"ledger/internal/storage"
	"ledger/internal/storage/memory"
)

func TestAddPersistsAcrossReopen(t *testing.T) {
	s, slot := newTestStore(t)
	seed(t, s, scenarioTxns()...)

	again := reopen(t, slot)
	got := again.List()
	sameIDs(t, got, "a", "b", "c")
	for i, want := range scenarioTxns() {
		if !want.Equal(got[i]) {
			t.Fatalf("record %d changed: %+v", i, got[i])
		}
	}
}

func TestAddRejectsDuplicateAndInvalid(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	seed(t, s, scenarioTxns()[0])

	dup := mkTxn("a", "2024-03-01", core.Expense, "1")
	if err := s.Add(ctx, dup); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	bad := mkTxn("z", "2024-03-01", core.Expense, "1")
	bad.Amount = decimal.Zero
	if err := s.Add(ctx, bad); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("rejected adds must not change the store, len=%d", s.Len())
	}
	if got, _ := s.Get("a"); got.Type != core.Income {
		t.Fatalf("existing record overwritten: %+v", got)
	}
}

func TestUpdatePreservesIdentity(t *testing.T) {
	ctx := context.Background()
	s, slot := newTestStore(t)
	seed(t, s, scenarioTxns()...)

	amount := decimal.RequireFromString("450.25")
	note := "groceries"
	ok, err := s.Update(ctx, "b", core.Patch{Amount: &amount, Note: &note})
	if err != nil || !ok {
		t.Fatalf("update: ok=%v err=%v", ok, err)
	}

	got, _ := s.Get("b")
	if got.ID != "b" || got.Type != core.Expense || !got.Amount.Equal(amount) || got.Note != note {
		t.Fatalf("unexpected merge %+v", got)
	}
	if s.Len() != 3 {
		t.Fatalf("update changed the count: %d", s.Len())
	}
	persisted, _ := reopen(t, slot).Get("b")
	if !persisted.Equal(got) {
		t.Fatalf("update not persisted: %+v", persisted)
	}
}

func TestUpdateNotFoundAndInvalid(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	seed(t, s, scenarioTxns()...)
	rev := s.Revision()

	ok, err := s.Update(ctx, "missing", core.Patch{})
	if ok || err != nil {
		t.Fatalf("expected not found, got ok=%v err=%v", ok, err)
	}
	if ok, err := s.Update(ctx, "a", core.Patch{}); !ok || err != nil {
		t.Fatalf("empty patch on a known id: ok=%v err=%v", ok, err)
	}

	bad := core.Type("transfer")
	ok, err = s.Update(ctx, "a", core.Patch{Type: &bad})
	if ok || !errors.Is(err, core.ErrInvalidType) {
		t.Fatalf("expected invalid type, got ok=%v err=%v", ok, err)
	}
	if got, _ := s.Get("a"); got.Type != core.Income {
		t.Fatalf("invalid patch mutated the record: %+v", got)
	}
	if s.Revision() != rev {
		t.Fatalf("revision moved without a mutation")
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	seed(t, s, scenarioTxns()...)

	for i := 0; i < 2; i++ {
		if err := s.Remove(ctx, "b"); err != nil {
			t.Fatalf("remove #%d: %v", i, err)
		}
	}
	sameIDs(t, s.List(), "a", "c")
	if s.Revision() != 4 {
		t.Fatalf("expected revision 4, got %d", s.Revision())
	}
}

func TestReplaceAllIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	seed(t, s, scenarioTxns()...)

	dup := []core.Transaction{mkTxn("x", "2024-01-01", core.Income, "1"), mkTxn("x", "2024-01-02", core.Income, "2")}
	if err := s.ReplaceAll(ctx, dup); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	sameIDs(t, s.List(), "a", "b", "c")

	if err := s.ReplaceAll(ctx, dup[:1]); err != nil {
		t.Fatal(err)
	}
	sameIDs(t, s.List(), "x")
}

func TestListReturnsCopy(t *testing.T) {
	s, _ := newTestStore(t)
	seed(t, s, scenarioTxns()...)
	got := s.List()
	got[0].Category = "tampered"
	if again, _ := s.Get("a"); again.Category == "tampered" {
		t.Fatalf("List exposed internal state")
	}
}

func TestPersistFailureKeepsMutation(t *testing.T) {
	ctx := context.Background()
	s, slot := newTestStore(t)
	seed(t, s, scenarioTxns()[0])
	slot.setFailWrite(true)

	err := s.Add(ctx, scenarioTxns()[1])
	if !errors.Is(err, storage.ErrWrite) || !IsPersistError(err) {
		t.Fatalf("expected write error, got %v", err)
	}
	if _, ok := s.Get("b"); !ok {
		t.Fatalf("in-memory mutation must be kept")
	}

	slot.setFailWrite(false)
	sameIDs(t, reopen(t, slot).List(), "a")
}

func TestOpenStoreReportsProblems(t *testing.T) {
	ctx := context.Background()

	broken := &flakySlot{inner: memory.New().Slot("k"), failRead: true}
	s, rep := OpenStore(ctx, storage.NewRepository(broken, nil), nil)
	if !errors.Is(rep.Err, storage.ErrRead) || !rep.Degraded() || s.Len() != 0 {
		t.Fatalf("expected read failure with empty store, got %+v len=%d", rep, s.Len())
	}

	corrupt := memory.New().Slot("k")
	_ = corrupt.Write(ctx, []byte("{not json"))
	s, rep = OpenStore(ctx, storage.NewRepository(corrupt, nil), nil)
	if rep.Err != nil || rep.Result.State != storage.StateCorrupt || !rep.Degraded() || s.Len() != 0 {
		t.Fatalf("expected corrupt report, got %+v", rep)
	}
}

func TestConcurrentMutations(t *testing.T) {
	ctx := context.Background()
	s, slot := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tx := mkTxn(fmt.Sprintf("id-%02d", i), "2024-01-01", core.Expense, "1")
			if err := s.Add(ctx, tx); err != nil {
				t.Errorf("add %d: %v", i, err)
			}
			_ = s.List()
		}(i)
	}
	wg.Wait()

	if s.Len() != 50 || s.Revision() != 50 {
		t.Fatalf("expected 50 records at revision 50, got %d at %d", s.Len(), s.Revision())
	}
	if reopen(t, slot).Len() != 50 {
		t.Fatalf("last persisted state is incomplete")
	}
}
