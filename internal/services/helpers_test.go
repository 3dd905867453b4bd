package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
	"ledger/internal/storage"
	"ledger/internal/storage/memory"
)

var errDiskFull = errors.New("disk full")

// flakySlot wraps a memory slot and fails reads or writes on demand.
type flakySlot struct {
	inner     storage.Slot
	mu        sync.Mutex
	failRead  bool
	failWrite bool
}

func (f *flakySlot) Read(ctx context.Context) ([]byte, error) {
	f.mu.Lock()
	fail := f.failRead
	f.mu.Unlock()
	if fail {
		return nil, errDiskFull
	}
	return f.inner.Read(ctx)
}

func (f *flakySlot) Write(ctx context.Context, v []byte) error {
	f.mu.Lock()
	fail := f.failWrite
	f.mu.Unlock()
	if fail {
		return errDiskFull
	}
	return f.inner.Write(ctx, v)
}

func (f *flakySlot) setFailWrite(v bool) {
	f.mu.Lock()
	f.failWrite = v
	f.mu.Unlock()
}

func newTestStore(t *testing.T) (*Store, *flakySlot) {
	t.Helper()
	slot := &flakySlot{inner: memory.New().Slot(storage.DefaultSlotKey)}
	s, rep := OpenStore(context.Background(), storage.NewRepository(slot, nil), nil)
	if rep.Err != nil || rep.Result.State != storage.StateAbsent {
		t.Fatalf("unexpected load report %+v", rep)
	}
	return s, slot
}

// reopen loads a second store from the same slot.
func reopen(t *testing.T, slot storage.Slot) *Store {
	t.Helper()
	s, rep := OpenStore(context.Background(), storage.NewRepository(slot, nil), nil)
	if rep.Err != nil {
		t.Fatalf("reopen: %v", rep.Err)
	}
	return s
}

func mkTxn(id, date string, typ core.Type, amount string) core.Transaction {
	d, err := time.Parse(time.DateOnly, date)
	if err != nil {
		panic(err)
	}
	return core.Transaction{ID: id, Date: d, Type: typ, Amount: decimal.RequireFromString(amount)}
}

func scenarioTxns() []core.Transaction {
	return []core.Transaction{
		mkTxn("a", "2024-01-05", core.Income, "1000"),
		mkTxn("b", "2024-01-20", core.Expense, "400"),
		mkTxn("c", "2024-02-01", core.Expense, "100"),
	}
}

func seed(t *testing.T, s *Store, txns ...core.Transaction) {
	t.Helper()
	for _, tx := range txns {
		if err := s.Add(context.Background(), tx); err != nil {
			t.Fatalf("seed %s: %v", tx.ID, err)
		}
	}
}

func sameIDs(t *testing.T, got []core.Transaction, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected ids %v, got %d records", want, len(got))
	}
	for i := range want {
		if got[i].ID != want[i] {
			t.Fatalf("expected ids %v, got %s at %d", want, got[i].ID, i)
		}
	}
}
