package memory

import (
	"context"
	"errors"
	"testing"

	"ledger/internal/storage"
)

func TestSlotReadWrite(t *testing.T) {
	ctx := context.Background()
	s := New()
	slot := s.Slot("finance_txns")

	if _, err := slot.Read(ctx); !errors.Is(err, storage.ErrSlotAbsent) {
		t.Fatalf("expected ErrSlotAbsent, got %v", err)
	}

	buf := []byte("v1")
	if err := slot.Write(ctx, buf); err != nil {
		t.Fatal(err)
	}
	buf[0] = 'X'

	got, err := s.Slot("finance_txns").Read(ctx)
	if err != nil || string(got) != "v1" {
		t.Fatalf("expected v1 through a second handle, got %q (%v)", got, err)
	}
	got[0] = 'Y'
	again, _ := slot.Read(ctx)
	if string(again) != "v1" {
		t.Fatalf("stored value aliased caller memory: %q", again)
	}
}
