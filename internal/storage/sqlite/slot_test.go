package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"ledger/internal/storage"
)

func openTemp(t *testing.T) (*DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "ledger.db")
	db, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, path
}

func TestSlotReadAbsent(t *testing.T) {
	db, _ := openTemp(t)
	if _, err := db.Slot("finance_txns").Read(context.Background()); !errors.Is(err, storage.ErrSlotAbsent) {
		t.Fatalf("expected ErrSlotAbsent, got %v", err)
	}
}

func TestSlotWriteOverwrites(t *testing.T) {
	ctx := context.Background()
	db, _ := openTemp(t)
	slot := db.Slot("finance_txns")

	for _, v := range []string{"first", "second"} {
		if err := slot.Write(ctx, []byte(v)); err != nil {
			t.Fatalf("write %q: %v", v, err)
		}
	}
	got, err := slot.Read(ctx)
	if err != nil || string(got) != "second" {
		t.Fatalf("expected second, got %q (%v)", got, err)
	}

	if _, err := db.Slot("other").Read(ctx); !errors.Is(err, storage.ErrSlotAbsent) {
		t.Fatalf("slots must be independent, got %v", err)
	}
}

func TestSlotSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	db, path := openTemp(t)
	if err := db.Slot("k").Write(ctx, []byte(`[]`)); err != nil {
		t.Fatal(err)
	}
	db.Close()

	again, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer again.Close()
	got, err := again.Slot("k").Read(ctx)
	if err != nil || string(got) != `[]` {
		t.Fatalf("expected persisted value, got %q (%v)", got, err)
	}
}

func TestRunMigrationsIdempotent(t *testing.T) {
	_, path := openTemp(t)
	if err := RunMigrations(path); err != nil {
		t.Fatalf("second migration run: %v", err)
	}
}
