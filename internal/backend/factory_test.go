package backend

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"ledger/internal/config"
	"ledger/internal/storage"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{Backend: "sheets"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
	got, err := FromAppConfig(&config.Config{Backend: "sqlite", SQLitePath: "x.db", SlotKey: "k"})
	if err != nil || got.Type != SQLiteBackend || got.SQLitePath != "x.db" || got.SlotKey != "k" {
		t.Fatalf("unexpected conversion %+v (%v)", got, err)
	}
}

func TestCreateBackend(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(nil)

	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend, SlotKey: "finance_txns"}, false},
		{"sqlite", Config{Type: SQLiteBackend, SlotKey: "finance_txns", SQLitePath: filepath.Join(t.TempDir(), "db", "ledger.db")}, false},
		{"sqlite without path", Config{Type: SQLiteBackend, SlotKey: "finance_txns"}, true},
		{"missing slot key", Config{Type: MemoryBackend}, true},
		{"unknown type", Config{Type: "sheets", SlotKey: "k"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.CreateBackend(ctx, tt.config)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CreateBackend() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer res.Close()

			if _, err := res.Slot.Read(ctx); !errors.Is(err, storage.ErrSlotAbsent) {
				t.Fatalf("fresh slot should be absent, got %v", err)
			}
			if err := res.Slot.Write(ctx, []byte("[]")); err != nil {
				t.Fatalf("write: %v", err)
			}
		})
	}
}
