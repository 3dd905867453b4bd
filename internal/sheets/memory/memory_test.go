package memory

import (
	"context"
	"testing"
)

func TestSinkReplacesTable(t *testing.T) {
	s := New()
	ctx := context.Background()

	rows := [][]string{{"a", "1"}, {"b", "2"}}
	if err := s.WriteTable(ctx, []string{"id", "amount"}, rows); err != nil {
		t.Fatal(err)
	}
	rows[0][0] = "mutated"

	if err := s.WriteTable(ctx, []string{"id", "amount"}, rows[1:]); err != nil {
		t.Fatal(err)
	}

	header, got, pushes := s.Table()
	if pushes != 2 {
		t.Fatalf("expected 2 pushes, got %d", pushes)
	}
	if len(header) != 2 || header[0] != "id" {
		t.Fatalf("unexpected header %v", header)
	}
	if len(got) != 1 || got[0][0] != "b" {
		t.Fatalf("expected only the last table, got %v", got)
	}
}
