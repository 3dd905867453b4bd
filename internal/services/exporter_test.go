package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	sinkmem "ledger/internal/sheets/memory"
	"ledger/internal/transfer"
)

type brokenSink struct{}

func (brokenSink) WriteTable(context.Context, []string, [][]string) error {
	return errors.New("quota exceeded")
}

func TestExportWritesBothFiles(t *testing.T) {
	s, _ := newTestStore(t)
	seed(t, s, scenarioTxns()...)
	dir := filepath.Join(t.TempDir(), "out")

	res, err := NewExporter(s, nil, nil).Export(context.Background(), dir, false)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if res.Count != 3 || res.Pushed {
		t.Fatalf("unexpected result %+v", res)
	}

	wantJSON, _ := transfer.ExportStructured(s.List())
	wantCSV := transfer.ExportTabular(s.List())
	for path, want := range map[string][]byte{res.StructuredPath: wantJSON, res.TabularPath: wantCSV} {
		got, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		if string(got) != string(want) {
			t.Fatalf("%s content mismatch", path)
		}
		info, _ := os.Stat(path)
		if info.Mode().Perm() != 0o600 {
			t.Fatalf("%s mode %v, want 0600", path, info.Mode().Perm())
		}
	}
	if filepath.Base(res.StructuredPath) != "finance_backup.json" || filepath.Base(res.TabularPath) != "finance_data.csv" {
		t.Fatalf("unexpected file names %+v", res)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 2 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestExportedBackupImportsBack(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	seed(t, s, scenarioTxns()...)
	res, err := NewExporter(s, nil, nil).Export(ctx, t.TempDir(), false)
	if err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(res.StructuredPath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	other, _ := newTestStore(t)
	if out := NewImporter(other, nil).Import(ctx, f); out.Err != nil {
		t.Fatalf("import: %v", out.Err)
	}
	want, got := s.List(), other.List()
	for i := range want {
		if !want[i].Equal(got[i]) {
			t.Fatalf("round trip changed record %d", i)
		}
	}
}

func TestExportPushesToSink(t *testing.T) {
	s, _ := newTestStore(t)
	seed(t, s, scenarioTxns()...)
	sink := sinkmem.New()

	res, err := NewExporter(s, sink, nil).Export(context.Background(), t.TempDir(), true)
	if err != nil || !res.Pushed {
		t.Fatalf("export with push: %+v %v", res, err)
	}
	header, rows, pushes := sink.Table()
	if pushes != 1 || len(header) != 6 || len(rows) != 3 || rows[0][0] != "a" {
		t.Fatalf("unexpected table %v %v (%d pushes)", header, rows, pushes)
	}
}

func TestExportPushErrors(t *testing.T) {
	s, _ := newTestStore(t)
	seed(t, s, scenarioTxns()...)

	if _, err := NewExporter(s, nil, nil).Export(context.Background(), t.TempDir(), true); !errors.Is(err, ErrNoSink) {
		t.Fatalf("expected ErrNoSink, got %v", err)
	}
	if _, err := NewExporter(s, nil, nil).Push(context.Background()); !errors.Is(err, ErrNoSink) {
		t.Fatalf("expected ErrNoSink, got %v", err)
	}
	if _, err := NewExporter(s, brokenSink{}, nil).Push(context.Background()); err == nil {
		t.Fatalf("expected push failure to surface")
	}
}

func TestExportPushFailureKeepsFiles(t *testing.T) {
	s, _ := newTestStore(t)
	seed(t, s, scenarioTxns()...)

	res, err := NewExporter(s, brokenSink{}, nil).Export(context.Background(), t.TempDir(), true)
	if err == nil {
		t.Fatalf("expected push failure to surface")
	}
	if res.Pushed || res.Count != 3 || res.StructuredPath == "" || res.TabularPath == "" {
		t.Fatalf("files written before the push failed should be reported: %+v", res)
	}
	for _, path := range []string{res.StructuredPath, res.TabularPath} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("%s missing: %v", path, err)
		}
	}
}

func TestPushWithoutFiles(t *testing.T) {
	s, _ := newTestStore(t)
	seed(t, s, scenarioTxns()...)
	sink := sinkmem.New()

	n, err := NewExporter(s, sink, nil).Push(context.Background())
	if err != nil || n != 3 {
		t.Fatalf("push: n=%d err=%v", n, err)
	}
	if _, rows, pushes := sink.Table(); pushes != 1 || len(rows) != 3 {
		t.Fatalf("unexpected sink state: %d rows, %d pushes", len(rows), pushes)
	}
}
