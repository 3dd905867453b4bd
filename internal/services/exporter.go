package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/sheets"
	"ledger/internal/transfer"
)

var ErrNoSink = errors.New("no tabular sink configured")

// ExportResult lists what an export produced.
type ExportResult struct {
	StructuredPath string
	TabularPath    string
	Pushed         bool
	Count          int
}

// Exporter writes the backup files and optionally pushes the table to a
// sink. The three outputs are independent and run concurrently.
type Exporter struct {
	store  *Store
	sink   sheets.TabularSink
	logger *log.Logger
}

// NewExporter accepts a nil sink; pushing then fails with ErrNoSink.
func NewExporter(store *Store, sink sheets.TabularSink, logger *log.Logger) *Exporter {
	if logger == nil {
		logger = log.Nop()
	}
	return &Exporter{store: store, sink: sink, logger: logger.WithComponent(log.ComponentExport)}
}

// Export writes finance_backup.json and finance_data.csv into dir. When push
// is set the same rows go to the sink. If only the push fails, the returned
// result still names both files and Pushed is false.
func (e *Exporter) Export(ctx context.Context, dir string, push bool) (ExportResult, error) {
	if push && e.sink == nil {
		return ExportResult{}, ErrNoSink
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ExportResult{}, fmt.Errorf("create export directory: %w", err)
	}

	txns := e.store.List()
	res := ExportResult{
		StructuredPath: filepath.Join(dir, transfer.StructuredFileName),
		TabularPath:    filepath.Join(dir, transfer.TabularFileName),
		Count:          len(txns),
	}

	// Each flag is written by one goroutine and read after Wait.
	var structuredOK, tabularOK bool

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		data, err := transfer.ExportStructured(txns)
		if err != nil {
			return err
		}
		if err := writeFileAtomic(res.StructuredPath, data); err != nil {
			return err
		}
		structuredOK = true
		return nil
	})
	g.Go(func() error {
		if err := writeFileAtomic(res.TabularPath, transfer.ExportTabular(txns)); err != nil {
			return err
		}
		tabularOK = true
		return nil
	})
	if push {
		g.Go(func() error {
			return e.push(gctx, txns)
		})
	}
	if err := g.Wait(); err != nil {
		e.logger.ErrorContext(ctx, "export failed", log.NewFields().WithOperation(log.OpExport).WithError(err).ToSlice()...)
		if structuredOK && tabularOK {
			// Only the push failed; the files on disk are complete.
			return res, err
		}
		return ExportResult{}, err
	}
	res.Pushed = push

	e.logger.InfoContext(ctx, "export written",
		log.FieldOperation, log.OpExport,
		log.FieldPath, dir,
		log.FieldCount, len(txns))
	return res, nil
}

// Push sends the current table to the sink without writing files and
// returns the number of rows pushed.
func (e *Exporter) Push(ctx context.Context) (int, error) {
	if e.sink == nil {
		return 0, ErrNoSink
	}
	txns := e.store.List()
	if err := e.push(ctx, txns); err != nil {
		e.logger.ErrorContext(ctx, "push failed", log.NewFields().WithOperation(log.OpPush).WithError(err).ToSlice()...)
		return 0, err
	}
	return len(txns), nil
}

func (e *Exporter) push(ctx context.Context, txns []core.Transaction) error {
	if err := e.sink.WriteTable(ctx, transfer.TabularHeader, transfer.TabularRows(txns)); err != nil {
		return fmt.Errorf("push table: %w", err)
	}
	return nil
}

// writeFileAtomic writes data next to path, flushes it to disk and renames
// it into place, so a crash leaves either the old file or the new one. The
// file is private to the user.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	name := tmp.Name()
	cleanup := func() { _ = os.Remove(name) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("sync %s: %w", path, err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(name, path); err != nil {
		cleanup()
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
