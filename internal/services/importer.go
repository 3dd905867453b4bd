package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"ledger/internal/log"
	"ledger/internal/transfer"
)

// ImportOutcome is delivered once per import. Count is the size of the new
// collection; it is zero when Err rejected the import.
type ImportOutcome struct {
	Count int
	Err   error
}

// Applied reports whether the store now holds the imported collection. This
// is also true when only the persist failed.
func (o ImportOutcome) Applied() bool {
	return o.Err == nil || IsPersistError(o.Err)
}

// Importer replaces the store content with a structured backup.
type Importer struct {
	store  *Store
	logger *log.Logger
}

func NewImporter(store *Store, logger *log.Logger) *Importer {
	if logger == nil {
		logger = log.Nop()
	}
	return &Importer{store: store, logger: logger.WithComponent(log.ComponentImport)}
}

// ImportAsync reads r on its own goroutine. The store is untouched until the
// whole input has been read and parsed; the parsed collection is then applied
// in one ReplaceAll. The channel receives exactly one outcome.
func (im *Importer) ImportAsync(ctx context.Context, r io.Reader) <-chan ImportOutcome {
	out := make(chan ImportOutcome, 1)
	go func() {
		defer close(out)
		out <- im.run(ctx, r)
	}()
	return out
}

// Import blocks until the outcome is known.
func (im *Importer) Import(ctx context.Context, r io.Reader) ImportOutcome {
	return <-im.ImportAsync(ctx, r)
}

func (im *Importer) run(ctx context.Context, r io.Reader) ImportOutcome {
	start := time.Now()

	data, err := io.ReadAll(r)
	if err != nil {
		im.logger.ErrorContext(ctx, "import read failed", log.NewFields().WithOperation(log.OpImport).WithError(err).ToSlice()...)
		return ImportOutcome{Err: fmt.Errorf("read import: %w", err)}
	}

	txns, err := transfer.ImportStructured(data)
	if err != nil {
		im.logger.WarnContext(ctx, "import rejected", log.NewFields().WithOperation(log.OpImport).WithError(err).ToSlice()...)
		return ImportOutcome{Err: err}
	}

	if err := im.store.ReplaceAll(ctx, txns); err != nil {
		if IsPersistError(err) {
			return ImportOutcome{Count: len(txns), Err: err}
		}
		return ImportOutcome{Err: err}
	}

	im.logger.InfoContext(ctx, "import applied",
		log.FieldOperation, log.OpImport,
		log.FieldCount, len(txns),
		log.FieldDuration, time.Since(start).Milliseconds())
	return ImportOutcome{Count: len(txns)}
}
