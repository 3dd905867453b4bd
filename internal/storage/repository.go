package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/transfer"
)

// CurrentVersion is the envelope version written by Save. Version 1 is the
// legacy bare array.
const CurrentVersion = 2

// DefaultSlotKey names the slot holding the collection.
const DefaultSlotKey = "finance_txns"

type envelope struct {
	Version      int             `json:"version"`
	Transactions json.RawMessage `json:"transactions"`
}

// LoadResult is what Load recovered. Transactions is empty unless State is
// StateLoaded; Cause explains a StateCorrupt result.
type LoadResult struct {
	Transactions []core.Transaction
	State        State
	Version      int
	Cause        error
}

// Repository loads and saves the whole collection through a Slot.
type Repository struct {
	slot   Slot
	logger *log.Logger
}

func NewRepository(slot Slot, logger *log.Logger) *Repository {
	if logger == nil {
		logger = log.Nop()
	}
	return &Repository{slot: slot, logger: logger.WithComponent(log.ComponentStorage)}
}

// Load reads the slot. Absent, empty and corrupt content all produce an
// empty collection; only a failure of the medium is returned as an error,
// wrapping ErrRead.
func (r *Repository) Load(ctx context.Context) (LoadResult, error) {
	data, err := r.slot.Read(ctx)
	if errors.Is(err, ErrSlotAbsent) {
		return LoadResult{State: StateAbsent}, nil
	}
	if err != nil {
		r.logger.ErrorContext(ctx, "slot read failed", log.NewFields().WithOperation(log.OpLoad).WithError(err).ToSlice()...)
		return LoadResult{State: StateAbsent}, fmt.Errorf("%w: %w", ErrRead, err)
	}

	res := Decode(data)
	switch res.State {
	case StateCorrupt:
		r.logger.WarnContext(ctx, "stored data is corrupt, starting empty",
			log.FieldOperation, log.OpLoad,
			log.FieldError, res.Cause.Error())
	default:
		r.logger.DebugContext(ctx, "collection loaded",
			log.FieldOperation, log.OpLoad,
			log.FieldState, res.State.String(),
			log.FieldVersion, res.Version,
			log.FieldCount, len(res.Transactions))
	}
	return res, nil
}

// Save replaces the slot content with txns in one write. Failures wrap
// ErrWrite.
func (r *Repository) Save(ctx context.Context, txns []core.Transaction) error {
	data, err := Encode(txns)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err := r.slot.Write(ctx, data); err != nil {
		r.logger.ErrorContext(ctx, "slot write failed", log.NewFields().WithOperation(log.OpSave).WithCount(len(txns)).WithError(err).ToSlice()...)
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

// Encode renders the versioned envelope.
func Encode(txns []core.Transaction) ([]byte, error) {
	body, err := transfer.MarshalCollection(txns)
	if err != nil {
		return nil, fmt.Errorf("encode collection: %w", err)
	}
	return json.Marshal(envelope{Version: CurrentVersion, Transactions: body})
}

// Decode classifies raw slot content. It never fails: anything unreadable is
// reported as StateCorrupt.
func Decode(data []byte) LoadResult {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return LoadResult{State: StateEmpty}
	}

	version, body := 1, trimmed
	if trimmed[0] == '{' {
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return corrupt(err)
		}
		if env.Version != CurrentVersion {
			return corrupt(fmt.Errorf("unsupported version %d", env.Version))
		}
		version, body = env.Version, env.Transactions
		if len(bytes.TrimSpace(body)) == 0 {
			body = []byte("[]")
		}
	}

	txns, err := transfer.ImportStructured(body)
	if err != nil {
		return corrupt(err)
	}
	if len(txns) == 0 {
		return LoadResult{State: StateEmpty, Version: version}
	}
	return LoadResult{Transactions: txns, State: StateLoaded, Version: version}
}

func corrupt(err error) LoadResult {
	return LoadResult{State: StateCorrupt, Cause: err}
}
