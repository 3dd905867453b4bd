package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/storage"
)

var (
	ErrDuplicateID = errors.New("transaction id already exists")
	ErrNotFound    = errors.New("transaction not found")
)

// Repository is the persistence the Store writes through.
type Repository interface {
	Load(ctx context.Context) (storage.LoadResult, error)
	Save(ctx context.Context, txns []core.Transaction) error
}

// LoadReport tells the caller how the initial load went. Err is non-nil when
// the medium could not be read; the store then starts empty.
type LoadReport struct {
	Result storage.LoadResult
	Err    error
}

// Degraded reports whether the store started empty because of a problem.
func (r LoadReport) Degraded() bool {
	return r.Err != nil || r.Result.State == storage.StateCorrupt
}

// Store owns the canonical transaction collection. Every mutation and its
// persist happen under one write lock; readers get copies.
//
// A failed persist is returned wrapping storage.ErrWrite but the in-memory
// mutation is kept, so the user can still export a backup.
type Store struct {
	mu     sync.RWMutex
	txns   []core.Transaction
	rev    uint64
	repo   Repository
	logger *log.Logger
}

// OpenStore loads the collection once. It never fails: read problems are
// reported and the store starts empty.
func OpenStore(ctx context.Context, repo Repository, logger *log.Logger) (*Store, LoadReport) {
	if logger == nil {
		logger = log.Nop()
	}
	s := &Store{repo: repo, logger: logger.WithComponent(log.ComponentStore)}

	res, err := repo.Load(ctx)
	report := LoadReport{Result: res, Err: err}
	if err != nil {
		s.logger.ErrorContext(ctx, "could not read storage, starting empty",
			log.NewFields().WithOperation(log.OpLoad).WithError(err).ToSlice()...)
		return s, report
	}

	s.txns = append(s.txns, res.Transactions...)
	s.logger.InfoContext(ctx, "store opened",
		log.FieldState, res.State.String(),
		log.FieldCount, len(s.txns))
	return s, report
}

// Add appends a new transaction. The id must not be in use.
func (s *Store) Add(ctx context.Context, t core.Transaction) error {
	t = t.Normalized()
	if err := t.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(t.ID) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateID, t.ID)
	}
	s.txns = append(s.txns, t)
	s.rev++

	s.logger.DebugContext(ctx, "transaction added",
		log.NewFields().WithOperation(log.OpCreate).WithTransaction(t).WithRevision(s.rev).ToSlice()...)
	return s.persist(ctx, log.OpCreate)
}

// Update merges p into the transaction with the given id. It returns false
// with a nil error when no such transaction exists. An invalid merge leaves
// the collection unchanged.
func (s *Store) Update(ctx context.Context, id string, p core.Patch) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false, nil
	}
	if p.IsEmpty() {
		return true, nil
	}
	merged := s.txns[i].Apply(p).Normalized()
	if err := merged.Validate(); err != nil {
		return false, err
	}
	s.txns[i] = merged
	s.rev++

	s.logger.DebugContext(ctx, "transaction updated",
		log.NewFields().WithOperation(log.OpUpdate).WithTransaction(merged).WithRevision(s.rev).ToSlice()...)
	return true, s.persist(ctx, log.OpUpdate)
}

// Remove deletes the transaction with the given id. Removing an unknown id
// succeeds and changes nothing.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil
	}
	s.txns = append(s.txns[:i], s.txns[i+1:]...)
	s.rev++

	s.logger.DebugContext(ctx, "transaction removed",
		log.FieldOperation, log.OpDelete,
		log.FieldTransactionID, id,
		log.FieldRevision, s.rev)
	return s.persist(ctx, log.OpDelete)
}

// ReplaceAll swaps the whole collection. The new set is validated first; on
// any invalid record or repeated id nothing changes.
func (s *Store) ReplaceAll(ctx context.Context, txns []core.Transaction) error {
	next := make([]core.Transaction, 0, len(txns))
	seen := make(map[string]struct{}, len(txns))
	for i, t := range txns {
		t = t.Normalized()
		if err := t.Validate(); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("record %d: %w: %s", i, ErrDuplicateID, t.ID)
		}
		seen[t.ID] = struct{}{}
		next = append(next, t)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.txns = next
	s.rev++

	s.logger.InfoContext(ctx, "collection replaced",
		log.NewFields().WithOperation(log.OpReplace).WithCount(len(next)).WithRevision(s.rev).ToSlice()...)
	return s.persist(ctx, log.OpReplace)
}

// List returns a copy of the collection in storage order.
func (s *Store) List() []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Transaction(nil), s.txns...)
}

// Snapshot returns a copy of the collection together with the revision it
// was taken at.
func (s *Store) Snapshot() ([]core.Transaction, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Transaction(nil), s.txns...), s.rev
}

func (s *Store) Get(id string) (core.Transaction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.txns[i], true
	}
	return core.Transaction{}, false
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.txns)
}

// Revision increases by one with every applied mutation.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rev
}

func (s *Store) indexOf(id string) int {
	for i := range s.txns {
		if s.txns[i].ID == id {
			return i
		}
	}
	return -1
}

// persist must be called with the write lock held.
func (s *Store) persist(ctx context.Context, op string) error {
	err := s.repo.Save(ctx, s.txns)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrWrite) {
		err = fmt.Errorf("%w: %w", storage.ErrWrite, err)
	}
	s.logger.ErrorContext(ctx, "persist failed, change kept in memory",
		log.NewFields().WithOperation(op).WithRevision(s.rev).WithError(err).ToSlice()...)
	return err
}

// IsPersistError reports whether err is a failed persist after which the
// in-memory change was kept.
func IsPersistError(err error) bool {
	return errors.Is(err, storage.ErrWrite)
}
