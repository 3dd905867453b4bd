package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/transfer"
)

var (
	ErrDateRequired   = errors.New("date is required")
	ErrAmountRequired = errors.New("amount must be a number greater than zero")
)

// Form is the raw input of the add/edit form.
type Form struct {
	Type     string
	Amount   string
	Date     string // YYYY-MM-DD or a full ISO-8601 timestamp
	Category string
	Note     string
}

// Session holds the edit state of one user. Submit either updates the
// transaction being edited or adds a new one.
type Session struct {
	store  *Store
	logger *log.Logger

	mu      sync.Mutex
	editing string
}

func NewSession(store *Store, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.Nop()
	}
	return &Session{store: store, logger: logger.WithComponent(log.ComponentSession)}
}

// Editing returns the id being edited, if any.
func (s *Session) Editing() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editing, s.editing != ""
}

// BeginEdit selects id for editing and returns its current values.
func (s *Session) BeginEdit(id string) (core.Transaction, error) {
	t, ok := s.store.Get(id)
	if !ok {
		return core.Transaction{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.mu.Lock()
	s.editing = id
	s.mu.Unlock()
	return t, nil
}

// Reset leaves edit mode.
func (s *Session) Reset() {
	s.mu.Lock()
	s.editing = ""
	s.mu.Unlock()
}

// Submit validates f and saves it. A validation error keeps the edit state
// so the user can correct the form. A persistence error still clears it
// because the change was applied in memory.
func (s *Session) Submit(ctx context.Context, f Form) (core.Transaction, error) {
	t, err := parseForm(f)
	if err != nil {
		return core.Transaction{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.editing == "" {
		t.ID = core.NewID()
		err := s.store.Add(ctx, t)
		if err != nil && !IsPersistError(err) {
			return core.Transaction{}, err
		}
		saved, _ := s.store.Get(t.ID)
		return saved, err
	}

	id := s.editing
	ok, err := s.store.Update(ctx, id, core.Patch{
		Date:     &t.Date,
		Type:     &t.Type,
		Amount:   &t.Amount,
		Category: &t.Category,
		Note:     &t.Note,
	})
	if !ok && err == nil {
		s.editing = ""
		s.logger.WarnContext(ctx, "edited transaction vanished", log.FieldTransactionID, id)
		return core.Transaction{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if !ok {
		return core.Transaction{}, err
	}
	s.editing = ""
	saved, _ := s.store.Get(id)
	return saved, err
}

// ClearAll empties the collection and leaves edit mode.
func (s *Session) ClearAll(ctx context.Context) error {
	s.Reset()
	return s.store.ReplaceAll(ctx, nil)
}

func parseForm(f Form) (core.Transaction, error) {
	typ, err := core.ParseType(strings.TrimSpace(f.Type))
	if err != nil {
		return core.Transaction{}, err
	}
	if strings.TrimSpace(f.Date) == "" {
		return core.Transaction{}, ErrDateRequired
	}
	date, err := transfer.ParseDate(strings.TrimSpace(f.Date))
	if err != nil {
		return core.Transaction{}, err
	}
	amount, err := core.ParseAmount(f.Amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("%w: %w", ErrAmountRequired, err)
	}
	return core.Transaction{
		Date:     date,
		Type:     typ,
		Amount:   amount,
		Category: strings.TrimSpace(f.Category),
		Note:     strings.TrimSpace(f.Note),
	}, nil
}
