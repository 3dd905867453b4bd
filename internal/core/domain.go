package core

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	Income  Type = "income"
	Expense Type = "expense"
)

// DateLayout is the textual form of a transaction date: ISO-8601 in UTC with
// millisecond precision, so lexical order equals chronological order.
const DateLayout = "2006-01-02T15:04:05.000Z07:00"

type (
	// Type carries the sign of a transaction; Amount is always positive.
	Type string

	Transaction struct {
		ID       string
		Date     time.Time
		Type     Type
		Amount   decimal.Decimal
		Category string // optional
		Note     string // optional
	}

	// Patch is a partial update. Nil fields are retained.
	Patch struct {
		Date     *time.Time
		Type     *Type
		Amount   *decimal.Decimal
		Category *string
		Note     *string
	}
)

var (
	ErrEmptyID       = errors.New("empty id")
	ErrZeroDate      = errors.New("date cannot be zero")
	ErrInvalidType   = errors.New("invalid transaction type")
	ErrInvalidAmount = errors.New("invalid amount")
)

// NewID returns a fresh transaction identifier.
func NewID() string {
	return uuid.NewString()
}

// ParseType accepts the two variants, case-sensitively, as they are stored.
func ParseType(s string) (Type, error) {
	switch t := Type(s); t {
	case Income, Expense:
		return t, nil
	default:
		return "", ErrInvalidType
	}
}

func (t Type) Valid() bool {
	return t == Income || t == Expense
}

func (t Type) String() string {
	return string(t)
}

// NormalizeDate converts d to UTC and truncates it to milliseconds, the
// precision of DateLayout.
func NormalizeDate(d time.Time) time.Time {
	return d.UTC().Truncate(time.Millisecond)
}

// FormatDate renders d in DateLayout.
func FormatDate(d time.Time) string {
	return NormalizeDate(d).Format(DateLayout)
}

func (t Transaction) Validate() error {
	if t.ID == "" {
		return ErrEmptyID
	}
	if t.Date.IsZero() {
		return ErrZeroDate
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if !t.Amount.IsPositive() || !AmountInRange(t.Amount) {
		return ErrInvalidAmount
	}
	return nil
}

// Normalized returns a copy with the date normalized.
func (t Transaction) Normalized() Transaction {
	t.Date = NormalizeDate(t.Date)
	return t
}

// Equal compares field by field; amounts compare by value.
func (t Transaction) Equal(o Transaction) bool {
	return t.ID == o.ID &&
		t.Date.Equal(o.Date) &&
		t.Type == o.Type &&
		t.Amount.Equal(o.Amount) &&
		t.Category == o.Category &&
		t.Note == o.Note
}

// Apply merges p over t. The id never changes.
func (t Transaction) Apply(p Patch) Transaction {
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Note != nil {
		t.Note = *p.Note
	}
	return t
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Date == nil && p.Type == nil && p.Amount == nil && p.Category == nil && p.Note == nil
}
