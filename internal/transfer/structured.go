// Package transfer converts the transaction collection to and from the
// external file formats: a JSON backup that round-trips exactly, and a CSV
// export for spreadsheets.
package transfer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
)

const (
	StructuredFileName = "finance_backup.json"
	TabularFileName    = "finance_data.csv"
)

// record is the on-disk shape of one transaction. Amount is a JSON number.
type record struct {
	ID       string      `json:"id"`
	Date     string      `json:"date"`
	Type     string      `json:"type"`
	Amount   json.Number `json:"amount"`
	Category string      `json:"category"`
	Note     string      `json:"note"`
}

// incoming mirrors record with optional fields so that missing keys can be
// told apart from empty ones.
type incoming struct {
	ID       *string         `json:"id"`
	Date     *string         `json:"date"`
	Type     *string         `json:"type"`
	Amount   json.RawMessage `json:"amount"`
	Category *string         `json:"category"`
	Note     *string         `json:"note"`
}

func toRecord(t core.Transaction) record {
	return record{
		ID:       t.ID,
		Date:     core.FormatDate(t.Date),
		Type:     t.Type.String(),
		Amount:   json.Number(t.Amount.String()),
		Category: t.Category,
		Note:     t.Note,
	}
}

// ExportStructured renders txns as an indented JSON array containing every
// field of every transaction.
func ExportStructured(txns []core.Transaction) ([]byte, error) {
	out := make([]record, 0, len(txns))
	for _, t := range txns {
		out = append(out, toRecord(t))
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal transactions: %w", err)
	}
	return data, nil
}

// MarshalCollection is the compact form of ExportStructured, used for the
// storage slot.
func MarshalCollection(txns []core.Transaction) (json.RawMessage, error) {
	out := make([]record, 0, len(txns))
	for _, t := range txns {
		out = append(out, toRecord(t))
	}
	return json.Marshal(out)
}

// ImportStructured parses a JSON array of transactions. It either returns the
// whole collection or an *ImportError describing the first problem found.
func ImportStructured(data []byte) ([]core.Transaction, error) {
	if !json.Valid(data) {
		var probe any
		return nil, malformed(json.Unmarshal(data, &probe))
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, wrongShape(nil)
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(trimmed, &raws); err != nil {
		return nil, wrongShape(err)
	}

	txns := make([]core.Transaction, 0, len(raws))
	seen := make(map[string]struct{}, len(raws))
	for i, raw := range raws {
		t, err := decodeRecord(raw)
		if err != nil {
			return nil, invalidRecord(i, err)
		}
		if _, dup := seen[t.ID]; dup {
			return nil, invalidRecord(i, fmt.Errorf("duplicate id %q", t.ID))
		}
		seen[t.ID] = struct{}{}
		txns = append(txns, t)
	}
	return txns, nil
}

func decodeRecord(raw json.RawMessage) (core.Transaction, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return core.Transaction{}, errors.New("not an object")
	}
	var in incoming
	if err := json.Unmarshal(raw, &in); err != nil {
		return core.Transaction{}, err
	}

	if in.ID == nil || *in.ID == "" {
		return core.Transaction{}, errors.New("missing id")
	}
	if in.Date == nil || *in.Date == "" {
		return core.Transaction{}, errors.New("missing date")
	}
	if in.Type == nil || *in.Type == "" {
		return core.Transaction{}, errors.New("missing type")
	}
	amount, err := parseNumber(in.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := ParseDate(*in.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	typ, err := core.ParseType(*in.Type)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("type %q: %w", *in.Type, err)
	}

	t := core.Transaction{
		ID:     *in.ID,
		Date:   date,
		Type:   typ,
		Amount: amount,
	}
	if in.Category != nil {
		t.Category = *in.Category
	}
	if in.Note != nil {
		t.Note = *in.Note
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

// parseNumber accepts a JSON number only; quoted amounts are rejected.
func parseNumber(raw json.RawMessage) (decimal.Decimal, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return decimal.Zero, errors.New("missing amount")
	}
	if c := raw[0]; c != '-' && (c < '0' || c > '9') {
		return decimal.Zero, errors.New("amount must be a number")
	}
	d, err := decimal.NewFromString(string(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("amount: %w", err)
	}
	if !core.AmountInRange(d) {
		return decimal.Zero, fmt.Errorf("amount out of range: %w", core.ErrInvalidAmount)
	}
	return d, nil
}

// ParseDate reads a stored date. Full timestamps are expected; a bare
// YYYY-MM-DD is accepted as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	if d, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return core.NormalizeDate(d), nil
	}
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q is not ISO-8601", s)
	}
	return d, nil
}
