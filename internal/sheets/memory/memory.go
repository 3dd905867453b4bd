// Package memory is a TabularSink that keeps the last pushed table in
// process memory. It backs dry runs and tests.
package memory

import (
	"context"
	"sync"

	ports "ledger/internal/sheets"
)

type Sink struct {
	mu     sync.Mutex
	header []string
	rows   [][]string
	pushes int
}

var _ ports.TabularSink = (*Sink)(nil)

func New() *Sink {
	return &Sink{}
}

// WriteTable replaces the stored table with a copy of header and rows.
func (s *Sink) WriteTable(_ context.Context, header []string, rows [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.header = append([]string(nil), header...)
	s.rows = make([][]string, len(rows))
	for i, r := range rows {
		s.rows[i] = append([]string(nil), r...)
	}
	s.pushes++
	return nil
}

// Table returns the last table written and how many pushes happened.
func (s *Sink) Table() (header []string, rows [][]string, pushes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows = make([][]string, len(s.rows))
	for i, r := range s.rows {
		rows[i] = append([]string(nil), r...)
	}
	return append([]string(nil), s.header...), rows, s.pushes
}
