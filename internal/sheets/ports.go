// Package sheets defines the outbound port for pushing the ledger to a
// spreadsheet-like target.
package sheets

import "context"

// TabularSink receives the whole table on every push. WriteTable replaces
// whatever the target held before.
type TabularSink interface {
	WriteTable(ctx context.Context, header []string, rows [][]string) error
}
