package transfer

import (
	"strings"

	"ledger/internal/core"
)

// TabularHeader is the column order of the CSV export and the sheet push.
var TabularHeader = []string{"id", "date", "type", "amount", "category", "note"}

// TabularRows returns the unquoted cell values, one row per transaction.
func TabularRows(txns []core.Transaction) [][]string {
	rows := make([][]string, 0, len(txns))
	for _, t := range txns {
		rows = append(rows, []string{
			t.ID,
			core.FormatDate(t.Date),
			t.Type.String(),
			t.Amount.String(),
			t.Category,
			t.Note,
		})
	}
	return rows
}

// ExportTabular renders txns as CSV. Lines are separated by "\n" with no
// trailing newline. Category and note are always quoted; other cells only
// when they contain a separator, a quote or a line break.
func ExportTabular(txns []core.Transaction) []byte {
	var b strings.Builder
	b.WriteString(strings.Join(TabularHeader, ","))
	for _, row := range TabularRows(txns) {
		b.WriteByte('\n')
		for i, cell := range row {
			if i > 0 {
				b.WriteByte(',')
			}
			if i >= 4 || needsQuote(cell) {
				b.WriteString(quote(cell))
			} else {
				b.WriteString(cell)
			}
		}
	}
	return []byte(b.String())
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func needsQuote(s string) bool {
	return strings.ContainsAny(s, ",\"\r\n")
}
