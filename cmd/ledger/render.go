package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"ledger/internal/core"
)

const barWidth = 20

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func renderTransactions(w io.Writer, txns []core.Transaction) error {
	if len(txns) == 0 {
		_, err := fmt.Fprintln(w, "no transactions")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "DATE\tTYPE\tAMOUNT\tCATEGORY\tNOTE\tID")
	for _, t := range txns {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			t.Date.Format("2006-01-02"),
			t.Type,
			signed(t),
			orDash(t.Category),
			orDash(t.Note),
			t.ID)
	}
	return tw.Flush()
}

func renderTotals(w io.Writer, tot core.Totals) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "income\t%s\n", core.FormatAmount(tot.Income))
	fmt.Fprintf(tw, "expense\t%s\n", core.FormatAmount(tot.Expense))
	fmt.Fprintf(tw, "balance\t%s\n", core.FormatAmount(tot.Balance))
	return tw.Flush()
}

func renderMonths(w io.Writer, months []core.MonthSummary) error {
	if len(months) == 0 {
		_, err := fmt.Fprintln(w, "no transactions")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "MONTH\tINCOME\tEXPENSE\tTOTAL\t")
	for _, m := range months {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			m.Period,
			core.FormatAmount(m.Income),
			core.FormatAmount(m.Expense),
			core.FormatAmount(m.Total),
			bar(m.BarPercent))
	}
	return tw.Flush()
}

// bar draws percent (0-100) as a run of '#'. Any non-zero month shows at
// least one mark.
func bar(percent int) string {
	n := percent * barWidth / 100
	if n == 0 && percent > 0 {
		n = 1
	}
	return strings.Repeat("#", n) + fmt.Sprintf(" %d%%", percent)
}

func signed(t core.Transaction) string {
	if t.Type == core.Expense {
		return "-" + core.FormatAmount(t.Amount)
	}
	return "+" + core.FormatAmount(t.Amount)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
