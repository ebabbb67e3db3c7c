package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledger/internal/model"
)

func newTable(w io.Writer, headers ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	return tw
}

func row(tw *tabwriter.Writer, cols ...string) {
	fmt.Fprintln(tw, strings.Join(cols, "\t"))
}

// money renders zero as blank, for debit/credit columns.
func money(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return d.StringFixed(2)
}

func printLines(w io.Writer, lines []model.JournalEntry) error {
	tw := newTable(w, "ID", "DATE", "ACCOUNT", "DESCRIPTION", "DEBIT", "CREDIT")
	debits, credits := decimal.Zero, decimal.Zero
	for _, l := range lines {
		row(tw, l.ID, formatDate(l.Date), l.Account, l.Description, money(l.Debit), money(l.Credit))
		debits = debits.Add(l.Debit)
		credits = credits.Add(l.Credit)
	}
	if len(lines) > 1 {
		row(tw, "", "", "", "TOTAL", debits.StringFixed(2), credits.StringFixed(2))
	}
	return tw.Flush()
}
