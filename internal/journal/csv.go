package journal

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledger/internal/model"
)

// Header is the CSV header for journal exports.
const Header = "id,transaction_id,date,account,description,debit,credit,status,posted_at"

const (
	numFields   = 9
	dateFormat  = "2006-01-02"
	colID       = 0
	colTxID     = 1
	colDate     = 2
	colAccount  = 3
	colDesc     = 4
	colDebit    = 5
	colCredit   = 6
	colStatus   = 7
	colPostedAt = 8
)

// ReadEntries reads all lines from a journal CSV reader.
func ReadEntries(r io.Reader) ([]model.JournalEntry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading journal CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	// Skip header row.
	var entries []model.JournalEntry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// WriteEntries writes lines to a journal CSV writer (including header).
func WriteEntries(w io.Writer, entries []model.JournalEntry) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalEntry converts a JournalEntry to a CSV row ([]string).
func MarshalEntry(e model.JournalEntry) []string {
	row := make([]string, numFields)
	row[colID] = e.ID
	row[colTxID] = e.TransactionID
	row[colDate] = e.Date.Format(dateFormat)
	row[colAccount] = e.Account
	row[colDesc] = e.Description

	if !e.Debit.IsZero() {
		row[colDebit] = e.Debit.StringFixed(2)
	}
	if !e.Credit.IsZero() {
		row[colCredit] = e.Credit.StringFixed(2)
	}

	row[colStatus] = string(e.Status)
	if !e.PostedAt.IsZero() {
		row[colPostedAt] = e.PostedAt.UTC().Format(time.RFC3339)
	}
	return row
}

// UnmarshalEntry converts a CSV row to a JournalEntry. The id, status and
// posted_at columns may be empty for rows meant for import.
func UnmarshalEntry(record []string) (model.JournalEntry, error) {
	if len(record) != numFields {
		return model.JournalEntry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	date, err := time.Parse(dateFormat, record[colDate])
	if err != nil {
		return model.JournalEntry{}, fmt.Errorf("parsing date %q: %w", record[colDate], err)
	}

	var debit, credit decimal.Decimal

	if record[colDebit] != "" {
		debit, err = decimal.NewFromString(record[colDebit])
		if err != nil {
			return model.JournalEntry{}, fmt.Errorf("parsing debit %q: %w", record[colDebit], err)
		}
	}

	if record[colCredit] != "" {
		credit, err = decimal.NewFromString(record[colCredit])
		if err != nil {
			return model.JournalEntry{}, fmt.Errorf("parsing credit %q: %w", record[colCredit], err)
		}
	}

	var postedAt time.Time
	if record[colPostedAt] != "" {
		postedAt, err = time.Parse(time.RFC3339, record[colPostedAt])
		if err != nil {
			return model.JournalEntry{}, fmt.Errorf("parsing posted_at %q: %w", record[colPostedAt], err)
		}
	}

	return model.JournalEntry{
		ID:            record[colID],
		TransactionID: record[colTxID],
		Date:          date,
		Account:       record[colAccount],
		Description:   record[colDesc],
		Debit:         debit,
		Credit:        credit,
		Status:        model.EntryStatus(record[colStatus]),
		PostedAt:      postedAt,
	}, nil
}

// Export writes every line matching query as CSV.
func (e *Engine) Export(ctx context.Context, w io.Writer, query string) (int, error) {
	lines, err := e.Entries(ctx, query)
	if err != nil {
		return 0, err
	}
	if err := WriteEntries(w, lines); err != nil {
		return 0, fmt.Errorf("exporting journal: %w", err)
	}
	return len(lines), nil
}

// Import reads journal CSV rows, groups them by transaction_id in order of
// first appearance and posts each group as its own transaction. Every group
// is validated before the first one is posted; the file's own ids are
// discarded and new ones assigned.
func (e *Engine) Import(ctx context.Context, r io.Reader) ([]string, error) {
	rows, err := ReadEntries(r)
	if err != nil {
		return nil, err
	}

	var order []string
	groups := make(map[string][]model.Draft)
	for i, row := range rows {
		key := row.TransactionID
		if key == "" {
			key = row.EntryGroup()
		}
		if key == "" {
			return nil, fmt.Errorf("row %d: transaction_id is required", i+2)
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], model.Draft{
			Date:        row.Date,
			Description: row.Description,
			Account:     row.Account,
			Debit:       row.Debit,
			Credit:      row.Credit,
		})
	}

	for _, key := range order {
		if _, err := e.Prepare(groups[key]); err != nil {
			return nil, fmt.Errorf("transaction %s: %w", key, err)
		}
	}

	posted := make([]string, 0, len(order))
	for _, key := range order {
		lines, err := e.Post(ctx, groups[key])
		if err != nil {
			return posted, fmt.Errorf("transaction %s: %w", key, err)
		}
		posted = append(posted, lines[0].TransactionID)
	}
	return posted, nil
}
