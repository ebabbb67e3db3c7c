package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cleared-dev/ledger/internal/ledger"
	"github.com/cleared-dev/ledger/internal/model"
)

const lineColumns = `id, transaction_id, date, description, account, debit, credit, status, posted_at`

// Lines implements ledger.Reader. Transaction and date bounds are pushed into
// SQL; the remaining fields are applied with Filter.Match.
func (s *Store) Lines(ctx context.Context, f ledger.Filter) ([]model.JournalEntry, error) {
	q := `select ` + lineColumns + ` from journal_lines where true`
	var args []any
	if f.TransactionID != "" {
		args = append(args, f.TransactionID)
		q += fmt.Sprintf(" and transaction_id = $%d", len(args))
	}
	if !f.From.IsZero() {
		args = append(args, model.DateOnly(f.From))
		q += fmt.Sprintf(" and date >= $%d", len(args))
	}
	if !f.To.IsZero() {
		args = append(args, model.DateOnly(f.To))
		q += fmt.Sprintf(" and date <= $%d", len(args))
	}
	q += " order by seq"

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying journal lines: %w", err)
	}
	lines, err := pgx.CollectRows(rows, scanLine)
	if err != nil {
		return nil, fmt.Errorf("scanning journal lines: %w", err)
	}

	out := lines[:0]
	for _, l := range lines {
		if f.Match(l) {
			out = append(out, l)
		}
	}
	return out, nil
}

// Line implements ledger.Reader.
func (s *Store) Line(ctx context.Context, id string) (model.JournalEntry, error) {
	rows, err := s.pool.Query(ctx, `select `+lineColumns+` from journal_lines where id = $1`, id)
	if err != nil {
		return model.JournalEntry{}, fmt.Errorf("querying journal line: %w", err)
	}
	l, err := pgx.CollectExactlyOneRow(rows, scanLine)
	if err != nil {
		return model.JournalEntry{}, fmt.Errorf("journal line %s: %w", id, translate(err))
	}
	return l, nil
}

// NextSequence implements ledger.Writer.
func (s *Store) NextSequence(ctx context.Context, year, month int) (int, error) {
	return nextSequence(ctx, s.pool, year, month)
}

// Append implements ledger.Writer.
func (s *Store) Append(ctx context.Context, lines []model.JournalEntry) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		return appendLines(ctx, tx, lines)
	})
}

func nextSequence(ctx context.Context, q querier, year, month int) (int, error) {
	var seq int
	err := q.QueryRow(ctx, `
		insert into journal_sequences (year, month, last_seq) values ($1, $2, 1)
		on conflict (year, month) do update set last_seq = journal_sequences.last_seq + 1
		returning last_seq
	`, year, month).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("allocating sequence for %04d-%02d: %w", year, month, err)
	}
	return seq, nil
}

func appendLines(ctx context.Context, q querier, lines []model.JournalEntry) error {
	for _, l := range lines {
		_, err := q.Exec(ctx, `
			insert into journal_lines (`+lineColumns+`)
			values ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, l.ID, l.TransactionID, model.DateOnly(l.Date), l.Description, l.Account, l.Debit, l.Credit, string(l.Status), l.PostedAt)
		if err != nil {
			return fmt.Errorf("inserting journal line %s: %w", l.ID, translate(err))
		}
	}
	return nil
}

func scanLine(row pgx.CollectableRow) (model.JournalEntry, error) {
	var l model.JournalEntry
	var status string
	err := row.Scan(&l.ID, &l.TransactionID, &l.Date, &l.Description, &l.Account, &l.Debit, &l.Credit, &status, &l.PostedAt)
	l.Status = model.EntryStatus(status)
	l.PostedAt = l.PostedAt.UTC()
	return l, err
}

// txLedger writes lines inside a subledger transaction.
type txLedger struct {
	tx pgx.Tx
}

func (w txLedger) NextSequence(ctx context.Context, year, month int) (int, error) {
	return nextSequence(ctx, w.tx, year, month)
}

func (w txLedger) Append(ctx context.Context, lines []model.JournalEntry) error {
	return appendLines(ctx, w.tx, lines)
}
