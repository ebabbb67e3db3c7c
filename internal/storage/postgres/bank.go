package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/cleared-dev/ledger/internal/apperrors"
	"github.com/cleared-dev/ledger/internal/model"
)

const bankColumns = `id, date, description, amount, coalesce(reference, ''), source, matched, coalesce(matched_line, ''), matched_at`

// BankTransactions implements reconcile.Repository.
func (s *Store) BankTransactions(ctx context.Context, unmatchedOnly bool) ([]model.BankTransaction, error) {
	q := `select ` + bankColumns + ` from bank_transactions`
	if unmatchedOnly {
		q += ` where not matched`
	}
	q += ` order by date, id`

	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("querying bank transactions: %w", err)
	}
	txns, err := pgx.CollectRows(rows, scanBankTx)
	if err != nil {
		return nil, fmt.Errorf("scanning bank transactions: %w", err)
	}
	return txns, nil
}

// BankTransaction implements reconcile.Repository.
func (s *Store) BankTransaction(ctx context.Context, id string) (model.BankTransaction, error) {
	rows, err := s.pool.Query(ctx, `select `+bankColumns+` from bank_transactions where id = $1`, id)
	if err != nil {
		return model.BankTransaction{}, fmt.Errorf("querying bank transaction: %w", err)
	}
	t, err := pgx.CollectExactlyOneRow(rows, scanBankTx)
	if err != nil {
		return model.BankTransaction{}, fmt.Errorf("bank transaction %s: %w", id, translate(err))
	}
	return t, nil
}

// AddBankTransactions implements reconcile.Repository. A duplicate ID fails
// the whole batch; known references are skipped.
func (s *Store) AddBankTransactions(ctx context.Context, txns []model.BankTransaction) (int, error) {
	added := 0
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		for _, t := range txns {
			ct, err := tx.Exec(ctx, `
				insert into bank_transactions (id, date, description, amount, reference, source, matched, matched_line, matched_at)
				values ($1, $2, $3, $4, nullif($5, ''), $6, false, null, null)
				on conflict (reference) do nothing
			`, t.ID, model.DateOnly(t.Date), t.Description, t.Amount, t.Reference, t.Source)
			if err != nil {
				return fmt.Errorf("bank transaction %s: %w", t.ID, translate(err))
			}
			added += int(ct.RowsAffected())
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}

// ReconciledLines implements reconcile.Repository.
func (s *Store) ReconciledLines(ctx context.Context) (map[string]string, error) {
	rows, err := s.pool.Query(ctx, `select line_id, bank_tx_id from reconciled_lines`)
	if err != nil {
		return nil, fmt.Errorf("querying reconciled lines: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var lineID, bankTxID string
		if err := rows.Scan(&lineID, &bankTxID); err != nil {
			return nil, fmt.Errorf("scanning reconciled line: %w", err)
		}
		out[lineID] = bankTxID
	}
	return out, rows.Err()
}

// MarkMatched implements reconcile.Repository. The bank row is locked for
// the duration, and the reconciled_lines primary key rejects a second match
// of the same line.
func (s *Store) MarkMatched(ctx context.Context, bankTxID, lineID string, at time.Time) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		var matched bool
		err := tx.QueryRow(ctx, `select matched from bank_transactions where id = $1 for update`, bankTxID).Scan(&matched)
		if err != nil {
			return fmt.Errorf("bank transaction %s: %w", bankTxID, translate(err))
		}

		var exists bool
		if err := tx.QueryRow(ctx, `select exists(select 1 from journal_lines where id = $1)`, lineID).Scan(&exists); err != nil {
			return fmt.Errorf("checking ledger line %s: %w", lineID, err)
		}
		if !exists {
			return fmt.Errorf("ledger line %s: %w", lineID, apperrors.ErrNotFound)
		}
		if matched {
			return fmt.Errorf("bank transaction %s: %w", bankTxID, apperrors.ErrAlreadyMatched)
		}

		_, err = tx.Exec(ctx, `insert into reconciled_lines (line_id, bank_tx_id, matched_at) values ($1, $2, $3)`, lineID, bankTxID, at)
		if isUniqueViolation(err) {
			return fmt.Errorf("ledger line %s: %w", lineID, apperrors.ErrAlreadyMatched)
		}
		if err != nil {
			return fmt.Errorf("recording reconciled line %s: %w", lineID, err)
		}

		_, err = tx.Exec(ctx, `
			update bank_transactions set matched = true, matched_line = $2, matched_at = $3 where id = $1
		`, bankTxID, lineID, at)
		if err != nil {
			return fmt.Errorf("marking %s matched: %w", bankTxID, err)
		}
		return nil
	})
}

func scanBankTx(row pgx.CollectableRow) (model.BankTransaction, error) {
	var t model.BankTransaction
	var matchedAt *time.Time
	err := row.Scan(&t.ID, &t.Date, &t.Description, &t.Amount, &t.Reference, &t.Source, &t.Matched, &t.MatchedLine, &matchedAt)
	if matchedAt != nil {
		t.MatchedAt = matchedAt.UTC()
	}
	return t, err
}
