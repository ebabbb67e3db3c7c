package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cleared-dev/ledger/internal/apperrors"
	"github.com/cleared-dev/ledger/internal/ledger"
	"github.com/cleared-dev/ledger/internal/model"
	"github.com/cleared-dev/ledger/internal/subledger"
)

const entityColumns = `id, type, name, email, vat_number, currency, payment_terms, balance, created_at`

// Entity implements subledger.Repository. The entity row and its items are
// read from one snapshot.
func (s *Store) Entity(ctx context.Context, id string) (model.Entity, error) {
	var ent model.Entity
	err := s.readTx(ctx, func(tx pgx.Tx) error {
		var err error
		ent, err = loadEntity(ctx, tx, id, false)
		return err
	})
	return ent, err
}

// Entities implements subledger.Repository.
func (s *Store) Entities(ctx context.Context) ([]model.Entity, error) {
	var ents []model.Entity
	err := s.readTx(ctx, func(tx pgx.Tx) error {
		var err error
		ents, err = loadEntities(ctx, tx)
		return err
	})
	return ents, err
}

func loadEntities(ctx context.Context, q querier) ([]model.Entity, error) {
	rows, err := q.Query(ctx, `select `+entityColumns+` from entities order by seq`)
	if err != nil {
		return nil, fmt.Errorf("querying entities: %w", err)
	}
	ents, err := pgx.CollectRows(rows, scanEntity)
	if err != nil {
		return nil, fmt.Errorf("scanning entities: %w", err)
	}

	byID := make(map[string]*model.Entity, len(ents))
	for i := range ents {
		byID[ents[i].ID] = &ents[i]
	}

	itemRows, err := q.Query(ctx, `select entity_id, `+itemColumns+` from open_items order by entity_id, position`)
	if err != nil {
		return nil, fmt.Errorf("querying open items: %w", err)
	}
	defer itemRows.Close()
	for itemRows.Next() {
		var entityID string
		var it model.OpenItem
		if err := itemRows.Scan(&entityID, &it.ID, &it.Amount, &it.DueDate, &it.IssuedAt, &it.TransactionID); err != nil {
			return nil, fmt.Errorf("scanning open item: %w", err)
		}
		if e, ok := byID[entityID]; ok {
			e.OutstandingInvoices = append(e.OutstandingInvoices, normalizeItem(it))
		}
	}
	if err := itemRows.Err(); err != nil {
		return nil, err
	}

	payRows, err := q.Query(ctx, `select entity_id, `+paymentColumns+` from payments order by entity_id, position`)
	if err != nil {
		return nil, fmt.Errorf("querying payments: %w", err)
	}
	defer payRows.Close()
	for payRows.Next() {
		var entityID string
		var p model.Payment
		if err := payRows.Scan(&entityID, &p.ID, &p.Date, &p.Amount, &p.Method, &p.Reference, &p.TransactionID); err != nil {
			return nil, fmt.Errorf("scanning payment: %w", err)
		}
		if e, ok := byID[entityID]; ok {
			p.Date = p.Date.UTC()
			e.PaymentHistory = append(e.PaymentHistory, p)
		}
	}
	return ents, payRows.Err()
}

// Begin implements subledger.Repository.
func (s *Store) Begin(ctx context.Context) (subledger.Tx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &entityTx{tx: tx}, nil
}

// entityTx is a subledger unit of work backed by one SQL transaction.
type entityTx struct {
	tx pgx.Tx
}

func (t *entityTx) Ledger() ledger.Writer { return txLedger{tx: t.tx} }

// Entity locks the entity row until the transaction ends.
func (t *entityTx) Entity(ctx context.Context, id string) (model.Entity, error) {
	return loadEntity(ctx, t.tx, id, true)
}

// PutEntity upserts the entity row and replaces its open items and payments.
func (t *entityTx) PutEntity(ctx context.Context, e model.Entity) error {
	_, err := t.tx.Exec(ctx, `
		insert into entities (`+entityColumns+`)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		on conflict (id) do update set
			name = excluded.name,
			email = excluded.email,
			vat_number = excluded.vat_number,
			currency = excluded.currency,
			payment_terms = excluded.payment_terms,
			balance = excluded.balance
	`, e.ID, string(e.Type), e.Name, e.Email, e.VATNumber, e.Currency, e.PaymentTerms, e.Balance, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("upserting entity %s: %w", e.ID, translate(err))
	}

	if _, err := t.tx.Exec(ctx, `delete from open_items where entity_id = $1`, e.ID); err != nil {
		return fmt.Errorf("clearing open items: %w", err)
	}
	for i, it := range e.OutstandingInvoices {
		_, err := t.tx.Exec(ctx, `
			insert into open_items (entity_id, position, `+itemColumns+`)
			values ($1, $2, $3, $4, $5, $6, $7)
		`, e.ID, i, it.ID, it.Amount, model.DateOnly(it.DueDate), it.IssuedAt, it.TransactionID)
		if err != nil {
			return fmt.Errorf("inserting open item %s: %w", it.ID, translate(err))
		}
	}

	for i, p := range e.PaymentHistory {
		_, err := t.tx.Exec(ctx, `
			insert into payments (entity_id, position, `+paymentColumns+`)
			values ($1, $2, $3, $4, $5, $6, $7, $8)
			on conflict (id) do nothing
		`, e.ID, i, p.ID, p.Date, p.Amount, p.Method, p.Reference, p.TransactionID)
		if err != nil {
			return fmt.Errorf("inserting payment %s: %w", p.ID, translate(err))
		}
	}
	return nil
}

func (t *entityTx) DeleteEntity(ctx context.Context, id string) error {
	ct, err := t.tx.Exec(ctx, `delete from entities where id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting entity %s: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("entity %s: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

func (t *entityTx) Commit(ctx context.Context) error {
	return translate(t.tx.Commit(ctx))
}

// Rollback is a no-op after Commit or a previous Rollback.
func (t *entityTx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}
	return nil
}

const (
	itemColumns    = `id, amount, due_date, issued_at, transaction_id`
	paymentColumns = `id, date, amount, method, reference, transaction_id`
)

func loadEntity(ctx context.Context, q querier, id string, forUpdate bool) (model.Entity, error) {
	sql := `select ` + entityColumns + ` from entities where id = $1`
	if forUpdate {
		sql += ` for update`
	}
	rows, err := q.Query(ctx, sql, id)
	if err != nil {
		return model.Entity{}, fmt.Errorf("querying entity: %w", err)
	}
	e, err := pgx.CollectExactlyOneRow(rows, scanEntity)
	if err != nil {
		return model.Entity{}, fmt.Errorf("entity %s: %w", id, translate(err))
	}

	rows, err = q.Query(ctx, `select `+itemColumns+` from open_items where entity_id = $1 order by position`, id)
	if err != nil {
		return model.Entity{}, fmt.Errorf("querying open items: %w", err)
	}
	e.OutstandingInvoices, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.OpenItem, error) {
		var it model.OpenItem
		err := row.Scan(&it.ID, &it.Amount, &it.DueDate, &it.IssuedAt, &it.TransactionID)
		return normalizeItem(it), err
	})
	if err != nil {
		return model.Entity{}, fmt.Errorf("scanning open items: %w", err)
	}

	rows, err = q.Query(ctx, `select `+paymentColumns+` from payments where entity_id = $1 order by position`, id)
	if err != nil {
		return model.Entity{}, fmt.Errorf("querying payments: %w", err)
	}
	e.PaymentHistory, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Payment, error) {
		var p model.Payment
		err := row.Scan(&p.ID, &p.Date, &p.Amount, &p.Method, &p.Reference, &p.TransactionID)
		p.Date = p.Date.UTC()
		return p, err
	})
	if err != nil {
		return model.Entity{}, fmt.Errorf("scanning payments: %w", err)
	}
	if len(e.OutstandingInvoices) == 0 {
		e.OutstandingInvoices = nil
	}
	if len(e.PaymentHistory) == 0 {
		e.PaymentHistory = nil
	}
	return e, nil
}

func scanEntity(row pgx.CollectableRow) (model.Entity, error) {
	var e model.Entity
	var typ string
	err := row.Scan(&e.ID, &typ, &e.Name, &e.Email, &e.VATNumber, &e.Currency, &e.PaymentTerms, &e.Balance, &e.CreatedAt)
	e.Type = model.EntityType(typ)
	e.CreatedAt = e.CreatedAt.UTC()
	return e, err
}

func normalizeItem(it model.OpenItem) model.OpenItem {
	it.IssuedAt = it.IssuedAt.UTC()
	return it
}
