package subledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledger/internal/apperrors"
	"github.com/cleared-dev/ledger/internal/id"
	"github.com/cleared-dev/ledger/internal/model"
)

// IssueInvoiceParams describes a tax-inclusive invoice (client) or bill
// (vendor). Zero Date means now; zero DueDate means Date plus DefaultDueDays.
type IssueInvoiceParams struct {
	EntityID string
	Gross    decimal.Decimal
	Date     time.Time
	DueDate  time.Time
}

// SettleInvoiceParams describes a payment against an open item. Zero Amount
// settles the full remaining amount; empty Method uses the configured default.
type SettleInvoiceParams struct {
	EntityID   string
	OpenItemID string
	Amount     decimal.Decimal
	Method     string
	Date       time.Time
}

// IssueInvoice records an open item on the entity and posts its journal
// transaction. Both happen in one unit of work or not at all.
func (e *Engine) IssueInvoice(ctx context.Context, p IssueInvoiceParams) (model.OpenItem, []model.JournalEntry, error) {
	if err := ctx.Err(); err != nil {
		return model.OpenItem{}, nil, err
	}
	if !p.Gross.IsPositive() || !cents(p.Gross) {
		return model.OpenItem{}, nil, fmt.Errorf("%w: gross %s", apperrors.ErrInvalidAmount, p.Gross)
	}

	date := p.Date
	if date.IsZero() {
		date = e.now()
	}
	due := p.DueDate
	if due.IsZero() {
		due = model.DateOnly(date).AddDate(0, 0, DefaultDueDays)
	}

	unlock := e.locks.Lock(p.EntityID)
	defer unlock()

	// Validation passed; the write runs to completion.
	ctx = context.WithoutCancel(ctx)

	var (
		item  model.OpenItem
		lines []model.JournalEntry
		ent   model.Entity
	)
	err := e.inTx(ctx, func(tx Tx) error {
		var err error
		ent, err = tx.Entity(ctx, p.EntityID)
		if err != nil {
			return err
		}

		prefix := id.PrefixInvoice
		if ent.Type == model.EntityVendor {
			prefix = id.PrefixBill
		}
		item = model.OpenItem{
			ID:       e.documentID(prefix, date),
			Amount:   p.Gross,
			DueDate:  model.DateOnly(due),
			IssuedAt: date.UTC(),
		}
		if _, _, dup := ent.OpenItem(item.ID); dup {
			return fmt.Errorf("open item %s: %w", item.ID, apperrors.ErrConflict)
		}

		lines, err = e.poster.PostTo(ctx, tx.Ledger(), e.invoiceDrafts(ent, item, date))
		if err != nil {
			return err
		}
		item.TransactionID = lines[0].TransactionID

		ent.OutstandingInvoices = append(ent.OutstandingInvoices, item)
		ent.Balance = ent.Balance.Add(item.Amount)
		return tx.PutEntity(ctx, ent)
	})
	if err != nil {
		e.logger.Warn("invoice not issued", "entity_id", p.EntityID, "error", err)
		return model.OpenItem{}, nil, fmt.Errorf("issuing invoice for %s: %w", p.EntityID, err)
	}

	e.metrics.InvoiceIssued(string(ent.Type))
	e.logger.Info("invoice issued",
		"entity_id", ent.ID, "item_id", item.ID, "transaction_id", item.TransactionID, "gross", item.Amount.StringFixed(2))
	return item, lines, nil
}

// invoiceDrafts builds the issuance lines. Zero amounts are skipped, so a 0%
// rate yields a two-line transaction.
func (e *Engine) invoiceDrafts(ent model.Entity, item model.OpenItem, date time.Time) []model.Draft {
	base, tax := SplitGross(item.Amount, e.taxRate)

	var desc string
	var drafts []model.Draft
	add := func(account string, debit, credit decimal.Decimal) {
		if debit.IsZero() && credit.IsZero() {
			return
		}
		drafts = append(drafts, model.Draft{Date: date, Description: desc, Account: account, Debit: debit, Credit: credit})
	}

	switch ent.Type {
	case model.EntityVendor:
		desc = fmt.Sprintf("Bill #%s - %s", item.ID, ent.Name)
		add(e.accounts.Purchases, base, decimal.Zero)
		add(e.accounts.InputTax, tax, decimal.Zero)
		add(e.accounts.Payable, decimal.Zero, item.Amount)
	default:
		desc = fmt.Sprintf("Invoice #%s - %s", item.ID, ent.Name)
		add(e.accounts.Receivable, item.Amount, decimal.Zero)
		add(e.accounts.Sales, decimal.Zero, base)
		add(e.accounts.OutputTax, decimal.Zero, tax)
	}
	return drafts
}

// SettleInvoice records a payment against an open item and posts the bank
// movement. A settlement for the full remaining amount removes the item.
func (e *Engine) SettleInvoice(ctx context.Context, p SettleInvoiceParams) (model.Payment, []model.JournalEntry, error) {
	if err := ctx.Err(); err != nil {
		return model.Payment{}, nil, err
	}
	if p.Amount.IsNegative() || !cents(p.Amount) {
		return model.Payment{}, nil, fmt.Errorf("%w: payment %s", apperrors.ErrInvalidAmount, p.Amount)
	}

	date := p.Date
	if date.IsZero() {
		date = e.now()
	}
	method := strings.TrimSpace(p.Method)
	if method == "" {
		method = e.paymentMethod
	}

	unlock := e.locks.Lock(p.EntityID)
	defer unlock()

	ctx = context.WithoutCancel(ctx)

	var (
		pay   model.Payment
		lines []model.JournalEntry
		ent   model.Entity
	)
	err := e.inTx(ctx, func(tx Tx) error {
		var err error
		ent, err = tx.Entity(ctx, p.EntityID)
		if err != nil {
			return err
		}

		item, idx, ok := ent.OpenItem(p.OpenItemID)
		if !ok {
			return fmt.Errorf("%w: %s", apperrors.ErrItemNotFound, p.OpenItemID)
		}
		amount := p.Amount
		if amount.IsZero() {
			amount = item.Amount
		}
		if amount.GreaterThan(item.Amount) {
			return fmt.Errorf("%w: payment %s exceeds open amount %s",
				apperrors.ErrInvalidAmount, amount.StringFixed(2), item.Amount.StringFixed(2))
		}

		lines, err = e.poster.PostTo(ctx, tx.Ledger(), e.settlementDrafts(ent, item.ID, amount, date))
		if err != nil {
			return err
		}

		if amount.Equal(item.Amount) {
			ent.OutstandingInvoices = append(ent.OutstandingInvoices[:idx:idx], ent.OutstandingInvoices[idx+1:]...)
		} else {
			ent.OutstandingInvoices[idx].Amount = item.Amount.Sub(amount)
		}
		ent.Balance = ent.Balance.Sub(amount)

		pay = model.Payment{
			ID:            id.New(id.PrefixPayment),
			Date:          date.UTC(),
			Amount:        amount,
			Method:        method,
			Reference:     item.ID,
			TransactionID: lines[0].TransactionID,
		}
		ent.PaymentHistory = append(ent.PaymentHistory, pay)
		return tx.PutEntity(ctx, ent)
	})
	if err != nil {
		e.logger.Warn("settlement rejected", "entity_id", p.EntityID, "item_id", p.OpenItemID, "error", err)
		return model.Payment{}, nil, fmt.Errorf("settling %s for %s: %w", p.OpenItemID, p.EntityID, err)
	}

	e.metrics.Settled(string(ent.Type))
	e.logger.Info("invoice settled",
		"entity_id", ent.ID, "item_id", pay.Reference, "transaction_id", pay.TransactionID, "amount", pay.Amount.StringFixed(2))
	return pay, lines, nil
}

func (e *Engine) settlementDrafts(ent model.Entity, itemID string, amount decimal.Decimal, date time.Time) []model.Draft {
	desc := fmt.Sprintf("Payment for %s - %s", itemID, ent.Name)
	if ent.Type == model.EntityVendor {
		return []model.Draft{
			{Date: date, Description: desc, Account: e.accounts.Payable, Debit: amount},
			{Date: date, Description: desc, Account: e.accounts.Bank, Credit: amount},
		}
	}
	return []model.Draft{
		{Date: date, Description: desc, Account: e.accounts.Bank, Debit: amount},
		{Date: date, Description: desc, Account: e.accounts.Receivable, Credit: amount},
	}
}

var hundred = decimal.NewFromInt(100)

func cents(d decimal.Decimal) bool {
	return d.Mul(hundred).Equal(d.Mul(hundred).Floor())
}
