package journal

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledger/internal/apperrors"
	"github.com/cleared-dev/ledger/internal/ledger"
	"github.com/cleared-dev/ledger/internal/model"
)

// Entries returns posted lines whose description or account contains query,
// case-insensitively. An empty query returns every line.
func (e *Engine) Entries(ctx context.Context, query string) ([]model.JournalEntry, error) {
	return e.Lines(ctx, ledger.Filter{Query: query})
}

// Lines returns posted lines matching f.
func (e *Engine) Lines(ctx context.Context, f ledger.Filter) ([]model.JournalEntry, error) {
	lines, err := e.store.Lines(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("listing journal lines: %w", err)
	}
	return lines, nil
}

// Transaction returns the lines of txID in leg order.
func (e *Engine) Transaction(ctx context.Context, txID string) ([]model.JournalEntry, error) {
	lines, err := e.Lines(ctx, ledger.Filter{TransactionID: txID})
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("transaction %s: %w", txID, apperrors.ErrNotFound)
	}
	return lines, nil
}

// AccountBalance is one row of a trial balance.
type AccountBalance struct {
	Account string
	Debit   decimal.Decimal
	Credit  decimal.Decimal
}

// Net returns debit minus credit.
func (b AccountBalance) Net() decimal.Decimal {
	return b.Debit.Sub(b.Credit)
}

// TrialBalance lists per-account totals and the grand totals across them.
type TrialBalance struct {
	AsOf     time.Time
	Accounts []AccountBalance
	Debit    decimal.Decimal
	Credit   decimal.Decimal
}

// Balanced reports whether total debits equal total credits.
func (tb TrialBalance) Balanced() bool {
	return tb.Debit.Equal(tb.Credit)
}

// TrialBalance totals every line dated on or before asOf (all lines when asOf
// is zero), grouped by account and sorted by account label.
func (e *Engine) TrialBalance(ctx context.Context, asOf time.Time) (TrialBalance, error) {
	lines, err := e.Lines(ctx, ledger.Filter{To: asOf})
	if err != nil {
		return TrialBalance{}, err
	}

	byAccount := make(map[string]*AccountBalance)
	tb := TrialBalance{AsOf: asOf, Debit: decimal.Zero, Credit: decimal.Zero}
	for _, l := range lines {
		b, ok := byAccount[l.Account]
		if !ok {
			b = &AccountBalance{Account: l.Account, Debit: decimal.Zero, Credit: decimal.Zero}
			byAccount[l.Account] = b
		}
		b.Debit = b.Debit.Add(l.Debit)
		b.Credit = b.Credit.Add(l.Credit)
		tb.Debit = tb.Debit.Add(l.Debit)
		tb.Credit = tb.Credit.Add(l.Credit)
	}

	for _, b := range byAccount {
		tb.Accounts = append(tb.Accounts, *b)
	}
	sort.Slice(tb.Accounts, func(i, j int) bool { return tb.Accounts[i].Account < tb.Accounts[j].Account })
	return tb, nil
}

// Classifier maps an account label to its account type.
type Classifier interface {
	Classify(account string) model.AccountType
}

// ProfitSummary totals revenue and expense accounts over a period.
type ProfitSummary struct {
	Revenue  decimal.Decimal
	Expenses decimal.Decimal
}

// Net returns revenue minus expenses.
func (p ProfitSummary) Net() decimal.Decimal {
	return p.Revenue.Sub(p.Expenses)
}

// Summary totals revenue (credit-normal) and expenses (debit-normal) for lines
// dated within [from, to]. Zero bounds are open.
func (e *Engine) Summary(ctx context.Context, chart Classifier, from, to time.Time) (ProfitSummary, error) {
	lines, err := e.Lines(ctx, ledger.Filter{From: from, To: to})
	if err != nil {
		return ProfitSummary{}, err
	}

	s := ProfitSummary{Revenue: decimal.Zero, Expenses: decimal.Zero}
	for _, l := range lines {
		switch chart.Classify(l.Account) {
		case model.AccountTypeRevenue:
			s.Revenue = s.Revenue.Add(l.Credit).Sub(l.Debit)
		case model.AccountTypeExpense:
			s.Expenses = s.Expenses.Add(l.Debit).Sub(l.Credit)
		}
	}
	return s, nil
}
