// Package reconcile pairs bank-feed transactions with ledger lines on bank
// accounts.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledger/internal/accounts"
	"github.com/cleared-dev/ledger/internal/apperrors"
	"github.com/cleared-dev/ledger/internal/id"
	"github.com/cleared-dev/ledger/internal/ledger"
	"github.com/cleared-dev/ledger/internal/metrics"
	"github.com/cleared-dev/ledger/internal/model"
)

// DefaultSuggestWindow is the date tolerance, in days, of amount-only suggestions.
const DefaultSuggestWindow = 3

// Matcher reconciles bank transactions against ledger lines.
type Matcher struct {
	repo     Repository
	lines    ledger.Reader
	prefixes []string
	window   int
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithBankPrefixes sets the account prefixes whose lines are reconcilable.
func WithBankPrefixes(prefixes ...string) Option {
	return func(m *Matcher) { m.prefixes = prefixes }
}

// WithSuggestWindow overrides DefaultSuggestWindow.
func WithSuggestWindow(days int) Option {
	return func(m *Matcher) { m.window = days }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Matcher) { m.logger = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Matcher) { m.metrics = mt }
}

// WithClock sets the clock used for MatchedAt.
func WithClock(now func() time.Time) Option {
	return func(m *Matcher) { m.now = now }
}

// NewMatcher creates a Matcher over repo and the ledger lines.
func NewMatcher(repo Repository, lines ledger.Reader, opts ...Option) *Matcher {
	m := &Matcher{
		repo:     repo,
		lines:    lines,
		prefixes: []string{accounts.BankPrefix},
		window:   DefaultSuggestWindow,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Match marks bank transaction bankTxID as matched by ledger line lineID. The
// operator is trusted: amounts and dates are not compared.
func (m *Matcher) Match(ctx context.Context, bankTxID, lineID string) error {
	err := m.match(ctx, bankTxID, lineID)
	switch {
	case err == nil:
		m.metrics.Matched(metrics.ResultOK)
		m.logger.Info("bank transaction matched", "bank_tx_id", bankTxID, "line_id", lineID)
	case errors.Is(err, apperrors.ErrAlreadyMatched), errors.Is(err, apperrors.ErrNotFound):
		m.metrics.Matched(metrics.ResultRejected)
		m.logger.Warn("match rejected", "bank_tx_id", bankTxID, "line_id", lineID, "error", err)
	default:
		m.metrics.Matched(metrics.ResultError)
		m.logger.Error("match failed", "bank_tx_id", bankTxID, "line_id", lineID, "error", err)
	}
	return err
}

func (m *Matcher) match(ctx context.Context, bankTxID, lineID string) error {
	bt, err := m.repo.BankTransaction(ctx, bankTxID)
	if err != nil {
		return fmt.Errorf("bank transaction %s: %w", bankTxID, err)
	}
	if bt.Matched {
		return fmt.Errorf("bank transaction %s: %w", bankTxID, apperrors.ErrAlreadyMatched)
	}

	line, err := m.lines.Line(ctx, lineID)
	if err != nil {
		return fmt.Errorf("ledger line %s: %w", lineID, err)
	}
	if !ledger.HasAccountPrefix(line.Account, m.prefixes) {
		return fmt.Errorf("ledger line %s on %q is not a bank line: %w", lineID, line.Account, apperrors.ErrNotFound)
	}

	if err := m.repo.MarkMatched(context.WithoutCancel(ctx), bankTxID, lineID, m.now().UTC()); err != nil {
		return fmt.Errorf("matching %s to %s: %w", bankTxID, lineID, err)
	}
	return nil
}

// Unmatched returns bank transactions still awaiting a match.
func (m *Matcher) Unmatched(ctx context.Context) ([]model.BankTransaction, error) {
	txns, err := m.repo.BankTransactions(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("listing bank transactions: %w", err)
	}
	return txns, nil
}

// BankTransactions returns every bank transaction, matched or not.
func (m *Matcher) BankTransactions(ctx context.Context) ([]model.BankTransaction, error) {
	txns, err := m.repo.BankTransactions(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("listing bank transactions: %w", err)
	}
	return txns, nil
}

// Candidates returns posted lines on bank accounts that are not yet
// reconciled, in posting order.
func (m *Matcher) Candidates(ctx context.Context) ([]model.JournalEntry, error) {
	lines, err := m.lines.Lines(ctx, ledger.Filter{AccountPrefixes: m.prefixes})
	if err != nil {
		return nil, fmt.Errorf("listing bank lines: %w", err)
	}
	done, err := m.repo.ReconciledLines(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing reconciled lines: %w", err)
	}

	out := lines[:0:0]
	for _, l := range lines {
		if _, ok := done[l.ID]; !ok {
			out = append(out, l)
		}
	}
	return out, nil
}

// UnreconciledBalance sums the signed amounts of unmatched bank transactions.
func (m *Matcher) UnreconciledBalance(ctx context.Context) (decimal.Decimal, error) {
	txns, err := m.Unmatched(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, t := range txns {
		total = total.Add(t.Amount)
	}
	return total, nil
}

// Import stores bank transactions from a feed. Transactions without an ID get
// one; transactions whose Reference is already known are skipped. Returns the
// number added.
func (m *Matcher) Import(ctx context.Context, txns []model.BankTransaction) (int, error) {
	prepared := make([]model.BankTransaction, 0, len(txns))
	for i, t := range txns {
		if t.Date.IsZero() {
			return 0, fmt.Errorf("bank transaction %d: date is required", i)
		}
		if t.ID == "" {
			t.ID = id.New(id.PrefixBank)
		}
		if t.Source == "" {
			t.Source = "manual"
		}
		if t.Reference == "" {
			t.Reference = Reference(t.Source, t.Date, t.Description, t.Amount)
		}
		t.Amount = t.Amount.Round(2)
		t.Matched, t.MatchedLine, t.MatchedAt = false, "", time.Time{}
		prepared = append(prepared, t)
	}

	n, err := m.repo.AddBankTransactions(ctx, prepared)
	if err != nil {
		return 0, fmt.Errorf("importing bank transactions: %w", err)
	}
	m.logger.Info("bank transactions imported", "received", len(txns), "added", n)
	return n, nil
}

// Reference builds a deterministic dedupe key like
// "santander_20250103_TRANSFEREN_-120.50".
func Reference(source string, date time.Time, desc string, amount decimal.Decimal) string {
	prefix := strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		if r >= 'a' && r <= 'z' {
			return r - 'a' + 'A'
		}
		return -1
	}, desc)
	if len(prefix) > 10 {
		prefix = prefix[:10]
	}
	return fmt.Sprintf("%s_%s_%s_%s", source, date.Format("20060102"), prefix, amount.StringFixed(2))
}
