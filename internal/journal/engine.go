package journal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledger/internal/apperrors"
	"github.com/cleared-dev/ledger/internal/id"
	"github.com/cleared-dev/ledger/internal/ledger"
	"github.com/cleared-dev/ledger/internal/metrics"
	"github.com/cleared-dev/ledger/internal/model"
)

// DefaultTolerance is the largest debit/credit difference accepted as balanced.
var DefaultTolerance = decimal.New(1, -2)

// Engine validates and posts journal transactions. It is the only writer of
// the ledger store.
type Engine struct {
	store           ledger.Store
	tolerance       decimal.Decimal
	roundingAccount string
	logger          *slog.Logger
	metrics         *metrics.Metrics
	now             func() time.Time
	reverseMu       sync.Mutex
}

// Option configures an Engine.
type Option func(*Engine)

// WithTolerance overrides DefaultTolerance.
func WithTolerance(tol decimal.Decimal) Option {
	return func(e *Engine) { e.tolerance = tol.Abs() }
}

// WithRoundingAccount makes the engine post any residual difference within
// tolerance to account, so every stored transaction balances exactly.
func WithRoundingAccount(account string) Option {
	return func(e *Engine) { e.roundingAccount = account }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithClock sets the clock used for PostedAt.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates a journal Engine over store.
func NewEngine(store ledger.Store, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		tolerance: DefaultTolerance,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Post validates drafts and appends them to the ledger as one transaction.
// On failure nothing is written.
func (e *Engine) Post(ctx context.Context, drafts []model.Draft) ([]model.JournalEntry, error) {
	return e.PostTo(ctx, e.store, drafts)
}

// PostTo is Post writing through w, which is typically the ledger writer of
// a unit of work that also carries other state changes.
func (e *Engine) PostTo(ctx context.Context, w ledger.Writer, drafts []model.Draft) ([]model.JournalEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	drafts, err := e.Prepare(drafts)
	if err != nil {
		e.metrics.Posted(metrics.ResultRejected, 0)
		e.logger.Warn("posting rejected", "lines", len(drafts), "error", err)
		return nil, err
	}

	// Validation passed; the write runs to completion.
	ctx = context.WithoutCancel(ctx)

	lines, err := e.write(ctx, w, drafts)
	if err != nil {
		e.metrics.Posted(metrics.ResultError, 0)
		e.logger.Error("posting failed", "error", err)
		return nil, err
	}

	e.metrics.Posted(metrics.ResultOK, len(lines))
	e.logger.Info("transaction posted", "transaction_id", lines[0].TransactionID, "lines", len(lines))
	return lines, nil
}

// Prepare validates drafts and checks the balance against the tolerance. It
// returns the drafts to write, including a rounding line when configured.
func (e *Engine) Prepare(drafts []model.Draft) ([]model.Draft, error) {
	if verrs := ValidateDrafts(drafts); len(verrs) > 0 {
		return drafts, verrs
	}

	debits, credits := Totals(drafts)
	diff := debits.Sub(credits)
	if diff.Abs().GreaterThan(e.tolerance) {
		return drafts, apperrors.NewUnbalanced(debits, credits)
	}

	if !diff.IsZero() && e.roundingAccount != "" {
		r := model.Draft{
			Date:        drafts[0].Date,
			Description: "Rounding",
			Account:     e.roundingAccount,
		}
		if diff.IsPositive() {
			r.Credit = diff
		} else {
			r.Debit = diff.Neg()
		}
		drafts = append(drafts[:len(drafts):len(drafts)], r)
	}
	return drafts, nil
}

func (e *Engine) write(ctx context.Context, w ledger.Writer, drafts []model.Draft) ([]model.JournalEntry, error) {
	date := drafts[0].Date
	year, month := date.Year(), int(date.Month())

	seq, err := w.NextSequence(ctx, year, month)
	if err != nil {
		return nil, fmt.Errorf("allocating sequence for %04d-%02d: %w", year, month, err)
	}

	txID := id.FormatTransactionID(year, month, seq)
	postedAt := e.now().UTC()

	lines := make([]model.JournalEntry, len(drafts))
	for i, d := range drafts {
		lines[i] = model.JournalEntry{
			ID:            id.FormatLineID(txID, i),
			TransactionID: txID,
			Date:          model.DateOnly(d.Date),
			Description:   d.Description,
			Account:       d.Account,
			Debit:         d.Debit,
			Credit:        d.Credit,
			Status:        model.StatusPosted,
			PostedAt:      postedAt,
		}
	}

	if err := w.Append(ctx, lines); err != nil {
		return nil, fmt.Errorf("appending transaction %s: %w", txID, err)
	}
	return lines, nil
}

// reversalPrefix starts the description of every line Reverse posts.
const reversalPrefix = "Reversal of "

// Reverse posts a new transaction on date that swaps the debit and credit
// of every line of txID. The original lines are untouched. A transaction is
// reversed at most once, and reversals themselves cannot be reversed; both
// fail with apperrors.ErrConflict.
func (e *Engine) Reverse(ctx context.Context, txID string, date time.Time) ([]model.JournalEntry, error) {
	e.reverseMu.Lock()
	defer e.reverseMu.Unlock()

	orig, err := e.Transaction(ctx, txID)
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(orig[0].Description, reversalPrefix) {
		return nil, fmt.Errorf("transaction %s is itself a reversal: %w", txID, apperrors.ErrConflict)
	}

	marker := reversalPrefix + txID + ":"
	prior, err := e.store.Lines(ctx, ledger.Filter{Query: marker})
	if err != nil {
		return nil, fmt.Errorf("checking reversals of %s: %w", txID, err)
	}
	for _, l := range prior {
		if strings.HasPrefix(l.Description, marker) {
			return nil, fmt.Errorf("transaction %s already reversed by %s: %w", txID, l.TransactionID, apperrors.ErrConflict)
		}
	}

	drafts := make([]model.Draft, len(orig))
	for i, l := range orig {
		drafts[i] = model.Draft{
			Date:        date,
			Description: marker + " " + l.Description,
			Account:     l.Account,
			Debit:       l.Credit,
			Credit:      l.Debit,
		}
	}
	return e.Post(ctx, drafts)
}
