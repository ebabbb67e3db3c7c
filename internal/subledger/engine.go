// Package subledger maintains client and vendor balances and derives journal
// transactions from invoice and settlement events.
package subledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledger/internal/accounts"
	"github.com/cleared-dev/ledger/internal/id"
	"github.com/cleared-dev/ledger/internal/metrics"
)

// Accounts names the ledger accounts subledger events post to.
type Accounts struct {
	Receivable string
	Payable    string
	Sales      string
	Purchases  string
	OutputTax  string
	InputTax   string
	Bank       string
}

// DefaultAccounts returns the default chart's posting accounts.
func DefaultAccounts() Accounts {
	return Accounts{
		Receivable: accounts.Receivable,
		Payable:    accounts.Payable,
		Sales:      accounts.Sales,
		Purchases:  accounts.Purchases,
		OutputTax:  accounts.OutputTax,
		InputTax:   accounts.InputTax,
		Bank:       accounts.Bank,
	}
}

// DefaultPaymentMethod is recorded on payments that do not name one.
const DefaultPaymentMethod = "Bank Transfer"

// DefaultDueDays is the credit period used when an invoice has no due date.
const DefaultDueDays = 30

// Engine owns client and vendor subledgers.
type Engine struct {
	repo          Repository
	poster        Poster
	accounts      Accounts
	taxRate       decimal.Decimal
	currency      string
	paymentMethod string
	logger        *slog.Logger
	metrics       *metrics.Metrics
	now           func() time.Time
	documentID    func(prefix string, issued time.Time) string
	locks         *keyedMutex
	validate      *validator.Validate
}

// Option configures an Engine.
type Option func(*Engine)

// WithAccounts overrides DefaultAccounts.
func WithAccounts(a Accounts) Option {
	return func(e *Engine) { e.accounts = a }
}

// WithTaxRate overrides DefaultTaxRate.
func WithTaxRate(rate decimal.Decimal) Option {
	return func(e *Engine) { e.taxRate = rate }
}

// WithCurrency sets the currency given to entities created without one.
func WithCurrency(code string) Option {
	return func(e *Engine) { e.currency = code }
}

// WithPaymentMethod overrides DefaultPaymentMethod.
func WithPaymentMethod(method string) Option {
	return func(e *Engine) { e.paymentMethod = method }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithClock sets the clock used for creation dates and overdue checks.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithDocumentIDs replaces the open item number generator. Defaults to
// id.NewDocument.
func WithDocumentIDs(fn func(prefix string, issued time.Time) string) Option {
	return func(e *Engine) { e.documentID = fn }
}

// NewEngine creates a subledger Engine storing entities in repo and posting
// through poster.
func NewEngine(repo Repository, poster Poster, opts ...Option) *Engine {
	e := &Engine{
		repo:          repo,
		poster:        poster,
		accounts:      DefaultAccounts(),
		taxRate:       DefaultTaxRate,
		currency:      "EUR",
		paymentMethod: DefaultPaymentMethod,
		logger:        slog.Default(),
		now:           time.Now,
		documentID:    id.NewDocument,
		locks:         newKeyedMutex(),
		validate:      validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// inTx runs fn inside a unit of work, committing on success and rolling back
// on any error.
func (e *Engine) inTx(ctx context.Context, fn func(tx Tx) error) (err error) {
	tx, err := e.repo.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
				e.logger.Error("rollback failed", "error", rbErr)
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
