package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cleared-dev/ledger/internal/accounts"
	"github.com/cleared-dev/ledger/internal/auditlog"
	"github.com/cleared-dev/ledger/internal/config"
	"github.com/cleared-dev/ledger/internal/importer"
	"github.com/cleared-dev/ledger/internal/journal"
	"github.com/cleared-dev/ledger/internal/ledger"
	"github.com/cleared-dev/ledger/internal/metrics"
	"github.com/cleared-dev/ledger/internal/reconcile"
	"github.com/cleared-dev/ledger/internal/storage/filestore"
	"github.com/cleared-dev/ledger/internal/storage/memory"
	"github.com/cleared-dev/ledger/internal/storage/postgres"
	"github.com/cleared-dev/ledger/internal/subledger"
)

// store is what the engines need from a backend.
type store interface {
	ledger.Store
	subledger.Repository
	reconcile.Repository
}

// App wires the engines over one store for the duration of a command.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Chart     *accounts.Service
	Journal   *journal.Engine
	Subledger *subledger.Engine
	Matcher   *reconcile.Matcher
	Importers *importer.Registry
	Audit     *auditlog.Recorder

	close     func()
	ephemeral bool // store is discarded on Close
}

// Close releases the store.
func (a *App) Close() {
	if a.close != nil {
		a.close()
	}
}

// AppOption adjusts engine construction, mainly for tests.
type AppOption struct {
	Journal   []journal.Option
	Subledger []subledger.Option
	Reconcile []reconcile.Option
}

// NewApp opens the configured store and builds the engines.
func NewApp(ctx context.Context, cfg *config.Config, logOut io.Writer, opt AppOption) (*App, error) {
	logger, err := newLogger(cfg.Logging, logOut)
	if err != nil {
		return nil, err
	}

	var (
		st      store
		closeFn func()
	)
	switch cfg.Storage.Driver {
	case "postgres":
		if cfg.Storage.AutoMigrate {
			applied, err := postgres.Migrate(cfg.Storage.DatabaseURL)
			if err != nil {
				return nil, err
			}
			if applied {
				logger.Info("database migrations applied")
			}
		}
		pg, err := postgres.Open(ctx, cfg.Storage.DatabaseURL)
		if err != nil {
			return nil, err
		}
		st, closeFn = pg, pg.Close
	case "memory":
		logger.Warn("using in-memory storage; changes are discarded when the command exits")
		st = memory.New()
	default:
		fst, err := filestore.Open(ctx, cfg.DataDir)
		if err != nil {
			return nil, err
		}
		st, closeFn = fst, fst.Close
	}

	a, err := newApp(cfg, logger, st, opt)
	if err != nil {
		if closeFn != nil {
			closeFn()
		}
		return nil, err
	}
	a.close = closeFn
	a.ephemeral = cfg.Storage.Driver == "memory"
	return a, nil
}

// NewMemoryApp builds an App over a fresh in-memory store.
func NewMemoryApp(cfg *config.Config, logOut io.Writer, opt AppOption) (*App, error) {
	logger, err := newLogger(cfg.Logging, logOut)
	if err != nil {
		return nil, err
	}
	a, err := newApp(cfg, logger, memory.New(), opt)
	if err != nil {
		return nil, err
	}
	a.ephemeral = true
	return a, nil
}

func newApp(cfg *config.Config, logger *slog.Logger, st store, opt AppOption) (*App, error) {
	chart, err := accounts.LoadOrDefault(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	m := metrics.New(prometheus.NewRegistry())
	acct := cfg.Accounting

	jopts := []journal.Option{
		journal.WithTolerance(acct.Tolerance()),
		journal.WithLogger(logger),
		journal.WithMetrics(m),
	}
	if acct.RoundingAccount != "" {
		jopts = append(jopts, journal.WithRoundingAccount(acct.RoundingAccount))
	}
	j := journal.NewEngine(st, append(jopts, opt.Journal...)...)

	sopts := []subledger.Option{
		subledger.WithAccounts(subledger.Accounts{
			Receivable: acct.Accounts.Receivable,
			Payable:    acct.Accounts.Payable,
			Sales:      acct.Accounts.Sales,
			Purchases:  acct.Accounts.Purchases,
			OutputTax:  acct.Accounts.OutputTax,
			InputTax:   acct.Accounts.InputTax,
			Bank:       acct.Accounts.Bank,
		}),
		subledger.WithTaxRate(acct.TaxRateDecimal()),
		subledger.WithCurrency(cfg.Business.Currency),
		subledger.WithPaymentMethod(acct.DefaultPaymentMethod),
		subledger.WithLogger(logger),
		subledger.WithMetrics(m),
	}
	s := subledger.NewEngine(st, j, append(sopts, opt.Subledger...)...)

	ropts := []reconcile.Option{
		reconcile.WithBankPrefixes(cfg.Reconciliation.BankAccountPrefixes...),
		reconcile.WithSuggestWindow(cfg.Reconciliation.SuggestWindowDays),
		reconcile.WithLogger(logger),
		reconcile.WithMetrics(m),
	}
	r := reconcile.NewMatcher(st, st, append(ropts, opt.Reconcile...)...)

	return &App{
		Config:    cfg,
		Logger:    logger,
		Metrics:   m,
		Chart:     chart,
		Journal:   j,
		Subledger: s,
		Matcher:   r,
		Importers: importer.DefaultRegistry(),
		Audit:     auditlog.NewRecorder(cfg.DataDir, "cli"),
	}, nil
}

// record appends to the activity log. Failures are logged, not returned: the
// ledger write has already happened.
func (a *App) record(action, details, reference, transactionID string) {
	if err := a.Audit.Record(action, details, reference, transactionID); err != nil {
		a.Logger.Warn("activity log write failed", "action", action, "error", err)
	}
}

func newLogger(cfg config.LoggingConfig, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}
