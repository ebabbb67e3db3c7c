package commands

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledger/internal/buildinfo"
	"github.com/cleared-dev/ledger/internal/config"
)

// Option configures the root command.
type Option func(*env)

// WithApp makes every command use a, which the caller owns. Used by tests
// and the demo to share one in-memory store across invocations.
func WithApp(a *App) Option {
	return func(e *env) { e.app = a }
}

// env carries global flags and the lazily built App.
type env struct {
	cfgPath string
	dataDir string
	app     *App
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand(opts ...Option) *cobra.Command {
	e := &env{}
	for _, opt := range opts {
		opt(e)
	}

	rootCmd := &cobra.Command{
		Use:     "ledger",
		Short:   "Double-entry ledger with client and vendor subledgers",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&e.cfgPath, "config", config.FileName, "config file")
	rootCmd.PersistentFlags().StringVar(&e.dataDir, "data-dir", "", "data directory (overrides data_dir in config)")

	rootCmd.AddCommand(
		newInitCommand(),
		newJournalCommand(e),
		newEntityCommand(e),
		newInvoiceCommand(e),
		newBankCommand(e),
		newAccountsCommand(e),
		newLogCommand(e),
		newSnapshotCommand(e),
		newDemoCommand(),
	)

	return rootCmd
}

// run wraps a command body that needs the engines.
func (e *env) run(fn func(cmd *cobra.Command, args []string, a *App) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if e.app != nil {
			return fn(cmd, args, e.app)
		}
		a, err := e.open(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd, args, a)
	}
}

func (e *env) open(cmd *cobra.Command) (*App, error) {
	cfgDir := filepath.Dir(e.cfgPath)
	if err := config.LoadEnv(cfgDir); err != nil {
		return nil, err
	}
	cfg, err := config.LoadOrDefault(e.cfgPath)
	if err != nil {
		return nil, err
	}
	switch {
	case e.dataDir != "":
		cfg.DataDir = e.dataDir
	case !filepath.IsAbs(cfg.DataDir):
		cfg.DataDir = filepath.Join(cfgDir, cfg.DataDir)
	}
	return NewApp(cmd.Context(), cfg, cmd.ErrOrStderr(), AppOption{})
}

const dateLayout = "2006-01-02"

// timeNow is the clock used for overdue columns.
var timeNow = time.Now

// parseDate parses an optional YYYY-MM-DD flag. Empty yields the zero time.
func parseDate(flag, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: expected YYYY-MM-DD, got %q", flag, s)
	}
	return t, nil
}

// parseAmount parses an optional decimal flag. Empty yields zero.
func parseAmount(flag, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("--%s: invalid amount %q", flag, s)
	}
	return d, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}
