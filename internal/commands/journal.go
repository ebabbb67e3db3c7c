package commands

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledger/internal/ledger"
	"github.com/cleared-dev/ledger/internal/model"
)

func newJournalCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Post and query journal transactions",
	}
	cmd.AddCommand(
		newJournalPostCommand(e),
		newJournalListCommand(e),
		newJournalShowCommand(e),
		newJournalReverseCommand(e),
		newJournalExportCommand(e),
		newJournalImportCommand(e),
		newTrialBalanceCommand(e),
		newSummaryCommand(e),
	)
	return cmd
}

func newJournalPostCommand(e *env) *cobra.Command {
	var date, desc string
	var debits, credits []string

	cmd := &cobra.Command{
		Use:   "post",
		Short: "Post a balanced transaction",
		Long: `Post a balanced transaction. Each --debit and --credit takes
"ACCOUNT=AMOUNT", for example --debit "5720 Banco=121.00".`,
		Args: cobra.NoArgs,
		RunE: e.run(func(cmd *cobra.Command, _ []string, a *App) error {
			when, err := parseDate("date", date)
			if err != nil {
				return err
			}
			if when.IsZero() {
				when = time.Now()
			}

			var drafts []model.Draft
			for _, arg := range debits {
				acct, amt, err := parseLeg("debit", arg)
				if err != nil {
					return err
				}
				drafts = append(drafts, model.Draft{Date: when, Description: desc, Account: acct, Debit: amt})
			}
			for _, arg := range credits {
				acct, amt, err := parseLeg("credit", arg)
				if err != nil {
					return err
				}
				drafts = append(drafts, model.Draft{Date: when, Description: desc, Account: acct, Credit: amt})
			}
			for _, d := range drafts {
				if !a.Chart.Exists(d.Account) {
					a.Logger.Warn("account not in chart of accounts", "account", d.Account)
				}
			}

			lines, err := a.Journal.Post(cmd.Context(), drafts)
			if err != nil {
				return err
			}
			txID := lines[0].TransactionID
			a.record("journal_post", fmt.Sprintf("Posted %s: %s", txID, desc), "", txID)
			fmt.Fprintf(cmd.OutOrStdout(), "Posted %s\n", txID)
			return printLines(cmd.OutOrStdout(), lines)
		}),
	}

	cmd.Flags().StringVar(&date, "date", "", "transaction date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&desc, "description", "", "transaction description")
	cmd.Flags().StringArrayVar(&debits, "debit", nil, `debit leg "ACCOUNT=AMOUNT" (repeatable)`)
	cmd.Flags().StringArrayVar(&credits, "credit", nil, `credit leg "ACCOUNT=AMOUNT" (repeatable)`)
	return cmd
}

// parseLeg splits "ACCOUNT=AMOUNT" at the last '='.
func parseLeg(side, arg string) (string, decimal.Decimal, error) {
	i := strings.LastIndex(arg, "=")
	if i <= 0 {
		return "", decimal.Zero, fmt.Errorf("--%s %q: expected ACCOUNT=AMOUNT", side, arg)
	}
	amt, err := parseAmount(side, strings.TrimSpace(arg[i+1:]))
	if err != nil {
		return "", decimal.Zero, err
	}
	return strings.TrimSpace(arg[:i]), amt, nil
}

func newJournalListCommand(e *env) *cobra.Command {
	var query, from, to string
	var prefixes []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List posted journal lines",
		Args:  cobra.NoArgs,
		RunE: e.run(func(cmd *cobra.Command, _ []string, a *App) error {
			f := ledger.Filter{Query: query, AccountPrefixes: prefixes}
			var err error
			if f.From, err = parseDate("from", from); err != nil {
				return err
			}
			if f.To, err = parseDate("to", to); err != nil {
				return err
			}
			lines, err := a.Journal.Lines(cmd.Context(), f)
			if err != nil {
				return err
			}
			return printLines(cmd.OutOrStdout(), lines)
		}),
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "filter by description or account substring")
	cmd.Flags().StringSliceVar(&prefixes, "account", nil, "filter by account prefix (repeatable)")
	cmd.Flags().StringVar(&from, "from", "", "first date YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last date YYYY-MM-DD")
	return cmd
}

func newJournalShowCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "show <transaction-id>",
		Short: "Show the lines of one transaction",
		Args:  cobra.ExactArgs(1),
		RunE: e.run(func(cmd *cobra.Command, args []string, a *App) error {
			lines, err := a.Journal.Transaction(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printLines(cmd.OutOrStdout(), lines)
		}),
	}
}

func newJournalReverseCommand(e *env) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "reverse <transaction-id>",
		Short: "Post a transaction that reverses another",
		Args:  cobra.ExactArgs(1),
		RunE: e.run(func(cmd *cobra.Command, args []string, a *App) error {
			when, err := parseDate("date", date)
			if err != nil {
				return err
			}
			if when.IsZero() {
				when = time.Now()
			}
			lines, err := a.Journal.Reverse(cmd.Context(), args[0], when)
			if err != nil {
				return err
			}
			txID := lines[0].TransactionID
			a.record("journal_reverse", fmt.Sprintf("Reversed %s as %s", args[0], txID), args[0], txID)
			fmt.Fprintf(cmd.OutOrStdout(), "Reversed %s as %s\n", args[0], txID)
			return printLines(cmd.OutOrStdout(), lines)
		}),
	}

	cmd.Flags().StringVar(&date, "date", "", "reversal date YYYY-MM-DD (default today)")
	return cmd
}

func newJournalExportCommand(e *env) *cobra.Command {
	var query, output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export journal lines as CSV",
		Args:  cobra.NoArgs,
		RunE: e.run(func(cmd *cobra.Command, _ []string, a *App) (err error) {
			w := cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("creating %s: %w", output, err)
				}
				defer func() {
					if cerr := f.Close(); cerr != nil && err == nil {
						err = cerr
					}
				}()
				w = f
			}
			n, err := a.Journal.Export(cmd.Context(), w, query)
			if err != nil {
				return err
			}
			a.Logger.Info("journal exported", "lines", n, "output", output)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "filter by description or account substring")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file, - for stdout")
	return cmd
}

func newJournalImportCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Post transactions from a journal CSV",
		Args:  cobra.ExactArgs(1),
		RunE: e.run(func(cmd *cobra.Command, args []string, a *App) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer f.Close()

			posted, err := a.Journal.Import(cmd.Context(), f)
			for _, txID := range posted {
				a.record("journal_import", "Imported from "+args[0], args[0], txID)
			}
			if err != nil {
				return fmt.Errorf("imported %d transactions before failing: %w", len(posted), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d transactions\n", len(posted))
			return nil
		}),
	}
}

func newTrialBalanceCommand(e *env) *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "trial-balance",
		Short: "Show debit and credit totals per account",
		Args:  cobra.NoArgs,
		RunE: e.run(func(cmd *cobra.Command, _ []string, a *App) error {
			when, err := parseDate("as-of", asOf)
			if err != nil {
				return err
			}
			tb, err := a.Journal.TrialBalance(cmd.Context(), when)
			if err != nil {
				return err
			}

			tw := newTable(cmd.OutOrStdout(), "ACCOUNT", "DEBIT", "CREDIT", "NET")
			for _, b := range tb.Accounts {
				row(tw, b.Account, b.Debit.StringFixed(2), b.Credit.StringFixed(2), b.Net().StringFixed(2))
			}
			row(tw, "TOTAL", tb.Debit.StringFixed(2), tb.Credit.StringFixed(2), tb.Debit.Sub(tb.Credit).StringFixed(2))
			if err := tw.Flush(); err != nil {
				return err
			}
			if !tb.Balanced() {
				return fmt.Errorf("trial balance does not balance: debits %s, credits %s",
					tb.Debit.StringFixed(2), tb.Credit.StringFixed(2))
			}
			return nil
		}),
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "include lines dated up to YYYY-MM-DD")
	return cmd
}

func newSummaryCommand(e *env) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show revenue, expenses and net income",
		Args:  cobra.NoArgs,
		RunE: e.run(func(cmd *cobra.Command, _ []string, a *App) error {
			start, err := parseDate("from", from)
			if err != nil {
				return err
			}
			end, err := parseDate("to", to)
			if err != nil {
				return err
			}
			s, err := a.Journal.Summary(cmd.Context(), a.Chart, start, end)
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout(), "REVENUE", "EXPENSES", "NET")
			row(tw, s.Revenue.StringFixed(2), s.Expenses.StringFixed(2), s.Net().StringFixed(2))
			return tw.Flush()
		}),
	}

	cmd.Flags().StringVar(&from, "from", "", "first date YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last date YYYY-MM-DD")
	return cmd
}
