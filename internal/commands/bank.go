package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledger/internal/id"
	"github.com/cleared-dev/ledger/internal/importer"
	"github.com/cleared-dev/ledger/internal/model"
)

func newBankCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bank",
		Short: "Import bank feeds and reconcile them against the ledger",
	}
	cmd.AddCommand(
		newBankImportCommand(e),
		newBankListCommand(e),
		newBankCandidatesCommand(e),
		newBankMatchCommand(e),
		newBankSuggestCommand(e),
	)
	return cmd
}

func newBankImportCommand(e *env) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "import [file.csv]",
		Short: "Import a bank CSV, or every CSV in <data-dir>/import",
		Long: `Import bank transactions. With a file argument, that file is parsed.
Without one, every CSV in <data-dir>/import is parsed and then moved to
import/processed. Rows already imported are skipped.`,
		Args: cobra.MaximumNArgs(1),
		RunE: e.run(func(cmd *cobra.Command, args []string, a *App) error {
			if len(args) == 1 {
				return importBankFile(cmd, a, args[0], format)
			}

			files, err := importer.Scan(a.Config.DataDir)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No CSV files in import/")
				return nil
			}
			for _, f := range files {
				if err := importBankFile(cmd, a, f.Path, format); err != nil {
					return err
				}
				if err := importer.MarkProcessed(a.Config.DataDir, f.Name); err != nil {
					return err
				}
			}
			return nil
		}),
	}

	cmd.Flags().StringVar(&format, "format", "generic", "statement format: generic or santander")
	return cmd
}

func importBankFile(cmd *cobra.Command, a *App, path, format string) error {
	txns, err := a.Importers.ParseFile(path, format)
	if err != nil {
		return err
	}
	n, err := a.Matcher.Import(cmd.Context(), txns)
	if err != nil {
		return err
	}
	a.record("bank_import", fmt.Sprintf("Imported %d of %d rows (%s)", n, len(txns), format), path, "")
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d new, %d already imported\n", path, n, len(txns)-n)
	return nil
}

func newBankListCommand(e *env) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:     "unmatched",
		Aliases: []string{"list"},
		Short:   "List bank transactions awaiting a match",
		Args:    cobra.NoArgs,
		RunE: e.run(func(cmd *cobra.Command, _ []string, a *App) error {
			var txns []model.BankTransaction
			var err error
			if all {
				txns, err = a.Matcher.BankTransactions(cmd.Context())
			} else {
				txns, err = a.Matcher.Unmatched(cmd.Context())
			}
			if err != nil {
				return err
			}

			tw := newTable(cmd.OutOrStdout(), "ID", "DATE", "DESCRIPTION", "AMOUNT", "SOURCE", "MATCHED")
			for _, t := range txns {
				row(tw, t.ID, formatDate(t.Date), t.Description, t.Amount.StringFixed(2), t.Source, t.MatchedLine)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			bal, err := a.Matcher.UnreconciledBalance(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Unreconciled balance: %s\n", bal.StringFixed(2))
			return nil
		}),
	}

	cmd.Flags().BoolVar(&all, "all", false, "include matched transactions")
	return cmd
}

func newBankCandidatesCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "candidates",
		Short: "List bank-account ledger lines not yet reconciled",
		Args:  cobra.NoArgs,
		RunE: e.run(func(cmd *cobra.Command, _ []string, a *App) error {
			lines, err := a.Matcher.Candidates(cmd.Context())
			if err != nil {
				return err
			}
			return printLines(cmd.OutOrStdout(), lines)
		}),
	}
}

func newBankMatchCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "match <bank-tx-id> <line-id>",
		Short: "Reconcile a bank transaction with a ledger line",
		Args:  cobra.ExactArgs(2),
		RunE: e.run(func(cmd *cobra.Command, args []string, a *App) error {
			if err := a.Matcher.Match(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			a.record("bank_match", fmt.Sprintf("Matched %s to %s", args[0], args[1]), args[0], id.EntryGroup(args[1]))
			fmt.Fprintf(cmd.OutOrStdout(), "Matched %s to %s\n", args[0], args[1])
			return nil
		}),
	}
}

func newBankSuggestCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "suggest",
		Short: "Propose matches without applying them",
		Args:  cobra.NoArgs,
		RunE: e.run(func(cmd *cobra.Command, _ []string, a *App) error {
			sugg, err := a.Matcher.Suggest(cmd.Context())
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout(), "BANK TX", "DATE", "AMOUNT", "LINE", "LINE DATE", "DESCRIPTION", "REASON")
			for _, s := range sugg {
				row(tw, s.BankTx.ID, formatDate(s.BankTx.Date), s.BankTx.Amount.StringFixed(2),
					s.Line.ID, formatDate(s.Line.Date), s.Line.Description, s.Reason)
			}
			return tw.Flush()
		}),
	}
}
