package commands

import (
	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledger/internal/model"
)

func newAccountsCommand(e *env) *cobra.Command {
	var typ string

	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "List the chart of accounts",
		Args:  cobra.NoArgs,
		RunE: e.run(func(cmd *cobra.Command, _ []string, a *App) error {
			accts := a.Chart.All()
			if typ != "" {
				accts = a.Chart.ByType(model.AccountType(typ))
			}
			tw := newTable(cmd.OutOrStdout(), "CODE", "NAME", "TYPE", "DESCRIPTION")
			for _, acct := range accts {
				row(tw, acct.Code, acct.Name, string(acct.Type), acct.Description)
			}
			return tw.Flush()
		}),
	}

	cmd.Flags().StringVar(&typ, "type", "", "filter by account type")
	return cmd
}
