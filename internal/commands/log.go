package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledger/internal/auditlog"
)

func newLogCommand(e *env) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show recent activity",
		Args:  cobra.NoArgs,
		RunE: e.run(func(cmd *cobra.Command, _ []string, a *App) error {
			entries, err := auditlog.Read(a.Config.DataDir)
			if err != nil {
				return err
			}
			if limit > 0 && len(entries) > limit {
				entries = entries[len(entries)-limit:]
			}
			tw := newTable(cmd.OutOrStdout(), "TIME", "ACTOR", "ACTION", "DETAILS", "REFERENCE", "TRANSACTION")
			for _, en := range entries {
				row(tw, en.Timestamp.Format(time.DateTime), en.Actor, en.Action, en.Details, en.Reference, en.TransactionID)
			}
			return tw.Flush()
		}),
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries, 0 for all")
	return cmd
}
