package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledger/internal/subledger"
)

func newInvoiceCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoice",
		Short: "Issue and settle client invoices and vendor bills",
	}
	cmd.AddCommand(newInvoiceIssueCommand(e), newInvoiceSettleCommand(e))
	return cmd
}

func newInvoiceIssueCommand(e *env) *cobra.Command {
	var gross, date, due string

	cmd := &cobra.Command{
		Use:   "issue <entity-id>",
		Short: "Issue a tax-inclusive invoice (client) or bill (vendor)",
		Args:  cobra.ExactArgs(1),
		RunE: e.run(func(cmd *cobra.Command, args []string, a *App) error {
			p := subledger.IssueInvoiceParams{EntityID: args[0]}
			var err error
			if p.Gross, err = parseAmount("gross", gross); err != nil {
				return err
			}
			if p.Date, err = parseDate("date", date); err != nil {
				return err
			}
			if p.DueDate, err = parseDate("due", due); err != nil {
				return err
			}

			item, lines, err := a.Subledger.IssueInvoice(cmd.Context(), p)
			if err != nil {
				return err
			}
			a.record("invoice_issue", fmt.Sprintf("Issued %s for %s, %s", item.ID, args[0], item.Amount.StringFixed(2)),
				item.ID, item.TransactionID)
			fmt.Fprintf(cmd.OutOrStdout(), "Issued %s due %s (transaction %s)\n", item.ID, formatDate(item.DueDate), item.TransactionID)
			return printLines(cmd.OutOrStdout(), lines)
		}),
	}

	cmd.Flags().StringVar(&gross, "gross", "", "tax-inclusive amount (required)")
	cmd.Flags().StringVar(&date, "date", "", "issue date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&due, "due", "", "due date YYYY-MM-DD (default issue date + 30 days)")
	_ = cmd.MarkFlagRequired("gross")
	return cmd
}

func newInvoiceSettleCommand(e *env) *cobra.Command {
	var amount, method, date string

	cmd := &cobra.Command{
		Use:   "settle <entity-id> <item-id>",
		Short: "Record a payment against an open item",
		Args:  cobra.ExactArgs(2),
		RunE: e.run(func(cmd *cobra.Command, args []string, a *App) error {
			p := subledger.SettleInvoiceParams{EntityID: args[0], OpenItemID: args[1], Method: method}
			var err error
			if p.Amount, err = parseAmount("amount", amount); err != nil {
				return err
			}
			if p.Date, err = parseDate("date", date); err != nil {
				return err
			}

			pay, lines, err := a.Subledger.SettleInvoice(cmd.Context(), p)
			if err != nil {
				return err
			}
			a.record("invoice_settle", fmt.Sprintf("Settled %s for %s, %s by %s", pay.Reference, args[0], pay.Amount.StringFixed(2), pay.Method),
				pay.Reference, pay.TransactionID)
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded payment %s of %s (transaction %s)\n", pay.ID, pay.Amount.StringFixed(2), pay.TransactionID)
			return printLines(cmd.OutOrStdout(), lines)
		}),
	}

	cmd.Flags().StringVar(&amount, "amount", "", "amount paid (default the full open amount)")
	cmd.Flags().StringVar(&method, "method", "", "payment method (default from config)")
	cmd.Flags().StringVar(&date, "date", "", "payment date YYYY-MM-DD (default today)")
	return cmd
}
