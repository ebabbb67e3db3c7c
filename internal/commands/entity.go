package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledger/internal/model"
	"github.com/cleared-dev/ledger/internal/subledger"
)

func newEntityCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "entity",
		Aliases: []string{"entities"},
		Short:   "Manage clients and vendors",
	}
	cmd.AddCommand(
		newEntityCreateCommand(e),
		newEntityUpdateCommand(e),
		newEntityListCommand(e),
		newEntityShowCommand(e),
		newEntityDeleteCommand(e),
		newEntitySummaryCommand(e),
	)
	return cmd
}

func newEntityCreateCommand(e *env) *cobra.Command {
	var p subledger.CreateEntityParams
	var typ string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a client or vendor",
		Args:  cobra.NoArgs,
		RunE: e.run(func(cmd *cobra.Command, _ []string, a *App) error {
			p.Type = model.EntityType(typ)
			ent, err := a.Subledger.CreateEntity(cmd.Context(), p)
			if err != nil {
				return err
			}
			a.record("entity_create", fmt.Sprintf("Created %s %s", ent.Type, ent.Name), ent.ID, "")
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s %s\n", ent.Type, ent.ID)
			return nil
		}),
	}

	cmd.Flags().StringVar(&typ, "type", "", "client or vendor (required)")
	cmd.Flags().StringVar(&p.Name, "name", "", "legal or trading name (required)")
	cmd.Flags().StringVar(&p.Email, "email", "", "billing email")
	cmd.Flags().StringVar(&p.VATNumber, "vat", "", "VAT number (required)")
	cmd.Flags().StringVar(&p.Currency, "currency", "", "ISO 4217 currency (default from config)")
	cmd.Flags().StringVar(&p.PaymentTerms, "terms", "", "payment terms, e.g. Net 30")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("vat")
	return cmd
}

func newEntityUpdateCommand(e *env) *cobra.Command {
	var name, email, vat, currency, terms string

	cmd := &cobra.Command{
		Use:   "update <entity-id>",
		Short: "Edit fields of a client or vendor",
		Args:  cobra.ExactArgs(1),
		RunE: e.run(func(cmd *cobra.Command, args []string, a *App) error {
			var p subledger.UpdateEntityParams
			flags := cmd.Flags()
			if flags.Changed("name") {
				p.Name = &name
			}
			if flags.Changed("email") {
				p.Email = &email
			}
			if flags.Changed("vat") {
				p.VATNumber = &vat
			}
			if flags.Changed("currency") {
				p.Currency = &currency
			}
			if flags.Changed("terms") {
				p.PaymentTerms = &terms
			}

			ent, err := a.Subledger.UpdateEntity(cmd.Context(), args[0], p)
			if err != nil {
				return err
			}
			a.record("entity_update", "Updated "+ent.Name, ent.ID, "")
			return printEntity(cmd.OutOrStdout(), ent, nil)
		}),
	}

	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&email, "email", "", "new billing email")
	cmd.Flags().StringVar(&vat, "vat", "", "new VAT number")
	cmd.Flags().StringVar(&currency, "currency", "", "new currency")
	cmd.Flags().StringVar(&terms, "terms", "", "new payment terms")
	return cmd
}

func newEntityListCommand(e *env) *cobra.Command {
	var typ, search string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List clients and vendors",
		Args:  cobra.NoArgs,
		RunE: e.run(func(cmd *cobra.Command, _ []string, a *App) error {
			ents, err := a.Subledger.Entities(cmd.Context(), subledger.ListFilter{Type: model.EntityType(typ), Search: search})
			if err != nil {
				return err
			}
			now := timeNow()
			tw := newTable(cmd.OutOrStdout(), "ID", "TYPE", "NAME", "VAT", "BALANCE", "OPEN", "OVERDUE")
			for _, ent := range ents {
				n, _ := ent.OverdueAt(now)
				row(tw, ent.ID, string(ent.Type), ent.Name, ent.VATNumber, ent.Balance.StringFixed(2),
					fmt.Sprint(len(ent.OutstandingInvoices)), fmt.Sprint(n))
			}
			return tw.Flush()
		}),
	}

	cmd.Flags().StringVar(&typ, "type", "", "client or vendor")
	cmd.Flags().StringVarP(&search, "search", "s", "", "filter by name, email or VAT number")
	return cmd
}

func newEntityShowCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "show <entity-id>",
		Short: "Show an entity with its open items and payments",
		Args:  cobra.ExactArgs(1),
		RunE: e.run(func(cmd *cobra.Command, args []string, a *App) error {
			ent, err := a.Subledger.Entity(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			items, err := a.Subledger.OpenItems(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printEntity(cmd.OutOrStdout(), ent, items)
		}),
	}
}

func newEntityDeleteCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <entity-id>",
		Short: "Delete an entity; its journal lines are kept",
		Args:  cobra.ExactArgs(1),
		RunE: e.run(func(cmd *cobra.Command, args []string, a *App) error {
			if err := a.Subledger.DeleteEntity(cmd.Context(), args[0]); err != nil {
				return err
			}
			a.record("entity_delete", "Deleted "+args[0], args[0], "")
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		}),
	}
}

func newEntitySummaryCommand(e *env) *cobra.Command {
	var typ string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Total balances and overdue items",
		Args:  cobra.NoArgs,
		RunE: e.run(func(cmd *cobra.Command, _ []string, a *App) error {
			s, err := a.Subledger.Summary(cmd.Context(), model.EntityType(typ))
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout(), "ENTITIES", "BALANCE", "OPEN ITEMS", "OVERDUE", "OVERDUE AMOUNT")
			row(tw, fmt.Sprint(s.Entities), s.TotalBalance.StringFixed(2), fmt.Sprint(s.OpenItems),
				fmt.Sprint(s.OverdueItems), s.OverdueAmount.StringFixed(2))
			return tw.Flush()
		}),
	}

	cmd.Flags().StringVar(&typ, "type", "", "client or vendor (default both)")
	return cmd
}

func printEntity(w io.Writer, ent model.Entity, items []subledger.ItemView) error {
	fmt.Fprintf(w, "%s  %s (%s)\n", ent.ID, ent.Name, ent.Type)
	fmt.Fprintf(w, "VAT: %s  Email: %s  Currency: %s  Terms: %s\n", ent.VATNumber, ent.Email, ent.Currency, ent.PaymentTerms)
	fmt.Fprintf(w, "Balance: %s\n", ent.Balance.StringFixed(2))

	if len(items) > 0 {
		fmt.Fprintln(w)
		tw := newTable(w, "ITEM", "ISSUED", "DUE", "AMOUNT", "STATUS", "TRANSACTION")
		for _, it := range items {
			row(tw, it.ID, formatDate(it.IssuedAt), formatDate(it.DueDate), it.Amount.StringFixed(2), string(it.Status), it.TransactionID)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if len(ent.PaymentHistory) > 0 {
		fmt.Fprintln(w)
		tw := newTable(w, "PAYMENT", "DATE", "AMOUNT", "METHOD", "REFERENCE", "TRANSACTION")
		for _, p := range ent.PaymentHistory {
			row(tw, p.ID, formatDate(p.Date), p.Amount.StringFixed(2), p.Method, p.Reference, p.TransactionID)
		}
		return tw.Flush()
	}
	return nil
}
