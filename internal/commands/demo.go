package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledger/internal/config"
	"github.com/cleared-dev/ledger/internal/model"
	"github.com/cleared-dev/ledger/internal/subledger"
)

func newDemoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Seed an in-memory ledger with sample data and print reports",
		Long: `Build a throwaway in-memory ledger with sample clients, vendors,
invoices, payments and a bank feed, then print the entity lists, the trial
balance and the reconciliation suggestions. Nothing is persisted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := os.MkdirTemp("", "ledger-demo-*")
			if err != nil {
				return err
			}
			defer os.RemoveAll(dir)

			cfg := config.Default("Demo S.L.")
			cfg.DataDir = dir
			cfg.Logging.Level = "warn"
			a, err := NewMemoryApp(cfg, cmd.ErrOrStderr(), AppOption{})
			if err != nil {
				return err
			}
			defer a.Close()

			if err := seedDemo(cmd.Context(), a, model.DateOnly(timeNow())); err != nil {
				return fmt.Errorf("seeding demo data: %w", err)
			}
			return runDemoReports(cmd, a)
		},
	}
}

type demoEntity struct {
	params   subledger.CreateEntityParams
	invoices []demoInvoice
}

type demoInvoice struct {
	gross     string
	issuedAgo int // days before today
	termDays  int
	paid      string // "", "full" or an amount
}

var demoEntities = []demoEntity{
	{
		params: subledger.CreateEntityParams{
			Type: model.EntityClient, Name: "TechSolutions S.L.", Email: "billing@techsolutions.com",
			VATNumber: "B12345678", PaymentTerms: "Net 30",
		},
		invoices: []demoInvoice{
			{gross: "2000.00", issuedAgo: 20, termDays: 30, paid: "500.00"},
			{gross: "1000.00", issuedAgo: 45, termDays: 30},
		},
	},
	{
		params: subledger.CreateEntityParams{
			Type: model.EntityClient, Name: "GastroBar Berlin", Email: "info@gastrobar.de",
			VATNumber: "DE987654321", PaymentTerms: "Net 15",
		},
		invoices: []demoInvoice{
			{gross: "1200.50", issuedAgo: 12, termDays: 15, paid: "full"},
		},
	},
	{
		params: subledger.CreateEntityParams{
			Type: model.EntityVendor, Name: "Oficina Total S.A.", Email: "ventas@oficinatotal.es",
			VATNumber: "A87654321", PaymentTerms: "Net 60",
		},
		invoices: []demoInvoice{
			{gross: "450.50", issuedAgo: 10, termDays: 60},
			{gross: "150.00", issuedAgo: 11, termDays: 0, paid: "full"},
		},
	},
	{
		params: subledger.CreateEntityParams{
			Type: model.EntityVendor, Name: "Cloud Hosting GmbH", Email: "support@cloudhost.de",
			VATNumber: "DE112233445", PaymentTerms: "Immediate",
		},
		invoices: []demoInvoice{
			{gross: "120.00", issuedAgo: 5, termDays: 0},
		},
	},
}

func seedDemo(ctx context.Context, a *App, today time.Time) error {
	day := func(ago int) time.Time { return today.AddDate(0, 0, -ago) }

	for _, de := range demoEntities {
		ent, err := a.Subledger.CreateEntity(ctx, de.params)
		if err != nil {
			return err
		}
		for _, inv := range de.invoices {
			issued := day(inv.issuedAgo)
			item, _, err := a.Subledger.IssueInvoice(ctx, subledger.IssueInvoiceParams{
				EntityID: ent.ID,
				Gross:    decimal.RequireFromString(inv.gross),
				Date:     issued,
				DueDate:  issued.AddDate(0, 0, inv.termDays),
			})
			if err != nil {
				return err
			}
			if inv.paid == "" {
				continue
			}
			amount := decimal.Zero
			if inv.paid != "full" {
				amount = decimal.RequireFromString(inv.paid)
			}
			if _, _, err := a.Subledger.SettleInvoice(ctx, subledger.SettleInvoiceParams{
				EntityID:   ent.ID,
				OpenItemID: item.ID,
				Amount:     amount,
				Date:       issued.AddDate(0, 0, 2),
			}); err != nil {
				return err
			}
		}
	}

	bank := a.Config.Accounting.Accounts.Bank
	if _, err := a.Journal.Post(ctx, []model.Draft{
		{Date: day(8), Description: "Comision mantenimiento", Account: "6260 Servicios bancarios", Debit: decimal.RequireFromString("12.00")},
		{Date: day(8), Description: "Comision mantenimiento", Account: bank, Credit: decimal.RequireFromString("12.00")},
	}); err != nil {
		return err
	}

	feed := []model.BankTransaction{
		{Date: day(10), Description: "TRANSFERENCIA RECIBIDA GASTROBAR", Amount: decimal.RequireFromString("1200.50")},
		{Date: day(18), Description: "TRANSFERENCIA RECIBIDA TECHSOLUTIONS", Amount: decimal.RequireFromString("500.00")},
		{Date: day(9), Description: "CARGO VISA COMPRA MATERIAL", Amount: decimal.RequireFromString("-150.00")},
		{Date: day(7), Description: "COMISION MANTENIMIENTO", Amount: decimal.RequireFromString("-12.00")},
		{Date: day(3), Description: "NOMINA EMPLEADO 1", Amount: decimal.RequireFromString("-2400.00")},
	}
	for i := range feed {
		feed[i].Source = "demo"
	}
	_, err := a.Matcher.Import(ctx, feed)
	return err
}

func runDemoReports(cmd *cobra.Command, a *App) error {
	out := cmd.OutOrStdout()
	steps := []struct {
		title string
		args  []string
	}{
		{"Clients", []string{"entity", "list", "--type", "client"}},
		{"Vendors", []string{"entity", "list", "--type", "vendor"}},
		{"Trial balance", []string{"journal", "trial-balance"}},
		{"Profit and loss", []string{"journal", "summary"}},
		{"Unmatched bank transactions", []string{"bank", "unmatched"}},
		{"Suggested matches", []string{"bank", "suggest"}},
	}
	for _, s := range steps {
		fmt.Fprintf(out, "\n== %s ==\n", s.title)
		if err := runSub(cmd.Context(), a, out, cmd.ErrOrStderr(), s.args...); err != nil {
			return fmt.Errorf("%s: %w", s.title, err)
		}
	}
	return nil
}

// runSub executes a subcommand against a.
func runSub(ctx context.Context, a *App, out, errOut io.Writer, args ...string) error {
	root := NewRootCommand(WithApp(a))
	root.SetOut(out)
	root.SetErr(errOut)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
