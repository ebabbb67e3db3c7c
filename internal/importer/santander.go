package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledger/internal/model"
	"github.com/cleared-dev/ledger/internal/reconcile"
)

// SantanderParser parses Santander account movement exports:
// semicolon separated, "Fecha;Concepto;Importe;Saldo", dd/mm/yyyy dates and
// amounts like "-1.234,56". The running balance column is ignored.
type SantanderParser struct{}

const (
	santanderDateFormat = "02/01/2006"
	santanderNumFields  = 4
	santanderColDate    = 0
	santanderColDesc    = 1
	santanderColAmount  = 2
)

// Format returns the parser name.
func (p *SantanderParser) Format() string { return "santander" }

// Parse reads a Santander CSV and returns BankTransactions.
func (p *SantanderParser) Parse(r io.Reader) ([]model.BankTransaction, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = santanderNumFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading santander CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var txns []model.BankTransaction
	for i, rec := range records[1:] {
		txn, err := p.parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

func (p *SantanderParser) parseRow(rec []string) (model.BankTransaction, error) {
	raw := strings.TrimSpace(rec[santanderColDate])
	date, err := time.Parse(santanderDateFormat, raw)
	if err != nil {
		return model.BankTransaction{}, fmt.Errorf("parsing date %q: %w", raw, err)
	}

	amount, err := parseEuroAmount(rec[santanderColAmount])
	if err != nil {
		return model.BankTransaction{}, err
	}

	desc := strings.TrimSpace(rec[santanderColDesc])
	return model.BankTransaction{
		Date:        date,
		Description: desc,
		Amount:      amount,
		Reference:   reconcile.Reference(p.Format(), date, desc, amount),
		Source:      p.Format(),
	}, nil
}

// parseEuroAmount parses "1.234,56" style amounts, with an optional trailing
// " EUR" or "€".
func parseEuroAmount(s string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(s)
	clean := strings.TrimSpace(strings.TrimSuffix(strings.TrimSuffix(raw, "EUR"), "€"))
	clean = strings.ReplaceAll(clean, ".", "")
	clean = strings.ReplaceAll(clean, ",", ".")
	amount, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing amount %q: %w", raw, err)
	}
	return amount.Round(2), nil
}
