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

// GenericParser parses "date,description,amount" CSVs with ISO dates and dot
// decimals. Extra trailing columns are ignored.
type GenericParser struct{}

const (
	genericDateFormat = "2006-01-02"
	genericMinFields  = 3
	genericColDate    = 0
	genericColDesc    = 1
	genericColAmount  = 2
)

// Format returns the parser name.
func (p *GenericParser) Format() string { return "generic" }

// Parse reads a generic CSV and returns BankTransactions.
func (p *GenericParser) Parse(r io.Reader) ([]model.BankTransaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading generic CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var txns []model.BankTransaction
	for i, rec := range records[1:] {
		if blank(rec) {
			continue
		}
		if len(rec) < genericMinFields {
			return nil, fmt.Errorf("row %d: expected at least %d fields, got %d", i+2, genericMinFields, len(rec))
		}
		txn, err := p.parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

func (p *GenericParser) parseRow(rec []string) (model.BankTransaction, error) {
	raw := strings.TrimSpace(rec[genericColDate])
	date, err := time.Parse(genericDateFormat, raw)
	if err != nil {
		return model.BankTransaction{}, fmt.Errorf("parsing date %q: %w", raw, err)
	}

	raw = strings.TrimSpace(rec[genericColAmount])
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return model.BankTransaction{}, fmt.Errorf("parsing amount %q: %w", raw, err)
	}
	amount = amount.Round(2)

	desc := strings.TrimSpace(rec[genericColDesc])
	return model.BankTransaction{
		Date:        date,
		Description: desc,
		Amount:      amount,
		Reference:   reconcile.Reference(p.Format(), date, desc, amount),
		Source:      p.Format(),
	}, nil
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
