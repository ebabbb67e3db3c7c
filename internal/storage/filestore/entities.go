package filestore

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/ledger/internal/model"
)

const dateLayout = "2006-01-02"

type entitiesFile struct {
	Entities []entityRecord `yaml:"entities"`
}

type entityRecord struct {
	ID           string          `yaml:"id"`
	Type         string          `yaml:"type"`
	Name         string          `yaml:"name"`
	Email        string          `yaml:"email,omitempty"`
	VATNumber    string          `yaml:"vat_number,omitempty"`
	Currency     string          `yaml:"currency"`
	PaymentTerms string          `yaml:"payment_terms"`
	Balance      string          `yaml:"balance"`
	CreatedAt    string          `yaml:"created_at"`
	OpenItems    []itemRecord    `yaml:"open_items,omitempty"`
	Payments     []paymentRecord `yaml:"payments,omitempty"`
}

type itemRecord struct {
	ID            string `yaml:"id"`
	Amount        string `yaml:"amount"`
	DueDate       string `yaml:"due_date"`
	IssuedAt      string `yaml:"issued_at"`
	TransactionID string `yaml:"transaction_id"`
}

type paymentRecord struct {
	ID            string `yaml:"id"`
	Date          string `yaml:"date"`
	Amount        string `yaml:"amount"`
	Method        string `yaml:"method"`
	Reference     string `yaml:"reference"`
	TransactionID string `yaml:"transaction_id"`
}

func readEntities(path string) ([]model.Entity, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var file entitiesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	out := make([]model.Entity, 0, len(file.Entities))
	for _, r := range file.Entities {
		e, err := r.entity()
		if err != nil {
			return nil, fmt.Errorf("%s: entity %s: %w", path, r.ID, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func writeEntities(w io.Writer, ents []model.Entity) error {
	file := entitiesFile{Entities: make([]entityRecord, 0, len(ents))}
	for _, e := range ents {
		file.Entities = append(file.Entities, newEntityRecord(e))
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(file); err != nil {
		return err
	}
	return enc.Close()
}

func newEntityRecord(e model.Entity) entityRecord {
	r := entityRecord{
		ID:           e.ID,
		Type:         string(e.Type),
		Name:         e.Name,
		Email:        e.Email,
		VATNumber:    e.VATNumber,
		Currency:     e.Currency,
		PaymentTerms: e.PaymentTerms,
		Balance:      e.Balance.String(),
		CreatedAt:    e.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	for _, item := range e.OutstandingInvoices {
		r.OpenItems = append(r.OpenItems, itemRecord{
			ID:            item.ID,
			Amount:        item.Amount.String(),
			DueDate:       item.DueDate.Format(dateLayout),
			IssuedAt:      item.IssuedAt.Format(dateLayout),
			TransactionID: item.TransactionID,
		})
	}
	for _, p := range e.PaymentHistory {
		r.Payments = append(r.Payments, paymentRecord{
			ID:            p.ID,
			Date:          p.Date.Format(dateLayout),
			Amount:        p.Amount.String(),
			Method:        p.Method,
			Reference:     p.Reference,
			TransactionID: p.TransactionID,
		})
	}
	return r
}

func (r entityRecord) entity() (model.Entity, error) {
	balance, err := decimal.NewFromString(r.Balance)
	if err != nil {
		return model.Entity{}, fmt.Errorf("invalid balance %q: %w", r.Balance, err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, r.CreatedAt)
	if err != nil {
		return model.Entity{}, fmt.Errorf("invalid created_at %q: %w", r.CreatedAt, err)
	}
	e := model.Entity{
		ID:           r.ID,
		Type:         model.EntityType(r.Type),
		Name:         r.Name,
		Email:        r.Email,
		VATNumber:    r.VATNumber,
		Currency:     r.Currency,
		PaymentTerms: r.PaymentTerms,
		Balance:      balance,
		CreatedAt:    createdAt,
	}
	if !e.Type.Valid() {
		return model.Entity{}, fmt.Errorf("invalid type %q", r.Type)
	}

	for _, ir := range r.OpenItems {
		amount, err := decimal.NewFromString(ir.Amount)
		if err != nil {
			return model.Entity{}, fmt.Errorf("open item %s: invalid amount %q", ir.ID, ir.Amount)
		}
		due, err := time.Parse(dateLayout, ir.DueDate)
		if err != nil {
			return model.Entity{}, fmt.Errorf("open item %s: invalid due_date %q", ir.ID, ir.DueDate)
		}
		issued, err := time.Parse(dateLayout, ir.IssuedAt)
		if err != nil {
			return model.Entity{}, fmt.Errorf("open item %s: invalid issued_at %q", ir.ID, ir.IssuedAt)
		}
		e.OutstandingInvoices = append(e.OutstandingInvoices, model.OpenItem{
			ID:            ir.ID,
			Amount:        amount,
			DueDate:       due,
			IssuedAt:      issued,
			TransactionID: ir.TransactionID,
		})
	}
	for _, pr := range r.Payments {
		amount, err := decimal.NewFromString(pr.Amount)
		if err != nil {
			return model.Entity{}, fmt.Errorf("payment %s: invalid amount %q", pr.ID, pr.Amount)
		}
		date, err := time.Parse(dateLayout, pr.Date)
		if err != nil {
			return model.Entity{}, fmt.Errorf("payment %s: invalid date %q", pr.ID, pr.Date)
		}
		e.PaymentHistory = append(e.PaymentHistory, model.Payment{
			ID:            pr.ID,
			Date:          date,
			Amount:        amount,
			Method:        pr.Method,
			Reference:     pr.Reference,
			TransactionID: pr.TransactionID,
		})
	}

	if !e.Balance.Equal(e.Outstanding()) {
		return model.Entity{}, fmt.Errorf("balance %s does not equal outstanding %s", e.Balance.StringFixed(2), e.Outstanding().StringFixed(2))
	}
	return e, nil
}
