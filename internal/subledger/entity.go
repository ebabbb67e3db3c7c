package subledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledger/internal/apperrors"
	"github.com/cleared-dev/ledger/internal/id"
	"github.com/cleared-dev/ledger/internal/model"
)

// CreateEntityParams holds the fields of a new client or vendor.
type CreateEntityParams struct {
	Type         model.EntityType `validate:"required,oneof=client vendor"`
	Name         string           `validate:"required,max=200"`
	Email        string           `validate:"omitempty,email"`
	VATNumber    string           `validate:"required,max=32"`
	Currency     string           `validate:"omitempty,iso4217"`
	PaymentTerms string           `validate:"max=64"`
}

// UpdateEntityParams lists field-level edits. Nil fields are left unchanged.
// Type, balance, open items and payment history cannot be edited.
type UpdateEntityParams struct {
	Name         *string `validate:"omitnil,min=1,max=200"`
	Email        *string `validate:"omitempty,email"`
	VATNumber    *string `validate:"omitnil,min=1,max=32"`
	Currency     *string `validate:"omitnil,iso4217"`
	PaymentTerms *string `validate:"omitnil,max=64"`
}

// ListFilter narrows Entities. Zero-valued fields match everything.
type ListFilter struct {
	Type   model.EntityType
	Search string // case-insensitive substring of name, email or VAT number
}

// CreateEntity validates p and stores a new entity with a zero balance.
func (e *Engine) CreateEntity(ctx context.Context, p CreateEntityParams) (model.Entity, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.TrimSpace(p.Email)
	p.VATNumber = strings.TrimSpace(p.VATNumber)
	p.Currency = strings.ToUpper(strings.TrimSpace(p.Currency))
	p.PaymentTerms = strings.TrimSpace(p.PaymentTerms)
	if err := e.check(p); err != nil {
		return model.Entity{}, err
	}
	if p.Currency == "" {
		p.Currency = e.currency
	}

	prefix := id.PrefixClient
	if p.Type == model.EntityVendor {
		prefix = id.PrefixVendor
	}
	ent := model.Entity{
		ID:           id.New(prefix),
		Type:         p.Type,
		Name:         p.Name,
		Email:        p.Email,
		VATNumber:    p.VATNumber,
		Currency:     p.Currency,
		PaymentTerms: p.PaymentTerms,
		Balance:      decimal.Zero,
		CreatedAt:    e.now().UTC(),
	}

	err := e.inTx(ctx, func(tx Tx) error {
		return tx.PutEntity(ctx, ent)
	})
	if err != nil {
		return model.Entity{}, fmt.Errorf("creating entity: %w", err)
	}

	e.logger.Info("entity created", "entity_id", ent.ID, "type", ent.Type)
	return ent, nil
}

// UpdateEntity applies the non-nil fields of p to entity id.
func (e *Engine) UpdateEntity(ctx context.Context, entityID string, p UpdateEntityParams) (model.Entity, error) {
	p.Name = trimmed(p.Name)
	p.Email = trimmed(p.Email)
	p.VATNumber = trimmed(p.VATNumber)
	p.PaymentTerms = trimmed(p.PaymentTerms)
	if p.Currency = trimmed(p.Currency); p.Currency != nil {
		*p.Currency = strings.ToUpper(*p.Currency)
	}
	if err := e.check(p); err != nil {
		return model.Entity{}, err
	}

	unlock := e.locks.Lock(entityID)
	defer unlock()

	var ent model.Entity
	err := e.inTx(ctx, func(tx Tx) error {
		var err error
		ent, err = tx.Entity(ctx, entityID)
		if err != nil {
			return err
		}
		if p.Name != nil {
			ent.Name = *p.Name
		}
		if p.Email != nil {
			ent.Email = *p.Email
		}
		if p.VATNumber != nil {
			ent.VATNumber = *p.VATNumber
		}
		if p.Currency != nil {
			ent.Currency = *p.Currency
		}
		if p.PaymentTerms != nil {
			ent.PaymentTerms = *p.PaymentTerms
		}
		return tx.PutEntity(ctx, ent)
	})
	if err != nil {
		return model.Entity{}, fmt.Errorf("updating entity %s: %w", entityID, err)
	}

	e.logger.Info("entity updated", "entity_id", entityID)
	return ent, nil
}

// DeleteEntity removes an entity and its open items. Journal lines it
// produced stay in the ledger.
func (e *Engine) DeleteEntity(ctx context.Context, entityID string) error {
	unlock := e.locks.Lock(entityID)
	defer unlock()

	err := e.inTx(ctx, func(tx Tx) error {
		if _, err := tx.Entity(ctx, entityID); err != nil {
			return err
		}
		return tx.DeleteEntity(ctx, entityID)
	})
	if err != nil {
		return fmt.Errorf("deleting entity %s: %w", entityID, err)
	}

	e.logger.Info("entity deleted", "entity_id", entityID)
	return nil
}

// Entity returns one entity.
func (e *Engine) Entity(ctx context.Context, entityID string) (model.Entity, error) {
	ent, err := e.repo.Entity(ctx, entityID)
	if err != nil {
		return model.Entity{}, fmt.Errorf("entity %s: %w", entityID, err)
	}
	return ent, nil
}

// Entities lists entities matching f in creation order.
func (e *Engine) Entities(ctx context.Context, f ListFilter) ([]model.Entity, error) {
	all, err := e.repo.Entities(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing entities: %w", err)
	}

	q := strings.ToLower(strings.TrimSpace(f.Search))
	var out []model.Entity
	for _, ent := range all {
		if f.Type != "" && ent.Type != f.Type {
			continue
		}
		if q != "" && !containsFold(q, ent.Name, ent.Email, ent.VATNumber) {
			continue
		}
		out = append(out, ent)
	}
	return out, nil
}

// ItemView is an open item with its status derived at read time.
type ItemView struct {
	model.OpenItem
	Status model.ItemStatus
}

// OpenItems returns the entity's outstanding items with their current status.
func (e *Engine) OpenItems(ctx context.Context, entityID string) ([]ItemView, error) {
	ent, err := e.Entity(ctx, entityID)
	if err != nil {
		return nil, err
	}
	now := e.now()
	views := make([]ItemView, len(ent.OutstandingInvoices))
	for i, item := range ent.OutstandingInvoices {
		views[i] = ItemView{OpenItem: item, Status: item.StatusAt(now)}
	}
	return views, nil
}

// Summary aggregates balances over entities of one type.
type Summary struct {
	Entities      int
	TotalBalance  decimal.Decimal
	OpenItems     int
	OverdueItems  int
	OverdueAmount decimal.Decimal
}

// Summary totals balances and overdue items for entities of type t, or of
// every type when t is empty.
func (e *Engine) Summary(ctx context.Context, t model.EntityType) (Summary, error) {
	ents, err := e.Entities(ctx, ListFilter{Type: t})
	if err != nil {
		return Summary{}, err
	}

	now := e.now()
	s := Summary{TotalBalance: decimal.Zero, OverdueAmount: decimal.Zero}
	for _, ent := range ents {
		n, amt := ent.OverdueAt(now)
		s.Entities++
		s.TotalBalance = s.TotalBalance.Add(ent.Balance)
		s.OpenItems += len(ent.OutstandingInvoices)
		s.OverdueItems += n
		s.OverdueAmount = s.OverdueAmount.Add(amt)
	}
	return s, nil
}

func (e *Engine) check(params any) error {
	err := e.validate.Struct(params)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidEntity, err)
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		msgs[i] = fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag())
	}
	return fmt.Errorf("%w: %s", apperrors.ErrInvalidEntity, strings.Join(msgs, ", "))
}

// trimmed returns a trimmed copy of *s so the caller's value is not modified.
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func containsFold(q string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}
