package model

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// EntityType distinguishes receivable from payable counterparties.
type EntityType string

const (
	EntityClient EntityType = "client"
	EntityVendor EntityType = "vendor"
)

// Valid reports whether t is a known entity type.
func (t EntityType) Valid() bool {
	return t == EntityClient || t == EntityVendor
}

// ItemStatus is derived from an open item's due date at read time.
type ItemStatus string

const (
	ItemPending ItemStatus = "pending"
	ItemOverdue ItemStatus = "overdue"
)

// OpenItem is an unsettled invoice (client) or bill (vendor).
type OpenItem struct {
	ID            string
	Amount        decimal.Decimal // remaining amount, always > 0
	DueDate       time.Time
	IssuedAt      time.Time
	TransactionID string
}

// StatusAt reports whether the item is overdue on the calendar day of now.
func (o OpenItem) StatusAt(now time.Time) ItemStatus {
	if DateOnly(o.DueDate).Before(DateOnly(now)) {
		return ItemOverdue
	}
	return ItemPending
}

// Payment records a settlement against an open item.
type Payment struct {
	ID            string
	Date          time.Time
	Amount        decimal.Decimal
	Method        string
	Reference     string // open item ID
	TransactionID string
}

// Entity is a client or vendor with its subledger state. Balance always equals
// the sum of OutstandingInvoices amounts. For clients a positive balance is
// owed to the firm; for vendors it is owed by the firm.
type Entity struct {
	ID                  string
	Type                EntityType
	Name                string
	Email               string
	VATNumber           string
	Currency            string
	PaymentTerms        string
	Balance             decimal.Decimal
	OutstandingInvoices []OpenItem
	PaymentHistory      []Payment
	CreatedAt           time.Time
}

// Clone returns a copy that shares no slices with e.
func (e Entity) Clone() Entity {
	e.OutstandingInvoices = slices.Clone(e.OutstandingInvoices)
	e.PaymentHistory = slices.Clone(e.PaymentHistory)
	return e
}

// OpenItem returns the open item with the given ID and its index.
func (e Entity) OpenItem(id string) (OpenItem, int, bool) {
	for i, item := range e.OutstandingInvoices {
		if item.ID == id {
			return item, i, true
		}
	}
	return OpenItem{}, -1, false
}

// Outstanding sums the remaining amounts of all open items.
func (e Entity) Outstanding() decimal.Decimal {
	total := decimal.Zero
	for _, item := range e.OutstandingInvoices {
		total = total.Add(item.Amount)
	}
	return total
}

// OverdueAt counts and sums the items overdue on the day of now.
func (e Entity) OverdueAt(now time.Time) (int, decimal.Decimal) {
	n := 0
	total := decimal.Zero
	for _, item := range e.OutstandingInvoices {
		if item.StatusAt(now) == ItemOverdue {
			n++
			total = total.Add(item.Amount)
		}
	}
	return n, total
}

// DateOnly truncates t to midnight UTC of its own calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
