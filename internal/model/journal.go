package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus represents the lifecycle state of a journal line.
type EntryStatus string

const (
	StatusDraft  EntryStatus = "draft"
	StatusPosted EntryStatus = "posted"
)

// Draft is a candidate journal line supplied by a caller. It carries no
// identity until the journal engine posts it.
type Draft struct {
	Date        time.Time
	Description string
	Account     string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
}

// JournalEntry is one posted line of the ledger. Lines posted together share
// a TransactionID; once posted a line is never modified.
type JournalEntry struct {
	ID            string // "YYYY-MM-NNNx" where x = a,b,c...
	TransactionID string // "YYYY-MM-NNN"
	Date          time.Time
	Description   string
	Account       string
	Debit         decimal.Decimal // zero if credit side
	Credit        decimal.Decimal // zero if debit side
	Status        EntryStatus
	PostedAt      time.Time
}

// Signed returns debit minus credit.
func (e JournalEntry) Signed() decimal.Decimal {
	return e.Debit.Sub(e.Credit)
}

// EntryGroup returns the transaction ID, falling back to the line ID without
// its leg suffix when TransactionID is empty.
// "2025-01-001a" -> "2025-01-001"
func (e JournalEntry) EntryGroup() string {
	if e.TransactionID != "" {
		return e.TransactionID
	}
	i := len(e.ID)
	for i > 0 && e.ID[i-1] >= 'a' && e.ID[i-1] <= 'z' {
		i--
	}
	return e.ID[:i]
}

// Amount returns whichever side of the line is populated.
func (e JournalEntry) Amount() decimal.Decimal {
	if e.Debit.IsPositive() {
		return e.Debit
	}
	return e.Credit
}
