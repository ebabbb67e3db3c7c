package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BankTransaction is one row of a bank feed.
type BankTransaction struct {
	ID          string
	Date        time.Time
	Description string
	Amount      decimal.Decimal // negative = outflow, positive = inflow
	Reference   string          // feed-derived dedupe key
	Source      string          // parser format or "manual"
	Matched     bool
	MatchedLine string
	MatchedAt   time.Time
}
