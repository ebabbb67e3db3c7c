package reconcile

import (
	"context"
	"regexp"
	"strings"

	"github.com/cleared-dev/ledger/internal/model"
)

// Suggestion reasons, in the order the passes run.
const (
	ReasonReference    = "reference"
	ReasonAmountDate   = "amount+date"
	ReasonAmountWindow = "amount+window"
)

// Suggestion proposes a match. Suggestions are never applied automatically.
type Suggestion struct {
	BankTx model.BankTransaction
	Line   model.JournalEntry
	Reason string
}

var docRef = regexp.MustCompile(`\b(?:INV|BILL)-[0-9A-Za-z]+(?:-[0-9A-Za-z]+)*`)

// Suggest proposes pairings between unmatched bank transactions and candidate
// lines. Each bank transaction and line appears in at most one suggestion.
// Passes run in order:
//  1. the bank description mentions the line's transaction ID or the invoice
//     or bill number in the line's description, and the direction agrees;
//  2. the signed amounts are equal and the dates are the same day;
//  3. the signed amounts are equal and the dates are within the window, nearest first.
//
// A bank line's signed amount is debit minus credit, so a debit to the bank
// account pairs with an inflow.
func (m *Matcher) Suggest(ctx context.Context) ([]Suggestion, error) {
	txns, err := m.Unmatched(ctx)
	if err != nil {
		return nil, err
	}
	lines, err := m.Candidates(ctx)
	if err != nil {
		return nil, err
	}

	usedTx := make(map[string]bool)
	usedLine := make(map[string]bool)
	var out []Suggestion
	take := func(t model.BankTransaction, l model.JournalEntry, reason string) {
		usedTx[t.ID] = true
		usedLine[l.ID] = true
		out = append(out, Suggestion{BankTx: t, Line: l, Reason: reason})
	}

	// Pass 1: reference in description.
	for _, t := range txns {
		desc := strings.ToUpper(t.Description)
		for _, l := range lines {
			if usedLine[l.ID] || l.Signed().Sign() != t.Amount.Sign() {
				continue
			}
			if mentions(desc, l) {
				take(t, l, ReasonReference)
				break
			}
		}
	}

	// Pass 2: same amount, same day.
	for _, t := range txns {
		if usedTx[t.ID] {
			continue
		}
		for _, l := range lines {
			if !usedLine[l.ID] && l.Signed().Equal(t.Amount) && daysApart(t, l) == 0 {
				take(t, l, ReasonAmountDate)
				break
			}
		}
	}

	// Pass 3: same amount, nearest date within the window.
	for _, t := range txns {
		if usedTx[t.ID] {
			continue
		}
		best, bestDays := -1, m.window+1
		for i, l := range lines {
			if usedLine[l.ID] || !l.Signed().Equal(t.Amount) {
				continue
			}
			if d := daysApart(t, l); d < bestDays {
				best, bestDays = i, d
			}
		}
		if best >= 0 {
			take(t, lines[best], ReasonAmountWindow)
		}
	}

	return out, nil
}

func mentions(bankDesc string, l model.JournalEntry) bool {
	if l.TransactionID != "" && strings.Contains(bankDesc, strings.ToUpper(l.TransactionID)) {
		return true
	}
	for _, ref := range docRef.FindAllString(l.Description, -1) {
		if strings.Contains(bankDesc, strings.ToUpper(ref)) {
			return true
		}
	}
	return false
}

func daysApart(t model.BankTransaction, l model.JournalEntry) int {
	d := int(model.DateOnly(t.Date).Sub(model.DateOnly(l.Date)).Hours() / 24)
	if d < 0 {
		return -d
	}
	return d
}
