// Package ledger defines the storage port for posted journal lines.
package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/cleared-dev/ledger/internal/model"
)

// Reader reads posted lines. Lines are returned in posting order.
type Reader interface {
	Lines(ctx context.Context, f Filter) ([]model.JournalEntry, error)
	// Line returns apperrors.ErrNotFound for unknown IDs.
	Line(ctx context.Context, id string) (model.JournalEntry, error)
}

// Writer appends posted lines. Append is all-or-nothing: either every line
// becomes visible or none does. Duplicate line IDs fail with
// apperrors.ErrConflict.
type Writer interface {
	NextSequence(ctx context.Context, year, month int) (int, error)
	Append(ctx context.Context, lines []model.JournalEntry) error
}

// Store is a Reader and Writer over the same history.
type Store interface {
	Reader
	Writer
}

// Filter narrows a line query. Zero-valued fields match everything.
type Filter struct {
	Query           string   // case-insensitive substring of description or account
	AccountPrefixes []string // account label starts with any of these
	From, To        time.Time
	TransactionID   string
}

// Match reports whether e satisfies every populated field of f.
func (f Filter) Match(e model.JournalEntry) bool {
	if f.TransactionID != "" && e.TransactionID != f.TransactionID {
		return false
	}
	if !f.From.IsZero() && model.DateOnly(e.Date).Before(model.DateOnly(f.From)) {
		return false
	}
	if !f.To.IsZero() && model.DateOnly(e.Date).After(model.DateOnly(f.To)) {
		return false
	}
	if len(f.AccountPrefixes) > 0 && !HasAccountPrefix(e.Account, f.AccountPrefixes) {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		if !strings.Contains(strings.ToLower(e.Description), q) && !strings.Contains(strings.ToLower(e.Account), q) {
			return false
		}
	}
	return true
}

// HasAccountPrefix reports whether account starts with one of prefixes.
func HasAccountPrefix(account string, prefixes []string) bool {
	account = strings.TrimSpace(account)
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(account, p) {
			return true
		}
	}
	return false
}
