package journal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledger/internal/apperrors"
	"github.com/cleared-dev/ledger/internal/ledger"
	"github.com/cleared-dev/ledger/internal/model"
)

// fakeStore implements ledger.Store for testing.
type fakeStore struct {
	mu        sync.Mutex
	lines     []model.JournalEntry
	seq       map[string]int
	appendErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{seq: make(map[string]int)}
}

func (s *fakeStore) Lines(_ context.Context, f ledger.Filter) ([]model.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.JournalEntry
	for _, l := range s.lines {
		if f.Match(l) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *fakeStore) Line(_ context.Context, lineID string) (model.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.lines {
		if l.ID == lineID {
			return l, nil
		}
	}
	return model.JournalEntry{}, apperrors.ErrNotFound
}

func (s *fakeStore) NextSequence(_ context.Context, year, month int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := fmt.Sprintf("%04d-%02d", year, month)
	s.seq[key]++
	return s.seq[key], nil
}

func (s *fakeStore) Append(_ context.Context, lines []model.JournalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return s.appendErr
	}
	s.lines = append(s.lines, lines...)
	return nil
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

var fixedNow = time.Date(2025, 3, 20, 9, 30, 0, 0, time.UTC)

func newTestEngine(store ledger.Store, opts ...Option) *Engine {
	return NewEngine(store, append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)...)
}

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func debit(account, amount string) model.Draft {
	return model.Draft{Date: date(2025, 3, 15), Description: "test", Account: account, Debit: dec(amount)}
}

func credit(account, amount string) model.Draft {
	return model.Draft{Date: date(2025, 3, 15), Description: "test", Account: account, Credit: dec(amount)}
}
