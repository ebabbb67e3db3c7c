// Package memory provides an in-memory implementation of every storage port,
// used for the demo, local runs and tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cleared-dev/ledger/internal/apperrors"
	"github.com/cleared-dev/ledger/internal/id"
	"github.com/cleared-dev/ledger/internal/ledger"
	"github.com/cleared-dev/ledger/internal/model"
	"github.com/cleared-dev/ledger/internal/subledger"
)

var errTxDone = errors.New("transaction already committed or rolled back")

type monthKey struct{ year, month int }

// Store is guarded by an RWMutex. Writes that belong together are applied
// under a single write lock, so readers never see half of them.
type Store struct {
	mu sync.RWMutex

	lines   []model.JournalEntry
	lineIdx map[string]int
	seq     map[monthKey]int

	entities    map[string]model.Entity
	entityOrder []string

	bank       map[string]model.BankTransaction
	bankRefs   map[string]string
	reconciled map[string]string // line ID -> bank transaction ID
}

// New constructs an empty in-memory store.
func New() *Store {
	return &Store{
		lineIdx:    make(map[string]int),
		seq:        make(map[monthKey]int),
		entities:   make(map[string]model.Entity),
		bank:       make(map[string]model.BankTransaction),
		bankRefs:   make(map[string]string),
		reconciled: make(map[string]string),
	}
}

// Lines implements ledger.Reader.
func (s *Store) Lines(_ context.Context, f ledger.Filter) ([]model.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.JournalEntry
	for _, l := range s.lines {
		if f.Match(l) {
			out = append(out, l)
		}
	}
	return out, nil
}

// Line implements ledger.Reader.
func (s *Store) Line(_ context.Context, id string) (model.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.lineIdx[id]
	if !ok {
		return model.JournalEntry{}, apperrors.ErrNotFound
	}
	return s.lines[i], nil
}

// NextSequence implements ledger.Writer. Sequences are never reused, even
// when the transaction that took one rolls back.
func (s *Store) NextSequence(_ context.Context, year, month int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := monthKey{year, month}
	s.seq[k]++
	return s.seq[k], nil
}

// Append implements ledger.Writer.
func (s *Store) Append(_ context.Context, lines []model.JournalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLinesLocked(lines); err != nil {
		return err
	}
	s.appendLocked(lines)
	return nil
}

func (s *Store) checkLinesLocked(lines []model.JournalEntry) error {
	seen := make(map[string]bool, len(lines))
	for _, l := range lines {
		if _, ok := s.lineIdx[l.ID]; ok || seen[l.ID] {
			return fmt.Errorf("line %s: %w", l.ID, apperrors.ErrConflict)
		}
		seen[l.ID] = true
	}
	return nil
}

// appendLocked also moves the month's sequence past any appended
// transaction, so lines loaded from elsewhere are never handed out again.
func (s *Store) appendLocked(lines []model.JournalEntry) {
	for _, l := range lines {
		s.lineIdx[l.ID] = len(s.lines)
		s.lines = append(s.lines, l)
		if y, m, n, err := id.ParseTransactionID(l.TransactionID); err == nil {
			if k := (monthKey{y, m}); n > s.seq[k] {
				s.seq[k] = n
			}
		}
	}
}

// Entity implements subledger.Repository.
func (s *Store) Entity(_ context.Context, id string) (model.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entities[id]
	if !ok {
		return model.Entity{}, apperrors.ErrNotFound
	}
	return e.Clone(), nil
}

// Entities implements subledger.Repository.
func (s *Store) Entities(_ context.Context) ([]model.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Entity, 0, len(s.entityOrder))
	for _, id := range s.entityOrder {
		out = append(out, s.entities[id].Clone())
	}
	return out, nil
}

// Begin implements subledger.Repository.
func (s *Store) Begin(_ context.Context) (subledger.Tx, error) {
	return &tx{s: s, puts: make(map[string]model.Entity), deletes: make(map[string]bool)}, nil
}

// BankTransactions implements reconcile.Repository.
func (s *Store) BankTransactions(_ context.Context, unmatchedOnly bool) ([]model.BankTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.BankTransaction, 0, len(s.bank))
	for _, t := range s.bank {
		if unmatchedOnly && t.Matched {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// BankTransaction implements reconcile.Repository.
func (s *Store) BankTransaction(_ context.Context, id string) (model.BankTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.bank[id]
	if !ok {
		return model.BankTransaction{}, apperrors.ErrNotFound
	}
	return t, nil
}

// AddBankTransactions implements reconcile.Repository. A duplicate ID fails
// the whole batch.
func (s *Store) AddBankTransactions(_ context.Context, txns []model.BankTransaction) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seenID := make(map[string]bool, len(txns))
	seenRef := make(map[string]bool, len(txns))
	var add []model.BankTransaction
	for _, t := range txns {
		if _, ok := s.bank[t.ID]; ok || seenID[t.ID] {
			return 0, fmt.Errorf("bank transaction %s: %w", t.ID, apperrors.ErrConflict)
		}
		seenID[t.ID] = true
		if t.Reference != "" {
			if _, ok := s.bankRefs[t.Reference]; ok || seenRef[t.Reference] {
				continue
			}
			seenRef[t.Reference] = true
		}
		add = append(add, t)
	}

	for _, t := range add {
		s.bank[t.ID] = t
		if t.Reference != "" {
			s.bankRefs[t.Reference] = t.ID
		}
	}
	return len(add), nil
}

// ReconciledLines implements reconcile.Repository.
func (s *Store) ReconciledLines(_ context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.reconciled))
	for k, v := range s.reconciled {
		out[k] = v
	}
	return out, nil
}

// MarkMatched implements reconcile.Repository.
func (s *Store) MarkMatched(_ context.Context, bankTxID, lineID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.bank[bankTxID]
	if !ok {
		return fmt.Errorf("bank transaction %s: %w", bankTxID, apperrors.ErrNotFound)
	}
	if _, ok := s.lineIdx[lineID]; !ok {
		return fmt.Errorf("ledger line %s: %w", lineID, apperrors.ErrNotFound)
	}
	if t.Matched {
		return fmt.Errorf("bank transaction %s: %w", bankTxID, apperrors.ErrAlreadyMatched)
	}
	if other, ok := s.reconciled[lineID]; ok {
		return fmt.Errorf("ledger line %s matched to %s: %w", lineID, other, apperrors.ErrAlreadyMatched)
	}

	t.Matched = true
	t.MatchedLine = lineID
	t.MatchedAt = at
	s.bank[bankTxID] = t
	s.reconciled[lineID] = bankTxID
	return nil
}
