package memory

import (
	"context"
	"slices"

	"github.com/cleared-dev/ledger/internal/apperrors"
	"github.com/cleared-dev/ledger/internal/ledger"
	"github.com/cleared-dev/ledger/internal/model"
)

// tx buffers entity and ledger writes until Commit.
type tx struct {
	s       *Store
	lines   []model.JournalEntry
	puts    map[string]model.Entity
	order   []string // first put order, for deterministic creation order
	deletes map[string]bool
	done    bool
}

// txLedger appends into the owning tx's buffer.
type txLedger struct{ t *tx }

func (l txLedger) NextSequence(ctx context.Context, year, month int) (int, error) {
	return l.t.s.NextSequence(ctx, year, month)
}

func (l txLedger) Append(_ context.Context, lines []model.JournalEntry) error {
	if l.t.done {
		return errTxDone
	}
	l.t.lines = append(l.t.lines, lines...)
	return nil
}

func (t *tx) Ledger() ledger.Writer { return txLedger{t} }

func (t *tx) Entity(ctx context.Context, id string) (model.Entity, error) {
	if t.done {
		return model.Entity{}, errTxDone
	}
	if t.deletes[id] {
		return model.Entity{}, apperrors.ErrNotFound
	}
	if e, ok := t.puts[id]; ok {
		return e.Clone(), nil
	}
	return t.s.Entity(ctx, id)
}

func (t *tx) PutEntity(_ context.Context, e model.Entity) error {
	if t.done {
		return errTxDone
	}
	delete(t.deletes, e.ID)
	if _, ok := t.puts[e.ID]; !ok {
		t.order = append(t.order, e.ID)
	}
	t.puts[e.ID] = e.Clone()
	return nil
}

func (t *tx) DeleteEntity(_ context.Context, id string) error {
	if t.done {
		return errTxDone
	}
	delete(t.puts, id)
	t.deletes[id] = true
	return nil
}

// Commit applies every buffered write under one write lock. A line ID
// conflict aborts the commit with nothing applied.
func (t *tx) Commit(_ context.Context) error {
	if t.done {
		return errTxDone
	}
	t.done = true

	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkLinesLocked(t.lines); err != nil {
		return err
	}
	s.appendLocked(t.lines)

	for id := range t.deletes {
		if _, ok := s.entities[id]; !ok {
			continue
		}
		delete(s.entities, id)
		s.entityOrder = slices.DeleteFunc(s.entityOrder, func(x string) bool { return x == id })
	}
	for _, id := range t.order {
		e, ok := t.puts[id]
		if !ok {
			continue
		}
		if _, ok := s.entities[id]; !ok {
			s.entityOrder = append(s.entityOrder, id)
		}
		s.entities[id] = e
	}
	return nil
}

// Rollback discards buffered writes. It is safe to call after Commit.
func (t *tx) Rollback(_ context.Context) error {
	t.done = true
	return nil
}
