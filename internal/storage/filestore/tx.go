package filestore

import (
	"context"

	"github.com/cleared-dev/ledger/internal/ledger"
	"github.com/cleared-dev/ledger/internal/model"
	"github.com/cleared-dev/ledger/internal/subledger"
)

// tx wraps a memory transaction and writes its result to disk on Commit.
type tx struct {
	s     *Store
	inner subledger.Tx
	lines []model.JournalEntry
	dirty bool
}

type txLedger struct {
	t     *tx
	inner ledger.Writer
}

func (l txLedger) NextSequence(ctx context.Context, year, month int) (int, error) {
	return l.inner.NextSequence(ctx, year, month)
}

func (l txLedger) Append(ctx context.Context, lines []model.JournalEntry) error {
	if err := l.inner.Append(ctx, lines); err != nil {
		return err
	}
	l.t.lines = append(l.t.lines, lines...)
	return nil
}

func (t *tx) Ledger() ledger.Writer { return txLedger{t: t, inner: t.inner.Ledger()} }

func (t *tx) Entity(ctx context.Context, id string) (model.Entity, error) {
	return t.inner.Entity(ctx, id)
}

func (t *tx) PutEntity(ctx context.Context, e model.Entity) error {
	if err := t.inner.PutEntity(ctx, e); err != nil {
		return err
	}
	t.dirty = true
	return nil
}

func (t *tx) DeleteEntity(ctx context.Context, id string) error {
	if err := t.inner.DeleteEntity(ctx, id); err != nil {
		return err
	}
	t.dirty = true
	return nil
}

// Commit appends the journal lines to their month files, applies the unit
// of work in memory and then rewrites entities.yaml. The journal is written
// first: it is the book of record, and entity state can be checked against
// it.
func (t *tx) Commit(ctx context.Context) error {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkLines(ctx, t.lines); err != nil {
		_ = t.inner.Rollback(ctx)
		return err
	}
	if err := appendJournal(s.root, t.lines); err != nil {
		_ = t.inner.Rollback(ctx)
		return err
	}
	if err := t.inner.Commit(ctx); err != nil {
		return err
	}
	if !t.dirty {
		return nil
	}
	return s.saveEntities(ctx)
}

func (t *tx) Rollback(ctx context.Context) error {
	return t.inner.Rollback(ctx)
}
