// Package filestore keeps the ledger in plain files under the data
// directory: one journal.csv per month, entities in YAML and the bank feed
// in CSV. Everything is loaded into memory on Open and written back as each
// change commits.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cleared-dev/ledger/internal/apperrors"
	"github.com/cleared-dev/ledger/internal/model"
	"github.com/cleared-dev/ledger/internal/storage/memory"
	"github.com/cleared-dev/ledger/internal/subledger"
)

// LockFile is created in the data directory while a Store is open.
const LockFile = ".ledger.lock"

var (
	entitiesPath = filepath.Join("subledger", "entities.yaml")
	bankPath     = filepath.Join("bank", "transactions.csv")
)

// Store serves reads from an in-memory copy and persists every write. One
// process at a time may hold a data directory.
type Store struct {
	*memory.Store

	root string
	mu   sync.Mutex // serializes writes to disk
}

// Open locks root and loads its ledger files.
func Open(ctx context.Context, root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	if err := acquireLock(root); err != nil {
		return nil, err
	}
	s := &Store{Store: memory.New(), root: root}
	if err := s.load(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("loading %s: %w", root, err)
	}
	return s, nil
}

// Close releases the data directory lock.
func (s *Store) Close() {
	_ = os.Remove(filepath.Join(s.root, LockFile))
}

func acquireLock(root string) error {
	path := filepath.Join(root, LockFile)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("data directory %s is in use by another ledger process (remove %s if none is running): %w",
			root, path, apperrors.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("locking data dir: %w", err)
	}
	fmt.Fprintf(f, "%d\n", os.Getpid())
	return f.Close()
}

// load replays the files into the embedded memory store. Journal lines go
// first since matches refer to them.
func (s *Store) load(ctx context.Context) error {
	lines, err := readJournal(s.root)
	if err != nil {
		return err
	}
	if err := s.Store.Append(ctx, lines); err != nil {
		return err
	}

	ents, err := readEntities(filepath.Join(s.root, entitiesPath))
	if err != nil {
		return err
	}
	if len(ents) > 0 {
		tx, err := s.Store.Begin(ctx)
		if err != nil {
			return err
		}
		for _, e := range ents {
			if err := tx.PutEntity(ctx, e); err != nil {
				return err
			}
		}
		if err := tx.Commit(ctx); err != nil {
			return err
		}
	}

	txns, err := readBank(filepath.Join(s.root, bankPath))
	if err != nil {
		return err
	}
	fresh := make([]model.BankTransaction, len(txns))
	for i, t := range txns {
		t.Matched, t.MatchedLine, t.MatchedAt = false, "", time.Time{}
		fresh[i] = t
	}
	if _, err := s.Store.AddBankTransactions(ctx, fresh); err != nil {
		return err
	}
	for _, t := range txns {
		if !t.Matched {
			continue
		}
		if err := s.Store.MarkMatched(ctx, t.ID, t.MatchedLine, t.MatchedAt); err != nil {
			return fmt.Errorf("bank transaction %s: %w", t.ID, err)
		}
	}
	return nil
}

// Append implements ledger.Writer. Lines reach disk before they become
// visible to readers.
func (s *Store) Append(ctx context.Context, lines []model.JournalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLines(ctx, lines); err != nil {
		return err
	}
	if err := appendJournal(s.root, lines); err != nil {
		return err
	}
	return s.Store.Append(ctx, lines)
}

func (s *Store) checkLines(ctx context.Context, lines []model.JournalEntry) error {
	seen := make(map[string]bool, len(lines))
	for _, l := range lines {
		if seen[l.ID] {
			return fmt.Errorf("line %s: %w", l.ID, apperrors.ErrConflict)
		}
		seen[l.ID] = true
		_, err := s.Store.Line(ctx, l.ID)
		if err == nil {
			return fmt.Errorf("line %s: %w", l.ID, apperrors.ErrConflict)
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
	}
	return nil
}

// Begin implements subledger.Repository.
func (s *Store) Begin(ctx context.Context) (subledger.Tx, error) {
	inner, err := s.Store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &tx{s: s, inner: inner}, nil
}

// AddBankTransactions implements reconcile.Repository.
func (s *Store) AddBankTransactions(ctx context.Context, txns []model.BankTransaction) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.Store.AddBankTransactions(ctx, txns)
	if err != nil || n == 0 {
		return n, err
	}
	return n, s.saveBank(ctx)
}

// MarkMatched implements reconcile.Repository.
func (s *Store) MarkMatched(ctx context.Context, bankTxID, lineID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.Store.MarkMatched(ctx, bankTxID, lineID, at); err != nil {
		return err
	}
	return s.saveBank(ctx)
}

func (s *Store) saveBank(ctx context.Context) error {
	txns, err := s.Store.BankTransactions(ctx, false)
	if err != nil {
		return err
	}
	return writeAtomic(filepath.Join(s.root, bankPath), func(w io.Writer) error {
		return writeBank(w, txns)
	})
}

func (s *Store) saveEntities(ctx context.Context) error {
	ents, err := s.Store.Entities(ctx)
	if err != nil {
		return err
	}
	return writeAtomic(filepath.Join(s.root, entitiesPath), func(w io.Writer) error {
		return writeEntities(w, ents)
	})
}

// writeAtomic replaces path with what fn writes, via a temp file and rename.
func writeAtomic(path string, fn func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
