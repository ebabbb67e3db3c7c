package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/ledger/internal/apperrors"
	"github.com/cleared-dev/ledger/internal/ledger"
	"github.com/cleared-dev/ledger/internal/model"
)

var day = time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

func line(id, account string, debit string) model.JournalEntry {
	return model.JournalEntry{
		ID:            id,
		TransactionID: id[:len(id)-1],
		Date:          day,
		Account:       account,
		Debit:         decimal.RequireFromString(debit),
		Status:        model.StatusPosted,
	}
}

func TestAppendAndRead(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, []model.JournalEntry{line("2025-03-001a", "5720 Banco", "10"), line("2025-03-001b", "7000 Ventas", "10")}))

	got, err := s.Line(ctx, "2025-03-001b")
	require.NoError(t, err)
	assert.Equal(t, "7000 Ventas", got.Account)

	_, err = s.Line(ctx, "nope")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	bank, err := s.Lines(ctx, ledger.Filter{AccountPrefixes: []string{"5720"}})
	require.NoError(t, err)
	assert.Len(t, bank, 1)
}

func TestAppend_ConflictWritesNothing(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, []model.JournalEntry{line("2025-03-001a", "5720 Banco", "10")}))

	err := s.Append(ctx, []model.JournalEntry{line("2025-03-002a", "5720 Banco", "1"), line("2025-03-001a", "5720 Banco", "1")})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	all, err := s.Lines(ctx, ledger.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestNextSequence(t *testing.T) {
	s := New()
	ctx := context.Background()

	var wg sync.WaitGroup
	seen := sync.Map{}
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := s.NextSequence(ctx, 2025, 3)
			assert.NoError(t, err)
			_, dup := seen.LoadOrStore(n, true)
			assert.False(t, dup, "sequence %d issued twice", n)
		}()
	}
	wg.Wait()

	n, err := s.NextSequence(ctx, 2025, 4)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAppend_AdvancesSequence(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, []model.JournalEntry{line("2025-03-007a", "5720 Banco", "10")}))

	n, err := s.NextSequence(ctx, 2025, 3)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
}

func TestTx_CommitMakesWritesVisibleTogether(t *testing.T) {
	s := New()
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)

	ent := model.Entity{ID: "C-1", Type: model.EntityClient, Name: "Acme", Balance: decimal.RequireFromString("10")}
	require.NoError(t, tx.PutEntity(ctx, ent))
	require.NoError(t, tx.Ledger().Append(ctx, []model.JournalEntry{line("2025-03-001a", "4300 Clientes", "10")}))

	// Nothing visible before commit.
	_, err = s.Entity(ctx, "C-1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	lines, _ := s.Lines(ctx, ledger.Filter{})
	assert.Empty(t, lines)

	// The tx sees its own write.
	got, err := tx.Entity(ctx, "C-1")
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Name)

	require.NoError(t, tx.Commit(ctx))

	got, err = s.Entity(ctx, "C-1")
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Name)
	lines, _ = s.Lines(ctx, ledger.Filter{})
	assert.Len(t, lines, 1)

	assert.Error(t, tx.Commit(ctx))
}

func TestTx_Rollback(t *testing.T) {
	s := New()
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.PutEntity(ctx, model.Entity{ID: "C-1"}))
	require.NoError(t, tx.Ledger().Append(ctx, []model.JournalEntry{line("2025-03-001a", "4300 Clientes", "10")}))
	require.NoError(t, tx.Rollback(ctx))

	_, err = s.Entity(ctx, "C-1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	lines, _ := s.Lines(ctx, ledger.Filter{})
	assert.Empty(t, lines)
}

func TestTx_CommitConflictAppliesNothing(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, []model.JournalEntry{line("2025-03-001a", "5720 Banco", "10")}))

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.PutEntity(ctx, model.Entity{ID: "C-1"}))
	require.NoError(t, tx.Ledger().Append(ctx, []model.JournalEntry{line("2025-03-001a", "5720 Banco", "10")}))

	assert.ErrorIs(t, tx.Commit(ctx), apperrors.ErrConflict)
	_, err = s.Entity(ctx, "C-1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestTx_Delete(t *testing.T) {
	s := New()
	ctx := context.Background()

	for _, id := range []string{"C-1", "C-2", "C-3"} {
		tx, _ := s.Begin(ctx)
		require.NoError(t, tx.PutEntity(ctx, model.Entity{ID: id}))
		require.NoError(t, tx.Commit(ctx))
	}

	tx, _ := s.Begin(ctx)
	require.NoError(t, tx.DeleteEntity(ctx, "C-2"))
	_, err := tx.Entity(ctx, "C-2")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	require.NoError(t, tx.Commit(ctx))

	all, err := s.Entities(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "C-1", all[0].ID)
	assert.Equal(t, "C-3", all[1].ID)
}

func TestEntity_ReturnsCopies(t *testing.T) {
	s := New()
	ctx := context.Background()
	tx, _ := s.Begin(ctx)
	require.NoError(t, tx.PutEntity(ctx, model.Entity{ID: "C-1", OutstandingInvoices: []model.OpenItem{{ID: "INV-1"}}}))
	require.NoError(t, tx.Commit(ctx))

	got, err := s.Entity(ctx, "C-1")
	require.NoError(t, err)
	got.OutstandingInvoices[0].ID = "mutated"

	again, err := s.Entity(ctx, "C-1")
	require.NoError(t, err)
	assert.Equal(t, "INV-1", again.OutstandingInvoices[0].ID)
}

func bankTx(id, ref string, d time.Time, amount string) model.BankTransaction {
	return model.BankTransaction{ID: id, Reference: ref, Date: d, Description: id, Amount: decimal.RequireFromString(amount)}
}

func TestAddBankTransactions_DedupesByReference(t *testing.T) {
	s := New()
	ctx := context.Background()

	n, err := s.AddBankTransactions(ctx, []model.BankTransaction{
		bankTx("B2", "ref-2", day.AddDate(0, 0, 1), "5"),
		bankTx("B1", "ref-1", day, "-3"),
		bankTx("B1b", "ref-1", day, "-3"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.AddBankTransactions(ctx, []model.BankTransaction{bankTx("B3", "ref-2", day, "5")})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	all, err := s.BankTransactions(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "B1", all[0].ID, "ordered by date")

	_, err = s.AddBankTransactions(ctx, []model.BankTransaction{bankTx("B1", "ref-9", day, "1")})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestMarkMatched(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, []model.JournalEntry{line("2025-03-001a", "5720 Banco", "10"), line("2025-03-002a", "5720 Banco", "10")}))
	_, err := s.AddBankTransactions(ctx, []model.BankTransaction{bankTx("B1", "r1", day, "10"), bankTx("B2", "r2", day, "10")})
	require.NoError(t, err)

	require.NoError(t, s.MarkMatched(ctx, "B1", "2025-03-001a", day))

	bt, err := s.BankTransaction(ctx, "B1")
	require.NoError(t, err)
	assert.True(t, bt.Matched)
	assert.Equal(t, "2025-03-001a", bt.MatchedLine)

	assert.ErrorIs(t, s.MarkMatched(ctx, "B1", "2025-03-002a", day), apperrors.ErrAlreadyMatched)
	assert.ErrorIs(t, s.MarkMatched(ctx, "B2", "2025-03-001a", day), apperrors.ErrAlreadyMatched)
	assert.ErrorIs(t, s.MarkMatched(ctx, "B9", "2025-03-002a", day), apperrors.ErrNotFound)
	assert.ErrorIs(t, s.MarkMatched(ctx, "B2", "missing", day), apperrors.ErrNotFound)

	// B2 unchanged by the failed attempts.
	bt, err = s.BankTransaction(ctx, "B2")
	require.NoError(t, err)
	assert.False(t, bt.Matched)

	unmatched, err := s.BankTransactions(ctx, true)
	require.NoError(t, err)
	require.Len(t, unmatched, 1)
	assert.Equal(t, "B2", unmatched[0].ID)

	rec, err := s.ReconciledLines(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"2025-03-001a": "B1"}, rec)
}

func TestMarkMatched_Concurrent(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, []model.JournalEntry{line("2025-03-001a", "5720 Banco", "10")}))
	_, err := s.AddBankTransactions(ctx, []model.BankTransaction{bankTx("B1", "r1", day, "10")})
	require.NoError(t, err)

	var ok atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.MarkMatched(ctx, "B1", "2025-03-001a", day) == nil {
				ok.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), ok.Load())
}
