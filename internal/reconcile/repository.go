package reconcile

import (
	"context"
	"time"

	"github.com/cleared-dev/ledger/internal/model"
)

// Repository stores bank-feed transactions and the set of reconciled ledger
// lines. Posted lines cannot change, so reconciliation state lives here.
type Repository interface {
	// BankTransactions returns transactions ordered by date, then ID.
	BankTransactions(ctx context.Context, unmatchedOnly bool) ([]model.BankTransaction, error)
	// BankTransaction returns apperrors.ErrNotFound for unknown IDs.
	BankTransaction(ctx context.Context, id string) (model.BankTransaction, error)
	// AddBankTransactions stores txns whose Reference is not already known and
	// returns how many were added.
	AddBankTransactions(ctx context.Context, txns []model.BankTransaction) (int, error)
	// ReconciledLines maps each reconciled line ID to its bank transaction ID.
	ReconciledLines(ctx context.Context) (map[string]string, error)
	// MarkMatched atomically flips the bank transaction to matched and records
	// lineID as reconciled. It fails with apperrors.ErrAlreadyMatched if either
	// side is already reconciled, leaving both unchanged.
	MarkMatched(ctx context.Context, bankTxID, lineID string, at time.Time) error
}
