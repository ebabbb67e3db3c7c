package subledger

import (
	"context"

	"github.com/cleared-dev/ledger/internal/ledger"
	"github.com/cleared-dev/ledger/internal/model"
)

// Repository stores entities. Writes go through a Tx so that entity changes
// and the journal lines they produce become visible together.
type Repository interface {
	// Entity returns apperrors.ErrNotFound for unknown IDs.
	Entity(ctx context.Context, id string) (model.Entity, error)
	// Entities returns every entity in creation order.
	Entities(ctx context.Context) ([]model.Entity, error)
	Begin(ctx context.Context) (Tx, error)
}

// Tx is a unit of work over entities and the ledger.
type Tx interface {
	// Ledger returns a writer whose appends commit with the Tx.
	Ledger() ledger.Writer
	// Entity reads an entity for update.
	Entity(ctx context.Context, id string) (model.Entity, error)
	PutEntity(ctx context.Context, e model.Entity) error
	DeleteEntity(ctx context.Context, id string) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Poster posts journal lines through a unit-of-work writer. The journal
// engine satisfies it.
type Poster interface {
	PostTo(ctx context.Context, w ledger.Writer, drafts []model.Draft) ([]model.JournalEntry, error)
}
