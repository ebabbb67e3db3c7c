package filestore

import (
	"github.com/cleared-dev/ledger/internal/ledger"
	"github.com/cleared-dev/ledger/internal/reconcile"
	"github.com/cleared-dev/ledger/internal/subledger"
)

// Compile-time interface assertions documenting which interfaces Store satisfies.
var (
	_ ledger.Store         = (*Store)(nil)
	_ subledger.Repository = (*Store)(nil)
	_ reconcile.Repository = (*Store)(nil)
	_ subledger.Tx         = (*tx)(nil)
)
