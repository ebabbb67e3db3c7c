package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/cleared-dev/ledger/internal/model"
)

func TestFilterMatch(t *testing.T) {
	line := model.JournalEntry{
		ID:            "2025-03-002a",
		TransactionID: "2025-03-002",
		Date:          time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
		Description:   "Invoice #INV-2025-0001 - Acme Corp",
		Account:       "4300 Clientes",
		Debit:         decimal.RequireFromString("1000.00"),
	}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"empty", Filter{}, true},
		{"query description", Filter{Query: "acme"}, true},
		{"query account", Filter{Query: "CLIENTES"}, true},
		{"query miss", Filter{Query: "globex"}, false},
		{"prefix hit", Filter{AccountPrefixes: []string{"5720", "43"}}, true},
		{"prefix miss", Filter{AccountPrefixes: []string{"5720"}}, false},
		{"from same day", Filter{From: time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)}, true},
		{"from later", Filter{From: time.Date(2025, 3, 16, 0, 0, 0, 0, time.UTC)}, false},
		{"to earlier", Filter{To: time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)}, false},
		{"transaction", Filter{TransactionID: "2025-03-002"}, true},
		{"other transaction", Filter{TransactionID: "2025-03-001"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Match(line))
		})
	}
}

func TestHasAccountPrefix(t *testing.T) {
	assert.True(t, HasAccountPrefix("5720 Banco", []string{"5720"}))
	assert.False(t, HasAccountPrefix("5720 Banco", []string{""}))
	assert.False(t, HasAccountPrefix("7000 Ventas", nil))
}
