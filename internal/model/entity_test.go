package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestOpenItemStatusAt(t *testing.T) {
	due := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	item := OpenItem{ID: "INV-1", Amount: dec("100"), DueDate: due}

	tests := []struct {
		name string
		now  time.Time
		want ItemStatus
	}{
		{"before due", time.Date(2025, 3, 9, 23, 0, 0, 0, time.UTC), ItemPending},
		{"on due date", time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC), ItemPending},
		{"day after", time.Date(2025, 3, 11, 0, 0, 1, 0, time.UTC), ItemOverdue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, item.StatusAt(tt.now))
		})
	}
}

func TestEntityOverdueAndOutstanding(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	e := Entity{
		OutstandingInvoices: []OpenItem{
			{ID: "a", Amount: dec("100.00"), DueDate: now.AddDate(0, 0, -1)},
			{ID: "b", Amount: dec("50.25"), DueDate: now.AddDate(0, 0, 5)},
			{ID: "c", Amount: dec("10.00"), DueDate: now.AddDate(0, -1, 0)},
		},
	}

	n, amt := e.OverdueAt(now)
	assert.Equal(t, 2, n)
	assert.Equal(t, "110.00", amt.StringFixed(2))
	assert.Equal(t, "160.25", e.Outstanding().StringFixed(2))

	item, idx, ok := e.OpenItem("b")
	assert.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.Equal(t, "b", item.ID)

	_, _, ok = e.OpenItem("zzz")
	assert.False(t, ok)
}

func TestEntityClone(t *testing.T) {
	e := Entity{OutstandingInvoices: []OpenItem{{ID: "a"}}}
	c := e.Clone()
	c.OutstandingInvoices[0].ID = "changed"
	assert.Equal(t, "a", e.OutstandingInvoices[0].ID)
}

func TestEntityTypeValid(t *testing.T) {
	assert.True(t, EntityClient.Valid())
	assert.True(t, EntityVendor.Valid())
	assert.False(t, EntityType("partner").Valid())
}
