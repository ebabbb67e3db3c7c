package journal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/ledger/internal/apperrors"
	"github.com/cleared-dev/ledger/internal/model"
)

func TestValidate_Valid(t *testing.T) {
	errs := ValidateDrafts([]model.Draft{debit("6000 Compras", "100.00"), credit("5720 Banco", "100.00")})
	assert.Empty(t, errs)
}

func TestValidate_Violations(t *testing.T) {
	tests := []struct {
		name  string
		draft model.Draft
		want  string
	}{
		{"empty account", model.Draft{Date: date(2025, 1, 1), Account: "  ", Debit: dec("1")}, "account is required"},
		{"zero date", model.Draft{Account: "5720 Banco", Debit: dec("1")}, "date is required"},
		{"negative", model.Draft{Date: date(2025, 1, 1), Account: "5720 Banco", Debit: dec("-1")}, "must not be negative"},
		{"both sides", model.Draft{Date: date(2025, 1, 1), Account: "5720 Banco", Debit: dec("1"), Credit: dec("1")}, "exactly one of debit or credit"},
		{"neither side", model.Draft{Date: date(2025, 1, 1), Account: "5720 Banco"}, "exactly one of debit or credit"},
		{"three decimals debit", model.Draft{Date: date(2025, 1, 1), Account: "5720 Banco", Debit: dec("1.005")}, "more than 2 decimal places"},
		{"three decimals credit", model.Draft{Date: date(2025, 1, 1), Account: "5720 Banco", Credit: dec("0.001")}, "more than 2 decimal places"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateDrafts([]model.Draft{tt.draft})
			require.NotEmpty(t, errs)
			assert.Equal(t, 0, errs[0].Line)
			assert.Contains(t, errs.Error(), tt.want)
			assert.True(t, errors.Is(errs, apperrors.ErrInvalidLine))
		})
	}
}

func TestValidate_Empty(t *testing.T) {
	errs := ValidateDrafts(nil)
	require.Len(t, errs, 1)
	assert.Equal(t, -1, errs[0].Line)
	assert.Equal(t, "transaction has no lines", errs[0].Error())
}

func TestValidate_ReportsEveryLine(t *testing.T) {
	errs := ValidateDrafts([]model.Draft{
		{Date: date(2025, 1, 1), Account: "", Debit: dec("1")},
		debit("5720 Banco", "1.00"),
		{Date: date(2025, 1, 1), Account: "7000 Ventas"},
	})
	require.Len(t, errs, 2)
	assert.Equal(t, 0, errs[0].Line)
	assert.Equal(t, 2, errs[1].Line)
}

func TestTotals(t *testing.T) {
	d, c := Totals([]model.Draft{debit("a", "10.10"), debit("b", "0.90"), credit("c", "11.00")})
	assert.Equal(t, "11.00", d.StringFixed(2))
	assert.Equal(t, "11.00", c.StringFixed(2))
}
