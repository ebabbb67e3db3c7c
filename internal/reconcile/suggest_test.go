package reconcile_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/ledger/internal/model"
	"github.com/cleared-dev/ledger/internal/reconcile"
)

func TestSuggest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	receipt := f.post(t, day(10), "Payment for INV-2025-AB12CD34 - Acme", "5720 Banco", "4300 Clientes", "1210.00")
	rent := f.post(t, day(12), "Office rent", "6210 Arrendamientos", "5720 Banco", "500.00")
	supplier := f.post(t, day(14), "Supplier payment", "4100 Acreedores", "5720 Banco", "80.00")
	f.post(t, day(1), "Bank fees", "6260 Servicios bancarios", "5720 Banco", "15.00")

	f.bank(t,
		model.BankTransaction{ID: "b1", Date: day(11), Description: "TRANSFER inv-2025-ab12cd34 ACME", Amount: dec("1210.00")},
		model.BankTransaction{ID: "b2", Date: day(12), Description: "RENT MARCH", Amount: dec("-500.00")},
		model.BankTransaction{ID: "b3", Date: day(16), Description: "SUPPLIER", Amount: dec("-80.00")},
		model.BankTransaction{ID: "b4", Date: day(10), Description: "FEES", Amount: dec("-15.00")},
	)

	got, err := f.matcher.Suggest(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "b1", got[0].BankTx.ID)
	assert.Equal(t, receipt[0].ID, got[0].Line.ID)
	assert.Equal(t, reconcile.ReasonReference, got[0].Reason)

	assert.Equal(t, "b2", got[1].BankTx.ID)
	assert.Equal(t, rent[1].ID, got[1].Line.ID)
	assert.Equal(t, reconcile.ReasonAmountDate, got[1].Reason)

	assert.Equal(t, "b3", got[2].BankTx.ID)
	assert.Equal(t, supplier[1].ID, got[2].Line.ID)
	assert.Equal(t, reconcile.ReasonAmountWindow, got[2].Reason)

	// Suggestions are never applied.
	unmatched, err := f.matcher.Unmatched(ctx)
	require.NoError(t, err)
	assert.Len(t, unmatched, 4)
}

func TestSuggest_TransactionIDReference(t *testing.T) {
	f := newFixture(t)
	lines := f.post(t, day(2), "Loan repayment", "5720 Banco", "1000 Capital", "300.00")
	f.bank(t, model.BankTransaction{ID: "b1", Date: day(20), Description: "REF 2025-03-001", Amount: dec("300.00")})

	got, err := f.matcher.Suggest(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, lines[0].ID, got[0].Line.ID)
	assert.Equal(t, reconcile.ReasonReference, got[0].Reason)
}

func TestSuggest_ReferenceRequiresSameDirection(t *testing.T) {
	f := newFixture(t)
	f.post(t, day(10), "Refund for INV-2025-ZZ99", "4300 Clientes", "5720 Banco", "40.00")
	f.bank(t, model.BankTransaction{ID: "b1", Date: day(25), Description: "INV-2025-ZZ99", Amount: dec("40.00")})

	got, err := f.matcher.Suggest(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSuggest_WindowPrefersNearest(t *testing.T) {
	f := newFixture(t)
	f.post(t, day(14), "Supplier payment", "4100 Acreedores", "5720 Banco", "80.00")
	near := f.post(t, day(17), "Supplier payment", "4100 Acreedores", "5720 Banco", "80.00")
	f.bank(t, model.BankTransaction{ID: "b1", Date: day(16), Description: "SUPPLIER", Amount: dec("-80.00")})

	got, err := f.matcher.Suggest(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, near[1].ID, got[0].Line.ID)
}

func TestSuggest_WindowOption(t *testing.T) {
	f := newFixture(t, reconcile.WithSuggestWindow(0))
	f.post(t, day(14), "Supplier payment", "4100 Acreedores", "5720 Banco", "80.00")
	f.bank(t, model.BankTransaction{ID: "b1", Date: day(15), Description: "SUPPLIER", Amount: dec("-80.00")})

	got, err := f.matcher.Suggest(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSuggest_EachSideUsedOnce(t *testing.T) {
	f := newFixture(t)
	f.post(t, day(10), "Deposit", "5720 Banco", "4300 Clientes", "100.00")
	f.bank(t,
		model.BankTransaction{ID: "b1", Date: day(10), Description: "IN 1", Amount: dec("100.00")},
		model.BankTransaction{ID: "b2", Date: day(10), Description: "IN 2", Amount: dec("100.00")},
	)

	got, err := f.matcher.Suggest(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b1", got[0].BankTx.ID)
}
