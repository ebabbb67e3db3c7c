package journal

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/ledger/internal/apperrors"
	"github.com/cleared-dev/ledger/internal/model"
)

func TestRoundTrip(t *testing.T) {
	entries := []model.JournalEntry{
		{
			ID:            "2025-01-001a",
			TransactionID: "2025-01-001",
			Date:          date(2025, 1, 3),
			Account:       "6000 Compras",
			Description:   "Bill #BILL-7, with comma",
			Debit:         dec("4.00"),
			Status:        model.StatusPosted,
			PostedAt:      fixedNow,
		},
		{
			ID:            "2025-01-001b",
			TransactionID: "2025-01-001",
			Date:          date(2025, 1, 3),
			Account:       "5720 Banco",
			Description:   "Bill #BILL-7, with comma",
			Credit:        dec("4.00"),
			Status:        model.StatusPosted,
			PostedAt:      fixedNow,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteEntries(&buf, entries))

	// Verify header is present.
	assert.True(t, strings.HasPrefix(buf.String(), "id,transaction_id,"))

	got, err := ReadEntries(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)

	for i := range entries {
		assert.Equal(t, entries[i].ID, got[i].ID)
		assert.Equal(t, entries[i].TransactionID, got[i].TransactionID)
		assert.True(t, entries[i].Date.Equal(got[i].Date))
		assert.Equal(t, entries[i].Account, got[i].Account)
		assert.Equal(t, entries[i].Description, got[i].Description)
		assert.True(t, entries[i].Debit.Equal(got[i].Debit))
		assert.True(t, entries[i].Credit.Equal(got[i].Credit))
		assert.Equal(t, entries[i].Status, got[i].Status)
		assert.True(t, entries[i].PostedAt.Equal(got[i].PostedAt))
	}
}

func TestMarshalEntry_EmptySides(t *testing.T) {
	row := MarshalEntry(model.JournalEntry{Date: date(2025, 1, 1), Debit: dec("12.5")})
	assert.Equal(t, "12.50", row[colDebit])
	assert.Equal(t, "", row[colCredit])
	assert.Equal(t, "", row[colPostedAt])
}

func TestUnmarshalEntry_Errors(t *testing.T) {
	tests := []struct {
		name string
		row  []string
	}{
		{"short row", []string{"a", "b"}},
		{"bad date", []string{"", "t1", "15/01/2025", "5720 Banco", "", "1.00", "", "", ""}},
		{"bad debit", []string{"", "t1", "2025-01-15", "5720 Banco", "", "abc", "", "", ""}},
		{"bad credit", []string{"", "t1", "2025-01-15", "5720 Banco", "", "", "x", "", ""}},
		{"bad posted_at", []string{"", "t1", "2025-01-15", "5720 Banco", "", "1", "", "", "yesterday"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalEntry(tt.row)
			assert.Error(t, err)
		})
	}
}

func TestExport(t *testing.T) {
	eng := newTestEngine(newFakeStore())
	seed(t, eng)

	var buf bytes.Buffer
	n, err := eng.Export(context.Background(), &buf, "acme")
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	got, err := ReadEntries(&buf)
	require.NoError(t, err)
	assert.Len(t, got, 5)
}

const importCSV = `id,transaction_id,date,account,description,debit,credit,status,posted_at
,opening,2025-03-01,5720 Banco,Opening balance,5000.00,,,
,opening,2025-03-01,1000 Capital,Opening balance,,5000.00,,
,rent,2025-03-02,6210 Arrendamientos,March rent,800.00,,,
,rent,2025-03-02,5720 Banco,March rent,,800.00,,
`

func TestImport(t *testing.T) {
	eng := newTestEngine(newFakeStore())

	ids, err := eng.Import(context.Background(), strings.NewReader(importCSV))
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-03-001", "2025-03-002"}, ids)

	lines, err := eng.Transaction(context.Background(), "2025-03-002")
	require.NoError(t, err)
	assert.Equal(t, "6210 Arrendamientos", lines[0].Account)
}

func TestImport_ValidatesBeforePosting(t *testing.T) {
	store := newFakeStore()
	eng := newTestEngine(store)

	bad := importCSV + ",broken,2025-03-03,5720 Banco,Oops,10.00,,,\n"
	_, err := eng.Import(context.Background(), strings.NewReader(bad))
	assert.ErrorIs(t, err, apperrors.ErrUnbalanced)
	assert.Equal(t, 0, store.count())
}
