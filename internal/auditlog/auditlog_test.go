package auditlog

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

func testEntry() Entry {
	return Entry{
		Timestamp:     testTime,
		Actor:         "cli",
		Action:        "invoice_issue",
		Details:       "Issued INV-2025-AB12CD34 for Acme, 1000.00",
		Reference:     "INV-2025-AB12CD34",
		TransactionID: "2025-01-001",
	}
}

func TestAppend_NewFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir, []Entry{testEntry()}))

	data, err := os.ReadFile(filepath.Join(dir, "logs", "activity.csv"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), Header+"\n"))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, testEntry(), entries[0])
}

func TestAppend_ExistingFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir, []Entry{testEntry()}))

	e2 := testEntry()
	e2.Action = "bank_match"
	e2.Details = "Matched B-1 to 2025-01-001a, with a comma"
	require.NoError(t, Append(dir, []Entry{e2}))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "invoice_issue", entries[0].Action)
	assert.Equal(t, e2.Details, entries[1].Details)

	data, err := os.ReadFile(filepath.Join(dir, "logs", "activity.csv"))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), Header), "header written once")
}

func TestRead_NoFile(t *testing.T) {
	entries, err := Read(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestRead_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad timestamp", Header + "\nyesterday,cli,a,b,c,d\n", "parsing timestamp"},
		{"wrong field count", Header + "\n2025-01-15T10:30:00Z,cli,a\n", "reading activity log CSV"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readEntries(strings.NewReader(tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRecorder(t *testing.T) {
	dir := t.TempDir()
	r := NewRecorder(dir, "cli")
	r.now = func() time.Time { return testTime }

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, r.Record("journal_post", "posted", "", "2025-01-001"))
		}()
	}
	wg.Wait()

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 10)
	for _, e := range entries {
		assert.Equal(t, "cli", e.Actor)
		assert.Equal(t, testTime, e.Timestamp)
	}
}
