package id

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTransactionID(t *testing.T) {
	tests := []struct {
		year, month, seq int
		want             string
	}{
		{2025, 1, 1, "2025-01-001"},
		{2025, 12, 99, "2025-12-099"},
		{2025, 1, 123, "2025-01-123"},
		{2025, 1, 1234, "2025-01-1234"},
	}
	for _, tt := range tests {
		got := FormatTransactionID(tt.year, tt.month, tt.seq)
		assert.Equal(t, tt.want, got)
	}
}

func TestFormatLineID(t *testing.T) {
	tests := []struct {
		txID string
		leg  int
		want string
	}{
		{"2025-01-001", 0, "2025-01-001a"},
		{"2025-01-001", 1, "2025-01-001b"},
		{"2025-01-001", 25, "2025-01-001z"},
		{"2025-01-001", 26, "2025-01-001aa"},
		{"2025-01-001", 27, "2025-01-001ab"},
		{"2025-01-001", 51, "2025-01-001az"},
		{"2025-01-001", 52, "2025-01-001ba"},
	}
	for _, tt := range tests {
		got := FormatLineID(tt.txID, tt.leg)
		assert.Equal(t, tt.want, got, "leg %d", tt.leg)
	}
}

func TestFormatLineID_RoundTripsGroup(t *testing.T) {
	for leg := 0; leg < 800; leg++ {
		lineID := FormatLineID("2025-02-007", leg)
		assert.Equal(t, "2025-02-007", EntryGroup(lineID))
	}
}

func TestParseTransactionID(t *testing.T) {
	tests := []struct {
		input               string
		wantYear, wantMonth int
		wantSeq             int
	}{
		{"2025-01-001", 2025, 1, 1},
		{"2025-12-099", 2025, 12, 99},
		{"2025-01-001a", 2025, 1, 1},
		{"2025-01-001ab", 2025, 1, 1},
	}
	for _, tt := range tests {
		year, month, seq, err := ParseTransactionID(tt.input)
		require.NoError(t, err, "input: %s", tt.input)
		assert.Equal(t, tt.wantYear, year)
		assert.Equal(t, tt.wantMonth, month)
		assert.Equal(t, tt.wantSeq, seq)
	}
}

func TestParseTransactionID_Errors(t *testing.T) {
	badInputs := []string{
		"",
		"not-valid",
		"2025-01",
		"xxxx-01-001",
		"2025-13-001",
	}
	for _, input := range badInputs {
		_, _, _, err := ParseTransactionID(input)
		assert.Error(t, err, "expected error for input: %s", input)
	}
}

func TestEntryGroup(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"2025-01-001a", "2025-01-001"},
		{"2025-01-001b", "2025-01-001"},
		{"2025-01-001", "2025-01-001"},
		{"", ""},
	}
	for _, tt := range tests {
		got := EntryGroup(tt.input)
		assert.Equal(t, tt.want, got)
	}
}

func TestNew(t *testing.T) {
	a := New(PrefixClient)
	b := New(PrefixClient)
	assert.NotEqual(t, a, b)
	assert.Regexp(t, `^C-[0-9a-f-]{36}$`, a)
}

func TestNewDocument(t *testing.T) {
	doc := NewDocument(PrefixInvoice, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	assert.True(t, regexp.MustCompile(`^INV-2025-[0-9A-F]{32}$`).MatchString(doc), doc)
}

func TestNewDocument_Unique(t *testing.T) {
	issued := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	seen := make(map[string]bool)
	for i := 0; i < 100000; i++ {
		doc := NewDocument(PrefixBill, issued)
		require.False(t, seen[doc], "duplicate document number %s", doc)
		seen[doc] = true
	}
}
