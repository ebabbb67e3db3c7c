package id

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Prefixes for subledger identifiers.
const (
	PrefixInvoice = "INV"
	PrefixBill    = "BILL"
	PrefixPayment = "PAY"
	PrefixClient  = "C"
	PrefixVendor  = "V"
	PrefixBank    = "B"
)

// FormatTransactionID returns a transaction ID like "2025-01-001".
func FormatTransactionID(year, month, seq int) string {
	return fmt.Sprintf("%04d-%02d-%03d", year, month, seq)
}

// FormatLineID returns a line ID like "2025-01-001a" (leg 0='a', 25='z',
// 26='aa', etc.).
func FormatLineID(txID string, leg int) string {
	var suffix []byte
	for n := leg + 1; n > 0; n /= 26 {
		n--
		suffix = append([]byte{byte('a' + n%26)}, suffix...)
	}
	return txID + string(suffix)
}

// ParseTransactionID parses "2025-01-001" into year, month, seq.
func ParseTransactionID(id string) (year, month, seq int, err error) {
	// Strip any leg suffix (trailing lowercase letters).
	base := EntryGroup(id)

	parts := strings.SplitN(base, "-", 3)
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("invalid transaction ID format: %q", id)
	}

	year, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid year in transaction ID %q: %w", id, err)
	}

	month, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid month in transaction ID %q: %w", id, err)
	}
	if month < 1 || month > 12 {
		return 0, 0, 0, fmt.Errorf("month %d out of range in transaction ID %q", month, id)
	}

	seq, err = strconv.Atoi(parts[2])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid sequence in transaction ID %q: %w", id, err)
	}

	return year, month, seq, nil
}

// EntryGroup strips the leg suffix from a line ID.
// "2025-01-001a" -> "2025-01-001"
func EntryGroup(lineID string) string {
	i := len(lineID)
	for i > 0 && lineID[i-1] >= 'a' && lineID[i-1] <= 'z' {
		i--
	}
	return lineID[:i]
}

// New returns a random identifier like "C-6f1c...".
func New(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// NewDocument returns a document number like
// "INV-2025-3F2A9C1B0D4E4B7A9C8D1E2F3A4B5C6D" for an open item issued at t.
// The suffix carries all 128 bits of a random UUID.
func NewDocument(prefix string, t time.Time) string {
	u := uuid.New()
	return fmt.Sprintf("%s-%04d-%s", prefix, t.Year(), strings.ToUpper(hex.EncodeToString(u[:])))
}
