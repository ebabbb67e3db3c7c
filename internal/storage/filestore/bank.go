package filestore

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledger/internal/model"
)

const bankHeader = "id,date,description,amount,reference,source,matched_line,matched_at"

func readBank(path string) ([]model.BankTransaction, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = strings.Count(bankHeader, ",") + 1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	out := make([]model.BankTransaction, 0, len(records)-1)
	for i, rec := range records[1:] {
		t, err := unmarshalBankTx(rec)
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", path, i+2, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func writeBank(w io.Writer, txns []model.BankTransaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(strings.Split(bankHeader, ",")); err != nil {
		return err
	}
	for _, t := range txns {
		matchedAt := ""
		if t.Matched {
			matchedAt = t.MatchedAt.UTC().Format(time.RFC3339Nano)
		}
		if err := cw.Write([]string{
			t.ID,
			t.Date.Format(dateLayout),
			t.Description,
			t.Amount.String(),
			t.Reference,
			t.Source,
			t.MatchedLine,
			matchedAt,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func unmarshalBankTx(rec []string) (model.BankTransaction, error) {
	date, err := time.Parse(dateLayout, rec[1])
	if err != nil {
		return model.BankTransaction{}, fmt.Errorf("invalid date %q", rec[1])
	}
	amount, err := decimal.NewFromString(rec[3])
	if err != nil {
		return model.BankTransaction{}, fmt.Errorf("invalid amount %q", rec[3])
	}
	t := model.BankTransaction{
		ID:          rec[0],
		Date:        date,
		Description: rec[2],
		Amount:      amount,
		Reference:   rec[4],
		Source:      rec[5],
		MatchedLine: rec[6],
	}
	if rec[7] != "" {
		at, err := time.Parse(time.RFC3339Nano, rec[7])
		if err != nil {
			return model.BankTransaction{}, fmt.Errorf("invalid matched_at %q", rec[7])
		}
		t.Matched = true
		t.MatchedAt = at
	}
	return t, nil
}
