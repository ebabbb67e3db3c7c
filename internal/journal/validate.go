package journal

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledger/internal/apperrors"
	"github.com/cleared-dev/ledger/internal/model"
)

// ValidationError describes a single draft line that failed shape checks.
// Line is the zero-based index of the draft, or -1 for the whole batch.
type ValidationError struct {
	Line        int
	Description string
}

func (e ValidationError) Error() string {
	if e.Line < 0 {
		return e.Description
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Description)
}

// ValidationErrors is every violation found in a batch. It matches
// apperrors.ErrInvalidLine with errors.Is.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	msgs := make([]string, len(errs))
	for i, ve := range errs {
		msgs[i] = ve.Error()
	}
	return fmt.Sprintf("%s: %s", apperrors.ErrInvalidLine, strings.Join(msgs, "; "))
}

func (errs ValidationErrors) Is(target error) bool {
	return target == apperrors.ErrInvalidLine
}

var hundred = decimal.NewFromInt(100)

// ValidateDrafts checks the shape of every draft line. Balance is checked
// separately by the engine, against its tolerance.
func ValidateDrafts(drafts []model.Draft) ValidationErrors {
	if len(drafts) == 0 {
		return ValidationErrors{{Line: -1, Description: "transaction has no lines"}}
	}

	var errs ValidationErrors
	for i, d := range drafts {
		if strings.TrimSpace(d.Account) == "" {
			errs = append(errs, ValidationError{Line: i, Description: "account is required"})
		}
		if d.Date.IsZero() {
			errs = append(errs, ValidationError{Line: i, Description: "date is required"})
		}
		if d.Debit.IsNegative() || d.Credit.IsNegative() {
			errs = append(errs, ValidationError{Line: i, Description: "amounts must not be negative"})
			continue
		}

		// Exactly one of debit/credit per line.
		if d.Debit.IsPositive() == d.Credit.IsPositive() {
			errs = append(errs, ValidationError{Line: i, Description: "line must have exactly one of debit or credit"})
		}

		if !twoDecimals(d.Debit) {
			errs = append(errs, ValidationError{Line: i, Description: fmt.Sprintf("debit %s has more than 2 decimal places", d.Debit)})
		}
		if !twoDecimals(d.Credit) {
			errs = append(errs, ValidationError{Line: i, Description: fmt.Sprintf("credit %s has more than 2 decimal places", d.Credit)})
		}
	}
	return errs
}

func twoDecimals(d decimal.Decimal) bool {
	return d.Mul(hundred).Equal(d.Mul(hundred).Floor())
}

// Totals sums the debit and credit sides of drafts.
func Totals(drafts []model.Draft) (debits, credits decimal.Decimal) {
	debits, credits = decimal.Zero, decimal.Zero
	for _, d := range drafts {
		debits = debits.Add(d.Debit)
		credits = credits.Add(d.Credit)
	}
	return debits, credits
}
