package apperrors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrNotFound indicates that a requested record could not be found.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates an attempt to store a record whose ID already exists.
var ErrConflict = errors.New("already exists")

// ErrInvalidLine indicates a draft line failed shape checks.
var ErrInvalidLine = errors.New("invalid journal line")

// ErrUnbalanced indicates a transaction whose debits and credits differ
// beyond the balance tolerance.
var ErrUnbalanced = errors.New("transaction unbalanced")

// ErrInvalidEntity indicates client or vendor data failed validation.
var ErrInvalidEntity = errors.New("invalid entity")

// ErrInvalidAmount indicates a non-positive or out-of-range amount.
var ErrInvalidAmount = errors.New("invalid amount")

// ErrItemNotFound indicates an open item that is not outstanding on the entity.
var ErrItemNotFound = errors.New("open item not found")

// ErrAlreadyMatched indicates a bank transaction or ledger line that has
// already been reconciled.
var ErrAlreadyMatched = errors.New("already matched")

// UnbalancedError carries the debit minus credit difference of a rejected
// transaction. It matches ErrUnbalanced with errors.Is.
type UnbalancedError struct {
	Debits     decimal.Decimal
	Credits    decimal.Decimal
	Difference decimal.Decimal
}

// NewUnbalanced builds an UnbalancedError from debit and credit totals.
func NewUnbalanced(debits, credits decimal.Decimal) *UnbalancedError {
	return &UnbalancedError{Debits: debits, Credits: credits, Difference: debits.Sub(credits)}
}

func (e *UnbalancedError) Error() string {
	return fmt.Sprintf("%s: debits (%s) != credits (%s), difference %s",
		ErrUnbalanced, e.Debits.StringFixed(2), e.Credits.StringFixed(2), e.Difference.StringFixed(2))
}

func (e *UnbalancedError) Is(target error) bool {
	return target == ErrUnbalanced
}
