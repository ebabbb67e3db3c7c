package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnbalancedError(t *testing.T) {
	err := fmt.Errorf("posting: %w", NewUnbalanced(decimal.RequireFromString("100.00"), decimal.RequireFromString("90.00")))

	assert.ErrorIs(t, err, ErrUnbalanced)
	assert.NotErrorIs(t, err, ErrInvalidLine)

	var ue *UnbalancedError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, "10.00", ue.Difference.StringFixed(2))
	assert.Contains(t, err.Error(), "debits (100.00) != credits (90.00)")
}
