package subledger

import "github.com/shopspring/decimal"

// DefaultTaxRate is the VAT rate applied when none is configured.
var DefaultTaxRate = decimal.RequireFromString("0.21")

// SplitGross splits a tax-inclusive amount into base and tax. The base is
// rounded to cents and the tax takes the remainder, so base+tax == gross.
func SplitGross(gross, rate decimal.Decimal) (base, tax decimal.Decimal) {
	base = gross.DivRound(decimal.NewFromInt(1).Add(rate), 2)
	return base, gross.Sub(base)
}
