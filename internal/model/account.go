package model

import "strings"

// AccountType classifies accounts in the chart of accounts.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeRevenue   AccountType = "revenue"
	AccountTypeExpense   AccountType = "expense"
)

// Account represents a row in chart-of-accounts.csv. Journal lines reference
// accounts by Label, so the chart stays open-ended: a line may name an
// account that is not in the chart.
type Account struct {
	Code        string
	Name        string
	Type        AccountType
	Description string
}

// Label returns "<code> <name>", the form used on journal lines.
func (a Account) Label() string {
	if a.Name == "" {
		return a.Code
	}
	return a.Code + " " + a.Name
}

// AccountCode returns the leading code of an account label.
// "4300 Clientes" -> "4300"
func AccountCode(label string) string {
	label = strings.TrimSpace(label)
	if i := strings.IndexByte(label, ' '); i >= 0 {
		return label[:i]
	}
	return label
}
