package accounts

import (
	"strings"

	"github.com/cleared-dev/ledger/internal/model"
)

// Labels of the accounts the subledger posts to by default.
const (
	Payable     = "4100 Acreedores"
	Receivable  = "4300 Clientes"
	InputTax    = "4720 HP IVA Soportado"
	OutputTax   = "4770 HP IVA Repercutido"
	Bank        = "5720 Banco"
	Purchases   = "6000 Compras"
	Sales       = "7000 Ventas"
	BankPrefix  = "5720"
	SalesPrefix = "7000"
)

// DefaultChart returns the default chart of accounts, a subset of the Spanish
// general accounting plan.
func DefaultChart() []model.Account {
	return []model.Account{
		{Code: "1000", Name: "Capital social", Type: model.AccountTypeEquity},
		{Code: "4100", Name: "Acreedores", Type: model.AccountTypeLiability, Description: "Vendor payables"},
		{Code: "4300", Name: "Clientes", Type: model.AccountTypeAsset, Description: "Client receivables"},
		{Code: "4720", Name: "HP IVA Soportado", Type: model.AccountTypeAsset, Description: "Input VAT"},
		{Code: "4770", Name: "HP IVA Repercutido", Type: model.AccountTypeLiability, Description: "Output VAT"},
		{Code: "5720", Name: "Banco", Type: model.AccountTypeAsset, Description: "Bank current account"},
		{Code: "6000", Name: "Compras", Type: model.AccountTypeExpense},
		{Code: "6210", Name: "Arrendamientos", Type: model.AccountTypeExpense},
		{Code: "6260", Name: "Servicios bancarios", Type: model.AccountTypeExpense},
		{Code: "6400", Name: "Sueldos y salarios", Type: model.AccountTypeExpense},
		{Code: "7000", Name: "Ventas", Type: model.AccountTypeRevenue},
		{Code: "7050", Name: "Prestaciones de servicios", Type: model.AccountTypeRevenue},
	}
}

// ClassifyCode derives an account type from the plan's group structure.
func ClassifyCode(code string) model.AccountType {
	if code == "" {
		return model.AccountTypeAsset
	}
	switch code[0] {
	case '1', '8', '9':
		return model.AccountTypeEquity
	case '2', '3':
		return model.AccountTypeAsset
	case '4':
		for _, p := range []string{"43", "44", "46", "470", "471", "472", "473", "474"} {
			if strings.HasPrefix(code, p) {
				return model.AccountTypeAsset
			}
		}
		return model.AccountTypeLiability
	case '5':
		for _, p := range []string{"50", "51", "52"} {
			if strings.HasPrefix(code, p) {
				return model.AccountTypeLiability
			}
		}
		return model.AccountTypeAsset
	case '6':
		return model.AccountTypeExpense
	case '7':
		return model.AccountTypeRevenue
	default:
		return model.AccountTypeAsset
	}
}
