package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

type AccountType string

const (
	AccountTypeSavings    AccountType = "savings"
	AccountTypeChecking   AccountType = "checking"
	AccountTypeCreditCard AccountType = "credit_card"
	AccountTypeLoan       AccountType = "loan"
	AccountTypeInvestment AccountType = "investment"
)

// accountTypeAliases maps accepted spellings to the canonical account type
var accountTypeAliases = map[string]AccountType{
	"savings":     AccountTypeSavings,
	"checking":    AccountTypeChecking,
	"current":     AccountTypeChecking,
	"credit_card": AccountTypeCreditCard,
	"loan":        AccountTypeLoan,
	"investment":  AccountTypeInvestment,
}

// ParseAccountType normalises s to a canonical AccountType
func ParseAccountType(s string) (AccountType, bool) {
	t, ok := accountTypeAliases[strings.ToLower(strings.TrimSpace(s))]
	return t, ok
}

// AccountTypes lists the canonical account types in display order
func AccountTypes() []AccountType {
	return []AccountType{
		AccountTypeSavings,
		AccountTypeChecking,
		AccountTypeCreditCard,
		AccountTypeLoan,
		AccountTypeInvestment,
	}
}

// DefaultCurrency is used when an input leaves the currency empty
const DefaultCurrency = "INR"

type Account struct {
	ID            int64           `json:"id"`
	BankName      string          `json:"bank_name"`
	AccountType   AccountType     `json:"account_type"`
	MaskedAccount string          `json:"masked_account"`
	Currency      string          `json:"currency"`
	Balance       decimal.Decimal `json:"balance"`
	CreatedAt     Timestamp       `json:"created_at"`
}

// CreateAccountInput holds the input for creating an account
type CreateAccountInput struct {
	BankName      string          `json:"bank_name" validate:"required,min=2,max=100"`
	AccountType   string          `json:"account_type" validate:"required,account_type"`
	MaskedAccount string          `json:"masked_account,omitempty" validate:"omitempty,min=4,max=20"`
	Currency      string          `json:"currency" validate:"required,iso4217"`
	Balance       decimal.Decimal `json:"balance" validate:"nonneg_decimal"`
}

// UpdateAccountInput holds the editable account fields
type UpdateAccountInput = CreateAccountInput
