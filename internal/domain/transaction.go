package domain

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

type TxnType string

const (
	TxnTypeDebit  TxnType = "debit"
	TxnTypeCredit TxnType = "credit"
)

// UnmarshalJSON accepts DEBIT/CREDIT in any case
func (t *TxnType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*t = TxnType(strings.ToLower(s))
	return nil
}

// DefaultCategory is shown for transactions without a category
const DefaultCategory = "Others"

type Transaction struct {
	ID          int64           `json:"id"`
	AccountID   int64           `json:"account_id"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency,omitempty"`
	TxnType     TxnType         `json:"txn_type"`
	Category    *string         `json:"category"`
	Merchant    *string         `json:"merchant"`
	Description *string         `json:"description"`
	TxnDate     Timestamp       `json:"txn_date"`
	PostedDate  *Timestamp      `json:"posted_date,omitempty"`
}

// DisplayCategory returns the category, or "Others" when none is set
func (t Transaction) DisplayCategory() string {
	if t.Category == nil || strings.TrimSpace(*t.Category) == "" {
		return DefaultCategory
	}
	return *t.Category
}

// SignedAmount derives the sign from TxnType. The stored amount is treated
// as a magnitude even if the server sent it negative.
func (t Transaction) SignedAmount() decimal.Decimal {
	amount := t.Amount.Abs()
	if t.TxnType == TxnTypeDebit {
		return amount.Neg()
	}
	return amount
}

// IsCredit reports whether the transaction is income
func (t Transaction) IsCredit() bool {
	return t.TxnType == TxnTypeCredit
}

// CreateTransactionInput holds the input for a manual transaction.
// An empty category asks the server to auto-categorise.
type CreateTransactionInput struct {
	AccountID   int64           `json:"account_id" validate:"required,gt=0"`
	Description *string         `json:"description"`
	Category    *string         `json:"category"`
	Merchant    *string         `json:"merchant"`
	Amount      decimal.Decimal `json:"amount" validate:"positive_decimal"`
	Currency    string          `json:"currency" validate:"required,iso4217"`
	TxnType     string          `json:"txn_type" validate:"required,txn_type"`
	TxnDate     string          `json:"txn_date" validate:"required"`
}

// UpdateTransactionInput holds the editable transaction fields
type UpdateTransactionInput struct {
	Description *string         `json:"description"`
	Category    *string         `json:"category"`
	Merchant    *string         `json:"merchant"`
	Amount      decimal.Decimal `json:"amount" validate:"positive_decimal"`
	Currency    string          `json:"currency" validate:"required,iso4217"`
	TxnType     string          `json:"txn_type" validate:"required,txn_type"`
	TxnDate     string          `json:"txn_date" validate:"required"`
}

// CreateTransferInput moves money from one of the user's accounts to another
type CreateTransferInput struct {
	FromAccountID int64           `json:"from_account_id" validate:"required,gt=0"`
	ToAccountID   int64           `json:"to_account_id" validate:"required,gt=0,nefield=FromAccountID"`
	Amount        decimal.Decimal `json:"amount" validate:"positive_decimal"`
	Description   *string         `json:"description,omitempty"`
}

// Transfer is the collaborator's record of a completed transfer.
// BudgetAlert is set when the transfer pushed a budget over its limit.
type Transfer struct {
	ID            int64           `json:"id"`
	FromAccountID int64           `json:"from_account_id"`
	ToAccountID   int64           `json:"to_account_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Status        string          `json:"status"`
	BudgetAlert   string          `json:"budget_alert,omitempty"`
}

// CSVImportResult is the collaborator's report for a CSV upload
type CSVImportResult struct {
	TransactionsCreated int      `json:"transactions_created"`
	Errors              []string `json:"errors"`
}
