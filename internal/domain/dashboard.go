package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DashboardSummary contains the server-computed dashboard metrics
type DashboardSummary struct {
	TotalBalance  decimal.Decimal `json:"total_balance"`
	TotalAccounts int             `json:"total_accounts"`
	TotalIncome   decimal.Decimal `json:"total_income"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	NetFlow       decimal.Decimal `json:"net_flow"`
}

// DashboardOverview is the wire shape of GET /dashboard/overview
type DashboardOverview struct {
	User         User             `json:"user"`
	Accounts     []Account        `json:"accounts"`
	Transactions []Transaction    `json:"transactions"`
	Summary      DashboardSummary `json:"summary"`
}

// DashboardSnapshot is the complete cached copy of server data.
// It is replaced as a whole on every successful load and never patched.
type DashboardSnapshot struct {
	User         User             `json:"user"`
	Accounts     []Account        `json:"accounts"`
	Transactions []Transaction    `json:"transactions"`
	Summary      DashboardSummary `json:"summary"`
	Budgets      []Budget         `json:"budgets"`
	Sequence     uint64           `json:"sequence"`
	LoadedAt     time.Time        `json:"loadedAt"`
}

// FindAccount returns the account with id, if present
func (s *DashboardSnapshot) FindAccount(id int64) (Account, bool) {
	if s == nil {
		return Account{}, false
	}
	for _, a := range s.Accounts {
		if a.ID == id {
			return a, true
		}
	}
	return Account{}, false
}

// Totals are aggregate figures for the current selection
type Totals struct {
	Balance  decimal.Decimal `json:"balance"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	NetFlow  decimal.Decimal `json:"netFlow"`
	Count    int             `json:"count"`
}

// CategoryTotal is the debit total for one category
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

// AccountStats are the drill-down figures for one account
type AccountStats struct {
	AccountID         int64           `json:"account_id"`
	TransactionCount  int             `json:"transaction_count"`
	TotalIncome       decimal.Decimal `json:"total_income"`
	TotalExpenses     decimal.Decimal `json:"total_expenses"`
	NetFlow           decimal.Decimal `json:"net_flow"`
	CategoryBreakdown []CategoryTotal `json:"category_breakdown"`
}
