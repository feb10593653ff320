package domain

import "github.com/shopspring/decimal"

// Budget is a monthly spending limit for one category.
// The server guarantees at most one budget per (category, month, year).
type Budget struct {
	ID          int64           `json:"id"`
	Category    string          `json:"category"`
	Month       int             `json:"month"`
	Year        int             `json:"year"`
	LimitAmount decimal.Decimal `json:"limit_amount"`
	SpentAmount decimal.Decimal `json:"spent_amount"`
	OverBudget  bool            `json:"over_budget"`
}

// BudgetStatus is the display projection of a budget
type BudgetStatus struct {
	Percent    float64 `json:"percent"`
	OverBudget bool    `json:"overBudget"`
}

// BudgetOverview summarises all budgets for the dashboard banner
type BudgetOverview struct {
	Total      int  `json:"total"`
	OverBudget int  `json:"overBudget"`
	Alert      bool `json:"alert"`
}

// CreateBudgetInput holds the input for creating a budget
type CreateBudgetInput struct {
	Category    string          `json:"category" validate:"required,max=100"`
	Month       int             `json:"month" validate:"required,min=1,max=12"`
	Year        int             `json:"year" validate:"required,min=2000,max=2100"`
	LimitAmount decimal.Decimal `json:"limit_amount" validate:"positive_decimal"`
}
