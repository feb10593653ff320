package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dafibh/fortuna/fortuna-dashboard/internal/domain"
)

func (c *Client) ListBudgets(ctx context.Context) ([]domain.Budget, error) {
	var budgets []domain.Budget
	if err := c.doJSON(ctx, "list_budgets", http.MethodGet, "/budgets/", nil, nil, &budgets); err != nil {
		return nil, err
	}
	return budgets, nil
}

// CreateBudget sends the budget as query parameters, which is what the API expects
func (c *Client) CreateBudget(ctx context.Context, input domain.CreateBudgetInput) (*domain.Budget, error) {
	query := url.Values{
		"month":        {strconv.Itoa(input.Month)},
		"year":         {strconv.Itoa(input.Year)},
		"category":     {input.Category},
		"limit_amount": {input.LimitAmount.String()},
	}
	var budget domain.Budget
	if err := c.doJSON(ctx, "create_budget", http.MethodPost, "/budgets/", query, nil, &budget); err != nil {
		return nil, err
	}
	return &budget, nil
}
