package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dafibh/fortuna/fortuna-dashboard/internal/domain"
)

func (c *Client) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	var accounts []domain.Account
	if err := c.doJSON(ctx, "list_accounts", http.MethodGet, "/accounts/", nil, nil, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (c *Client) GetAccount(ctx context.Context, id int64) (*domain.Account, error) {
	var account domain.Account
	if err := c.doJSON(ctx, "get_account", http.MethodGet, fmt.Sprintf("/accounts/%d", id), nil, nil, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (c *Client) CreateAccount(ctx context.Context, input domain.CreateAccountInput) (*domain.Account, error) {
	var account domain.Account
	if err := c.doJSON(ctx, "create_account", http.MethodPost, "/accounts/", nil, input, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (c *Client) UpdateAccount(ctx context.Context, id int64, input domain.UpdateAccountInput) (*domain.Account, error) {
	var account domain.Account
	if err := c.doJSON(ctx, "update_account", http.MethodPut, fmt.Sprintf("/accounts/%d", id), nil, input, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (c *Client) DeleteAccount(ctx context.Context, id int64) error {
	return c.doJSON(ctx, "delete_account", http.MethodDelete, fmt.Sprintf("/accounts/%d", id), nil, nil, nil)
}
