package client

import (
	"context"
	"net/http"

	"github.com/dafibh/fortuna/fortuna-dashboard/internal/domain"
)

func (c *Client) ListBills(ctx context.Context) ([]domain.Bill, error) {
	var bills []domain.Bill
	if err := c.doJSON(ctx, "list_bills", http.MethodGet, "/bills/", nil, nil, &bills); err != nil {
		return nil, err
	}
	return bills, nil
}

func (c *Client) CreateBill(ctx context.Context, input domain.CreateBillInput) (*domain.Bill, error) {
	var bill domain.Bill
	if err := c.doJSON(ctx, "create_bill", http.MethodPost, "/bills/", nil, input, &bill); err != nil {
		return nil, err
	}
	return &bill, nil
}
