package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dafibh/fortuna/fortuna-dashboard/internal/domain"
)

// ListTransactions returns transactions in server order, optionally for one account
func (c *Client) ListTransactions(ctx context.Context, accountID *int64) ([]domain.Transaction, error) {
	var query url.Values
	if accountID != nil {
		query = url.Values{"account_id": {strconv.FormatInt(*accountID, 10)}}
	}
	var txns []domain.Transaction
	if err := c.doJSON(ctx, "list_transactions", http.MethodGet, "/transactions/", query, nil, &txns); err != nil {
		return nil, err
	}
	return txns, nil
}

func (c *Client) CreateTransaction(ctx context.Context, input domain.CreateTransactionInput) (*domain.Transaction, error) {
	var txn domain.Transaction
	if err := c.doJSON(ctx, "create_transaction", http.MethodPost, "/transactions/", nil, input, &txn); err != nil {
		return nil, err
	}
	return &txn, nil
}

// CreateTransfer moves money between two accounts. The finance API records
// transfers on the transactions collection.
func (c *Client) CreateTransfer(ctx context.Context, input domain.CreateTransferInput) (*domain.Transfer, error) {
	var transfer domain.Transfer
	if err := c.doJSON(ctx, "create_transfer", http.MethodPost, "/transactions/", nil, input, &transfer); err != nil {
		return nil, err
	}
	return &transfer, nil
}

func (c *Client) UpdateTransaction(ctx context.Context, id int64, input domain.UpdateTransactionInput) (*domain.Transaction, error) {
	var txn domain.Transaction
	if err := c.doJSON(ctx, "update_transaction", http.MethodPut, fmt.Sprintf("/transactions/%d", id), nil, input, &txn); err != nil {
		return nil, err
	}
	return &txn, nil
}

// UpdateTransactionCategory recategorises one transaction
func (c *Client) UpdateTransactionCategory(ctx context.Context, id int64, category string) (*domain.Transaction, error) {
	var txn domain.Transaction
	body := map[string]string{"category": category}
	if err := c.doJSON(ctx, "update_transaction_category", http.MethodPut, fmt.Sprintf("/transactions/%d/category", id), nil, body, &txn); err != nil {
		return nil, err
	}
	return &txn, nil
}

func (c *Client) DeleteTransaction(ctx context.Context, id int64) error {
	return c.doJSON(ctx, "delete_transaction", http.MethodDelete, fmt.Sprintf("/transactions/%d", id), nil, nil, nil)
}

// UploadCSV posts a bank statement as multipart field "file". Row-level
// failures are reported in the result, not as an error.
func (c *Client) UploadCSV(ctx context.Context, accountID int64, filename string, r io.Reader) (*domain.CSVImportResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	var result domain.CSVImportResult
	err = c.send(ctx, call{
		op:          "upload_csv",
		method:      http.MethodPost,
		path:        fmt.Sprintf("/transactions/upload-csv/%d", accountID),
		body:        &buf,
		contentType: mw.FormDataContentType(),
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}
