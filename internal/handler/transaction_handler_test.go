package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/dafibh/fortuna/fortuna-dashboard/internal/csvsource"
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/domain"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSource is a test double for statement storage
type mockSource struct {
	OpenFn func(ctx context.Context, ref string) (*csvsource.File, error)
}

func (m *mockSource) Open(ctx context.Context, ref string) (*csvsource.File, error) {
	return m.OpenFn(ctx, ref)
}

const statementCSV = "date,description,amount\n2024-03-01,Coffee,120\n2024-03-02,Books,800\n"

func TestGetTransactions_SortAndFilter(t *testing.T) {
	sess := testSession(t, seededCollaborator())
	h := NewTransactionHandler(nil)

	c, rec := newSessionContext(http.MethodGet, "/api/v1/transactions?sort=date_desc", "", sess)
	require.NoError(t, h.GetTransactions(c))

	var txns []domain.Transaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &txns))
	require.Len(t, txns, 4)
	assert.Equal(t, []int64{13, 12, 10, 11}, transactionIDs(txns))

	id := int64(1)
	require.NoError(t, sess.ViewModel.SelectAccount(&id))

	c, rec = newSessionContext(http.MethodGet, "/api/v1/transactions?sort=date_asc", "", sess)
	require.NoError(t, h.GetTransactions(c))

	txns = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &txns))
	assert.Equal(t, []int64{11, 10}, transactionIDs(txns))
}

func TestGetTransactions_InvalidSort(t *testing.T) {
	sess := testSession(t, seededCollaborator())
	h := NewTransactionHandler(nil)

	c, rec := newSessionContext(http.MethodGet, "/api/v1/transactions?sort=amount", "", sess)
	require.NoError(t, h.GetTransactions(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func transactionIDs(txns []domain.Transaction) []int64 {
	out := make([]int64, 0, len(txns))
	for _, t := range txns {
		out = append(out, t.ID)
	}
	return out
}

func TestCreateTransaction_Success(t *testing.T) {
	sess := testSession(t, seededCollaborator())
	h := NewTransactionHandler(nil)

	body := `{"account_id": 1, "merchant": "Amazon", "amount": "999", "currency": "INR", "txn_type": "debit", "txn_date": "2024-03-09"}`
	c, rec := newSessionContext(http.MethodPost, "/api/v1/transactions", body, sess)
	require.NoError(t, h.CreateTransaction(c))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, sess.ViewModel.FilteredTransactions(), 5)
}

func TestCreateTransaction_RejectsZeroAmount(t *testing.T) {
	collab := seededCollaborator()
	sess := testSession(t, collab)
	h := NewTransactionHandler(nil)

	body := `{"account_id": 1, "amount": "0", "currency": "INR", "txn_type": "debit", "txn_date": "2024-03-09"}`
	c, rec := newSessionContext(http.MethodPost, "/api/v1/transactions", body, sess)
	require.NoError(t, h.CreateTransaction(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, collab.CallCount("CreateTransaction"))
}

func TestCreateTransfer(t *testing.T) {
	collab := seededCollaborator()
	collab.CreateTransferFn = func(ctx context.Context, input domain.CreateTransferInput) (*domain.Transfer, error) {
		return &domain.Transfer{
			ID: 77, FromAccountID: input.FromAccountID, ToAccountID: input.ToAccountID,
			Amount: input.Amount, Currency: "INR", Status: "SUCCESS",
			BudgetAlert: "Food budget exceeded",
		}, nil
	}
	sess := testSession(t, collab)
	h := NewTransactionHandler(nil)

	body := `{"from_account_id": 1, "to_account_id": 2, "amount": 2500}`
	c, rec := newSessionContext(http.MethodPost, "/api/v1/transactions/transfer", body, sess)
	require.NoError(t, h.CreateTransfer(c))

	require.Equal(t, http.StatusCreated, rec.Code)
	var transfer domain.Transfer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &transfer))
	assert.Equal(t, int64(77), transfer.ID)
	assert.Equal(t, "Food budget exceeded", transfer.BudgetAlert)
	assert.Equal(t, 2, collab.CallCount("DashboardOverview"), "transfer reloads the dashboard")
}

func TestCreateTransfer_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		status   int
		errType  string
		wantCall bool
	}{
		{"same account", `{"from_account_id": 1, "to_account_id": 1, "amount": 10}`, http.StatusBadRequest, ErrorTypeValidation, false},
		{"zero amount", `{"from_account_id": 1, "to_account_id": 2, "amount": 0}`, http.StatusBadRequest, ErrorTypeValidation, false},
		{"missing source", `{"to_account_id": 2, "amount": 10}`, http.StatusBadRequest, ErrorTypeValidation, false},
		{"unknown account", `{"from_account_id": 1, "to_account_id": 9, "amount": 10}`, http.StatusNotFound, ErrorTypeNotFound, true},
		{"insufficient balance", `{"from_account_id": 2, "to_account_id": 1, "amount": 999999}`, http.StatusBadRequest, ErrorTypeValidation, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			collab := seededCollaborator()
			sess := testSession(t, collab)
			h := NewTransactionHandler(nil)

			c, rec := newSessionContext(http.MethodPost, "/api/v1/transactions/transfer", tt.body, sess)
			require.NoError(t, h.CreateTransfer(c))

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.errType, decodeProblem(t, rec).Type)
			assert.Equal(t, tt.wantCall, collab.CallCount("CreateTransfer") == 1)
		})
	}
}

func TestUpdateCategory(t *testing.T) {
	sess := testSession(t, seededCollaborator())
	h := NewTransactionHandler(nil)

	c, rec := newSessionContext(http.MethodPut, "/api/v1/transactions/13/category", `{"category": "Food"}`, sess)
	c.SetParamNames("id")
	c.SetParamValues("13")
	require.NoError(t, h.UpdateCategory(c))

	require.Equal(t, http.StatusOK, rec.Code)
	var txn domain.Transaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &txn))
	assert.Equal(t, "Food", txn.DisplayCategory())
}

func TestUpdateCategory_AuthFailureFlagsLogin(t *testing.T) {
	collab := seededCollaborator()
	sess := testSession(t, collab)
	h := NewTransactionHandler(nil)

	collab.UpdateTransactionCategoryFn = func(ctx context.Context, id int64, category string) (*domain.Transaction, error) {
		return nil, &domain.APIError{Kind: domain.ErrAuth, Status: 401}
	}

	c, rec := newSessionContext(http.MethodPut, "/api/v1/transactions/13/category", `{"category": "Food"}`, sess)
	c.SetParamNames("id")
	c.SetParamValues("13")
	require.NoError(t, h.UpdateCategory(c))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.True(t, sess.ViewModel.NeedsLogin())
}

func TestDeleteTransaction(t *testing.T) {
	sess := testSession(t, seededCollaborator())
	h := NewTransactionHandler(nil)

	c, rec := newSessionContext(http.MethodDelete, "/api/v1/transactions/10", "", sess)
	c.SetParamNames("id")
	c.SetParamValues("10")
	require.NoError(t, h.DeleteTransaction(c))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Len(t, sess.ViewModel.FilteredTransactions(), 3)
}

func TestUploadCSV_Success(t *testing.T) {
	collab := seededCollaborator()
	sess := testSession(t, collab)
	h := NewTransactionHandler(nil)

	body, contentType := createMultipartForm("file", "march.csv", []byte(statementCSV))
	c, rec := newSessionContext(http.MethodPost, "/api/v1/transactions/upload-csv/1", "", sess)
	c.Request().Body = io.NopCloser(body)
	c.Request().Header.Set(echo.HeaderContentType, contentType)
	c.SetParamNames("accountId")
	c.SetParamValues("1")

	require.NoError(t, h.UploadCSV(c))

	require.Equal(t, http.StatusCreated, rec.Code)
	var result domain.CSVImportResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 2, result.TransactionsCreated)
	assert.Equal(t, 1, collab.CallCount("UploadCSV"))
}

func TestUploadCSV_NoFile(t *testing.T) {
	sess := testSession(t, seededCollaborator())
	h := NewTransactionHandler(nil)

	c, rec := newSessionContext(http.MethodPost, "/api/v1/transactions/upload-csv/1", "", sess)
	c.SetParamNames("accountId")
	c.SetParamValues("1")

	require.NoError(t, h.UploadCSV(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No file provided", decodeProblem(t, rec).Detail)
}

func TestUploadCSV_WrongExtension(t *testing.T) {
	collab := seededCollaborator()
	sess := testSession(t, collab)
	h := NewTransactionHandler(nil)

	body, contentType := createMultipartForm("file", "march.xlsx", []byte(statementCSV))
	c, rec := newSessionContext(http.MethodPost, "/api/v1/transactions/upload-csv/1", "", sess)
	c.Request().Body = io.NopCloser(body)
	c.Request().Header.Set(echo.HeaderContentType, contentType)
	c.SetParamNames("accountId")
	c.SetParamValues("1")

	require.NoError(t, h.UploadCSV(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, collab.CallCount("UploadCSV"))
}

func TestImportFromStorage(t *testing.T) {
	collab := seededCollaborator()
	sess := testSession(t, collab)

	var opened string
	source := &mockSource{OpenFn: func(ctx context.Context, ref string) (*csvsource.File, error) {
		opened = ref
		return &csvsource.File{
			Name: "march.csv",
			Size: int64(len(statementCSV)),
			Body: io.NopCloser(strings.NewReader(statementCSV)),
		}, nil
	}}
	h := NewTransactionHandler(source)

	c, rec := newSessionContext(http.MethodPost, "/api/v1/transactions/import/2", `{"source": "s3://statements/2024/march.csv"}`, sess)
	c.SetParamNames("accountId")
	c.SetParamValues("2")

	require.NoError(t, h.ImportFromStorage(c))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "s3://statements/2024/march.csv", opened)
}

func TestImportFromStorage_Errors(t *testing.T) {
	failing := &mockSource{OpenFn: func(ctx context.Context, ref string) (*csvsource.File, error) {
		if strings.HasPrefix(ref, "s3://other/") {
			return nil, fmt.Errorf("%w: other", csvsource.ErrBucketNotAllowed)
		}
		return nil, errors.New("NoSuchKey")
	}}

	tests := []struct {
		name       string
		source     csvsource.Source
		body       string
		wantStatus int
	}{
		{"storage not configured", nil, `{"source": "s3://b/k.csv"}`, http.StatusServiceUnavailable},
		{"local path rejected", failing, `{"source": "/etc/passwd"}`, http.StatusBadRequest},
		{"missing object", failing, `{"source": "s3://b/missing.csv"}`, http.StatusNotFound},
		{"foreign bucket", failing, `{"source": "s3://other/k.csv"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := testSession(t, seededCollaborator())
			h := NewTransactionHandler(tt.source)

			c, rec := newSessionContext(http.MethodPost, "/api/v1/transactions/import/1", tt.body, sess)
			c.SetParamNames("accountId")
			c.SetParamValues("1")

			require.NoError(t, h.ImportFromStorage(c))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
