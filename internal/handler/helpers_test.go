package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dafibh/fortuna/fortuna-dashboard/internal/domain"
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/middleware"
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/session"
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/testutil"
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/viewmodel"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

// seededCollaborator holds two accounts, four transactions and two budgets
func seededCollaborator() *testutil.MockCollaborator {
	m := testutil.NewMockCollaborator()
	m.Accounts = []domain.Account{
		testutil.NewAccount(1, "HDFC", 50000),
		testutil.NewAccount(2, "ICICI", 12000),
	}
	m.Transactions = []domain.Transaction{
		testutil.NewTransaction(10, 1, domain.TxnTypeDebit, "450", "Swiggy", "Food", 3),
		testutil.NewTransaction(11, 1, domain.TxnTypeCredit, "80000", "Acme Corp", "Salary", 1),
		testutil.NewTransaction(12, 2, domain.TxnTypeDebit, "1200", "Uber", "Transport", 5),
		testutil.NewTransaction(13, 2, domain.TxnTypeDebit, "300", "Zomato", "", 7),
	}
	m.Budgets = []domain.Budget{
		testutil.NewBudget(20, "Food", "1000", "1200"),
		testutil.NewBudget(21, "Transport", "1000", "400"),
	}
	return m
}

// testSession builds a loaded session over collab
func testSession(t *testing.T, collab *testutil.MockCollaborator) *session.Session {
	t.Helper()
	vm := viewmodel.New(collab)
	_, err := vm.Load(context.Background())
	require.NoError(t, err)
	return &session.Session{ID: uuid.New(), ViewModel: vm}
}

// newSessionContext creates an echo context carrying sess, as the auth middleware would
func newSessionContext(method, target, body string, sess *session.Session) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if sess != nil {
		setSessionInContext(c, sess)
	}
	return c, rec
}

func setSessionInContext(c echo.Context, sess *session.Session) {
	ctx := context.WithValue(c.Request().Context(), middleware.SessionKey, sess)
	ctx = context.WithValue(ctx, middleware.SessionIDKey, sess.ID)
	c.SetRequest(c.Request().WithContext(ctx))
}

// createMultipartForm creates a multipart form with file data
func createMultipartForm(fieldName, filename string, data []byte) (*bytes.Buffer, string) {
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)

	part, _ := writer.CreateFormFile(fieldName, filename)
	part.Write(data)

	writer.Close()
	return body, writer.FormDataContentType()
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) ProblemDetails {
	t.Helper()
	var pd ProblemDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pd))
	return pd
}
