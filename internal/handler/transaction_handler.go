package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/dafibh/fortuna/fortuna-dashboard/internal/csvsource"
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/domain"
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/viewmodel"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// TransactionHandler handles transaction listing, edits and CSV imports
type TransactionHandler struct {
	statements csvsource.Source // nil when remote statement storage is not configured
}

// NewTransactionHandler creates a new TransactionHandler. statements may be nil.
func NewTransactionHandler(statements csvsource.Source) *TransactionHandler {
	return &TransactionHandler{statements: statements}
}

// UpdateCategoryRequest recategorises one transaction
type UpdateCategoryRequest struct {
	Category string `json:"category"`
}

// ImportFromStorageRequest names a statement object in remote storage
type ImportFromStorageRequest struct {
	Source string `json:"source"` // s3://bucket/key.csv
}

// GetTransactions godoc
// @Summary List transactions
// @Description Returns the cached transactions filtered by the selected account and search term
// @Tags transactions
// @Produce json
// @Security SessionAuth
// @Param sort query string false "date_asc or date_desc; server order when omitted"
// @Success 200 {array} domain.Transaction
// @Failure 401 {object} ProblemDetails
// @Router /transactions [get]
func (h *TransactionHandler) GetTransactions(c echo.Context) error {
	vm := viewModelFrom(c)
	if vm == nil {
		return NewUnauthorizedError(c, "Session required")
	}

	txns := vm.FilteredTransactions()
	switch c.QueryParam("sort") {
	case "":
	case "date_asc":
		txns = viewmodel.SortedByDate(txns, false)
	case "date_desc":
		txns = viewmodel.SortedByDate(txns, true)
	default:
		return NewValidationError(c, "Invalid sort", []ValidationError{
			{Field: "sort", Message: "must be date_asc or date_desc"},
		})
	}
	return c.JSON(http.StatusOK, txns)
}

// CreateTransaction godoc
// @Summary Create transaction
// @Description Records a manual transaction. An empty category lets the finance API auto-categorise it.
// @Tags transactions
// @Accept json
// @Produce json
// @Security SessionAuth
// @Param request body domain.CreateTransactionInput true "Transaction"
// @Success 201 {object} domain.Transaction
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /transactions [post]
func (h *TransactionHandler) CreateTransaction(c echo.Context) error {
	vm := viewModelFrom(c)
	if vm == nil {
		return NewUnauthorizedError(c, "Session required")
	}

	var input domain.CreateTransactionInput
	if err := c.Bind(&input); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	txn, err := vm.CreateTransaction(c.Request().Context(), input)
	if err != nil && !reloadFailed(c, err) {
		return respondError(c, err, "create transaction")
	}

	log.Info().Int64("transaction_id", txn.ID).Int64("account_id", txn.AccountID).Msg("Transaction created")
	return c.JSON(http.StatusCreated, txn)
}

// CreateTransfer godoc
// @Summary Transfer between accounts
// @Description Moves money from one account to another. budget_alert is set when the transfer pushed a budget over its limit.
// @Tags transactions
// @Accept json
// @Produce json
// @Security SessionAuth
// @Param request body domain.CreateTransferInput true "Transfer"
// @Success 201 {object} domain.Transfer
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /transactions/transfer [post]
func (h *TransactionHandler) CreateTransfer(c echo.Context) error {
	vm := viewModelFrom(c)
	if vm == nil {
		return NewUnauthorizedError(c, "Session required")
	}

	var input domain.CreateTransferInput
	if err := c.Bind(&input); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	transfer, err := vm.CreateTransfer(c.Request().Context(), input)
	if err != nil && !reloadFailed(c, err) {
		return respondError(c, err, "transfer money")
	}

	log.Info().
		Int64("transfer_id", transfer.ID).
		Int64("from_account_id", transfer.FromAccountID).
		Int64("to_account_id", transfer.ToAccountID).
		Msg("Transfer created")
	return c.JSON(http.StatusCreated, transfer)
}

// UpdateTransaction godoc
// @Summary Update transaction
// @Tags transactions
// @Accept json
// @Produce json
// @Security SessionAuth
// @Param id path int true "Transaction ID"
// @Param request body domain.UpdateTransactionInput true "Transaction"
// @Success 200 {object} domain.Transaction
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c echo.Context) error {
	vm := viewModelFrom(c)
	if vm == nil {
		return NewUnauthorizedError(c, "Session required")
	}

	id, ok := parseID(c)
	if !ok {
		return invalidIDError(c)
	}

	var input domain.UpdateTransactionInput
	if err := c.Bind(&input); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	txn, err := vm.UpdateTransaction(c.Request().Context(), id, input)
	if err != nil && !reloadFailed(c, err) {
		return respondError(c, err, "update transaction")
	}
	return c.JSON(http.StatusOK, txn)
}

// UpdateCategory godoc
// @Summary Recategorise transaction
// @Tags transactions
// @Accept json
// @Produce json
// @Security SessionAuth
// @Param id path int true "Transaction ID"
// @Param request body UpdateCategoryRequest true "Category"
// @Success 200 {object} domain.Transaction
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /transactions/{id}/category [put]
func (h *TransactionHandler) UpdateCategory(c echo.Context) error {
	vm := viewModelFrom(c)
	if vm == nil {
		return NewUnauthorizedError(c, "Session required")
	}

	id, ok := parseID(c)
	if !ok {
		return invalidIDError(c)
	}

	var req UpdateCategoryRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	txn, err := vm.UpdateTransactionCategory(c.Request().Context(), id, req.Category)
	if err != nil && !reloadFailed(c, err) {
		return respondError(c, err, "update category")
	}
	return c.JSON(http.StatusOK, txn)
}

// DeleteTransaction godoc
// @Summary Delete transaction
// @Tags transactions
// @Security SessionAuth
// @Param id path int true "Transaction ID"
// @Success 204
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c echo.Context) error {
	vm := viewModelFrom(c)
	if vm == nil {
		return NewUnauthorizedError(c, "Session required")
	}

	id, ok := parseID(c)
	if !ok {
		return invalidIDError(c)
	}

	if err := vm.DeleteTransaction(c.Request().Context(), id); err != nil && !reloadFailed(c, err) {
		return respondError(c, err, "delete transaction")
	}
	return c.NoContent(http.StatusNoContent)
}

// UploadCSV godoc
// @Summary Import a CSV statement
// @Description Uploads a bank statement into an account. Rows the finance API rejects are listed in errors.
// @Tags transactions
// @Accept multipart/form-data
// @Produce json
// @Security SessionAuth
// @Param accountId path int true "Account ID"
// @Param file formData file true "CSV statement"
// @Success 201 {object} domain.CSVImportResult
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /transactions/upload-csv/{accountId} [post]
func (h *TransactionHandler) UploadCSV(c echo.Context) error {
	vm := viewModelFrom(c)
	if vm == nil {
		return NewUnauthorizedError(c, "Session required")
	}

	accountID, ok := parseAccountID(c)
	if !ok {
		return invalidAccountIDError(c)
	}

	file, err := c.FormFile("file")
	if err != nil {
		return NewValidationError(c, "No file provided", []ValidationError{
			{Field: "file", Message: "File is required"},
		})
	}

	src, err := file.Open()
	if err != nil {
		log.Error().Err(err).Msg("Failed to open uploaded file")
		return NewInternalError(c, "Failed to process file")
	}
	defer src.Close()

	return h.importCSV(c, vm, accountID, file.Filename, file.Size, src)
}

// ImportFromStorage godoc
// @Summary Import a CSV statement from object storage
// @Tags transactions
// @Accept json
// @Produce json
// @Security SessionAuth
// @Param accountId path int true "Account ID"
// @Param request body ImportFromStorageRequest true "Statement location"
// @Success 201 {object} domain.CSVImportResult
// @Failure 400 {object} ProblemDetails
// @Failure 503 {object} ProblemDetails
// @Router /transactions/import/{accountId} [post]
func (h *TransactionHandler) ImportFromStorage(c echo.Context) error {
	vm := viewModelFrom(c)
	if vm == nil {
		return NewUnauthorizedError(c, "Session required")
	}

	if h.statements == nil {
		return NewServiceUnavailableError(c, "Statement imports are disabled (storage not configured)")
	}

	accountID, ok := parseAccountID(c)
	if !ok {
		return invalidAccountIDError(c)
	}

	var req ImportFromStorageRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if !csvsource.IsS3(strings.TrimSpace(req.Source)) {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "source", Message: "must be an s3://bucket/key reference"},
		})
	}

	file, err := h.statements.Open(c.Request().Context(), strings.TrimSpace(req.Source))
	if errors.Is(err, csvsource.ErrBucketNotAllowed) {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "source", Message: "statements must come from the configured bucket"},
		})
	}
	if err != nil {
		log.Warn().Err(err).Str("source", req.Source).Msg("Failed to open statement")
		return NewNotFoundError(c, "Statement could not be opened")
	}
	defer file.Body.Close()

	return h.importCSV(c, vm, accountID, file.Name, file.Size, file.Body)
}

func (h *TransactionHandler) importCSV(c echo.Context, vm *viewmodel.DashboardViewModel, accountID int64, filename string, size int64, r io.Reader) error {
	result, err := vm.ImportCSV(c.Request().Context(), accountID, filename, size, r)
	if err != nil && !reloadFailed(c, err) {
		return respondError(c, err, "import statement")
	}

	log.Info().
		Int64("account_id", accountID).
		Str("filename", filename).
		Int("created", result.TransactionsCreated).
		Int("rejected", len(result.Errors)).
		Msg("Statement imported")

	return c.JSON(http.StatusCreated, result)
}

func parseAccountID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("accountId"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func invalidAccountIDError(c echo.Context) error {
	return NewValidationError(c, "Invalid account ID", []ValidationError{
		{Field: "accountId", Message: "must be a positive integer"},
	})
}
