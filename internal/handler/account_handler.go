package handler

import (
	"net/http"

	"github.com/dafibh/fortuna/fortuna-dashboard/internal/domain"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// AccountHandler handles account mutations for the session's dashboard
type AccountHandler struct{}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler() *AccountHandler {
	return &AccountHandler{}
}

// GetAccounts godoc
// @Summary List accounts
// @Description Returns the accounts of the cached snapshot
// @Tags accounts
// @Produce json
// @Security SessionAuth
// @Success 200 {array} domain.Account
// @Failure 401 {object} ProblemDetails
// @Router /accounts [get]
func (h *AccountHandler) GetAccounts(c echo.Context) error {
	vm := viewModelFrom(c)
	if vm == nil {
		return NewUnauthorizedError(c, "Session required")
	}
	accounts := vm.Accounts()
	if accounts == nil {
		accounts = []domain.Account{}
	}
	return c.JSON(http.StatusOK, accounts)
}

// CreateAccount godoc
// @Summary Create account
// @Tags accounts
// @Accept json
// @Produce json
// @Security SessionAuth
// @Param request body domain.CreateAccountInput true "Account"
// @Success 201 {object} domain.Account
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 502 {object} ProblemDetails
// @Router /accounts [post]
func (h *AccountHandler) CreateAccount(c echo.Context) error {
	vm := viewModelFrom(c)
	if vm == nil {
		return NewUnauthorizedError(c, "Session required")
	}

	var input domain.CreateAccountInput
	if err := c.Bind(&input); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	account, err := vm.CreateAccount(c.Request().Context(), input)
	if err != nil && !reloadFailed(c, err) {
		return respondError(c, err, "create account")
	}

	log.Info().Int64("account_id", account.ID).Str("bank_name", account.BankName).Msg("Account created")
	return c.JSON(http.StatusCreated, account)
}

// UpdateAccount godoc
// @Summary Update account
// @Tags accounts
// @Accept json
// @Produce json
// @Security SessionAuth
// @Param id path int true "Account ID"
// @Param request body domain.UpdateAccountInput true "Account"
// @Success 200 {object} domain.Account
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /accounts/{id} [put]
func (h *AccountHandler) UpdateAccount(c echo.Context) error {
	vm := viewModelFrom(c)
	if vm == nil {
		return NewUnauthorizedError(c, "Session required")
	}

	id, ok := parseID(c)
	if !ok {
		return invalidIDError(c)
	}

	var input domain.UpdateAccountInput
	if err := c.Bind(&input); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	account, err := vm.UpdateAccount(c.Request().Context(), id, input)
	if err != nil && !reloadFailed(c, err) {
		return respondError(c, err, "update account")
	}
	return c.JSON(http.StatusOK, account)
}

// DeleteAccount godoc
// @Summary Delete account
// @Description Deletes the account and its transactions. A selected account returns the view to the dashboard.
// @Tags accounts
// @Security SessionAuth
// @Param id path int true "Account ID"
// @Success 204
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /accounts/{id} [delete]
func (h *AccountHandler) DeleteAccount(c echo.Context) error {
	vm := viewModelFrom(c)
	if vm == nil {
		return NewUnauthorizedError(c, "Session required")
	}

	id, ok := parseID(c)
	if !ok {
		return invalidIDError(c)
	}

	if err := vm.DeleteAccount(c.Request().Context(), id); err != nil && !reloadFailed(c, err) {
		return respondError(c, err, "delete account")
	}

	log.Info().Int64("account_id", id).Msg("Account deleted")
	return c.NoContent(http.StatusNoContent)
}
