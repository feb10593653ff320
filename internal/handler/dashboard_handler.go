package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dafibh/fortuna/fortuna-dashboard/internal/domain"
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/middleware"
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/viewmodel"
	"github.com/labstack/echo/v4"
)

// DashboardHandler serves the session's projection and view intents
type DashboardHandler struct{}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler() *DashboardHandler {
	return &DashboardHandler{}
}

// SelectAccountRequest selects an account; a null id returns to the dashboard
type SelectAccountRequest struct {
	AccountID *int64 `json:"accountId"`
}

// SearchRequest sets the transaction search term
type SearchRequest struct {
	Term string `json:"term"`
}

// viewModelFrom returns the caller's view model, or nil when the request has no session
func viewModelFrom(c echo.Context) *viewmodel.DashboardViewModel {
	if sess := middleware.GetSession(c); sess != nil {
		return sess.ViewModel
	}
	return nil
}

// GetView godoc
// @Summary Current dashboard view
// @Description Returns everything the current screen renders, from the cached snapshot
// @Tags dashboard
// @Produce json
// @Security SessionAuth
// @Success 200 {object} viewmodel.Projection
// @Failure 401 {object} ProblemDetails
// @Router /view [get]
func (h *DashboardHandler) GetView(c echo.Context) error {
	vm := viewModelFrom(c)
	if vm == nil {
		return NewUnauthorizedError(c, "Session required")
	}
	return c.JSON(http.StatusOK, vm.Projection())
}

// Reload godoc
// @Summary Reload the snapshot
// @Description Fetches a fresh snapshot from the finance API. A response overtaken by a newer reload is discarded.
// @Tags dashboard
// @Produce json
// @Security SessionAuth
// @Success 200 {object} viewmodel.Projection
// @Failure 401 {object} ProblemDetails
// @Failure 502 {object} ProblemDetails
// @Router /view/reload [post]
func (h *DashboardHandler) Reload(c echo.Context) error {
	vm := viewModelFrom(c)
	if vm == nil {
		return NewUnauthorizedError(c, "Session required")
	}
	if _, err := vm.Load(c.Request().Context()); err != nil && !errors.Is(err, domain.ErrStaleResponse) {
		return respondError(c, err, "load dashboard")
	}
	return c.JSON(http.StatusOK, vm.Projection())
}

// SelectAccount godoc
// @Summary Select an account
// @Description Opens the account detail view, or returns to the dashboard when accountId is null
// @Tags dashboard
// @Accept json
// @Produce json
// @Security SessionAuth
// @Param request body SelectAccountRequest true "Selection"
// @Success 200 {object} viewmodel.Projection
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /view/select [post]
func (h *DashboardHandler) SelectAccount(c echo.Context) error {
	vm := viewModelFrom(c)
	if vm == nil {
		return NewUnauthorizedError(c, "Session required")
	}

	var req SelectAccountRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if err := vm.SelectAccount(req.AccountID); err != nil {
		return respondError(c, err, "select account")
	}
	return c.JSON(http.StatusOK, vm.Projection())
}

// Search godoc
// @Summary Search transactions
// @Description Filters transactions by merchant or category, case-insensitively
// @Tags dashboard
// @Accept json
// @Produce json
// @Security SessionAuth
// @Param request body SearchRequest true "Search term"
// @Success 200 {object} viewmodel.Projection
// @Failure 401 {object} ProblemDetails
// @Router /view/search [post]
func (h *DashboardHandler) Search(c echo.Context) error {
	vm := viewModelFrom(c)
	if vm == nil {
		return NewUnauthorizedError(c, "Session required")
	}

	var req SearchRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	vm.SetSearchTerm(req.Term)
	return c.JSON(http.StatusOK, vm.Projection())
}

// Back godoc
// @Summary Back to the dashboard
// @Tags dashboard
// @Produce json
// @Security SessionAuth
// @Success 200 {object} viewmodel.Projection
// @Failure 401 {object} ProblemDetails
// @Router /view/back [post]
func (h *DashboardHandler) Back(c echo.Context) error {
	vm := viewModelFrom(c)
	if vm == nil {
		return NewUnauthorizedError(c, "Session required")
	}
	vm.Back()
	return c.JSON(http.StatusOK, vm.Projection())
}

// GetAccountStats godoc
// @Summary Account statistics
// @Description Income, expenses and category breakdown for one account
// @Tags dashboard
// @Produce json
// @Security SessionAuth
// @Param id path int true "Account ID"
// @Success 200 {object} domain.AccountStats
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /accounts/{id}/stats [get]
func (h *DashboardHandler) GetAccountStats(c echo.Context) error {
	vm := viewModelFrom(c)
	if vm == nil {
		return NewUnauthorizedError(c, "Session required")
	}

	id, ok := parseID(c)
	if !ok {
		return invalidIDError(c)
	}
	stats, err := vm.AccountStats(id)
	if err != nil {
		return respondError(c, err, "load account stats")
	}
	return c.JSON(http.StatusOK, stats)
}

// parseID reads a positive :id path parameter
func parseID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func invalidIDError(c echo.Context) error {
	return NewValidationError(c, "Invalid ID", []ValidationError{
		{Field: "id", Message: "must be a positive integer"},
	})
}
