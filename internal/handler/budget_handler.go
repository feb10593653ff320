package handler

import (
	"net/http"

	"github.com/dafibh/fortuna/fortuna-dashboard/internal/domain"
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/viewmodel"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// BudgetHandler serves budget progress and budget creation
type BudgetHandler struct{}

// NewBudgetHandler creates a new BudgetHandler
func NewBudgetHandler() *BudgetHandler {
	return &BudgetHandler{}
}

// BudgetSummaryResponse is every budget with its status plus the banner counts
type BudgetSummaryResponse struct {
	Overview domain.BudgetOverview  `json:"overview"`
	Budgets  []viewmodel.BudgetLine `json:"budgets"`
}

// GetBudgets godoc
// @Summary Budget progress
// @Description Returns each cached budget with its spent percentage and the over-budget count
// @Tags budgets
// @Produce json
// @Security SessionAuth
// @Success 200 {object} BudgetSummaryResponse
// @Failure 401 {object} ProblemDetails
// @Router /budgets [get]
func (h *BudgetHandler) GetBudgets(c echo.Context) error {
	vm := viewModelFrom(c)
	if vm == nil {
		return NewUnauthorizedError(c, "Session required")
	}

	lines, overview := vm.Budgets()
	return c.JSON(http.StatusOK, BudgetSummaryResponse{
		Overview: overview,
		Budgets:  lines,
	})
}

// CreateBudget godoc
// @Summary Create budget
// @Description Sets a monthly limit for a category. One budget per category and month.
// @Tags budgets
// @Accept json
// @Produce json
// @Security SessionAuth
// @Param request body domain.CreateBudgetInput true "Budget"
// @Success 201 {object} domain.Budget
// @Failure 400 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /budgets [post]
func (h *BudgetHandler) CreateBudget(c echo.Context) error {
	vm := viewModelFrom(c)
	if vm == nil {
		return NewUnauthorizedError(c, "Session required")
	}

	var input domain.CreateBudgetInput
	if err := c.Bind(&input); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	budget, err := vm.CreateBudget(c.Request().Context(), input)
	if err != nil && !reloadFailed(c, err) {
		return respondError(c, err, "create budget")
	}

	log.Info().
		Int64("budget_id", budget.ID).
		Str("category", budget.Category).
		Int("year", budget.Year).
		Int("month", budget.Month).
		Msg("Budget created")

	return c.JSON(http.StatusCreated, budget)
}
