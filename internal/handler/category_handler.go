package handler

import (
	"net/http"

	"github.com/dafibh/fortuna/fortuna-dashboard/internal/domain"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// CategoryHandler handles auto-categorisation rules and custom categories
type CategoryHandler struct{}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler() *CategoryHandler {
	return &CategoryHandler{}
}

func filterRules(rules []domain.CategoryRule, query string) []domain.CategoryRule {
	out := make([]domain.CategoryRule, 0, len(rules))
	for _, r := range rules {
		if r.Matches(query) {
			out = append(out, r)
		}
	}
	return out
}

// GetRules godoc
// @Summary List category rules
// @Tags categories
// @Produce json
// @Security SessionAuth
// @Param q query string false "Matches category name, keywords or merchants"
// @Success 200 {array} domain.CategoryRule
// @Failure 401 {object} ProblemDetails
// @Failure 502 {object} ProblemDetails
// @Router /category-rules [get]
func (h *CategoryHandler) GetRules(c echo.Context) error {
	vm := viewModelFrom(c)
	if vm == nil {
		return NewUnauthorizedError(c, "Session required")
	}

	rules, err := vm.CategoryRules(c.Request().Context())
	if err != nil {
		return respondError(c, err, "get category rules")
	}
	return c.JSON(http.StatusOK, filterRules(rules, c.QueryParam("q")))
}

// CreateRule godoc
// @Summary Create category rule
// @Description Keywords and merchants may be arrays or comma-separated strings
// @Tags categories
// @Accept json
// @Produce json
// @Security SessionAuth
// @Param request body domain.CategoryRuleInput true "Rule"
// @Success 201 {object} domain.CategoryRule
// @Failure 400 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /category-rules [post]
func (h *CategoryHandler) CreateRule(c echo.Context) error {
	vm := viewModelFrom(c)
	if vm == nil {
		return NewUnauthorizedError(c, "Session required")
	}

	input, ok := bindRuleInput(c)
	if !ok {
		return NewValidationError(c, "Invalid request body", nil)
	}

	rule, err := vm.CreateCategoryRule(c.Request().Context(), input)
	if err != nil && !reloadFailed(c, err) {
		return respondError(c, err, "create category rule")
	}

	log.Info().Int64("rule_id", rule.ID).Str("category", rule.CategoryName).Msg("Category rule created")
	return c.JSON(http.StatusCreated, rule)
}

// GetCustomCategories godoc
// @Summary List custom categories
// @Tags categories
// @Produce json
// @Security SessionAuth
// @Success 200 {array} domain.CategoryRule
// @Failure 401 {object} ProblemDetails
// @Router /categories/custom [get]
func (h *CategoryHandler) GetCustomCategories(c echo.Context) error {
	vm := viewModelFrom(c)
	if vm == nil {
		return NewUnauthorizedError(c, "Session required")
	}

	rules, err := vm.CustomCategories(c.Request().Context())
	if err != nil {
		return respondError(c, err, "get custom categories")
	}
	return c.JSON(http.StatusOK, filterRules(rules, c.QueryParam("q")))
}

// CreateCustomCategory godoc
// @Summary Create custom category
// @Tags categories
// @Accept json
// @Produce json
// @Security SessionAuth
// @Param request body domain.CategoryRuleInput true "Category"
// @Success 201 {object} domain.CategoryRule
// @Failure 400 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /categories/custom [post]
func (h *CategoryHandler) CreateCustomCategory(c echo.Context) error {
	vm := viewModelFrom(c)
	if vm == nil {
		return NewUnauthorizedError(c, "Session required")
	}

	input, ok := bindRuleInput(c)
	if !ok {
		return NewValidationError(c, "Invalid request body", nil)
	}

	rule, err := vm.CreateCustomCategory(c.Request().Context(), input)
	if err != nil && !reloadFailed(c, err) {
		return respondError(c, err, "create custom category")
	}
	return c.JSON(http.StatusCreated, rule)
}

// UpdateCustomCategory godoc
// @Summary Update custom category
// @Tags categories
// @Accept json
// @Produce json
// @Security SessionAuth
// @Param id path int true "Category ID"
// @Param request body domain.CategoryRuleInput true "Category"
// @Success 200 {object} domain.CategoryRule
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /categories/custom/{id} [put]
func (h *CategoryHandler) UpdateCustomCategory(c echo.Context) error {
	vm := viewModelFrom(c)
	if vm == nil {
		return NewUnauthorizedError(c, "Session required")
	}

	id, ok := parseID(c)
	if !ok {
		return invalidIDError(c)
	}

	input, ok := bindRuleInput(c)
	if !ok {
		return NewValidationError(c, "Invalid request body", nil)
	}

	rule, err := vm.UpdateCustomCategory(c.Request().Context(), id, input)
	if err != nil && !reloadFailed(c, err) {
		return respondError(c, err, "update custom category")
	}
	return c.JSON(http.StatusOK, rule)
}

// DeleteCustomCategory godoc
// @Summary Delete custom category
// @Tags categories
// @Security SessionAuth
// @Param id path int true "Category ID"
// @Success 204
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /categories/custom/{id} [delete]
func (h *CategoryHandler) DeleteCustomCategory(c echo.Context) error {
	vm := viewModelFrom(c)
	if vm == nil {
		return NewUnauthorizedError(c, "Session required")
	}

	id, ok := parseID(c)
	if !ok {
		return invalidIDError(c)
	}

	if err := vm.DeleteCustomCategory(c.Request().Context(), id); err != nil && !reloadFailed(c, err) {
		return respondError(c, err, "delete custom category")
	}
	return c.NoContent(http.StatusNoContent)
}

// ruleRequest accepts keywords and merchants as arrays or comma-separated strings
type ruleRequest struct {
	CategoryName string             `json:"category_name"`
	Keywords     domain.KeywordList `json:"keywords"`
	Merchants    domain.KeywordList `json:"merchants"`
}

func bindRuleInput(c echo.Context) (domain.CategoryRuleInput, bool) {
	var req ruleRequest
	if err := c.Bind(&req); err != nil {
		return domain.CategoryRuleInput{}, false
	}
	return domain.CategoryRuleInput{
		CategoryName: req.CategoryName,
		Keywords:     []string(req.Keywords),
		Merchants:    []string(req.Merchants),
	}, true
}
