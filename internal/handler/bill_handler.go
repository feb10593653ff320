package handler

import (
	"net/http"

	"github.com/dafibh/fortuna/fortuna-dashboard/internal/domain"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// BillHandler handles upcoming bills
type BillHandler struct{}

// NewBillHandler creates a new BillHandler
func NewBillHandler() *BillHandler {
	return &BillHandler{}
}

// GetBills godoc
// @Summary List bills
// @Tags bills
// @Produce json
// @Security SessionAuth
// @Param status query string false "upcoming, paid or overdue"
// @Success 200 {array} domain.Bill
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /bills [get]
func (h *BillHandler) GetBills(c echo.Context) error {
	vm := viewModelFrom(c)
	if vm == nil {
		return NewUnauthorizedError(c, "Session required")
	}

	status := domain.BillStatus(c.QueryParam("status"))
	if status != "" && !status.Valid() {
		return NewValidationError(c, "Invalid status", []ValidationError{
			{Field: "status", Message: "must be upcoming, paid or overdue"},
		})
	}

	bills, err := vm.Bills(c.Request().Context())
	if err != nil {
		return respondError(c, err, "get bills")
	}

	out := make([]domain.Bill, 0, len(bills))
	for _, b := range bills {
		if status == "" || b.Status == status {
			out = append(out, b)
		}
	}
	return c.JSON(http.StatusOK, out)
}

// CreateBill godoc
// @Summary Create bill
// @Tags bills
// @Accept json
// @Produce json
// @Security SessionAuth
// @Param request body domain.CreateBillInput true "Bill"
// @Success 201 {object} domain.Bill
// @Failure 400 {object} ProblemDetails
// @Router /bills [post]
func (h *BillHandler) CreateBill(c echo.Context) error {
	vm := viewModelFrom(c)
	if vm == nil {
		return NewUnauthorizedError(c, "Session required")
	}

	var input domain.CreateBillInput
	if err := c.Bind(&input); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	bill, err := vm.CreateBill(c.Request().Context(), input)
	if err != nil && !reloadFailed(c, err) {
		return respondError(c, err, "create bill")
	}

	log.Info().Int64("bill_id", bill.ID).Str("biller", bill.BillerName).Msg("Bill created")
	return c.JSON(http.StatusCreated, bill)
}
