package domain

import "github.com/shopspring/decimal"

type BillStatus string

const (
	BillStatusUpcoming BillStatus = "upcoming"
	BillStatusPaid     BillStatus = "paid"
	BillStatusOverdue  BillStatus = "overdue"
)

// Valid reports whether s is a known bill status
func (s BillStatus) Valid() bool {
	switch s {
	case BillStatusUpcoming, BillStatusPaid, BillStatusOverdue:
		return true
	}
	return false
}

type Bill struct {
	ID         int64           `json:"id"`
	BillerName string          `json:"biller_name"`
	AmountDue  decimal.Decimal `json:"amount_due"`
	DueDate    Timestamp       `json:"due_date"`
	Status     BillStatus      `json:"status"`
}

// CreateBillInput holds the input for a new bill
type CreateBillInput struct {
	BillerName string          `json:"biller_name" validate:"required,max=100"`
	AmountDue  decimal.Decimal `json:"amount_due" validate:"positive_decimal"`
	DueDate    string          `json:"due_date" validate:"required,timestamp"`
}
