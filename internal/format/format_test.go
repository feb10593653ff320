package format

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestCurrency(t *testing.T) {
	tests := []struct {
		name     string
		amount   *decimal.Decimal
		code     string
		expected string
	}{
		{"inr lakh grouping", dec("1234567"), "INR", "₹12,34,567.00"},
		{"inr small", dec("999.5"), "INR", "₹999.50"},
		{"inr thousands", dec("45000"), "inr", "₹45,000.00"},
		{"inr crore", dec("123456789.129"), "INR", "₹12,34,56,789.13"},
		{"inr negative", dec("-2500"), "INR", "-₹2,500.00"},
		{"nil renders zero", nil, "INR", "₹0.00"},
		{"empty code defaults to inr", dec("10"), "", "₹10.00"},
		{"usd", dec("1234.5"), "USD", "$1,234.50"},
		{"unknown code", dec("1234.5"), "ZZZ", "ZZZ 1,234.50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Currency(tt.amount, tt.code))
		})
	}
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Credit Card", Label("credit_card"))
	assert.Equal(t, "Savings", Label("savings"))
	assert.Equal(t, "Over Budget", Label(" over budget "))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "40%", Percent(40))
	assert.Equal(t, "100%", Percent(100))
}
