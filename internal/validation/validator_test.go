package validation

import (
	"errors"
	"testing"

	"github.com/dafibh/fortuna/fortuna-dashboard/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldNames(t *testing.T, err error) []string {
	t.Helper()
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr), "expected *domain.ValidationError, got %v", err)
	names := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		names = append(names, f.Field)
	}
	return names
}

func TestValidate_CreateAccount(t *testing.T) {
	valid := domain.CreateAccountInput{
		BankName:      "HDFC Bank",
		AccountType:   "savings",
		MaskedAccount: "****1234",
		Currency:      "INR",
		Balance:       decimal.NewFromInt(5000),
	}
	assert.NoError(t, Validate(valid))

	invalid := valid
	invalid.BankName = ""
	invalid.Currency = "rupees"
	invalid.AccountType = "brokerage"
	invalid.Balance = decimal.NewFromInt(-1)

	err := Validate(invalid)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
	assert.ElementsMatch(t, []string{"bank_name", "account_type", "currency", "balance"}, fieldNames(t, err))
}

func TestValidate_CurrencyMustBeUpperISO(t *testing.T) {
	input := domain.CreateAccountInput{
		BankName:    "SBI",
		AccountType: "checking",
		Currency:    "inr",
	}
	assert.Equal(t, []string{"currency"}, fieldNames(t, Validate(input)))
}

func TestValidate_CreateBudget(t *testing.T) {
	tests := []struct {
		name   string
		input  domain.CreateBudgetInput
		fields []string
	}{
		{
			name:  "valid",
			input: domain.CreateBudgetInput{Category: "Food", Month: 3, Year: 2024, LimitAmount: decimal.NewFromInt(1000)},
		},
		{
			name:   "zero limit",
			input:  domain.CreateBudgetInput{Category: "Food", Month: 3, Year: 2024, LimitAmount: decimal.Zero},
			fields: []string{"limit_amount"},
		},
		{
			name:   "negative limit",
			input:  domain.CreateBudgetInput{Category: "Food", Month: 3, Year: 2024, LimitAmount: decimal.NewFromInt(-5)},
			fields: []string{"limit_amount"},
		},
		{
			name:   "bad month and missing category",
			input:  domain.CreateBudgetInput{Month: 13, Year: 2024, LimitAmount: decimal.NewFromInt(10)},
			fields: []string{"category", "month"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.input)
			if tt.fields == nil {
				assert.NoError(t, err)
				return
			}
			assert.ElementsMatch(t, tt.fields, fieldNames(t, err))
		})
	}
}

func TestValidate_CreateTransaction(t *testing.T) {
	input := domain.CreateTransactionInput{
		AccountID: 1,
		Amount:    decimal.NewFromFloat(99.5),
		Currency:  "INR",
		TxnType:   "CREDIT",
		TxnDate:   "2024-03-05T10:00",
	}
	assert.NoError(t, Validate(input))

	input.TxnType = "refund"
	input.Amount = decimal.Zero
	assert.ElementsMatch(t, []string{"txn_type", "amount"}, fieldNames(t, Validate(input)))
}

func TestValidate_Bill(t *testing.T) {
	input := domain.CreateBillInput{BillerName: "Electricity", AmountDue: decimal.NewFromInt(1200), DueDate: "2024-04-10"}
	assert.NoError(t, Validate(input))

	input.DueDate = "next friday"
	assert.Equal(t, []string{"due_date"}, fieldNames(t, Validate(input)))
}

func TestCategoryRule_RequiresKeywordOrMerchant(t *testing.T) {
	err := CategoryRule(domain.CategoryRuleInput{CategoryName: "Food", Keywords: []string{" "}})
	assert.Equal(t, []string{"keywords"}, fieldNames(t, err))

	assert.NoError(t, CategoryRule(domain.CategoryRuleInput{CategoryName: "Food", Merchants: []string{"Zomato"}}))
	assert.Equal(t, []string{"category_name"}, fieldNames(t, CategoryRule(domain.CategoryRuleInput{Keywords: []string{"x"}})))
}

func TestCSVFile(t *testing.T) {
	assert.NoError(t, CSVFile("statement.CSV", 120))
	assert.NoError(t, CSVFile("statement.csv", -1))
	assert.Error(t, CSVFile("", 10))
	assert.Error(t, CSVFile("statement.pdf", 10))
	assert.Error(t, CSVFile("statement.csv", 0))
}
