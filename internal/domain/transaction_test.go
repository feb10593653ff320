package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestTransaction_DisplayCategory(t *testing.T) {
	tests := []struct {
		name     string
		category *string
		expected string
	}{
		{"nil category", nil, "Others"},
		{"blank category", strPtr("   "), "Others"},
		{"set category", strPtr("Food"), "Food"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := Transaction{Category: tt.category}
			assert.Equal(t, tt.expected, txn.DisplayCategory())
		})
	}
}

func TestTransaction_SignedAmount_UsesTypeNotAmountSign(t *testing.T) {
	debit := Transaction{Amount: decimal.NewFromInt(250), TxnType: TxnTypeDebit}
	assert.True(t, debit.SignedAmount().Equal(decimal.NewFromInt(-250)))

	// A negative magnitude from a legacy path must not flip a credit into an expense
	credit := Transaction{Amount: decimal.NewFromInt(-100), TxnType: TxnTypeCredit}
	assert.True(t, credit.SignedAmount().Equal(decimal.NewFromInt(100)))
}

func TestTransaction_UnmarshalJSON(t *testing.T) {
	payload := `{
		"id": 7,
		"account_id": 3,
		"amount": 120.5,
		"currency": "INR",
		"txn_type": "DEBIT",
		"category": null,
		"merchant": "Starbucks",
		"description": "Coffee",
		"txn_date": "2024-03-05T09:30:00"
	}`

	var txn Transaction
	require.NoError(t, json.Unmarshal([]byte(payload), &txn))

	assert.Equal(t, int64(7), txn.ID)
	assert.Equal(t, TxnTypeDebit, txn.TxnType)
	assert.True(t, txn.Amount.Equal(decimal.RequireFromString("120.5")))
	assert.Nil(t, txn.Category)
	assert.Equal(t, "Starbucks", *txn.Merchant)
	assert.True(t, time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC).Equal(txn.TxnDate.Time))
	assert.Nil(t, txn.PostedDate)
}

func TestParseTimestamp_Layouts(t *testing.T) {
	inputs := []string{
		"2024-03-05T09:30:00Z",
		"2024-03-05T09:30:00.123456",
		"2024-03-05T09:30",
		"2024-03-05",
	}
	for _, in := range inputs {
		ts, err := ParseTimestamp(in)
		require.NoError(t, err, in)
		assert.Equal(t, 2024, ts.Year())
		assert.Equal(t, time.March, ts.Month())
	}

	_, err := ParseTimestamp("05/03/2024")
	assert.Error(t, err)
}

func TestTimestamp_NullAndMarshal(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte("null"), &ts))
	assert.True(t, ts.IsZero())

	out, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))

	ts = NewTimestamp(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	out, err = json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, `"2024-01-02T03:04:05Z"`, string(out))
}

func TestParseAccountType(t *testing.T) {
	tests := []struct {
		in       string
		expected AccountType
		ok       bool
	}{
		{"savings", AccountTypeSavings, true},
		{"Current", AccountTypeChecking, true},
		{" credit_card ", AccountTypeCreditCard, true},
		{"brokerage", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseAccountType(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.expected, got, tt.in)
	}
}
