package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"testing"
	"time"

	"github.com/dafibh/fortuna/fortuna-dashboard/internal/config"
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/domain"
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/session"
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/viewmodel"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, session.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "7",
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Type: session.TokenTypeAccess,
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func testConfig(token string) *config.Config {
	return &config.Config{
		APIBaseURL:         "http://127.0.0.1:1",
		RequestTimeout:     time.Second,
		DashboardToken:     token,
		RateLimitPerMinute: 60,
		RateLimitBurst:     5,
	}
}

func parsedLoginFlags(t *testing.T, args ...string) loginFlags {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	lf := addLoginFlags(fs)
	require.NoError(t, fs.Parse(args))
	return lf
}

func TestCredential_FromDashboardToken(t *testing.T) {
	cfg := testConfig(signToken(t, time.Now().Add(time.Hour)))
	lf := parsedLoginFlags(t)

	cred, err := lf.credential(context.Background(), cfg, newClient(cfg))
	require.NoError(t, err)
	assert.Equal(t, "7", cred.Subject)
	assert.Equal(t, cfg.DashboardToken, cred.Token)
}

func TestCredential_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  string
	}{
		{"missing", "", "not logged in"},
		{"garbage", "not-a-jwt", "DASHBOARD_TOKEN"},
		{"expired", signToken(t, time.Now().Add(-time.Minute)), "expired"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(tt.token)
			_, err := parsedLoginFlags(t).credential(context.Background(), cfg, newClient(cfg))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLogin_ValidatesBeforeCallingAPI(t *testing.T) {
	cfg := testConfig("")
	_, err := login(context.Background(), newClient(cfg), "not-an-email", "pw")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestStaleOnly(t *testing.T) {
	assert.True(t, staleOnly(&viewmodel.ReloadError{Err: domain.ErrNetwork}))
	assert.False(t, staleOnly(errors.New("boom")))
}

func TestPrintRules(t *testing.T) {
	var buf bytes.Buffer
	printRules(&buf, []domain.CategoryRule{
		{ID: 1, CategoryName: "Food", Keywords: domain.KeywordList{"swiggy", "zomato"}},
		{ID: 2, CategoryName: "Gym", IsCustom: true},
	})

	out := buf.String()
	assert.Contains(t, out, "Food")
	assert.Contains(t, out, "swiggy, zomato")
	assert.Contains(t, out, "yes")

	buf.Reset()
	printRules(&buf, nil)
	assert.Equal(t, "No matching rules.\n", buf.String())
}

func TestCurrencyOf(t *testing.T) {
	assert.Equal(t, domain.DefaultCurrency, currencyOf(nil))
	assert.Equal(t, "USD", currencyOf([]domain.Account{{Currency: ""}, {Currency: "USD"}}))
}

func TestRunTransfer_RejectsBeforeLogin(t *testing.T) {
	cfg := &config.Config{}
	tests := [][]string{
		{"-from", "1", "-to", "1", "-amount", "10"},
		{"-from", "1", "-to", "2", "-amount", "0"},
		{"-to", "2", "-amount", "10"},
	}
	for _, args := range tests {
		err := runTransfer(context.Background(), cfg, args)
		assert.True(t, errors.Is(err, domain.ErrValidation), "%v: %v", args, err)
	}

	err := runTransfer(context.Background(), cfg, []string{"-from", "1", "-to", "2", "-amount", "ten"})
	assert.EqualError(t, err, `-amount: "ten" is not a number`)
}

func TestPrintTransfer(t *testing.T) {
	var buf bytes.Buffer
	accounts := []domain.Account{
		{ID: 1, BankName: "HDFC", Currency: "INR", Balance: decimal.NewFromInt(47500)},
		{ID: 2, BankName: "ICICI", Currency: "INR", Balance: decimal.NewFromInt(14500)},
		{ID: 3, BankName: "Axis", Currency: "INR"},
	}
	printTransfer(&buf, &domain.Transfer{
		FromAccountID: 1, ToAccountID: 2, Amount: decimal.NewFromInt(2500),
		Currency: "INR", Status: "SUCCESS", BudgetAlert: "Food budget exceeded",
	}, accounts)

	out := buf.String()
	assert.Contains(t, out, "from account 1 to account 2 (SUCCESS)")
	assert.Contains(t, out, "Food budget exceeded")
	assert.Contains(t, out, "ICICI")
	assert.NotContains(t, out, "Axis")
}
