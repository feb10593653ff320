package testutil

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/domain"
	"github.com/shopspring/decimal"
)

// MockCollaborator is an in-memory stand-in for the finance API. It keeps
// accounts, transactions, budgets, rules and bills in maps so that a
// mutation followed by a reload behaves like the real server. Any XxxFn
// hook, when set, replaces the default behaviour for that call.
type MockCollaborator struct {
	mu sync.Mutex

	User         domain.User
	Accounts     []domain.Account
	Transactions []domain.Transaction
	Budgets      []domain.Budget
	Rules        []domain.CategoryRule
	Custom       []domain.CategoryRule
	Bills        []domain.Bill

	Calls  map[string]int
	nextID int64

	DashboardOverviewFn         func(ctx context.Context) (*domain.DashboardOverview, error)
	ListBudgetsFn               func(ctx context.Context) ([]domain.Budget, error)
	CreateAccountFn             func(ctx context.Context, input domain.CreateAccountInput) (*domain.Account, error)
	DeleteAccountFn             func(ctx context.Context, id int64) error
	CreateTransactionFn         func(ctx context.Context, input domain.CreateTransactionInput) (*domain.Transaction, error)
	CreateTransferFn            func(ctx context.Context, input domain.CreateTransferInput) (*domain.Transfer, error)
	UpdateTransactionCategoryFn func(ctx context.Context, id int64, category string) (*domain.Transaction, error)
	CreateBudgetFn              func(ctx context.Context, input domain.CreateBudgetInput) (*domain.Budget, error)
	CreateCategoryRuleFn        func(ctx context.Context, input domain.CategoryRuleInput) (*domain.CategoryRule, error)
	UploadCSVFn                 func(ctx context.Context, accountID int64, filename string, r io.Reader) (*domain.CSVImportResult, error)
	ListBillsFn                 func(ctx context.Context) ([]domain.Bill, error)
}

// NewMockCollaborator creates an empty MockCollaborator
func NewMockCollaborator() *MockCollaborator {
	return &MockCollaborator{
		User:   domain.User{ID: 1, Name: "Test User", Email: "test@example.com"},
		Calls:  make(map[string]int),
		nextID: 100,
	}
}

func (m *MockCollaborator) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls[name]++
}

// CallCount returns how many times name was called
func (m *MockCollaborator) CallCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls[name]
}

// TotalCalls returns the number of calls of any kind
func (m *MockCollaborator) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.Calls {
		total += n
	}
	return total
}

func (m *MockCollaborator) id() int64 {
	m.nextID++
	return m.nextID
}

// DashboardOverview returns the stored data with a computed summary
func (m *MockCollaborator) DashboardOverview(ctx context.Context) (*domain.DashboardOverview, error) {
	m.record("DashboardOverview")
	if m.DashboardOverviewFn != nil {
		return m.DashboardOverviewFn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	summary := domain.DashboardSummary{TotalAccounts: len(m.Accounts)}
	for _, a := range m.Accounts {
		summary.TotalBalance = summary.TotalBalance.Add(a.Balance)
	}
	for _, t := range m.Transactions {
		if t.IsCredit() {
			summary.TotalIncome = summary.TotalIncome.Add(t.Amount)
		} else {
			summary.TotalExpenses = summary.TotalExpenses.Add(t.Amount)
		}
	}
	summary.NetFlow = summary.TotalIncome.Sub(summary.TotalExpenses)

	return &domain.DashboardOverview{
		User:         m.User,
		Accounts:     append([]domain.Account(nil), m.Accounts...),
		Transactions: append([]domain.Transaction(nil), m.Transactions...),
		Summary:      summary,
	}, nil
}

// ListBudgets returns the stored budgets
func (m *MockCollaborator) ListBudgets(ctx context.Context) ([]domain.Budget, error) {
	m.record("ListBudgets")
	if m.ListBudgetsFn != nil {
		return m.ListBudgetsFn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Budget(nil), m.Budgets...), nil
}

// CreateAccount stores a new account
func (m *MockCollaborator) CreateAccount(ctx context.Context, input domain.CreateAccountInput) (*domain.Account, error) {
	m.record("CreateAccount")
	if m.CreateAccountFn != nil {
		return m.CreateAccountFn(ctx, input)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	account := domain.Account{
		ID:            m.id(),
		BankName:      input.BankName,
		AccountType:   domain.AccountType(input.AccountType),
		MaskedAccount: input.MaskedAccount,
		Currency:      input.Currency,
		Balance:       input.Balance,
		CreatedAt:     domain.NewTimestamp(time.Now()),
	}
	m.Accounts = append(m.Accounts, account)
	return &account, nil
}

// UpdateAccount replaces an account's fields
func (m *MockCollaborator) UpdateAccount(ctx context.Context, id int64, input domain.UpdateAccountInput) (*domain.Account, error) {
	m.record("UpdateAccount")
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, a := range m.Accounts {
		if a.ID == id {
			a.BankName = input.BankName
			a.AccountType = domain.AccountType(input.AccountType)
			a.MaskedAccount = input.MaskedAccount
			a.Currency = input.Currency
			a.Balance = input.Balance
			m.Accounts[i] = a
			return &a, nil
		}
	}
	return nil, notFound("Account")
}

// DeleteAccount removes an account and its transactions
func (m *MockCollaborator) DeleteAccount(ctx context.Context, id int64) error {
	m.record("DeleteAccount")
	if m.DeleteAccountFn != nil {
		return m.DeleteAccountFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, a := range m.Accounts {
		if a.ID == id {
			m.Accounts = append(m.Accounts[:i], m.Accounts[i+1:]...)
			kept := m.Transactions[:0]
			for _, t := range m.Transactions {
				if t.AccountID != id {
					kept = append(kept, t)
				}
			}
			m.Transactions = kept
			return nil
		}
	}
	return notFound("Account")
}

// CreateTransaction stores a new transaction
func (m *MockCollaborator) CreateTransaction(ctx context.Context, input domain.CreateTransactionInput) (*domain.Transaction, error) {
	m.record("CreateTransaction")
	if m.CreateTransactionFn != nil {
		return m.CreateTransactionFn(ctx, input)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	date, err := domain.ParseTimestamp(input.TxnDate)
	if err != nil {
		return nil, &domain.ValidationError{Detail: err.Error()}
	}
	txn := domain.Transaction{
		ID:          m.id(),
		AccountID:   input.AccountID,
		Amount:      input.Amount,
		Currency:    input.Currency,
		TxnType:     domain.TxnType(input.TxnType),
		Category:    input.Category,
		Merchant:    input.Merchant,
		Description: input.Description,
		TxnDate:     date,
	}
	m.Transactions = append(m.Transactions, txn)
	return &txn, nil
}

// CreateTransfer moves balance between two stored accounts, rejecting the
// same cases the finance API does
func (m *MockCollaborator) CreateTransfer(ctx context.Context, input domain.CreateTransferInput) (*domain.Transfer, error) {
	m.record("CreateTransfer")
	if m.CreateTransferFn != nil {
		return m.CreateTransferFn(ctx, input)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	from, to := -1, -1
	for i, a := range m.Accounts {
		switch a.ID {
		case input.FromAccountID:
			from = i
		case input.ToAccountID:
			to = i
		}
	}
	if from < 0 || to < 0 {
		return nil, notFound("Account")
	}
	sender, receiver := &m.Accounts[from], &m.Accounts[to]
	if sender.Balance.LessThan(input.Amount) {
		return nil, &domain.ValidationError{Detail: "Insufficient balance"}
	}
	if sender.Currency != receiver.Currency {
		return nil, &domain.ValidationError{Detail: "Currency mismatch"}
	}
	sender.Balance = sender.Balance.Sub(input.Amount)
	receiver.Balance = receiver.Balance.Add(input.Amount)

	return &domain.Transfer{
		ID:            m.id(),
		FromAccountID: sender.ID,
		ToAccountID:   receiver.ID,
		Amount:        input.Amount,
		Currency:      sender.Currency,
		Status:        "SUCCESS",
	}, nil
}

// UpdateTransaction replaces a transaction's fields
func (m *MockCollaborator) UpdateTransaction(ctx context.Context, id int64, input domain.UpdateTransactionInput) (*domain.Transaction, error) {
	m.record("UpdateTransaction")
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.Transactions {
		if t.ID == id {
			t.Amount = input.Amount
			t.Currency = input.Currency
			t.TxnType = domain.TxnType(input.TxnType)
			t.Category = input.Category
			t.Merchant = input.Merchant
			t.Description = input.Description
			m.Transactions[i] = t
			return &t, nil
		}
	}
	return nil, notFound("Transaction")
}

// UpdateTransactionCategory sets one transaction's category
func (m *MockCollaborator) UpdateTransactionCategory(ctx context.Context, id int64, category string) (*domain.Transaction, error) {
	m.record("UpdateTransactionCategory")
	if m.UpdateTransactionCategoryFn != nil {
		return m.UpdateTransactionCategoryFn(ctx, id, category)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.Transactions {
		if t.ID == id {
			c := category
			t.Category = &c
			m.Transactions[i] = t
			return &t, nil
		}
	}
	return nil, notFound("Transaction")
}

// DeleteTransaction removes a transaction
func (m *MockCollaborator) DeleteTransaction(ctx context.Context, id int64) error {
	m.record("DeleteTransaction")
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.Transactions {
		if t.ID == id {
			m.Transactions = append(m.Transactions[:i], m.Transactions[i+1:]...)
			return nil
		}
	}
	return notFound("Transaction")
}

// UploadCSV counts non-header lines as created transactions
func (m *MockCollaborator) UploadCSV(ctx context.Context, accountID int64, filename string, r io.Reader) (*domain.CSVImportResult, error) {
	m.record("UploadCSV")
	if m.UploadCSVFn != nil {
		return m.UploadCSVFn(ctx, accountID, filename, r)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) <= 1 {
		return &domain.CSVImportResult{Errors: []string{"no rows found"}}, nil
	}
	return &domain.CSVImportResult{TransactionsCreated: len(lines) - 1, Errors: []string{}}, nil
}

// CreateBudget stores a budget, rejecting duplicates the way the server does
func (m *MockCollaborator) CreateBudget(ctx context.Context, input domain.CreateBudgetInput) (*domain.Budget, error) {
	m.record("CreateBudget")
	if m.CreateBudgetFn != nil {
		return m.CreateBudgetFn(ctx, input)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.Budgets {
		if strings.EqualFold(b.Category, input.Category) && b.Month == input.Month && b.Year == input.Year {
			return nil, &domain.APIError{Kind: domain.ErrConflict, Status: 400, Detail: "Budget already exists for this category and month"}
		}
	}
	budget := domain.Budget{
		ID:          m.id(),
		Category:    input.Category,
		Month:       input.Month,
		Year:        input.Year,
		LimitAmount: input.LimitAmount,
		SpentAmount: decimal.Zero,
	}
	m.Budgets = append(m.Budgets, budget)
	return &budget, nil
}

func (m *MockCollaborator) ListCategoryRules(ctx context.Context) ([]domain.CategoryRule, error) {
	m.record("ListCategoryRules")
	m.mu.Lock()
	defer m.mu.Unlock()
	return append(append([]domain.CategoryRule(nil), m.Rules...), m.Custom...), nil
}

func (m *MockCollaborator) CreateCategoryRule(ctx context.Context, input domain.CategoryRuleInput) (*domain.CategoryRule, error) {
	m.record("CreateCategoryRule")
	if m.CreateCategoryRuleFn != nil {
		return m.CreateCategoryRuleFn(ctx, input)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rule := ruleFrom(m.id(), input, false)
	m.Rules = append(m.Rules, rule)
	return &rule, nil
}

func (m *MockCollaborator) ListCustomCategories(ctx context.Context) ([]domain.CategoryRule, error) {
	m.record("ListCustomCategories")
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.CategoryRule(nil), m.Custom...), nil
}

func (m *MockCollaborator) CreateCustomCategory(ctx context.Context, input domain.CategoryRuleInput) (*domain.CategoryRule, error) {
	m.record("CreateCustomCategory")
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.Custom {
		if strings.EqualFold(r.CategoryName, input.CategoryName) {
			return nil, &domain.APIError{Kind: domain.ErrConflict, Status: 400, Detail: "Category already exists"}
		}
	}
	rule := ruleFrom(m.id(), input, true)
	m.Custom = append(m.Custom, rule)
	return &rule, nil
}

func (m *MockCollaborator) UpdateCustomCategory(ctx context.Context, id int64, input domain.CategoryRuleInput) (*domain.CategoryRule, error) {
	m.record("UpdateCustomCategory")
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.Custom {
		if r.ID == id {
			m.Custom[i] = ruleFrom(id, input, true)
			return &m.Custom[i], nil
		}
	}
	return nil, notFound("Category")
}

func (m *MockCollaborator) DeleteCustomCategory(ctx context.Context, id int64) error {
	m.record("DeleteCustomCategory")
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.Custom {
		if r.ID == id {
			m.Custom = append(m.Custom[:i], m.Custom[i+1:]...)
			return nil
		}
	}
	return notFound("Category")
}

func (m *MockCollaborator) ListBills(ctx context.Context) ([]domain.Bill, error) {
	m.record("ListBills")
	if m.ListBillsFn != nil {
		return m.ListBillsFn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Bill(nil), m.Bills...), nil
}

func (m *MockCollaborator) CreateBill(ctx context.Context, input domain.CreateBillInput) (*domain.Bill, error) {
	m.record("CreateBill")
	m.mu.Lock()
	defer m.mu.Unlock()
	due, err := domain.ParseTimestamp(input.DueDate)
	if err != nil {
		return nil, &domain.ValidationError{Detail: err.Error()}
	}
	bill := domain.Bill{
		ID:         m.id(),
		BillerName: input.BillerName,
		AmountDue:  input.AmountDue,
		DueDate:    due,
		Status:     domain.BillStatusUpcoming,
	}
	m.Bills = append(m.Bills, bill)
	return &bill, nil
}

func ruleFrom(id int64, input domain.CategoryRuleInput, custom bool) domain.CategoryRule {
	return domain.CategoryRule{
		ID:           id,
		CategoryName: input.CategoryName,
		Keywords:     domain.KeywordList(input.Keywords),
		Merchants:    domain.KeywordList(input.Merchants),
		IsCustom:     custom,
	}
}

func notFound(what string) error {
	return &domain.APIError{Kind: domain.ErrNotFound, Status: 404, Detail: fmt.Sprintf("%s not found", what)}
}

// Fixture builders

// NewAccount builds an account with the given id and balance
func NewAccount(id int64, bank string, balance int64) domain.Account {
	return domain.Account{
		ID:            id,
		BankName:      bank,
		AccountType:   domain.AccountTypeSavings,
		MaskedAccount: fmt.Sprintf("****%04d", id),
		Currency:      domain.DefaultCurrency,
		Balance:       decimal.NewFromInt(balance),
		CreatedAt:     domain.NewTimestamp(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
	}
}

// NewTransaction builds a transaction. Empty merchant or category are left nil.
func NewTransaction(id, accountID int64, txnType domain.TxnType, amount string, merchant, category string, day int) domain.Transaction {
	txn := domain.Transaction{
		ID:        id,
		AccountID: accountID,
		Amount:    decimal.RequireFromString(amount),
		Currency:  domain.DefaultCurrency,
		TxnType:   txnType,
		TxnDate:   domain.NewTimestamp(time.Date(2024, 3, day, 10, 0, 0, 0, time.UTC)),
	}
	if merchant != "" {
		txn.Merchant = &merchant
	}
	if category != "" {
		txn.Category = &category
	}
	return txn
}

// FakeTransaction builds a debit with a random merchant and description
func FakeTransaction(id, accountID int64) domain.Transaction {
	merchant := gofakeit.Company()
	description := gofakeit.Sentence(4)
	return domain.Transaction{
		ID:          id,
		AccountID:   accountID,
		Amount:      decimal.NewFromFloat(gofakeit.Price(1, 5000)).Round(2),
		Currency:    domain.DefaultCurrency,
		TxnType:     domain.TxnTypeDebit,
		Merchant:    &merchant,
		Description: &description,
		TxnDate:     domain.NewTimestamp(gofakeit.DateRange(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC))),
	}
}

// NewBudget builds a budget for March 2024
func NewBudget(id int64, category, limit, spent string) domain.Budget {
	l := decimal.RequireFromString(limit)
	s := decimal.RequireFromString(spent)
	return domain.Budget{
		ID:          id,
		Category:    category,
		Month:       3,
		Year:        2024,
		LimitAmount: l,
		SpentAmount: s,
		OverBudget:  s.GreaterThan(l),
	}
}
