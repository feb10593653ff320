package viewmodel

import (
	"context"
	"io"
	"strings"

	"github.com/dafibh/fortuna/fortuna-dashboard/internal/domain"
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/validation"
)

// Every mutation validates locally first and sends nothing when that
// fails. After the collaborator accepts the change the snapshot is
// reloaded; it is never patched in place. When the collaborator rejects
// the change the snapshot is left as it was and the error is returned
// unchanged.

func (vm *DashboardViewModel) failed(err error) error {
	vm.noteAuth(err)
	return err
}

// CreateAccount adds an account. An empty currency defaults to INR.
func (vm *DashboardViewModel) CreateAccount(ctx context.Context, input domain.CreateAccountInput) (*domain.Account, error) {
	input = normalizeAccount(input)
	if err := validation.Validate(input); err != nil {
		return nil, err
	}
	account, err := vm.collab.CreateAccount(ctx, input)
	if err != nil {
		return nil, vm.failed(err)
	}
	return account, vm.resync(ctx)
}

// UpdateAccount replaces an account's editable fields
func (vm *DashboardViewModel) UpdateAccount(ctx context.Context, id int64, input domain.UpdateAccountInput) (*domain.Account, error) {
	if err := validation.AccountID(id); err != nil {
		return nil, err
	}
	input = normalizeAccount(input)
	if err := validation.Validate(input); err != nil {
		return nil, err
	}
	account, err := vm.collab.UpdateAccount(ctx, id, input)
	if err != nil {
		return nil, vm.failed(err)
	}
	return account, vm.resync(ctx)
}

// DeleteAccount removes an account. If it was selected the view returns to
// the dashboard.
func (vm *DashboardViewModel) DeleteAccount(ctx context.Context, id int64) error {
	if err := validation.AccountID(id); err != nil {
		return err
	}
	if err := vm.collab.DeleteAccount(ctx, id); err != nil {
		return vm.failed(err)
	}

	if sel := vm.SelectedAccountID(); sel != nil && *sel == id {
		vm.Back()
	}
	return vm.resync(ctx)
}

func normalizeAccount(input domain.CreateAccountInput) domain.CreateAccountInput {
	input.BankName = strings.TrimSpace(input.BankName)
	input.MaskedAccount = strings.TrimSpace(input.MaskedAccount)
	input.Currency = strings.ToUpper(strings.TrimSpace(input.Currency))
	if input.Currency == "" {
		input.Currency = domain.DefaultCurrency
	}
	if t, ok := domain.ParseAccountType(input.AccountType); ok {
		input.AccountType = string(t)
	}
	return input
}

// CreateTransaction records a manual transaction. The amount is a
// magnitude; the type decides whether it is income or expense.
func (vm *DashboardViewModel) CreateTransaction(ctx context.Context, input domain.CreateTransactionInput) (*domain.Transaction, error) {
	input.Currency = defaultCurrency(input.Currency)
	input.TxnType = strings.ToLower(strings.TrimSpace(input.TxnType))
	input.Category = trimOptional(input.Category)
	if err := validation.Validate(input); err != nil {
		return nil, err
	}
	txn, err := vm.collab.CreateTransaction(ctx, input)
	if err != nil {
		return nil, vm.failed(err)
	}
	return txn, vm.resync(ctx)
}

// UpdateTransaction replaces a transaction's editable fields
func (vm *DashboardViewModel) UpdateTransaction(ctx context.Context, id int64, input domain.UpdateTransactionInput) (*domain.Transaction, error) {
	if id <= 0 {
		return nil, domain.NewValidationError("id", "must be a positive id")
	}
	input.Currency = defaultCurrency(input.Currency)
	input.TxnType = strings.ToLower(strings.TrimSpace(input.TxnType))
	input.Category = trimOptional(input.Category)
	if err := validation.Validate(input); err != nil {
		return nil, err
	}
	txn, err := vm.collab.UpdateTransaction(ctx, id, input)
	if err != nil {
		return nil, vm.failed(err)
	}
	return txn, vm.resync(ctx)
}

// UpdateTransactionCategory recategorises one transaction
func (vm *DashboardViewModel) UpdateTransactionCategory(ctx context.Context, id int64, category string) (*domain.Transaction, error) {
	if id <= 0 {
		return nil, domain.NewValidationError("id", "must be a positive id")
	}
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, domain.NewValidationError("category", "is required")
	}
	txn, err := vm.collab.UpdateTransactionCategory(ctx, id, category)
	if err != nil {
		return nil, vm.failed(err)
	}
	return txn, vm.resync(ctx)
}

// DeleteTransaction removes one transaction
func (vm *DashboardViewModel) DeleteTransaction(ctx context.Context, id int64) error {
	if id <= 0 {
		return domain.NewValidationError("id", "must be a positive id")
	}
	if err := vm.collab.DeleteTransaction(ctx, id); err != nil {
		return vm.failed(err)
	}
	return vm.resync(ctx)
}

// CreateTransfer moves money between two accounts. A budget alert raised
// by the server comes back on the result and is also logged.
func (vm *DashboardViewModel) CreateTransfer(ctx context.Context, input domain.CreateTransferInput) (*domain.Transfer, error) {
	input.Description = trimOptional(input.Description)
	if err := validation.Validate(input); err != nil {
		return nil, err
	}
	transfer, err := vm.collab.CreateTransfer(ctx, input)
	if err != nil {
		return nil, vm.failed(err)
	}
	if transfer.BudgetAlert != "" {
		vm.logger.Info().
			Int64("transfer_id", transfer.ID).
			Str("budget_alert", transfer.BudgetAlert).
			Msg("Transfer exceeded a budget")
	}
	return transfer, vm.resync(ctx)
}

// ImportCSV uploads a bank statement into an account. Rows the server
// rejects are listed in the result; the snapshot is reloaded either way.
func (vm *DashboardViewModel) ImportCSV(ctx context.Context, accountID int64, filename string, size int64, r io.Reader) (*domain.CSVImportResult, error) {
	if err := validation.AccountID(accountID); err != nil {
		return nil, err
	}
	if err := validation.CSVFile(filename, size); err != nil {
		return nil, err
	}
	result, err := vm.collab.UploadCSV(ctx, accountID, filename, r)
	if err != nil {
		return nil, vm.failed(err)
	}
	return result, vm.resync(ctx)
}

// CreateBudget adds a monthly budget. Duplicate (category, month, year)
// combinations come back from the server as a conflict.
func (vm *DashboardViewModel) CreateBudget(ctx context.Context, input domain.CreateBudgetInput) (*domain.Budget, error) {
	input.Category = strings.TrimSpace(input.Category)
	if err := validation.Validate(input); err != nil {
		return nil, err
	}
	budget, err := vm.collab.CreateBudget(ctx, input)
	if err != nil {
		return nil, vm.failed(err)
	}
	return budget, vm.resync(ctx)
}

// CreateCategoryRule adds an auto-categorisation rule. Rules only affect
// future categorisation, so the snapshot is still reloaded to pick up any
// server-side recategorisation.
func (vm *DashboardViewModel) CreateCategoryRule(ctx context.Context, input domain.CategoryRuleInput) (*domain.CategoryRule, error) {
	input = normalizeRule(input)
	if err := validation.CategoryRule(input); err != nil {
		return nil, err
	}
	rule, err := vm.collab.CreateCategoryRule(ctx, input)
	if err != nil {
		return nil, vm.failed(err)
	}
	return rule, vm.resync(ctx)
}

// CreateCustomCategory adds a user-defined category with its own keywords
func (vm *DashboardViewModel) CreateCustomCategory(ctx context.Context, input domain.CategoryRuleInput) (*domain.CategoryRule, error) {
	input = normalizeRule(input)
	if err := validation.CategoryRule(input); err != nil {
		return nil, err
	}
	rule, err := vm.collab.CreateCustomCategory(ctx, input)
	if err != nil {
		return nil, vm.failed(err)
	}
	return rule, vm.resync(ctx)
}

// UpdateCustomCategory replaces a custom category's name and keywords
func (vm *DashboardViewModel) UpdateCustomCategory(ctx context.Context, id int64, input domain.CategoryRuleInput) (*domain.CategoryRule, error) {
	if id <= 0 {
		return nil, domain.NewValidationError("id", "must be a positive id")
	}
	input = normalizeRule(input)
	if err := validation.CategoryRule(input); err != nil {
		return nil, err
	}
	rule, err := vm.collab.UpdateCustomCategory(ctx, id, input)
	if err != nil {
		return nil, vm.failed(err)
	}
	return rule, vm.resync(ctx)
}

// DeleteCustomCategory removes a custom category
func (vm *DashboardViewModel) DeleteCustomCategory(ctx context.Context, id int64) error {
	if id <= 0 {
		return domain.NewValidationError("id", "must be a positive id")
	}
	if err := vm.collab.DeleteCustomCategory(ctx, id); err != nil {
		return vm.failed(err)
	}
	return vm.resync(ctx)
}

func normalizeRule(input domain.CategoryRuleInput) domain.CategoryRuleInput {
	input.CategoryName = strings.TrimSpace(input.CategoryName)
	input.Keywords = []string(domain.SplitKeywords(strings.Join(input.Keywords, ",")))
	input.Merchants = []string(domain.SplitKeywords(strings.Join(input.Merchants, ",")))
	return input
}

// CreateBill adds an upcoming bill
func (vm *DashboardViewModel) CreateBill(ctx context.Context, input domain.CreateBillInput) (*domain.Bill, error) {
	input.BillerName = strings.TrimSpace(input.BillerName)
	if err := validation.Validate(input); err != nil {
		return nil, err
	}
	bill, err := vm.collab.CreateBill(ctx, input)
	if err != nil {
		return nil, vm.failed(err)
	}
	return bill, vm.resync(ctx)
}

// CategoryRules reads the rule list straight from the server. Rules are
// not part of the snapshot.
func (vm *DashboardViewModel) CategoryRules(ctx context.Context) ([]domain.CategoryRule, error) {
	rules, err := vm.collab.ListCategoryRules(ctx)
	if err != nil {
		return nil, vm.failed(err)
	}
	return rules, nil
}

// CustomCategories reads the user's custom categories from the server
func (vm *DashboardViewModel) CustomCategories(ctx context.Context) ([]domain.CategoryRule, error) {
	rules, err := vm.collab.ListCustomCategories(ctx)
	if err != nil {
		return nil, vm.failed(err)
	}
	return rules, nil
}

// Bills reads upcoming bills from the server
func (vm *DashboardViewModel) Bills(ctx context.Context) ([]domain.Bill, error) {
	bills, err := vm.collab.ListBills(ctx)
	if err != nil {
		return nil, vm.failed(err)
	}
	return bills, nil
}

func defaultCurrency(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return domain.DefaultCurrency
	}
	return code
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
