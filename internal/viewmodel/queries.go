package viewmodel

import (
	"sort"
	"strings"

	"github.com/dafibh/fortuna/fortuna-dashboard/internal/domain"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// BudgetLine pairs a budget with its display status. Error is set instead
// of Status when the budget's limit is not positive.
type BudgetLine struct {
	Budget domain.Budget       `json:"budget"`
	Status domain.BudgetStatus `json:"status"`
	Error  string              `json:"error,omitempty"`
}

// Accounts returns the cached accounts in server order
func (vm *DashboardViewModel) Accounts() []domain.Account {
	st := vm.state()
	if st.snap == nil {
		return nil
	}
	return append([]domain.Account(nil), st.snap.Accounts...)
}

// SelectedAccount returns the selected account, if it is still in the snapshot
func (vm *DashboardViewModel) SelectedAccount() (domain.Account, bool) {
	st := vm.state()
	if st.selected == nil {
		return domain.Account{}, false
	}
	return st.snap.FindAccount(*st.selected)
}

// FilteredTransactions applies the account filter and the search filter.
// Server order is kept; a new slice is returned on every call.
func (vm *DashboardViewModel) FilteredTransactions() []domain.Transaction {
	return filterTransactions(vm.state())
}

func filterTransactions(st viewState) []domain.Transaction {
	out := []domain.Transaction{}
	if st.snap == nil {
		return out
	}
	term := strings.ToLower(st.search)
	for _, txn := range st.snap.Transactions {
		if st.selected != nil && txn.AccountID != *st.selected {
			continue
		}
		if !matchesSearch(txn, term) {
			continue
		}
		out = append(out, txn)
	}
	return out
}

// SortedByDate returns a copy of txns ordered by transaction date. Equal
// dates keep their relative order.
func SortedByDate(txns []domain.Transaction, desc bool) []domain.Transaction {
	out := append([]domain.Transaction(nil), txns...)
	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return out[i].TxnDate.After(out[j].TxnDate.Time)
		}
		return out[i].TxnDate.Before(out[j].TxnDate.Time)
	})
	return out
}

// ComputeBudgetStatus derives the progress bar for b. A non-positive limit
// is rejected rather than clamped.
func ComputeBudgetStatus(b domain.Budget) (domain.BudgetStatus, error) {
	if !b.LimitAmount.IsPositive() {
		return domain.BudgetStatus{}, domain.NewValidationError("limit_amount", "budget limit must be greater than 0")
	}

	spent := b.SpentAmount
	if spent.IsNegative() {
		spent = decimal.Zero
	}
	pct := spent.Div(b.LimitAmount).Mul(hundred)
	if pct.GreaterThan(hundred) {
		pct = hundred
	}
	percent, _ := pct.Float64()

	return domain.BudgetStatus{
		Percent:    percent,
		OverBudget: b.SpentAmount.GreaterThan(b.LimitAmount),
	}, nil
}

// ComputeBudgetStatus is the method form used by presentation code
func (vm *DashboardViewModel) ComputeBudgetStatus(b domain.Budget) (domain.BudgetStatus, error) {
	return ComputeBudgetStatus(b)
}

// BudgetStatuses returns every cached budget with its status
func (vm *DashboardViewModel) BudgetStatuses() []BudgetLine {
	return budgetLines(vm.state())
}

func budgetLines(st viewState) []BudgetLine {
	lines := []BudgetLine{}
	if st.snap == nil {
		return lines
	}
	for _, b := range st.snap.Budgets {
		line := BudgetLine{Budget: b}
		status, err := ComputeBudgetStatus(b)
		if err != nil {
			line.Error = err.Error()
		} else {
			line.Status = status
		}
		lines = append(lines, line)
	}
	return lines
}

// BudgetOverview counts budgets and how many are over their limit
func (vm *DashboardViewModel) BudgetOverview() domain.BudgetOverview {
	return overviewOf(budgetLines(vm.state()))
}

// Budgets returns the budget lines and their overview from one snapshot read
func (vm *DashboardViewModel) Budgets() ([]BudgetLine, domain.BudgetOverview) {
	lines := budgetLines(vm.state())
	return lines, overviewOf(lines)
}

func overviewOf(lines []BudgetLine) domain.BudgetOverview {
	ov := domain.BudgetOverview{Total: len(lines)}
	for _, l := range lines {
		if l.Error == "" && l.Status.OverBudget {
			ov.OverBudget++
		}
	}
	ov.Alert = ov.OverBudget > 0
	return ov
}

// Totals returns balance, income, expenses and net flow for the current
// selection. The search term does not affect totals.
func (vm *DashboardViewModel) Totals() domain.Totals {
	return totalsOf(vm.state())
}

func totalsOf(st viewState) domain.Totals {
	t := domain.Totals{Balance: decimal.Zero, Income: decimal.Zero, Expenses: decimal.Zero, NetFlow: decimal.Zero}
	if st.snap == nil {
		return t
	}

	for _, a := range st.snap.Accounts {
		if st.selected == nil || a.ID == *st.selected {
			t.Balance = t.Balance.Add(a.Balance)
		}
	}

	for _, txn := range st.snap.Transactions {
		if st.selected != nil && txn.AccountID != *st.selected {
			continue
		}
		t.Count++
		if txn.IsCredit() {
			t.Income = t.Income.Add(txn.Amount.Abs())
		} else {
			t.Expenses = t.Expenses.Add(txn.Amount.Abs())
		}
	}
	t.NetFlow = t.Income.Sub(t.Expenses)
	return t
}

// AccountStats returns the drill-down figures for one account
func (vm *DashboardViewModel) AccountStats(id int64) (domain.AccountStats, error) {
	st := vm.state()
	if _, ok := st.snap.FindAccount(id); !ok {
		return domain.AccountStats{}, domain.NewValidationError("account_id", "account is not in the current snapshot")
	}
	return accountStats(st.snap, id), nil
}

func accountStats(snap *domain.DashboardSnapshot, id int64) domain.AccountStats {
	stats := domain.AccountStats{
		AccountID:     id,
		TotalIncome:   decimal.Zero,
		TotalExpenses: decimal.Zero,
	}
	byCategory := map[string]decimal.Decimal{}

	for _, txn := range snap.Transactions {
		if txn.AccountID != id {
			continue
		}
		stats.TransactionCount++
		amount := txn.Amount.Abs()
		if txn.IsCredit() {
			stats.TotalIncome = stats.TotalIncome.Add(amount)
			continue
		}
		stats.TotalExpenses = stats.TotalExpenses.Add(amount)
		cat := txn.DisplayCategory()
		byCategory[cat] = byCategory[cat].Add(amount)
	}
	stats.NetFlow = stats.TotalIncome.Sub(stats.TotalExpenses)

	stats.CategoryBreakdown = make([]domain.CategoryTotal, 0, len(byCategory))
	for cat, total := range byCategory {
		stats.CategoryBreakdown = append(stats.CategoryBreakdown, domain.CategoryTotal{Category: cat, Total: total})
	}
	sort.Slice(stats.CategoryBreakdown, func(i, j int) bool {
		a, b := stats.CategoryBreakdown[i], stats.CategoryBreakdown[j]
		if c := a.Total.Cmp(b.Total); c != 0 {
			return c > 0
		}
		return a.Category < b.Category
	})
	return stats
}
