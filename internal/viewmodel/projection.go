package viewmodel

import (
	"time"

	"github.com/dafibh/fortuna/fortuna-dashboard/internal/domain"
)

// Projection is everything a presentation layer renders, read under one
// lock so the figures always agree with each other
type Projection struct {
	View            View                    `json:"view"`
	SearchTerm      string                  `json:"searchTerm"`
	User            domain.User             `json:"user"`
	Accounts        []domain.Account        `json:"accounts"`
	SelectedAccount *domain.Account         `json:"selectedAccount,omitempty"`
	AccountStats    *domain.AccountStats    `json:"accountStats,omitempty"`
	Transactions    []domain.Transaction    `json:"transactions"`
	Totals          domain.Totals           `json:"totals"`
	Summary         domain.DashboardSummary `json:"summary"`
	Budgets         []BudgetLine            `json:"budgets"`
	BudgetOverview  domain.BudgetOverview   `json:"budgetOverview"`
	Loaded          bool                    `json:"loaded"`
	Loading         bool                    `json:"loading"`
	NeedsLogin      bool                    `json:"needsLogin"`
	LastError       string                  `json:"lastError,omitempty"`
	Sequence        uint64                  `json:"sequence"`
	LoadedAt        *time.Time              `json:"loadedAt,omitempty"`
}

// Projection returns the current screen's data
func (vm *DashboardViewModel) Projection() Projection {
	vm.mu.Lock()
	st := vm.stateLocked()
	p := Projection{
		View:       vm.view,
		SearchTerm: vm.search,
		Loading:    vm.inFlight > 0,
		NeedsLogin: vm.needsLogin,
	}
	if vm.lastErr != nil {
		p.LastError = vm.lastErr.Error()
	}
	vm.mu.Unlock()

	p.Transactions = filterTransactions(st)
	p.Totals = totalsOf(st)
	p.Budgets = budgetLines(st)
	p.BudgetOverview = overviewOf(p.Budgets)
	p.Accounts = []domain.Account{}

	if st.snap == nil {
		return p
	}
	p.Loaded = true
	p.User = st.snap.User
	p.Summary = st.snap.Summary
	p.Accounts = append(p.Accounts, st.snap.Accounts...)
	p.Sequence = st.snap.Sequence
	loadedAt := st.snap.LoadedAt
	p.LoadedAt = &loadedAt

	if st.selected != nil {
		if account, ok := st.snap.FindAccount(*st.selected); ok {
			stats := accountStats(st.snap, account.ID)
			p.SelectedAccount = &account
			p.AccountStats = &stats
		}
	}
	return p
}
