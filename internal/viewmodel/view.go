package viewmodel

import (
	"strings"

	"github.com/dafibh/fortuna/fortuna-dashboard/internal/domain"
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/websocket"
)

// ViewKind names the screen the user is on
type ViewKind string

const (
	ViewDashboard     ViewKind = "dashboard"
	ViewAccountDetail ViewKind = "account_detail"
)

// View is the current screen. AccountID is set only for ViewAccountDetail.
type View struct {
	Kind      ViewKind `json:"kind"`
	AccountID int64    `json:"accountId,omitempty"`
}

// DashboardView is the initial screen
func DashboardView() View {
	return View{Kind: ViewDashboard}
}

// AccountDetailView is the drill-down screen for one account
func AccountDetailView(id int64) View {
	return View{Kind: ViewAccountDetail, AccountID: id}
}

// viewState is a consistent copy of everything derived figures depend on
type viewState struct {
	snap     *domain.DashboardSnapshot
	selected *int64
	search   string
	view     View
}

func (vm *DashboardViewModel) state() viewState {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.stateLocked()
}

// stateLocked must be called with vm.mu held
func (vm *DashboardViewModel) stateLocked() viewState {
	st := viewState{snap: vm.snapshot, search: vm.search, view: vm.view}
	if vm.selected != nil {
		id := *vm.selected
		st.selected = &id
	}
	return st
}

// View returns the current screen
func (vm *DashboardViewModel) View() View {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.view
}

// SelectAccount narrows the dashboard to one account and opens its detail
// view. A nil id clears the selection and returns to the dashboard.
func (vm *DashboardViewModel) SelectAccount(id *int64) error {
	vm.mu.Lock()
	if id == nil {
		vm.selected = nil
		vm.view = DashboardView()
	} else {
		if _, ok := vm.snapshot.FindAccount(*id); !ok {
			vm.mu.Unlock()
			return domain.NewValidationError("account_id", "account is not in the current snapshot")
		}
		selected := *id
		vm.selected = &selected
		vm.view = AccountDetailView(selected)
	}
	view := vm.view
	vm.mu.Unlock()

	vm.publisher.Publish(vm.sessionID, websocket.ViewChanged(view))
	return nil
}

// Back leaves the account detail view and clears the selection
func (vm *DashboardViewModel) Back() {
	_ = vm.SelectAccount(nil)
}

// SelectedAccountID returns the selected account id, if any
func (vm *DashboardViewModel) SelectedAccountID() *int64 {
	return vm.state().selected
}

// SearchTerm returns the current search term
func (vm *DashboardViewModel) SearchTerm() string {
	return vm.state().search
}

// SetSearchTerm sets the free-text transaction filter. The term is matched
// case-insensitively against merchant and category.
func (vm *DashboardViewModel) SetSearchTerm(term string) {
	vm.mu.Lock()
	changed := vm.search != term
	vm.search = term
	view := vm.view
	vm.mu.Unlock()

	if changed {
		vm.publisher.Publish(vm.sessionID, websocket.ViewChanged(map[string]interface{}{
			"kind":       view.Kind,
			"accountId":  view.AccountID,
			"searchTerm": term,
		}))
	}
}

// matchesSearch reports whether txn's merchant or category contains term
func matchesSearch(txn domain.Transaction, term string) bool {
	if term == "" {
		return true
	}
	if txn.Merchant != nil && strings.Contains(strings.ToLower(*txn.Merchant), term) {
		return true
	}
	if txn.Category != nil && strings.Contains(strings.ToLower(*txn.Category), term) {
		return true
	}
	return false
}
