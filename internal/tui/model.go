// Package tui is a terminal front end over a DashboardViewModel.
package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/domain"
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/viewmodel"
)

// loadTimeout bounds a single reload started from the keyboard
const loadTimeout = 30 * time.Second

// loadedMsg reports the end of a reload
type loadedMsg struct {
	err error
}

// Model is the bubbletea model. All data comes from the view model; the
// Model only keeps the cursor and the search box.
type Model struct {
	vm        *viewmodel.DashboardViewModel
	search    textinput.Model
	searching bool
	cursor    int
	loading   bool
	status    string
}

// New creates a Model over vm
func New(vm *viewmodel.DashboardViewModel) Model {
	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "merchant or category"
	ti.CharLimit = 64

	return Model{vm: vm, search: ti}
}

// Run starts the full-screen program and blocks until the user quits
func Run(vm *viewmodel.DashboardViewModel) error {
	_, err := tea.NewProgram(New(vm), tea.WithAltScreen()).Run()
	return err
}

// Init starts the first load
func (m Model) Init() tea.Cmd {
	return m.load()
}

func (m Model) load() tea.Cmd {
	vm := m.vm
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		_, err := vm.Load(ctx)
		return loadedMsg{err: err}
	}
}

// Update handles keys and load results
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		m.loading = false
		switch {
		case msg.err == nil:
			m.status = ""
		case errors.Is(msg.err, domain.ErrStaleResponse):
			// A newer reload owns the screen
		default:
			m.status = msg.err.Error()
		}
		m.clampCursor()
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEnter:
		m.searching = false
		m.search.Blur()
		return m, nil
	case tea.KeyEsc:
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.vm.SetSearchTerm("")
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.vm.SetSearchTerm(m.search.Value())
	return m, cmd
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "/":
		m.searching = true
		return m, m.search.Focus()

	case "r":
		if m.loading {
			return m, nil
		}
		m.loading = true
		m.status = ""
		return m, m.load()

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.vm.Accounts())-1 {
			m.cursor++
		}

	case "enter":
		if m.vm.View().Kind != viewmodel.ViewDashboard {
			return m, nil
		}
		accounts := m.vm.Accounts()
		if m.cursor >= len(accounts) {
			return m, nil
		}
		id := accounts[m.cursor].ID
		if err := m.vm.SelectAccount(&id); err != nil {
			m.status = err.Error()
		}

	case "esc":
		if m.search.Value() != "" {
			m.search.SetValue("")
			m.vm.SetSearchTerm("")
			return m, nil
		}
		m.vm.Back()
	}
	return m, nil
}

func (m *Model) clampCursor() {
	n := len(m.vm.Accounts())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}
