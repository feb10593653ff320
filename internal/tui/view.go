package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/domain"
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/format"
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/viewmodel"
)

const (
	barWidth        = 20
	maxTransactions = 15
)

// View renders the current screen from the view model's projection
func (m Model) View() string {
	p := m.vm.Projection()

	if p.NeedsLogin {
		return errorStyle.Render("Your session has expired. Run `dashboard login` and start again.") + "\n"
	}
	if !p.Loaded {
		if p.LastError != "" {
			return errorStyle.Render("Could not load dashboard: "+p.LastError) + "\n" + mutedStyle.Render("r retry • q quit") + "\n"
		}
		return mutedStyle.Render("Loading dashboard...") + "\n"
	}

	var sections []string
	switch p.View.Kind {
	case viewmodel.ViewAccountDetail:
		sections = m.detailSections(p)
	default:
		sections = m.dashboardSections(p)
	}

	if m.searching || p.SearchTerm != "" {
		sections = append(sections, m.search.View())
	}
	sections = append(sections, m.transactionSection(p))
	sections = append(sections, m.footer(p))

	return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
}

func (m Model) dashboardSections(p viewmodel.Projection) []string {
	title := titleStyle.Render(fmt.Sprintf("Hello, %s", p.User.Name))
	out := []string{title, totalsPanel(p.Totals, currencyOf(p.Accounts))}

	if len(p.Budgets) > 0 {
		out = append(out, budgetPanel(p.Budgets, p.BudgetOverview))
	}

	var rows []string
	rows = append(rows, headStyle.Render("Accounts"))
	if len(p.Accounts) == 0 {
		rows = append(rows, mutedStyle.Render("No accounts yet"))
	}
	for i, a := range p.Accounts {
		line := fmt.Sprintf("%-18s %-12s %-10s %s", a.BankName, format.Label(string(a.AccountType)), a.MaskedAccount, format.Currency(&a.Balance, a.Currency))
		if i == m.cursor {
			rows = append(rows, cursorStyle.Render("> "+line))
		} else {
			rows = append(rows, "  "+line)
		}
	}
	return append(out, strings.Join(rows, "\n"))
}

func (m Model) detailSections(p viewmodel.Projection) []string {
	if p.SelectedAccount == nil {
		return m.dashboardSections(p)
	}
	a := *p.SelectedAccount

	title := titleStyle.Render(a.BankName) + " " + mutedStyle.Render(format.Label(string(a.AccountType))+" "+a.MaskedAccount)
	out := []string{title, totalsPanel(p.Totals, a.Currency)}

	if p.AccountStats != nil && len(p.AccountStats.CategoryBreakdown) > 0 {
		rows := []string{headStyle.Render("Spending by category")}
		for _, ct := range p.AccountStats.CategoryBreakdown {
			total := ct.Total
			rows = append(rows, fmt.Sprintf("  %-16s %s", ct.Category, format.Currency(&total, a.Currency)))
		}
		out = append(out, strings.Join(rows, "\n"))
	}
	return out
}

func totalsPanel(t domain.Totals, currency string) string {
	balance, income, expenses, net := t.Balance, t.Income, t.Expenses, t.NetFlow
	netStyle := incomeStyle
	if net.IsNegative() {
		netStyle = expenseStyle
	}
	lines := []string{
		fmt.Sprintf("Balance   %s", selectedStyle.Render(format.Currency(&balance, currency))),
		fmt.Sprintf("Income    %s", incomeStyle.Render(format.Currency(&income, currency))),
		fmt.Sprintf("Expenses  %s", expenseStyle.Render(format.Currency(&expenses, currency))),
		fmt.Sprintf("Net flow  %s", netStyle.Render(format.Currency(&net, currency))),
	}
	return panelStyle.Render(strings.Join(lines, "\n"))
}

func budgetPanel(lines []viewmodel.BudgetLine, ov domain.BudgetOverview) string {
	rows := []string{headStyle.Render("Budgets")}
	if ov.Alert {
		rows[0] += " " + alertStyle.Render(fmt.Sprintf("%d of %d over budget", ov.OverBudget, ov.Total))
	}
	for _, l := range lines {
		if l.Error != "" {
			rows = append(rows, fmt.Sprintf("  %-14s %s", l.Budget.Category, errorStyle.Render(l.Error)))
			continue
		}
		spent, limit := l.Budget.SpentAmount, l.Budget.LimitAmount
		rows = append(rows, fmt.Sprintf("  %-14s %s %4s  %s / %s",
			l.Budget.Category,
			Bar(l.Status),
			format.Percent(l.Status.Percent),
			format.Currency(&spent, ""),
			format.Currency(&limit, ""),
		))
	}
	return strings.Join(rows, "\n")
}

// Bar draws a fixed-width progress bar for a budget status
func Bar(s domain.BudgetStatus) string {
	filled := int(s.Percent / 100 * barWidth)
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 0 {
		filled = 0
	}
	style := barFullStyle
	if s.OverBudget {
		style = barOverStyle
	}
	return style.Render(strings.Repeat("█", filled)) + barEmptyStyle.Render(strings.Repeat("░", barWidth-filled))
}

func (m Model) transactionSection(p viewmodel.Projection) string {
	rows := []string{headStyle.Render(fmt.Sprintf("Transactions (%d)", len(p.Transactions)))}
	if len(p.Transactions) == 0 {
		if p.SearchTerm != "" {
			rows = append(rows, mutedStyle.Render(fmt.Sprintf("Nothing matches %q", p.SearchTerm)))
		} else {
			rows = append(rows, mutedStyle.Render("No transactions"))
		}
		return strings.Join(rows, "\n")
	}

	shown := p.Transactions
	if len(shown) > maxTransactions {
		shown = shown[:maxTransactions]
	}
	for _, t := range shown {
		rows = append(rows, transactionRow(t))
	}
	if extra := len(p.Transactions) - len(shown); extra > 0 {
		rows = append(rows, mutedStyle.Render(fmt.Sprintf("  and %d more", extra)))
	}
	return strings.Join(rows, "\n")
}

func transactionRow(t domain.Transaction) string {
	label := "-"
	switch {
	case t.Merchant != nil && *t.Merchant != "":
		label = *t.Merchant
	case t.Description != nil && *t.Description != "":
		label = *t.Description
	}

	signed := t.SignedAmount()
	amount := format.Currency(&signed, t.Currency)
	if t.IsCredit() {
		amount = incomeStyle.Render("+" + amount)
	} else {
		amount = expenseStyle.Render(amount)
	}

	return fmt.Sprintf("  %s  %-22s %-14s %s", t.TxnDate.Format("02 Jan"), truncate(label, 22), t.DisplayCategory(), amount)
}

func (m Model) footer(p viewmodel.Projection) string {
	help := "/ search • r reload • ↑↓ move • enter open • q quit"
	if p.View.Kind == viewmodel.ViewAccountDetail {
		help = "/ search • r reload • esc back • q quit"
	}

	var status string
	switch {
	case m.loading:
		status = mutedStyle.Render("Refreshing...")
	case m.status != "":
		status = errorStyle.Render(m.status)
	case p.LoadedAt != nil:
		status = mutedStyle.Render("Updated " + p.LoadedAt.Local().Format("15:04:05"))
	}

	if status == "" {
		return mutedStyle.Render(help)
	}
	return status + "\n" + mutedStyle.Render(help)
}

// currencyOf picks the display currency for cross-account totals
func currencyOf(accounts []domain.Account) string {
	if len(accounts) == 0 {
		return domain.DefaultCurrency
	}
	code := accounts[0].Currency
	for _, a := range accounts[1:] {
		if a.Currency != code {
			return domain.DefaultCurrency
		}
	}
	return code
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
