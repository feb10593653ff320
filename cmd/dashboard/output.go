package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/domain"
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/format"
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/tui"
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/viewmodel"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	warnStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("238"))).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func printOverview(w io.Writer, p viewmodel.Projection, limit int) {
	currency := currencyOf(p.Accounts)

	if p.SelectedAccount != nil {
		a := p.SelectedAccount
		fmt.Fprintln(w, headingStyle.Render(fmt.Sprintf("%s %s", a.BankName, a.MaskedAccount)))
		fmt.Fprintf(w, "%s  balance %s\n\n", format.Label(string(a.AccountType)), format.Currency(&a.Balance, a.Currency))
		currency = a.Currency
	} else {
		fmt.Fprintln(w, headingStyle.Render("Hello, "+p.User.Name))
		fmt.Fprintln(w)
	}

	totals := newTable("Balance", "Income", "Expenses", "Net flow", "Transactions").
		Row(
			format.Currency(&p.Totals.Balance, currency),
			format.Currency(&p.Totals.Income, currency),
			format.Currency(&p.Totals.Expenses, currency),
			format.Currency(&p.Totals.NetFlow, currency),
			fmt.Sprint(p.Totals.Count),
		)
	fmt.Fprintln(w, totals.Render())

	if p.SelectedAccount == nil && len(p.Accounts) > 0 {
		accounts := newTable("ID", "Bank", "Type", "Account", "Balance")
		for _, a := range p.Accounts {
			accounts.Row(fmt.Sprint(a.ID), a.BankName, format.Label(string(a.AccountType)), a.MaskedAccount, format.Currency(&a.Balance, a.Currency))
		}
		fmt.Fprintln(w, accounts.Render())
	}

	if p.AccountStats != nil && len(p.AccountStats.CategoryBreakdown) > 0 {
		breakdown := newTable("Category", "Spent")
		for _, ct := range p.AccountStats.CategoryBreakdown {
			breakdown.Row(ct.Category, format.Currency(&ct.Total, currency))
		}
		fmt.Fprintln(w, breakdown.Render())
	}

	if p.BudgetOverview.Alert {
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("%d of %d budgets are over their limit", p.BudgetOverview.OverBudget, p.BudgetOverview.Total)))
	}

	txns := p.Transactions
	if p.SearchTerm != "" {
		fmt.Fprintf(w, "Transactions matching %q: %d\n", p.SearchTerm, len(txns))
	}
	if len(txns) == 0 {
		fmt.Fprintln(w, "No transactions.")
		return
	}
	if limit > 0 && len(txns) > limit {
		txns = txns[:limit]
	}
	list := newTable("Date", "Merchant", "Category", "Amount")
	for _, t := range txns {
		amount := t.SignedAmount()
		cur := t.Currency
		if cur == "" {
			cur = currency
		}
		list.Row(t.TxnDate.Format("2006-01-02"), deref(t.Merchant, "-"), t.DisplayCategory(), format.Currency(&amount, cur))
	}
	fmt.Fprintln(w, list.Render())
}

func printBudgets(w io.Writer, p viewmodel.Projection) {
	if len(p.Budgets) == 0 {
		fmt.Fprintln(w, "No budgets.")
		return
	}
	currency := currencyOf(p.Accounts)
	t := newTable("Category", "Period", "Spent", "Limit", "Used", "")
	for _, line := range p.Budgets {
		b := line.Budget
		used, bar := format.Percent(line.Status.Percent), tui.Bar(line.Status)
		if line.Error != "" {
			used, bar = "invalid limit", ""
		}
		t.Row(b.Category, fmt.Sprintf("%04d-%02d", b.Year, b.Month),
			format.Currency(&b.SpentAmount, currency), format.Currency(&b.LimitAmount, currency),
			used, bar)
	}
	fmt.Fprintln(w, t.Render())
	if p.BudgetOverview.Alert {
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("%d of %d budgets are over their limit", p.BudgetOverview.OverBudget, p.BudgetOverview.Total)))
	}
}

func printRules(w io.Writer, rules []domain.CategoryRule) {
	if len(rules) == 0 {
		fmt.Fprintln(w, "No matching rules.")
		return
	}
	t := newTable("ID", "Category", "Keywords", "Merchants", "Custom")
	for _, r := range rules {
		custom := ""
		if r.IsCustom {
			custom = "yes"
		}
		t.Row(fmt.Sprint(r.ID), r.CategoryName, strings.Join(r.Keywords, ", "), strings.Join(r.Merchants, ", "), custom)
	}
	fmt.Fprintln(w, t.Render())
}

func printBills(w io.Writer, bills []domain.Bill, currency string) {
	if len(bills) == 0 {
		fmt.Fprintln(w, "No bills.")
		return
	}
	t := newTable("ID", "Biller", "Due", "Amount", "Status")
	for _, b := range bills {
		t.Row(fmt.Sprint(b.ID), b.BillerName, b.DueDate.Format("2006-01-02"), format.Currency(&b.AmountDue, currency), format.Label(string(b.Status)))
	}
	fmt.Fprintln(w, t.Render())
}

func printTransfer(w io.Writer, t *domain.Transfer, accounts []domain.Account) {
	if t == nil {
		return
	}
	code := t.Currency
	if code == "" {
		code = currencyOf(accounts)
	}
	fmt.Fprintf(w, "Moved %s from account %d to account %d (%s)\n", format.Currency(&t.Amount, code), t.FromAccountID, t.ToAccountID, t.Status)
	if t.BudgetAlert != "" {
		fmt.Fprintln(w, warnStyle.Render(t.BudgetAlert))
	}
	for _, a := range accounts {
		if a.ID == t.FromAccountID || a.ID == t.ToAccountID {
			fmt.Fprintf(w, "  %-18s %s\n", a.BankName, format.Currency(&a.Balance, a.Currency))
		}
	}
}

func printImport(w io.Writer, name string, result *domain.CSVImportResult) {
	if result == nil {
		return
	}
	fmt.Fprintf(w, "Imported %d transactions from %s\n", result.TransactionsCreated, name)
	for _, e := range result.Errors {
		fmt.Fprintln(w, warnStyle.Render("  "+e))
	}
}

// currencyOf picks the currency of the first account
func currencyOf(accounts []domain.Account) string {
	for _, a := range accounts {
		if a.Currency != "" {
			return a.Currency
		}
	}
	return domain.DefaultCurrency
}

func deref(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}
