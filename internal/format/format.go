package format

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// Currency renders amount in code's currency with two fraction digits.
// A nil amount renders as zero. Codes missing from the currency table fall
// back to "<CODE> 1,234.50". INR uses lakh/crore grouping.
func Currency(amount *decimal.Decimal, code string) string {
	d := decimal.Zero
	if amount != nil {
		d = *amount
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		code = domain.DefaultCurrency
	}

	cents := d.Round(2).Shift(2).IntPart()

	cur := money.GetCurrency(code)
	if cur == nil {
		return money.NewFormatter(2, ".", ",", code, "$ 1").Format(cents)
	}
	if code == "INR" {
		return indian(cents, cur)
	}
	return money.NewFormatter(2, cur.Decimal, cur.Thousand, cur.Grapheme, cur.Template).Format(cents)
}

// indian groups the last three integer digits, then pairs (12,34,567)
func indian(cents int64, cur *money.Currency) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	units := fmt.Sprintf("%d", cents/100)
	frac := fmt.Sprintf("%02d", cents%100)

	grouped := units
	if len(units) > 3 {
		head, tail := units[:len(units)-3], units[len(units)-3:]
		var parts []string
		for len(head) > 2 {
			parts = append([]string{head[len(head)-2:]}, parts...)
			head = head[:len(head)-2]
		}
		parts = append([]string{head}, parts...)
		grouped = strings.Join(parts, cur.Thousand) + cur.Thousand + tail
	}

	result := strings.Replace(cur.Template, "1", grouped+cur.Decimal+frac, 1)
	result = strings.Replace(result, "$", cur.Grapheme, 1)
	if neg {
		result = "-" + result
	}
	return result
}

// Label turns an API enum such as "credit_card" into "Credit Card"
func Label(s string) string {
	return titleCaser.String(strings.ReplaceAll(strings.TrimSpace(s), "_", " "))
}

// Percent renders a budget percentage with no decimals
func Percent(p float64) string {
	return fmt.Sprintf("%.0f%%", p)
}
