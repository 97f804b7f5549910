package pricing

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/fforsikring/prisberegner/internal/roles"
)

// placeholder is shown for an employee slot without a selected role.
const placeholder = "—"

var danishPrinter = message.NewPrinter(language.Danish)

// Row is one line of the price breakdown: one per employee.
type Row struct {
	Index  int     `json:"index"`
	Label  string  `json:"label"`
	Price  float64 `json:"price"`
	Amount string  `json:"amount"`
}

// Total sums the table price of every selected role and rounds to the
// nearest whole krone. A selection missing from the table contributes 0.
func Total(selections []string, table *roles.PriceTable) int {
	var sum float64
	for _, label := range selections {
		if price, ok := table.PriceFor(label); ok {
			sum += price
		}
	}
	return int(math.Round(sum))
}

// Breakdown renders one row per employee slot with the da-DK formatted
// amount used by the widget.
func Breakdown(selections []string, table *roles.PriceTable) []Row {
	rows := make([]Row, 0, len(selections))
	for i, label := range selections {
		price, _ := table.PriceFor(label)
		display := label
		if display == "" {
			display = placeholder
		}
		rows = append(rows, Row{
			Index:  i + 1,
			Label:  display,
			Price:  price,
			Amount: FormatAmount(price),
		})
	}
	return rows
}

// FormatAmount renders a price with Danish digit grouping and two
// decimals, e.g. "1.234,50 kr.".
func FormatAmount(price float64) string {
	return danishPrinter.Sprintf("%.2f kr.", price)
}

// FormatTotal renders a rounded total, e.g. "3.900 kr.".
func FormatTotal(total int) string {
	return danishPrinter.Sprintf("%d kr.", total)
}
