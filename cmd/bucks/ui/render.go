package ui

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"

	"github.com/redmonkez12/mybucks/internal/transaction"
)

const (
	colAmount = 3
	timeFmt   = "2006-01-02 15:04"
)

// Balance sums the prices of the given transactions to two decimal places
func Balance(items []transaction.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range items {
		total = total.Add(decimal.NewFromFloat(t.Price))
	}
	return total.Round(2)
}

// FormatAmount renders a signed price with two decimals and an explicit + for income
func FormatAmount(price float64) string {
	d := decimal.NewFromFloat(price)
	if d.IsPositive() {
		return "+" + d.StringFixed(2)
	}
	return d.StringFixed(2)
}

// RenderTransactions writes the listing as a table followed by the page balance
func RenderTransactions(w io.Writer, result *transaction.ListResult) {
	if len(result.Transactions) == 0 {
		fmt.Fprintln(w, subtleStyle.Render("No transactions yet. Add one with `bucks add`."))
		return
	}

	items := result.Transactions
	rows := make([][]string, 0, len(items))
	for _, t := range items {
		rows = append(rows, []string{
			t.ID.String(),
			t.Datetime.Local().Format(timeFmt),
			t.Name,
			FormatAmount(t.Price),
			t.Description,
		})
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(subtleStyle).
		Headers("ID", "WHEN", "NAME", "AMOUNT", "DESCRIPTION").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == colAmount && row < len(items) && items[row].Price < 0:
				return expenseStyle.Padding(0, 1)
			case col == colAmount:
				return incomeStyle.Padding(0, 1)
			default:
				return cellStyle
			}
		})

	fmt.Fprintln(w, tbl.Render())

	p := result.Pagination
	fmt.Fprintln(w, subtleStyle.Render(fmt.Sprintf("showing %d-%d of %d",
		p.Offset+1, p.Offset+len(items), p.Total)))
	if p.HasMore {
		fmt.Fprintln(w, subtleStyle.Render("more available: use --offset "+strconv.Itoa(p.Offset+p.Limit)))
	}
	fmt.Fprintln(w, balanceStyle.Render("Balance: "+amountStyle(Balance(items)).Render(Balance(items).StringFixed(2))))
}

// RenderSummary writes income, expenses, balance and the latest transaction
func RenderSummary(w io.Writer, s *transaction.Summary) {
	fmt.Fprintln(w, titleStyle.Render("Summary"))
	fmt.Fprintf(w, "  Income:       %s\n", incomeStyle.Render(s.Income))
	fmt.Fprintf(w, "  Expenses:     %s\n", expenseStyle.Render(s.Expenses))

	balance, err := decimal.NewFromString(s.Balance)
	if err != nil {
		balance = decimal.Zero
	}
	fmt.Fprintf(w, "  Balance:      %s\n", amountStyle(balance).Bold(true).Render(s.Balance))
	fmt.Fprintf(w, "  Transactions: %d\n", s.Count)

	if s.Latest != nil {
		fmt.Fprintf(w, "  Latest:       %s %s (%s)\n",
			s.Latest.Name, FormatAmount(s.Latest.Price), s.Latest.Datetime.Local().Format(timeFmt))
	} else {
		fmt.Fprintln(w, subtleStyle.Render("  No transactions yet"))
	}
}

// PrintCreated confirms a new transaction
func PrintCreated(w io.Writer, t *transaction.Transaction) {
	fmt.Fprintln(w, successStyle.Render(fmt.Sprintf("Recorded %s %s", t.Name, FormatAmount(t.Price))))
	fmt.Fprintln(w, subtleStyle.Render("id "+t.ID.String()))
}

// PrintLoggedIn reports where the token was saved and when it expires
func PrintLoggedIn(w io.Writer, email, tokenPath string, expiresAt time.Time) {
	fmt.Fprintln(w, successStyle.Render("Logged in as "+email))
	fmt.Fprintln(w, subtleStyle.Render(fmt.Sprintf("token saved to %s, expires %s", tokenPath, expiresAt.Local().Format(timeFmt))))
}

// PrintSuccess prints a one-line success message
func PrintSuccess(w io.Writer, msg string) {
	fmt.Fprintln(w, successStyle.Render(msg))
}

// PrintError prints an error message.
func PrintError(w io.Writer, msg string) {
	fmt.Fprintln(w, errorStyle.Render("Error: "+msg))
}

func amountStyle(d decimal.Decimal) lipgloss.Style {
	if d.IsNegative() {
		return expenseStyle
	}
	return incomeStyle
}
