package fintables

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ternarybob/prospectus/internal/marketdata"
)

// maxPeriods caps how many fiscal years each table shows.
const maxPeriods = 3

// lineItem maps a display label to the statement keys that may hold it.
// Later keys are fallbacks for symbols reported under alternate names.
type lineItem struct {
	label string
	keys  []string
}

var incomeItems = []lineItem{
	{"Total Revenue", []string{"totalRevenue"}},
	{"Cost of Revenue", []string{"costOfRevenue"}},
	{"Gross Profit", []string{"grossProfit"}},
	{"Operating Expenses", []string{"totalOperatingExpenses", "operatingExpenses"}},
	{"Operating Income", []string{"operatingIncome"}},
	{"EBITDA", []string{"ebitda"}},
	{"Interest Expense", []string{"interestExpense"}},
	{"Pretax Income", []string{"incomeBeforeTax"}},
	{"Tax Provision", []string{"incomeTaxExpense", "taxProvision"}},
	{"Net Income", []string{"netIncome", "netIncomeApplicableToCommonShares"}},
}

var balanceItems = []lineItem{
	{"Total Assets", []string{"totalAssets"}},
	{"Current Assets", []string{"totalCurrentAssets"}},
	{"Cash & Equivalents", []string{"cashAndEquivalents", "cash"}},
	{"Total Liabilities", []string{"totalLiab", "totalLiabilities"}},
	{"Current Liabilities", []string{"totalCurrentLiabilities"}},
	{"Long-Term Debt", []string{"longTermDebt"}},
	{"Short-Term Debt", []string{"shortLongTermDebt", "shortTermDebt"}},
	{"Shareholders' Equity", []string{"totalStockholderEquity"}},
	{"Net Working Capital", []string{"netWorkingCapital"}},
}

var cashFlowItems = []lineItem{
	{"Operating Cash Flow", []string{"totalCashFromOperatingActivities"}},
	{"Capital Expenditures", []string{"capitalExpenditures"}},
	{"Free Cash Flow", []string{"freeCashFlow"}},
	{"Investing Cash Flow", []string{"totalCashflowsFromInvestingActivities"}},
	{"Financing Cash Flow", []string{"totalCashFromFinancingActivities"}},
	{"Dividends Paid", []string{"dividendsPaid"}},
	{"Net Change in Cash", []string{"changeInCash"}},
}

// Build renders income statement, balance sheet, and cash flow tables as one
// HTML block. Missing statements render an explicit placeholder so the prompt
// never embeds an empty section silently.
func Build(f *marketdata.Fundamentals) string {
	var fin *marketdata.Financials
	if f != nil {
		fin = f.Financials
	}

	var b strings.Builder
	if fin == nil {
		b.WriteString(renderTable("INCOME STATEMENT", nil))
		b.WriteString(renderTable("BALANCE SHEET", nil))
		b.WriteString(renderTable("CASH FLOW", nil))
		return b.String()
	}

	b.WriteString(statementTable("INCOME STATEMENT", fin.IncomeStatement, incomeItems))
	b.WriteString(statementTable("BALANCE SHEET", fin.BalanceSheet, balanceItems))
	b.WriteString(statementTable("CASH FLOW", fin.CashFlow, cashFlowItems))
	return b.String()
}

func statementTable(title string, stmt *marketdata.FinancialStatement, items []lineItem) string {
	if stmt == nil || len(stmt.Yearly) == 0 {
		return renderTable(title, nil)
	}

	periods := recentPeriods(stmt)
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		values := make([]float64, len(periods))
		present := make([]bool, len(periods))
		any := false
		for i, period := range periods {
			if v, ok := lookupItem(stmt.Yearly[period], item.keys); ok {
				values[i], present[i] = v, true
				any = true
			}
		}
		if !any {
			continue
		}

		row := make([]string, 0, len(periods)+2)
		row = append(row, item.label)
		for i := range periods {
			if present[i] {
				row = append(row, formatValue(values[i]))
			} else {
				row = append(row, notAvailable)
			}
		}
		if len(periods) >= 2 {
			row = append(row, yoyChange(values[0], values[1], present[0] && present[1]))
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return renderTable(title, nil)
	}

	header := make([]string, 0, len(periods)+2)
	header = append(header, title)
	for _, period := range periods {
		header = append(header, periodLabel(period))
	}
	if len(periods) >= 2 {
		header = append(header, "YoY %")
	}
	return renderTable(title, append([][]string{header}, rows...))
}

// periodLabel renders a fiscal year-end date as a column heading. Yearly
// statement data is always reported actuals, hence the (A) suffix.
func periodLabel(period string) string {
	if len(period) >= 4 {
		return "FY" + period[:4] + " (A)"
	}
	return period
}

// recentPeriods returns up to maxPeriods fiscal year-end dates, newest first.
func recentPeriods(stmt *marketdata.FinancialStatement) []string {
	periods := make([]string, 0, len(stmt.Yearly))
	for period := range stmt.Yearly {
		periods = append(periods, period)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(periods)))
	if len(periods) > maxPeriods {
		periods = periods[:maxPeriods]
	}
	return periods
}

func lookupItem(period map[string]interface{}, keys []string) (float64, bool) {
	if period == nil {
		return 0, false
	}
	for _, key := range keys {
		if raw, ok := period[key]; ok {
			if v, ok := toFloat(raw); ok {
				return v, true
			}
		}
	}
	return 0, false
}

// renderTable emits a compact table. A nil rows slice renders the
// data-not-available placeholder.
func renderTable(title string, rows [][]string) string {
	if rows == nil {
		label := strings.ToUpper(title[:1]) + strings.ToLower(title[1:])
		return fmt.Sprintf("<p class=\"data-note\">%s data not available</p>\n", label)
	}

	var b strings.Builder
	b.WriteString("<table class=\"fin-table\">\n<thead><tr>")
	for i, cell := range rows[0] {
		if i == 0 {
			fmt.Fprintf(&b, "<th class=\"label\">%s</th>", cell)
		} else {
			fmt.Fprintf(&b, "<th>%s</th>", cell)
		}
	}
	b.WriteString("</tr></thead>\n<tbody>\n")
	for _, row := range rows[1:] {
		b.WriteString("<tr>")
		for i, cell := range row {
			if i == 0 {
				fmt.Fprintf(&b, "<td class=\"label\">%s</td>", cell)
			} else {
				fmt.Fprintf(&b, "<td>%s</td>", cell)
			}
		}
		b.WriteString("</tr>\n")
	}
	b.WriteString("</tbody>\n</table>\n")
	return b.String()
}
