package core

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Metrics are the dashboard headline figures, a function of the full
// invoice and expense collections at the moment of computation.
type Metrics struct {
	Revenue      Amount `json:"revenue"`
	PaidRevenue  Amount `json:"paidRevenue"`
	ExpenseTotal Amount `json:"expenseTotal"`
	TaxCollected Amount `json:"taxCollected"`
	TaxPaid      Amount `json:"taxPaid"`
	NetProfit    Amount `json:"netProfit"`
}

// MonthTotal is one point of a month-bucketed series. Month is a
// YYYY-MM key, so lexicographic order is chronological order.
type MonthTotal struct {
	Month string `json:"month"`
	Total Amount `json:"total"`
}

// CategoryTotal is one row of the expense-by-category rollup.
type CategoryTotal struct {
	Category string `json:"category"`
	Total    Amount `json:"total"`
}

// TaxSummary is the GST compliance box: output tax on issued
// invoices against input tax paid on expenses.
type TaxSummary struct {
	Collected Amount `json:"collected"`
	Paid      Amount `json:"paid"`
	NetDue    Amount `json:"netDue"`
	// FilingProgress is paid as a rounded percentage of collected,
	// capped at 100. Zero collected reads as zero progress.
	FilingProgress int `json:"filingProgress"`
}

// CountsAsRevenue reports whether an invoice participates in revenue
// recognition. Paid and Sent count; Draft is unissued and Overdue is
// unresolved revenue, so both are excluded.
func CountsAsRevenue(st Status) bool {
	return st == StatusPaid || st == StatusSent
}

// ComputeMetrics folds the collections into dashboard metrics. All
// sums start at zero, so empty collections yield zero metrics.
func ComputeMetrics(invoices []Invoice, expenses []Expense) Metrics {
	var m Metrics
	for _, inv := range invoices {
		totals := ComputeInvoiceTotals(inv)
		if CountsAsRevenue(inv.Status) {
			m.Revenue = m.Revenue.Add(totals.GrandTotal)
			m.TaxCollected = m.TaxCollected.Add(totals.TaxTotal)
		}
		if inv.Status == StatusPaid {
			m.PaidRevenue = m.PaidRevenue.Add(totals.GrandTotal)
		}
	}
	for _, e := range expenses {
		m.ExpenseTotal = m.ExpenseTotal.Add(e.Amount)
		m.TaxPaid = m.TaxPaid.Add(e.TaxAmount)
	}
	m.NetProfit = m.Revenue.Sub(m.ExpenseTotal)
	return m
}

// monthKey extracts the YYYY-MM bucket from an ISO date string.
func monthKey(date string) (string, bool) {
	date = strings.TrimSpace(date)
	if len(date) < 7 {
		return "", false
	}
	return date[:7], true
}

// SeriesByMonth groups records into month buckets and sums valueOf
// over each. The result is sorted ascending by month key with exactly
// one entry per distinct month. Records whose date is missing or too
// short to carry a month are not bucketed; they are returned as the
// unscheduled count so callers can surface them instead of silently
// charting them in the wrong month.
func SeriesByMonth[T any](records []T, dateOf func(T) string, valueOf func(T) Amount) ([]MonthTotal, int) {
	buckets := make(map[string]Amount)
	unscheduled := 0
	for _, r := range records {
		key, ok := monthKey(dateOf(r))
		if !ok {
			unscheduled++
			continue
		}
		buckets[key] = buckets[key].Add(valueOf(r))
	}

	series := make([]MonthTotal, 0, len(buckets))
	for key, total := range buckets {
		series = append(series, MonthTotal{Month: key, Total: total})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Month < series[j].Month })
	return series, unscheduled
}

// SeriesByCategory totals expenses per category, in first-seen order,
// along with the grand total for share-of-total displays. Category
// values are taken as given; nothing restricts them to the seeded
// list.
func SeriesByCategory(expenses []Expense) ([]CategoryTotal, Amount) {
	index := make(map[string]int)
	var rows []CategoryTotal
	var grand Amount
	for _, e := range expenses {
		i, ok := index[e.Category]
		if !ok {
			i = len(rows)
			index[e.Category] = i
			rows = append(rows, CategoryTotal{Category: e.Category})
		}
		rows[i].Total = rows[i].Total.Add(e.Amount)
		grand = grand.Add(e.Amount)
	}
	return rows, grand
}

// SharePercent returns part as a rounded percentage of total, capped
// at 100. A zero total always reads as 0, never a division error.
func SharePercent(part, total Amount) int {
	if total.IsZero() {
		return 0
	}
	pct := part.Decimal().Mul(hundred).Div(total.Decimal()).Round(0).IntPart()
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return int(pct)
}

// ComputeTaxSummary builds the compliance view: tax collected on
// revenue-recognized invoices versus input tax paid on expenses.
func ComputeTaxSummary(invoices []Invoice, expenses []Expense) TaxSummary {
	var collected, paid Amount
	for _, inv := range invoices {
		if CountsAsRevenue(inv.Status) {
			collected = collected.Add(ComputeInvoiceTotals(inv).TaxTotal)
		}
	}
	for _, e := range expenses {
		paid = paid.Add(e.TaxAmount)
	}
	return TaxSummary{
		Collected:      collected,
		Paid:           paid,
		NetDue:         collected.Sub(paid).ClampNonNegative(),
		FilingProgress: SharePercent(paid, collected),
	}
}

// NextInvoiceNumber suggests a display number for a new invoice:
// INV-YYYYMMDD-NNN where NNN continues from the current count. The
// suggestion is editable and uniqueness is not enforced here.
func NextInvoiceNumber(invoices []Invoice, now time.Time) string {
	return fmt.Sprintf("INV-%s-%03d", now.Format("20060102"), len(invoices)+1)
}
