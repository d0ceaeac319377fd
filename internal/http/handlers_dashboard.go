package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"billbook/internal/core"
)

type monthRow struct {
	Month  string
	Amount string
	Width  int
}

type categoryRow struct {
	Name   string
	Amount string
	Share  int
}

type dashboardView struct {
	Revenue      string
	PaidRevenue  string
	ExpenseTotal string
	TaxCollected string
	TaxPaid      string
	NetProfit    string
	NetLoss      bool

	RevenueByMonth      []monthRow
	ExpenseByMonth      []monthRow
	UnscheduledInvoices int
	UnscheduledExpenses int

	Categories    []categoryRow
	CategoryTotal string

	TaxNetDue      string
	FilingProgress int

	InvoiceCount int
	ExpenseCount int
}

// buildDashboardView folds the stored collections into everything the
// dashboard page and partial render.
func (s *Server) buildDashboardView(ctx context.Context) (dashboardView, error) {
	invoices, err := s.invoices.List(ctx)
	if err != nil {
		return dashboardView{}, fmt.Errorf("list invoices: %w", err)
	}
	expenses, err := s.expenses.List(ctx)
	if err != nil {
		return dashboardView{}, fmt.Errorf("list expenses: %w", err)
	}

	m := core.ComputeMetrics(invoices, expenses)
	tax := core.ComputeTaxSummary(invoices, expenses)

	var revenueInvoices []core.Invoice
	for _, inv := range invoices {
		if core.CountsAsRevenue(inv.Status) {
			revenueInvoices = append(revenueInvoices, inv)
		}
	}
	revSeries, revUnscheduled := core.SeriesByMonth(revenueInvoices,
		func(inv core.Invoice) string { return inv.IssueDate },
		func(inv core.Invoice) core.Amount { return core.ComputeInvoiceTotals(inv).GrandTotal })
	expSeries, expUnscheduled := core.SeriesByMonth(expenses,
		func(e core.Expense) string { return e.Date },
		func(e core.Expense) core.Amount { return e.Amount })

	rows, grand := core.SeriesByCategory(expenses)

	view := dashboardView{
		Revenue:      formatRupees(m.Revenue),
		PaidRevenue:  formatRupees(m.PaidRevenue),
		ExpenseTotal: formatRupees(m.ExpenseTotal),
		TaxCollected: formatRupees(m.TaxCollected),
		TaxPaid:      formatRupees(m.TaxPaid),
		NetProfit:    formatRupees(m.NetProfit),
		NetLoss:      m.NetProfit.Sign() < 0,

		RevenueByMonth:      monthRows(revSeries),
		ExpenseByMonth:      monthRows(expSeries),
		UnscheduledInvoices: revUnscheduled,
		UnscheduledExpenses: expUnscheduled,

		CategoryTotal: formatRupees(grand),

		TaxNetDue:      formatRupees(tax.NetDue),
		FilingProgress: tax.FilingProgress,

		InvoiceCount: len(invoices),
		ExpenseCount: len(expenses),
	}
	for _, r := range rows {
		view.Categories = append(view.Categories, categoryRow{
			Name:   r.Category,
			Amount: formatRupees(r.Total),
			Share:  core.SharePercent(r.Total, grand),
		})
	}
	return view, nil
}

// monthRows scales each month bar against the largest bucket so the
// chart fills its track.
func monthRows(series []core.MonthTotal) []monthRow {
	var max core.Amount
	for _, p := range series {
		if p.Total.Cmp(max) > 0 {
			max = p.Total
		}
	}
	rows := make([]monthRow, 0, len(series))
	for _, p := range series {
		width := core.SharePercent(p.Total, max)
		if width > 0 && width < 2 {
			width = 2
		}
		rows = append(rows, monthRow{Month: p.Month, Amount: formatRupees(p.Total), Width: width})
	}
	return rows
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	view, err := s.buildDashboardView(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Dashboard build error", "error", err)
		http.Error(w, "failed to load dashboard", http.StatusInternalServerError)
		return
	}

	if err := s.templates.ExecuteTemplate(w, "index.html", view); err != nil {
		slog.ErrorContext(r.Context(), "Index template execution failed", "error", err, "template", "index.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleDashboardOverview renders the dashboard partial for htmx refreshes.
func (s *Server) handleDashboardOverview(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	view, err := s.buildDashboardView(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Dashboard overview error", "error", err)
		_, _ = w.Write([]byte(`<section id="dashboard" class="dashboard"><div class="placeholder">Failed to load dashboard</div></section>`))
		return
	}
	if s.templates == nil {
		_, _ = w.Write([]byte(`<section id="dashboard" class="dashboard"><div class="placeholder">Revenue: ` + view.Revenue + `</div></section>`))
		return
	}
	if err := s.templates.ExecuteTemplate(w, "dashboard_overview.html", view); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "dashboard_overview.html")
		_, _ = w.Write([]byte(`<section id="dashboard" class="dashboard"><div class="placeholder">Failed to render dashboard</div></section>`))
	}
}
