package http

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"billbook/internal/core"
	"billbook/internal/ledger"
)

type expenseRow struct {
	ID       string
	Date     string
	Category string
	Amount   string
	Tax      string
	Note     string
}

type expensesView struct {
	Rows       []expenseRow
	Total      string
	Today      string
	Categories []string
}

func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.renderExpenses(w, r)
	case http.MethodPost:
		s.handleSaveExpense(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) renderExpenses(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	expenses, err := s.expenses.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Expense list error", "error", err)
		http.Error(w, "failed to load expenses", http.StatusInternalServerError)
		return
	}

	var total core.Amount
	view := expensesView{
		Today:      time.Now().Format(core.DateLayout),
		Categories: core.ExpenseCategories,
	}
	for _, e := range expenses {
		total = total.Add(e.Amount)
		view.Rows = append(view.Rows, expenseRow{
			ID:       e.ID,
			Date:     e.Date,
			Category: e.Category,
			Amount:   formatRupees(e.Amount),
			Tax:      formatRupees(e.TaxAmount),
			Note:     e.Note,
		})
	}
	view.Total = formatRupees(total)

	if err := s.templates.ExecuteTemplate(w, "expenses.html", view); err != nil {
		slog.ErrorContext(r.Context(), "Expenses template execution failed", "error", err, "template", "expenses.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleSaveExpense(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "error", err, "method", r.Method, "url", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="error">Invalid request format</div>`))
		return
	}

	e := core.Expense{
		ID:        strings.TrimSpace(r.Form.Get("id")),
		Date:      strings.TrimSpace(r.Form.Get("date")),
		Category:  sanitizeInput(r.Form.Get("category")),
		Amount:    core.ParseAmount(r.Form.Get("amount")),
		TaxAmount: core.ParseAmount(r.Form.Get("tax_amount")),
		Note:      sanitizeInput(r.Form.Get("note")),
		Receipt:   sanitizeInput(r.Form.Get("receipt")),
	}

	saved, err := s.expenses.Save(r.Context(), e)
	if err != nil {
		slog.ErrorContext(r.Context(), "Expense save error", "error", err, "category", e.Category)
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Invalid expense: ` + template.HTMLEscapeString(err.Error()) + `</div>`))
		return
	}

	w.Header().Set("HX-Trigger", `{"expense:saved": {"id": "`+template.JSEscapeString(saved.ID)+`"}}`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">Expense recorded: ` +
		template.HTMLEscapeString(saved.Category) + ` — ` +
		template.HTMLEscapeString(formatRupees(saved.Amount)) + `</div>`))
}

func (s *Server) handleExpenseDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="error">Invalid request format</div>`))
		return
	}

	id := strings.TrimSpace(r.Form.Get("id"))
	err := s.expenses.Delete(r.Context(), id)
	if errors.Is(err, ledger.ErrNotFound) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`<div class="error">Expense not found</div>`))
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Expense delete error", "error", err, "id", id)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="error">Failed to delete expense</div>`))
		return
	}

	w.Header().Set("HX-Trigger", `{"expense:deleted": {"id": "`+template.JSEscapeString(id)+`"}}`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">Expense deleted</div>`))
}
