package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"billbook/internal/core"
)

// handleExportReport serves the full dataset as a JSON document the UI
// offers as a download.
func (s *Server) handleExportReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	invoices, err := s.invoices.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Export list invoices error", "error", err)
		http.Error(w, "failed to export report", http.StatusInternalServerError)
		return
	}
	expenses, err := s.expenses.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Export list expenses error", "error", err)
		http.Error(w, "failed to export report", http.StatusInternalServerError)
		return
	}

	report := struct {
		Invoices []core.Invoice `json:"invoices"`
		Expenses []core.Expense `json:"expenses"`
		Metrics  core.Metrics   `json:"metrics"`
	}{
		Invoices: invoices,
		Expenses: expenses,
		Metrics:  core.ComputeMetrics(invoices, expenses),
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="report.json"`)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		slog.ErrorContext(r.Context(), "Export encode error", "error", err)
	}
}
