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

type invoiceRow struct {
	ID         string
	Number     string
	IssueDate  string
	DueDate    string
	Customer   string
	Status     string
	TaxRegime  string
	GrandTotal string
	DueAmount  string
	CGST       string
	SGST       string
	IGST       string
}

type invoicesView struct {
	Rows       []invoiceRow
	NextNumber string
	Today      string
	Statuses   []core.Status
	Regimes    []core.TaxRegime
}

func (s *Server) handleInvoices(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.renderInvoices(w, r)
	case http.MethodPost:
		s.handleSaveInvoice(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) renderInvoices(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	invoices, err := s.invoices.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Invoice list error", "error", err)
		http.Error(w, "failed to load invoices", http.StatusInternalServerError)
		return
	}

	view := invoicesView{
		NextNumber: core.NextInvoiceNumber(invoices, time.Now()),
		Today:      time.Now().Format(core.DateLayout),
		Statuses:   []core.Status{core.StatusDraft, core.StatusSent, core.StatusPaid, core.StatusOverdue},
		Regimes:    []core.TaxRegime{core.TaxRegimeNone, core.TaxRegimeCGSTSGST, core.TaxRegimeIGST},
	}
	for _, inv := range invoices {
		totals := core.ComputeInvoiceTotals(inv)
		view.Rows = append(view.Rows, invoiceRow{
			ID:         inv.ID,
			Number:     inv.InvoiceNumber,
			IssueDate:  inv.IssueDate,
			DueDate:    inv.DueDate,
			Customer:   inv.Customer.Name,
			Status:     string(inv.Status),
			TaxRegime:  string(inv.TaxRegime),
			GrandTotal: formatRupees(totals.GrandTotal),
			DueAmount:  formatRupees(totals.DueAmount),
			CGST:       formatRupees(totals.Split.CGST),
			SGST:       formatRupees(totals.Split.SGST),
			IGST:       formatRupees(totals.Split.IGST),
		})
	}

	if err := s.templates.ExecuteTemplate(w, "invoices.html", view); err != nil {
		slog.ErrorContext(r.Context(), "Invoices template execution failed", "error", err, "template", "invoices.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleSaveInvoice creates or updates an invoice from the htmx form.
// Line items arrive as parallel item_* arrays, one entry per row.
func (s *Server) handleSaveInvoice(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "error", err, "method", r.Method, "url", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="error">Invalid request format</div>`))
		return
	}

	inv := core.Invoice{
		ID:            strings.TrimSpace(r.Form.Get("id")),
		InvoiceNumber: sanitizeInput(r.Form.Get("invoice_number")),
		IssueDate:     strings.TrimSpace(r.Form.Get("issue_date")),
		DueDate:       strings.TrimSpace(r.Form.Get("due_date")),
		Customer: core.Customer{
			Name:  sanitizeInput(r.Form.Get("customer_name")),
			Email: sanitizeInput(r.Form.Get("customer_email")),
			TaxID: sanitizeInput(r.Form.Get("customer_tax_id")),
		},
		TaxRegime:      core.TaxRegime(strings.TrimSpace(r.Form.Get("gst_type"))),
		ShippingAmount: core.ParseAmount(r.Form.Get("shipping")),
		AmountPaid:     core.ParseAmount(r.Form.Get("amount_paid")),
		Status:         core.Status(strings.TrimSpace(r.Form.Get("status"))),
		Notes:          sanitizeInput(r.Form.Get("notes")),
	}
	if inv.TaxRegime == "" {
		inv.TaxRegime = core.TaxRegimeNone
	}

	names := r.Form["item_name"]
	qtys := r.Form["item_qty"]
	prices := r.Form["item_price"]
	discounts := r.Form["item_discount"]
	rates := r.Form["item_tax_rate"]
	for i, name := range names {
		item := core.LineItem{Name: sanitizeInput(name)}
		if i < len(qtys) {
			item.Quantity = core.ParseAmount(qtys[i])
		}
		if i < len(prices) {
			item.UnitPrice = core.ParseAmount(prices[i])
		}
		if i < len(discounts) {
			item.DiscountPercent = core.ParseAmount(discounts[i])
		}
		if i < len(rates) {
			item.TaxRatePercent = core.ParseAmount(rates[i])
		}
		// Blank trailing rows from the form are dropped.
		if item.Name == "" && item.Quantity.IsZero() && item.UnitPrice.IsZero() {
			continue
		}
		inv.Items = append(inv.Items, item)
	}

	saved, err := s.invoices.Save(r.Context(), inv)
	if err != nil {
		slog.ErrorContext(r.Context(), "Invoice save error", "error", err, "number", inv.InvoiceNumber)
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Invalid invoice: ` + template.HTMLEscapeString(err.Error()) + `</div>`))
		return
	}

	totals := core.ComputeInvoiceTotals(saved)
	w.Header().Set("HX-Trigger", `{"invoice:saved": {"id": "`+template.JSEscapeString(saved.ID)+`"}}`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">Invoice ` + template.HTMLEscapeString(saved.InvoiceNumber) +
		` saved — ` + template.HTMLEscapeString(formatRupees(totals.GrandTotal)) +
		` (due ` + template.HTMLEscapeString(formatRupees(totals.DueAmount)) + `)</div>`))
}

func (s *Server) handleInvoiceStatus(w http.ResponseWriter, r *http.Request) {
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
	status := core.Status(strings.TrimSpace(r.Form.Get("status")))
	updated, err := s.invoices.SetStatus(r.Context(), id, status)
	if errors.Is(err, ledger.ErrNotFound) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`<div class="error">Invoice not found</div>`))
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Invoice status error", "error", err, "id", id)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="error">Failed to update status</div>`))
		return
	}

	w.Header().Set("HX-Trigger", `{"invoice:saved": {"id": "`+template.JSEscapeString(id)+`"}}`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">` + template.HTMLEscapeString(updated.InvoiceNumber) +
		` marked ` + template.HTMLEscapeString(string(updated.Status)) + `</div>`))
}

func (s *Server) handleInvoiceDelete(w http.ResponseWriter, r *http.Request) {
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
	err := s.invoices.Delete(r.Context(), id)
	if errors.Is(err, ledger.ErrNotFound) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`<div class="error">Invoice not found</div>`))
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Invoice delete error", "error", err, "id", id)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="error">Failed to delete invoice</div>`))
		return
	}

	w.Header().Set("HX-Trigger", `{"invoice:deleted": {"id": "`+template.JSEscapeString(id)+`"}}`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">Invoice deleted</div>`))
}
