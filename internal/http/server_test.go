package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"billbook/internal/core"
	"billbook/internal/memory"
	"billbook/internal/services"
)

func newTestServer() (*Server, *memory.Store) {
	store := memory.New()
	return NewServer(":0",
		services.NewInvoiceService(store, nil),
		services.NewExpenseService(store, nil)), store
}

func postForm(srv *Server, path string, form url.Values) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func TestDashboardAndHealth(t *testing.T) {
	srv, _ := newTestServer()
	defer srv.rateLimiter.stop()

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != 200 {
		t.Fatalf("dashboard status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Dashboard") {
		t.Fatalf("dashboard body missing heading")
	}

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		srv.Handler.ServeHTTP(rr, req)
		if rr.Code != 200 {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}
}

func TestCreateInvoiceValidationAndSuccess(t *testing.T) {
	srv, _ := newTestServer()
	defer srv.rateLimiter.stop()

	// Invalid issue date
	rr := postForm(srv, "/invoices", url.Values{
		"invoice_number": {"INV-20250101-001"},
		"issue_date":     {"01/01/2025"},
	})
	if rr.Code != 422 {
		t.Fatalf("expected 422 for bad date, got %d", rr.Code)
	}

	// Valid invoice with two item rows, one blank row dropped
	form := url.Values{
		"invoice_number": {"INV-20250101-001"},
		"issue_date":     {"2025-01-01"},
		"customer_name":  {"Acme"},
		"gst_type":       {"CGST_SGST"},
		"status":         {"Sent"},
		"shipping":       {"0"},
		"amount_paid":    {"50"},
		"item_name":      {"Design work", ""},
		"item_qty":       {"2", ""},
		"item_price":     {"100", ""},
		"item_discount":  {"10", ""},
		"item_tax_rate":  {"18", ""},
	}
	rr = postForm(srv, "/invoices", form)
	if rr.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "₹212.40") {
		t.Fatalf("success fragment missing grand total: %s", rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "₹162.40") {
		t.Fatalf("success fragment missing due amount: %s", rr.Body.String())
	}

	// The saved invoice shows on the invoices page with its split
	rr2 := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/invoices", nil)
	srv.Handler.ServeHTTP(rr2, req)
	if rr2.Code != 200 {
		t.Fatalf("invoices page status=%d", rr2.Code)
	}
	body := rr2.Body.String()
	if !strings.Contains(body, "INV-20250101-001") {
		t.Fatalf("invoices page missing saved invoice")
	}
	if !strings.Contains(body, "₹16.20") {
		t.Fatalf("invoices page missing CGST half: %s", body)
	}
}

func TestInvoiceStatusAndDelete(t *testing.T) {
	srv, store := newTestServer()
	defer srv.rateLimiter.stop()

	rr := postForm(srv, "/invoices", url.Values{
		"invoice_number": {"INV-20250101-001"},
		"issue_date":     {"2025-01-01"},
		"status":         {"Draft"},
		"item_name":      {"Work"},
		"item_qty":       {"1"},
		"item_price":     {"100"},
	})
	if rr.Code != 200 {
		t.Fatalf("create status=%d", rr.Code)
	}

	invoices, err := store.ListInvoices(context.Background())
	if err != nil || len(invoices) != 1 {
		t.Fatalf("stored invoices = %d (%v)", len(invoices), err)
	}
	id := invoices[0].ID

	rr = postForm(srv, "/invoices/status", url.Values{"id": {id}, "status": {"Paid"}})
	if rr.Code != 200 {
		t.Fatalf("status update=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Paid") {
		t.Fatalf("status fragment missing new status")
	}

	rr = postForm(srv, "/invoices/status", url.Values{"id": {"missing"}, "status": {"Paid"}})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing invoice, got %d", rr.Code)
	}

	rr = postForm(srv, "/invoices/delete", url.Values{"id": {id}})
	if rr.Code != 200 {
		t.Fatalf("delete status=%d", rr.Code)
	}
	rr = postForm(srv, "/invoices/delete", url.Values{"id": {id}})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", rr.Code)
	}
}

func TestCreateExpenseValidationAndSuccess(t *testing.T) {
	srv, _ := newTestServer()
	defer srv.rateLimiter.stop()

	// Wrong method on delete endpoint
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/expenses/delete", nil)
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}

	// Amount coerces to zero, which fails validation
	rr = postForm(srv, "/expenses", url.Values{
		"date":     {"2025-02-10"},
		"category": {"Software"},
		"amount":   {"abc"},
	})
	if rr.Code != 422 {
		t.Fatalf("expected 422 for zero amount, got %d", rr.Code)
	}

	rr = postForm(srv, "/expenses", url.Values{
		"date":       {"2025-02-10"},
		"category":   {"Software"},
		"amount":     {"49.99"},
		"tax_amount": {"9"},
	})
	if rr.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "₹49.99") {
		t.Fatalf("success fragment missing amount: %s", rr.Body.String())
	}
}

func TestExportReport(t *testing.T) {
	srv, _ := newTestServer()
	defer srv.rateLimiter.stop()

	rr := postForm(srv, "/expenses", url.Values{
		"date":     {"2025-02-10"},
		"category": {"Travel"},
		"amount":   {"75"},
	})
	if rr.Code != 200 {
		t.Fatalf("create expense status=%d", rr.Code)
	}

	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/export/report.json", nil)
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != 200 {
		t.Fatalf("export status=%d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("export content type = %q", ct)
	}

	var report struct {
		Invoices []core.Invoice `json:"invoices"`
		Expenses []core.Expense `json:"expenses"`
		Metrics  core.Metrics   `json:"metrics"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if len(report.Expenses) != 1 {
		t.Fatalf("exported %d expenses, want 1", len(report.Expenses))
	}
	if report.Metrics.ExpenseTotal.String() != "75" {
		t.Fatalf("exported expense total = %s", report.Metrics.ExpenseTotal.String())
	}
}

func TestDashboardPartial(t *testing.T) {
	srv, _ := newTestServer()
	defer srv.rateLimiter.stop()

	rr := postForm(srv, "/invoices", url.Values{
		"invoice_number": {"INV-20250101-001"},
		"issue_date":     {"2025-01-15"},
		"status":         {"Paid"},
		"gst_type":       {"IGST"},
		"item_name":      {"Work"},
		"item_qty":       {"1"},
		"item_price":     {"100"},
		"item_tax_rate":  {"18"},
	})
	if rr.Code != 200 {
		t.Fatalf("create status=%d", rr.Code)
	}

	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ui/dashboard", nil)
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != 200 {
		t.Fatalf("partial status=%d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "2025-01") {
		t.Fatalf("partial missing month bucket: %s", body)
	}
	if !strings.Contains(body, "₹118.00") {
		t.Fatalf("partial missing revenue: %s", body)
	}
}
