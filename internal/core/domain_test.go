package core

import (
	"encoding/json"
	"testing"
)

func TestInvoiceValidate(t *testing.T) {
	good := Invoice{ID: "a", InvoiceNumber: "INV-1", IssueDate: "2026-01-15"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Invoice{
		{InvoiceNumber: "INV-1", IssueDate: "2026-01-15"},            // no id
		{ID: "a", IssueDate: "2026-01-15"},                           // no number
		{ID: "a", InvoiceNumber: "INV-1", IssueDate: "15/01/2026"},   // bad date
		{ID: "a", InvoiceNumber: "INV-1", IssueDate: "2026-01-15", DueDate: "soon"},
	}
	for i, inv := range bads {
		if err := inv.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{ID: "a", Date: "2026-01-15", Category: "Rent", Amount: AmountFromInt(100)}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Expense{
		{Date: "2026-01-15", Category: "Rent", Amount: AmountFromInt(1)},
		{ID: "a", Date: "yesterday", Category: "Rent", Amount: AmountFromInt(1)},
		{ID: "a", Date: "2026-01-15", Category: "Rent"}, // zero amount
		{ID: "a", Date: "2026-01-15", Amount: AmountFromInt(1)},
	}
	for i, e := range bads {
		if err := e.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestExpenseLegacyTaxKey(t *testing.T) {
	var e Expense
	if err := json.Unmarshal([]byte(`{"id":"x","date":"2026-01-01","category":"Rent","amount":100,"tax":"12.5"}`), &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if e.TaxAmount.String() != "12.5" {
		t.Fatalf("legacy tax key: taxAmount = %s, want 12.5", e.TaxAmount)
	}

	// Canonical key wins when both are present.
	if err := json.Unmarshal([]byte(`{"taxAmount":7,"tax":99}`), &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if e.TaxAmount.String() != "7" {
		t.Fatalf("canonical key should win, got %s", e.TaxAmount)
	}

	// Written back under the canonical key only.
	b, err := json.Marshal(Expense{TaxAmount: AmountFromInt(7)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if _, ok := raw["taxAmount"]; !ok {
		t.Fatalf("marshal missing taxAmount key: %s", b)
	}
	if _, ok := raw["tax"]; ok {
		t.Fatalf("marshal should not emit legacy tax key: %s", b)
	}
}

func TestInvoiceJSONRoundTrip(t *testing.T) {
	inv := Invoice{
		ID:            "id-1",
		InvoiceNumber: "INV-20260829-001",
		IssueDate:     "2026-08-29",
		DueDate:       "2026-09-05",
		Customer:      Customer{Name: "Acme", Email: "a@acme.test", TaxID: "29ABCDE1234F1Z5"},
		Items:         []LineItem{item(2, 100, 10, 18)},
		TaxRegime:     TaxRegimeCGSTSGST,
		AmountPaid:    AmountFromInt(50),
		Status:        StatusSent,
		Notes:         "net 7",
	}
	b, err := json.Marshal(inv)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Invoice
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.InvoiceNumber != inv.InvoiceNumber || back.TaxRegime != inv.TaxRegime || len(back.Items) != 1 {
		t.Fatalf("round trip lost fields: %+v", back)
	}
	if !ComputeInvoiceTotals(back).GrandTotal.Equal(ComputeInvoiceTotals(inv).GrandTotal) {
		t.Fatalf("round trip changed valuation")
	}
}
