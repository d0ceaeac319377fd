package services

import (
	"context"
	"errors"
	"testing"

	"billbook/internal/amqp"
	"billbook/internal/core"
	"billbook/internal/ledger"
	"billbook/internal/memory"
)

type fakePublisher struct {
	messages []amqp.BackupMessage
	err      error
}

func (f *fakePublisher) PublishBackup(_ context.Context, msg *amqp.BackupMessage) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, *msg)
	return nil
}

func validInvoice() core.Invoice {
	return core.Invoice{
		InvoiceNumber: "INV-20250101-001",
		IssueDate:     "2025-01-01",
		Customer:      core.Customer{Name: "Acme"},
		Items: []core.LineItem{{
			Name:           "Design work",
			Quantity:       core.AmountFromFloat(1),
			UnitPrice:      core.AmountFromFloat(100),
			TaxRatePercent: core.AmountFromFloat(18),
		}},
		TaxRegime: core.TaxRegimeCGSTSGST,
		Status:    core.StatusDraft,
	}
}

func TestInvoiceServiceSaveAssignsIDAndPublishes(t *testing.T) {
	store := memory.New()
	pub := &fakePublisher{}
	svc := NewInvoiceService(store, pub)

	saved, err := svc.Save(context.Background(), validInvoice())
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.ID == "" {
		t.Fatalf("expected an ID to be assigned")
	}

	got, err := store.GetInvoice(context.Background(), saved.ID)
	if err != nil {
		t.Fatalf("GetInvoice: %v", err)
	}
	if got.InvoiceNumber != saved.InvoiceNumber {
		t.Fatalf("stored number = %q, want %q", got.InvoiceNumber, saved.InvoiceNumber)
	}

	if len(pub.messages) != 1 {
		t.Fatalf("published %d messages, want 1", len(pub.messages))
	}
	msg := pub.messages[0]
	if msg.Kind != amqp.KindInvoice || msg.ID != saved.ID || msg.Deleted {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestInvoiceServiceSaveNumbersWhenMissing(t *testing.T) {
	store := memory.New()
	svc := NewInvoiceService(store, nil)

	inv := validInvoice()
	inv.InvoiceNumber = ""
	saved, err := svc.Save(context.Background(), inv)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.InvoiceNumber == "" {
		t.Fatalf("expected an invoice number to be assigned")
	}
}

func TestInvoiceServiceSaveRejectsInvalid(t *testing.T) {
	svc := NewInvoiceService(memory.New(), nil)

	inv := validInvoice()
	inv.IssueDate = "not-a-date"
	if _, err := svc.Save(context.Background(), inv); !errors.Is(err, core.ErrInvalidDate) {
		t.Fatalf("Save error = %v, want ErrInvalidDate", err)
	}
}

func TestInvoiceServiceSaveSurvivesPublishFailure(t *testing.T) {
	store := memory.New()
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := NewInvoiceService(store, pub)

	saved, err := svc.Save(context.Background(), validInvoice())
	if err != nil {
		t.Fatalf("Save should not fail on publish error, got %v", err)
	}
	if _, err := store.GetInvoice(context.Background(), saved.ID); err != nil {
		t.Fatalf("invoice not stored: %v", err)
	}
}

func TestInvoiceServiceSetStatus(t *testing.T) {
	store := memory.New()
	svc := NewInvoiceService(store, nil)

	saved, err := svc.Save(context.Background(), validInvoice())
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	updated, err := svc.SetStatus(context.Background(), saved.ID, core.StatusPaid)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if updated.Status != core.StatusPaid {
		t.Fatalf("status = %q, want %q", updated.Status, core.StatusPaid)
	}

	if _, err := svc.SetStatus(context.Background(), "missing", core.StatusPaid); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("SetStatus on missing invoice = %v, want ErrNotFound", err)
	}
}

func TestInvoiceServiceDeletePublishesTombstone(t *testing.T) {
	store := memory.New()
	pub := &fakePublisher{}
	svc := NewInvoiceService(store, pub)

	saved, err := svc.Save(context.Background(), validInvoice())
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := svc.Delete(context.Background(), saved.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	last := pub.messages[len(pub.messages)-1]
	if !last.Deleted || last.ID != saved.ID {
		t.Fatalf("unexpected delete message: %+v", last)
	}

	if err := svc.Delete(context.Background(), saved.ID); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("second Delete = %v, want ErrNotFound", err)
	}
}

func TestExpenseServiceSaveAndDelete(t *testing.T) {
	store := memory.New()
	pub := &fakePublisher{}
	svc := NewExpenseService(store, pub)

	saved, err := svc.Save(context.Background(), core.Expense{
		Date:      "2025-02-10",
		Category:  "Software",
		Amount:    core.AmountFromFloat(49.99),
		TaxAmount: core.AmountFromFloat(9),
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.ID == "" {
		t.Fatalf("expected an ID to be assigned")
	}
	if len(pub.messages) != 1 || pub.messages[0].Kind != amqp.KindExpense {
		t.Fatalf("unexpected messages: %+v", pub.messages)
	}

	if err := svc.Delete(context.Background(), saved.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.GetExpense(context.Background(), saved.ID); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expense still present after delete: %v", err)
	}
}

func TestExpenseServiceSaveRejectsInvalid(t *testing.T) {
	svc := NewExpenseService(memory.New(), nil)

	_, err := svc.Save(context.Background(), core.Expense{
		Date:     "2025-02-10",
		Category: "",
		Amount:   core.AmountFromFloat(10),
	})
	if !errors.Is(err, core.ErrEmptyCategory) {
		t.Fatalf("Save error = %v, want ErrEmptyCategory", err)
	}
}
