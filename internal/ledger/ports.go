package ledger

import (
	"context"
	"errors"

	"billbook/internal/core"
)

// ErrNotFound is returned by stores when no record has the given id.
var ErrNotFound = errors.New("record not found")

// Ports for the persistence and backup adapters. The engine in
// internal/core never sees these; handlers and services load records
// through them and hand plain values to the engine.
type (
	InvoiceStore interface {
		ListInvoices(ctx context.Context) ([]core.Invoice, error)
		GetInvoice(ctx context.Context, id string) (core.Invoice, error)
		// PutInvoice inserts a new invoice or replaces the one with
		// the same id, items included.
		PutInvoice(ctx context.Context, inv core.Invoice) error
		DeleteInvoice(ctx context.Context, id string) error
	}

	ExpenseStore interface {
		ListExpenses(ctx context.Context) ([]core.Expense, error)
		GetExpense(ctx context.Context, id string) (core.Expense, error)
		PutExpense(ctx context.Context, e core.Expense) error
		DeleteExpense(ctx context.Context, id string) error
	}

	// BackupWriter appends records to an external backup target.
	BackupWriter interface {
		AppendInvoice(ctx context.Context, inv core.Invoice, totals core.InvoiceTotals) error
		AppendExpense(ctx context.Context, e core.Expense) error
	}
)
