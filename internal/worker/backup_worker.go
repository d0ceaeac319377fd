package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"billbook/internal/amqp"
	"billbook/internal/core"
	"billbook/internal/ledger"
)

// BackupWorker mirrors invoices and expenses from the local store to a
// backup sheet. Invoices go out with their computed totals so the
// mirror is readable without re-running the valuation.
type BackupWorker struct {
	invoices ledger.InvoiceStore
	expenses ledger.ExpenseStore
	writer   ledger.BackupWriter
}

func NewBackupWorker(invoices ledger.InvoiceStore, expenses ledger.ExpenseStore, writer ledger.BackupWriter) *BackupWorker {
	return &BackupWorker{
		invoices: invoices,
		expenses: expenses,
		writer:   writer,
	}
}

// HandleMessage processes a single backup request from AMQP. A record
// deleted between publish and consume is treated as done, not an error.
func (w *BackupWorker) HandleMessage(ctx context.Context, msg *amqp.BackupMessage) error {
	if msg.Deleted {
		// Append-only mirror: deletions are recorded locally only.
		slog.InfoContext(ctx, "Skipping backup for deleted record",
			"kind", msg.Kind, "id", msg.ID)
		return nil
	}

	switch msg.Kind {
	case amqp.KindInvoice:
		return w.backupInvoice(ctx, msg.ID)
	case amqp.KindExpense:
		return w.backupExpense(ctx, msg.ID)
	default:
		return fmt.Errorf("unknown message kind %q", msg.Kind)
	}
}

func (w *BackupWorker) backupInvoice(ctx context.Context, id string) error {
	inv, err := w.invoices.GetInvoice(ctx, id)
	if errors.Is(err, ledger.ErrNotFound) {
		slog.WarnContext(ctx, "Invoice gone before backup, skipping", "id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get invoice from storage: %w", err)
	}

	totals := core.ComputeInvoiceTotals(inv)
	if err := w.writer.AppendInvoice(ctx, inv, totals); err != nil {
		return fmt.Errorf("append invoice to backup: %w", err)
	}

	slog.InfoContext(ctx, "Invoice backed up",
		"id", inv.ID,
		"number", inv.InvoiceNumber,
		"grand_total", totals.GrandTotal.String())
	return nil
}

func (w *BackupWorker) backupExpense(ctx context.Context, id string) error {
	e, err := w.expenses.GetExpense(ctx, id)
	if errors.Is(err, ledger.ErrNotFound) {
		slog.WarnContext(ctx, "Expense gone before backup, skipping", "id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get expense from storage: %w", err)
	}

	if err := w.writer.AppendExpense(ctx, e); err != nil {
		return fmt.Errorf("append expense to backup: %w", err)
	}

	slog.InfoContext(ctx, "Expense backed up",
		"id", e.ID,
		"category", e.Category,
		"amount", e.Amount.String())
	return nil
}

// BackupAll mirrors every stored record once. Used at worker startup to
// recover from messages lost while the worker was down.
func (w *BackupWorker) BackupAll(ctx context.Context) error {
	invoices, err := w.invoices.ListInvoices(ctx)
	if err != nil {
		return fmt.Errorf("list invoices: %w", err)
	}
	expenses, err := w.expenses.ListExpenses(ctx)
	if err != nil {
		return fmt.Errorf("list expenses: %w", err)
	}

	var failed int
	for _, inv := range invoices {
		if err := w.writer.AppendInvoice(ctx, inv, core.ComputeInvoiceTotals(inv)); err != nil {
			slog.ErrorContext(ctx, "Failed to back up invoice", "id", inv.ID, "error", err)
			failed++
		}
	}
	for _, e := range expenses {
		if err := w.writer.AppendExpense(ctx, e); err != nil {
			slog.ErrorContext(ctx, "Failed to back up expense", "id", e.ID, "error", err)
			failed++
		}
	}

	slog.InfoContext(ctx, "Startup backup completed",
		"invoices", len(invoices),
		"expenses", len(expenses),
		"failed", failed)

	if failed > 0 {
		return fmt.Errorf("%d records failed to back up", failed)
	}
	return nil
}
