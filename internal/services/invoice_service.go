package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"billbook/internal/amqp"
	"billbook/internal/core"
	"billbook/internal/ledger"
)

// BackupPublisher enqueues backup requests for the worker. A nil
// publisher disables mirroring without affecting local writes.
type BackupPublisher interface {
	PublishBackup(ctx context.Context, msg *amqp.BackupMessage) error
}

// InvoiceService orchestrates invoice writes across the local store and
// the backup queue.
type InvoiceService struct {
	store     ledger.InvoiceStore
	publisher BackupPublisher
}

func NewInvoiceService(store ledger.InvoiceStore, publisher BackupPublisher) *InvoiceService {
	return &InvoiceService{store: store, publisher: publisher}
}

func (s *InvoiceService) List(ctx context.Context) ([]core.Invoice, error) {
	return s.store.ListInvoices(ctx)
}

func (s *InvoiceService) Get(ctx context.Context, id string) (core.Invoice, error) {
	return s.store.GetInvoice(ctx, id)
}

// Save persists an invoice, assigning an ID and number when missing,
// and enqueues a backup. Backup failures never fail the save.
func (s *InvoiceService) Save(ctx context.Context, inv core.Invoice) (core.Invoice, error) {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	if inv.InvoiceNumber == "" {
		existing, err := s.store.ListInvoices(ctx)
		if err != nil {
			return core.Invoice{}, fmt.Errorf("list invoices for numbering: %w", err)
		}
		inv.InvoiceNumber = core.NextInvoiceNumber(existing, time.Now())
	}
	if inv.Status == "" {
		inv.Status = core.StatusDraft
	}
	if err := inv.Validate(); err != nil {
		return core.Invoice{}, err
	}

	if err := s.store.PutInvoice(ctx, inv); err != nil {
		return core.Invoice{}, fmt.Errorf("save invoice: %w", err)
	}

	s.publish(ctx, amqp.NewBackupMessage(amqp.KindInvoice, inv.ID, false))
	return inv, nil
}

// SetStatus updates only the lifecycle status of an invoice. Any status
// change is accepted; the engine never enforces transitions.
func (s *InvoiceService) SetStatus(ctx context.Context, id string, status core.Status) (core.Invoice, error) {
	inv, err := s.store.GetInvoice(ctx, id)
	if err != nil {
		return core.Invoice{}, err
	}
	inv.Status = status
	if err := s.store.PutInvoice(ctx, inv); err != nil {
		return core.Invoice{}, fmt.Errorf("update invoice status: %w", err)
	}
	s.publish(ctx, amqp.NewBackupMessage(amqp.KindInvoice, inv.ID, false))
	return inv, nil
}

func (s *InvoiceService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteInvoice(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, amqp.NewBackupMessage(amqp.KindInvoice, id, true))
	return nil
}

func (s *InvoiceService) publish(ctx context.Context, msg *amqp.BackupMessage) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishBackup(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish backup message",
			"kind", msg.Kind, "id", msg.ID, "error", err)
	}
}
