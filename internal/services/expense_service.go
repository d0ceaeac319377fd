package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"billbook/internal/amqp"
	"billbook/internal/core"
	"billbook/internal/ledger"
)

// ExpenseService orchestrates expense writes across the local store and
// the backup queue.
type ExpenseService struct {
	store     ledger.ExpenseStore
	publisher BackupPublisher
}

func NewExpenseService(store ledger.ExpenseStore, publisher BackupPublisher) *ExpenseService {
	return &ExpenseService{store: store, publisher: publisher}
}

func (s *ExpenseService) List(ctx context.Context) ([]core.Expense, error) {
	return s.store.ListExpenses(ctx)
}

func (s *ExpenseService) Get(ctx context.Context, id string) (core.Expense, error) {
	return s.store.GetExpense(ctx, id)
}

// Save persists an expense, assigning an ID when missing, and enqueues
// a backup. Backup failures never fail the save.
func (s *ExpenseService) Save(ctx context.Context, e core.Expense) (core.Expense, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	if err := s.store.PutExpense(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	s.publishExpense(ctx, amqp.NewBackupMessage(amqp.KindExpense, e.ID, false))
	return e, nil
}

func (s *ExpenseService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteExpense(ctx, id); err != nil {
		return err
	}
	s.publishExpense(ctx, amqp.NewBackupMessage(amqp.KindExpense, id, true))
	return nil
}

func (s *ExpenseService) publishExpense(ctx context.Context, msg *amqp.BackupMessage) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishBackup(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish backup message",
			"kind", msg.Kind, "id", msg.ID, "error", err)
	}
}
