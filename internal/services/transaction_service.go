package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/report"
)

// EventPublisher publishes transaction change events. *amqp.Client satisfies
// it; tests use a fake.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, userID, transactionID, action string) error
}

// TransactionService orchestrates ledger writes and change notifications.
// Writes go to the store first; event publishing is best-effort and never
// fails the request.
type TransactionService struct {
	store     ledger.Store
	publisher EventPublisher
	clock     func() time.Time
}

func NewTransactionService(store ledger.Store, publisher EventPublisher) *TransactionService {
	return &TransactionService{
		store:     store,
		publisher: publisher,
		clock:     time.Now,
	}
}

// AddTransaction validates and stores a transaction, then publishes a created
// event. Date defaults to the current time when unset.
func (s *TransactionService) AddTransaction(ctx context.Context, tx core.Transaction) (string, error) {
	if tx.Date.IsZero() {
		tx.Date = s.clock()
	}

	id, err := s.store.Add(ctx, tx)
	if err != nil {
		return "", fmt.Errorf("add transaction: %w", err)
	}

	s.publishEvent(ctx, tx.UserID, id, amqp.ActionCreated)
	return id, nil
}

func (s *TransactionService) UpdateTransaction(ctx context.Context, userID, id string, patch ledger.Patch) error {
	if patch.Empty() {
		return ledger.NewValidationError(fmt.Errorf("empty update"))
	}
	if err := s.store.Update(ctx, userID, id, patch); err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}

	s.publishEvent(ctx, userID, id, amqp.ActionUpdated)
	return nil
}

func (s *TransactionService) DeleteTransaction(ctx context.Context, userID, id string) error {
	if err := s.store.Delete(ctx, userID, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.publishEvent(ctx, userID, id, amqp.ActionDeleted)
	return nil
}

func (s *TransactionService) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	return s.store.GetAll(ctx, userID)
}

func (s *TransactionService) ListTransactionsByRange(ctx context.Context, userID string, start, end time.Time) ([]core.Transaction, error) {
	return s.store.GetByRange(ctx, userID, start, end)
}

// Watch registers a live subscription for the user's transaction list.
func (s *TransactionService) Watch(ctx context.Context, userID string, onChange func([]core.Transaction)) (ledger.Unsubscribe, error) {
	return s.store.Subscribe(ctx, userID, onChange)
}

// Overview computes the user's balance, totals and month-to-date spend.
func (s *TransactionService) Overview(ctx context.Context, userID string) (report.Overview, error) {
	txs, err := s.store.GetAll(ctx, userID)
	if err != nil {
		return report.Overview{}, fmt.Errorf("load transactions: %w", err)
	}
	return report.BuildOverview(txs, s.clock()), nil
}

// SpendingInsights computes the per-category expense distribution for a period.
func (s *TransactionService) SpendingInsights(ctx context.Context, userID string, period report.Period) ([]report.CategoryShare, error) {
	txs, err := s.store.GetAll(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	expenses := report.ExpensesByPeriod(txs, period, s.clock())
	return report.Distribution(expenses), nil
}

// Timeline groups the user's transactions into display-date buckets.
func (s *TransactionService) Timeline(ctx context.Context, userID string) ([]report.DateGroup, error) {
	txs, err := s.store.GetAll(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	return report.GroupByDisplayDate(txs, s.clock()), nil
}

func (s *TransactionService) publishEvent(ctx context.Context, userID, id, action string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTransactionEvent(ctx, userID, id, action); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"user_id", userID,
			"transaction_id", id,
			"action", action,
			"error", err)
		// Don't fail the request, the write already succeeded.
	}
}
