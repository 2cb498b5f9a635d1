package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/export"
	"fintrack/internal/ledger"
	"fintrack/internal/report"
)

// ReportWorker recomputes and exports a user's report whenever a transaction
// change event arrives. Events carry no payload, so every event triggers a
// full reload from the store; redeliveries and out-of-order arrivals are
// therefore safe.
type ReportWorker struct {
	store  ledger.Store
	writer export.ReportWriter
	period report.Period
	clock  func() time.Time

	mu    sync.Mutex
	users map[string]struct{}
}

func NewReportWorker(store ledger.Store, writer export.ReportWriter, period report.Period) *ReportWorker {
	return &ReportWorker{
		store:  store,
		writer: writer,
		period: period,
		clock:  time.Now,
		users:  make(map[string]struct{}),
	}
}

// HandleEvent processes one transaction change event. Returning an error
// makes the consumer requeue the delivery.
func (w *ReportWorker) HandleEvent(ctx context.Context, evt *amqp.TransactionEvent) error {
	slog.InfoContext(ctx, "Processing transaction event",
		"user_id", evt.UserID,
		"action", evt.Action)

	w.trackUser(evt.UserID)
	return w.ExportUserReport(ctx, evt.UserID)
}

// ExportUserReport loads the user's transactions, computes the overview and
// spending distribution, and pushes both to the report writer.
func (w *ReportWorker) ExportUserReport(ctx context.Context, userID string) error {
	txs, err := w.store.GetAll(ctx, userID)
	if err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}

	now := w.clock()
	ov := report.BuildOverview(txs, now)
	shares := report.Distribution(report.ExpensesByPeriod(txs, w.period, now))

	if err := w.writer.AppendReport(ctx, userID, ov, shares); err != nil {
		return fmt.Errorf("export report: %w", err)
	}

	slog.InfoContext(ctx, "Report exported",
		"user_id", userID,
		"transactions", len(txs),
		"categories", len(shares))

	return nil
}

// RunPeriodicRefresh re-exports reports for every user seen so far at the
// given interval. This is a backup for lost events and keeps the Today and
// Yesterday style windows current as calendar days roll over.
func (w *ReportWorker) RunPeriodicRefresh(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for _, userID := range w.trackedUsers() {
				if err := w.ExportUserReport(ctx, userID); err != nil {
					slog.ErrorContext(ctx, "Periodic report refresh failed",
						"user_id", userID,
						"error", err)
				}
			}
		}
	}
}

func (w *ReportWorker) trackUser(userID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.users[userID] = struct{}{}
}

func (w *ReportWorker) trackedUsers() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.users))
	for u := range w.users {
		out = append(out, u)
	}
	return out
}
