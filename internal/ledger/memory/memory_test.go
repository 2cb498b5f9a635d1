package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

func newTx(userID string, cents int64, typ core.TransactionType, date time.Time) core.Transaction {
	return core.Transaction{
		UserID:   userID,
		Amount:   core.Money{Cents: cents},
		Type:     typ,
		Category: "Other",
		Date:     date,
	}
}

func TestAddAssignsIDAndCreatedAt(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	s := New().WithClock(func() time.Time { return fixed })

	id, err := s.Add(ctx, newTx("u1", 100, core.Expense, fixed))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if id == "" {
		t.Fatalf("expected assigned id")
	}

	list, err := s.GetAll(ctx, "u1")
	if err != nil || len(list) != 1 {
		t.Fatalf("GetAll = %v, %v", list, err)
	}
	if list[0].ID != id || !list[0].CreatedAt.Equal(fixed) {
		t.Fatalf("stored record = %+v", list[0])
	}
}

func TestAddRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	s := New()

	bad := newTx("u1", 0, core.Expense, time.Now())
	_, err := s.Add(ctx, bad)
	if !ledger.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected wrapped ErrInvalidAmount, got %v", err)
	}
}

func TestGetAllOrdersByDateDescending(t *testing.T) {
	ctx := context.Background()
	s := New()
	dates := []time.Time{
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
	}
	for _, d := range dates {
		if _, err := s.Add(ctx, newTx("u1", 100, core.Expense, d)); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	list, _ := s.GetAll(ctx, "u1")
	for i := 1; i < len(list); i++ {
		if list[i].Date.After(list[i-1].Date) {
			t.Fatalf("list not descending at %d: %v", i, list)
		}
	}
}

func TestGetByRangeInclusiveBounds(t *testing.T) {
	ctx := context.Background()
	s := New()
	start := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)

	for _, d := range []time.Time{
		start.AddDate(0, 0, -1), // out
		start,                   // in (inclusive)
		start.AddDate(0, 0, 5),  // in
		end,                     // in (inclusive)
		end.AddDate(0, 0, 1),    // out
	} {
		if _, err := s.Add(ctx, newTx("u1", 100, core.Expense, d)); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	list, err := s.GetByRange(ctx, "u1", start, end)
	if err != nil {
		t.Fatalf("GetByRange: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("range returned %d records, want 3", len(list))
	}
}

func TestUpdateAppliesPatchAndKeepsImmutableFields(t *testing.T) {
	ctx := context.Background()
	s := New()
	id, _ := s.Add(ctx, newTx("u1", 100, core.Expense, time.Now()))

	before, _ := s.GetAll(ctx, "u1")
	amount := core.Money{Cents: 999}
	desc := "groceries"
	if err := s.Update(ctx, "u1", id, ledger.Patch{Amount: &amount, Description: &desc}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	after, _ := s.GetAll(ctx, "u1")
	if after[0].Amount != amount || after[0].Description != desc {
		t.Fatalf("patch not applied: %+v", after[0])
	}
	if after[0].ID != id || !after[0].CreatedAt.Equal(before[0].CreatedAt) {
		t.Fatalf("immutable fields changed: %+v", after[0])
	}
}

func TestUpdateUnknownID(t *testing.T) {
	s := New()
	err := s.Update(context.Background(), "u1", "missing", ledger.Patch{})
	if !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteRemovesRecord(t *testing.T) {
	ctx := context.Background()
	s := New()
	id, _ := s.Add(ctx, newTx("u1", 100, core.Expense, time.Now()))

	if err := s.Delete(ctx, "u1", id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if list, _ := s.GetAll(ctx, "u1"); len(list) != 0 {
		t.Fatalf("record not removed: %v", list)
	}
	if err := s.Delete(ctx, "u1", id); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSubscribeDeliversInitialAndChangeSnapshots(t *testing.T) {
	ctx := context.Background()
	s := New()
	if _, err := s.Add(ctx, newTx("u1", 100, core.Expense, time.Now())); err != nil {
		t.Fatalf("Add: %v", err)
	}

	var snapshots [][]core.Transaction
	unsub, err := s.Subscribe(ctx, "u1", func(txs []core.Transaction) {
		snapshots = append(snapshots, txs)
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if len(snapshots) != 1 || len(snapshots[0]) != 1 {
		t.Fatalf("expected initial snapshot with 1 record, got %v", snapshots)
	}

	if _, err := s.Add(ctx, newTx("u1", 200, core.Income, time.Now())); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if len(snapshots) != 2 || len(snapshots[1]) != 2 {
		t.Fatalf("expected change snapshot with 2 records, got %v", snapshots)
	}

	// Writes for other users do not notify this subscriber.
	if _, err := s.Add(ctx, newTx("u2", 300, core.Income, time.Now())); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if len(snapshots) != 2 {
		t.Fatalf("cross-user notification leaked: %d snapshots", len(snapshots))
	}

	unsub()
	if _, err := s.Add(ctx, newTx("u1", 400, core.Income, time.Now())); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if len(snapshots) != 2 {
		t.Fatalf("delivery after unsubscribe: %d snapshots", len(snapshots))
	}
}
