package ledger

import (
	"context"
	"time"

	"fintrack/internal/core"
)

// Ports for transaction store backends. Lists are always ordered by economic
// date descending (creation time descending as tiebreak), matching what the
// aggregation engine expects as its input snapshot.
type (
	TransactionWriter interface {
		// Add validates and persists a new transaction, assigning its ID and
		// CreatedAt. Returns the assigned ID.
		Add(ctx context.Context, tx core.Transaction) (string, error)
	}

	TransactionUpdater interface {
		// Update applies a partial patch to an existing transaction. ID,
		// UserID and CreatedAt are immutable.
		Update(ctx context.Context, userID, id string, patch Patch) error
	}

	TransactionDeleter interface {
		Delete(ctx context.Context, userID, id string) error
	}

	TransactionLister interface {
		GetAll(ctx context.Context, userID string) ([]core.Transaction, error)
	}

	// TransactionRangeLister returns transactions whose date falls within the
	// inclusive [start, end] bounds.
	TransactionRangeLister interface {
		GetByRange(ctx context.Context, userID string, start, end time.Time) ([]core.Transaction, error)
	}

	// TransactionSubscriber delivers the full current list for a user to
	// onChange on every write affecting that user's collection, including one
	// initial snapshot at subscribe time. The returned Unsubscribe stops
	// further deliveries; a callback already in flight completes normally.
	TransactionSubscriber interface {
		Subscribe(ctx context.Context, userID string, onChange func([]core.Transaction)) (Unsubscribe, error)
	}

	// Store is the full backend contract.
	Store interface {
		TransactionWriter
		TransactionUpdater
		TransactionDeleter
		TransactionLister
		TransactionRangeLister
		TransactionSubscriber
	}
)

// Unsubscribe cancels a live subscription. Safe to call more than once.
type Unsubscribe func()

// Patch carries the updatable fields of a transaction; nil fields are left
// unchanged.
type Patch struct {
	Amount      *core.Money
	Type        *core.TransactionType
	Category    *string
	Description *string
	Date        *time.Time
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Amount == nil && p.Type == nil && p.Category == nil &&
		p.Description == nil && p.Date == nil
}

// Apply copies the patched fields onto tx.
func (p Patch) Apply(tx *core.Transaction) {
	if p.Amount != nil {
		tx.Amount = *p.Amount
	}
	if p.Type != nil {
		tx.Type = *p.Type
	}
	if p.Category != nil {
		tx.Category = *p.Category
	}
	if p.Description != nil {
		tx.Description = *p.Description
	}
	if p.Date != nil {
		tx.Date = *p.Date
	}
}
