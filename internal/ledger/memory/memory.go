// Package memory provides an in-memory transaction store. It is the default
// backend for local development and the test double for everything that talks
// to a ledger.Store.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

type Store struct {
	mu    sync.Mutex
	items map[string][]core.Transaction // keyed by user id
	hub   *ledger.Hub
	clock func() time.Time
}

var _ ledger.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		items: make(map[string][]core.Transaction),
		hub:   ledger.NewHub(),
		clock: time.Now,
	}
}

// WithClock overrides the creation timestamp source. Test hook.
func (s *Store) WithClock(clock func() time.Time) *Store {
	s.clock = clock
	return s
}

// Add validates and stores the transaction, assigning ID and CreatedAt.
func (s *Store) Add(_ context.Context, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", ledger.NewValidationError(err)
	}

	tx.ID = uuid.NewString()
	tx.CreatedAt = s.clock()

	s.mu.Lock()
	s.items[tx.UserID] = append(s.items[tx.UserID], tx)
	snapshot := s.listLocked(tx.UserID)
	s.mu.Unlock()

	s.hub.Broadcast(tx.UserID, snapshot)
	return tx.ID, nil
}

func (s *Store) Update(_ context.Context, userID, id string, patch ledger.Patch) error {
	s.mu.Lock()
	idx := -1
	for i, tx := range s.items[userID] {
		if tx.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return ledger.ErrNotFound
	}

	updated := s.items[userID][idx]
	patch.Apply(&updated)
	if err := updated.Validate(); err != nil {
		s.mu.Unlock()
		return ledger.NewValidationError(err)
	}
	s.items[userID][idx] = updated
	snapshot := s.listLocked(userID)
	s.mu.Unlock()

	s.hub.Broadcast(userID, snapshot)
	return nil
}

func (s *Store) Delete(_ context.Context, userID, id string) error {
	s.mu.Lock()
	list := s.items[userID]
	idx := -1
	for i, tx := range list {
		if tx.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return ledger.ErrNotFound
	}
	s.items[userID] = append(list[:idx], list[idx+1:]...)
	snapshot := s.listLocked(userID)
	s.mu.Unlock()

	s.hub.Broadcast(userID, snapshot)
	return nil
}

func (s *Store) GetAll(_ context.Context, userID string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked(userID), nil
}

func (s *Store) GetByRange(_ context.Context, userID string, start, end time.Time) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.listLocked(userID)
	out := make([]core.Transaction, 0, len(all))
	for _, tx := range all {
		if !tx.Date.Before(start) && !tx.Date.After(end) {
			out = append(out, tx)
		}
	}
	return out, nil
}

// Subscribe registers onChange and delivers the current list immediately.
func (s *Store) Subscribe(_ context.Context, userID string, onChange func([]core.Transaction)) (ledger.Unsubscribe, error) {
	s.mu.Lock()
	initial := s.listLocked(userID)
	s.mu.Unlock()

	unsub := s.hub.Register(userID, onChange)
	onChange(initial)
	return unsub, nil
}

// listLocked returns a sorted copy: date descending, creation time descending
// as tiebreak. Caller must hold s.mu.
func (s *Store) listLocked(userID string) []core.Transaction {
	out := make([]core.Transaction, len(s.items[userID]))
	copy(out, s.items[userID])
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
