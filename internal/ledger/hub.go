package ledger

import (
	"sync"

	"fintrack/internal/core"
)

// Hub fans out full transaction snapshots to per-user subscribers. Delivery is
// synchronous: Broadcast returns after every registered callback has run, so a
// caller that unsubscribed before a broadcast never sees it, and one that
// unsubscribes during a callback finishes that callback normally.
type Hub struct {
	mu     sync.Mutex
	nextID int64
	subs   map[string]map[int64]func([]core.Transaction)
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[int64]func([]core.Transaction))}
}

// Register adds a subscriber for userID and returns its Unsubscribe. The
// caller is responsible for delivering the initial snapshot.
func (h *Hub) Register(userID string, onChange func([]core.Transaction)) Unsubscribe {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[int64]func([]core.Transaction))
	}
	h.subs[userID][id] = onChange

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[userID], id)
			if len(h.subs[userID]) == 0 {
				delete(h.subs, userID)
			}
		})
	}
}

// Broadcast delivers the snapshot to every subscriber of userID. Each
// callback receives its own copy, so subscribers may retain or mutate the
// slice freely.
func (h *Hub) Broadcast(userID string, txs []core.Transaction) {
	h.mu.Lock()
	callbacks := make([]func([]core.Transaction), 0, len(h.subs[userID]))
	for _, cb := range h.subs[userID] {
		callbacks = append(callbacks, cb)
	}
	h.mu.Unlock()

	for _, cb := range callbacks {
		snapshot := make([]core.Transaction, len(txs))
		copy(snapshot, txs)
		cb(snapshot)
	}
}

// Subscribers returns the number of active subscriptions for userID.
func (h *Hub) Subscribers(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[userID])
}
