package memory

import (
	"context"
	"sync"

	"fintrack/internal/report"
)

// Snapshot is one recorded report export.
type Snapshot struct {
	UserID   string
	Overview report.Overview
	Shares   []report.CategoryShare
}

// Writer records report exports in memory. It serves local setups without
// Google credentials and worker tests.
type Writer struct {
	mu        sync.Mutex
	snapshots []Snapshot
}

func New() *Writer {
	return &Writer{}
}

func (w *Writer) AppendReport(_ context.Context, userID string, ov report.Overview, shares []report.CategoryShare) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.snapshots = append(w.snapshots, Snapshot{
		UserID:   userID,
		Overview: ov,
		Shares:   append([]report.CategoryShare(nil), shares...),
	})
	return nil
}

// Snapshots returns a copy of everything recorded so far.
func (w *Writer) Snapshots() []Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]Snapshot(nil), w.snapshots...)
}
