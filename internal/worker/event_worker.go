// Package worker turns the ledger event stream into an activity log so
// operators can follow postings without polling the API.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"banchee/internal/amqp"
)

// EventWorker handles consumed ledger events. It keeps per-kind counters so
// the periodic report can show what the stream delivered.
type EventWorker struct {
	mu      sync.Mutex
	handled map[string]int64
}

func NewEventWorker() *EventWorker {
	return &EventWorker{handled: make(map[string]int64)}
}

// HandleEvent records one event. Events without an owner are rejected so the
// broker redelivers them instead of silently losing activity.
func (w *EventWorker) HandleEvent(event amqp.LedgerEvent) error {
	if event.Kind == "" {
		return fmt.Errorf("event has no kind")
	}
	if event.OwnerID == "" {
		return fmt.Errorf("event %s has no owner", event.Kind)
	}

	slog.Info("Ledger activity",
		"kind", event.Kind,
		"owner_id", event.OwnerID,
		"account_id", event.AccountID,
		"entry_id", event.EntryID,
		"group_id", event.GroupID,
		"posted_at", event.Timestamp)

	w.mu.Lock()
	w.handled[event.Kind]++
	w.mu.Unlock()
	return nil
}

// Handled returns a snapshot of the per-kind counters.
func (w *EventWorker) Handled() map[string]int64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make(map[string]int64, len(w.handled))
	for kind, n := range w.handled {
		out[kind] = n
	}
	return out
}

// ReportActivity logs the counter snapshot, used on a ticker by the worker
// process.
func (w *EventWorker) ReportActivity(ctx context.Context) {
	snapshot := w.Handled()
	if len(snapshot) == 0 {
		return
	}

	var total int64
	for _, n := range snapshot {
		total += n
	}
	slog.InfoContext(ctx, "Ledger activity report", "total", total, "by_kind", snapshot)
}
