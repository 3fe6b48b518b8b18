// Package ledger owns the expense record lifecycle: validating drafts,
// pushing them through the record store, and keeping a caller-held
// snapshot of the record set consistent with what the store confirmed.
//
// The manager is stateless. Every operation takes the caller's snapshot
// and returns the next one; a failed store call returns the input
// snapshot unchanged, never a half-applied set. Updates are
// server-confirmed: the snapshot only changes after the store acknowledges.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"spendlog/internal/core"
	"spendlog/internal/store"
)

// Publisher is the optional change feed notified after each confirmed
// mutation. Publish failures are logged and never fail the operation.
type Publisher interface {
	PublishChange(ctx context.Context, id int64, op string) error
}

type Manager struct {
	store  store.RecordStore
	events Publisher
}

func NewManager(st store.RecordStore, events Publisher) *Manager {
	return &Manager{store: st, events: events}
}

// Submit creates a new record from the draft, or replaces the record with
// id *editingID when editingID is non-nil. The returned set maintains
// reverse chronological order by date; a new record lands ahead of
// existing records sharing its date, and a replaced record keeps its
// position. On a store failure the input set comes back untouched and the
// error wraps store.ErrUnavailable; the caller should Reconcile.
func (m *Manager) Submit(ctx context.Context, set []core.Record, draft core.Draft, editingID *int64) ([]core.Record, core.Record, error) {
	draft = draft.Normalize()
	if err := draft.Validate(); err != nil {
		return set, core.Record{}, fmt.Errorf("validate draft: %w", err)
	}

	if editingID == nil {
		rec, err := m.store.Create(ctx, draft)
		if err != nil {
			return set, core.Record{}, unavailable("create record", err)
		}
		m.publish(ctx, rec.ID, "created")
		return insertByDate(set, rec), rec, nil
	}

	rec, err := m.store.ReplaceByID(ctx, *editingID, draft)
	if errors.Is(err, store.ErrNotFound) {
		return set, core.Record{}, fmt.Errorf("replace record %d: %w", *editingID, err)
	}
	if err != nil {
		return set, core.Record{}, unavailable("replace record", err)
	}
	m.publish(ctx, rec.ID, "updated")
	return replaceInPlace(set, rec), rec, nil
}

// Remove deletes the record with the given id. An id absent from the
// store or the snapshot is a no-op, not an error.
func (m *Manager) Remove(ctx context.Context, set []core.Record, id int64) ([]core.Record, error) {
	if err := m.store.DeleteByID(ctx, id); err != nil {
		return set, unavailable("delete record", err)
	}
	m.publish(ctx, id, "deleted")

	out := make([]core.Record, 0, len(set))
	for _, r := range set {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return out, nil
}

// Reconcile re-fetches the authoritative record set from the store. It is
// idempotent; callers run it after any failed or uncertain operation to
// eliminate divergence between the snapshot and durable state.
func (m *Manager) Reconcile(ctx context.Context) ([]core.Record, error) {
	set, err := m.store.ListAll(ctx)
	if err != nil {
		return nil, unavailable("list records", err)
	}
	return set, nil
}

func (m *Manager) publish(ctx context.Context, id int64, op string) {
	if m.events == nil {
		return
	}
	if err := m.events.PublishChange(ctx, id, op); err != nil {
		// The store already confirmed; the feed is best-effort
		slog.ErrorContext(ctx, "Failed to publish change message", "id", id, "op", op, "error", err)
	}
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(store.ErrUnavailable, err))
}

// insertByDate inserts rec ahead of the first record whose date is not
// after rec's, keeping reverse chronological order with newest-submitted
// first among equal dates. The input slice is not modified.
func insertByDate(set []core.Record, rec core.Record) []core.Record {
	pos := len(set)
	for i, r := range set {
		if !r.Date.Time.After(rec.Date.Time) {
			pos = i
			break
		}
	}
	out := make([]core.Record, 0, len(set)+1)
	out = append(out, set[:pos]...)
	out = append(out, rec)
	out = append(out, set[pos:]...)
	return out
}

// replaceInPlace swaps the record with rec's id, preserving its position.
// If the snapshot somehow lacks the id, the record is inserted by date.
func replaceInPlace(set []core.Record, rec core.Record) []core.Record {
	for i, r := range set {
		if r.ID == rec.ID {
			out := append([]core.Record(nil), set...)
			out[i] = rec
			return out
		}
	}
	return insertByDate(set, rec)
}
