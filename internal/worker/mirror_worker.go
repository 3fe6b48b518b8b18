// Package worker consumes the expense change feed and keeps the Google
// Sheets mirror in step with the store.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"spendlog/internal/core"
	"spendlog/internal/events"
	"spendlog/internal/store"
)

type (
	// RecordGetter fetches a single record from the authoritative store.
	RecordGetter interface {
		GetByID(ctx context.Context, id int64) (core.Record, error)
	}

	// RecordMirror maintains the downstream copy of the record set.
	RecordMirror interface {
		AppendRecord(ctx context.Context, rec core.Record) error
		UpdateRecord(ctx context.Context, rec core.Record) error
		DeleteRecord(ctx context.Context, id int64) error
	}
)

type MirrorWorker struct {
	records RecordGetter
	mirror  RecordMirror
	timeout time.Duration
}

func NewMirrorWorker(records RecordGetter, mirror RecordMirror, timeout time.Duration) *MirrorWorker {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &MirrorWorker{records: records, mirror: mirror, timeout: timeout}
}

// HandleChange applies one change-feed message to the mirror. Returning
// an error requeues the message.
func (w *MirrorWorker) HandleChange(ctx context.Context, msg *events.ChangeMessage) error {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	slog.InfoContext(ctx, "Processing change message", "id", msg.ID, "op", msg.Op)

	switch msg.Op {
	case events.OpCreated:
		rec, err := w.records.GetByID(ctx, msg.ID)
		if errors.Is(err, store.ErrNotFound) {
			// Deleted before we got here; the delete message will follow
			slog.WarnContext(ctx, "Record vanished before mirroring", "id", msg.ID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("load record %d: %w", msg.ID, err)
		}
		return w.mirror.AppendRecord(ctx, rec)

	case events.OpUpdated:
		rec, err := w.records.GetByID(ctx, msg.ID)
		if errors.Is(err, store.ErrNotFound) {
			slog.WarnContext(ctx, "Record vanished before mirroring", "id", msg.ID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("load record %d: %w", msg.ID, err)
		}
		return w.mirror.UpdateRecord(ctx, rec)

	case events.OpDeleted:
		return w.mirror.DeleteRecord(ctx, msg.ID)

	default:
		// Unknown ops are dropped, not requeued
		slog.ErrorContext(ctx, "Unknown change op", "op", msg.Op, "id", msg.ID)
		return nil
	}
}
