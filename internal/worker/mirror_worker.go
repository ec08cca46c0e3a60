// Package worker applies ledger mutation events to the SQLite mirror.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"ledgercat/internal/amqp"
	"ledgercat/internal/storage"
)

// MirrorWorker consumes mutation events and keeps the local mirror in
// step with the sheet. Events are idempotent enough for at-least-once
// delivery: a re-delivered delete finds no row and no-ops.
type MirrorWorker struct {
	repo *storage.MirrorRepository
}

func NewMirrorWorker(repo *storage.MirrorRepository) *MirrorWorker {
	return &MirrorWorker{repo: repo}
}

// HandleEvent applies one mutation event to the mirror.
func (w *MirrorWorker) HandleEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	e := msg.Entry()

	switch msg.Action {
	case amqp.ActionAppend:
		if err := w.repo.RecordAppend(ctx, e); err != nil {
			return fmt.Errorf("mirror append: %w", err)
		}
	case amqp.ActionDelete:
		if err := w.repo.RecordDelete(ctx, e); err != nil {
			return fmt.Errorf("mirror delete: %w", err)
		}
	default:
		// Unknown actions are dropped, not requeued: redelivery cannot fix them.
		slog.WarnContext(ctx, "Dropping event with unknown action", "action", msg.Action)
	}

	return nil
}

// LogStats reports the mirror's total row count, used by the periodic
// heartbeat.
func (w *MirrorWorker) LogStats(ctx context.Context) {
	n, err := w.repo.CountAll(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Mirror stats failed", "error", err)
		return
	}
	slog.InfoContext(ctx, "Mirror stats", "entries", n)
}
