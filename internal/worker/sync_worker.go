// Package worker mirrors the primary ledger snapshot into a secondary store.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"expenses/internal/amqp"
	"expenses/internal/services"
)

// Syncer copies the primary snapshot to the mirror.
type Syncer interface {
	SyncNow(ctx context.Context) error
	SyncSince(ctx context.Context, changedAt time.Time) error
}

// MirrorWorker reacts to ledger change messages by refreshing the mirror.
type MirrorWorker struct {
	syncer Syncer
}

func NewMirrorWorker(syncer Syncer) *MirrorWorker {
	return &MirrorWorker{syncer: syncer}
}

var _ Syncer = (*services.SyncProcessor)(nil)

// HandleChange processes a single ledger change message from AMQP. Messages
// already covered by a later copy are acknowledged without another copy.
func (w *MirrorWorker) HandleChange(ctx context.Context, msg *amqp.LedgerChangeMessage) error {
	slog.InfoContext(ctx, "Processing ledger change",
		"op", msg.Op,
		"entry_id", msg.EntryID,
		"revision", msg.Revision)

	var err error
	if msg.Op == amqp.OpResync {
		err = w.syncer.SyncNow(ctx)
	} else {
		err = w.syncer.SyncSince(ctx, msg.Timestamp)
	}
	if err != nil {
		return fmt.Errorf("mirror ledger change %s: %w", msg.Op, err)
	}
	return nil
}

// StartupSync copies the snapshot once so the mirror catches up with any
// change made while the worker was down.
func (w *MirrorWorker) StartupSync(ctx context.Context) error {
	if err := w.syncer.SyncNow(ctx); err != nil {
		return fmt.Errorf("startup mirror sync: %w", err)
	}
	slog.InfoContext(ctx, "Startup mirror sync completed")
	return nil
}
