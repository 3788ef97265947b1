package sheets

import (
	"context"

	"expenses/internal/core"
)

// Ports for outbound persistence adapters.
type (
	// SnapshotLoader supplies the last persisted ledger snapshot. found is
	// false when nothing was ever saved.
	SnapshotLoader interface {
		Load(ctx context.Context) (state core.LedgerState, found bool, err error)
	}

	// SnapshotSaver persists a full ledger snapshot.
	SnapshotSaver interface {
		Save(ctx context.Context, state core.LedgerState) error
	}

	// SnapshotStore is the complete persistence collaborator of the ledger.
	SnapshotStore interface {
		SnapshotLoader
		SnapshotSaver
	}
)
