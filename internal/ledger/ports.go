package ledger

import (
	"context"

	"ledgercat/internal/core"
)

// Ports for outbound row-store adapters. The store is an ordered,
// append-only, randomly-deletable row collection; scan order is insertion
// order over the full history.
type (
	Appender interface {
		Append(ctx context.Context, e core.LedgerEntry) error
	}

	Scanner interface {
		// ScanAll returns every row owned by owner, in insertion order.
		// Each row carries its absolute 1-based position in the store;
		// the adapter accounts for any header offset it manages.
		ScanAll(ctx context.Context, owner string) ([]core.Row, error)
	}

	Deleter interface {
		// DeleteRow removes the row at the given absolute position.
		// Positions of all later rows shift down by one.
		DeleteRow(ctx context.Context, pos int64) error
	}

	RowStore interface {
		Appender
		Scanner
		Deleter
	}
)
