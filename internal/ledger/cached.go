package ledger

import (
	"context"
	"time"

	"ledgercat/internal/cache"
	"ledgercat/internal/core"
)

// CachedStore caches ScanAll snapshots per owner in front of a slower
// backend. Every mutation invalidates aggressively: an append drops the
// owner's snapshot, a row deletion drops everything, because deleting by
// absolute position shifts rows for every owner sharing the sheet.
type CachedStore struct {
	next  RowStore
	scans *cache.LRUCache[[]core.Row]
}

var _ RowStore = (*CachedStore)(nil)

func NewCachedStore(next RowStore, maxOwners int, ttl time.Duration) *CachedStore {
	return &CachedStore{
		next:  next,
		scans: cache.NewLRUCache[[]core.Row](maxOwners, ttl),
	}
}

func (s *CachedStore) Append(ctx context.Context, e core.LedgerEntry) error {
	if err := s.next.Append(ctx, e); err != nil {
		return err
	}
	s.scans.Delete(e.Owner)
	return nil
}

func (s *CachedStore) ScanAll(ctx context.Context, owner string) ([]core.Row, error) {
	if rows, ok := s.scans.Get(owner); ok {
		return rows, nil
	}
	rows, err := s.next.ScanAll(ctx, owner)
	if err != nil {
		return nil, err
	}
	s.scans.Set(owner, rows)
	return rows, nil
}

func (s *CachedStore) DeleteRow(ctx context.Context, pos int64) error {
	if err := s.next.DeleteRow(ctx, pos); err != nil {
		return err
	}
	s.scans.Purge()
	return nil
}
