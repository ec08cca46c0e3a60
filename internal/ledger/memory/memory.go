package memory

import (
	"context"
	"fmt"
	"sync"

	"ledgercat/internal/core"
	"ledgercat/internal/ledger"
)

// headerOffset mimics the header row a real sheet carries at position 1.
const headerOffset = 1

// Store is an in-memory row store. It keeps all owners' rows interleaved
// in insertion order, the way a shared sheet does, so absolute positions
// behave like real sheet rows.
type Store struct {
	mu   sync.Mutex
	rows []core.LedgerEntry
}

var _ ledger.RowStore = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// Seed appends entries without validation, for test fixtures.
func (s *Store) Seed(entries ...core.LedgerEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, entries...)
}

func (s *Store) Append(_ context.Context, e core.LedgerEntry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, e)
	return nil
}

func (s *Store) ScanAll(_ context.Context, owner string) ([]core.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Row
	for i, e := range s.rows {
		if e.Owner != owner {
			continue
		}
		out = append(out, core.Row{Pos: int64(i + 1 + headerOffset), Entry: e})
	}
	return out, nil
}

func (s *Store) DeleteRow(_ context.Context, pos int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := int(pos - 1 - headerOffset)
	if idx < 0 || idx >= len(s.rows) {
		return fmt.Errorf("delete row %d: out of range", pos)
	}
	s.rows = append(s.rows[:idx], s.rows[idx+1:]...)
	return nil
}

// Len reports the number of stored rows, header excluded.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}
