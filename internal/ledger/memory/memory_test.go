package memory

import (
	"context"
	"testing"

	"ledgercat/internal/core"
)

func TestAppendScanPositions(t *testing.T) {
	s := New()
	ctx := context.Background()

	entries := []core.LedgerEntry{
		{Date: "2024-03-01", Kind: core.Expense, Item: "a", Amount: 10, Owner: "u1"},
		{Date: "2024-03-01", Kind: core.Expense, Item: "b", Amount: 20, Owner: "u2"},
		{Date: "2024-03-02", Kind: core.Income, Item: "c", Amount: 30, Owner: "u1"},
	}
	for _, e := range entries {
		if err := s.Append(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	rows, err := s.ScanAll(ctx, "u1")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("scan = %d rows, want 2", len(rows))
	}
	// Positions count the header row and the other owner's interleaved row.
	if rows[0].Pos != 2 || rows[1].Pos != 4 {
		t.Fatalf("positions = %d,%d, want 2,4", rows[0].Pos, rows[1].Pos)
	}
}

func TestAppendValidates(t *testing.T) {
	s := New()
	err := s.Append(context.Background(), core.LedgerEntry{Date: "nope", Kind: core.Expense, Owner: "u"})
	if err != core.ErrInvalidDate {
		t.Fatalf("append err = %v, want ErrInvalidDate", err)
	}
}

func TestDeleteRowShiftsLaterPositions(t *testing.T) {
	s := New()
	ctx := context.Background()
	s.Seed(
		core.LedgerEntry{Date: "2024-03-01", Kind: core.Expense, Item: "a", Amount: 1, Owner: "u1"},
		core.LedgerEntry{Date: "2024-03-02", Kind: core.Expense, Item: "b", Amount: 2, Owner: "u1"},
		core.LedgerEntry{Date: "2024-03-03", Kind: core.Expense, Item: "c", Amount: 3, Owner: "u1"},
	)

	if err := s.DeleteRow(ctx, 3); err != nil { // "b"
		t.Fatalf("delete: %v", err)
	}
	rows, _ := s.ScanAll(ctx, "u1")
	if len(rows) != 2 || rows[0].Entry.Item != "a" || rows[1].Entry.Item != "c" {
		t.Fatalf("unexpected rows after delete: %+v", rows)
	}
	if rows[1].Pos != 3 {
		t.Fatalf("row c should have shifted to pos 3, got %d", rows[1].Pos)
	}

	if err := s.DeleteRow(ctx, 99); err == nil {
		t.Fatal("out-of-range delete should error")
	}
}
