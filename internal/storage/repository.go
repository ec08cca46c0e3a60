// Package storage keeps a local SQLite mirror of the ledger, fed by the
// mutation events the bot publishes. The mirror is read-only reporting
// data; the sheet stays the source of truth.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"ledgercat/internal/core"

	_ "modernc.org/sqlite"
)

type MirrorRepository struct {
	db *sql.DB
}

func NewMirrorRepository(dbPath string) (*MirrorRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &MirrorRepository{db: db}, nil
}

func (r *MirrorRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// RecordAppend mirrors one appended entry.
func (r *MirrorRepository) RecordAppend(ctx context.Context, e core.LedgerEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO entries (date, kind, item, amount, owner) VALUES (?, ?, ?, ?, ?)`,
		e.Date, string(e.Kind), e.Item, e.Amount, e.Owner)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}

	slog.InfoContext(ctx, "Entry mirrored to SQLite",
		"owner", e.Owner,
		"kind", e.Kind,
		"amount", e.Amount)
	return nil
}

// RecordDelete removes one mirrored row matching the deleted entry. The
// events carry no row identity, so the oldest matching row goes; for
// identical entries any one of them is the right answer.
func (r *MirrorRepository) RecordDelete(ctx context.Context, e core.LedgerEntry) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM entries WHERE id IN (
			SELECT id FROM entries
			WHERE date = ? AND kind = ? AND item = ? AND amount = ? AND owner = ?
			ORDER BY id LIMIT 1
		)`,
		e.Date, string(e.Kind), e.Item, e.Amount, e.Owner)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		slog.WarnContext(ctx, "Delete event had no mirrored row",
			"owner", e.Owner,
			"date", e.Date,
			"item", e.Item)
		return nil
	}

	slog.InfoContext(ctx, "Entry removed from SQLite mirror",
		"owner", e.Owner,
		"item", e.Item)
	return nil
}

// MonthTotals sums one owner's mirrored month, budget rows excluded.
func (r *MirrorRepository) MonthTotals(ctx context.Context, owner, monthPrefix string) (income, expense int64, err error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT
			COALESCE(SUM(CASE WHEN kind = ? THEN amount ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN kind = ? THEN amount ELSE 0 END), 0)
		FROM entries WHERE owner = ? AND date LIKE ? || '%'`,
		string(core.Income), string(core.Expense), owner, monthPrefix)
	if err := row.Scan(&income, &expense); err != nil {
		return 0, 0, fmt.Errorf("sum month totals: %w", err)
	}
	return income, expense, nil
}

// CountEntries reports the number of mirrored rows for one owner.
func (r *MirrorRepository) CountEntries(ctx context.Context, owner string) (int64, error) {
	var n int64
	row := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries WHERE owner = ?`, owner)
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

// CountAll reports the total number of mirrored rows.
func (r *MirrorRepository) CountAll(ctx context.Context) (int64, error) {
	var n int64
	row := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`)
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count all entries: %w", err)
	}
	return n, nil
}
