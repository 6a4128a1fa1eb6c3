// Package sqlitestore provides a SQLite-backed implementation of SnapshotStore.
package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/runoshun/board/internal/domain"
)

// Store keeps columns and tasks in two tables. Every Update rewrites both
// inside one transaction.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database at path and migrates it.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection serializes writers inside this process; busy_timeout
	// covers other processes.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}
	s := &Store{db: db, path: path}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			k TEXT PRIMARY KEY,
			v TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS columns (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			color TEXT NOT NULL DEFAULT '',
			order_index INTEGER NOT NULL,
			created_at_unixms INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			column_id TEXT NOT NULL REFERENCES columns(id) ON DELETE CASCADE,
			order_index INTEGER NOT NULL,
			created_at_unixms INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_column ON tasks(column_id, order_index);`,
	}
	for _, st := range stmts {
		if _, err := s.db.ExecContext(ctx, st); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Initialize marks the store as initialized.
// Returns true if it was not initialized before.
func (s *Store) Initialize(ctx context.Context) (bool, error) {
	res, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO meta(k, v) VALUES ('initialized', ?)`,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return false, fmt.Errorf("initialize: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) initialized(ctx context.Context, q querier) error {
	var v string
	err := q.QueryRowContext(ctx, `SELECT v FROM meta WHERE k = 'initialized'`).Scan(&v)
	if err == sql.ErrNoRows {
		return domain.ErrNotInitialized
	}
	return err
}

// View runs fn with the stored board.
func (s *Store) View(ctx context.Context, fn func(*domain.Snapshot) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	snap, err := s.load(ctx, tx)
	if err != nil {
		return err
	}
	return fn(snap)
}

// Update runs fn with the stored board and replaces the tables with the
// result when fn succeeds.
func (s *Store) Update(ctx context.Context, fn func(*domain.Snapshot) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	snap, err := s.load(ctx, tx)
	if err != nil {
		return err
	}
	if err := fn(snap); err != nil {
		return err
	}
	if err := s.save(ctx, tx, snap); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) load(ctx context.Context, q querier) (*domain.Snapshot, error) {
	if err := s.initialized(ctx, q); err != nil {
		return nil, err
	}
	snap := &domain.Snapshot{}

	rows, err := q.QueryContext(ctx, `SELECT id, title, color, order_index, created_at_unixms FROM columns ORDER BY order_index, id`)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	for rows.Next() {
		var c domain.Column
		var created int64
		if err := rows.Scan(&c.ID, &c.Title, &c.Color, &c.OrderIndex, &created); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan column: %w", err)
		}
		c.CreatedAt = fromUnixMs(created)
		snap.Columns = append(snap.Columns, c)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	rows, err = q.QueryContext(ctx, `SELECT id, title, description, column_id, order_index, created_at_unixms FROM tasks ORDER BY column_id, order_index, id`)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var t domain.Task
		var created int64
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.ColumnID, &t.OrderIndex, &created); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		t.CreatedAt = fromUnixMs(created)
		snap.Tasks = append(snap.Tasks, t)
	}
	return snap, rows.Err()
}

func (s *Store) save(ctx context.Context, tx *sql.Tx, snap *domain.Snapshot) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
		return fmt.Errorf("clear tasks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM columns`); err != nil {
		return fmt.Errorf("clear columns: %w", err)
	}
	for _, c := range snap.Columns {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO columns(id, title, color, order_index, created_at_unixms) VALUES (?, ?, ?, ?, ?)`,
			c.ID, c.Title, c.Color, c.OrderIndex, toUnixMs(c.CreatedAt)); err != nil {
			return fmt.Errorf("insert column %s: %w", c.ID, err)
		}
	}
	for _, t := range snap.Tasks {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tasks(id, title, description, column_id, order_index, created_at_unixms) VALUES (?, ?, ?, ?, ?, ?)`,
			t.ID, t.Title, t.Description, t.ColumnID, t.OrderIndex, toUnixMs(t.CreatedAt)); err != nil {
			return fmt.Errorf("insert task %s: %w", t.ID, err)
		}
	}
	return nil
}

func toUnixMs(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromUnixMs(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

var (
	_ domain.SnapshotStore    = (*Store)(nil)
	_ domain.StoreInitializer = (*Store)(nil)
)
