package favorites

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	perrors "github.com/Aman-CERP/pantry/internal/errors"
)

// SQLiteStore keeps favorites in a single-table SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

const favoritesSchema = `
CREATE TABLE IF NOT EXISTS favorites (
	recipe_id TEXT PRIMARY KEY,
	added_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, perrors.IOError("create favorites directory", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, perrors.IOError("open favorites database", err)
	}

	// Single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, stmt := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		favoritesSchema,
	} {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, perrors.New(perrors.ErrCodeStoreCorrupt, "initialize favorites database", err).
				WithDetail("path", path)
		}
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// Load returns ids in the order they were first favorited.
func (s *SQLiteStore) Load(ctx context.Context) ([]string, error) {
	return loadIDs(ctx, s.db)
}

// Save makes the table hold exactly ids. Rows that stay keep their added_at.
func (s *SQLiteStore) Save(ctx context.Context, ids []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := replaceIDs(ctx, tx, ids); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Update runs fn inside an IMMEDIATE transaction, which takes the write lock
// before reading so another process cannot commit in between.
func (s *SQLiteStore) Update(ctx context.Context, fn UpdateFunc) ([]string, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_, _ = conn.ExecContext(context.Background(), "ROLLBACK")
		}
	}()

	current, err := loadIDs(ctx, conn)
	if err != nil {
		return nil, err
	}
	next, err := fn(current)
	if err != nil {
		return nil, err
	}
	if err := replaceIDs(ctx, conn, next); err != nil {
		return nil, err
	}
	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return next, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

func loadIDs(ctx context.Context, q queryer) ([]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT recipe_id FROM favorites ORDER BY added_at, recipe_id`)
	if err != nil {
		return nil, fmt.Errorf("query favorites: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func replaceIDs(ctx context.Context, tx execer, ids []string) error {
	if _, err := tx.ExecContext(ctx, `CREATE TEMP TABLE IF NOT EXISTS keep (recipe_id TEXT PRIMARY KEY)`); err != nil {
		return fmt.Errorf("create temp table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM keep`); err != nil {
		return fmt.Errorf("reset temp table: %w", err)
	}

	keep, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO keep (recipe_id) VALUES (?)`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer keep.Close()
	for _, id := range ids {
		if _, err := keep.ExecContext(ctx, id); err != nil {
			return fmt.Errorf("stage favorite: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM favorites WHERE recipe_id NOT IN (SELECT recipe_id FROM keep)`); err != nil {
		return fmt.Errorf("delete favorites: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO favorites (recipe_id) SELECT recipe_id FROM keep`); err != nil {
		return fmt.Errorf("insert favorites: %w", err)
	}
	return nil
}

// Path returns the database path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
