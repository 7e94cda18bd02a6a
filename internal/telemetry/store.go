package telemetry

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
)

const dateLayout = "2006-01-02"

// MaxZeroResults is how many zero-result searches the store keeps.
const MaxZeroResults = 100

// Store persists flushed deltas.
type Store interface {
	// Add merges one flush into the totals for date.
	Add(ctx context.Context, date string, p Pending) error
	// Report summarises everything recorded on or after since.
	Report(ctx context.Context, since time.Time, top int) (*Report, error)
	Close() error
}

// Report is the persisted view shown by 'pantry stats'.
type Report struct {
	Since       string                  `json:"since"`
	Total       int64                   `json:"total"`
	Stages      map[string]int64        `json:"stages"`
	TopTerms    []TermCount             `json:"top_terms"`
	ZeroResults []ZeroResult            `json:"zero_results"`
	Latencies   map[LatencyBucket]int64 `json:"latencies"`
}

const telemetrySchema = `
CREATE TABLE IF NOT EXISTS search_stages (
	date  TEXT NOT NULL,
	stage TEXT NOT NULL,
	count INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (date, stage)
);

CREATE TABLE IF NOT EXISTS search_terms (
	term      TEXT PRIMARY KEY,
	count     INTEGER NOT NULL DEFAULT 0,
	last_seen TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_search_terms_count ON search_terms(count DESC);

CREATE TABLE IF NOT EXISTS zero_result_searches (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	terms     TEXT NOT NULL,
	unix_time INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS search_latency (
	date   TEXT NOT NULL,
	bucket TEXT NOT NULL,
	count  INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (date, bucket)
);`

// SQLiteStore keeps statistics in a SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create telemetry directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open telemetry database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, stmt := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		telemetrySchema,
	} {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create telemetry schema: %w", err)
		}
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// Path returns the database file.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Add merges p into the totals in one transaction.
func (s *SQLiteStore) Add(ctx context.Context, date string, p Pending) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin telemetry flush: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for stage, n := range p.Stages {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO search_stages (date, stage, count) VALUES (?, ?, ?)
			ON CONFLICT(date, stage) DO UPDATE SET count = count + excluded.count`,
			date, stage, n); err != nil {
			return fmt.Errorf("save stage counts: %w", err)
		}
	}
	for bucket, n := range p.Latencies {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO search_latency (date, bucket, count) VALUES (?, ?, ?)
			ON CONFLICT(date, bucket) DO UPDATE SET count = count + excluded.count`,
			date, string(bucket), n); err != nil {
			return fmt.Errorf("save latency counts: %w", err)
		}
	}
	for _, tc := range p.TopTerms {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO search_terms (term, count, last_seen) VALUES (?, ?, ?)
			ON CONFLICT(term) DO UPDATE SET count = count + excluded.count, last_seen = excluded.last_seen`,
			tc.Term, tc.Count, date); err != nil {
			return fmt.Errorf("save term counts: %w", err)
		}
	}
	for _, z := range p.ZeroResults {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO zero_result_searches (terms, unix_time) VALUES (?, ?)`,
			z.Terms, z.Timestamp.Unix()); err != nil {
			return fmt.Errorf("save zero-result search: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM zero_result_searches
		WHERE id NOT IN (SELECT id FROM zero_result_searches ORDER BY id DESC LIMIT ?)`,
		MaxZeroResults); err != nil {
		return fmt.Errorf("trim zero-result searches: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit telemetry flush: %w", err)
	}
	return nil
}

// Report summarises the stored statistics. Stage and latency counts are
// limited to dates on or after since; term counts are all-time.
func (s *SQLiteStore) Report(ctx context.Context, since time.Time, top int) (*Report, error) {
	if top <= 0 {
		top = 10
	}
	from := since.Format(dateLayout)
	r := &Report{
		Since:     from,
		Stages:    make(map[string]int64),
		Latencies: make(map[LatencyBucket]int64),
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT stage, SUM(count) FROM search_stages WHERE date >= ? GROUP BY stage`, from)
	if err != nil {
		return nil, fmt.Errorf("query stage counts: %w", err)
	}
	for rows.Next() {
		var stage string
		var n int64
		if err := rows.Scan(&stage, &n); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan stage count: %w", err)
		}
		r.Stages[stage] = n
		r.Total += n
	}
	_ = rows.Close()

	rows, err = s.db.QueryContext(ctx,
		`SELECT bucket, SUM(count) FROM search_latency WHERE date >= ? GROUP BY bucket`, from)
	if err != nil {
		return nil, fmt.Errorf("query latency counts: %w", err)
	}
	for rows.Next() {
		var bucket string
		var n int64
		if err := rows.Scan(&bucket, &n); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan latency count: %w", err)
		}
		r.Latencies[LatencyBucket(bucket)] = n
	}
	_ = rows.Close()

	rows, err = s.db.QueryContext(ctx,
		`SELECT term, count FROM search_terms ORDER BY count DESC, term LIMIT ?`, top)
	if err != nil {
		return nil, fmt.Errorf("query top terms: %w", err)
	}
	for rows.Next() {
		var tc TermCount
		if err := rows.Scan(&tc.Term, &tc.Count); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan term count: %w", err)
		}
		r.TopTerms = append(r.TopTerms, tc)
	}
	_ = rows.Close()

	rows, err = s.db.QueryContext(ctx, `
		SELECT terms, unix_time FROM zero_result_searches
		WHERE unix_time >= ? ORDER BY id DESC LIMIT ?`, since.Unix(), top)
	if err != nil {
		return nil, fmt.Errorf("query zero-result searches: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var z ZeroResult
		var unix int64
		if err := rows.Scan(&z.Terms, &unix); err != nil {
			return nil, fmt.Errorf("scan zero-result search: %w", err)
		}
		z.Timestamp = time.Unix(unix, 0)
		r.ZeroResults = append(r.ZeroResults, z)
	}
	return r, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
