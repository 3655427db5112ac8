package runstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/overseerhq/overseer/registry"
	_ "modernc.org/sqlite"
)

// SQLiteStore is a SQLite-backed Store, for durable single-host
// deployments. It uses WAL mode with a 5s busy timeout over a single open
// connection, so the supervisor's poll loop, the HTTP layer's reads and
// run-status writes are serialized on that connection.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if absent) a SQLite database at path and
// ensures the runs table exists.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	s := &SQLiteStore{db: db}
	if err := s.createTable(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) createTable(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id          TEXT PRIMARY KEY,
			graph       TEXT NOT NULL,
			inputs      TEXT NOT NULL,
			status      TEXT NOT NULL,
			created_at  DATETIME NOT NULL,
			parent_run  TEXT,
			seq         INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create runs table: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Create(ctx context.Context, run registry.Run) error {
	inputs, err := json.Marshal(run.Inputs)
	if err != nil {
		return fmt.Errorf("marshal inputs: %w", err)
	}
	var seq int64
	row := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`)
	if err := row.Scan(&seq); err != nil {
		return fmt.Errorf("next seq: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, graph, inputs, status, created_at, parent_run, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Graph, string(inputs), string(run.Status), run.CreatedAt, run.ParentRun, seq)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (registry.Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, graph, inputs, status, created_at, parent_run FROM runs WHERE id = ?
	`, id)
	return scanRun(row)
}

func (s *SQLiteStore) UpdateStatus(ctx context.Context, id string, status registry.RunStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE runs SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) ListPending(ctx context.Context) ([]registry.Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, graph, inputs, status, created_at, parent_run
		FROM runs WHERE status = ? ORDER BY seq ASC
	`, string(registry.StatusPending))
	if err != nil {
		return nil, fmt.Errorf("query pending: %w", err)
	}
	defer rows.Close()

	var out []registry.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (registry.Run, error) {
	var run registry.Run
	var inputs string
	var status string
	var parentRun sql.NullString
	var createdAt time.Time

	err := row.Scan(&run.ID, &run.Graph, &inputs, &status, &createdAt, &parentRun)
	if err == sql.ErrNoRows {
		return registry.Run{}, ErrNotFound
	}
	if err != nil {
		return registry.Run{}, fmt.Errorf("scan run: %w", err)
	}

	if err := json.Unmarshal([]byte(inputs), &run.Inputs); err != nil {
		return registry.Run{}, fmt.Errorf("unmarshal inputs: %w", err)
	}
	run.Status = registry.RunStatus(status)
	run.CreatedAt = createdAt
	run.ParentRun = parentRun.String
	return run, nil
}
