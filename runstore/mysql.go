package runstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/overseerhq/overseer/registry"
	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore is a MySQL/MariaDB-backed Store, for deployments that already
// run MySQL and want the run index alongside their other state.
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore opens a connection pool against dsn and ensures the runs
// table exists. dsn follows the go-sql-driver/mysql format, e.g.
// "user:pass@tcp(localhost:3306)/overseer?parseTime=true".
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}

	s := &MySQLStore{db: db}
	if err := s.createTable(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *MySQLStore) createTable(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id          VARCHAR(191) PRIMARY KEY,
			graph_name  VARCHAR(191) NOT NULL,
			inputs      JSON NOT NULL,
			status      VARCHAR(32) NOT NULL,
			created_at  DATETIME(6) NOT NULL,
			parent_run  VARCHAR(191),
			seq         BIGINT NOT NULL AUTO_INCREMENT,
			UNIQUE KEY seq_idx (seq)
		) ENGINE=InnoDB
	`)
	if err != nil {
		return fmt.Errorf("create runs table: %w", err)
	}
	return nil
}

func (s *MySQLStore) Create(ctx context.Context, run registry.Run) error {
	inputs, err := json.Marshal(run.Inputs)
	if err != nil {
		return fmt.Errorf("marshal inputs: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, graph_name, inputs, status, created_at, parent_run)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.ID, run.Graph, string(inputs), string(run.Status), run.CreatedAt, run.ParentRun)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (s *MySQLStore) Get(ctx context.Context, id string) (registry.Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, graph_name, inputs, status, created_at, parent_run FROM runs WHERE id = ?
	`, id)
	return scanRun(row)
}

func (s *MySQLStore) UpdateStatus(ctx context.Context, id string, status registry.RunStatus) error {
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

func (s *MySQLStore) ListPending(ctx context.Context) ([]registry.Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, graph_name, inputs, status, created_at, parent_run
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

func (s *MySQLStore) Close() error {
	return s.db.Close()
}
