// Package storage persists agency data in SQLite or Postgres through sqlx.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"agencyhub/internal/apperr"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Store wraps access to the database and exposes high level helpers.
type Store struct {
	db     *sqlx.DB
	logger *slog.Logger
	now    func() time.Time
}

// Open connects to the database and runs the required migrations. For
// SQLite, dsn is a file path whose directory is created if missing.
func Open(driver, dsn string, logger *slog.Logger) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("empty database dsn")
	}
	if logger == nil {
		logger = slog.Default()
	}

	var conn *sqlx.DB
	var err error
	switch driver {
	case DriverSQLite, "":
		if err := ensureDir(dsn); err != nil {
			return nil, err
		}
		conn, err = sqlx.Open(DriverSQLite, fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=ON", dsn))
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		conn.SetMaxOpenConns(1)
		conn.SetConnMaxLifetime(0)
	case DriverPostgres:
		conn, err = sqlx.Open(DriverPostgres, dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		conn.SetMaxOpenConns(10)
		conn.SetConnMaxIdleTime(5 * time.Minute)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	s := &Store{db: conn, logger: logger, now: func() time.Time { return time.Now().UTC() }}
	if err := s.migrate(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SetClock replaces the time source used for timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.now = func() time.Time { return now().UTC() }
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func ensureDir(dbPath string) error {
	if dbPath == ":memory:" {
		return nil
	}
	dir := filepath.Dir(dbPath)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (s *Store) migrate() error {
	timestamp := "TIMESTAMP"
	if s.db.DriverName() == DriverPostgres {
		timestamp = "TIMESTAMPTZ"
	}
	for _, stmt := range schema {
		if _, err := s.db.Exec(strings.ReplaceAll(stmt, "{ts}", timestamp)); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		role TEXT NOT NULL DEFAULT 'designer',
		avatar_url TEXT,
		password_hash TEXT NOT NULL DEFAULT '',
		created_at {ts} NOT NULL,
		updated_at {ts} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		token_hash TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		expires_at {ts} NOT NULL,
		created_at {ts} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS notification_preferences (
		user_id TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		email_on_approval BOOLEAN NOT NULL DEFAULT TRUE,
		email_on_comment BOOLEAN NOT NULL DEFAULT TRUE,
		email_on_assign BOOLEAN NOT NULL DEFAULT TRUE,
		email_on_deadline BOOLEAN NOT NULL DEFAULT TRUE,
		updated_at {ts} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS clients (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		contact_name TEXT,
		contact_email TEXT,
		brand_color TEXT,
		logo_url TEXT,
		tone_of_voice TEXT,
		created_at {ts} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL REFERENCES clients(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		description TEXT,
		status TEXT NOT NULL DEFAULT 'active',
		start_date DATE,
		due_date DATE,
		cover_image_url TEXT,
		created_by TEXT REFERENCES users(id) ON DELETE SET NULL,
		created_at {ts} NOT NULL,
		updated_at {ts} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS pipeline_columns (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		position INTEGER NOT NULL,
		color TEXT,
		is_final BOOLEAN NOT NULL DEFAULT FALSE,
		created_at {ts} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		column_id TEXT NOT NULL REFERENCES pipeline_columns(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		description TEXT,
		priority TEXT NOT NULL DEFAULT 'medium',
		due_date DATE,
		position INTEGER NOT NULL DEFAULT 0,
		created_by TEXT REFERENCES users(id) ON DELETE SET NULL,
		created_at {ts} NOT NULL,
		updated_at {ts} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_column ON tasks(column_id, position)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id)`,
	`CREATE TABLE IF NOT EXISTS task_assignees (
		task_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		PRIMARY KEY (task_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS subtasks (
		id TEXT PRIMARY KEY,
		task_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		completed BOOLEAN NOT NULL DEFAULT FALSE,
		assigned_to TEXT REFERENCES users(id) ON DELETE SET NULL,
		created_by TEXT REFERENCES users(id) ON DELETE SET NULL,
		created_at {ts} NOT NULL,
		updated_at {ts} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS attachments (
		id TEXT PRIMARY KEY,
		task_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		file_url TEXT NOT NULL,
		file_name TEXT NOT NULL,
		file_type TEXT,
		file_size BIGINT,
		uploaded_by TEXT REFERENCES users(id) ON DELETE SET NULL,
		created_at {ts} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS approvals (
		id TEXT PRIMARY KEY,
		task_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		requested_by TEXT REFERENCES users(id) ON DELETE SET NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		client_email TEXT,
		client_name TEXT,
		public_token TEXT NOT NULL UNIQUE,
		notes TEXT,
		client_feedback TEXT,
		expires_at {ts},
		responded_at {ts},
		created_at {ts} NOT NULL,
		updated_at {ts} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_approvals_project ON approvals(project_id)`,
	`CREATE TABLE IF NOT EXISTS ai_generations (
		id TEXT PRIMARY KEY,
		project_id TEXT REFERENCES projects(id) ON DELETE SET NULL,
		user_id TEXT REFERENCES users(id) ON DELETE SET NULL,
		content_type TEXT NOT NULL,
		prompt TEXT NOT NULL,
		result TEXT NOT NULL,
		model TEXT NOT NULL,
		tokens_used INTEGER,
		created_at {ts} NOT NULL
	)`,
}

func newID() string {
	return uuid.NewString()
}

// notFound maps sql.ErrNoRows to an apperr not-found error for entity.
func notFound(err error, entity, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound(entity)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// expectRow turns a zero-row exec into a not-found error.
func expectRow(res sql.Result, entity string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.NotFound(entity)
	}
	return nil
}

// inTx runs fn in a transaction, committing when it returns nil.
func (s *Store) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// update collects SET assignments for a partial update.
type update struct {
	sets []string
	args []any
}

func (u *update) set(column string, value any) {
	u.sets = append(u.sets, column+" = ?")
	u.args = append(u.args, value)
}

func (u *update) empty() bool {
	return len(u.sets) == 0
}

// query renders the statement for table, keyed by id. Placeholders still
// need Rebind.
func (u *update) query(table, id string) (string, []any) {
	q := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", table, strings.Join(u.sets, ", "))
	return q, append(append([]any{}, u.args...), id)
}

func trimPtr(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
