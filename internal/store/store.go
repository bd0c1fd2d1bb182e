package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// Store holds the local cache database and provides access to repositories.
// Nothing in it is authoritative; the API server owns every record.
type Store struct {
	db  *sql.DB
	drv *entsql.Driver
	seq *sequenceCounter
}

// Open creates a new Store connected to the SQLite database at dsn.
// It applies recommended pragmas and runs migrations.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	drv := entsql.OpenDB(dialect.SQLite, db)

	if err := migrate(context.Background(), drv); err != nil {
		drv.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	seq, err := newSequenceCounter(context.Background(), drv)
	if err != nil {
		drv.Close()
		return nil, err
	}

	return &Store{db: db, drv: drv, seq: seq}, nil
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.drv.Close()
}

// CredentialRepo returns the credential storage backed by this store.
func (s *Store) CredentialRepo() CredentialRepo {
	return &credentialRepo{drv: s.drv}
}

// SessionRepo returns the session cache backed by this store.
func (s *Store) SessionRepo() SessionRepo {
	return &sessionRepo{drv: s.drv}
}

// AnswerRepo returns the server-driven answer cache backed by this store.
func (s *Store) AnswerRepo() AnswerRepo {
	return &answerRepo{drv: s.drv}
}

// ResultRepo returns the result cache backed by this store.
func (s *Store) ResultRepo() ResultRepo {
	return &resultRepo{drv: s.drv}
}

// EventRepo returns the event log backed by this store.
func (s *Store) EventRepo() EventRepo {
	return &eventRepo{drv: s.drv, seq: s.seq}
}

// applyPragmas configures SQLite for optimal single-user performance.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// sqlite builds statements in the SQLite dialect.
var sqlite = entsql.Dialect(dialect.SQLite)

func col(name, typ, attr string) *entsql.ColumnBuilder {
	return entsql.Column(name).Type(typ).Attr(attr)
}

// tables lists the cache schema. Every statement is idempotent.
func tables() []entsql.Querier {
	return []entsql.Querier{
		sqlite.CreateTable("credentials").IfNotExists().Columns(
			col("id", "INTEGER", "PRIMARY KEY CHECK (id = 1)"),
			col("token", "TEXT", "NOT NULL"),
			col("saved_at", "INTEGER", "NOT NULL"),
		),
		sqlite.CreateTable("sessions").IfNotExists().Columns(
			col("id", "TEXT", "PRIMARY KEY"),
			col("assessment_type", "TEXT", "NOT NULL"),
			col("status", "TEXT", "NOT NULL"),
			col("current_phase", "INTEGER", "NOT NULL DEFAULT 0"),
			col("data", "TEXT", "NOT NULL"),
			col("cached_at", "INTEGER", "NOT NULL"),
		),
		entsql.CreateIndex("idx_sessions_cached_at").IfNotExists().
			Table("sessions").Columns("cached_at"),
		sqlite.CreateTable("answers").IfNotExists().Columns(
			col("session_id", "TEXT", "NOT NULL"),
			col("question_id", "TEXT", "NOT NULL"),
			col("position", "INTEGER", "NOT NULL"),
			col("total", "INTEGER", "NOT NULL DEFAULT 0"),
			col("question", "TEXT", "NOT NULL"),
			col("value", "TEXT", "NOT NULL"),
			col("answered_at", "INTEGER", "NOT NULL"),
		).PrimaryKey("session_id", "question_id"),
		sqlite.CreateTable("results").IfNotExists().Columns(
			col("session_id", "TEXT", "PRIMARY KEY"),
			col("data", "TEXT", "NOT NULL"),
			col("fetched_at", "INTEGER", "NOT NULL"),
		),
		sqlite.CreateTable("llm_request_events").IfNotExists().Columns(
			col("id", "INTEGER", "PRIMARY KEY AUTOINCREMENT"),
			col("sequence", "INTEGER", "NOT NULL"),
			col("timestamp", "INTEGER", "NOT NULL"),
			col("provider", "TEXT", "NOT NULL"),
			col("model", "TEXT", "NOT NULL"),
			col("purpose", "TEXT", "NOT NULL DEFAULT ''"),
			col("attempt", "INTEGER", "NOT NULL DEFAULT 1"),
			col("input_tokens", "INTEGER", "NOT NULL DEFAULT 0"),
			col("output_tokens", "INTEGER", "NOT NULL DEFAULT 0"),
			col("latency_ms", "INTEGER", "NOT NULL DEFAULT 0"),
			col("success", "INTEGER", "NOT NULL"),
			col("error_message", "TEXT", "NOT NULL DEFAULT ''"),
			col("request_body", "TEXT", "NOT NULL DEFAULT ''"),
			col("response_body", "TEXT", "NOT NULL DEFAULT ''"),
		),
		sqlite.CreateTable("global_sequence").IfNotExists().Columns(
			col("id", "INTEGER", "PRIMARY KEY CHECK (id = 1)"),
			col("next_val", "INTEGER", "NOT NULL DEFAULT 1"),
		),
	}
}

// migrate creates missing tables.
func migrate(ctx context.Context, ex dialect.ExecQuerier) error {
	for _, t := range tables() {
		if err := exec(ctx, ex, t); err != nil {
			return err
		}
	}
	return nil
}

// exec runs a built statement that returns no rows.
func exec(ctx context.Context, ex dialect.ExecQuerier, q entsql.Querier) error {
	query, args := q.Query()
	return ex.Exec(ctx, query, args, nil)
}

// each runs a built query and calls scan once per row.
func each(ctx context.Context, ex dialect.ExecQuerier, q entsql.Querier, scan func(rows *entsql.Rows) error) error {
	query, args := q.Query()
	var rows entsql.Rows
	if err := ex.Query(ctx, query, args, &rows); err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(&rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// inTx runs fn inside a transaction, rolling back when it fails.
func inTx(ctx context.Context, drv *entsql.Driver, fn func(tx dialect.Tx) error) error {
	tx, err := drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// DefaultDBPath resolves the database file path in priority order:
// 1. NUTRIFY_DB environment variable
// 2. $XDG_DATA_HOME/nutrify/nutrify.db
// 3. ~/.local/share/nutrify/nutrify.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("NUTRIFY_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "nutrify", "nutrify.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}
