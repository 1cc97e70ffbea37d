package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"gigboard/internal/domain"
)

// Store is the durable ledger of Job, Task, Payment and Earning records.
// Payment and Earning rows are append/status-mutate only: nothing here ever
// deletes them, they form the audit trail.
type Store struct {
	db  *sqlx.DB
	log *slog.Logger
}

// New opens the database, verifies the connection and bootstraps the schema.
func New(databaseURL string, log *slog.Logger) (*Store, error) {
	conn, err := sqlx.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	conn.SetMaxOpenConns(50)
	conn.SetMaxIdleConns(20)
	conn.SetConnMaxLifetime(5 * time.Minute)

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: conn, log: log}
	if err := s.ensureSchema(); err != nil {
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}
	log.Info("database ready")
	return s, nil
}

// NewWithDB wraps an existing connection. Used by tests with sqlmock.
func NewWithDB(conn *sqlx.DB, log *slog.Logger) *Store {
	return &Store{db: conn, log: log}
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

const createTablesSQL = `
CREATE TABLE IF NOT EXISTS users (
    id SERIAL PRIMARY KEY,
    chat_id BIGINT UNIQUE,
    name TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE,
    role TEXT NOT NULL DEFAULT 'poster',
    stripe_customer_id TEXT,
    stripe_account_id TEXT,
    account_status TEXT NOT NULL DEFAULT 'none',
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS jobs (
    id SERIAL PRIMARY KEY,
    poster_id INTEGER NOT NULL REFERENCES users(id),
    worker_id INTEGER REFERENCES users(id),
    title TEXT NOT NULL,
    description TEXT NOT NULL,
    category TEXT NOT NULL DEFAULT '',
    payment_type TEXT NOT NULL,
    payment_amount FLOAT NOT NULL,
    service_fee FLOAT NOT NULL,
    total_amount FLOAT NOT NULL,
    status TEXT NOT NULL,
    payment_status TEXT NOT NULL DEFAULT 'unpaid',
    tasks_completed INTEGER NOT NULL DEFAULT 0,
    tasks_total INTEGER NOT NULL DEFAULT 0,
    date_posted TIMESTAMP DEFAULT NOW(),
    date_needed TIMESTAMP,
    completed_at TIMESTAMP
);
CREATE TABLE IF NOT EXISTS tasks (
    id SERIAL PRIMARY KEY,
    job_id INTEGER NOT NULL REFERENCES jobs(id),
    description TEXT NOT NULL,
    position INTEGER NOT NULL,
    is_completed BOOLEAN NOT NULL DEFAULT FALSE,
    completed_by INTEGER REFERENCES users(id),
    completed_at TIMESTAMP,
    bonus_amount FLOAT NOT NULL DEFAULT 0,
    UNIQUE (job_id, position)
);
CREATE TABLE IF NOT EXISTS payments (
    id SERIAL PRIMARY KEY,
    user_id INTEGER NOT NULL REFERENCES users(id),
    worker_id INTEGER REFERENCES users(id),
    job_id INTEGER REFERENCES jobs(id),
    amount FLOAT NOT NULL,
    service_fee FLOAT NOT NULL DEFAULT 0,
    type TEXT NOT NULL,
    status TEXT NOT NULL,
    transaction_id TEXT,
    stripe_customer_id TEXT,
    stripe_connect_account_id TEXT,
    created_at TIMESTAMP DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS earnings (
    id SERIAL PRIMARY KEY,
    worker_id INTEGER NOT NULL REFERENCES users(id),
    job_id INTEGER NOT NULL REFERENCES jobs(id),
    amount FLOAT NOT NULL,
    service_fee FLOAT NOT NULL,
    net_amount FLOAT NOT NULL,
    status TEXT NOT NULL DEFAULT 'pending',
    transaction_id TEXT,
    date_earned TIMESTAMP DEFAULT NOW(),
    date_paid TIMESTAMP,
    UNIQUE (job_id, worker_id)
);
`

// transaction_id is the reconciliation idempotency key: at most one payment
// row may exist per external transaction id.
const createIndexesSQL = `
CREATE UNIQUE INDEX IF NOT EXISTS idx_payments_transaction_id ON payments(transaction_id) WHERE transaction_id IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_jobs_poster_id_status ON jobs(poster_id, status);
CREATE INDEX IF NOT EXISTS idx_jobs_worker_id ON jobs(worker_id);
CREATE INDEX IF NOT EXISTS idx_tasks_job_id ON tasks(job_id);
CREATE INDEX IF NOT EXISTS idx_payments_job_id ON payments(job_id);
CREATE INDEX IF NOT EXISTS idx_payments_user_id ON payments(user_id);
CREATE INDEX IF NOT EXISTS idx_earnings_worker_id ON earnings(worker_id);
CREATE INDEX IF NOT EXISTS idx_users_chat_id ON users(chat_id);
`

func (s *Store) ensureSchema() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(createTablesSQL); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}

	// CREATE INDEX IF NOT EXISTS is idempotent; run statements one by one
	// so a single failure does not mask the rest.
	for _, stmt := range strings.Split(strings.TrimSpace(createIndexesSQL), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.Exec(stmt); err != nil {
			s.log.Warn("index creation failed", "stmt", stmt, "error", err)
		}
	}
	return nil
}

// translateErr maps driver errors onto the domain error taxonomy.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("%w: %s", domain.ErrDuplicate, pqErr.Constraint)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}
