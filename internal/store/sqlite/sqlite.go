package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vovakirdan/wirechat-admin/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS send_log (
	id           TEXT PRIMARY KEY,
	conversation TEXT NOT NULL,
	text         TEXT NOT NULL,
	delivery     TEXT NOT NULL DEFAULT 'pending',
	error        TEXT NOT NULL DEFAULT '',
	created_at   DATETIME NOT NULL,
	updated_at   DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_send_log_created ON send_log(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_send_log_delivery ON send_log(delivery, created_at DESC);
`

const defaultListLimit = 50

// SQLiteStore implements store.SendLog for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New opens the SQLite database at dbPath and applies the schema.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Set connection pool limits
	db.SetMaxOpenConns(1) // SQLite works best with single connection
	db.SetMaxIdleConns(1)

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// RecordSend stores a new send attempt.
func (s *SQLiteStore) RecordSend(ctx context.Context, rec *store.SendRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = rec.CreatedAt
	}
	if rec.Delivery == "" {
		rec.Delivery = store.DeliveryPending
	}

	query := `
		INSERT INTO send_log (id, conversation, text, delivery, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.Conversation, rec.Text, rec.Delivery, rec.Error, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert send: %w", err)
	}
	return nil
}

// UpdateSendDelivery sets the final delivery state of an attempt.
func (s *SQLiteStore) UpdateSendDelivery(ctx context.Context, id, delivery, errMsg string) error {
	query := `
		UPDATE send_log
		SET delivery = ?, error = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query, delivery, errMsg, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update send: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("send %s: %w", id, store.ErrNotFound)
	}
	return nil
}

// GetSend retrieves one attempt by ID.
func (s *SQLiteStore) GetSend(ctx context.Context, id string) (*store.SendRecord, error) {
	query := `
		SELECT id, conversation, text, delivery, error, created_at, updated_at
		FROM send_log
		WHERE id = ?
	`
	rec, err := scanSend(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("send %s: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query send: %w", err)
	}
	return rec, nil
}

// ListSends returns the most recent attempts first.
func (s *SQLiteStore) ListSends(ctx context.Context, limit int, delivery string) ([]*store.SendRecord, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	var (
		rows *sql.Rows
		err  error
	)
	if delivery == "" {
		query := `
			SELECT id, conversation, text, delivery, error, created_at, updated_at
			FROM send_log
			ORDER BY created_at DESC, rowid DESC
			LIMIT ?
		`
		rows, err = s.db.QueryContext(ctx, query, limit)
	} else {
		query := `
			SELECT id, conversation, text, delivery, error, created_at, updated_at
			FROM send_log
			WHERE delivery = ?
			ORDER BY created_at DESC, rowid DESC
			LIMIT ?
		`
		rows, err = s.db.QueryContext(ctx, query, delivery, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("query sends: %w", err)
	}
	defer rows.Close()

	var records []*store.SendRecord
	for rows.Next() {
		rec, err := scanSend(rows)
		if err != nil {
			return nil, fmt.Errorf("scan send: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sends: %w", err)
	}

	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSend(row scanner) (*store.SendRecord, error) {
	var rec store.SendRecord
	err := row.Scan(
		&rec.ID,
		&rec.Conversation,
		&rec.Text,
		&rec.Delivery,
		&rec.Error,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
