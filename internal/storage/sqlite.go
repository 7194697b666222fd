package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite" // Pure Go driver, CGO-free, compatible with CGO_ENABLED=0
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dsn string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable wal: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func migrate(db *sql.DB) error {
	schema := `
    CREATE TABLE IF NOT EXISTS exchanges (
        id            TEXT PRIMARY KEY,
        backend       TEXT NOT NULL,
        model         TEXT NOT NULL,
        prompt        TEXT NOT NULL,
        text          TEXT NOT NULL DEFAULT '',
        raw           TEXT,
        status        TEXT NOT NULL,
        error_kind    TEXT NOT NULL DEFAULT '',
        error_message TEXT NOT NULL DEFAULT '',
        duration_ms   INTEGER,
        created_at    DATETIME DEFAULT CURRENT_TIMESTAMP
    );
    CREATE INDEX IF NOT EXISTS idx_exchanges_created ON exchanges(created_at);
    `
	_, err := db.Exec(schema)
	return err
}

func (r *SQLiteRepository) SaveExchange(ctx context.Context, record *ExchangeRecord) error {
	var raw sql.NullString
	if compacted := compactRaw(record.Raw); compacted != nil {
		raw = sql.NullString{String: string(compacted), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
        INSERT INTO exchanges (id, backend, model, prompt, text, raw, status, error_kind, error_message, duration_ms, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `, record.ID, record.Backend, record.Model, record.Prompt, record.Text, raw,
		record.Status, record.ErrorKind, record.ErrorMessage, record.DurationMs, record.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert exchange: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetExchange(ctx context.Context, id string) (*ExchangeRecord, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT id, backend, model, prompt, text, raw, status, error_kind, error_message, duration_ms, created_at
        FROM exchanges WHERE id = ?
    `, id)
	record, err := scanExchange(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return record, err
}

func (r *SQLiteRepository) ListRecentExchanges(ctx context.Context, limit int) ([]*ExchangeRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, backend, model, prompt, text, raw, status, error_kind, error_message, duration_ms, created_at
        FROM exchanges
        ORDER BY created_at DESC, rowid DESC
        LIMIT ?
    `, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*ExchangeRecord
	for rows.Next() {
		record, err := scanExchange(rows)
		if err != nil {
			slog.Warn("scan exchange failed", "error", err)
			continue
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// Scanner interface to support both Row and Rows
type Scanner interface {
	Scan(dest ...any) error
}

func scanExchange(s Scanner) (*ExchangeRecord, error) {
	var record ExchangeRecord
	var raw sql.NullString
	var durationMs sql.NullInt64
	var createdAt time.Time

	if err := s.Scan(&record.ID, &record.Backend, &record.Model, &record.Prompt, &record.Text, &raw,
		&record.Status, &record.ErrorKind, &record.ErrorMessage, &durationMs, &createdAt); err != nil {
		return nil, err
	}

	if raw.Valid {
		record.Raw = []byte(raw.String)
	}
	record.DurationMs = durationMs.Int64
	record.CreatedAt = createdAt
	return &record, nil
}
