package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

const createTableSQL = `CREATE TABLE IF NOT EXISTS sanitizer_audit (
	id          BIGSERIAL PRIMARY KEY,
	entry_id    TEXT NOT NULL DEFAULT '',
	source      TEXT NOT NULL,
	raw         TEXT NOT NULL,
	diagnostics TEXT[] NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
)`

const insertSQL = `INSERT INTO sanitizer_audit (entry_id, source, raw, diagnostics, created_at)
VALUES ($1, $2, $3, $4, $5)`

// PostgresSink 写入 sanitizer_audit 表
type PostgresSink struct {
	db *sql.DB
}

// NewPostgresSink 连接 PostgreSQL 并确保表存在
func NewPostgresSink(ctx context.Context, dsn string) (*PostgresSink, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create audit table: %w", err)
	}

	return &PostgresSink{db: db}, nil
}

// Name 实现 Sink
func (s *PostgresSink) Name() string { return "postgres" }

// Write 实现 Sink
func (s *PostgresSink) Write(ctx context.Context, rec *Record) error {
	_, err := s.db.ExecContext(ctx, insertSQL,
		rec.EntryID, rec.Source, rec.Raw, pq.Array(rec.Diagnostics), rec.CreatedAt)
	return err
}

// Recent 按时间倒序读取某个条目最近的审计记录
func (s *PostgresSink) Recent(ctx context.Context, entryID string, limit int) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT entry_id, source, raw, diagnostics, created_at
FROM sanitizer_audit WHERE entry_id = $1 ORDER BY id DESC LIMIT $2`, entryID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec := &Record{}
		if err := rows.Scan(&rec.EntryID, &rec.Source, &rec.Raw, pq.Array(&rec.Diagnostics), &rec.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close 实现 Sink
func (s *PostgresSink) Close() error {
	return s.db.Close()
}
