package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/synopsis/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db   *sql.DB
	path string
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db, path: dbPath}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS summaries (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL DEFAULT '',
		ratio REAL NOT NULL,
		sentence_count INTEGER NOT NULL,
		sentences TEXT NOT NULL,
		text TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_summaries_created_at ON summaries(created_at);
	`
	_, err := db.Exec(schema)
	return err
}

// Path returns the database file path.
func (s *SQLiteStorage) Path() string {
	return s.path
}

// SaveSummary inserts a summary. The selected sentences are stored as JSON.
func (s *SQLiteStorage) SaveSummary(ctx context.Context, sum *models.Summary) error {
	if sum.ID == "" {
		sum.ID = uuid.New().String()
	}
	if sum.CreatedAt.IsZero() {
		sum.CreatedAt = time.Now().UTC()
	}
	sentencesJSON, err := json.Marshal(sum.Sentences)
	if err != nil {
		return fmt.Errorf("failed to marshal sentences: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO summaries (id, source, ratio, sentence_count, sentences, text, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sum.ID, sum.Source, sum.Ratio, sum.SentenceCount, string(sentencesJSON), sum.Text, sum.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert summary: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSummary(row rowScanner) (*models.Summary, error) {
	var sum models.Summary
	var sentencesJSON string
	if err := row.Scan(&sum.ID, &sum.Source, &sum.Ratio, &sum.SentenceCount, &sentencesJSON, &sum.Text, &sum.CreatedAt); err != nil {
		return nil, err
	}
	if sentencesJSON != "" {
		if err := json.Unmarshal([]byte(sentencesJSON), &sum.Sentences); err != nil {
			return nil, fmt.Errorf("failed to unmarshal sentences: %w", err)
		}
	}
	return &sum, nil
}

// GetSummary returns a summary by ID.
func (s *SQLiteStorage) GetSummary(ctx context.Context, id string) (*models.Summary, error) {
	sum, err := scanSummary(s.db.QueryRowContext(ctx,
		`SELECT id, source, ratio, sentence_count, sentences, text, created_at
		 FROM summaries WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return sum, nil
}

// ListSummaries returns summaries newest first with offset and limit.
func (s *SQLiteStorage) ListSummaries(ctx context.Context, offset, limit int) ([]*models.Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, ratio, sentence_count, sentences, text, created_at
		 FROM summaries ORDER BY created_at DESC, id LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*models.Summary
	for rows.Next() {
		sum, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, sum)
	}
	return list, rows.Err()
}

// DeleteSummary removes a summary by ID.
func (s *SQLiteStorage) DeleteSummary(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM summaries WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// CountSummaries returns the total number of stored summaries.
func (s *SQLiteStorage) CountSummaries(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM summaries`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
