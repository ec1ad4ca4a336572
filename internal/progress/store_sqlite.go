package progress

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/p-n-ai/learn-tracker/internal/apperr"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS progress_documents (
	user_id    TEXT PRIMARY KEY,
	document   TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`

// SQLiteStore keeps each user's document as one row in a local SQLite file.
type SQLiteStore struct {
	sqlDB    *sql.DB
	defaults Defaults
}

// OpenSQLiteStore opens (creating if needed) the database at path.
func OpenSQLiteStore(path string, defaults Defaults) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(sqliteSchema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create progress table: %w", err)
	}
	return &SQLiteStore{sqlDB: sqlDB, defaults: defaults.orDefault()}, nil
}

// Close closes the SQLite handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *SQLiteStore) Load(ctx context.Context, userID string) (*Document, error) {
	if err := validUserID(userID); err != nil {
		return nil, err
	}

	var raw string
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT document FROM progress_documents WHERE user_id = ?`,
		userID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return s.defaults(userID), nil
	}
	if err != nil {
		return nil, &apperr.LoadError{Path: location(userID), Err: err}
	}
	return decode(location(userID), []byte(raw))
}

func (s *SQLiteStore) Save(ctx context.Context, userID string, doc *Document) error {
	if err := validUserID(userID); err != nil {
		return err
	}
	data, err := encode(doc)
	if err != nil {
		return &apperr.SaveError{Path: location(userID), Err: err}
	}

	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO progress_documents (user_id, document, updated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE
		 SET document = excluded.document, updated_at = excluded.updated_at`,
		userID,
		string(data),
		time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return &apperr.SaveError{Path: location(userID), Err: fmt.Errorf("upsert progress: %w", err)}
	}
	return nil
}
