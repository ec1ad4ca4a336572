package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/p-n-ai/learn-tracker/internal/apperr"
)

const dbTimeout = 5 * time.Second

// PostgresStore keeps each user's document as one JSONB row in
// progress_documents. The table is created by database.Migrate.
type PostgresStore struct {
	pool     *pgxpool.Pool
	defaults Defaults
}

// NewPostgresStore creates a PostgreSQL-backed progress store.
func NewPostgresStore(pool *pgxpool.Pool, defaults Defaults) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool, defaults: defaults.orDefault()}, nil
}

func (s *PostgresStore) Load(ctx context.Context, userID string) (*Document, error) {
	if err := validUserID(userID); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var raw string
	err := s.pool.QueryRow(ctx,
		`SELECT document::text FROM progress_documents WHERE user_id = $1`,
		userID,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return s.defaults(userID), nil
	}
	if err != nil {
		return nil, &apperr.LoadError{Path: location(userID), Err: err}
	}
	return decode(location(userID), []byte(raw))
}

func (s *PostgresStore) Save(ctx context.Context, userID string, doc *Document) error {
	if err := validUserID(userID); err != nil {
		return err
	}
	data, err := encode(doc)
	if err != nil {
		return &apperr.SaveError{Path: location(userID), Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err = s.pool.Exec(ctx,
		`INSERT INTO progress_documents (user_id, document, updated_at)
		 VALUES ($1, $2::jsonb, NOW())
		 ON CONFLICT (user_id) DO UPDATE
		 SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at`,
		userID,
		string(data),
	)
	if err != nil {
		return &apperr.SaveError{Path: location(userID), Err: fmt.Errorf("upsert progress: %w", err)}
	}
	return nil
}

func location(userID string) string {
	return "progress_documents/" + userID
}
