package progress

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/p-n-ai/learn-tracker/internal/apperr"
)

// FileStore keeps each user's document at <dir>/progress_<user>.json.
type FileStore struct {
	dir      string
	defaults Defaults
}

// NewFileStore creates a file-backed store rooted at dir.
func NewFileStore(dir string, defaults Defaults) *FileStore {
	return &FileStore{dir: dir, defaults: defaults.orDefault()}
}

// Path returns the file holding userID's progress.
func (s *FileStore) Path(userID string) string {
	return filepath.Join(s.dir, "progress_"+userID+".json")
}

func (s *FileStore) Load(ctx context.Context, userID string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validUserID(userID); err != nil {
		return nil, err
	}

	path := s.Path(userID)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Debug("no progress file, using defaults", "user", userID, "path", path)
		return s.defaults(userID), nil
	}
	if err != nil {
		return nil, &apperr.LoadError{Path: path, Err: err}
	}
	return decode(path, data)
}

func (s *FileStore) Save(ctx context.Context, userID string, doc *Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validUserID(userID); err != nil {
		return err
	}

	path := s.Path(userID)
	data, err := encode(doc)
	if err != nil {
		return &apperr.SaveError{Path: path, Err: err}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &apperr.SaveError{Path: path, Err: err}
	}
	return nil
}
