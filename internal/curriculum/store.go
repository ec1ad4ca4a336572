package curriculum

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/p-n-ai/learn-tracker/internal/apperr"
	"github.com/p-n-ai/learn-tracker/internal/platform/schema"
)

// Store loads and caches the shared curriculum document. The first
// successful Load is kept for the life of the process; Save replaces it.
type Store struct {
	path   string
	cached *Curriculum
	mu     sync.RWMutex
}

// NewStore creates a store for the document at path. Nothing is read until
// Load is called.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the document location.
func (s *Store) Path() string {
	return s.path
}

// Load returns a private copy of the curriculum, reading the document on
// first use. A missing, unreadable or malformed document is a LoadError.
func (s *Store) Load() (*Curriculum, error) {
	s.mu.RLock()
	if s.cached != nil {
		c := s.cached.Clone()
		s.mu.RUnlock()
		return c, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached != nil {
		return s.cached.Clone(), nil
	}

	c, err := s.read()
	if err != nil {
		return nil, &apperr.LoadError{Path: s.path, Err: err}
	}
	s.cached = c

	totals := c.Totals()
	slog.Info("curriculum loaded",
		"path", s.path,
		"categories", totals.Categories,
		"topics", totals.Topics,
		"subtopics", totals.Subtopics,
	)
	return c.Clone(), nil
}

// Normalize assigns missing subtopic ids in the cached copy, so every later
// Load sees them. The document itself is not rewritten. It returns the
// number of subtopics changed.
func (s *Store) Normalize() (int, error) {
	if _, err := s.Load(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return Normalize(s.cached), nil
}

// Save writes the full curriculum back as indented JSON, overwriting the
// document, and refreshes the cache.
func (s *Store) Save(c *Curriculum) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return &apperr.SaveError{Path: s.path, Err: fmt.Errorf("marshal curriculum: %w", err)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return &apperr.SaveError{Path: s.path, Err: err}
	}
	s.cached = c.Clone()

	slog.Debug("curriculum saved", "path", s.path, "bytes", len(data))
	return nil
}

func (s *Store) read() (*Curriculum, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}

	if isYAML(s.path) {
		data, err = yamlToJSON(data)
		if err != nil {
			return nil, err
		}
	}

	if err := schema.Validate(schema.Curriculum, data); err != nil {
		return nil, err
	}

	var c Curriculum
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode curriculum: %w", err)
	}
	if err := c.CheckNames(); err != nil {
		return nil, err
	}
	return &c, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// yamlToJSON re-encodes a YAML curriculum as JSON so both formats share one
// schema and one decoder.
func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode yaml curriculum: %w", err)
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("re-encode yaml curriculum: %w", err)
	}
	return out, nil
}
