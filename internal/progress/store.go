package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/p-n-ai/learn-tracker/internal/apperr"
	"github.com/p-n-ai/learn-tracker/internal/platform/schema"
)

// Store persists one progress document per user. Load returns a fresh
// default document when the user has none; Save overwrites wholesale.
type Store interface {
	Load(ctx context.Context, userID string) (*Document, error)
	Save(ctx context.Context, userID string, doc *Document) error
}

// Defaults builds the document returned for a user with no stored progress.
type Defaults func(userID string) *Document

// DefaultsFor returns Defaults that look up display names with name and
// addresses with email, and stamp the start date with now. Any argument may
// be nil.
func DefaultsFor(name, email func(userID string) string, now func() time.Time) Defaults {
	if now == nil {
		now = time.Now
	}
	return func(userID string) *Document {
		var display, addr string
		if name != nil {
			display = name(userID)
		}
		if email != nil {
			addr = email(userID)
		}
		return NewDocument(userID, display, addr, now())
	}
}

func (d Defaults) orDefault() Defaults {
	if d != nil {
		return d
	}
	return DefaultsFor(nil, nil, nil)
}

// validUserID rejects ids that cannot be used as a storage key.
func validUserID(userID string) error {
	switch {
	case strings.TrimSpace(userID) == "":
		return apperr.Invalid("user", "id is required")
	case strings.ContainsAny(userID, `/\`) || strings.Contains(userID, ".."):
		return apperr.Invalid("user", fmt.Sprintf("id %q contains path characters", userID))
	}
	return nil
}

// decode validates and parses a stored document. Failures are LoadErrors
// naming location.
func decode(location string, data []byte) (*Document, error) {
	if err := schema.Validate(schema.Progress, data); err != nil {
		return nil, &apperr.LoadError{Path: location, Err: err}
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &apperr.LoadError{Path: location, Err: fmt.Errorf("decode progress: %w", err)}
	}
	if doc.Progress == nil {
		doc.Progress = map[string]*CategoryProgress{}
	}
	return &doc, nil
}

func encode(doc *Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal progress: %w", err)
	}
	return data, nil
}
