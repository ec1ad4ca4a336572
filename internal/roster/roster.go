// Package roster holds the fixed set of users configured at deployment.
package roster

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/p-n-ai/learn-tracker/internal/apperr"
	"github.com/p-n-ai/learn-tracker/internal/platform/config"
)

// User is one tracked learner.
type User struct {
	ID    string `yaml:"id" json:"id"`
	Name  string `yaml:"name" json:"name"`
	Email string `yaml:"email" json:"email"`
}

// Roster is an ordered, immutable user list.
type Roster struct {
	users []User
	index map[string]int
}

// New builds a roster, filling in missing display names and emails.
// Duplicate or empty ids are rejected.
func New(users []User) (*Roster, error) {
	title := cases.Title(language.Und)
	r := &Roster{
		users: make([]User, 0, len(users)),
		index: make(map[string]int, len(users)),
	}
	for _, u := range users {
		u.ID = strings.TrimSpace(u.ID)
		u.Name = strings.TrimSpace(u.Name)
		if u.ID == "" {
			return nil, fmt.Errorf("roster entry %d has no id", len(r.users)+1)
		}
		if _, dup := r.index[u.ID]; dup {
			return nil, fmt.Errorf("duplicate roster id %q", u.ID)
		}
		if u.Name == "" {
			u.Name = title.String(u.ID)
		}
		if u.Email == "" {
			u.Email = u.ID + "@example.com"
		}
		r.index[u.ID] = len(r.users)
		r.users = append(r.users, u)
	}
	if len(r.users) == 0 {
		return nil, fmt.Errorf("roster is empty")
	}
	return r, nil
}

// Parse reads "id:Name,id:Name". The ":Name" part is optional.
func Parse(list string) (*Roster, error) {
	var users []User
	for _, entry := range strings.Split(list, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		id, name, _ := strings.Cut(entry, ":")
		users = append(users, User{ID: id, Name: name})
	}
	return New(users)
}

// LoadFile reads a YAML roster of the form "users: [{id, name, email}]".
func LoadFile(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &apperr.LoadError{Path: path, Err: err}
	}
	var doc struct {
		Users []User `yaml:"users"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &apperr.LoadError{Path: path, Err: fmt.Errorf("decode roster: %w", err)}
	}
	r, err := New(doc.Users)
	if err != nil {
		return nil, &apperr.LoadError{Path: path, Err: err}
	}
	return r, nil
}

// FromConfig loads the roster file when configured, otherwise parses the
// inline LEARN_USERS list.
func FromConfig(cfg config.UsersConfig) (*Roster, error) {
	if cfg.File != "" {
		return LoadFile(cfg.File)
	}
	return Parse(cfg.Spec)
}

// Users returns the users in configured order.
func (r *Roster) Users() []User {
	return append([]User(nil), r.users...)
}

// IDs returns user ids in configured order.
func (r *Roster) IDs() []string {
	ids := make([]string, len(r.users))
	for i, u := range r.users {
		ids[i] = u.ID
	}
	return ids
}

// Get returns the user with id, or a NotFoundError.
func (r *Roster) Get(id string) (User, error) {
	i, ok := r.index[id]
	if !ok {
		return User{}, apperr.NotFound("user", id)
	}
	return r.users[i], nil
}

// Contains reports whether id is on the roster.
func (r *Roster) Contains(id string) bool {
	_, ok := r.index[id]
	return ok
}

// DisplayName returns the configured name for id, or id itself when unknown.
func (r *Roster) DisplayName(id string) string {
	if u, err := r.Get(id); err == nil {
		return u.Name
	}
	return id
}

// Email returns the configured address for id, or "" when unknown.
func (r *Roster) Email(id string) string {
	if u, err := r.Get(id); err == nil {
		return u.Email
	}
	return ""
}

// Len returns the number of users.
func (r *Roster) Len() int {
	return len(r.users)
}
