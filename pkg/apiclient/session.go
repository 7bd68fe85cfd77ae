package apiclient

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
)

// Profile is the cached slice of the user object the CLI needs between runs.
type Profile struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// Session is the persisted authentication state.
type Session struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	User         *Profile `json:"user,omitempty"`
}

// SessionStore persists the session as a JSON file, one per user account on
// the machine. All methods are safe for concurrent use.
type SessionStore struct {
	path string

	mu      sync.Mutex
	current *Session
}

// NewSessionStore uses the given path, or ~/.operis/session.json when empty.
func NewSessionStore(path string) (*SessionStore, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(home, ".operis", "session.json")
	}
	return &SessionStore{path: path}, nil
}

// Load reads the session from disk. A missing file yields an empty session,
// not an error.
func (s *SessionStore) Load() (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		cp := *s.current
		return &cp, nil
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.current = &Session{}
		return &Session{}, nil
	}
	if err != nil {
		return nil, err
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		// A corrupt session file is treated as logged out.
		s.current = &Session{}
		return &Session{}, nil
	}
	s.current = &sess
	cp := sess
	return &cp, nil
}

// Save writes the session to disk with owner-only permissions.
func (s *SessionStore) Save(sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return err
	}
	cp := *sess
	s.current = &cp
	return nil
}

// Clear removes the persisted session.
func (s *SessionStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = &Session{}
	err := os.Remove(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
