// Package credstore persists the bearer token and the display identity.
//
// The token is stored with a fixed expiry horizon and is reported absent
// once that horizon passes. The identity is stored separately and does not
// expire. Neither value is validated.
package credstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// TokenTTL is how long a stored token is kept.
const TokenTTL = 7 * 24 * time.Hour

const (
	tokenFileName    = "token.json"
	identityFileName = "identity.json"
)

// ErrAbsent is returned by Get when neither a token nor an identity is stored.
var ErrAbsent = errors.New("no stored credentials")

// TokenFile holds a saved authentication token.
type TokenFile struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Server    string    `json:"server"`
}

// IsExpired returns true if the token has expired (with optional margin).
func (t *TokenFile) IsExpired(now time.Time, margin time.Duration) bool {
	return now.Add(margin).After(t.ExpiresAt)
}

type identityFile struct {
	Email string `json:"email"`
}

// Credentials is what Get returns. Either field may be empty when only
// part of the pair survived (e.g. the token expired).
type Credentials struct {
	Token     string
	Email     string
	ExpiresAt time.Time
}

// HasToken reports whether a token is present.
func (c *Credentials) HasToken() bool {
	return c.Token != ""
}

// Store is a file-backed credential store bound to one server.
type Store struct {
	dir    string
	server string
	now    func() time.Time

	mu sync.Mutex
}

// New creates a store rooted at dir for tokens issued by server.
func New(dir, server string) *Store {
	return &Store{dir: dir, server: server, now: time.Now}
}

// SetClock overrides the time source; used by tests.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// Dir returns the directory holding the credential files.
func (s *Store) Dir() string {
	return s.dir
}

// Set persists the token (expiring after TokenTTL) and the identity email.
func (s *Store) Set(token, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("create credential dir: %w", err)
	}

	tf := TokenFile{
		Token:     token,
		ExpiresAt: s.now().Add(TokenTTL),
		Server:    s.server,
	}
	if err := writeJSON(filepath.Join(s.dir, tokenFileName), tf); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	if err := writeJSON(filepath.Join(s.dir, identityFileName), identityFile{Email: email}); err != nil {
		return fmt.Errorf("save identity: %w", err)
	}
	return nil
}

// Get returns the stored credentials, or ErrAbsent if nothing usable is stored.
func (s *Store) Get() (*Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	creds := &Credentials{}

	var tf TokenFile
	found, err := readJSON(filepath.Join(s.dir, tokenFileName), &tf)
	if err != nil {
		return nil, fmt.Errorf("load token: %w", err)
	}
	if found && tf.Token != "" && !tf.IsExpired(s.now(), 0) && tf.Server == s.server {
		creds.Token = tf.Token
		creds.ExpiresAt = tf.ExpiresAt
	}

	var id identityFile
	if _, err := readJSON(filepath.Join(s.dir, identityFileName), &id); err != nil {
		return nil, fmt.Errorf("load identity: %w", err)
	}
	creds.Email = id.Email

	if creds.Token == "" && creds.Email == "" {
		return nil, ErrAbsent
	}
	return creds, nil
}

// Clear removes both the token and the identity. Clearing an empty store is not an error.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, name := range []string{tokenFileName, identityFileName} {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// readJSON reports found=false without error when the file does not exist.
// A corrupt file is treated as missing.
func readJSON(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, nil
	}
	return true, nil
}
