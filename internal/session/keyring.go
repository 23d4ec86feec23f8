// Package session holds the client-side authentication state: the persisted
// token keyring and the in-memory session state machine seeded from it.
package session

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"admitcrm/internal/crm"
)

// Keyring is durable, process-wide storage for the access token, refresh
// token, and cached user profile. The gateway is the only writer besides the
// login/logout flow.
type Keyring interface {
	// SetTokens persists both tokens, overwriting any prior values. Token
	// shape is not validated.
	SetTokens(access, refresh string) error
	AccessToken() string
	RefreshToken() string
	SetUser(u *crm.User) error
	User() *crm.User
	// Clear removes all three keys.
	Clear() error
	// IsAuthenticated reports whether an access token is present. Presence
	// only; expiry and signature are never checked here.
	IsAuthenticated() bool
}

// document is the single JSON file holding the three persisted keys.
type document struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	User         *crm.User `json:"user,omitempty"`
}

// FileKeyring persists the keyring as a mode-0600 JSON file, surviving
// process restarts the way browser local storage survives reloads.
type FileKeyring struct {
	mu   sync.Mutex
	path string
	doc  document
}

// OpenFileKeyring loads the keyring at path, creating parent directories.
// A missing file yields an empty keyring, not an error.
func OpenFileKeyring(path string) (*FileKeyring, error) {
	k := &FileKeyring{path: path}
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return k, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &k.doc); err != nil {
		// A corrupt credentials file is treated as logged out.
		k.doc = document{}
	}
	return k, nil
}

func (k *FileKeyring) SetTokens(access, refresh string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.doc.AccessToken = access
	k.doc.RefreshToken = refresh
	return k.flush()
}

func (k *FileKeyring) AccessToken() string {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.doc.AccessToken
}

func (k *FileKeyring) RefreshToken() string {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.doc.RefreshToken
}

func (k *FileKeyring) SetUser(u *crm.User) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.doc.User = u
	return k.flush()
}

func (k *FileKeyring) User() *crm.User {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.doc.User == nil {
		return nil
	}
	u := *k.doc.User
	return &u
}

func (k *FileKeyring) Clear() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.doc = document{}
	err := os.Remove(k.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (k *FileKeyring) IsAuthenticated() bool {
	return k.AccessToken() != ""
}

// flush writes the document; callers hold the lock.
func (k *FileKeyring) flush() error {
	if err := os.MkdirAll(filepath.Dir(k.path), 0o700); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(k.doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(k.path, raw, 0o600)
}

// MemoryKeyring is an in-memory keyring for tests.
type MemoryKeyring struct {
	mu  sync.Mutex
	doc document
}

func NewMemoryKeyring() *MemoryKeyring { return &MemoryKeyring{} }

func (k *MemoryKeyring) SetTokens(access, refresh string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.doc.AccessToken = access
	k.doc.RefreshToken = refresh
	return nil
}

func (k *MemoryKeyring) AccessToken() string {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.doc.AccessToken
}

func (k *MemoryKeyring) RefreshToken() string {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.doc.RefreshToken
}

func (k *MemoryKeyring) SetUser(u *crm.User) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.doc.User = u
	return nil
}

func (k *MemoryKeyring) User() *crm.User {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.doc.User == nil {
		return nil
	}
	u := *k.doc.User
	return &u
}

func (k *MemoryKeyring) Clear() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.doc = document{}
	return nil
}

func (k *MemoryKeyring) IsAuthenticated() bool {
	return k.AccessToken() != ""
}
