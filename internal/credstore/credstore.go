// Package credstore persists auth credentials and the cached user profile
// between sessions, the way a device keychain would.
package credstore

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ihza212325/trashpin/internal/config"
)

// Well-known credential keys.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
)

// ErrNotFound is returned when a key has no stored value.
var ErrNotFound = errors.New("credential not found")

// Backend stores credentials and the serialized profile of the signed-in
// user. Implementations must be safe for concurrent use.
type Backend interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error

	SaveProfile(payload []byte) error
	Profile() ([]byte, error)

	Close() error
}

// New builds the backend selected by configuration. The database backend
// falls back to SQLite when Postgres is unreachable; anything else gets the
// in-memory backend.
func New(cfg config.CredentialsConfig, db config.DBConfig, log zerolog.Logger) (Backend, error) {
	switch cfg.Backend {
	case "database":
		backend, err := NewDatabase(db, log)
		if err != nil {
			return nil, fmt.Errorf("opening database credential store: %w", err)
		}
		return backend, nil
	case "memory", "":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown credential backend: %s", cfg.Backend)
	}
}

// Memory keeps credentials for the lifetime of the process only.
type Memory struct {
	mu      sync.RWMutex
	values  map[string]string
	profile []byte
}

// NewMemory creates an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *Memory) SaveProfile(payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profile = append([]byte(nil), payload...)
	return nil
}

func (m *Memory) Profile() ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.profile == nil {
		return nil, ErrNotFound
	}
	return append([]byte(nil), m.profile...), nil
}

func (m *Memory) Close() error {
	return nil
}
