package credstore

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ihza212325/trashpin/internal/model"
)

// Session wraps a Backend with typed helpers for the login flow.
type Session struct {
	backend Backend
}

// NewSession wraps the given backend.
func NewSession(backend Backend) *Session {
	return &Session{backend: backend}
}

// Save stores both tokens and the embedded profile.
func (s *Session) Save(sess model.Session) error {
	if err := s.backend.Set(KeyAccessToken, sess.AccessToken); err != nil {
		return fmt.Errorf("storing access token: %w", err)
	}
	if err := s.backend.Set(KeyRefreshToken, sess.RefreshToken); err != nil {
		return fmt.Errorf("storing refresh token: %w", err)
	}
	return s.SaveProfile(sess.User)
}

// Tokens returns the stored access and refresh tokens. A missing access
// token means no session; a missing refresh token alone is tolerated.
func (s *Session) Tokens() (access, refresh string, err error) {
	access, err = s.backend.Get(KeyAccessToken)
	if err != nil {
		return "", "", err
	}
	refresh, err = s.backend.Get(KeyRefreshToken)
	if errors.Is(err, ErrNotFound) {
		return access, "", nil
	}
	return access, refresh, err
}

// SaveProfile caches the user profile as JSON.
func (s *Session) SaveProfile(user model.User) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}
	return s.backend.SaveProfile(payload)
}

// Profile returns the cached user profile.
func (s *Session) Profile() (model.User, error) {
	payload, err := s.backend.Profile()
	if err != nil {
		return model.User{}, err
	}
	var user model.User
	if err := json.Unmarshal(payload, &user); err != nil {
		return model.User{}, fmt.Errorf("decoding profile: %w", err)
	}
	return user, nil
}

// Clear wipes both tokens. The cached profile is kept so the UI can still
// greet the user on the login screen.
func (s *Session) Clear() error {
	if err := s.backend.Delete(KeyAccessToken); err != nil {
		return err
	}
	return s.backend.Delete(KeyRefreshToken)
}
