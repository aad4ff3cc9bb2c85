// Package session holds the authenticated user state shared by all commands.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// ErrNoSession is returned by Load when nobody is logged in.
var ErrNoSession = errors.New("no session")

// Session is the authenticated user. A nil or zero Session is unauthenticated.
type Session struct {
	UserID   int64     `json:"user_id"`
	Username string    `json:"username"`
	Token    string    `json:"token,omitempty"`
	LoginAt  time.Time `json:"login_at"`
}

// New creates a session for a freshly logged-in user.
func New(userID int64, username, token string) *Session {
	return &Session{
		UserID:   userID,
		Username: username,
		Token:    token,
		LoginAt:  time.Now().UTC(),
	}
}

// Load reads a session file.
// Returns ErrNoSession if the file does not exist or holds no user.
func Load(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("invalid session file: %w", err)
	}
	if !s.Authenticated() {
		return nil, ErrNoSession
	}
	return &s, nil
}

// Save writes the session with mode 0600.
func (s *Session) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// Remove deletes a session file. A missing file is not an error.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Authenticated reports whether the session identifies a user.
func (s *Session) Authenticated() bool {
	return s != nil && s.UserID != 0
}

// ExpiresAt returns the exp claim of a JWT token.
// The signature is not checked here; the backend owns verification.
func (s *Session) ExpiresAt() (time.Time, bool) {
	if s == nil || s.Token == "" {
		return time.Time{}, false
	}
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.Token, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Expired reports whether the token carries an exp claim in the past.
// Opaque tokens never expire client-side.
func (s *Session) Expired(now time.Time) bool {
	exp, ok := s.ExpiresAt()
	return ok && !now.Before(exp)
}

// TokenSource returns a bearer token source, or nil if the session has no token.
func (s *Session) TokenSource() oauth2.TokenSource {
	if s == nil || s.Token == "" {
		return nil
	}
	return oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: s.Token,
		TokenType:   "Bearer",
	})
}

// UserIDFromToken extracts a numeric user id from a JWT's user_id or sub claim.
func UserIDFromToken(token string) (int64, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return 0, false
	}
	switch v := claims["user_id"].(type) {
	case float64:
		if v > 0 {
			return int64(v), true
		}
	case string:
		if id, err := strconv.ParseInt(v, 10, 64); err == nil && id > 0 {
			return id, true
		}
	}
	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		if id, err := strconv.ParseInt(sub, 10, 64); err == nil && id > 0 {
			return id, true
		}
	}
	return 0, false
}
