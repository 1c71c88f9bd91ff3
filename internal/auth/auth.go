// Package auth manages the OAuth2 token lifecycle: the persisted
// auth.json record, refresh-on-expiry, and the one-shot listener that
// captures the authorization code.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"
)

// ErrNotAuthenticated indicates no token has been obtained yet.
var ErrNotAuthenticated = errors.New("auth: no token expiry recorded, have you authenticated?")

// Token is a stored OAuth2 credential. Expires is the absolute UTC
// expiry instant, truncated to whole seconds.
type Token struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	Expires      time.Time `json:"expires"`
}

// Refresher exchanges a refresh token for a fresh credential.
type Refresher interface {
	RefreshToken(ctx context.Context, refreshToken string) (Token, error)
}

// Store persists a Token to an auth.json file. It is not safe for
// concurrent use; callers invoking EnsureValid from multiple
// goroutines must serialise access, or near-simultaneous expiry
// detections will trigger redundant refreshes.
type Store struct {
	path  string
	Token Token
}

// Load reads an auth file. A missing file yields an empty store, so a
// first run works before any authentication has happened.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Store{path: path}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading auth file: %w", err)
	}

	var tok Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("parsing auth file: %w", err)
	}
	return &Store{path: path, Token: tok}, nil
}

// Save rewrites the auth file wholesale.
func (s *Store) Save() error {
	data, err := json.MarshalIndent(s.Token, "", "    ")
	if err != nil {
		return fmt.Errorf("marshaling auth: %w", err)
	}
	if err := os.WriteFile(s.path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("writing auth file: %w", err)
	}
	return nil
}

// EnsureValid refreshes the token if it has expired, persisting the
// new credential. Call before every API operation.
func (s *Store) EnsureValid(ctx context.Context, r Refresher) error {
	if s.Token.Expires.IsZero() {
		return ErrNotAuthenticated
	}
	if !time.Now().UTC().After(s.Token.Expires) {
		return nil
	}

	tok, err := r.RefreshToken(ctx, s.Token.RefreshToken)
	if err != nil {
		return fmt.Errorf("refreshing token: %w", err)
	}
	s.Token = tok
	if err := s.Save(); err != nil {
		return err
	}
	return nil
}
