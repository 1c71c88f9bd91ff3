package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRefresher struct {
	token    Token
	err      error
	calls    int
	received string
}

func (r *stubRefresher) RefreshToken(ctx context.Context, refreshToken string) (Token, error) {
	r.calls++
	r.received = refreshToken
	if r.err != nil {
		return Token{}, r.err
	}
	return r.token, nil
}

func TestLoadMissingFile(t *testing.T) {
	store, err := Load(filepath.Join(t.TempDir(), "auth.json"))
	require.NoError(t, err)
	assert.True(t, store.Token.Expires.IsZero())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.json")
	store, err := Load(path)
	require.NoError(t, err)

	store.Token = Token{
		AccessToken:  "abc",
		RefreshToken: "def",
		TokenType:    "bearer",
		Expires:      time.Now().UTC().Add(time.Hour).Truncate(time.Second),
	}
	require.NoError(t, store.Save())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm(), "auth file holds credentials")

	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, store.Token, back.Token)
}

func TestEnsureValidNotAuthenticated(t *testing.T) {
	store, err := Load(filepath.Join(t.TempDir(), "auth.json"))
	require.NoError(t, err)

	r := &stubRefresher{}
	err = store.EnsureValid(context.Background(), r)
	assert.True(t, errors.Is(err, ErrNotAuthenticated))
	assert.Zero(t, r.calls, "no refresh without a prior token")
}

func TestEnsureValidCurrentToken(t *testing.T) {
	store := &Store{Token: Token{
		AccessToken: "abc",
		Expires:     time.Now().UTC().Add(time.Hour),
	}}
	r := &stubRefresher{}
	require.NoError(t, store.EnsureValid(context.Background(), r))
	assert.Zero(t, r.calls)
	assert.Equal(t, "abc", store.Token.AccessToken)
}

func TestEnsureValidRefreshesExpired(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.json")
	store, err := Load(path)
	require.NoError(t, err)
	store.Token = Token{
		AccessToken:  "stale",
		RefreshToken: "67890",
		Expires:      time.Now().UTC().Add(-time.Minute),
	}

	fresh := Token{
		AccessToken:  "fresh",
		RefreshToken: "67890",
		TokenType:    "bearer",
		Expires:      time.Now().UTC().Add(24 * time.Minute).Truncate(time.Second),
	}
	r := &stubRefresher{token: fresh}

	require.NoError(t, store.EnsureValid(context.Background(), r))
	assert.Equal(t, 1, r.calls)
	assert.Equal(t, "67890", r.received)
	assert.Equal(t, "fresh", store.Token.AccessToken)

	// The refreshed credential is persisted.
	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "fresh", back.Token.AccessToken)
}

func TestEnsureValidRefreshFailure(t *testing.T) {
	store := &Store{Token: Token{
		AccessToken:  "stale",
		RefreshToken: "67890",
		Expires:      time.Now().UTC().Add(-time.Minute),
	}}
	r := &stubRefresher{err: errors.New("invalid_grant")}
	err := store.EnsureValid(context.Background(), r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refreshing token")
	assert.Equal(t, "stale", store.Token.AccessToken, "failed refresh leaves the token alone")
}

// freePort reserves and releases a port for the callback listener.
func freePort(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func TestCollectCode(t *testing.T) {
	addr := freePort(t)

	type result struct {
		code string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		code, err := CollectCode(context.Background(), addr)
		done <- result{code, err}
	}()

	// Poll until the listener is up, then deliver the redirect.
	var resp *http.Response
	var err error
	for i := 0; i < 50; i++ {
		resp, err = http.Get(fmt.Sprintf("http://%s/auth?code=abc123&state=xyz", addr))
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	require.NoError(t, err)
	resp.Body.Close()

	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, "abc123", res.code)

	// The port is released after collection.
	ln, err := net.Listen("tcp", addr)
	require.NoError(t, err)
	ln.Close()
}

func TestCollectCodeErrorParam(t *testing.T) {
	addr := freePort(t)

	done := make(chan error, 1)
	go func() {
		_, err := CollectCode(context.Background(), addr)
		done <- err
	}()

	var resp *http.Response
	var err error
	for i := 0; i < 50; i++ {
		resp, err = http.Get(fmt.Sprintf("http://%s/auth?error=access_denied", addr))
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	require.NoError(t, err)
	resp.Body.Close()

	err = <-done
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access_denied")
}

func TestCollectCodeCancelled(t *testing.T) {
	addr := freePort(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := CollectCode(ctx, addr)
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	err := <-done
	assert.True(t, errors.Is(err, context.Canceled))
}
