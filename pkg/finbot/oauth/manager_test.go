package oauth

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jholhewres/finbot/pkg/finbot/store"
)

type fakeRefresher struct {
	calls int
	token *Token
	err   error
}

func (f *fakeRefresher) RefreshToken(ctx context.Context, refreshToken string) (*Token, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.token, nil
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := store.OpenDatabase(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return store.New(db, nil)
}

func seedCredential(t *testing.T, st *store.Store, expiresIn time.Duration) string {
	t.Helper()
	u, err := st.EnsureUser("628111111111")
	if err != nil {
		t.Fatalf("EnsureUser: %v", err)
	}
	err = st.UpsertCredential(&store.Credential{
		UserID:       u.ID,
		AccessToken:  "stale-token",
		RefreshToken: "refresh-token",
		ExpiresAt:    time.Now().Add(expiresIn),
	})
	if err != nil {
		t.Fatalf("UpsertCredential: %v", err)
	}
	return u.ID
}

func TestAccessTokenNotConnected(t *testing.T) {
	st := newTestStore(t)
	u, _ := st.EnsureUser("628222222222")

	m := NewTokenManager(st, &fakeRefresher{}, nil)
	if _, err := m.AccessToken(context.Background(), u.ID); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("err = %v, want ErrNotConnected", err)
	}
}

func TestAccessTokenRefreshBuffer(t *testing.T) {
	tests := []struct {
		name        string
		expiresIn   time.Duration
		wantRefresh bool
	}{
		{"expiring in 4 minutes refreshes", 4 * time.Minute, true},
		{"expiring in 10 minutes does not", 10 * time.Minute, false},
		{"already expired refreshes", -time.Minute, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newTestStore(t)
			userID := seedCredential(t, st, tt.expiresIn)

			fr := &fakeRefresher{token: &Token{
				AccessToken: "fresh-token",
				ExpiresAt:   time.Now().Add(time.Hour),
			}}
			m := NewTokenManager(st, fr, nil)

			tok, err := m.AccessToken(context.Background(), userID)
			if err != nil {
				t.Fatalf("AccessToken: %v", err)
			}

			if tt.wantRefresh {
				if fr.calls != 1 {
					t.Errorf("refresh calls = %d, want 1", fr.calls)
				}
				if tok != "fresh-token" {
					t.Errorf("token = %q, want fresh-token", tok)
				}
				// New token and expiry persisted.
				cred, err := st.Credential(userID)
				if err != nil {
					t.Fatalf("Credential: %v", err)
				}
				if cred.AccessToken != "fresh-token" {
					t.Errorf("persisted token = %q", cred.AccessToken)
				}
				if time.Until(cred.ExpiresAt) < 50*time.Minute {
					t.Errorf("persisted expiry too close: %v", cred.ExpiresAt)
				}
			} else {
				if fr.calls != 0 {
					t.Errorf("refresh calls = %d, want 0", fr.calls)
				}
				if tok != "stale-token" {
					t.Errorf("token = %q, want stale-token", tok)
				}
			}
		})
	}
}

func TestAccessTokenRotatedRefreshTokenPersisted(t *testing.T) {
	st := newTestStore(t)
	userID := seedCredential(t, st, time.Minute)

	fr := &fakeRefresher{token: &Token{
		AccessToken:  "fresh-token",
		RefreshToken: "rotated-refresh",
		ExpiresAt:    time.Now().Add(time.Hour),
	}}
	m := NewTokenManager(st, fr, nil)

	tok, err := m.AccessToken(context.Background(), userID)
	if err != nil {
		t.Fatalf("AccessToken: %v", err)
	}
	if tok != "fresh-token" {
		t.Errorf("token = %q, want fresh-token", tok)
	}

	cred, err := st.Credential(userID)
	if err != nil {
		t.Fatalf("Credential: %v", err)
	}
	if cred.RefreshToken != "rotated-refresh" {
		t.Errorf("RefreshToken = %q, want the rotated value persisted", cred.RefreshToken)
	}
	if cred.AccessToken != "fresh-token" {
		t.Errorf("AccessToken = %q", cred.AccessToken)
	}
}

func TestAccessTokenStaleOnRefreshFailure(t *testing.T) {
	st := newTestStore(t)
	userID := seedCredential(t, st, time.Minute)

	fr := &fakeRefresher{err: errors.New("invalid_grant")}
	m := NewTokenManager(st, fr, nil)

	tok, err := m.AccessToken(context.Background(), userID)
	if err != nil {
		t.Fatalf("AccessToken: %v", err)
	}
	if tok != "stale-token" {
		t.Errorf("token = %q, want stale-token fallback", tok)
	}

	// The refresh token must survive the failed attempt.
	cred, _ := st.Credential(userID)
	if cred.RefreshToken != "refresh-token" {
		t.Errorf("RefreshToken = %q, want refresh-token", cred.RefreshToken)
	}
}

func TestConnected(t *testing.T) {
	st := newTestStore(t)
	userID := seedCredential(t, st, time.Hour)
	m := NewTokenManager(st, &fakeRefresher{}, nil)

	if !m.Connected(userID) {
		t.Error("Connected = false for user with credential")
	}
	if m.Connected("nobody") {
		t.Error("Connected = true for unknown user")
	}
}

func TestRedact(t *testing.T) {
	if got := Redact("ya29.a0AfH6SMBx"); got != "ya29.a0A..." {
		t.Errorf("Redact = %q", got)
	}
	if got := Redact("short"); got != "****" {
		t.Errorf("Redact short = %q", got)
	}
}
