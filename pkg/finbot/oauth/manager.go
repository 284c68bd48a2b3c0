// Package oauth – manager.go keeps stored Google credentials usable without
// user intervention.
package oauth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jholhewres/finbot/pkg/finbot/store"
)

// RefreshBuffer is how close to expiry a token may get before it is
// refreshed ahead of use.
const RefreshBuffer = 5 * time.Minute

// ErrNotConnected is returned when a user has no stored credential.
var ErrNotConnected = errors.New("google account not connected")

// Refresher exchanges a refresh token for a fresh access token.
// *GoogleProvider satisfies it; tests substitute fakes.
type Refresher interface {
	RefreshToken(ctx context.Context, refreshToken string) (*Token, error)
}

// TokenManager returns valid access tokens for users, transparently
// refreshing near-expiry credentials.
type TokenManager struct {
	store     *store.Store
	refresher Refresher
	logger    *slog.Logger
	now       func() time.Time

	// userMu serializes refreshes per user so two near-simultaneous turns
	// cannot race on the credential row.
	mu     sync.Mutex
	userMu map[string]*sync.Mutex
}

// NewTokenManager creates a TokenManager over the store and provider.
func NewTokenManager(st *store.Store, refresher Refresher, logger *slog.Logger) *TokenManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenManager{
		store:     st,
		refresher: refresher,
		logger:    logger.With("component", "token_manager"),
		now:       time.Now,
		userMu:    make(map[string]*sync.Mutex),
	}
}

// AccessToken returns a valid access token for the user. Returns
// ErrNotConnected when no credential is stored. When the stored token
// expires within RefreshBuffer it is refreshed and persisted first; if the
// refresh fails the stale token is returned as a last resort, since the
// downstream API will surface the authorization error if it is truly dead.
func (m *TokenManager) AccessToken(ctx context.Context, userID string) (string, error) {
	mu := m.lockFor(userID)
	mu.Lock()
	defer mu.Unlock()

	cred, err := m.store.Credential(userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotConnected
		}
		return "", fmt.Errorf("load credential: %w", err)
	}

	if cred.ExpiresAt.Sub(m.now()) >= RefreshBuffer {
		return cred.AccessToken, nil
	}

	fresh, err := m.refresher.RefreshToken(ctx, cred.RefreshToken)
	if err != nil {
		m.logger.Warn("token refresh failed, returning stale token",
			"user_id", userID,
			"expires_at", cred.ExpiresAt,
			"err", err)
		return cred.AccessToken, nil
	}

	// Google occasionally rotates the refresh token on a refresh exchange.
	// Losing the rotated value would strand the credential at next expiry.
	if fresh.RefreshToken != "" && fresh.RefreshToken != cred.RefreshToken {
		err = m.store.UpsertCredential(&store.Credential{
			UserID:       userID,
			AccessToken:  fresh.AccessToken,
			RefreshToken: fresh.RefreshToken,
			ExpiresAt:    fresh.ExpiresAt,
			Scope:        cred.Scope,
		})
	} else {
		err = m.store.UpdateAccessToken(userID, fresh.AccessToken, fresh.ExpiresAt)
	}
	if err != nil {
		m.logger.Error("failed to persist refreshed token", "user_id", userID, "err", err)
		// The token itself is still good for this turn.
	}

	m.logger.Info("access token refreshed",
		"user_id", userID,
		"token", Redact(fresh.AccessToken),
		"expires_at", fresh.ExpiresAt)
	return fresh.AccessToken, nil
}

// Connected reports whether the user has a stored credential.
func (m *TokenManager) Connected(userID string) bool {
	_, err := m.store.Credential(userID)
	return err == nil
}

func (m *TokenManager) lockFor(userID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	mu, ok := m.userMu[userID]
	if !ok {
		mu = &sync.Mutex{}
		m.userMu[userID] = mu
	}
	return mu
}
