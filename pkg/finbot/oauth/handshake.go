// Package oauth – handshake.go implements the one-time connection link
// flow: Created -> Consumed | Expired. At most one live handshake per user.
package oauth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jholhewres/finbot/pkg/finbot/store"
)

// HandshakeTTL is how long a connection link stays valid.
const HandshakeTTL = time.Hour

// Handshake resolution errors.
var (
	// ErrHandshakeNotFound means the id is unknown, consumed, or was
	// invalidated by a newer handshake.
	ErrHandshakeNotFound = errors.New("handshake not found")

	// ErrHandshakeExpired means the id existed but its TTL passed.
	// The record is deleted on detection.
	ErrHandshakeExpired = errors.New("handshake expired")
)

// Exchanger exchanges an authorization code for tokens.
// *GoogleProvider satisfies it; tests substitute fakes.
type Exchanger interface {
	AuthURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*Token, error)
}

// HandshakeService creates, resolves and completes auth handshakes.
type HandshakeService struct {
	store         *store.Store
	provider      Exchanger
	publicBaseURL string
	logger        *slog.Logger
	now           func() time.Time
}

// NewHandshakeService creates a HandshakeService. publicBaseURL is the
// externally reachable base used to compose short links.
func NewHandshakeService(st *store.Store, provider Exchanger, publicBaseURL string, logger *slog.Logger) *HandshakeService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HandshakeService{
		store:         st,
		provider:      provider,
		publicBaseURL: publicBaseURL,
		logger:        logger.With("component", "handshake"),
		now:           time.Now,
	}
}

// CreateLink starts a new handshake for the user and returns the short
// link to send them. Any prior handshake for the user is invalidated.
func (s *HandshakeService) CreateLink(userID string) (string, error) {
	id := uuid.NewString()
	now := s.now()
	h := &store.Handshake{
		ID:        id,
		UserID:    userID,
		LongURL:   s.provider.AuthURL(id),
		ExpiresAt: now.Add(HandshakeTTL),
		CreatedAt: now,
	}
	if err := s.store.CreateHandshake(h); err != nil {
		return "", fmt.Errorf("create handshake: %w", err)
	}
	return s.publicBaseURL + "/auth/g/" + id, nil
}

// Resolve maps a short-link id to the stored long authorization URL.
// Returns ErrHandshakeNotFound for unknown ids and ErrHandshakeExpired
// (after deleting the record) for stale ones.
func (s *HandshakeService) Resolve(id string) (string, error) {
	h, err := s.lookup(id)
	if err != nil {
		return "", err
	}
	return h.LongURL, nil
}

// Complete finishes the flow on the provider callback: exchanges the code,
// upserts the user's credential and consumes the handshake. Re-use of a
// consumed or expired id always fails.
func (s *HandshakeService) Complete(ctx context.Context, id, code string) (string, error) {
	h, err := s.lookup(id)
	if err != nil {
		return "", err
	}

	token, err := s.provider.ExchangeCode(ctx, code)
	if err != nil {
		return "", fmt.Errorf("exchange code: %w", err)
	}

	err = s.store.UpsertCredential(&store.Credential{
		UserID:       h.UserID,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.ExpiresAt,
		Scope:        token.Scope,
	})
	if err != nil {
		return "", fmt.Errorf("store credential: %w", err)
	}

	if err := s.store.DeleteHandshake(id); err != nil {
		// The credential is stored; a leftover handshake only wastes a row
		// until the purge job collects it.
		s.logger.Warn("failed to consume handshake", "id", id, "err", err)
	}

	s.logger.Info("google account connected", "user_id", h.UserID)
	return h.UserID, nil
}

func (s *HandshakeService) lookup(id string) (*store.Handshake, error) {
	h, err := s.store.HandshakeByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrHandshakeNotFound
		}
		return nil, fmt.Errorf("load handshake: %w", err)
	}
	if h.Expired(s.now()) {
		if err := s.store.DeleteHandshake(id); err != nil {
			s.logger.Warn("failed to delete expired handshake", "id", id, "err", err)
		}
		return nil, ErrHandshakeExpired
	}
	return h, nil
}
