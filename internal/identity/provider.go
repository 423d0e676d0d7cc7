package identity

import (
	"context"
	"fmt"

	"streak-service/internal/domain/service"
	"streak-service/internal/logger"
	"streak-service/pkg/jwt"
)

// SessionChecker reports whether a login session is still active
type SessionChecker interface {
	Exists(ctx context.Context, sessionID string) (bool, error)
}

// ContextProvider resolves the user ID placed on the context by a trusted caller
type ContextProvider struct{}

func (ContextProvider) ResolveUserID(ctx context.Context) (string, error) {
	return UserIDFrom(ctx), nil
}

// TokenProvider resolves the user ID from the access token on the context.
// An invalid token or a revoked session resolves to no user.
type TokenProvider struct {
	tokens   *jwt.TokenManager
	sessions SessionChecker
}

// NewTokenProvider creates a token provider. sessions may be nil to skip the session check.
func NewTokenProvider(tokens *jwt.TokenManager, sessions SessionChecker) *TokenProvider {
	return &TokenProvider{
		tokens:   tokens,
		sessions: sessions,
	}
}

func (p *TokenProvider) ResolveUserID(ctx context.Context) (string, error) {
	token := TokenFrom(ctx)
	if token == "" {
		return "", nil
	}

	claims, err := p.tokens.ValidateAccessToken(token)
	if err != nil {
		logger.Debug("rejected access token", "error", err)
		return "", nil
	}

	if p.sessions != nil {
		active, err := p.sessions.Exists(ctx, claims.SessionID)
		if err != nil {
			return "", fmt.Errorf("failed to check session: %w", err)
		}
		if !active {
			logger.Debug("session no longer active", "session_id", claims.SessionID)
			return "", nil
		}
	}

	return claims.UserID, nil
}

type chain []service.IdentityProvider

// Chain returns a provider asking each provider in turn until one resolves a user
func Chain(providers ...service.IdentityProvider) service.IdentityProvider {
	return chain(providers)
}

func (c chain) ResolveUserID(ctx context.Context) (string, error) {
	var firstErr error
	for _, p := range c {
		userID, err := p.ResolveUserID(ctx)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if userID != "" {
			return userID, nil
		}
	}
	return "", firstErr
}
