package service

import "context"

// IdentityProvider resolves the active user for a request.
// An empty user ID with a nil error means there is no session.
type IdentityProvider interface {
	ResolveUserID(ctx context.Context) (string, error)
}
