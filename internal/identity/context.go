package identity

import "context"

type contextKey string

const (
	userIDKey contextKey = "user_id"
	tokenKey  contextKey = "access_token"
)

// WithUserID returns a context carrying an already resolved user ID
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFrom returns the user ID stored by WithUserID
func UserIDFrom(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}

// WithToken returns a context carrying a raw access token
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// TokenFrom returns the access token stored by WithToken
func TokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}
