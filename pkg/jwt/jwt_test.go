package jwt

import (
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	tm := NewTokenManager("secret", time.Minute, "habit-tracker")

	token, expiresAt, err := tm.GenerateAccessToken("user-1", "session-1")
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := tm.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "session-1", claims.SessionID)
}

func TestValidate_Rejects(t *testing.T) {
	tm := NewTokenManager("secret", time.Minute, "habit-tracker")

	expired := NewTokenManager("secret", -time.Minute, "habit-tracker")
	expiredToken, _, err := expired.GenerateAccessToken("user-1", "s")
	require.NoError(t, err)

	otherSecret := NewTokenManager("other", time.Minute, "habit-tracker")
	forged, _, err := otherSecret.GenerateAccessToken("user-1", "s")
	require.NoError(t, err)

	otherIssuer := NewTokenManager("secret", time.Minute, "someone-else")
	foreign, _, err := otherIssuer.GenerateAccessToken("user-1", "s")
	require.NoError(t, err)

	refresh := gojwt.NewWithClaims(gojwt.SigningMethodHS256, &Claims{
		UserID:    "user-1",
		TokenType: "refresh",
		RegisteredClaims: gojwt.RegisteredClaims{
			Issuer:    "habit-tracker",
			ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	})
	refreshToken, err := refresh.SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"expired", expiredToken},
		{"wrong secret", forged},
		{"wrong issuer", foreign},
		{"refresh token", refreshToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tm.ValidateAccessToken(tt.token)
			assert.Error(t, err)
		})
	}
}
