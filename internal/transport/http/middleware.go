package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"streak-service/internal/domain/service"
	"streak-service/internal/errors"
	"streak-service/internal/identity"
	"streak-service/internal/logger"
)

// UserIDHeader carries a user ID already authenticated by a trusted gateway
const UserIDHeader = "X-User-ID"

// authMiddleware resolves the caller from the Authorization bearer token or, when
// trustUserHeader is set, the gateway header. Requests without a session are rejected.
func authMiddleware(provider service.IdentityProvider, trustUserHeader bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if authHeader := r.Header.Get("Authorization"); authHeader != "" {
				parts := strings.Split(authHeader, " ")
				if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
					writeError(w, r, errors.NewNotAuthenticated())
					return
				}
				ctx = identity.WithToken(ctx, parts[1])
			}
			if userID := r.Header.Get(UserIDHeader); userID != "" && trustUserHeader {
				ctx = identity.WithUserID(ctx, userID)
			}

			userID, err := provider.ResolveUserID(ctx)
			if err != nil {
				logger.Warn("failed to resolve identity", "error", err)
			}
			if err != nil || userID == "" {
				writeError(w, r, errors.NewNotAuthenticated())
				return
			}

			next.ServeHTTP(w, r.WithContext(identity.WithUserID(ctx, userID)))
		})
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
