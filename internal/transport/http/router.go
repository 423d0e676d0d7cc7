package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"streak-service/internal/domain/service"
)

// RouterOptions tunes the API middleware
type RouterOptions struct {
	// RequestsPerMinute limits each client IP; 0 disables the limit
	RequestsPerMinute int
	// TrustUserHeader honors X-User-ID; enable it only behind a gateway that sets it
	TrustUserHeader bool
}

// NewRouter builds the API routes
func NewRouter(handler *Handler, provider service.IdentityProvider, opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	if opts.RequestsPerMinute > 0 {
		r.Use(newRateLimiter(opts.RequestsPerMinute).middleware)
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1/habits", func(r chi.Router) {
		r.Use(authMiddleware(provider, opts.TrustUserHeader))
		r.Post("/", handler.registerHabit)
		r.Get("/{habitID}", handler.getHabit)
		r.Post("/{habitID}/complete", handler.completeHabit)
		r.Delete("/{habitID}/complete", handler.uncompleteHabit)
		r.Put("/{habitID}/reminder", handler.scheduleReminder)
		r.Delete("/{habitID}/reminder", handler.cancelReminder)
	})
	return r
}
