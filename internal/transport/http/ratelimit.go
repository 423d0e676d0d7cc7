package http

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

type visitor struct {
	windowStart time.Time
	count       int
}

// rateLimiter counts requests per client IP in fixed one-minute windows
type rateLimiter struct {
	limit int
	now   func() time.Time

	mu       sync.Mutex
	visitors map[string]*visitor
}

func newRateLimiter(requestsPerMinute int) *rateLimiter {
	return &rateLimiter{
		limit:    requestsPerMinute,
		now:      time.Now,
		visitors: make(map[string]*visitor),
	}
}

func (l *rateLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	v, ok := l.visitors[ip]
	if !ok || now.Sub(v.windowStart) > time.Minute {
		l.visitors[ip] = &visitor{windowStart: now, count: 1}
		l.cleanup(now)
		return true
	}

	if v.count >= l.limit {
		return false
	}
	v.count++
	return true
}

// cleanup drops visitors idle for five minutes; callers hold mu
func (l *rateLimiter) cleanup(now time.Time) {
	for ip, v := range l.visitors {
		if now.Sub(v.windowStart) > 5*time.Minute {
			delete(l.visitors, ip)
		}
	}
}

func (l *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(clientIP(r)) {
			writeJSON(w, http.StatusTooManyRequests, errorResponse{
				Status: "error",
				Error:  errorPayload{Code: "rate_limited", Message: "Rate limit exceeded"},
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP extracts the caller's IP, preferring proxy headers
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		ips := strings.Split(forwarded, ",")
		return strings.TrimSpace(ips[0])
	}

	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

