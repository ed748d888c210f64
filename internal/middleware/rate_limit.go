package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"rentwheels/internal/model"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

// ClientRateLimiter keeps one token bucket per client address.
type ClientRateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*clientLimiter
	rate      rate.Limit
	burst     int
	now       func() time.Time
	lastSweep time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewClientRateLimiter creates a limiter allowing each client rps requests per second with
// bursts of up to burst requests. A non-positive burst is raised to one.
func NewClientRateLimiter(rps float64, burst int) *ClientRateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &ClientRateLimiter{
		limiters: make(map[string]*clientLimiter),
		rate:     rate.Limit(rps),
		burst:    burst,
		now:      time.Now,
	}
}

// Allow reports whether client may make a request now.
func (l *ClientRateLimiter) Allow(client string) bool {
	now := l.now()

	l.mu.Lock()
	if now.Sub(l.lastSweep) > limiterIdleTTL {
		for key, cl := range l.limiters {
			if now.Sub(cl.lastSeen) > limiterIdleTTL {
				delete(l.limiters, key)
			}
		}
		l.lastSweep = now
	}

	cl, ok := l.limiters[client]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.limiters[client] = cl
	}
	cl.lastSeen = now
	l.mu.Unlock()

	return cl.limiter.AllowN(now, 1)
}

// RateLimit rejects requests from clients that exceed the limiter with 429.
// A nil limiter disables rate limiting.
func RateLimit(limiter *ClientRateLimiter, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := clientAddr(r)
			if !limiter.Allow(client) {
				logger.Warn().Str("client", client).Str("path", r.URL.Path).Msg("rate limit exceeded")
				w.Header().Set("Retry-After", "1")
				writeError(w, r, http.StatusTooManyRequests, model.ErrCodeRateLimited, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientAddr strips the port from the remote address.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
