package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/alchemorsel/mealswap/pkg/errors"
)

// ClientLimiter keeps one token bucket per client address. Buckets idle for
// longer than the idle timeout are dropped by Cleanup.
type ClientLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientBucket
	limit   rate.Limit
	burst   int
	idle    time.Duration
	now     func() time.Time
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewClientLimiter allows rps requests per second per client with the given burst
func NewClientLimiter(rps float64, burst int, idle time.Duration) *ClientLimiter {
	if burst < 1 {
		burst = 1
	}
	if idle <= 0 {
		idle = 10 * time.Minute
	}
	return &ClientLimiter{
		clients: make(map[string]*clientBucket),
		limit:   rate.Limit(rps),
		burst:   burst,
		idle:    idle,
		now:     time.Now,
	}
}

// Allow reports whether the client may make a request now
func (l *ClientLimiter) Allow(client string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	bucket, ok := l.clients[client]
	if !ok {
		bucket = &clientBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[client] = bucket
	}
	bucket.lastSeen = now
	return bucket.limiter.AllowN(now, 1)
}

// Cleanup drops idle clients and returns how many were removed
func (l *ClientLimiter) Cleanup() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.idle)
	removed := 0
	for client, bucket := range l.clients {
		if bucket.lastSeen.Before(cutoff) {
			delete(l.clients, client)
			removed++
		}
	}
	return removed
}

// Clients returns the number of tracked clients
func (l *ClientLimiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// RateLimit rejects requests beyond the client's allowance with 429. The
// client is identified by remote address, so chi's RealIP should run first.
func RateLimit(limiter *ClientLimiter) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(clientKey(r)) {
				appErr := errors.NewTooManyRequestsError()
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(limiter.limit)))
				w.WriteHeader(appErr.StatusCode())
				_ = json.NewEncoder(w).Encode(map[string]interface{}{
					"success": false,
					"error":   appErr.Code,
					"message": appErr.Details,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func retryAfterSeconds(limit rate.Limit) int {
	if limit <= 0 {
		return 60
	}
	seconds := int(1 / float64(limit))
	if seconds < 1 {
		return 1
	}
	return seconds
}
