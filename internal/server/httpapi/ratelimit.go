package httpapi

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// authLimiter throttles the public auth endpoints per client address. Idle
// buckets are dropped periodically so the map does not grow unbounded.
type authLimiter struct {
	limit rate.Limit
	burst int

	mu      sync.Mutex
	clients map[string]*clientBucket
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const limiterIdleTTL = 10 * time.Minute

func newAuthLimiter(perMinute int) *authLimiter {
	l := &authLimiter{
		limit:   rate.Limit(float64(perMinute) / 60.0),
		burst:   perMinute,
		clients: make(map[string]*clientBucket),
	}
	go l.cleanupLoop()
	return l
}

func (l *authLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if !l.allow(clientKey(req)) {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(l.limit)))
			writeJSON(w, http.StatusTooManyRequests, errorResponse{
				Error:      "too many requests",
				StatusCode: http.StatusTooManyRequests,
				Timestamp:  time.Now().UTC().Format(time.RFC3339),
			})
			return
		}
		next.ServeHTTP(w, req)
	})
}

func (l *authLimiter) allow(key string) bool {
	l.mu.Lock()
	b, ok := l.clients[key]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = b
	}
	b.lastSeen = time.Now()
	l.mu.Unlock()
	return b.limiter.Allow()
}

func (l *authLimiter) cleanupLoop() {
	ticker := time.NewTicker(limiterIdleTTL)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-limiterIdleTTL)
		l.mu.Lock()
		for key, b := range l.clients {
			if b.lastSeen.Before(cutoff) {
				delete(l.clients, key)
			}
		}
		l.mu.Unlock()
	}
}

func clientKey(req *http.Request) string {
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}

func retryAfterSeconds(limit rate.Limit) int {
	if limit <= 0 {
		return 1
	}
	sec := int(1.0 / float64(limit))
	if sec < 1 {
		sec = 1
	}
	return sec
}
