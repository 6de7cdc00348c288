// Package middleware carries the cross-cutting HTTP protections applied
// in front of the API: per-client rate limiting and security headers.
package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// Limiter throttles requests per client IP with a fixed one-minute
// window.
type Limiter struct {
	mu      sync.Mutex
	clients map[string]*clientWindow

	requestsPerMinute int
	stopCleanup       chan struct{}
	stopOnce          sync.Once
}

type clientWindow struct {
	lastRequest time.Time
	requests    int
}

// NewLimiter creates a rate limiter allowing requestsPerMinute per
// client and starts its stale-entry cleanup loop.
func NewLimiter(requestsPerMinute int) *Limiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	l := &Limiter{
		clients:           make(map[string]*clientWindow),
		requestsPerMinute: requestsPerMinute,
		stopCleanup:       make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

// Allow reports whether a request from clientIP fits in the current
// window.
func (l *Limiter) Allow(clientIP string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	client, ok := l.clients[clientIP]
	if !ok || now.Sub(client.lastRequest) > time.Minute {
		l.clients[clientIP] = &clientWindow{lastRequest: now, requests: 1}
		return true
	}

	client.requests++
	client.lastRequest = now
	return client.requests <= l.requestsPerMinute
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.mu.Lock()
			cutoff := time.Now().Add(-10 * time.Minute)
			for ip, client := range l.clients {
				if client.lastRequest.Before(cutoff) {
					delete(l.clients, ip)
				}
			}
			l.mu.Unlock()
		case <-l.stopCleanup:
			return
		}
	}
}

// Stop shuts down the cleanup goroutine.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCleanup) })
}

// Middleware rejects over-limit requests with 429.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(clientIP(r)) {
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// SecurityHeaders applies the baseline headers for a JSON API.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers := w.Header()
		headers.Set("X-Content-Type-Options", "nosniff")
		headers.Set("X-Frame-Options", "DENY")
		headers.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		headers.Set("Cross-Origin-Resource-Policy", "same-origin")

		// HSTS only makes sense over TLS.
		if r.TLS != nil {
			headers.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		next.ServeHTTP(w, r)
	})
}
