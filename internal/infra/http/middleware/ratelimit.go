package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/covermapio/api/internal/config"
	"github.com/covermapio/api/pkg/apierror"
	"github.com/covermapio/api/pkg/logger"
)

// RateLimiter implements a per-IP rate limiter.
type RateLimiter struct {
	visitors map[string]*visitor
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
	cleanup  time.Duration
	log      *logger.Logger
	done     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(cfg *config.RateLimitConfig, log *logger.Logger) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate.Limit(cfg.RPS),
		burst:    cfg.Burst,
		cleanup:  cfg.CleanupInterval,
		log:      log,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}

	go rl.cleanupVisitors()

	return rl
}

// Stop stops the cleanup goroutine and waits for it to exit.
// Safe to call multiple times.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.done)
	})
	<-rl.stopped
}

func (rl *RateLimiter) getVisitor(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		limiter := rate.NewLimiter(rl.rate, rl.burst)
		rl.visitors[ip] = &visitor{limiter: limiter, lastSeen: time.Now()}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

func (rl *RateLimiter) cleanupVisitors() {
	ticker := time.NewTicker(rl.cleanup)
	defer ticker.Stop()
	defer close(rl.stopped)

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.mu.Lock()
			for ip, v := range rl.visitors {
				if time.Since(v.lastSeen) > 3*time.Minute {
					delete(rl.visitors, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// Middleware returns the rate limiting middleware.
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := getClientIP(r)

			if !rl.getVisitor(ip).Allow() {
				rl.log.Warn("rate limit exceeded",
					"ip", ip,
					"path", r.URL.Path,
					"request_id", GetRequestID(r.Context()),
				)
				w.Header().Set("Retry-After", "1")
				apierror.RateLimitExceeded().WriteJSON(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitWithStop creates a rate limiting middleware and returns a stop
// function to call during graceful shutdown.
func RateLimitWithStop(cfg *config.RateLimitConfig, log *logger.Logger) (func(http.Handler) http.Handler, func()) {
	if !cfg.Enabled {
		return func(next http.Handler) http.Handler {
			return next
		}, func() {}
	}

	rl := NewRateLimiter(cfg, log)
	return rl.Middleware(), rl.Stop
}

// getClientIP extracts the real client IP from the request.
// In production behind a trusted proxy, configure the proxy to set
// X-Real-IP or the rightmost X-Forwarded-For IP.
func getClientIP(r *http.Request) string {
	if xrip := r.Header.Get("X-Real-IP"); xrip != "" {
		return strings.TrimSpace(xrip)
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		return ip[:idx]
	}
	return ip
}
