package server

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// RateLimitInfo configures a token-bucket limiter. The refill rate is
// MaxRequests/WindowSeconds tokens per second; Burst is the bucket
// capacity, so short traffic spikes are absorbed without tripping
// the limit.
type RateLimitInfo struct {
	WindowSeconds int
	MaxRequests   int
	Burst         int
}

// DefaultRateLimit is the per-client budget applied to the protocol
// endpoints. The health check is never limited.
func DefaultRateLimit() RateLimitInfo {
	return RateLimitInfo{
		WindowSeconds: 60,
		MaxRequests:   120,
		Burst:         30,
	}
}

// TokenBucket implements a token bucket rate limiter
type TokenBucket struct {
	tokens     float64
	capacity   float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	mu         sync.Mutex
}

// NewTokenBucket creates a new token bucket with given capacity and refill rate
func NewTokenBucket(capacity int, refillRate float64) *TokenBucket {
	return &TokenBucket{
		tokens:     float64(capacity),
		capacity:   float64(capacity),
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Allow checks if a token is available and consumes it if so.
// Returns (allowed, tokensRemaining, nextTokenTime) where nextTokenTime
// is when the next token becomes available (used for Retry-After).
func (tb *TokenBucket) Allow() (bool, int, time.Time) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(tb.lastRefill).Seconds()
	tb.tokens += elapsed * tb.refillRate
	if tb.tokens > tb.capacity {
		tb.tokens = tb.capacity
	}
	tb.lastRefill = now

	if tb.tokens >= 1.0 {
		tb.tokens -= 1.0
		return true, int(tb.tokens), now
	}

	tokensUntilNext := 1.0 - tb.tokens
	secondsUntilNext := tokensUntilNext / tb.refillRate
	nextTokenTime := now.Add(time.Duration(secondsUntilNext * float64(time.Second)))

	return false, 0, nextTokenTime
}

// RateLimiter manages per-client token buckets keyed by remote address.
type RateLimiter struct {
	buckets map[string]*TokenBucket
	config  RateLimitInfo
	mu      sync.RWMutex
}

// NewRateLimiter creates a new rate limiter with the given configuration
func NewRateLimiter(config RateLimitInfo) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*TokenBucket),
		config:  config,
	}

	// Cleanup goroutine removes inactive buckets.
	go rl.cleanupLoop()

	return rl
}

// getBucket retrieves or creates a token bucket for the given client
func (rl *RateLimiter) getBucket(clientID string) *TokenBucket {
	rl.mu.RLock()
	bucket, exists := rl.buckets[clientID]
	rl.mu.RUnlock()

	if exists {
		return bucket
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Double-check after acquiring write lock
	if bucket, exists := rl.buckets[clientID]; exists {
		return bucket
	}

	refillRate := float64(rl.config.MaxRequests) / float64(rl.config.WindowSeconds)
	bucket = NewTokenBucket(rl.config.Burst, refillRate)
	rl.buckets[clientID] = bucket
	return bucket
}

// Allow checks if the client is allowed to make a request
func (rl *RateLimiter) Allow(clientID string) (bool, int, time.Time) {
	bucket := rl.getBucket(clientID)
	return bucket.Allow()
}

// cleanupLoop periodically removes inactive buckets to prevent memory leaks
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		for clientID, bucket := range rl.buckets {
			bucket.mu.Lock()
			if time.Since(bucket.lastRefill) > time.Hour {
				delete(rl.buckets, clientID)
			}
			bucket.mu.Unlock()
		}
		rl.mu.Unlock()
	}
}

// clientKey identifies the requester for rate limiting. A session
// header wins when present so one busy session does not starve other
// clients behind the same NAT; otherwise the remote IP is used.
func clientKey(r *http.Request) string {
	if sessionID := r.Header.Get("Mcp-Session-Id"); sessionID != "" {
		return sessionID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimitMiddleware returns a middleware that enforces rate limiting
// per client. Each middleware instance creates its own rate limiter,
// so different route groups can carry different budgets.
func RateLimitMiddleware(config RateLimitInfo) func(http.Handler) http.Handler {
	limiter := NewRateLimiter(config)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := clientKey(r)

			allowed, remaining, nextTokenTime := limiter.Allow(clientID)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(config.MaxRequests))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Burst", strconv.Itoa(config.Burst))

			if !allowed {
				retryAfter := int(time.Until(nextTokenTime).Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}

				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

				log.Warn().
					Str("client", clientID).
					Str("path", r.URL.Path).
					Int("retryAfter", retryAfter).
					Msg("Rate limit exceeded")

				writeJSON(w, http.StatusTooManyRequests, map[string]any{
					"error": "Rate limit exceeded. Please retry after " + strconv.Itoa(retryAfter) + " seconds.",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
