package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"uems/internal/metrics"
)

// Limiter keeps one token bucket per client IP. Idle buckets expire from
// the client cache.
type Limiter struct {
	mu      sync.Mutex
	clients *gocache.Cache
	clock   clockwork.Clock
	metrics *metrics.Metrics

	limit rate.Limit
	burst int
}

// Config holds rate limiter configuration
type Config struct {
	RequestsPerMinute int
	// Burst defaults to RequestsPerMinute.
	Burst           int
	IdleTTL         time.Duration
	CleanupInterval time.Duration

	Clock   clockwork.Clock
	Metrics *metrics.Metrics
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 60,
		IdleTTL:           10 * time.Minute,
		CleanupInterval:   5 * time.Minute,
	}
}

// NewLimiter creates a new rate limiter
func NewLimiter(config Config) *Limiter {
	defaults := DefaultConfig()
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = defaults.RequestsPerMinute
	}
	if config.Burst <= 0 {
		config.Burst = config.RequestsPerMinute
	}
	if config.IdleTTL <= 0 {
		config.IdleTTL = defaults.IdleTTL
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = defaults.CleanupInterval
	}
	if config.Clock == nil {
		config.Clock = clockwork.NewRealClock()
	}
	if config.Metrics == nil {
		config.Metrics = metrics.NewMetricsForTesting()
	}

	return &Limiter{
		clients: gocache.New(config.IdleTTL, config.CleanupInterval),
		clock:   config.Clock,
		metrics: config.Metrics,
		limit:   rate.Every(time.Minute / time.Duration(config.RequestsPerMinute)),
		burst:   config.Burst,
	}
}

// Allow checks if a request from the given IP should be allowed
func (rl *Limiter) Allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	var bucket *rate.Limiter
	if v, ok := rl.clients.Get(clientIP); ok {
		bucket = v.(*rate.Limiter)
	} else {
		bucket = rate.NewLimiter(rl.limit, rl.burst)
	}
	// Re-setting refreshes the idle expiry.
	rl.clients.SetDefault(clientIP, bucket)

	if bucket.AllowN(rl.clock.Now(), 1) {
		return true
	}
	rl.metrics.RateLimited.Inc()
	return false
}

// retryAfter is the wait until the client earns its next token.
func (rl *Limiter) retryAfter() int {
	wait := time.Duration(float64(time.Second) / float64(rl.limit))
	secs := int(wait.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// ActiveClients returns the number of currently tracked clients
func (rl *Limiter) ActiveClients() int {
	return rl.clients.ItemCount()
}

// Stop drops every tracked client.
func (rl *Limiter) Stop() {
	rl.clients.Flush()
}

// Middleware creates HTTP middleware for rate limiting
func (rl *Limiter) Middleware(extractIP func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := extractIP(r)

			if !rl.Allow(clientIP) {
				w.Header().Set("Retry-After", strconv.Itoa(rl.retryAfter()))
				if onLimit != nil {
					onLimit(w, r)
				} else {
					http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				}
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
