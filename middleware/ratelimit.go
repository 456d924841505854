package middleware

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru"

	"github.com/princinho/parkingbackend/apperror"
	"github.com/princinho/parkingbackend/utils"
)

const (
	CategoryGlobal       = "global"
	CategoryAuth         = "auth"
	CategoryBookings     = "bookings"
	CategoryAvailability = "availability"
)

type Rule struct {
	Limit  int
	Window time.Duration
}

// DefaultRules are the per-client limits for each endpoint category.
var DefaultRules = map[string]Rule{
	CategoryGlobal:       {Limit: 1000, Window: time.Hour},
	CategoryAuth:         {Limit: 10, Window: time.Minute},
	CategoryBookings:     {Limit: 10, Window: time.Minute},
	CategoryAvailability: {Limit: 30, Window: time.Minute},
}

type window struct {
	start time.Time
	count int
}

// RateLimiter is a fixed-window counter keyed by category and client IP.
// Counters live in a bounded LRU so idle clients are evicted.
type RateLimiter struct {
	mu       sync.Mutex
	counters *lru.Cache
	rules    map[string]Rule
	now      func() time.Time
}

func NewRateLimiter(size int, rules map[string]Rule) (*RateLimiter, error) {
	if size <= 0 {
		size = 10000
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("rate limiter cache: %w", err)
	}
	merged := make(map[string]Rule, len(DefaultRules))
	for k, v := range DefaultRules {
		merged[k] = v
	}
	for k, v := range rules {
		merged[k] = v
	}
	return &RateLimiter{counters: cache, rules: merged, now: time.Now}, nil
}

// Allow counts one request. When the window is exhausted it returns
// false and the time left until the window resets.
func (rl *RateLimiter) Allow(category, client string) (bool, time.Duration) {
	rule, ok := rl.rules[category]
	if !ok {
		rule = rl.rules[CategoryGlobal]
	}
	key := category + ":" + client
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w := &window{start: now}
	if v, ok := rl.counters.Get(key); ok {
		w = v.(*window)
		if now.Sub(w.start) >= rule.Window {
			w.start = now
			w.count = 0
		}
	}
	if w.count >= rule.Limit {
		return false, w.start.Add(rule.Window).Sub(now)
	}
	w.count++
	rl.counters.Add(key, w)
	return true, 0
}

// Categorize maps a request to its rate limit category.
func Categorize(method, path string) string {
	switch {
	case strings.HasPrefix(path, "/api/v1/auth/login"), strings.HasPrefix(path, "/api/v1/auth/register"):
		return CategoryAuth
	case strings.HasPrefix(path, "/api/v1/bookings") && method == http.MethodPost:
		return CategoryBookings
	case strings.HasPrefix(path, "/api/v1/availability"):
		return CategoryAvailability
	default:
		return CategoryGlobal
	}
}

// RateLimit rejects requests over their category's limit with 429.
func RateLimit(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		category := Categorize(c.Request.Method, c.Request.URL.Path)
		ip := c.ClientIP()
		ok, retryAfter := rl.Allow(category, ip)
		if ok {
			c.Next()
			return
		}

		rule := rl.rules[category]
		slog.Warn("Rate limit exceeded",
			slog.String("ip", ip),
			slog.String("category", category),
			slog.String("path", c.Request.URL.Path),
			slog.String("method", c.Request.Method),
			slog.Int("limit", rule.Limit),
			slog.Duration("window", rule.Window))

		secs := int(math.Ceil(retryAfter.Seconds()))
		if secs < 1 {
			secs = 1
		}
		utils.SendError(c, apperror.RateLimited(rule.Limit, rule.Window, retryAfter).
			WithField("retry_after", fmt.Sprintf("%d", secs)))
	}
}
