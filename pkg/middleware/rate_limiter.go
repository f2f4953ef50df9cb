package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"CampusSOS/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RateLimiterConfig tunes the request limiter.
//
// Rate uses the limiter format, e.g. "100-M", "10-S". PerRouteRates
// overrides the default per registered route. SkipPaths is matched on
// prefix.
type RateLimiterConfig struct {
	Rate          string
	PerRouteRates map[string]string
	SkipPaths     []string
	AddHeaders    bool
}

// RateLimiter wraps ulule/limiter with per-route rates. Store is
// in-memory; a Redis store can be injected for multi-node deployments.
type RateLimiter struct {
	cfg            RateLimiterConfig
	store          limiter.Store
	m              *metrics.Metrics
	limitersByRate map[string]*limiter.Limiter
	mu             sync.RWMutex
}

func NewRateLimiter(cfg RateLimiterConfig, store limiter.Store) *RateLimiter {
	if store == nil {
		store = memory.NewStore()
	}
	return &RateLimiter{
		cfg:            cfg,
		store:          store,
		limitersByRate: make(map[string]*limiter.Limiter),
	}
}

// WithMetrics reports denied requests to the metrics registry.
func (l *RateLimiter) WithMetrics(m *metrics.Metrics) *RateLimiter {
	l.m = m
	return l
}

// Middleware returns the gin handler. Requests are keyed by client IP.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		for _, skip := range l.cfg.SkipPaths {
			if len(path) >= len(skip) && path[:len(skip)] == skip {
				c.Next()
				return
			}
		}

		lim := l.getLimiter(l.pickRate(path))
		lctx, err := lim.Get(c, c.ClientIP())
		if err != nil {
			// Limiter trouble never takes the panic button down.
			c.Next()
			return
		}

		if l.cfg.AddHeaders {
			c.Header("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
			c.Header("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
		}
		if lctx.Reached {
			if l.m != nil {
				l.m.RecordRateLimited(path)
			}
			c.Header("Retry-After", time.Unix(lctx.Reset, 0).UTC().Format(http.TimeFormat))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   "too many requests",
			})
			return
		}

		c.Next()
	}
}

func (l *RateLimiter) pickRate(path string) string {
	if r, ok := l.cfg.PerRouteRates[path]; ok && r != "" {
		return r
	}
	if l.cfg.Rate != "" {
		return l.cfg.Rate
	}
	return "10-S"
}

func (l *RateLimiter) getLimiter(rateStr string) *limiter.Limiter {
	l.mu.RLock()
	lim, ok := l.limitersByRate[rateStr]
	l.mu.RUnlock()
	if ok {
		return lim
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if lim, ok = l.limitersByRate[rateStr]; ok {
		return lim
	}
	r, err := limiter.NewRateFromFormatted(rateStr)
	if err != nil {
		r = limiter.Rate{Period: time.Second, Limit: 10}
	}
	lim = limiter.New(l.store, r)
	l.limitersByRate[rateStr] = lim
	return lim
}
