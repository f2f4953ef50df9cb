package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// IdempotencyConfig controls the duplicate-request window. The panic
// button is a double-tap hazard; within the TTL the same key submits
// one alert.
type IdempotencyConfig struct {
	HeaderName string
	TTL        time.Duration
	MaxKeys    int
}

// IdempotencyMiddleware rejects a repeated Idempotency-Key with 409.
// When the client sends no key, the request body hash stands in for it.
func IdempotencyMiddleware(cfg IdempotencyConfig) gin.HandlerFunc {
	if cfg.HeaderName == "" {
		cfg.HeaderName = "Idempotency-Key"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	if cfg.MaxKeys <= 0 {
		cfg.MaxKeys = 4096
	}
	seen := expirable.NewLRU[string, struct{}](cfg.MaxKeys, nil, cfg.TTL)

	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(cfg.HeaderName))
		if key == "" {
			b, _ := io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(strings.NewReader(string(b)))
			h := sha256.Sum256(b)
			key = hex.EncodeToString(h[:])
		}

		if _, dup := seen.Get(key); dup {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"success": false,
				"error":   "duplicate request",
			})
			return
		}
		seen.Add(key, struct{}{})
		c.Next()
	}
}
