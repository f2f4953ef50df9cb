package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newTestRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(handlers...)
	r.POST("/alerts", func(c *gin.Context) { c.JSON(http.StatusCreated, gin.H{"success": true}) })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func doPost(r *gin.Engine, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/alerts", strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotencyRejectsDuplicateKey(t *testing.T) {
	r := newTestRouter(IdempotencyMiddleware(IdempotencyConfig{TTL: time.Minute}))

	headers := map[string]string{"Idempotency-Key": "tap-1"}
	assert.Equal(t, http.StatusCreated, doPost(r, `{}`, headers).Code)
	assert.Equal(t, http.StatusConflict, doPost(r, `{}`, headers).Code)

	// A different key goes through.
	assert.Equal(t, http.StatusCreated,
		doPost(r, `{}`, map[string]string{"Idempotency-Key": "tap-2"}).Code)
}

func TestIdempotencyFallsBackToBodyHash(t *testing.T) {
	r := newTestRouter(IdempotencyMiddleware(IdempotencyConfig{TTL: time.Minute}))

	assert.Equal(t, http.StatusCreated, doPost(r, `{"student_id":"2024001234"}`, nil).Code)
	assert.Equal(t, http.StatusConflict, doPost(r, `{"student_id":"2024001234"}`, nil).Code)
	assert.Equal(t, http.StatusCreated, doPost(r, `{"student_id":"2024009999"}`, nil).Code)
}

func TestRateLimiterDeniesOverLimit(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: "2-M", AddHeaders: true}, nil)
	r := newTestRouter(rl.Middleware())

	assert.Equal(t, http.StatusCreated, doPost(r, `{"a":1}`, nil).Code)
	assert.Equal(t, http.StatusCreated, doPost(r, `{"a":2}`, nil).Code)

	w := doPost(r, `{"a":3}`, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestRateLimiterSkipPaths(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: "1-M", SkipPaths: []string{"/health"}}, nil)
	r := newTestRouter(rl.Middleware())

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
