package handlers

import (
	"net/http"

	"CampusSOS/internal/lifecycle"
	"CampusSOS/internal/store"
	"CampusSOS/pkg/cache"
	"CampusSOS/pkg/config"
	apperrors "CampusSOS/pkg/errors"
	"CampusSOS/pkg/metrics"
	"CampusSOS/pkg/middleware"
	"CampusSOS/pkg/response"
	"CampusSOS/pkg/sse"
	"CampusSOS/pkg/websocket"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

type Handlers struct {
	db      *gorm.DB
	store   *store.Store
	manager *lifecycle.Manager
	hub     *websocket.Hub
	sse     *sse.Hub
	cache   cache.Cache
	metrics *metrics.Metrics
}

func NewHandlers(db *gorm.DB, st *store.Store, mgr *lifecycle.Manager,
	hub *websocket.Hub, sseHub *sse.Hub, c cache.Cache, m *metrics.Metrics) *Handlers {
	return &Handlers{
		db:      db,
		store:   st,
		manager: mgr,
		hub:     hub,
		sse:     sseHub,
		cache:   c,
		metrics: m,
	}
}

func (h *Handlers) Register(engine *gin.Engine) {
	engine.Use(middleware.RequestLogger(h.metrics))

	r := engine.Group(config.GlobalConfig.APIPrefix)

	h.registerSystemRoutes(engine)
	h.registerAuthRoutes(r)
	h.registerAlertRoutes(r)
	h.registerRealtimeRoutes(r)
}

func (h *Handlers) registerAuthRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.POST("/student", h.handleStudentAuth)
		auth.POST("/admin", h.handleAdminAuth)
	}
}

func (h *Handlers) registerAlertRoutes(r *gin.RouterGroup) {
	rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate: "60-M",
		PerRouteRates: map[string]string{
			config.GlobalConfig.APIPrefix + "/alerts": "10-M",
		},
		AddHeaders: true,
	}, nil).WithMetrics(h.metrics)

	alerts := r.Group("/alerts")
	alerts.Use(rl.Middleware())
	{
		alerts.POST("",
			middleware.IdempotencyMiddleware(middleware.IdempotencyConfig{}),
			h.handleSubmitAlert)
		alerts.GET("", h.handleListAlerts)
		alerts.GET("/active", h.handleActiveAlerts)
		alerts.GET("/stats", h.handleStats)
		alerts.GET("/:id", h.handleGetAlert)
		alerts.PUT("/:id", h.handleTransition)
		alerts.POST("/:id/location", h.handleReportLocation)
		alerts.GET("/:id/locations", h.handleLocationHistory)
	}
}

func (h *Handlers) registerRealtimeRoutes(r *gin.RouterGroup) {
	r.GET("/ws", h.handleWebSocket)
	r.GET("/events", h.handleEvents)
}

func (h *Handlers) registerSystemRoutes(engine *gin.Engine) {
	engine.GET("/health", h.handleHealthCheck)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// failFromError maps the error taxonomy onto HTTP statuses.
func failFromError(c *gin.Context, err error) {
	switch apperrors.GetCode(err) {
	case apperrors.CodeValidation:
		response.Fail(c, http.StatusBadRequest, apperrors.GetMessage(err))
	case apperrors.CodeNotFound:
		response.Fail(c, http.StatusNotFound, apperrors.GetMessage(err))
	case apperrors.CodeIllegalTransition:
		response.Fail(c, http.StatusConflict, apperrors.GetMessage(err))
	case apperrors.CodeStoreUnavailable:
		response.Fail(c, http.StatusServiceUnavailable, apperrors.GetMessage(err))
	default:
		response.Fail(c, http.StatusInternalServerError, "internal error")
	}
}
