package handlers

import (
	"CampusSOS/pkg/config"
	"CampusSOS/pkg/response"

	"github.com/gin-gonic/gin"
)

const statsCacheKey = "alerts:stats"

// handleStats serves the dashboard aggregate behind a short TTL cache;
// the dashboard polls this endpoint and the numbers tolerate a few
// seconds of staleness.
func (h *Handlers) handleStats(c *gin.Context) {
	ctx := c.Request.Context()

	if h.cache != nil {
		if cached, ok := h.cache.Get(ctx, statsCacheKey); ok {
			response.Success(c, cached)
			return
		}
	}

	stats, err := h.store.Stats(ctx)
	if err != nil {
		failFromError(c, err)
		return
	}

	if h.cache != nil {
		_ = h.cache.Set(ctx, statsCacheKey, stats, config.GlobalConfig.StatsCacheTTL)
	}
	response.Success(c, stats)
}
