package handlers

import (
	"net/http"

	"CampusSOS/pkg/response"

	"github.com/gin-gonic/gin"
)

type reportLocationRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

// handleReportLocation appends one movement sample to an alert's trail.
// The device posts on its own cadence; a rejected sample is simply
// re-sent on the next tick.
func (h *Handlers) handleReportLocation(c *gin.Context) {
	id, err := alertID(c)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid alert id")
		return
	}

	var req reportLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.AddLocationUpdate(c.Request.Context(), id, *req.Latitude, *req.Longitude); err != nil {
		failFromError(c, err)
		return
	}
	response.Created(c, gin.H{"alert_id": id})
}

func (h *Handlers) handleLocationHistory(c *gin.Context) {
	id, err := alertID(c)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid alert id")
		return
	}

	history, err := h.store.LocationHistory(c.Request.Context(), id)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, history)
}
