package handlers

import (
	"net/http"
	"strconv"

	"CampusSOS/internal/lifecycle"
	"CampusSOS/pkg/response"

	"github.com/gin-gonic/gin"
)

type submitAlertRequest struct {
	UserID      uint     `json:"user_id"`
	StudentID   string   `json:"student_id" binding:"required"`
	StudentName string   `json:"student_name" binding:"required"`
	Course      string   `json:"course"`
	Latitude    *float64 `json:"latitude" binding:"required"`
	Longitude   *float64 `json:"longitude" binding:"required"`
}

func (h *Handlers) handleSubmitAlert(c *gin.Context) {
	var req submitAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	alert, err := h.manager.Submit(c.Request.Context(), lifecycle.SubmitRequest{
		UserID:      req.UserID,
		StudentID:   req.StudentID,
		StudentName: req.StudentName,
		Course:      req.Course,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	})
	if err != nil {
		failFromError(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordAlertCreated()
	}
	response.Created(c, alert)
}

func (h *Handlers) handleListAlerts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	alerts, err := h.store.ListAlerts(c.Request.Context(), limit)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, alerts)
}

func (h *Handlers) handleActiveAlerts(c *gin.Context) {
	alerts, err := h.store.ActiveAlerts(c.Request.Context())
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, alerts)
}

func (h *Handlers) handleGetAlert(c *gin.Context) {
	id, err := alertID(c)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid alert id")
		return
	}
	alert, err := h.store.GetAlert(c.Request.Context(), id)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, alert)
}

type transitionRequest struct {
	Status  string `json:"status" binding:"required"`
	AdminID uint   `json:"admin_id"`
}

// handleTransition applies a status change. The 200 means the write was
// accepted; dashboards converge through the change feed, so the body
// carries no snapshot.
func (h *Handlers) handleTransition(c *gin.Context) {
	id, err := alertID(c)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid alert id")
		return
	}

	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.manager.Transition(c.Request.Context(), id, req.Status, req.AdminID); err != nil {
		failFromError(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordAlertTransition(req.Status)
	}
	response.Success(c, gin.H{"id": id, "status": req.Status})
}

func alertID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	return uint(id), err
}
