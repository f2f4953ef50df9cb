package handlers

import (
	"net/http"

	"CampusSOS/internal/models"
	apperrors "CampusSOS/pkg/errors"
	"CampusSOS/pkg/logger"
	"CampusSOS/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type studentAuthRequest struct {
	StudentID string `json:"student_id" binding:"required"`
	Name      string `json:"name"`
	Course    string `json:"course"`
}

// handleStudentAuth resolves a student by registration number. An
// unknown number with a name enrolls on first use so the panic button
// works the moment the app is installed.
func (h *Handlers) handleStudentAuth(c *gin.Context) {
	var req studentAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.store.FindStudent(c.Request.Context(), req.StudentID)
	if apperrors.IsCode(err, apperrors.CodeNotFound) {
		if req.Name == "" {
			response.Fail(c, http.StatusNotFound, "student not found")
			return
		}
		user = &models.User{
			StudentID: req.StudentID,
			Name:      req.Name,
			Course:    req.Course,
			UserType:  models.UserTypeStudent,
		}
		if err := h.db.WithContext(c.Request.Context()).Create(user).Error; err != nil {
			response.Fail(c, http.StatusServiceUnavailable, "could not enroll student")
			return
		}
		logger.Info("student enrolled",
			zap.String("student_id", user.StudentID), zap.Uint("user_id", user.ID))
		response.Created(c, user)
		return
	}
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, user)
}

type adminAuthRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// handleAdminAuth verifies an admin login against the stored bcrypt
// hash. Unknown email and wrong password are indistinguishable to the
// caller.
func (h *Handlers) handleAdminAuth(c *gin.Context) {
	var req adminAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.store.FindAdmin(c.Request.Context(), req.Email)
	if apperrors.IsCode(err, apperrors.CodeNotFound) {
		response.Fail(c, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		failFromError(c, err)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		logger.Warn("admin login rejected", zap.String("email", req.Email))
		response.Fail(c, http.StatusUnauthorized, "invalid credentials")
		return
	}

	response.Success(c, user)
}
