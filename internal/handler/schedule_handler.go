package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wardline/roster-api/internal/dto"
	"github.com/wardline/roster-api/internal/models"
	appErrors "github.com/wardline/roster-api/pkg/errors"
	"github.com/wardline/roster-api/pkg/response"
)

type scheduleService interface {
	View(ctx context.Context, nurseID string, query dto.ScheduleQuery) ([]models.EffectiveShift, error)
	PendingAcknowledgments(ctx context.Context, nurseID string) (*dto.PendingAcknowledgments, error)
	Acknowledge(ctx context.Context, shiftID string, actor *models.JWTClaims) (*models.ShiftAssignment, error)
	Export(ctx context.Context, actor *models.JWTClaims, query dto.ScheduleQuery, format string) ([]byte, string, error)
}

// ScheduleHandler serves the effective schedule and acknowledgment endpoints.
type ScheduleHandler struct {
	service scheduleService
}

// NewScheduleHandler constructs handler.
func NewScheduleHandler(svc scheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: svc}
}

// View godoc
// @Summary Effective schedule for the authenticated nurse
// @Tags Schedule
// @Produce json
// @Param from query string false "Range start (yyyy-mm-dd)"
// @Param to query string false "Range end (yyyy-mm-dd)"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /schedule [get]
func (h *ScheduleHandler) View(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var query dto.ScheduleQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}

	view, err := h.service.View(c.Request.Context(), claims.UserID, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// PendingAcknowledgments godoc
// @Summary Count of shifts awaiting acknowledgment
// @Tags Schedule
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /schedule/acknowledgments/pending [get]
func (h *ScheduleHandler) PendingAcknowledgments(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	counter, err := h.service.PendingAcknowledgments(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, counter, nil)
}

// Acknowledge godoc
// @Summary Acknowledge a scheduled shift
// @Tags Schedule
// @Produce json
// @Param id path string true "Shift ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /schedule/shifts/{id}/acknowledge [post]
func (h *ScheduleHandler) Acknowledge(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	shift, err := h.service.Acknowledge(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, shift, nil)
}

// Export godoc
// @Summary Export the effective schedule as CSV or PDF
// @Tags Schedule
// @Produce text/csv
// @Produce application/pdf
// @Param from query string false "Range start (yyyy-mm-dd)"
// @Param to query string false "Range end (yyyy-mm-dd)"
// @Param format query string false "csv or pdf"
// @Success 200 {file} byte
// @Security BearerAuth
// @Router /schedule/export [get]
func (h *ScheduleHandler) Export(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var query dto.ScheduleQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}

	data, contentType, err := h.service.Export(c.Request.Context(), claims, query, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := "schedule.csv"
	if contentType == "application/pdf" {
		filename = "schedule.pdf"
	}
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, contentType, data)
}
