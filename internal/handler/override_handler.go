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

type overrideService interface {
	Create(ctx context.Context, req dto.CreateOverrideRequest, actor *models.JWTClaims) (*models.ScheduleOverride, error)
	List(ctx context.Context, query dto.OverrideQuery, actor *models.JWTClaims) ([]models.ScheduleOverride, error)
	Approve(ctx context.Context, id string, actor *models.JWTClaims) (*models.ScheduleOverride, error)
	Reject(ctx context.Context, id string, req dto.RejectOverrideRequest, actor *models.JWTClaims) (*models.ScheduleOverride, error)
}

// OverrideHandler serves the override request and review endpoints.
type OverrideHandler struct {
	service overrideService
}

// NewOverrideHandler constructs handler.
func NewOverrideHandler(svc overrideService) *OverrideHandler {
	return &OverrideHandler{service: svc}
}

// Create godoc
// @Summary Request a schedule override
// @Tags Overrides
// @Accept json
// @Produce json
// @Param payload body dto.CreateOverrideRequest true "Override request"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /overrides [post]
func (h *OverrideHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CreateOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}

	override, err := h.service.Create(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, override)
}

// List godoc
// @Summary List override requests
// @Tags Overrides
// @Produce json
// @Param nurse_id query string false "Filter by nurse (supervisors only)"
// @Param status query string false "Filter by status"
// @Param from query string false "Range start (yyyy-mm-dd)"
// @Param to query string false "Range end (yyyy-mm-dd)"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /overrides [get]
func (h *OverrideHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var query dto.OverrideQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}

	overrides, err := h.service.List(c.Request.Context(), query, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, overrides, nil)
}

// Approve godoc
// @Summary Approve a pending override
// @Tags Overrides
// @Produce json
// @Param id path string true "Override ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /overrides/{id}/approve [post]
func (h *OverrideHandler) Approve(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	override, err := h.service.Approve(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, override, nil)
}

// Reject godoc
// @Summary Reject a pending override
// @Tags Overrides
// @Accept json
// @Produce json
// @Param id path string true "Override ID"
// @Param payload body dto.RejectOverrideRequest false "Rejection note"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /overrides/{id}/reject [post]
func (h *OverrideHandler) Reject(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.RejectOverrideRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
			return
		}
	}

	override, err := h.service.Reject(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, override, nil)
}
