package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wardline/roster-api/internal/models"
	appErrors "github.com/wardline/roster-api/pkg/errors"
	"github.com/wardline/roster-api/pkg/response"
)

type rosterService interface {
	Colleagues(ctx context.Context, actor *models.JWTClaims) ([]models.Nurse, error)
}

// RosterHandler serves ward roster lookups.
type RosterHandler struct {
	service rosterService
}

// NewRosterHandler constructs handler.
func NewRosterHandler(svc rosterService) *RosterHandler {
	return &RosterHandler{service: svc}
}

// Colleagues godoc
// @Summary List active colleagues in the caller's ward
// @Tags Roster
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /roster/colleagues [get]
func (h *RosterHandler) Colleagues(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	nurses, err := h.service.Colleagues(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, nurses, nil)
}
