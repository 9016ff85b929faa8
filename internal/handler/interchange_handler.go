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

type interchangeService interface {
	Propose(ctx context.Context, req dto.ProposeInterchangeRequest, actor *models.JWTClaims) (*models.InterchangeRequest, error)
	Respond(ctx context.Context, id string, req dto.RespondInterchangeRequest, actor *models.JWTClaims) (*models.InterchangeRequest, error)
	Withdraw(ctx context.Context, id string, actor *models.JWTClaims) (*models.InterchangeRequest, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.InterchangeRequest, error)
	Outgoing(ctx context.Context, actor *models.JWTClaims) ([]models.InterchangeRequest, error)
	Incoming(ctx context.Context, actor *models.JWTClaims) ([]models.InterchangeRequest, error)
}

// InterchangeHandler serves the two-party shift swap endpoints.
type InterchangeHandler struct {
	service interchangeService
}

// NewInterchangeHandler constructs handler.
func NewInterchangeHandler(svc interchangeService) *InterchangeHandler {
	return &InterchangeHandler{service: svc}
}

// Propose godoc
// @Summary Propose a shift swap with a ward colleague
// @Tags Interchanges
// @Accept json
// @Produce json
// @Param payload body dto.ProposeInterchangeRequest true "Swap proposal"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /interchanges [post]
func (h *InterchangeHandler) Propose(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.ProposeInterchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}

	request, err := h.service.Propose(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, request)
}

// Respond godoc
// @Summary Approve or reject a swap as the named peer
// @Tags Interchanges
// @Accept json
// @Produce json
// @Param id path string true "Interchange ID"
// @Param payload body dto.RespondInterchangeRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /interchanges/{id}/respond [post]
func (h *InterchangeHandler) Respond(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.RespondInterchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}

	request, err := h.service.Respond(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Withdraw godoc
// @Summary Withdraw a pending swap as the requester
// @Tags Interchanges
// @Produce json
// @Param id path string true "Interchange ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /interchanges/{id}/withdraw [post]
func (h *InterchangeHandler) Withdraw(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	request, err := h.service.Withdraw(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Get godoc
// @Summary Fetch a single swap visible to the caller
// @Tags Interchanges
// @Produce json
// @Param id path string true "Interchange ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /interchanges/{id} [get]
func (h *InterchangeHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	request, err := h.service.Get(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Outgoing godoc
// @Summary List swaps proposed by the caller
// @Tags Interchanges
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /interchanges/outgoing [get]
func (h *InterchangeHandler) Outgoing(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	requests, err := h.service.Outgoing(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}

// Incoming godoc
// @Summary List swaps awaiting the caller's decision
// @Tags Interchanges
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /interchanges/incoming [get]
func (h *InterchangeHandler) Incoming(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	requests, err := h.service.Incoming(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}
