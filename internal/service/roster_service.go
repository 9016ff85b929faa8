package service

import (
	"context"

	"github.com/wardline/roster-api/internal/models"
	appErrors "github.com/wardline/roster-api/pkg/errors"
)

type wardRosterReader interface {
	ListWardColleagues(ctx context.Context, wardID, excludeID string) ([]models.Nurse, error)
}

// RosterService exposes the ward-scoped colleague list used by swap peer
// pickers.
type RosterService struct {
	repo wardRosterReader
}

// NewRosterService constructs the service.
func NewRosterService(repo wardRosterReader) *RosterService {
	return &RosterService{repo: repo}
}

// Colleagues returns the active nurses sharing the actor's ward.
func (s *RosterService) Colleagues(ctx context.Context, actor *models.JWTClaims) ([]models.Nurse, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.WardID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "token carries no ward scope")
	}
	nurses, err := s.repo.ListWardColleagues(ctx, actor.WardID, actor.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list colleagues")
	}
	return nurses, nil
}
