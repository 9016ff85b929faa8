package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/wardline/roster-api/internal/dto"
	"github.com/wardline/roster-api/internal/models"
	"github.com/wardline/roster-api/internal/repository"
	appErrors "github.com/wardline/roster-api/pkg/errors"
)

type overrideStore interface {
	Create(ctx context.Context, override *models.ScheduleOverride) error
	GetByID(ctx context.Context, id string) (*models.ScheduleOverride, error)
	List(ctx context.Context, filter models.OverrideFilter) ([]models.ScheduleOverride, error)
	ApproveAndApply(ctx context.Context, id, reviewerID string) error
	Reject(ctx context.Context, id, reviewerID string, note *string) error
}

// OverrideService orchestrates unilateral schedule change requests and their
// review lifecycle.
type OverrideService struct {
	repo      overrideStore
	audit     auditSink
	events    *EventService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewOverrideService constructs the service.
func NewOverrideService(repo overrideStore, audit auditSink, events *EventService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *OverrideService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OverrideService{repo: repo, audit: audit, events: events, metrics: metrics, validator: validate, logger: logger}
}

// Create stores a new PENDING override after validating the payload and the
// one-unresolved-override-per-slot invariant.
func (s *OverrideService) Create(ctx context.Context, req dto.CreateOverrideRequest, actor *models.JWTClaims) (*models.ScheduleOverride, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid override payload")
	}
	if strings.TrimSpace(req.Reason) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "reason is required")
	}

	date, err := time.Parse(models.SlotDateLayout, req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be yyyy-mm-dd")
	}

	switch req.Kind {
	case models.OverrideKindTimeOff, models.OverrideKindCancellation:
	case models.OverrideKindShiftChange:
		if req.NewShiftType == "" || req.NewStartTime == "" || req.NewEndTime == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "shift change requires new_shift_type, new_start_time and new_end_time")
		}
	case models.OverrideKindInterchange:
		return nil, appErrors.Clone(appErrors.ErrValidation, "interchange overrides are created by the swap workflow")
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported override kind")
	}

	nurseID := actor.UserID
	if req.NurseID != "" && req.NurseID != actor.UserID {
		if actor.Role != models.RoleSupervisor && actor.Role != models.RoleAdmin {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "only supervisors may request changes for another nurse")
		}
		nurseID = req.NurseID
	}

	override := &models.ScheduleOverride{
		NurseID:      nurseID,
		ShiftDate:    date,
		Kind:         req.Kind,
		NewShiftType: optionalString(req.NewShiftType),
		NewStartTime: optionalString(req.NewStartTime),
		NewEndTime:   optionalString(req.NewEndTime),
		Reason:       strings.TrimSpace(req.Reason),
		Status:       models.OverrideStatusPending,
		RequestedBy:  actor.UserID,
	}
	if err := s.repo.Create(ctx, override); err != nil {
		if errors.Is(err, repository.ErrSlotOccupied) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "an unresolved override already exists for this date")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create override")
	}

	s.metrics.RecordOverrideTransition(string(override.Kind), "created")
	emitAudit(ctx, s.audit, s.logger, &models.AuditEntry{
		ActorID:    &actor.UserID,
		Action:     models.AuditActionOverrideCreate,
		Resource:   ResourceOverride,
		ResourceID: &override.ID,
		NewStatus:  statusPtr(override.Status),
	})
	return override, nil
}

// Approve flips a PENDING override to APPLIED and supersedes the base shift.
// Approving an already APPLIED override is an idempotent no-op; approving a
// REJECTED one is a Conflict.
func (s *OverrideService) Approve(ctx context.Context, id string, actor *models.JWTClaims) (*models.ScheduleOverride, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	override, err := s.getByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if override.Status == models.OverrideStatusApplied {
		return override, nil
	}
	if override.Status == models.OverrideStatusRejected {
		return nil, appErrors.Clone(appErrors.ErrConflict, "override was already rejected")
	}

	if err := s.repo.ApproveAndApply(ctx, id, actor.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Lost a race with another reviewer; re-read decides the outcome.
			current, readErr := s.getByID(ctx, id)
			if readErr != nil {
				return nil, readErr
			}
			if current.Status == models.OverrideStatusApplied {
				return current, nil
			}
			return nil, appErrors.Clone(appErrors.ErrConflict, "override was already rejected")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve override")
	}

	applied, err := s.getByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordOverrideTransition(string(applied.Kind), "applied")
	emitAudit(ctx, s.audit, s.logger, &models.AuditEntry{
		ActorID:     &actor.UserID,
		Action:      models.AuditActionOverrideApprove,
		Resource:    ResourceOverride,
		ResourceID:  &applied.ID,
		PriorStatus: statusPtr(models.OverrideStatusPending),
		NewStatus:   statusPtr(applied.Status),
	})
	s.events.Emit(Event{
		Type:       EventOverrideApplied,
		NurseIDs:   []string{applied.NurseID},
		Resource:   ResourceOverride,
		ResourceID: applied.ID,
		Payload: map[string]interface{}{
			"kind": applied.Kind,
			"date": applied.ShiftDate.Format(models.SlotDateLayout),
		},
	})
	return applied, nil
}

// Reject moves a PENDING override to its terminal REJECTED state.
func (s *OverrideService) Reject(ctx context.Context, id string, req dto.RejectOverrideRequest, actor *models.JWTClaims) (*models.ScheduleOverride, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	override, err := s.getByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if override.Status != models.OverrideStatusPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "override was already resolved")
	}

	note := optionalString(strings.TrimSpace(req.Note))
	if err := s.repo.Reject(ctx, id, actor.UserID, note); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "override was already resolved")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject override")
	}

	rejected, err := s.getByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordOverrideTransition(string(rejected.Kind), "rejected")
	emitAudit(ctx, s.audit, s.logger, &models.AuditEntry{
		ActorID:     &actor.UserID,
		Action:      models.AuditActionOverrideReject,
		Resource:    ResourceOverride,
		ResourceID:  &rejected.ID,
		PriorStatus: statusPtr(models.OverrideStatusPending),
		NewStatus:   statusPtr(rejected.Status),
		Note:        note,
	})
	return rejected, nil
}

// List returns overrides visible to the actor. Nurses see their own;
// supervisors may scope by nurse id across the ward.
func (s *OverrideService) List(ctx context.Context, query dto.OverrideQuery, actor *models.JWTClaims) ([]models.ScheduleOverride, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	filter := models.OverrideFilter{NurseID: actor.UserID}
	if query.NurseID != "" && query.NurseID != actor.UserID {
		if actor.Role != models.RoleSupervisor && actor.Role != models.RoleAdmin {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "only supervisors may list another nurse's overrides")
		}
		filter.NurseID = query.NurseID
	}
	if query.Status != "" {
		for _, part := range strings.Split(query.Status, ",") {
			part = strings.ToUpper(strings.TrimSpace(part))
			if part != "" {
				filter.Status = append(filter.Status, models.OverrideStatus(part))
			}
		}
	}
	var err error
	if query.From != "" {
		if filter.From, err = time.Parse(models.SlotDateLayout, query.From); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "from must be yyyy-mm-dd")
		}
	}
	if query.To != "" {
		if filter.To, err = time.Parse(models.SlotDateLayout, query.To); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "to must be yyyy-mm-dd")
		}
	}

	overrides, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list overrides")
	}
	return overrides, nil
}

func (s *OverrideService) getByID(ctx context.Context, id string) (*models.ScheduleOverride, error) {
	override, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load override")
	}
	return override, nil
}
