package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/wardline/roster-api/internal/dto"
	"github.com/wardline/roster-api/internal/models"
	"github.com/wardline/roster-api/internal/repository"
	appErrors "github.com/wardline/roster-api/pkg/errors"
)

const staleReferenceNote = "rejected by system: a referenced shift changed after the proposal"

type interchangeStore interface {
	Create(ctx context.Context, req *models.InterchangeRequest) error
	GetByID(ctx context.Context, id string) (*models.InterchangeRequest, error)
	List(ctx context.Context, filter models.InterchangeFilter) ([]models.InterchangeRequest, error)
	Resolve(ctx context.Context, params repository.ResolveParams) error
	ApprovePair(ctx context.Context, params repository.ApprovePairParams) error
}

type shiftReader interface {
	GetByID(ctx context.Context, id string) (*models.ShiftAssignment, error)
}

type slotOverrideReader interface {
	FindUnresolvedBySlot(ctx context.Context, nurseID string, date time.Time) (*models.ScheduleOverride, error)
}

type rosterReader interface {
	FindByID(ctx context.Context, id string) (*models.Nurse, error)
}

// InterchangeService drives the two-party shift swap state machine:
// PENDING -> APPROVED | REJECTED, plus PENDING -> WITHDRAWN by the requester.
// Approval materialises a linked override pair atomically or not at all.
type InterchangeService struct {
	repo      interchangeStore
	shifts    shiftReader
	overrides slotOverrideReader
	roster    rosterReader
	audit     auditSink
	events    *EventService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewInterchangeService constructs the service.
func NewInterchangeService(repo interchangeStore, shifts shiftReader, overrides slotOverrideReader, roster rosterReader,
	audit auditSink, events *EventService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *InterchangeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InterchangeService{
		repo:      repo,
		shifts:    shifts,
		overrides: overrides,
		roster:    roster,
		audit:     audit,
		events:    events,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// Propose creates a pending swap request after validating both shift
// references and the peer's ward eligibility.
func (s *InterchangeService) Propose(ctx context.Context, req dto.ProposeInterchangeRequest, actor *models.JWTClaims) (*models.InterchangeRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid interchange payload")
	}
	if req.PeerID == actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot propose a swap with yourself")
	}

	requesterShift, err := s.loadShift(ctx, req.RequesterShiftID)
	if err != nil {
		return nil, err
	}
	if requesterShift.NurseID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "requester shift belongs to another nurse")
	}
	if requesterShift.Status == models.ShiftStatusApprovedChange {
		return nil, appErrors.Clone(appErrors.ErrConflict, "requester shift was already superseded by an override")
	}

	peerShift, err := s.loadShift(ctx, req.PeerShiftID)
	if err != nil {
		return nil, err
	}
	if peerShift.NurseID != req.PeerID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "peer shift does not belong to the named peer")
	}

	peer, err := s.roster.FindByID(ctx, req.PeerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown peer")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve peer")
	}
	if !peer.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "peer is not an active nurse")
	}
	if actor.WardID != "" && peer.WardID != actor.WardID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "peer is outside your ward")
	}

	if _, err := s.overrides.FindUnresolvedBySlot(ctx, requesterShift.NurseID, requesterShift.ShiftDate); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "requester shift already carries an unresolved override")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check requester slot")
	}

	request := &models.InterchangeRequest{
		RequesterID:      actor.UserID,
		RequesterShiftID: requesterShift.ID,
		PeerID:           req.PeerID,
		PeerShiftID:      peerShift.ID,
		Reason:           req.Reason,
		PeerDecision:     models.PeerDecisionPending,
		Status:           models.InterchangeStatusPending,
	}
	if err := s.repo.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create interchange request")
	}

	emitAudit(ctx, s.audit, s.logger, &models.AuditEntry{
		ActorID:    &actor.UserID,
		Action:     models.AuditActionInterchangePropose,
		Resource:   ResourceInterchange,
		ResourceID: &request.ID,
		NewStatus:  statusPtr(request.Status),
	})
	return request, nil
}

// Respond records the named peer's decision. Approval re-validates both shift
// references and performs the atomic pair write; drift rejects the request
// with a system note and surfaces StaleReference.
func (s *InterchangeService) Respond(ctx context.Context, id string, req dto.RespondInterchangeRequest, actor *models.JWTClaims) (*models.InterchangeRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "action must be approve or reject")
	}

	request, err := s.getByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.PeerID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the named peer may respond")
	}
	if request.Resolved() {
		return nil, appErrors.Clone(appErrors.ErrConflict, "interchange request was already resolved")
	}

	switch req.Action {
	case dto.InterchangeActionReject:
		return s.rejectByPeer(ctx, request, req.Note, actor)
	case dto.InterchangeActionApprove:
		return s.approveByPeer(ctx, request, actor)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "action must be approve or reject")
	}
}

func (s *InterchangeService) rejectByPeer(ctx context.Context, request *models.InterchangeRequest, note string, actor *models.JWTClaims) (*models.InterchangeRequest, error) {
	err := s.repo.Resolve(ctx, repository.ResolveParams{
		ID:           request.ID,
		Status:       models.InterchangeStatusRejected,
		PeerDecision: models.PeerDecisionRejected,
		Note:         optionalString(note),
	})
	if err != nil {
		if errors.Is(err, repository.ErrRequestNotPending) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "interchange request was already resolved")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject interchange request")
	}
	return s.finishResolution(ctx, request.ID, actor, "rejected")
}

func (s *InterchangeService) approveByPeer(ctx context.Context, request *models.InterchangeRequest, actor *models.JWTClaims) (*models.InterchangeRequest, error) {
	requesterShift, err := s.loadShift(ctx, request.RequesterShiftID)
	if err != nil {
		return nil, err
	}
	peerShift, err := s.loadShift(ctx, request.PeerShiftID)
	if err != nil {
		return nil, err
	}

	if stale, checkErr := s.referencesDrifted(ctx, requesterShift, peerShift); checkErr != nil {
		return nil, checkErr
	} else if stale {
		return nil, s.rejectStale(ctx, request, actor)
	}

	params := repository.ApprovePairParams{
		RequestID:         request.ID,
		RequesterOverride: interchangeOverride(request, requesterShift, peerShift),
		PeerOverride:      interchangeOverride(request, peerShift, requesterShift),
	}
	if err := s.repo.ApprovePair(ctx, params); err != nil {
		switch {
		case errors.Is(err, repository.ErrRequestNotPending):
			return nil, appErrors.Clone(appErrors.ErrConflict, "interchange request was already resolved")
		case errors.Is(err, repository.ErrSlotOccupied):
			// A competing override committed between validation and the pair
			// write; nothing was materialised.
			return nil, s.rejectStale(ctx, request, actor)
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply interchange pair")
		}
	}

	s.metrics.RecordOverrideTransition(string(models.OverrideKindInterchange), "applied")
	s.events.Emit(Event{
		Type:       EventOverrideApplied,
		NurseIDs:   []string{request.RequesterID, request.PeerID},
		Resource:   ResourceInterchange,
		ResourceID: request.ID,
	})
	return s.finishResolution(ctx, request.ID, actor, "approved")
}

// rejectStale drives a stale approval to REJECTED so the request is never
// left dangling in PENDING, then surfaces StaleReference to the caller.
func (s *InterchangeService) rejectStale(ctx context.Context, request *models.InterchangeRequest, actor *models.JWTClaims) error {
	note := staleReferenceNote
	err := s.repo.Resolve(ctx, repository.ResolveParams{
		ID:           request.ID,
		Status:       models.InterchangeStatusRejected,
		PeerDecision: models.PeerDecisionApproved,
		Note:         &note,
	})
	if err != nil {
		if errors.Is(err, repository.ErrRequestNotPending) {
			return appErrors.Clone(appErrors.ErrConflict, "interchange request was already resolved")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject stale interchange request")
	}
	if _, err := s.finishResolution(ctx, request.ID, actor, "stale"); err != nil {
		s.logger.Warn("failed to record stale interchange resolution", zap.String("request_id", request.ID), zap.Error(err))
	}
	return appErrors.Clone(appErrors.ErrStaleReference, "a referenced shift changed after the proposal")
}

// referencesDrifted reports whether either shift reference was modified since
// the proposal: a superseded base shift or any unresolved override on either
// slot counts as drift.
func (s *InterchangeService) referencesDrifted(ctx context.Context, requesterShift, peerShift *models.ShiftAssignment) (bool, error) {
	for _, shift := range []*models.ShiftAssignment{requesterShift, peerShift} {
		if shift.Status == models.ShiftStatusApprovedChange {
			return true, nil
		}
		if _, err := s.overrides.FindUnresolvedBySlot(ctx, shift.NurseID, shift.ShiftDate); err == nil {
			return true, nil
		} else if !errors.Is(err, sql.ErrNoRows) {
			return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check slot")
		}
	}
	return false, nil
}

// Withdraw cancels a pending proposal. Only the requester may withdraw, and
// only while the peer has not acted; an approval that commits first wins the
// race.
func (s *InterchangeService) Withdraw(ctx context.Context, id string, actor *models.JWTClaims) (*models.InterchangeRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	request, err := s.getByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.RequesterID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the requester may withdraw")
	}
	if request.Resolved() {
		return nil, appErrors.Clone(appErrors.ErrConflict, "the peer already acted on this request")
	}

	err = s.repo.Resolve(ctx, repository.ResolveParams{
		ID:           request.ID,
		Status:       models.InterchangeStatusWithdrawn,
		PeerDecision: models.PeerDecisionPending,
	})
	if err != nil {
		if errors.Is(err, repository.ErrRequestNotPending) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "the peer already acted on this request")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to withdraw interchange request")
	}

	emitAudit(ctx, s.audit, s.logger, &models.AuditEntry{
		ActorID:     &actor.UserID,
		Action:      models.AuditActionInterchangeWithdraw,
		Resource:    ResourceInterchange,
		ResourceID:  &request.ID,
		PriorStatus: statusPtr(models.InterchangeStatusPending),
		NewStatus:   statusPtr(models.InterchangeStatusWithdrawn),
	})
	s.metrics.RecordInterchangeResolution("withdrawn")
	s.events.Emit(Event{
		Type:       EventInterchangeResolved,
		NurseIDs:   []string{request.RequesterID, request.PeerID},
		Resource:   ResourceInterchange,
		ResourceID: request.ID,
		Payload:    map[string]interface{}{"status": models.InterchangeStatusWithdrawn},
	})
	return s.getByID(ctx, id)
}

// Get returns a request visible to its participants and supervisors.
func (s *InterchangeService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.InterchangeRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	request, err := s.getByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.RequesterID != actor.UserID && request.PeerID != actor.UserID &&
		actor.Role != models.RoleSupervisor && actor.Role != models.RoleAdmin {
		return nil, appErrors.ErrForbidden
	}
	return request, nil
}

// Outgoing lists requests the nurse proposed.
func (s *InterchangeService) Outgoing(ctx context.Context, actor *models.JWTClaims) ([]models.InterchangeRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	requests, err := s.repo.List(ctx, models.InterchangeFilter{RequesterID: actor.UserID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list outgoing requests")
	}
	return requests, nil
}

// Incoming lists requests naming the nurse as peer.
func (s *InterchangeService) Incoming(ctx context.Context, actor *models.JWTClaims) ([]models.InterchangeRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	requests, err := s.repo.List(ctx, models.InterchangeFilter{PeerID: actor.UserID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list incoming requests")
	}
	return requests, nil
}

func (s *InterchangeService) finishResolution(ctx context.Context, id string, actor *models.JWTClaims, outcome string) (*models.InterchangeRequest, error) {
	resolved, err := s.getByID(ctx, id)
	if err != nil {
		return nil, err
	}
	emitAudit(ctx, s.audit, s.logger, &models.AuditEntry{
		ActorID:     &actor.UserID,
		Action:      models.AuditActionInterchangeResolve,
		Resource:    ResourceInterchange,
		ResourceID:  &resolved.ID,
		PriorStatus: statusPtr(models.InterchangeStatusPending),
		NewStatus:   statusPtr(resolved.Status),
		Note:        resolved.ResolutionNote,
	})
	s.metrics.RecordInterchangeResolution(outcome)
	s.events.Emit(Event{
		Type:       EventInterchangeResolved,
		NurseIDs:   []string{resolved.RequesterID, resolved.PeerID},
		Resource:   ResourceInterchange,
		ResourceID: resolved.ID,
		Payload:    map[string]interface{}{"status": resolved.Status},
	})
	return resolved, nil
}

func (s *InterchangeService) getByID(ctx context.Context, id string) (*models.InterchangeRequest, error) {
	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load interchange request")
	}
	return request, nil
}

func (s *InterchangeService) loadShift(ctx context.Context, id string) (*models.ShiftAssignment, error) {
	shift, err := s.shifts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "referenced shift not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load shift")
	}
	return shift, nil
}

// interchangeOverride builds the applied override for one side of a swap:
// the owner keeps their date but takes on the other party's shift shape.
func interchangeOverride(request *models.InterchangeRequest, own, other *models.ShiftAssignment) *models.ScheduleOverride {
	return &models.ScheduleOverride{
		NurseID:             own.NurseID,
		ShiftDate:           own.ShiftDate,
		Kind:                models.OverrideKindInterchange,
		NewShiftType:        &other.ShiftType,
		NewStartTime:        &other.StartTime,
		NewEndTime:          &other.EndTime,
		Reason:              request.Reason,
		LinkedInterchangeID: &request.ID,
		RequestedBy:         request.RequesterID,
		ReviewedBy:          &request.PeerID,
	}
}
