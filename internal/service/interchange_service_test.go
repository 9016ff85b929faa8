package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wardline/roster-api/internal/dto"
	"github.com/wardline/roster-api/internal/models"
	"github.com/wardline/roster-api/internal/repository"
	appErrors "github.com/wardline/roster-api/pkg/errors"
)

type interchangeRepoStub struct {
	requests map[string]*models.InterchangeRequest
	pairs    [][2]*models.ScheduleOverride
	pairErr  error
	filter   models.InterchangeFilter
	seq      int
}

func newInterchangeRepoStub() *interchangeRepoStub {
	return &interchangeRepoStub{requests: make(map[string]*models.InterchangeRequest)}
}

func (r *interchangeRepoStub) Create(ctx context.Context, req *models.InterchangeRequest) error {
	r.seq++
	req.ID = fmt.Sprintf("icr-%d", r.seq)
	req.CreatedAt = time.Now().UTC()
	copy := *req
	r.requests[req.ID] = &copy
	return nil
}

func (r *interchangeRepoStub) GetByID(ctx context.Context, id string) (*models.InterchangeRequest, error) {
	if req, ok := r.requests[id]; ok {
		copy := *req
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (r *interchangeRepoStub) List(ctx context.Context, filter models.InterchangeFilter) ([]models.InterchangeRequest, error) {
	r.filter = filter
	result := make([]models.InterchangeRequest, 0, len(r.requests))
	for _, req := range r.requests {
		result = append(result, *req)
	}
	return result, nil
}

func (r *interchangeRepoStub) Resolve(ctx context.Context, params repository.ResolveParams) error {
	req, ok := r.requests[params.ID]
	if !ok || req.Status != models.InterchangeStatusPending {
		return repository.ErrRequestNotPending
	}
	now := time.Now().UTC()
	req.Status = params.Status
	req.PeerDecision = params.PeerDecision
	req.ResolutionNote = params.Note
	req.ResolvedAt = &now
	return nil
}

func (r *interchangeRepoStub) ApprovePair(ctx context.Context, params repository.ApprovePairParams) error {
	req, ok := r.requests[params.RequestID]
	if !ok || req.Status != models.InterchangeStatusPending {
		return repository.ErrRequestNotPending
	}
	if r.pairErr != nil {
		return r.pairErr
	}
	now := time.Now().UTC()
	req.Status = models.InterchangeStatusApproved
	req.PeerDecision = models.PeerDecisionApproved
	req.ResolvedAt = &now
	for _, override := range []*models.ScheduleOverride{params.RequesterOverride, params.PeerOverride} {
		r.seq++
		override.ID = fmt.Sprintf("ovr-%d", r.seq)
		override.Status = models.OverrideStatusApplied
		override.ResolvedAt = &now
	}
	r.pairs = append(r.pairs, [2]*models.ScheduleOverride{params.RequesterOverride, params.PeerOverride})
	return nil
}

type shiftReaderStub struct {
	shifts map[string]*models.ShiftAssignment
}

func (s *shiftReaderStub) GetByID(ctx context.Context, id string) (*models.ShiftAssignment, error) {
	if shift, ok := s.shifts[id]; ok {
		copy := *shift
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

type slotReaderStub struct {
	slots map[models.SlotKey]*models.ScheduleOverride
}

func (s *slotReaderStub) FindUnresolvedBySlot(ctx context.Context, nurseID string, date time.Time) (*models.ScheduleOverride, error) {
	if override, ok := s.slots[models.SlotKey{NurseID: nurseID, Date: date.Format(models.SlotDateLayout)}]; ok {
		copy := *override
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

type rosterStub struct {
	nurses map[string]*models.Nurse
}

func (r *rosterStub) FindByID(ctx context.Context, id string) (*models.Nurse, error) {
	if nurse, ok := r.nurses[id]; ok {
		copy := *nurse
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

type swapFixture struct {
	repo   *interchangeRepoStub
	shifts *shiftReaderStub
	slots  *slotReaderStub
	roster *rosterStub
	audit  *auditSinkStub
	svc    *InterchangeService
}

// newSwapFixture sets up nurse-1 holding a Morning shift on 2025-06-01 and
// nurse-2 holding a Night shift on 2025-06-02, both in ward-1.
func newSwapFixture() *swapFixture {
	f := &swapFixture{
		repo: newInterchangeRepoStub(),
		shifts: &shiftReaderStub{shifts: map[string]*models.ShiftAssignment{
			"shift-1": {ID: "shift-1", NurseID: "nurse-1", ShiftDate: day("2025-06-01"), ShiftType: "Morning", StartTime: "07:00", EndTime: "15:00", Status: models.ShiftStatusScheduled},
			"shift-2": {ID: "shift-2", NurseID: "nurse-2", ShiftDate: day("2025-06-02"), ShiftType: "Night", StartTime: "19:00", EndTime: "07:00", Status: models.ShiftStatusScheduled},
		}},
		slots: &slotReaderStub{slots: make(map[models.SlotKey]*models.ScheduleOverride)},
		roster: &rosterStub{nurses: map[string]*models.Nurse{
			"nurse-1": {ID: "nurse-1", WardID: "ward-1", Active: true},
			"nurse-2": {ID: "nurse-2", WardID: "ward-1", Active: true},
		}},
		audit: &auditSinkStub{},
	}
	f.svc = NewInterchangeService(f.repo, f.shifts, f.slots, f.roster, f.audit, nil, nil, nil, nil)
	return f
}

func (f *swapFixture) propose(t *testing.T) *models.InterchangeRequest {
	t.Helper()
	request, err := f.svc.Propose(context.Background(), dto.ProposeInterchangeRequest{
		RequesterShiftID: "shift-1",
		PeerID:           "nurse-2",
		PeerShiftID:      "shift-2",
		Reason:           "childcare clash",
	}, nurseClaims("nurse-1"))
	require.NoError(t, err)
	return request
}

func TestInterchangeProposeCreatesPendingRequest(t *testing.T) {
	f := newSwapFixture()
	request := f.propose(t)

	require.Equal(t, models.InterchangeStatusPending, request.Status)
	require.Equal(t, models.PeerDecisionPending, request.PeerDecision)
	require.Equal(t, "nurse-1", request.RequesterID)
	require.Equal(t, "nurse-2", request.PeerID)
	require.Len(t, f.audit.entries, 1)
	require.Equal(t, models.AuditActionInterchangePropose, f.audit.entries[0].Action)
}

func TestInterchangeProposeRejectsSelfSwap(t *testing.T) {
	f := newSwapFixture()
	_, err := f.svc.Propose(context.Background(), dto.ProposeInterchangeRequest{
		RequesterShiftID: "shift-1",
		PeerID:           "nurse-1",
		PeerShiftID:      "shift-2",
		Reason:           "test",
	}, nurseClaims("nurse-1"))
	require.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestInterchangeProposeRequiresShiftOwnership(t *testing.T) {
	f := newSwapFixture()
	_, err := f.svc.Propose(context.Background(), dto.ProposeInterchangeRequest{
		RequesterShiftID: "shift-2",
		PeerID:           "nurse-2",
		PeerShiftID:      "shift-1",
		Reason:           "test",
	}, nurseClaims("nurse-1"))
	require.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestInterchangeProposePeerShiftMustBelongToPeer(t *testing.T) {
	f := newSwapFixture()
	f.shifts.shifts["shift-3"] = &models.ShiftAssignment{ID: "shift-3", NurseID: "nurse-3", ShiftDate: day("2025-06-03"), Status: models.ShiftStatusScheduled}

	_, err := f.svc.Propose(context.Background(), dto.ProposeInterchangeRequest{
		RequesterShiftID: "shift-1",
		PeerID:           "nurse-2",
		PeerShiftID:      "shift-3",
		Reason:           "test",
	}, nurseClaims("nurse-1"))
	require.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestInterchangeProposeRejectsInactivePeer(t *testing.T) {
	f := newSwapFixture()
	f.roster.nurses["nurse-2"].Active = false

	_, err := f.svc.Propose(context.Background(), dto.ProposeInterchangeRequest{
		RequesterShiftID: "shift-1",
		PeerID:           "nurse-2",
		PeerShiftID:      "shift-2",
		Reason:           "test",
	}, nurseClaims("nurse-1"))
	require.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestInterchangeProposeRejectsPeerOutsideWard(t *testing.T) {
	f := newSwapFixture()
	f.roster.nurses["nurse-2"].WardID = "ward-2"

	_, err := f.svc.Propose(context.Background(), dto.ProposeInterchangeRequest{
		RequesterShiftID: "shift-1",
		PeerID:           "nurse-2",
		PeerShiftID:      "shift-2",
		Reason:           "test",
	}, nurseClaims("nurse-1"))
	require.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestInterchangeProposeRejectsContestedRequesterSlot(t *testing.T) {
	f := newSwapFixture()
	f.slots.slots[models.SlotKey{NurseID: "nurse-1", Date: "2025-06-01"}] = &models.ScheduleOverride{
		ID: "ovr-9", Status: models.OverrideStatusPending,
	}

	_, err := f.svc.Propose(context.Background(), dto.ProposeInterchangeRequest{
		RequesterShiftID: "shift-1",
		PeerID:           "nurse-2",
		PeerShiftID:      "shift-2",
		Reason:           "test",
	}, nurseClaims("nurse-1"))
	require.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestInterchangeProposeRejectsSupersededShift(t *testing.T) {
	f := newSwapFixture()
	f.shifts.shifts["shift-1"].Status = models.ShiftStatusApprovedChange

	_, err := f.svc.Propose(context.Background(), dto.ProposeInterchangeRequest{
		RequesterShiftID: "shift-1",
		PeerID:           "nurse-2",
		PeerShiftID:      "shift-2",
		Reason:           "test",
	}, nurseClaims("nurse-1"))
	require.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestInterchangeRespondOnlyPeerMayAct(t *testing.T) {
	f := newSwapFixture()
	request := f.propose(t)

	_, err := f.svc.Respond(context.Background(), request.ID, dto.RespondInterchangeRequest{Action: dto.InterchangeActionApprove}, nurseClaims("nurse-3"))
	require.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = f.svc.Respond(context.Background(), request.ID, dto.RespondInterchangeRequest{Action: dto.InterchangeActionApprove}, nurseClaims("nurse-1"))
	require.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestInterchangeRespondReject(t *testing.T) {
	f := newSwapFixture()
	request := f.propose(t)

	resolved, err := f.svc.Respond(context.Background(), request.ID, dto.RespondInterchangeRequest{
		Action: dto.InterchangeActionReject,
		Note:   "cannot cover nights",
	}, nurseClaims("nurse-2"))
	require.NoError(t, err)
	require.Equal(t, models.InterchangeStatusRejected, resolved.Status)
	require.Equal(t, models.PeerDecisionRejected, resolved.PeerDecision)
	require.Equal(t, "cannot cover nights", *resolved.ResolutionNote)
	require.Empty(t, f.repo.pairs)
}

func TestInterchangeRespondApproveWritesMirroredPair(t *testing.T) {
	f := newSwapFixture()
	request := f.propose(t)

	resolved, err := f.svc.Respond(context.Background(), request.ID, dto.RespondInterchangeRequest{
		Action: dto.InterchangeActionApprove,
	}, nurseClaims("nurse-2"))
	require.NoError(t, err)
	require.Equal(t, models.InterchangeStatusApproved, resolved.Status)
	require.Equal(t, models.PeerDecisionApproved, resolved.PeerDecision)

	require.Len(t, f.repo.pairs, 1)
	requesterSide := f.repo.pairs[0][0]
	peerSide := f.repo.pairs[0][1]

	// Each nurse keeps their own date but takes on the other party's shape.
	require.Equal(t, "nurse-1", requesterSide.NurseID)
	require.Equal(t, day("2025-06-01"), requesterSide.ShiftDate)
	require.Equal(t, "Night", *requesterSide.NewShiftType)
	require.Equal(t, "19:00", *requesterSide.NewStartTime)

	require.Equal(t, "nurse-2", peerSide.NurseID)
	require.Equal(t, day("2025-06-02"), peerSide.ShiftDate)
	require.Equal(t, "Morning", *peerSide.NewShiftType)
	require.Equal(t, "07:00", *peerSide.NewStartTime)

	require.Equal(t, models.OverrideKindInterchange, requesterSide.Kind)
	require.Equal(t, models.OverrideKindInterchange, peerSide.Kind)
	require.Equal(t, request.ID, *requesterSide.LinkedInterchangeID)
	require.Equal(t, request.ID, *peerSide.LinkedInterchangeID)
	require.Equal(t, models.OverrideStatusApplied, requesterSide.Status)
	require.Equal(t, models.OverrideStatusApplied, peerSide.Status)
}

func TestInterchangeRespondApproveRejectsStaleReference(t *testing.T) {
	f := newSwapFixture()
	request := f.propose(t)

	// An unresolved override landed on the peer's slot after the proposal.
	f.slots.slots[models.SlotKey{NurseID: "nurse-2", Date: "2025-06-02"}] = &models.ScheduleOverride{
		ID: "ovr-9", Status: models.OverrideStatusApplied,
	}

	_, err := f.svc.Respond(context.Background(), request.ID, dto.RespondInterchangeRequest{
		Action: dto.InterchangeActionApprove,
	}, nurseClaims("nurse-2"))
	require.ErrorIs(t, err, appErrors.ErrStaleReference)

	stored := f.repo.requests[request.ID]
	require.Equal(t, models.InterchangeStatusRejected, stored.Status)
	require.NotNil(t, stored.ResolutionNote)
	require.Contains(t, *stored.ResolutionNote, "rejected by system")
	require.Empty(t, f.repo.pairs)
}

func TestInterchangeRespondApproveStaleOnSupersededShift(t *testing.T) {
	f := newSwapFixture()
	request := f.propose(t)
	f.shifts.shifts["shift-2"].Status = models.ShiftStatusApprovedChange

	_, err := f.svc.Respond(context.Background(), request.ID, dto.RespondInterchangeRequest{
		Action: dto.InterchangeActionApprove,
	}, nurseClaims("nurse-2"))
	require.ErrorIs(t, err, appErrors.ErrStaleReference)
	require.Empty(t, f.repo.pairs)
}

func TestInterchangeRespondApproveSlotRaceRejectsStale(t *testing.T) {
	f := newSwapFixture()
	request := f.propose(t)
	f.repo.pairErr = repository.ErrSlotOccupied

	_, err := f.svc.Respond(context.Background(), request.ID, dto.RespondInterchangeRequest{
		Action: dto.InterchangeActionApprove,
	}, nurseClaims("nurse-2"))
	require.ErrorIs(t, err, appErrors.ErrStaleReference)
	require.Equal(t, models.InterchangeStatusRejected, f.repo.requests[request.ID].Status)
}

func TestInterchangeRespondTwiceConflicts(t *testing.T) {
	f := newSwapFixture()
	request := f.propose(t)

	_, err := f.svc.Respond(context.Background(), request.ID, dto.RespondInterchangeRequest{Action: dto.InterchangeActionReject}, nurseClaims("nurse-2"))
	require.NoError(t, err)

	_, err = f.svc.Respond(context.Background(), request.ID, dto.RespondInterchangeRequest{Action: dto.InterchangeActionApprove}, nurseClaims("nurse-2"))
	require.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestInterchangeWithdraw(t *testing.T) {
	f := newSwapFixture()
	request := f.propose(t)

	_, err := f.svc.Withdraw(context.Background(), request.ID, nurseClaims("nurse-2"))
	require.ErrorIs(t, err, appErrors.ErrForbidden)

	withdrawn, err := f.svc.Withdraw(context.Background(), request.ID, nurseClaims("nurse-1"))
	require.NoError(t, err)
	require.Equal(t, models.InterchangeStatusWithdrawn, withdrawn.Status)
	require.Equal(t, models.PeerDecisionPending, withdrawn.PeerDecision)
}

func TestInterchangeWithdrawAfterPeerActedConflicts(t *testing.T) {
	f := newSwapFixture()
	request := f.propose(t)

	_, err := f.svc.Respond(context.Background(), request.ID, dto.RespondInterchangeRequest{Action: dto.InterchangeActionApprove}, nurseClaims("nurse-2"))
	require.NoError(t, err)

	_, err = f.svc.Withdraw(context.Background(), request.ID, nurseClaims("nurse-1"))
	require.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestInterchangeGetVisibility(t *testing.T) {
	f := newSwapFixture()
	request := f.propose(t)

	_, err := f.svc.Get(context.Background(), request.ID, nurseClaims("nurse-1"))
	require.NoError(t, err)
	_, err = f.svc.Get(context.Background(), request.ID, nurseClaims("nurse-2"))
	require.NoError(t, err)
	_, err = f.svc.Get(context.Background(), request.ID, supervisorClaims("sup-1"))
	require.NoError(t, err)
	_, err = f.svc.Get(context.Background(), request.ID, nurseClaims("nurse-3"))
	require.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestInterchangeListScopes(t *testing.T) {
	f := newSwapFixture()
	f.propose(t)

	_, err := f.svc.Outgoing(context.Background(), nurseClaims("nurse-1"))
	require.NoError(t, err)
	require.Equal(t, "nurse-1", f.repo.filter.RequesterID)

	_, err = f.svc.Incoming(context.Background(), nurseClaims("nurse-2"))
	require.NoError(t, err)
	require.Equal(t, "nurse-2", f.repo.filter.PeerID)
}
