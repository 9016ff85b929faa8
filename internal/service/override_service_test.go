package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wardline/roster-api/internal/dto"
	"github.com/wardline/roster-api/internal/models"
	"github.com/wardline/roster-api/internal/repository"
	appErrors "github.com/wardline/roster-api/pkg/errors"
)

type overrideRepoStub struct {
	overrides map[string]*models.ScheduleOverride
	filter    models.OverrideFilter
	seq       int
}

func newOverrideRepoStub() *overrideRepoStub {
	return &overrideRepoStub{overrides: make(map[string]*models.ScheduleOverride)}
}

func (r *overrideRepoStub) Create(ctx context.Context, override *models.ScheduleOverride) error {
	key := models.NewSlotKey(override.NurseID, override.ShiftDate)
	for _, existing := range r.overrides {
		if models.NewSlotKey(existing.NurseID, existing.ShiftDate) == key && existing.Unresolved() {
			return repository.ErrSlotOccupied
		}
	}
	r.seq++
	override.ID = fmt.Sprintf("ovr-%d", r.seq)
	if override.Status == "" {
		override.Status = models.OverrideStatusPending
	}
	copy := *override
	r.overrides[override.ID] = &copy
	return nil
}

func (r *overrideRepoStub) GetByID(ctx context.Context, id string) (*models.ScheduleOverride, error) {
	if override, ok := r.overrides[id]; ok {
		copy := *override
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (r *overrideRepoStub) List(ctx context.Context, filter models.OverrideFilter) ([]models.ScheduleOverride, error) {
	r.filter = filter
	result := make([]models.ScheduleOverride, 0, len(r.overrides))
	for _, override := range r.overrides {
		result = append(result, *override)
	}
	return result, nil
}

func (r *overrideRepoStub) ApproveAndApply(ctx context.Context, id, reviewerID string) error {
	override, ok := r.overrides[id]
	if !ok || override.Status != models.OverrideStatusPending {
		return sql.ErrNoRows
	}
	override.Status = models.OverrideStatusApplied
	override.ReviewedBy = &reviewerID
	return nil
}

func (r *overrideRepoStub) Reject(ctx context.Context, id, reviewerID string, note *string) error {
	override, ok := r.overrides[id]
	if !ok || override.Status != models.OverrideStatusPending {
		return sql.ErrNoRows
	}
	override.Status = models.OverrideStatusRejected
	override.ReviewedBy = &reviewerID
	override.ResolutionNote = note
	return nil
}

type auditSinkStub struct {
	entries []*models.AuditEntry
}

func (a *auditSinkStub) Create(ctx context.Context, entry *models.AuditEntry) error {
	a.entries = append(a.entries, entry)
	return nil
}

func nurseClaims(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleNurse, WardID: "ward-1"}
}

func supervisorClaims(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleSupervisor, WardID: "ward-1"}
}

func TestOverrideServiceCreatePending(t *testing.T) {
	repo := newOverrideRepoStub()
	audit := &auditSinkStub{}
	svc := NewOverrideService(repo, audit, nil, nil, nil, nil)

	override, err := svc.Create(context.Background(), dto.CreateOverrideRequest{
		Date:   "2025-06-01",
		Kind:   models.OverrideKindTimeOff,
		Reason: "medical appointment",
	}, nurseClaims("nurse-1"))
	require.NoError(t, err)
	require.Equal(t, models.OverrideStatusPending, override.Status)
	require.Equal(t, "nurse-1", override.NurseID)
	require.Equal(t, "nurse-1", override.RequestedBy)
	require.Len(t, audit.entries, 1)
	require.Equal(t, models.AuditActionOverrideCreate, audit.entries[0].Action)
}

func TestOverrideServiceCreateRejectsDuplicateSlot(t *testing.T) {
	repo := newOverrideRepoStub()
	svc := NewOverrideService(repo, nil, nil, nil, nil, nil)
	actor := nurseClaims("nurse-1")

	req := dto.CreateOverrideRequest{Date: "2025-06-01", Kind: models.OverrideKindTimeOff, Reason: "first"}
	_, err := svc.Create(context.Background(), req, actor)
	require.NoError(t, err)

	req.Kind = models.OverrideKindCancellation
	req.Reason = "second"
	_, err = svc.Create(context.Background(), req, actor)
	require.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestOverrideServiceCreateShiftChangeRequiresNewFields(t *testing.T) {
	svc := NewOverrideService(newOverrideRepoStub(), nil, nil, nil, nil, nil)

	_, err := svc.Create(context.Background(), dto.CreateOverrideRequest{
		Date:   "2025-06-01",
		Kind:   models.OverrideKindShiftChange,
		Reason: "cover evening",
	}, nurseClaims("nurse-1"))
	require.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestOverrideServiceCreateRefusesInterchangeKind(t *testing.T) {
	svc := NewOverrideService(newOverrideRepoStub(), nil, nil, nil, nil, nil)

	_, err := svc.Create(context.Background(), dto.CreateOverrideRequest{
		Date:   "2025-06-01",
		Kind:   models.OverrideKindInterchange,
		Reason: "swap",
	}, nurseClaims("nurse-1"))
	require.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestOverrideServiceCreateOnBehalfRequiresSupervisor(t *testing.T) {
	repo := newOverrideRepoStub()
	svc := NewOverrideService(repo, nil, nil, nil, nil, nil)

	req := dto.CreateOverrideRequest{
		NurseID: "nurse-2",
		Date:    "2025-06-01",
		Kind:    models.OverrideKindCancellation,
		Reason:  "double booked",
	}
	_, err := svc.Create(context.Background(), req, nurseClaims("nurse-1"))
	require.ErrorIs(t, err, appErrors.ErrForbidden)

	override, err := svc.Create(context.Background(), req, supervisorClaims("sup-1"))
	require.NoError(t, err)
	require.Equal(t, "nurse-2", override.NurseID)
	require.Equal(t, "sup-1", override.RequestedBy)
}

func TestOverrideServiceApprove(t *testing.T) {
	repo := newOverrideRepoStub()
	audit := &auditSinkStub{}
	svc := NewOverrideService(repo, audit, nil, nil, nil, nil)

	created, err := svc.Create(context.Background(), dto.CreateOverrideRequest{
		Date: "2025-06-01", Kind: models.OverrideKindTimeOff, Reason: "leave",
	}, nurseClaims("nurse-1"))
	require.NoError(t, err)

	applied, err := svc.Approve(context.Background(), created.ID, supervisorClaims("sup-1"))
	require.NoError(t, err)
	require.Equal(t, models.OverrideStatusApplied, applied.Status)
	require.Equal(t, "sup-1", *applied.ReviewedBy)
}

func TestOverrideServiceApproveIsIdempotent(t *testing.T) {
	repo := newOverrideRepoStub()
	svc := NewOverrideService(repo, nil, nil, nil, nil, nil)
	actor := supervisorClaims("sup-1")

	created, err := svc.Create(context.Background(), dto.CreateOverrideRequest{
		Date: "2025-06-01", Kind: models.OverrideKindTimeOff, Reason: "leave",
	}, nurseClaims("nurse-1"))
	require.NoError(t, err)

	first, err := svc.Approve(context.Background(), created.ID, actor)
	require.NoError(t, err)
	second, err := svc.Approve(context.Background(), created.ID, actor)
	require.NoError(t, err)
	require.Equal(t, first.Status, second.Status)
	require.Equal(t, models.OverrideStatusApplied, second.Status)
}

func TestOverrideServiceApproveRejectedConflicts(t *testing.T) {
	repo := newOverrideRepoStub()
	svc := NewOverrideService(repo, nil, nil, nil, nil, nil)

	created, err := svc.Create(context.Background(), dto.CreateOverrideRequest{
		Date: "2025-06-01", Kind: models.OverrideKindTimeOff, Reason: "leave",
	}, nurseClaims("nurse-1"))
	require.NoError(t, err)

	_, err = svc.Reject(context.Background(), created.ID, dto.RejectOverrideRequest{Note: "understaffed"}, supervisorClaims("sup-1"))
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), created.ID, supervisorClaims("sup-2"))
	require.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestOverrideServiceRejectIsTerminal(t *testing.T) {
	repo := newOverrideRepoStub()
	svc := NewOverrideService(repo, nil, nil, nil, nil, nil)

	created, err := svc.Create(context.Background(), dto.CreateOverrideRequest{
		Date: "2025-06-01", Kind: models.OverrideKindCancellation, Reason: "duplicate",
	}, nurseClaims("nurse-1"))
	require.NoError(t, err)

	rejected, err := svc.Reject(context.Background(), created.ID, dto.RejectOverrideRequest{Note: "keep the shift"}, supervisorClaims("sup-1"))
	require.NoError(t, err)
	require.Equal(t, models.OverrideStatusRejected, rejected.Status)
	require.Equal(t, "keep the shift", *rejected.ResolutionNote)

	_, err = svc.Reject(context.Background(), created.ID, dto.RejectOverrideRequest{}, supervisorClaims("sup-1"))
	require.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestOverrideServiceApproveUnknownID(t *testing.T) {
	svc := NewOverrideService(newOverrideRepoStub(), nil, nil, nil, nil, nil)

	_, err := svc.Approve(context.Background(), "missing", supervisorClaims("sup-1"))
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestOverrideServiceListScopesToActor(t *testing.T) {
	repo := newOverrideRepoStub()
	svc := NewOverrideService(repo, nil, nil, nil, nil, nil)

	_, err := svc.List(context.Background(), dto.OverrideQuery{}, nurseClaims("nurse-1"))
	require.NoError(t, err)
	require.Equal(t, "nurse-1", repo.filter.NurseID)

	_, err = svc.List(context.Background(), dto.OverrideQuery{NurseID: "nurse-2"}, nurseClaims("nurse-1"))
	require.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = svc.List(context.Background(), dto.OverrideQuery{NurseID: "nurse-2", Status: "pending,applied"}, supervisorClaims("sup-1"))
	require.NoError(t, err)
	require.Equal(t, "nurse-2", repo.filter.NurseID)
	require.Equal(t, []models.OverrideStatus{models.OverrideStatusPending, models.OverrideStatusApplied}, repo.filter.Status)
}
