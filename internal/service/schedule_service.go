package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/wardline/roster-api/internal/dto"
	"github.com/wardline/roster-api/internal/models"
	appErrors "github.com/wardline/roster-api/pkg/errors"
	"github.com/wardline/roster-api/pkg/export"
)

type shiftStore interface {
	ListForNurse(ctx context.Context, filter models.ShiftFilter) ([]models.ShiftAssignment, error)
	GetByID(ctx context.Context, id string) (*models.ShiftAssignment, error)
	Acknowledge(ctx context.Context, id string) error
	CountPendingAcknowledgments(ctx context.Context, nurseID string) (int, error)
}

type appliedOverrideReader interface {
	ListAppliedForRange(ctx context.Context, nurseID string, from, to time.Time) ([]models.ScheduleOverride, error)
}

// ScheduleRange bounds effective-view queries.
type ScheduleRange struct {
	DefaultDays int
	MaxDays     int
}

// ScheduleService serves the reconciled schedule and the acknowledgment
// lifecycle. External callers only ever see reconciler output, never the raw
// stores.
type ScheduleService struct {
	shifts    shiftStore
	overrides appliedOverrideReader
	audit     auditSink
	metrics   *MetricsService
	rng       ScheduleRange
	logger    *zap.Logger
}

// NewScheduleService instantiates ScheduleService.
func NewScheduleService(shifts shiftStore, overrides appliedOverrideReader, audit auditSink, metrics *MetricsService, rng ScheduleRange, logger *zap.Logger) *ScheduleService {
	if rng.DefaultDays <= 0 {
		rng.DefaultDays = 14
	}
	if rng.MaxDays <= 0 {
		rng.MaxDays = 92
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{shifts: shifts, overrides: overrides, audit: audit, metrics: metrics, rng: rng, logger: logger}
}

// View returns the effective schedule for a nurse over the requested range.
// Shifts and applied overrides are fetched fresh and merged on every call.
func (s *ScheduleService) View(ctx context.Context, nurseID string, query dto.ScheduleQuery) ([]models.EffectiveShift, error) {
	from, to, err := s.resolveRange(query)
	if err != nil {
		return nil, err
	}

	shifts, err := s.shifts.ListForNurse(ctx, models.ShiftFilter{NurseID: nurseID, From: from, To: to})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load shifts")
	}
	overrides, err := s.overrides.ListAppliedForRange(ctx, nurseID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load overrides")
	}

	start := time.Now()
	view := EffectiveView(shifts, overrides)
	s.metrics.ObserveReconcile(time.Since(start))
	return view, nil
}

// PendingAcknowledgments recomputes the derived acknowledgment counter.
func (s *ScheduleService) PendingAcknowledgments(ctx context.Context, nurseID string) (*dto.PendingAcknowledgments, error) {
	count, err := s.shifts.CountPendingAcknowledgments(ctx, nurseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count pending acknowledgments")
	}
	return &dto.PendingAcknowledgments{NurseID: nurseID, Count: count}, nil
}

// Acknowledge confirms a SCHEDULED shift for the acting nurse.
func (s *ScheduleService) Acknowledge(ctx context.Context, shiftID string, actor *models.JWTClaims) (*models.ShiftAssignment, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	shift, err := s.shifts.GetByID(ctx, shiftID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load shift")
	}
	if shift.NurseID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "shift belongs to another nurse")
	}

	priorStatus := shift.Status
	if err := s.shifts.Acknowledge(ctx, shiftID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if shift.Status != models.ShiftStatusScheduled {
				return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("shift is %s and cannot be acknowledged", shift.Status))
			}
			return nil, appErrors.Clone(appErrors.ErrConflict, "shift slot carries an applied override")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to acknowledge shift")
	}

	shift.Status = models.ShiftStatusAcknowledged
	emitAudit(ctx, s.audit, s.logger, &models.AuditEntry{
		ActorID:     &actor.UserID,
		Action:      models.AuditActionShiftAcknowledge,
		Resource:    ResourceShift,
		ResourceID:  &shift.ID,
		PriorStatus: statusPtr(priorStatus),
		NewStatus:   statusPtr(models.ShiftStatusAcknowledged),
	})
	return shift, nil
}

// Export renders the effective view as CSV or PDF.
func (s *ScheduleService) Export(ctx context.Context, actor *models.JWTClaims, query dto.ScheduleQuery, format string) ([]byte, string, error) {
	if actor == nil {
		return nil, "", appErrors.ErrUnauthorized
	}
	view, err := s.View(ctx, actor.UserID, query)
	if err != nil {
		return nil, "", err
	}

	doc := export.ScheduleDocument{
		NurseName: actor.FullName,
		From:      query.From,
		To:        query.To,
	}
	for _, row := range view {
		note := row.OverrideReason
		doc.Rows = append(doc.Rows, export.ScheduleRow{
			Date:      row.ShiftDate.Format(models.SlotDateLayout),
			ShiftType: row.ShiftType,
			StartTime: row.StartTime,
			EndTime:   row.EndTime,
			Status:    string(row.Status),
			Note:      note,
		})
	}

	switch format {
	case "csv", "":
		data, err := export.RenderCSV(doc)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return data, "text/csv", nil
	case "pdf":
		data, err := export.RenderPDF(doc)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return data, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

func (s *ScheduleService) resolveRange(query dto.ScheduleQuery) (time.Time, time.Time, error) {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	from := today
	to := today.AddDate(0, 0, s.rng.DefaultDays-1)

	var err error
	if query.From != "" {
		from, err = time.Parse(models.SlotDateLayout, query.From)
		if err != nil {
			return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "from must be yyyy-mm-dd")
		}
	}
	if query.To != "" {
		to, err = time.Parse(models.SlotDateLayout, query.To)
		if err != nil {
			return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "to must be yyyy-mm-dd")
		}
	} else if query.From != "" {
		to = from.AddDate(0, 0, s.rng.DefaultDays-1)
	}

	if to.Before(from) {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "to must not precede from")
	}
	if int(to.Sub(from).Hours()/24)+1 > s.rng.MaxDays {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("range exceeds %d days", s.rng.MaxDays))
	}
	return from, to, nil
}
