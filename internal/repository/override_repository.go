package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/wardline/roster-api/internal/models"
)

// ErrSlotOccupied signals that an unresolved override already holds the
// (nurse, date) slot a write targeted.
var ErrSlotOccupied = errors.New("slot already holds an unresolved override")

// OverrideRepository persists schedule exception records.
type OverrideRepository struct {
	db *sqlx.DB
}

// NewOverrideRepository constructs the repository.
func NewOverrideRepository(db *sqlx.DB) *OverrideRepository {
	return &OverrideRepository{db: db}
}

const overrideColumns = `id, nurse_id, shift_date, kind, new_shift_type, new_start_time, new_end_time,
	reason, status, linked_interchange_id, requested_by, reviewed_by, resolution_note, created_at, resolved_at`

// Create inserts a new override. The insert is guarded by the one-unresolved-
// override-per-slot invariant: when a PENDING or APPLIED row already occupies
// the slot, no row is written and ErrSlotOccupied is returned.
func (r *OverrideRepository) Create(ctx context.Context, override *models.ScheduleOverride) error {
	prepareOverride(override)
	return insertOverrideGuarded(ctx, r.db, override)
}

// insertOverrideGuarded performs the invariant-guarded insert on any
// executor so the interchange pair write can reuse it inside a transaction.
func insertOverrideGuarded(ctx context.Context, exec sqlx.ExtContext, o *models.ScheduleOverride) error {
	const query = `INSERT INTO schedule_overrides
	(id, nurse_id, shift_date, kind, new_shift_type, new_start_time, new_end_time,
	 reason, status, linked_interchange_id, requested_by, reviewed_by, resolution_note, created_at, resolved_at)
	SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
	WHERE NOT EXISTS (
		SELECT 1 FROM schedule_overrides
		WHERE nurse_id = $2 AND shift_date = $3 AND status IN ($16, $17)
	)`
	result, err := exec.ExecContext(ctx, query,
		o.ID, o.NurseID, o.ShiftDate, o.Kind, o.NewShiftType, o.NewStartTime, o.NewEndTime,
		o.Reason, o.Status, o.LinkedInterchangeID, o.RequestedBy, o.ReviewedBy, o.ResolutionNote,
		o.CreatedAt, o.ResolvedAt,
		models.OverrideStatusPending, models.OverrideStatusApplied)
	if err != nil {
		return fmt.Errorf("create override: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check override insert rows: %w", err)
	}
	if rows == 0 {
		return ErrSlotOccupied
	}
	return nil
}

func prepareOverride(o *models.ScheduleOverride) {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.Status == "" {
		o.Status = models.OverrideStatusPending
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
}

// GetByID fetches an override by identifier.
func (r *OverrideRepository) GetByID(ctx context.Context, id string) (*models.ScheduleOverride, error) {
	query := fmt.Sprintf(`SELECT %s FROM schedule_overrides WHERE id = $1`, overrideColumns)
	var override models.ScheduleOverride
	if err := r.db.GetContext(ctx, &override, query, id); err != nil {
		return nil, err
	}
	return &override, nil
}

// FindUnresolvedBySlot returns the PENDING or APPLIED override occupying the
// slot, or sql.ErrNoRows when the slot is free.
func (r *OverrideRepository) FindUnresolvedBySlot(ctx context.Context, nurseID string, date time.Time) (*models.ScheduleOverride, error) {
	query := fmt.Sprintf(`SELECT %s FROM schedule_overrides
	WHERE nurse_id = $1 AND shift_date = $2 AND status IN ($3, $4)`, overrideColumns)
	var override models.ScheduleOverride
	err := r.db.GetContext(ctx, &override, query, nurseID, date,
		models.OverrideStatusPending, models.OverrideStatusApplied)
	if err != nil {
		return nil, err
	}
	return &override, nil
}

// ListAppliedForRange returns applied overrides for a nurse within the date
// range, the reconciler's second input.
func (r *OverrideRepository) ListAppliedForRange(ctx context.Context, nurseID string, from, to time.Time) ([]models.ScheduleOverride, error) {
	query := fmt.Sprintf(`SELECT %s FROM schedule_overrides
	WHERE nurse_id = $1 AND shift_date >= $2 AND shift_date <= $3 AND status = $4
	ORDER BY shift_date ASC, id ASC`, overrideColumns)
	var overrides []models.ScheduleOverride
	if err := r.db.SelectContext(ctx, &overrides, query, nurseID, from, to, models.OverrideStatusApplied); err != nil {
		return nil, fmt.Errorf("list applied overrides: %w", err)
	}
	return overrides, nil
}

// List returns overrides matching the filter (latest first).
func (r *OverrideRepository) List(ctx context.Context, filter models.OverrideFilter) ([]models.ScheduleOverride, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 6)
	builder.WriteString(fmt.Sprintf(`SELECT %s FROM schedule_overrides`, overrideColumns))

	conditions := make([]string, 0, 4)
	if filter.NurseID != "" {
		args = append(args, filter.NurseID)
		conditions = append(conditions, fmt.Sprintf("nurse_id = $%d", len(args)))
	}
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		conditions = append(conditions, fmt.Sprintf("shift_date >= $%d", len(args)))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		conditions = append(conditions, fmt.Sprintf("shift_date <= $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY created_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var overrides []models.ScheduleOverride
	if err := r.db.SelectContext(ctx, &overrides, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list overrides: %w", err)
	}
	return overrides, nil
}

// ApproveAndApply flips a PENDING override to APPLIED and forces the base
// shift into APPROVED_CHANGE in the same transaction, so readers never see
// an applied override next to a still-acknowledgeable shift. Returns
// sql.ErrNoRows when the override is not PENDING; the caller decides whether
// that is an idempotent no-op or a conflict.
func (r *OverrideRepository) ApproveAndApply(ctx context.Context, id, reviewerID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin approve override: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const update = `UPDATE schedule_overrides SET status = $2, reviewed_by = $3, resolved_at = $4
	WHERE id = $1 AND status = $5
	RETURNING nurse_id, shift_date`
	var slot struct {
		NurseID   string    `db:"nurse_id"`
		ShiftDate time.Time `db:"shift_date"`
	}
	err = tx.GetContext(ctx, &slot, update, id,
		models.OverrideStatusApplied, reviewerID, time.Now().UTC(), models.OverrideStatusPending)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return fmt.Errorf("approve override: %w", err)
	}

	if err = markShiftApprovedChange(ctx, tx, slot.NurseID, slot.ShiftDate); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit approve override: %w", err)
	}
	return nil
}

// Reject moves a PENDING override to its terminal REJECTED state. Returns
// sql.ErrNoRows when the override was already resolved.
func (r *OverrideRepository) Reject(ctx context.Context, id, reviewerID string, note *string) error {
	const query = `UPDATE schedule_overrides SET status = $2, reviewed_by = $3, resolution_note = $4, resolved_at = $5
	WHERE id = $1 AND status = $6`
	result, err := r.db.ExecContext(ctx, query, id,
		models.OverrideStatusRejected, reviewerID, note, time.Now().UTC(), models.OverrideStatusPending)
	if err != nil {
		return fmt.Errorf("reject override: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check override reject rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
