package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/wardline/roster-api/internal/models"
)

// ShiftRepository persists base shift assignments. Rows are created by the
// scheduling import; this repository only reads them and advances the
// acknowledgment lifecycle.
type ShiftRepository struct {
	db *sqlx.DB
}

// NewShiftRepository constructs the repository.
func NewShiftRepository(db *sqlx.DB) *ShiftRepository {
	return &ShiftRepository{db: db}
}

const shiftColumns = `id, nurse_id, shift_date, shift_type, start_time, end_time, status, created_at, updated_at`

// ListForNurse returns assignments in the date range, date-ascending.
func (r *ShiftRepository) ListForNurse(ctx context.Context, filter models.ShiftFilter) ([]models.ShiftAssignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM shift_assignments
	WHERE nurse_id = $1 AND shift_date >= $2 AND shift_date <= $3
	ORDER BY shift_date ASC, id ASC`, shiftColumns)

	var shifts []models.ShiftAssignment
	if err := r.db.SelectContext(ctx, &shifts, query, filter.NurseID, filter.From, filter.To); err != nil {
		return nil, fmt.Errorf("list shifts: %w", err)
	}
	return shifts, nil
}

// GetByID fetches a single assignment.
func (r *ShiftRepository) GetByID(ctx context.Context, id string) (*models.ShiftAssignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM shift_assignments WHERE id = $1`, shiftColumns)
	var shift models.ShiftAssignment
	if err := r.db.GetContext(ctx, &shift, query, id); err != nil {
		return nil, err
	}
	return &shift, nil
}

// Acknowledge advances SCHEDULED to ACKNOWLEDGED. The guard refuses slots
// holding an applied override, so superseded shifts are never acknowledgeable.
// Returns sql.ErrNoRows when the compare-and-swap does not land.
func (r *ShiftRepository) Acknowledge(ctx context.Context, id string) error {
	const query = `UPDATE shift_assignments SET status = $2, updated_at = $3
	WHERE id = $1 AND status = $4
	AND NOT EXISTS (
		SELECT 1 FROM schedule_overrides o
		WHERE o.nurse_id = shift_assignments.nurse_id
		AND o.shift_date = shift_assignments.shift_date
		AND o.status = $5
	)`
	result, err := r.db.ExecContext(ctx, query, id,
		models.ShiftStatusAcknowledged, time.Now().UTC(),
		models.ShiftStatusScheduled, models.OverrideStatusApplied)
	if err != nil {
		return fmt.Errorf("acknowledge shift: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check acknowledge rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountPendingAcknowledgments derives the pending acknowledgment count:
// SCHEDULED shifts whose slot carries no applied override. Nothing is stored;
// the count is recomputed on every call.
func (r *ShiftRepository) CountPendingAcknowledgments(ctx context.Context, nurseID string) (int, error) {
	const query = `SELECT COUNT(*) FROM shift_assignments s
	WHERE s.nurse_id = $1 AND s.status = $2
	AND NOT EXISTS (
		SELECT 1 FROM schedule_overrides o
		WHERE o.nurse_id = s.nurse_id AND o.shift_date = s.shift_date AND o.status = $3
	)`
	var count int
	if err := r.db.GetContext(ctx, &count, query, nurseID, models.ShiftStatusScheduled, models.OverrideStatusApplied); err != nil {
		return 0, fmt.Errorf("count pending acknowledgments: %w", err)
	}
	return count, nil
}

// markShiftApprovedChange forces the base assignment into its terminal
// APPROVED_CHANGE status once an override lands on the slot. Zero affected
// rows is not an error: time-off overrides may target dates without a base
// assignment.
func markShiftApprovedChange(ctx context.Context, exec sqlx.ExtContext, nurseID string, date time.Time) error {
	const query = `UPDATE shift_assignments SET status = $3, updated_at = $4
	WHERE nurse_id = $1 AND shift_date = $2 AND status <> $3`
	if _, err := exec.ExecContext(ctx, query, nurseID, date, models.ShiftStatusApprovedChange, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark shift approved_change: %w", err)
	}
	return nil
}
