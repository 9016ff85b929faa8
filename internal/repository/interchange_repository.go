package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/wardline/roster-api/internal/models"
)

// ErrRequestNotPending signals that a compare-and-swap on an interchange
// request found it already resolved. Whichever of withdraw and respond
// commits first wins; the loser observes this error.
var ErrRequestNotPending = errors.New("interchange request is no longer pending")

// InterchangeRepository persists two-party swap requests and owns the atomic
// pair write performed on approval.
type InterchangeRepository struct {
	db *sqlx.DB
}

// NewInterchangeRepository constructs the repository.
func NewInterchangeRepository(db *sqlx.DB) *InterchangeRepository {
	return &InterchangeRepository{db: db}
}

const interchangeColumns = `id, requester_id, requester_shift_id, peer_id, peer_shift_id, reason,
	peer_decision, status, resolution_note, created_at, resolved_at`

// Create inserts a new proposal.
func (r *InterchangeRepository) Create(ctx context.Context, req *models.InterchangeRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Status == "" {
		req.Status = models.InterchangeStatusPending
	}
	if req.PeerDecision == "" {
		req.PeerDecision = models.PeerDecisionPending
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO interchange_requests
	(id, requester_id, requester_shift_id, peer_id, peer_shift_id, reason, peer_decision, status, resolution_note, created_at, resolved_at)
	VALUES (:id, :requester_id, :requester_shift_id, :peer_id, :peer_shift_id, :reason, :peer_decision, :status, :resolution_note, :created_at, :resolved_at)`
	if _, err := r.db.NamedExecContext(ctx, query, req); err != nil {
		return fmt.Errorf("create interchange request: %w", err)
	}
	return nil
}

// GetByID fetches a request by identifier.
func (r *InterchangeRepository) GetByID(ctx context.Context, id string) (*models.InterchangeRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM interchange_requests WHERE id = $1`, interchangeColumns)
	var req models.InterchangeRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		return nil, err
	}
	return &req, nil
}

// List returns requests matching the filter (latest first).
func (r *InterchangeRepository) List(ctx context.Context, filter models.InterchangeFilter) ([]models.InterchangeRequest, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 4)
	builder.WriteString(fmt.Sprintf(`SELECT %s FROM interchange_requests`, interchangeColumns))

	conditions := make([]string, 0, 3)
	if filter.RequesterID != "" {
		args = append(args, filter.RequesterID)
		conditions = append(conditions, fmt.Sprintf("requester_id = $%d", len(args)))
	}
	if filter.PeerID != "" {
		args = append(args, filter.PeerID)
		conditions = append(conditions, fmt.Sprintf("peer_id = $%d", len(args)))
	}
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
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

	var requests []models.InterchangeRequest
	if err := r.db.SelectContext(ctx, &requests, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list interchange requests: %w", err)
	}
	return requests, nil
}

// ResolveParams carries a terminal transition for a pending request.
type ResolveParams struct {
	ID           string
	Status       models.InterchangeStatus
	PeerDecision models.PeerDecision
	Note         *string
}

// Resolve compare-and-swaps a PENDING request into a terminal state. Used for
// peer rejection, requester withdrawal and the system rejection recorded when
// an approval hits a stale reference. Returns ErrRequestNotPending when the
// request was already resolved.
func (r *InterchangeRepository) Resolve(ctx context.Context, params ResolveParams) error {
	const query = `UPDATE interchange_requests
	SET status = $2, peer_decision = $3, resolution_note = $4, resolved_at = $5
	WHERE id = $1 AND status = $6`
	result, err := r.db.ExecContext(ctx, query, params.ID,
		params.Status, params.PeerDecision, params.Note, time.Now().UTC(),
		models.InterchangeStatusPending)
	if err != nil {
		return fmt.Errorf("resolve interchange request: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check interchange resolve rows: %w", err)
	}
	if rows == 0 {
		return ErrRequestNotPending
	}
	return nil
}

// ApprovePairParams carries everything the approval transaction writes.
type ApprovePairParams struct {
	RequestID         string
	RequesterOverride *models.ScheduleOverride
	PeerOverride      *models.ScheduleOverride
}

// ApprovePair performs the atomic pair write for a dual-approved swap: one
// transaction moves the request PENDING -> APPROVED, inserts the two linked
// APPLIED overrides under the slot guard, and forces both base shifts into
// APPROVED_CHANGE. Either everything commits or nothing does, so a concurrent
// reader can never observe one override of the pair without the other.
//
// Returns ErrRequestNotPending when the CAS on the request loses (a withdraw
// or another response landed first) and ErrSlotOccupied when either slot
// gained an override since proposal; in both cases no row is written.
func (r *InterchangeRepository) ApprovePair(ctx context.Context, params ApprovePairParams) error {
	if params.RequesterOverride == nil || params.PeerOverride == nil {
		return fmt.Errorf("approve pair requires both overrides")
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin approve pair: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()

	const update = `UPDATE interchange_requests
	SET status = $2, peer_decision = $3, resolved_at = $4
	WHERE id = $1 AND status = $5`
	result, execErr := tx.ExecContext(ctx, update, params.RequestID,
		models.InterchangeStatusApproved, models.PeerDecisionApproved, now,
		models.InterchangeStatusPending)
	if execErr != nil {
		err = fmt.Errorf("approve interchange request: %w", execErr)
		return err
	}
	rows, rowsErr := result.RowsAffected()
	if rowsErr != nil {
		err = fmt.Errorf("check interchange approve rows: %w", rowsErr)
		return err
	}
	if rows == 0 {
		err = ErrRequestNotPending
		return err
	}

	for _, override := range []*models.ScheduleOverride{params.RequesterOverride, params.PeerOverride} {
		prepareOverride(override)
		override.Status = models.OverrideStatusApplied
		override.CreatedAt = now
		override.ResolvedAt = &now
		if err = insertOverrideGuarded(ctx, tx, override); err != nil {
			return err
		}
		if err = markShiftApprovedChange(ctx, tx, override.NurseID, override.ShiftDate); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit approve pair: %w", err)
	}
	return nil
}

// ListOverridesByInterchange returns the override pair linked to a request.
func (r *InterchangeRepository) ListOverridesByInterchange(ctx context.Context, interchangeID string) ([]models.ScheduleOverride, error) {
	query := fmt.Sprintf(`SELECT %s FROM schedule_overrides
	WHERE linked_interchange_id = $1 ORDER BY shift_date ASC`, overrideColumns)
	var overrides []models.ScheduleOverride
	if err := r.db.SelectContext(ctx, &overrides, query, interchangeID); err != nil {
		return nil, fmt.Errorf("list overrides by interchange: %w", err)
	}
	return overrides, nil
}
