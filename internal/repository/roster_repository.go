package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/wardline/roster-api/internal/models"
)

// RosterRepository reads the nurse roster mirrored from the external identity
// provider. It is strictly read-only here.
type RosterRepository struct {
	db *sqlx.DB
}

// NewRosterRepository constructs the repository.
func NewRosterRepository(db *sqlx.DB) *RosterRepository {
	return &RosterRepository{db: db}
}

const nurseColumns = `id, email, full_name, role, ward_id, active, created_at, updated_at`

// FindByID resolves a nurse by identifier.
func (r *RosterRepository) FindByID(ctx context.Context, id string) (*models.Nurse, error) {
	query := fmt.Sprintf(`SELECT %s FROM nurses WHERE id = $1`, nurseColumns)
	var nurse models.Nurse
	if err := r.db.GetContext(ctx, &nurse, query, id); err != nil {
		return nil, err
	}
	return &nurse, nil
}

// ListWardColleagues returns the active nurses sharing a ward, excluding the
// requesting nurse. This bounds who may be proposed as a swap peer.
func (r *RosterRepository) ListWardColleagues(ctx context.Context, wardID, excludeID string) ([]models.Nurse, error) {
	query := fmt.Sprintf(`SELECT %s FROM nurses
	WHERE ward_id = $1 AND id <> $2 AND active = TRUE
	ORDER BY full_name ASC`, nurseColumns)
	var nurses []models.Nurse
	if err := r.db.SelectContext(ctx, &nurses, query, wardID, excludeID); err != nil {
		return nil, fmt.Errorf("list ward colleagues: %w", err)
	}
	return nurses, nil
}
