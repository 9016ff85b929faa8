package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/wardline/roster-api/internal/models"
)

// AuditRepository appends immutable transition records. There is no update
// or delete path.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository constructs the repository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create appends an audit entry.
func (r *AuditRepository) Create(ctx context.Context, entry *models.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_entries
	(id, actor_id, action, resource, resource_id, prior_status, new_status, note, created_at)
	VALUES (:id, :actor_id, :action, :resource, :resource_id, :prior_status, :new_status, :note, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create audit entry: %w", err)
	}
	return nil
}

// ListForResource returns the transition history for one record, oldest
// first.
func (r *AuditRepository) ListForResource(ctx context.Context, resource, resourceID string) ([]models.AuditEntry, error) {
	const query = `SELECT id, actor_id, action, resource, resource_id, prior_status, new_status, note, created_at
	FROM audit_entries WHERE resource = $1 AND resource_id = $2 ORDER BY created_at ASC`
	var entries []models.AuditEntry
	if err := r.db.SelectContext(ctx, &entries, query, resource, resourceID); err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	return entries, nil
}
