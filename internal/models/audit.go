package models

import "time"

// Audit actions recorded for schedule state transitions.
const (
	AuditActionShiftAcknowledge    = "SHIFT_ACKNOWLEDGE"
	AuditActionOverrideCreate      = "OVERRIDE_CREATE"
	AuditActionOverrideApprove     = "OVERRIDE_APPROVE"
	AuditActionOverrideReject      = "OVERRIDE_REJECT"
	AuditActionInterchangePropose  = "INTERCHANGE_PROPOSE"
	AuditActionInterchangeRespond  = "INTERCHANGE_RESPOND"
	AuditActionInterchangeWithdraw = "INTERCHANGE_WITHDRAW"
	AuditActionInterchangeResolve  = "INTERCHANGE_RESOLVE"
)

// AuditEntry is an immutable record of a single state transition. Entries are
// append-only; there is no update or delete path.
type AuditEntry struct {
	ID          string    `db:"id" json:"id"`
	ActorID     *string   `db:"actor_id" json:"actor_id,omitempty"`
	Action      string    `db:"action" json:"action"`
	Resource    string    `db:"resource" json:"resource"`
	ResourceID  *string   `db:"resource_id" json:"resource_id,omitempty"`
	PriorStatus *string   `db:"prior_status" json:"prior_status,omitempty"`
	NewStatus   *string   `db:"new_status" json:"new_status,omitempty"`
	Note        *string   `db:"note" json:"note,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
