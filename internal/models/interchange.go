package models

import "time"

// InterchangeStatus captures the overall swap request lifecycle.
type InterchangeStatus string

const (
	InterchangeStatusPending   InterchangeStatus = "PENDING"
	InterchangeStatusApproved  InterchangeStatus = "APPROVED"
	InterchangeStatusRejected  InterchangeStatus = "REJECTED"
	InterchangeStatusWithdrawn InterchangeStatus = "WITHDRAWN"
)

// PeerDecision records how the named peer answered a proposal.
type PeerDecision string

const (
	PeerDecisionPending  PeerDecision = "PENDING"
	PeerDecisionApproved PeerDecision = "APPROVED"
	PeerDecisionRejected PeerDecision = "REJECTED"
)

// InterchangeRequest is a two-party shift swap proposal. It references
// exactly two shift assignments belonging to two distinct nurses and resolves
// to exactly zero or two schedule overrides, never one.
type InterchangeRequest struct {
	ID               string            `db:"id" json:"id"`
	RequesterID      string            `db:"requester_id" json:"requester_id"`
	RequesterShiftID string            `db:"requester_shift_id" json:"requester_shift_id"`
	PeerID           string            `db:"peer_id" json:"peer_id"`
	PeerShiftID      string            `db:"peer_shift_id" json:"peer_shift_id"`
	Reason           string            `db:"reason" json:"reason"`
	PeerDecision     PeerDecision      `db:"peer_decision" json:"peer_decision"`
	Status           InterchangeStatus `db:"status" json:"status"`
	ResolutionNote   *string           `db:"resolution_note" json:"resolution_note,omitempty"`
	CreatedAt        time.Time         `db:"created_at" json:"created_at"`
	ResolvedAt       *time.Time        `db:"resolved_at" json:"resolved_at,omitempty"`
}

// Resolved reports whether the request reached a terminal state.
func (r *InterchangeRequest) Resolved() bool {
	return r != nil && r.Status != InterchangeStatusPending
}

// InterchangeFilter constrains interchange listing queries.
type InterchangeFilter struct {
	RequesterID string
	PeerID      string
	Status      []InterchangeStatus
	Limit       int
	Offset      int
}
