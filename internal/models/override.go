package models

import "time"

// OverrideKind enumerates supported schedule exception categories.
type OverrideKind string

const (
	OverrideKindTimeOff      OverrideKind = "TIME_OFF"
	OverrideKindCancellation OverrideKind = "CANCELLATION"
	OverrideKindShiftChange  OverrideKind = "SHIFT_CHANGE"
	OverrideKindInterchange  OverrideKind = "INTERCHANGE"
)

// OverrideStatus captures the override lifecycle. APPLIED and REJECTED are
// terminal; rows never mutate after resolution.
type OverrideStatus string

const (
	OverrideStatusPending  OverrideStatus = "PENDING"
	OverrideStatusApplied  OverrideStatus = "APPLIED"
	OverrideStatusRejected OverrideStatus = "REJECTED"
)

// ScheduleOverride is an approved exception record keyed by (nurse, date).
// At most one override with status PENDING or APPLIED may exist per slot.
type ScheduleOverride struct {
	ID                  string         `db:"id" json:"id"`
	NurseID             string         `db:"nurse_id" json:"nurse_id"`
	ShiftDate           time.Time      `db:"shift_date" json:"shift_date"`
	Kind                OverrideKind   `db:"kind" json:"kind"`
	NewShiftType        *string        `db:"new_shift_type" json:"new_shift_type,omitempty"`
	NewStartTime        *string        `db:"new_start_time" json:"new_start_time,omitempty"`
	NewEndTime          *string        `db:"new_end_time" json:"new_end_time,omitempty"`
	Reason              string         `db:"reason" json:"reason"`
	Status              OverrideStatus `db:"status" json:"status"`
	LinkedInterchangeID *string        `db:"linked_interchange_id" json:"linked_interchange_id,omitempty"`
	RequestedBy         string         `db:"requested_by" json:"requested_by"`
	ReviewedBy          *string        `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ResolutionNote      *string        `db:"resolution_note" json:"resolution_note,omitempty"`
	CreatedAt           time.Time      `db:"created_at" json:"created_at"`
	ResolvedAt          *time.Time     `db:"resolved_at" json:"resolved_at,omitempty"`
}

// Unresolved reports whether the override still blocks its slot.
func (o *ScheduleOverride) Unresolved() bool {
	return o != nil && (o.Status == OverrideStatusPending || o.Status == OverrideStatusApplied)
}

// OverrideFilter constrains override listing queries.
type OverrideFilter struct {
	NurseID string
	Status  []OverrideStatus
	From    time.Time
	To      time.Time
	Limit   int
	Offset  int
}
