package models

import "time"

// ShiftStatus captures the acknowledgment lifecycle of a base assignment.
// Status only advances forward; APPROVED_CHANGE is terminal and set when an
// applied override supersedes the record.
type ShiftStatus string

const (
	ShiftStatusScheduled      ShiftStatus = "SCHEDULED"
	ShiftStatusAcknowledged   ShiftStatus = "ACKNOWLEDGED"
	ShiftStatusCompleted      ShiftStatus = "COMPLETED"
	ShiftStatusMissed         ShiftStatus = "MISSED"
	ShiftStatusApprovedChange ShiftStatus = "APPROVED_CHANGE"
)

// ShiftAssignment is a scheduled work period for one nurse on one date.
// Rows are created by the scheduling import and mutated only by
// acknowledgment or override materialisation; corrections happen through
// overrides, never deletes.
type ShiftAssignment struct {
	ID        string      `db:"id" json:"id"`
	NurseID   string      `db:"nurse_id" json:"nurse_id"`
	ShiftDate time.Time   `db:"shift_date" json:"shift_date"`
	ShiftType string      `db:"shift_type" json:"shift_type"`
	StartTime string      `db:"start_time" json:"start_time"`
	EndTime   string      `db:"end_time" json:"end_time"`
	Status    ShiftStatus `db:"status" json:"status"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt time.Time   `db:"updated_at" json:"updated_at"`
}

// ShiftFilter constrains shift listing queries.
type ShiftFilter struct {
	NurseID string
	From    time.Time
	To      time.Time
}

// SlotKey identifies the (nurse, date) slot an assignment or override
// occupies. Dates are normalised to yyyy-mm-dd so that time-of-day noise in
// stored timestamps can never split a slot.
type SlotKey struct {
	NurseID string
	Date    string
}

// SlotDateLayout is the canonical wire/date format for slot dates.
const SlotDateLayout = "2006-01-02"

// NewSlotKey builds the reconciliation key for a nurse and date.
func NewSlotKey(nurseID string, date time.Time) SlotKey {
	return SlotKey{NurseID: nurseID, Date: date.Format(SlotDateLayout)}
}

// EffectiveShift is the schedule row as displayed after overrides are merged
// onto the base assignment. Original fields are retained for audit display
// when an override replaces them.
type EffectiveShift struct {
	ShiftID        string      `json:"shift_id"`
	NurseID        string      `json:"nurse_id"`
	ShiftDate      time.Time   `json:"shift_date"`
	ShiftType      string      `json:"shift_type"`
	StartTime      string      `json:"start_time"`
	EndTime        string      `json:"end_time"`
	Status         ShiftStatus `json:"status"`
	CanAcknowledge bool        `json:"can_acknowledge"`

	OverrideID        *string       `json:"override_id,omitempty"`
	OverrideKind      *OverrideKind `json:"override_kind,omitempty"`
	OverrideReason    string        `json:"override_reason,omitempty"`
	InterchangeID     *string       `json:"interchange_id,omitempty"`
	OriginalShiftType *string       `json:"original_shift_type,omitempty"`
	OriginalStartTime *string       `json:"original_start_time,omitempty"`
	OriginalEndTime   *string       `json:"original_end_time,omitempty"`
}
