package dto

import "github.com/wardline/roster-api/internal/models"

// CreateOverrideRequest payload for a unilateral schedule change request.
// NurseID is optional and honoured only for supervisors acting on behalf of
// a ward member; everyone else targets their own schedule.
type CreateOverrideRequest struct {
	NurseID      string              `json:"nurse_id"`
	Date         string              `json:"date" binding:"required" validate:"required"`
	Kind         models.OverrideKind `json:"kind" binding:"required" validate:"required"`
	NewShiftType string              `json:"new_shift_type"`
	NewStartTime string              `json:"new_start_time"`
	NewEndTime   string              `json:"new_end_time"`
	Reason       string              `json:"reason" binding:"required" validate:"required"`
}

// RejectOverrideRequest carries the reviewer's rejection note.
type RejectOverrideRequest struct {
	Note string `json:"note"`
}

// OverrideQuery mirrors supported listing filters.
type OverrideQuery struct {
	NurseID string `form:"nurse_id"`
	Status  string `form:"status"`
	From    string `form:"from"`
	To      string `form:"to"`
}
