package dto

// ScheduleQuery bounds an effective-view read.
type ScheduleQuery struct {
	From string `form:"from"`
	To   string `form:"to"`
}

// PendingAcknowledgments is the derived acknowledgment counter payload.
type PendingAcknowledgments struct {
	NurseID string `json:"nurse_id"`
	Count   int    `json:"count"`
}
