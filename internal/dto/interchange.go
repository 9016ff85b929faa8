package dto

// Interchange response actions accepted by the respond endpoint.
const (
	InterchangeActionApprove = "approve"
	InterchangeActionReject  = "reject"
)

// ProposeInterchangeRequest payload for proposing a two-party shift swap.
// The requester's identity comes from the authenticated session; the peer is
// explicit in the payload.
type ProposeInterchangeRequest struct {
	RequesterShiftID string `json:"requester_shift_id" binding:"required" validate:"required"`
	PeerID           string `json:"peer_id" binding:"required" validate:"required"`
	PeerShiftID      string `json:"peer_shift_id" binding:"required" validate:"required"`
	Reason           string `json:"reason" binding:"required" validate:"required"`
}

// RespondInterchangeRequest captures the named peer's decision.
type RespondInterchangeRequest struct {
	Action string `json:"action" binding:"required" validate:"required,oneof=approve reject"`
	Note   string `json:"note"`
}
