package models

// OutboundMessageRequest is an operator message pushed through the internal API.
type OutboundMessageRequest struct {
	To      string `json:"to" binding:"required,e164|numeric"`
	Message string `json:"message" binding:"required,max=4096"`
}
