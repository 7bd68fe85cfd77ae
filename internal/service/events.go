package service

// Event names broadcast to connected dashboard clients.
const (
	EventProposalSent       = "proposal.sent"
	EventProposalAccepted   = "proposal.accepted"
	EventProposalRejected   = "proposal.rejected"
	EventDepositSubmitted   = "deposit.submitted"
	EventDepositApproved    = "deposit.approved"
	EventPhaseCompleted     = "phase.completed"
	EventPhasePaymentMoved  = "phase.payment"
	EventChatMessage        = "chat.message"
	EventProjectAccepted    = "project.accepted"
	EventRevisionRequested  = "project.revision_requested"
)

// EventPublisher pushes workflow events to connected clients. Implementations
// must not block; a nil publisher disables broadcasting.
type EventPublisher interface {
	Publish(event string, payload interface{})
}

// publish is a nil-safe helper used by services.
func publish(p EventPublisher, event string, payload interface{}) {
	if p != nil {
		p.Publish(event, payload)
	}
}

// Actor identifies the authenticated caller for role-scoped operations.
type Actor struct {
	ID   string
	Role string
}
