// Package queue defines message payloads exchanged over the message broker
// and the background consumer standing in for the ticket issuance
// collaborator.
package queue

// TicketQueueName is the durable queue ticket issuance consumes from.
const TicketQueueName = "ticket.issue"

// TicketIssueEvent is published after a booking commits as CONFIRMED.  It
// carries everything ticket issuance needs without querying the primary
// database.  Publishing is best effort: a lost event never rolls back the
// confirmation.
type TicketIssueEvent struct {
	BookingID   uint64   `json:"booking_id"`
	SubjectID   uint64   `json:"subject_id"`
	SubjectKind string   `json:"subject_kind"`
	UserID      uint64   `json:"user_id"`
	SeatNumbers []string `json:"seat_numbers"`
	AmountCents uint32   `json:"amount_cents"`
	ConfirmedAt string   `json:"confirmed_at"`
}
