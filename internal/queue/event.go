// Package queue defines message payloads exchanged over the message broker.
package queue

import "fmt"

// TicketConfirmedEvent is published once per seat after a purchase has
// been durably persisted. Delivery is best effort and at least once:
// a crash between the persistent write and the publish call loses the
// notification without losing the sale. The payload contains enough
// information for downstream consumers to notify, log or trigger
// analytics without querying the primary database.
type TicketConfirmedEvent struct {
	TicketID    uint64 `json:"ticket_id"`
	EventID     uint64 `json:"event_id"`
	SeatID      uint64 `json:"seat_id"`
	OwnerID     uint64 `json:"owner_id"`
	Message     string `json:"message"`
	ConfirmedAt string `json:"confirmed_at"`
}

// ConfirmationMessage renders the human-readable line the notification
// worker forwards, "<ticket-id> confirmed for <buyer>".
func ConfirmationMessage(ticketID, ownerID uint64) string {
	return fmt.Sprintf("ticket %d confirmed for user %d", ticketID, ownerID)
}
