package model

import "time"

// Ticket status values.  AVAILABLE is the only state a sale can start
// from; BOOKED is terminal – once a ticket is booked its owner and
// version never change again.
const (
	TicketAvailable = "AVAILABLE"
	TicketBooked    = "BOOKED"
)

// Ticket is the sellable unit: one physical seat for one event.  There
// is exactly one ticket row per (event, seat) pair, created in bulk
// when the event's inventory is provisioned.  The Version field backs
// optimistic concurrency control – every successful save increments it,
// and a save whose expected version does not match the stored one is
// rejected.
//
// Fields:
//  ID        – primary key identifier, immutable once created.
//  EventID   – event this ticket belongs to.
//  SeatID    – physical seat being sold.
//  Status    – availability status (AVAILABLE, BOOKED).
//  OwnerID   – buyer who booked the ticket; nil while AVAILABLE.
//  Version   – optimistic concurrency stamp, starts at 0.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Ticket struct {
	ID        uint64    // tickets.id
	EventID   uint64    // tickets.event_id
	SeatID    uint64    // tickets.seat_id
	Status    string    // tickets.status
	OwnerID   *uint64   // tickets.owner_id (nullable)
	Version   uint32    // tickets.version
	CreatedAt time.Time // tickets.created_at
	UpdatedAt time.Time // tickets.updated_at
}

// IsAvailable reports whether the ticket can still be sold.
func (t *Ticket) IsAvailable() bool { return t.Status == TicketAvailable }
