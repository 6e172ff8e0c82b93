package model

import "time"

// Venue describes a physical location that hosts events.  Venues own
// the seat layout; events reference a venue and inherit its seats when
// tickets are provisioned.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – display name, e.g. "Madison Square Garden".
//  Address   – street address of the venue.
//  Capacity  – advertised seat capacity.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Venue struct {
	ID        uint64    // venues.id
	Name      string    // venues.name
	Address   string    // venues.address
	Capacity  uint32    // venues.capacity
	CreatedAt time.Time // venues.created_at
	UpdatedAt time.Time // venues.updated_at
}
