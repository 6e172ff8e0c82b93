package model

import "time"

// Event represents a scheduled occurrence at a venue, e.g. a concert
// on a particular evening.  Creating an event provisions one ticket
// per active seat of the venue; the event itself carries no seat
// state.
//
// Fields:
//  ID        – primary key identifier.
//  VenueID   – venue hosting the event.
//  Title     – event title.
//  StartsAt  – when the event begins.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Event struct {
	ID        uint64    // events.id
	VenueID   uint64    // events.venue_id
	Title     string    // events.title
	StartsAt  time.Time // events.starts_at
	CreatedAt time.Time // events.created_at
	UpdatedAt time.Time // events.updated_at
}
