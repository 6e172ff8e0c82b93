package model

import "time"

// Seat describes a physical seat in a venue.  Seats are uniquely
// identified by their venue, row label and seat number.  The section
// groups seats for pricing or display purposes (e.g. "VIP",
// "General").
//
// Fields:
//  ID         – primary key identifier.
//  VenueID    – venue to which this seat belongs.
//  RowLabel   – letter or string designating the row.
//  SeatNumber – number of the seat within the row.
//  Section    – section name the seat belongs to.
//  IsActive   – whether the seat is sellable.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Seat struct {
	ID         uint64    // seats.id
	VenueID    uint64    // seats.venue_id
	RowLabel   string    // seats.row_label
	SeatNumber uint32    // seats.seat_number
	Section    string    // seats.section
	IsActive   bool      // seats.is_active
	CreatedAt  time.Time // seats.created_at
	UpdatedAt  time.Time // seats.updated_at
}
