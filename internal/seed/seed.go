// Package seed populates an empty database with demo inventory so the
// service is exercisable right after startup: one venue, one event and
// a 10x10 seat grid with one AVAILABLE ticket per seat.
package seed

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/deepika/ticketvelo/internal/model"
	"github.com/deepika/ticketvelo/internal/repository"
)

// Run seeds initial data unless a venue already exists.  It is safe to
// call on every startup; a populated database makes it a no-op.
func Run(ctx context.Context, venues *repository.VenueRepo, events *repository.EventRepo, seats *repository.SeatRepo, tickets *repository.TicketRepo) error {
	n, err := venues.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Println("seed: data already exists, skipping")
		return nil
	}

	venue := model.Venue{
		Name:     "Madison Square Garden",
		Address:  "New York, NY",
		Capacity: 100,
	}
	if err := venues.Create(ctx, &venue); err != nil {
		return err
	}

	event := model.Event{
		VenueID:  venue.ID,
		Title:    "Go Concurrency Masterclass",
		StartsAt: time.Now().UTC().AddDate(0, 0, 30),
	}
	if err := events.Create(ctx, &event); err != nil {
		return err
	}

	grid := make([]model.Seat, 0, 100)
	for i := 1; i <= 10; i++ {
		for j := 1; j <= 10; j++ {
			grid = append(grid, model.Seat{
				VenueID:    venue.ID,
				RowLabel:   "Row-" + strconv.Itoa(i),
				SeatNumber: uint32(j),
				Section:    "General",
				IsActive:   true,
			})
		}
	}
	if err := seats.CreateBulk(ctx, grid); err != nil {
		return err
	}

	// Bulk insert does not report generated ids, so read the grid back
	// before provisioning the tickets.
	created, err := seats.ListByVenue(ctx, venue.ID)
	if err != nil {
		return err
	}
	inventory := make([]model.Ticket, 0, len(created))
	for _, s := range created {
		inventory = append(inventory, model.Ticket{
			EventID: event.ID,
			SeatID:  s.ID,
			Status:  model.TicketAvailable,
			Version: 0,
		})
	}
	if err := tickets.CreateBulk(ctx, inventory); err != nil {
		return err
	}

	log.Printf("seed: venue %d, event %d, %d seats, %d AVAILABLE tickets", venue.ID, event.ID, len(created), len(inventory))
	return nil
}
