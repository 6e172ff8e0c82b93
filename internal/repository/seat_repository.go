package repository

import (
	"context"
	"database/sql"

	"github.com/deepika/ticketvelo/internal/model"
)

// SeatRepo provides data access to the seats table. Seats belong to a
// venue and are referenced, never mutated, by the booking engine.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo returns a new SeatRepo bound to the given database.
func NewSeatRepo(db *sql.DB) *SeatRepo { return &SeatRepo{db: db} }

// Create inserts a single seat and populates the generated ID.
func (r *SeatRepo) Create(ctx context.Context, s *model.Seat) error {
	const q = `INSERT INTO seats (venue_id, row_label, seat_number, section, is_active) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, s.VenueID, s.RowLabel, s.SeatNumber, s.Section, s.IsActive)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// CreateBulk inserts multiple seats in one statement. Timestamps
// default in the DB; generated IDs are not populated on the passed
// slice, callers should re-read via ListByVenue when they need them.
func (r *SeatRepo) CreateBulk(ctx context.Context, seats []model.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	query := `INSERT INTO seats (venue_id, row_label, seat_number, section, is_active) VALUES `
	args := make([]interface{}, 0, len(seats)*5)
	for i, s := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?)"
		args = append(args, s.VenueID, s.RowLabel, s.SeatNumber, s.Section, s.IsActive)
	}
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// ListByVenue returns all seats of a venue ordered by row and number.
func (r *SeatRepo) ListByVenue(ctx context.Context, venueID uint64) ([]model.Seat, error) {
	const q = `SELECT id, venue_id, row_label, seat_number, section, is_active, created_at, updated_at
               FROM seats WHERE venue_id = ? ORDER BY row_label, seat_number`
	rows, err := r.db.QueryContext(ctx, q, venueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Seat
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(&s.ID, &s.VenueID, &s.RowLabel, &s.SeatNumber, &s.Section, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListActiveByVenue returns only the sellable seats of a venue. Event
// creation provisions tickets for exactly this set.
func (r *SeatRepo) ListActiveByVenue(ctx context.Context, venueID uint64) ([]model.Seat, error) {
	const q = `SELECT id, venue_id, row_label, seat_number, section, is_active, created_at, updated_at
               FROM seats WHERE venue_id = ? AND is_active = TRUE ORDER BY row_label, seat_number`
	rows, err := r.db.QueryContext(ctx, q, venueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Seat
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(&s.ID, &s.VenueID, &s.RowLabel, &s.SeatNumber, &s.Section, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
