package repository

import (
	"context"
	"database/sql"

	"github.com/deepika/ticketvelo/internal/model"
)

// EventRepo provides data access to the events table.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns a new EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// Create inserts an event and populates the generated ID and
// timestamps on the provided record.
func (r *EventRepo) Create(ctx context.Context, e *model.Event) error {
	const q = `INSERT INTO events (venue_id, title, starts_at) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, e.VenueID, e.Title, e.StartsAt.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	const sel = `SELECT created_at, updated_at FROM events WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, e.ID).Scan(&e.CreatedAt, &e.UpdatedAt)
}

// CreateWithInventory inserts the event and one AVAILABLE, version-0
// ticket per given seat in a single transaction, so a failure part way
// through cannot leave an event without its inventory. The generated
// event ID and timestamps are populated on the provided record.
func (r *EventRepo) CreateWithInventory(ctx context.Context, e *model.Event, seatIDs []uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO events (venue_id, title, starts_at) VALUES (?, ?, ?)`,
		e.VenueID, e.Title, e.StartsAt.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	if err := tx.QueryRowContext(ctx,
		`SELECT created_at, updated_at FROM events WHERE id = ?`, e.ID,
	).Scan(&e.CreatedAt, &e.UpdatedAt); err != nil {
		return err
	}

	if len(seatIDs) > 0 {
		query := `INSERT INTO tickets (event_id, seat_id, status, version) VALUES `
		args := make([]interface{}, 0, len(seatIDs)*4)
		for i, seatID := range seatIDs {
			if i > 0 {
				query += ","
			}
			query += "(?, ?, ?, ?)"
			args = append(args, e.ID, seatID, model.TicketAvailable, 0)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByID fetches a single event. Returns ErrEventNotFound when the
// row does not exist.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (*model.Event, error) {
	const q = `SELECT id, venue_id, title, starts_at, created_at, updated_at FROM events WHERE id = ?`
	var e model.Event
	err := r.db.QueryRowContext(ctx, q, id).Scan(&e.ID, &e.VenueID, &e.Title, &e.StartsAt, &e.CreatedAt, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListAll returns every event in the catalog, newest first.
func (r *EventRepo) ListAll(ctx context.Context) ([]model.Event, error) {
	const q = `SELECT id, venue_id, title, starts_at, created_at, updated_at FROM events ORDER BY starts_at DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.VenueID, &e.Title, &e.StartsAt, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
