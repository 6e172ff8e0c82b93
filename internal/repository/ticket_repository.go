package repository // repository for ticket persistence

import (
	"context"
	"database/sql"

	"github.com/deepika/ticketvelo/internal/model"
)

// TicketRepo encapsulates database operations for tickets. It is the
// single source of truth for seat ownership: the booking engine reads
// and conditionally mutates tickets only through this repository, and
// the version column guards every mutation against concurrent writers
// that slipped past the distributed lock.
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo constructs a TicketRepo given a DB handle.
func NewTicketRepo(db *sql.DB) *TicketRepo {
	return &TicketRepo{db: db}
}

// FindByEventAndSeat returns the ticket for the given (event, seat)
// pair. There is at most one such row. Returns ErrTicketNotFound when
// no row exists.
func (r *TicketRepo) FindByEventAndSeat(ctx context.Context, eventID, seatID uint64) (*model.Ticket, error) {
	const q = `SELECT id, event_id, seat_id, status, owner_id, version, created_at, updated_at
               FROM tickets WHERE event_id = ? AND seat_id = ?`
	var t model.Ticket
	var owner sql.NullInt64
	err := r.db.QueryRowContext(ctx, q, eventID, seatID).Scan(
		&t.ID, &t.EventID, &t.SeatID, &t.Status, &owner, &t.Version, &t.CreatedAt, &t.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrTicketNotFound
	}
	if err != nil {
		return nil, err
	}
	if owner.Valid {
		o := uint64(owner.Int64)
		t.OwnerID = &o
	}
	return &t, nil
}

// Save persists the ticket's status and owner with a compare-and-swap
// on the version column. The WHERE clause matches both the primary key
// and the version the caller read; when another writer got there first
// the update affects zero rows and ErrStaleVersion is returned. On
// success the stored version is incremented and the in-memory ticket
// is updated to match. The store never retries a stale save itself.
func (r *TicketRepo) Save(ctx context.Context, t *model.Ticket) error {
	const q = `UPDATE tickets
               SET status = ?, owner_id = ?, version = version + 1
               WHERE id = ? AND version = ?`
	var owner interface{}
	if t.OwnerID != nil {
		owner = *t.OwnerID
	}
	res, err := r.db.ExecContext(ctx, q, t.Status, owner, t.ID, t.Version)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish a vanished row from a version conflict so the
		// caller gets the right sentinel.
		var exists bool
		if err := r.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM tickets WHERE id = ?)`, t.ID,
		).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrTicketNotFound
		}
		return ErrStaleVersion
	}
	t.Version++
	return nil
}

// ListByEvent returns all tickets for an event. No ordering is
// guaranteed. Used by the read-only listing paths; no locking applies.
func (r *TicketRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.Ticket, error) {
	const q = `SELECT id, event_id, seat_id, status, owner_id, version, created_at, updated_at
               FROM tickets WHERE event_id = ?`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Ticket
	for rows.Next() {
		var t model.Ticket
		var owner sql.NullInt64
		if err := rows.Scan(&t.ID, &t.EventID, &t.SeatID, &t.Status, &owner, &t.Version, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		if owner.Valid {
			o := uint64(owner.Int64)
			t.OwnerID = &o
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateBulk inserts multiple ticket records in one statement. It is
// used when an event's inventory is provisioned: one AVAILABLE row per
// seat, version 0, no owner. CreatedAt/UpdatedAt timestamps default in
// the DB. The ID fields of the passed structures are not populated.
func (r *TicketRepo) CreateBulk(ctx context.Context, tickets []model.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	query := `INSERT INTO tickets (event_id, seat_id, status, version) VALUES `
	args := make([]interface{}, 0, len(tickets)*4)
	for i, t := range tickets {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, t.EventID, t.SeatID, t.Status, t.Version)
	}
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}
