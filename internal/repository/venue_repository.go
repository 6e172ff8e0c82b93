package repository

import (
	"context"
	"database/sql"

	"github.com/deepika/ticketvelo/internal/model"
)

// VenueRepo provides data access to the venues table. Venues are
// plain catalog entities: created once, read many times, never touched
// by the booking engine.
type VenueRepo struct {
	db *sql.DB
}

// NewVenueRepo returns a new VenueRepo bound to the given database.
func NewVenueRepo(db *sql.DB) *VenueRepo { return &VenueRepo{db: db} }

// Create inserts a venue and populates the generated ID and
// timestamps on the provided record.
func (r *VenueRepo) Create(ctx context.Context, v *model.Venue) error {
	const q = `INSERT INTO venues (name, address, capacity) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, v.Name, v.Address, v.Capacity)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	v.ID = uint64(id)
	const sel = `SELECT created_at, updated_at FROM venues WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, v.ID).Scan(&v.CreatedAt, &v.UpdatedAt)
}

// GetByID fetches a single venue. Returns ErrVenueNotFound when the
// row does not exist.
func (r *VenueRepo) GetByID(ctx context.Context, id uint64) (*model.Venue, error) {
	const q = `SELECT id, name, address, capacity, created_at, updated_at FROM venues WHERE id = ?`
	var v model.Venue
	err := r.db.QueryRowContext(ctx, q, id).Scan(&v.ID, &v.Name, &v.Address, &v.Capacity, &v.CreatedAt, &v.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrVenueNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Count returns the number of venues. The seeder uses it to decide
// whether initial data already exists.
func (r *VenueRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM venues`).Scan(&n)
	return n, err
}
