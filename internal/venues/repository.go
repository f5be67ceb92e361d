package venues

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventmate/backend/internal/models"
)

// Repository handles venue persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a venues repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const venueColumns = `id, name, description, address, city, capacity, image_url, created_by, created_at, updated_at`

func scanVenue(row pgx.Row) (*models.Venue, error) {
	var v models.Venue
	err := row.Scan(&v.ID, &v.Name, &v.Description, &v.Address, &v.City, &v.Capacity, &v.ImageURL, &v.CreatedBy, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Create inserts a venue.
func (r *Repository) Create(ctx context.Context, v *models.Venue) error {
	const q = `INSERT INTO venues (id, name, description, address, city, capacity, image_url, created_by)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, v.Name, v.Description, v.Address, v.City, v.Capacity, v.ImageURL, v.CreatedBy).
		Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
}

// GetByID returns a venue, or nil when no such venue exists.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Venue, error) {
	v, err := scanVenue(r.pool.QueryRow(ctx, `SELECT `+venueColumns+` FROM venues WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return v, err
}

// List returns venues, optionally filtered by city and name substring.
func (r *Repository) List(ctx context.Context, city, search string) ([]models.Venue, error) {
	const q = `SELECT ` + venueColumns + ` FROM venues
		WHERE ($1 = '' OR city ILIKE $1)
		AND ($2 = '' OR name ILIKE '%' || $2 || '%')
		ORDER BY name ASC`
	rows, err := r.pool.Query(ctx, q, city, search)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Venue
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *v)
	}
	return list, rows.Err()
}

// Update saves mutable venue fields.
func (r *Repository) Update(ctx context.Context, v *models.Venue) error {
	const q = `UPDATE venues SET name = $2, description = $3, address = $4, city = $5, capacity = $6, image_url = $7, updated_at = NOW()
		WHERE id = $1 RETURNING updated_at`
	return r.pool.QueryRow(ctx, q, v.ID, v.Name, v.Description, v.Address, v.City, v.Capacity, v.ImageURL).Scan(&v.UpdatedAt)
}

// Delete removes a venue. Events keep running with venue_id set to NULL.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM venues WHERE id = $1`, id)
	return err
}
