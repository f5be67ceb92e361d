package ads

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventmate/backend/internal/models"
)

var ErrAdNotFound = errors.New("ad not found")

// Repository handles ad persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an ads repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const adColumns = `id, title, image_key, target_url, active, position, created_at, updated_at`

func scanAd(row pgx.Row) (*models.Ad, error) {
	var a models.Ad
	err := row.Scan(&a.ID, &a.Title, &a.ImageKey, &a.TargetURL, &a.Active, &a.Position, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts an ad.
func (r *Repository) Create(ctx context.Context, a *models.Ad) error {
	const q = `INSERT INTO ads (id, title, image_key, target_url, active, position)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, a.Title, a.ImageKey, a.TargetURL, a.Active, a.Position).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

// GetByID returns an ad, or nil when no such ad exists.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Ad, error) {
	a, err := scanAd(r.pool.QueryRow(ctx, `SELECT `+adColumns+` FROM ads WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

// List returns every ad, active or not.
func (r *Repository) List(ctx context.Context) ([]models.Ad, error) {
	return r.query(ctx, `SELECT `+adColumns+` FROM ads ORDER BY position ASC, created_at ASC`)
}

// ListActive returns ads eligible for the carousel.
func (r *Repository) ListActive(ctx context.Context) ([]models.Ad, error) {
	return r.query(ctx, `SELECT `+adColumns+` FROM ads WHERE active ORDER BY position ASC, created_at ASC`)
}

// ToggleActive flips an ad's active flag and returns the new value.
func (r *Repository) ToggleActive(ctx context.Context, id uuid.UUID) (bool, error) {
	var active bool
	err := r.pool.QueryRow(ctx,
		`UPDATE ads SET active = NOT active, updated_at = NOW() WHERE id = $1 RETURNING active`, id).Scan(&active)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, ErrAdNotFound
	}
	return active, err
}

// Delete removes an ad.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM ads WHERE id = $1`, id)
	return err
}

func (r *Repository) query(ctx context.Context, q string) ([]models.Ad, error) {
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Ad
	for rows.Next() {
		a, err := scanAd(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *a)
	}
	return list, rows.Err()
}
