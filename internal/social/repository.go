package social

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventmate/backend/internal/models"
)

// Repository handles the follow graph.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a social repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Follow records a follow edge. Idempotent.
func (r *Repository) Follow(ctx context.Context, followerID, followeeID uuid.UUID) error {
	const q = `INSERT INTO follows (follower_id, followee_id) VALUES ($1, $2)
		ON CONFLICT (follower_id, followee_id) DO NOTHING`
	_, err := r.pool.Exec(ctx, q, followerID, followeeID)
	return err
}

// Unfollow removes a follow edge. Idempotent.
func (r *Repository) Unfollow(ctx context.Context, followerID, followeeID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM follows WHERE follower_id = $1 AND followee_id = $2`, followerID, followeeID)
	return err
}

// IsFollowing reports whether the edge exists.
func (r *Repository) IsFollowing(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM follows WHERE follower_id = $1 AND followee_id = $2)`
	var ok bool
	err := r.pool.QueryRow(ctx, q, followerID, followeeID).Scan(&ok)
	return ok, err
}

const followProfileColumns = `u.id, u.email, COALESCE(NULLIF(u.full_name, ''), 'Unknown'), COALESCE(NULLIF(u.image_url, ''), $2), u.bio, u.role, u.created_at`

// Followers returns users who follow the given user.
func (r *Repository) Followers(ctx context.Context, userID uuid.UUID) ([]models.UserPublic, error) {
	const q = `SELECT ` + followProfileColumns + `
		FROM follows f JOIN users u ON u.id = f.follower_id
		WHERE f.followee_id = $1
		ORDER BY f.created_at DESC`
	return r.queryProfiles(ctx, q, userID)
}

// Following returns users the given user follows.
func (r *Repository) Following(ctx context.Context, userID uuid.UUID) ([]models.UserPublic, error) {
	const q = `SELECT ` + followProfileColumns + `
		FROM follows f JOIN users u ON u.id = f.followee_id
		WHERE f.follower_id = $1
		ORDER BY f.created_at DESC`
	return r.queryProfiles(ctx, q, userID)
}

// Counts returns follower and following totals for a user.
func (r *Repository) Counts(ctx context.Context, userID uuid.UUID) (followers, following int, err error) {
	const q = `SELECT
		(SELECT COUNT(*) FROM follows WHERE followee_id = $1),
		(SELECT COUNT(*) FROM follows WHERE follower_id = $1)`
	err = r.pool.QueryRow(ctx, q, userID).Scan(&followers, &following)
	return followers, following, err
}

func (r *Repository) queryProfiles(ctx context.Context, q string, userID uuid.UUID) ([]models.UserPublic, error) {
	rows, err := r.pool.Query(ctx, q, userID, models.PlaceholderImageURL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.UserPublic
	for rows.Next() {
		var u models.UserPublic
		if err := rows.Scan(&u.ID, &u.Email, &u.FullName, &u.ImageURL, &u.Bio, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, u)
	}
	return list, rows.Err()
}
