package posts

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventmate/backend/internal/models"
)

// Repository handles post, like, and comment persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a posts repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a post.
func (r *Repository) Create(ctx context.Context, p *models.Post) error {
	const q = `INSERT INTO posts (id, community_id, author_id, body, image_url)
		VALUES (gen_random_uuid(), $1, $2, $3, $4)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, p.CommunityID, p.AuthorID, p.Body, p.ImageURL).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

const postDetailQuery = `SELECT p.id, p.community_id, p.author_id, p.body, p.image_url, p.created_at, p.updated_at,
		COALESCE(NULLIF(u.full_name, ''), 'Unknown'),
		COALESCE(NULLIF(u.image_url, ''), $1),
		(SELECT COUNT(*) FROM post_likes l WHERE l.post_id = p.id),
		(SELECT COUNT(*) FROM post_comments c WHERE c.post_id = p.id),
		EXISTS (SELECT 1 FROM post_likes l WHERE l.post_id = p.id AND l.user_id = $2)
	FROM posts p
	LEFT JOIN users u ON u.id = p.author_id`

func scanPostDetail(row pgx.Row) (*models.PostDetail, error) {
	var d models.PostDetail
	err := row.Scan(&d.ID, &d.CommunityID, &d.AuthorID, &d.Body, &d.ImageURL, &d.CreatedAt, &d.UpdatedAt,
		&d.AuthorName, &d.AuthorImage, &d.LikeCount, &d.CommentCount, &d.LikedByMe)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// GetByID returns a post with counts, or nil when no such post exists.
// viewerID drives the liked_by_me flag.
func (r *Repository) GetByID(ctx context.Context, id, viewerID uuid.UUID) (*models.PostDetail, error) {
	d, err := scanPostDetail(r.pool.QueryRow(ctx, postDetailQuery+` WHERE p.id = $3`, models.PlaceholderImageURL, viewerID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return d, err
}

// ListByCommunity returns a community's feed, newest first.
func (r *Repository) ListByCommunity(ctx context.Context, communityID, viewerID uuid.UUID) ([]models.PostDetail, error) {
	rows, err := r.pool.Query(ctx, postDetailQuery+` WHERE p.community_id = $3 ORDER BY p.created_at DESC`,
		models.PlaceholderImageURL, viewerID, communityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.PostDetail
	for rows.Next() {
		d, err := scanPostDetail(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *d)
	}
	return list, rows.Err()
}

// ListFeed returns posts from every community the viewer belongs to, newest
// first.
func (r *Repository) ListFeed(ctx context.Context, viewerID uuid.UUID) ([]models.PostDetail, error) {
	rows, err := r.pool.Query(ctx, postDetailQuery+`
		WHERE p.community_id IN (SELECT community_id FROM community_members WHERE user_id = $2)
		ORDER BY p.created_at DESC
		LIMIT 100`, models.PlaceholderImageURL, viewerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.PostDetail
	for rows.Next() {
		d, err := scanPostDetail(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *d)
	}
	return list, rows.Err()
}

// Delete removes a post if the caller authored it. Returns false when
// nothing matched.
func (r *Repository) Delete(ctx context.Context, id, authorID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1 AND author_id = $2`, id, authorID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Like records a like. Idempotent.
func (r *Repository) Like(ctx context.Context, postID, userID uuid.UUID) error {
	const q = `INSERT INTO post_likes (post_id, user_id) VALUES ($1, $2) ON CONFLICT (post_id, user_id) DO NOTHING`
	_, err := r.pool.Exec(ctx, q, postID, userID)
	return err
}

// Unlike removes a like. Idempotent.
func (r *Repository) Unlike(ctx context.Context, postID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`, postID, userID)
	return err
}

// CreateComment inserts a comment.
func (r *Repository) CreateComment(ctx context.Context, cm *models.Comment) error {
	const q = `INSERT INTO post_comments (id, post_id, author_id, body)
		VALUES (gen_random_uuid(), $1, $2, $3)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, cm.PostID, cm.AuthorID, cm.Body).Scan(&cm.ID, &cm.CreatedAt)
}

// ListComments returns a post's comments, oldest first.
func (r *Repository) ListComments(ctx context.Context, postID uuid.UUID) ([]models.CommentDetail, error) {
	const q = `SELECT c.id, c.post_id, c.author_id, c.body, c.created_at,
			COALESCE(NULLIF(u.full_name, ''), 'Unknown'),
			COALESCE(NULLIF(u.image_url, ''), $2)
		FROM post_comments c
		LEFT JOIN users u ON u.id = c.author_id
		WHERE c.post_id = $1
		ORDER BY c.created_at ASC`
	rows, err := r.pool.Query(ctx, q, postID, models.PlaceholderImageURL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.CommentDetail
	for rows.Next() {
		var d models.CommentDetail
		if err := rows.Scan(&d.ID, &d.PostID, &d.AuthorID, &d.Body, &d.CreatedAt, &d.AuthorName, &d.AuthorImage); err != nil {
			return nil, err
		}
		list = append(list, d)
	}
	return list, rows.Err()
}

// DeleteComment removes a comment if the caller authored it.
func (r *Repository) DeleteComment(ctx context.Context, id, authorID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM post_comments WHERE id = $1 AND author_id = $2`, id, authorID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
