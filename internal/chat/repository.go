package chat

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventmate/backend/internal/models"
)

// Repository handles direct-message persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a chat repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a message.
func (r *Repository) Create(ctx context.Context, m *models.Message) error {
	const q = `INSERT INTO messages (id, sender_id, recipient_id, body)
		VALUES (gen_random_uuid(), $1, $2, $3)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, m.SenderID, m.RecipientID, m.Body).Scan(&m.ID, &m.CreatedAt)
}

// Conversation returns the messages exchanged between two users, oldest
// first, capped at limit.
func (r *Repository) Conversation(ctx context.Context, a, b uuid.UUID, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT id, sender_id, recipient_id, body, created_at FROM (
			SELECT id, sender_id, recipient_id, body, created_at
			FROM messages
			WHERE (sender_id = $1 AND recipient_id = $2) OR (sender_id = $2 AND recipient_id = $1)
			ORDER BY created_at DESC
			LIMIT $3
		) recent ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, q, a, b, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.Body, &m.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// Conversations returns the user's chat partners with the latest message,
// most recent first.
func (r *Repository) Conversations(ctx context.Context, userID uuid.UUID) ([]models.Conversation, error) {
	const q = `SELECT partner_id, full_name, image_url, body, created_at FROM (
			SELECT DISTINCT ON (partner_id) m.partner_id,
				COALESCE(NULLIF(u.full_name, ''), 'Unknown') AS full_name,
				COALESCE(NULLIF(u.image_url, ''), $2) AS image_url,
				m.body, m.created_at
			FROM (
				SELECT CASE WHEN sender_id = $1 THEN recipient_id ELSE sender_id END AS partner_id, body, created_at
				FROM messages
				WHERE sender_id = $1 OR recipient_id = $1
			) m
			LEFT JOIN users u ON u.id = m.partner_id
			ORDER BY m.partner_id, m.created_at DESC
		) latest ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, userID, models.PlaceholderImageURL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Conversation
	for rows.Next() {
		var cv models.Conversation
		if err := rows.Scan(&cv.PartnerID, &cv.PartnerName, &cv.PartnerImage, &cv.LastBody, &cv.LastAt); err != nil {
			return nil, err
		}
		list = append(list, cv)
	}
	return list, rows.Err()
}
