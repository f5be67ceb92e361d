package audit

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventmate/backend/internal/models"
)

// Repository reads the append-only request audit trail. Writes happen inside
// the events and communities transactions that resolve requests.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an audit repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListByParent returns the resolutions recorded for one event or community,
// newest first.
func (r *Repository) ListByParent(ctx context.Context, scope string, parentID uuid.UUID) ([]models.AuditEntry, error) {
	const q = `SELECT id, scope, parent_id, request_id, user_id, actor_id, outcome, created_at
		FROM request_audit WHERE scope = $1 AND parent_id = $2 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, scope, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(&e.ID, &e.Scope, &e.ParentID, &e.RequestID, &e.UserID, &e.ActorID, &e.Outcome, &e.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}
