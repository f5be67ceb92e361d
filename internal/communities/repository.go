package communities

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventmate/backend/internal/models"
)

// Repository handles community, member, question, and join-request persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a communities repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const communityColumns = `id, name, description, image_url, is_private, created_by, created_at, updated_at`

func scanCommunity(row pgx.Row) (*models.Community, error) {
	var cm models.Community
	err := row.Scan(&cm.ID, &cm.Name, &cm.Description, &cm.ImageURL, &cm.IsPrivate, &cm.CreatedBy, &cm.CreatedAt, &cm.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &cm, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Create inserts a community and its owner membership in one transaction.
func (r *Repository) Create(ctx context.Context, cm *models.Community) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const q = `INSERT INTO communities (id, name, description, image_url, is_private, created_by)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`
	if err := tx.QueryRow(ctx, q, cm.Name, cm.Description, cm.ImageURL, cm.IsPrivate, cm.CreatedBy).
		Scan(&cm.ID, &cm.CreatedAt, &cm.UpdatedAt); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO community_members (community_id, user_id, role) VALUES ($1, $2, $3)`,
		cm.ID, cm.CreatedBy, models.CommunityRoleOwner); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// GetByID returns a community by ID, or nil when no such community exists.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Community, error) {
	const q = `SELECT ` + communityColumns + ` FROM communities WHERE id = $1`
	cm, err := scanCommunity(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return cm, err
}

// List returns all communities.
func (r *Repository) List(ctx context.Context) ([]models.Community, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+communityColumns+` FROM communities ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Community
	for rows.Next() {
		cm, err := scanCommunity(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *cm)
	}
	return list, rows.Err()
}

// IsMember reports whether the user belongs to the community.
func (r *Repository) IsMember(ctx context.Context, communityID, userID uuid.UUID) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM community_members WHERE community_id = $1 AND user_id = $2)`
	var ok bool
	err := r.pool.QueryRow(ctx, q, communityID, userID).Scan(&ok)
	return ok, err
}

// AddMember inserts a membership row. Idempotent: an existing membership is
// left untouched.
func (r *Repository) AddMember(ctx context.Context, communityID, userID uuid.UUID) error {
	const q = `INSERT INTO community_members (community_id, user_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (community_id, user_id) DO NOTHING`
	_, err := r.pool.Exec(ctx, q, communityID, userID, models.CommunityRoleMember)
	return err
}

// RemoveMember deletes a membership row.
func (r *Repository) RemoveMember(ctx context.Context, communityID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM community_members WHERE community_id = $1 AND user_id = $2 AND role <> $3`,
		communityID, userID, models.CommunityRoleOwner)
	return err
}

// ListMembers returns members with profiles.
func (r *Repository) ListMembers(ctx context.Context, communityID uuid.UUID) ([]models.CommunityMember, error) {
	const q = `SELECT m.user_id, COALESCE(NULLIF(u.full_name, ''), 'Unknown'), COALESCE(NULLIF(u.image_url, ''), $2), m.role, m.joined_at
		FROM community_members m
		LEFT JOIN users u ON u.id = m.user_id
		WHERE m.community_id = $1
		ORDER BY m.joined_at ASC`
	rows, err := r.pool.Query(ctx, q, communityID, models.PlaceholderImageURL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.CommunityMember
	for rows.Next() {
		var m models.CommunityMember
		if err := rows.Scan(&m.UserID, &m.FullName, &m.ImageURL, &m.Role, &m.JoinedAt); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// SetQuestions replaces the community's screening questions.
func (r *Repository) SetQuestions(ctx context.Context, communityID uuid.UUID, texts []string) ([]models.CommunityQuestion, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM community_questions WHERE community_id = $1`, communityID); err != nil {
		return nil, err
	}
	var out []models.CommunityQuestion
	for i, text := range texts {
		var q models.CommunityQuestion
		q.CommunityID = communityID
		q.Text = text
		q.Position = i
		err := tx.QueryRow(ctx,
			`INSERT INTO community_questions (id, community_id, text, position) VALUES (gen_random_uuid(), $1, $2, $3) RETURNING id`,
			communityID, text, i).Scan(&q.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

// ListQuestions returns the community's screening questions in order.
func (r *Repository) ListQuestions(ctx context.Context, communityID uuid.UUID) ([]models.CommunityQuestion, error) {
	const q = `SELECT id, community_id, text, position FROM community_questions WHERE community_id = $1 ORDER BY position ASC`
	rows, err := r.pool.Query(ctx, q, communityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.CommunityQuestion
	for rows.Next() {
		var cq models.CommunityQuestion
		if err := rows.Scan(&cq.ID, &cq.CommunityID, &cq.Text, &cq.Position); err != nil {
			return nil, err
		}
		list = append(list, cq)
	}
	return list, rows.Err()
}

// CreateJoinRequest inserts a pending join request. The pending-unique
// partial index rejects duplicates; the violation maps to
// ErrRequestAlreadySent.
func (r *Repository) CreateJoinRequest(ctx context.Context, req *models.CommunityJoinRequest) error {
	const q = `INSERT INTO community_join_requests (id, community_id, user_id, answers, status)
		VALUES (gen_random_uuid(), $1, $2, $3, 'pending')
		RETURNING id, status, created_at`
	err := r.pool.QueryRow(ctx, q, req.CommunityID, req.UserID, req.Answers).Scan(&req.ID, &req.Status, &req.CreatedAt)
	if isUniqueViolation(err) {
		return ErrRequestAlreadySent
	}
	return err
}

// AcceptJoinRequest resolves a pending request into membership in one
// transaction: insert member, delete request, append audit. Approved always
// implies member; there is no intermediate state to repair.
func (r *Repository) AcceptJoinRequest(ctx context.Context, communityID, requestID, actorID uuid.UUID) (uuid.UUID, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback(ctx)

	var userID uuid.UUID
	err = tx.QueryRow(ctx,
		`DELETE FROM community_join_requests WHERE id = $1 AND community_id = $2 RETURNING user_id`,
		requestID, communityID).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, ErrRequestNotFound
	}
	if err != nil {
		return uuid.Nil, err
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO community_members (community_id, user_id, role) VALUES ($1, $2, $3) ON CONFLICT (community_id, user_id) DO NOTHING`,
		communityID, userID, models.CommunityRoleMember); err != nil {
		return uuid.Nil, err
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO request_audit (scope, parent_id, request_id, user_id, actor_id, outcome)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		models.AuditScopeCommunity, communityID, requestID, userID, actorID, models.OutcomeAccepted); err != nil {
		return uuid.Nil, err
	}
	return userID, tx.Commit(ctx)
}

// RejectJoinRequest deletes a pending request and records the outcome.
func (r *Repository) RejectJoinRequest(ctx context.Context, communityID, requestID, actorID uuid.UUID) (uuid.UUID, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback(ctx)

	var userID uuid.UUID
	err = tx.QueryRow(ctx,
		`DELETE FROM community_join_requests WHERE id = $1 AND community_id = $2 RETURNING user_id`,
		requestID, communityID).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, ErrRequestNotFound
	}
	if err != nil {
		return uuid.Nil, err
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO request_audit (scope, parent_id, request_id, user_id, actor_id, outcome)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		models.AuditScopeCommunity, communityID, requestID, userID, actorID, models.OutcomeRejected); err != nil {
		return uuid.Nil, err
	}
	return userID, tx.Commit(ctx)
}

// ListPendingRequests returns pending requests with requester profiles and
// raw answers (question resolution happens in the service).
func (r *Repository) ListPendingRequests(ctx context.Context, communityID uuid.UUID) ([]models.CommunityJoinRequest, map[uuid.UUID]models.CommunityJoinRequestDetail, error) {
	const q = `SELECT jr.id, jr.community_id, jr.user_id, jr.answers, jr.created_at,
			COALESCE(NULLIF(u.full_name, ''), 'Unknown'),
			COALESCE(u.email, ''),
			COALESCE(NULLIF(u.image_url, ''), $2)
		FROM community_join_requests jr
		LEFT JOIN users u ON u.id = jr.user_id
		WHERE jr.community_id = $1 AND jr.status = 'pending'
		ORDER BY jr.created_at ASC`
	rows, err := r.pool.Query(ctx, q, communityID, models.PlaceholderImageURL)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	var reqs []models.CommunityJoinRequest
	details := make(map[uuid.UUID]models.CommunityJoinRequestDetail)
	for rows.Next() {
		var req models.CommunityJoinRequest
		var d models.CommunityJoinRequestDetail
		if err := rows.Scan(&req.ID, &req.CommunityID, &req.UserID, &req.Answers, &req.CreatedAt, &d.FullName, &d.Email, &d.ImageURL); err != nil {
			return nil, nil, err
		}
		req.Status = models.RequestPending
		d.ID = req.ID
		d.UserID = req.UserID
		d.CreatedAt = req.CreatedAt
		reqs = append(reqs, req)
		details[req.ID] = d
	}
	return reqs, details, rows.Err()
}
