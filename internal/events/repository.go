package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventmate/backend/internal/models"
)

// Repository handles event, request, and attendee persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an events repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const eventColumns = `id, title, description, venue_id, organizer_id, starts_at, total_participants, image_url, created_at, updated_at`

func scanEvent(row pgx.Row) (*models.Event, error) {
	var e models.Event
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.VenueID, &e.OrganizerID, &e.StartsAt, &e.TotalParticipants, &e.ImageURL, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// CreateEvent inserts an event.
func (r *Repository) CreateEvent(ctx context.Context, e *models.Event) error {
	const q = `INSERT INTO events (id, title, description, venue_id, organizer_id, starts_at, total_participants, image_url)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, e.Title, e.Description, e.VenueID, e.OrganizerID, e.StartsAt, e.TotalParticipants, e.ImageURL).
		Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

// GetEvent returns an event by ID, or nil when no such event exists.
func (r *Repository) GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	const q = `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	e, err := scanEvent(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

// ListEvents returns events, optionally only upcoming ones.
func (r *Repository) ListEvents(ctx context.Context, upcomingOnly bool) ([]models.Event, error) {
	q := `SELECT ` + eventColumns + ` FROM events ORDER BY starts_at ASC`
	if upcomingOnly {
		q = `SELECT ` + eventColumns + ` FROM events WHERE starts_at > NOW() ORDER BY starts_at ASC`
	}
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *e)
	}
	return list, rows.Err()
}

// ListEventsForUser returns events the user attends.
func (r *Repository) ListEventsForUser(ctx context.Context, userID uuid.UUID) ([]models.Event, error) {
	const q = `SELECT e.id, e.title, e.description, e.venue_id, e.organizer_id, e.starts_at, e.total_participants, e.image_url, e.created_at, e.updated_at
		FROM events e
		INNER JOIN event_attendees a ON a.event_id = e.id
		WHERE a.user_id = $1
		ORDER BY e.starts_at ASC`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *e)
	}
	return list, rows.Err()
}

// UpdateEvent updates mutable event fields.
func (r *Repository) UpdateEvent(ctx context.Context, e *models.Event) error {
	const q = `UPDATE events SET title = $2, description = $3, venue_id = $4, starts_at = $5, total_participants = $6, image_url = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`
	return r.pool.QueryRow(ctx, q, e.ID, e.Title, e.Description, e.VenueID, e.StartsAt, e.TotalParticipants, e.ImageURL).Scan(&e.UpdatedAt)
}

// DeleteEvent removes an event (requests and attendees cascade).
func (r *Repository) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	return err
}

// CountCreatedInMonth returns how many events the organizer created in the
// calendar month containing at.
func (r *Repository) CountCreatedInMonth(ctx context.Context, organizerID uuid.UUID, at time.Time) (int, error) {
	const q = `SELECT COUNT(*) FROM events
		WHERE organizer_id = $1 AND date_trunc('month', created_at) = date_trunc('month', $2::timestamptz)`
	var n int
	err := r.pool.QueryRow(ctx, q, organizerID, at).Scan(&n)
	return n, err
}

// EventLimit returns the user's creation-limit override, or nil when the
// global default applies (also when the user row is gone).
func (r *Repository) EventLimit(ctx context.Context, userID uuid.UUID) (*int, error) {
	var limit *int
	err := r.pool.QueryRow(ctx, `SELECT event_limit FROM users WHERE id = $1`, userID).Scan(&limit)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return limit, err
}

// CreateRequest inserts a pending join request. The partial unique index on
// (event_id, user_id) WHERE status='pending' rejects duplicates atomically;
// the violation is mapped to ErrRequestAlreadySent.
func (r *Repository) CreateRequest(ctx context.Context, req *models.EventRequest) error {
	const q = `INSERT INTO event_requests (id, event_id, user_id, comment, status)
		VALUES (gen_random_uuid(), $1, $2, $3, 'pending')
		RETURNING id, status, created_at`
	err := r.pool.QueryRow(ctx, q, req.EventID, req.UserID, req.Comment).Scan(&req.ID, &req.Status, &req.CreatedAt)
	if isUniqueViolation(err) {
		return ErrRequestAlreadySent
	}
	return err
}

// CancelRequest deletes any request the user has on the event and records
// the cancellation. Idempotent: no rows is not an error.
func (r *Repository) CancelRequest(ctx context.Context, eventID, userID uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var requestID uuid.UUID
	err = tx.QueryRow(ctx,
		`DELETE FROM event_requests WHERE event_id = $1 AND user_id = $2 RETURNING id`,
		eventID, userID).Scan(&requestID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO request_audit (scope, parent_id, request_id, user_id, actor_id, outcome)
		 VALUES ($1, $2, $3, $4, $4, $5)`,
		models.AuditScopeEvent, eventID, requestID, userID, models.OutcomeCancelled)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// AcceptRequest resolves a pending request into attendance in one
// transaction: lock the request, check capacity, insert the attendee, delete
// the request, append the audit row. Any failure rolls the whole thing back.
func (r *Repository) AcceptRequest(ctx context.Context, eventID, userID, actorID uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var requestID uuid.UUID
	err = tx.QueryRow(ctx,
		`SELECT id FROM event_requests WHERE event_id = $1 AND user_id = $2 AND status = 'pending' FOR UPDATE`,
		eventID, userID).Scan(&requestID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrRequestNotFound
	}
	if err != nil {
		return err
	}

	// Lock the event row so concurrent accepts serialize on the capacity check.
	var capacity int
	err = tx.QueryRow(ctx, `SELECT total_participants FROM events WHERE id = $1 FOR UPDATE`, eventID).Scan(&capacity)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrEventNotFound
	}
	if err != nil {
		return err
	}
	if capacity > 0 {
		var attendees int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM event_attendees WHERE event_id = $1`, eventID).Scan(&attendees); err != nil {
			return err
		}
		if attendees >= capacity {
			return ErrEventFull
		}
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO event_attendees (event_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		eventID, userID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM event_requests WHERE id = $1`, requestID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO request_audit (scope, parent_id, request_id, user_id, actor_id, outcome)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		models.AuditScopeEvent, eventID, requestID, userID, actorID, models.OutcomeAccepted); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// RejectRequest deletes a pending request by its own id and records the
// outcome. Returns the subject user for notification.
func (r *Repository) RejectRequest(ctx context.Context, requestID, eventID, actorID uuid.UUID) (uuid.UUID, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback(ctx)

	var userID uuid.UUID
	err = tx.QueryRow(ctx,
		`DELETE FROM event_requests WHERE id = $1 AND event_id = $2 RETURNING user_id`,
		requestID, eventID).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, ErrRequestNotFound
	}
	if err != nil {
		return uuid.Nil, err
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO request_audit (scope, parent_id, request_id, user_id, actor_id, outcome)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		models.AuditScopeEvent, eventID, requestID, userID, actorID, models.OutcomeRejected)
	if err != nil {
		return uuid.Nil, err
	}
	return userID, tx.Commit(ctx)
}

// ListPendingRequests returns pending requests with requester profiles.
// Profile fields default to placeholders instead of failing the join.
func (r *Repository) ListPendingRequests(ctx context.Context, eventID uuid.UUID) ([]models.EventRequestDetail, error) {
	const q = `SELECT er.id, er.event_id, er.user_id, er.comment, er.status, er.created_at,
			COALESCE(NULLIF(u.full_name, ''), 'Unknown'),
			COALESCE(u.email, ''),
			COALESCE(NULLIF(u.image_url, ''), $2)
		FROM event_requests er
		LEFT JOIN users u ON u.id = er.user_id
		WHERE er.event_id = $1 AND er.status = 'pending'
		ORDER BY er.created_at ASC`
	rows, err := r.pool.Query(ctx, q, eventID, models.PlaceholderImageURL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.EventRequestDetail
	for rows.Next() {
		var d models.EventRequestDetail
		if err := rows.Scan(&d.ID, &d.EventID, &d.UserID, &d.Comment, &d.Status, &d.CreatedAt, &d.FullName, &d.Email, &d.ImageURL); err != nil {
			return nil, err
		}
		list = append(list, d)
	}
	return list, rows.Err()
}

// ListAttendees returns confirmed participants with profiles.
func (r *Repository) ListAttendees(ctx context.Context, eventID uuid.UUID) ([]models.Attendee, error) {
	const q = `SELECT a.user_id, COALESCE(NULLIF(u.full_name, ''), 'Unknown'), COALESCE(NULLIF(u.image_url, ''), $2), a.joined_at
		FROM event_attendees a
		LEFT JOIN users u ON u.id = a.user_id
		WHERE a.event_id = $1
		ORDER BY a.joined_at ASC`
	rows, err := r.pool.Query(ctx, q, eventID, models.PlaceholderImageURL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Attendee
	for rows.Next() {
		var a models.Attendee
		if err := rows.Scan(&a.UserID, &a.FullName, &a.ImageURL, &a.JoinedAt); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}
