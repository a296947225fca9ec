package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/moodgraph/backend/internal/domain"
)

// PendingRequestsTo lists pending requests addressed to userID in display
// order: oldest first, ties broken by id.
func (r *PostgresRepository) PendingRequestsTo(ctx context.Context, userID uuid.UUID) ([]*domain.FollowRequest, error) {
	query := `
		SELECT fr.id, fr.from_user_id, fr.to_user_id, fr.status, fr.created_at,
		       u.id, u.username, u.display_name, u.created_at
		FROM follow_requests fr
		JOIN users u ON u.id = fr.from_user_id
		WHERE fr.to_user_id = $1 AND fr.status = 'pending'
		ORDER BY fr.created_at, fr.id
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	requests := []*domain.FollowRequest{}
	for rows.Next() {
		var req domain.FollowRequest
		var from domain.User
		err := rows.Scan(
			&req.ID, &req.FromUserID, &req.ToUserID, &req.Status, &req.CreatedAt,
			&from.ID, &from.Username, &from.DisplayName, &from.CreatedAt,
		)
		if err != nil {
			return nil, storeErr(err)
		}
		req.FromUser = &from
		requests = append(requests, &req)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}
	return requests, nil
}

// PendingRequestBetween returns the pending request for the ordered pair,
// or nil when none exists.
func (r *PostgresRepository) PendingRequestBetween(ctx context.Context, fromID, toID uuid.UUID) (*domain.FollowRequest, error) {
	query := `
		SELECT id, from_user_id, to_user_id, status, created_at
		FROM follow_requests
		WHERE from_user_id = $1 AND to_user_id = $2 AND status = 'pending'
	`
	req, err := scanRequest(r.db.QueryRow(ctx, query, fromID, toID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, storeErr(err)
	}
	return req, nil
}

// RequestByID returns a request in any status.
func (r *PostgresRepository) RequestByID(ctx context.Context, id uuid.UUID) (*domain.FollowRequest, error) {
	query := `
		SELECT id, from_user_id, to_user_id, status, created_at
		FROM follow_requests
		WHERE id = $1
	`
	req, err := scanRequest(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRequestNotFound
		}
		return nil, storeErr(err)
	}
	return req, nil
}

// CreateRequest inserts a pending request. The store's partial unique index
// on (from_user_id, to_user_id) for pending rows enforces at most one
// pending request per ordered pair.
func (r *PostgresRepository) CreateRequest(ctx context.Context, fromID, toID uuid.UUID) (*domain.FollowRequest, error) {
	if fromID == toID {
		return nil, domain.ErrSelfRequest
	}

	query := `
		INSERT INTO follow_requests (from_user_id, to_user_id)
		VALUES ($1, $2)
		RETURNING id, from_user_id, to_user_id, status, created_at
	`
	req, err := scanRequest(r.db.QueryRow(ctx, query, fromID, toID))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicateRequest
		}
		// Either side of the pair failing its user FK means the target
		// account does not exist.
		if isForeignKeyViolation(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, storeErr(err)
	}
	return req, nil
}

// ResolveRequest flips a pending request to the given terminal status. An
// accept also inserts the follower edge inside the same transaction; the
// WHERE status = 'pending' guard makes the flip the single winner-decides
// point, so of two concurrent resolves exactly one observes the pending row.
func (r *PostgresRepository) ResolveRequest(ctx context.Context, id uuid.UUID, outcome domain.RequestStatus) (*domain.FollowerEdge, error) {
	if !outcome.Terminal() {
		return nil, fmt.Errorf("resolve to non-terminal status %q", outcome)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, storeErr(err)
	}
	defer tx.Rollback(ctx)

	var fromID, toID uuid.UUID
	err = tx.QueryRow(ctx, `
		UPDATE follow_requests
		SET status = $2
		WHERE id = $1 AND status = 'pending'
		RETURNING from_user_id, to_user_id
	`, id, string(outcome)).Scan(&fromID, &toID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.classifyResolveMiss(ctx, id)
		}
		return nil, storeErr(err)
	}

	var edge *domain.FollowerEdge
	if outcome == domain.StatusAccepted {
		edge = &domain.FollowerEdge{FollowerID: fromID, FollowedID: toID}
		err = tx.QueryRow(ctx, `
			INSERT INTO follower_edges (follower_id, followed_id)
			VALUES ($1, $2)
			ON CONFLICT (follower_id, followed_id)
			DO UPDATE SET created_at = follower_edges.created_at
			RETURNING created_at
		`, fromID, toID).Scan(&edge.CreatedAt)
		if err != nil {
			return nil, storeErr(err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storeErr(err)
	}
	return edge, nil
}

// classifyResolveMiss distinguishes a request that never existed from one
// that lost a resolution race.
func (r *PostgresRepository) classifyResolveMiss(ctx context.Context, id uuid.UUID) error {
	var status string
	err := r.db.QueryRow(ctx, `SELECT status FROM follow_requests WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrRequestNotFound
	}
	if err != nil {
		return storeErr(err)
	}
	return domain.ErrAlreadyResolved
}

// DeleteRequest removes a pending request. An absent row is success; a
// terminal row reports ErrAlreadyResolved.
func (r *PostgresRepository) DeleteRequest(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM follow_requests WHERE id = $1 AND status = 'pending'`, id)
	if err != nil {
		return storeErr(err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var status string
	err = r.db.QueryRow(ctx, `SELECT status FROM follow_requests WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return storeErr(err)
	}
	return domain.ErrAlreadyResolved
}

// EdgeExists reports whether followerID follows followedID.
func (r *PostgresRepository) EdgeExists(ctx context.Context, followerID, followedID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM follower_edges WHERE follower_id = $1 AND followed_id = $2)`
	if err := r.db.QueryRow(ctx, query, followerID, followedID).Scan(&exists); err != nil {
		return false, storeErr(err)
	}
	return exists, nil
}

// FollowerIDs returns the ids of everyone following userID.
func (r *PostgresRepository) FollowerIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `SELECT follower_id FROM follower_edges WHERE followed_id = $1`, userID)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, storeErr(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}
	return ids, nil
}

func scanRequest(row pgx.Row) (*domain.FollowRequest, error) {
	var req domain.FollowRequest
	err := row.Scan(&req.ID, &req.FromUserID, &req.ToUserID, &req.Status, &req.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &req, nil
}
