package repository

import "context"

// schema is applied idempotently at startup. The partial unique index on
// pending follow requests and the follower_edges primary key carry the
// uniqueness invariants; the resolve transaction relies on both.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		username TEXT NOT NULL,
		display_name TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_users_username ON users (lower(username))`,

	`CREATE TABLE IF NOT EXISTS follow_requests (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		from_user_id UUID NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		to_user_id UUID NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT follow_requests_no_self CHECK (from_user_id <> to_user_id)
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_follow_requests_pending
		ON follow_requests (from_user_id, to_user_id) WHERE status = 'pending'`,
	`CREATE INDEX IF NOT EXISTS idx_follow_requests_incoming
		ON follow_requests (to_user_id, created_at) WHERE status = 'pending'`,

	`CREATE TABLE IF NOT EXISTS follower_edges (
		follower_id UUID NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		followed_id UUID NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (follower_id, followed_id),
		CONSTRAINT follower_edges_no_self CHECK (follower_id <> followed_id)
	)`,

	`CREATE TABLE IF NOT EXISTS mood_events (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id UUID NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		emotion TEXT NOT NULL,
		reason TEXT,
		social_situation TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_mood_events_user
		ON mood_events (user_id, created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS feed_entries (
		owner_id UUID NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		author_id UUID NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		mood_event_id UUID NOT NULL REFERENCES mood_events (id) ON DELETE CASCADE,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (owner_id, author_id)
	)`,
}

// EnsureSchema creates tables and indexes if they do not exist yet.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := r.db.Exec(ctx, stmt); err != nil {
			return storeErr(err)
		}
	}
	return nil
}
