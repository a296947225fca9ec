package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/moodgraph/backend/internal/domain"
)

// CreateMoodEvent stores a new mood event.
func (r *PostgresRepository) CreateMoodEvent(ctx context.Context, params domain.CreateMoodParams) (*domain.MoodEvent, error) {
	query := `
		INSERT INTO mood_events (user_id, emotion, reason, social_situation)
		VALUES ($1, $2, $3, $4)
		RETURNING id, user_id, emotion, reason, social_situation, created_at
	`
	mood, err := scanMood(r.db.QueryRow(ctx, query,
		params.UserID, string(params.Emotion), params.Reason, params.SocialSituation))
	if err != nil {
		return nil, storeErr(err)
	}
	return mood, nil
}

// LatestMoodEvent returns userID's most recent mood, or nil when none.
func (r *PostgresRepository) LatestMoodEvent(ctx context.Context, userID uuid.UUID) (*domain.MoodEvent, error) {
	query := `
		SELECT id, user_id, emotion, reason, social_situation, created_at
		FROM mood_events
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`
	mood, err := scanMood(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, storeErr(err)
	}
	return mood, nil
}

// UpsertFeedEntry points ownerID's feed entry for authorID at moodEventID.
func (r *PostgresRepository) UpsertFeedEntry(ctx context.Context, ownerID, authorID, moodEventID uuid.UUID) error {
	query := `
		INSERT INTO feed_entries (owner_id, author_id, mood_event_id, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (owner_id, author_id)
		DO UPDATE SET mood_event_id = excluded.mood_event_id, updated_at = now()
	`
	if _, err := r.db.Exec(ctx, query, ownerID, authorID, moodEventID); err != nil {
		return storeErr(err)
	}
	return nil
}

// FanOutMood upserts moodEventID into every current follower's feed in a
// single statement.
func (r *PostgresRepository) FanOutMood(ctx context.Context, authorID, moodEventID uuid.UUID) error {
	query := `
		INSERT INTO feed_entries (owner_id, author_id, mood_event_id, updated_at)
		SELECT follower_id, $1, $2, now()
		FROM follower_edges
		WHERE followed_id = $1
		ON CONFLICT (owner_id, author_id)
		DO UPDATE SET mood_event_id = excluded.mood_event_id, updated_at = now()
	`
	if _, err := r.db.Exec(ctx, query, authorID, moodEventID); err != nil {
		return storeErr(err)
	}
	return nil
}

// GetFeed returns ownerID's feed entries, newest mood first.
func (r *PostgresRepository) GetFeed(ctx context.Context, ownerID uuid.UUID) ([]*domain.FeedEntry, error) {
	query := `
		SELECT fe.owner_id, fe.author_id, fe.updated_at,
		       m.id, m.user_id, m.emotion, m.reason, m.social_situation, m.created_at,
		       u.id, u.username, u.display_name, u.created_at
		FROM feed_entries fe
		JOIN mood_events m ON m.id = fe.mood_event_id
		JOIN users u ON u.id = fe.author_id
		WHERE fe.owner_id = $1
		ORDER BY m.created_at DESC, m.id DESC
	`
	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	feed := []*domain.FeedEntry{}
	for rows.Next() {
		var entry domain.FeedEntry
		var author domain.User
		err := rows.Scan(
			&entry.OwnerID, &entry.AuthorID, &entry.UpdatedAt,
			&entry.Mood.ID, &entry.Mood.UserID, &entry.Mood.Emotion,
			&entry.Mood.Reason, &entry.Mood.SocialSituation, &entry.Mood.CreatedAt,
			&author.ID, &author.Username, &author.DisplayName, &author.CreatedAt,
		)
		if err != nil {
			return nil, storeErr(err)
		}
		entry.Author = &author
		feed = append(feed, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}
	return feed, nil
}

func scanMood(row pgx.Row) (*domain.MoodEvent, error) {
	var mood domain.MoodEvent
	err := row.Scan(&mood.ID, &mood.UserID, &mood.Emotion, &mood.Reason, &mood.SocialSituation, &mood.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &mood, nil
}
