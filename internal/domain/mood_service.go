package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Feed event names pushed to connected clients.
const (
	EventFeedUpdated    = "feed.updated"
	EventFollowAccepted = "follow.accepted"
)

// FeedEventPublisher pushes a best-effort event to a user's connected
// clients. Implementations must not block.
type FeedEventPublisher interface {
	PublishToUser(userID uuid.UUID, event string, payload interface{})
}

// MoodService stores mood events and maintains each user's feed view: one
// entry per followed user, holding their latest mood. It also implements
// FeedPropagator for the follow workflow.
type MoodService struct {
	repo   MoodRepository
	graph  FollowRepository
	events FeedEventPublisher
	logger *zap.Logger
}

func NewMoodService(repo MoodRepository, graph FollowRepository, events FeedEventPublisher, logger *zap.Logger) *MoodService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MoodService{
		repo:   repo,
		graph:  graph,
		events: events,
		logger: logger,
	}
}

var (
	// ErrInvalidEmotion rejects mood events with an unrecognised emotion.
	ErrInvalidEmotion = errors.New("invalid emotion")
	// ErrInvalidSocialSituation rejects mood events with an unrecognised
	// social situation.
	ErrInvalidSocialSituation = errors.New("invalid social situation")
)

// PostMood stores a mood event and fans it out to the feeds of everyone
// currently following the author. Connected followers get a feed.updated
// push; push delivery is best-effort.
func (s *MoodService) PostMood(ctx context.Context, params CreateMoodParams) (*MoodEvent, error) {
	if !params.Emotion.Valid() {
		return nil, ErrInvalidEmotion
	}
	if params.SocialSituation != nil && !SocialSituation(*params.SocialSituation).Valid() {
		return nil, ErrInvalidSocialSituation
	}

	mood, err := s.repo.CreateMoodEvent(ctx, params)
	if err != nil {
		return nil, err
	}

	if err := s.repo.FanOutMood(ctx, mood.UserID, mood.ID); err != nil {
		// The mood itself is stored; a follower that missed the fanout
		// catches up on the author's next post or a fresh propagation.
		s.logger.Warn("mood fanout failed",
			zap.String("user_id", mood.UserID.String()),
			zap.Error(err),
		)
		return mood, nil
	}

	s.notifyFollowers(ctx, mood)

	return mood, nil
}

// GetFeed returns the caller's feed: the latest mood of each followed user,
// newest first.
func (s *MoodService) GetFeed(ctx context.Context, userID uuid.UUID) ([]*FeedEntry, error) {
	feed, err := s.repo.GetFeed(ctx, userID)
	if err != nil {
		return nil, err
	}
	if feed == nil {
		feed = []*FeedEntry{}
	}
	return feed, nil
}

// PropagateLatestMood copies followedID's most recent mood into
// followerID's feed. A followed user with no moods yet is a no-op success.
func (s *MoodService) PropagateLatestMood(ctx context.Context, followerID, followedID uuid.UUID) error {
	mood, err := s.repo.LatestMoodEvent(ctx, followedID)
	if err != nil {
		return err
	}
	if mood == nil {
		return nil
	}

	if err := s.repo.UpsertFeedEntry(ctx, followerID, followedID, mood.ID); err != nil {
		return err
	}

	if s.events != nil {
		s.events.PublishToUser(followerID, EventFeedUpdated, mood)
	}
	return nil
}

func (s *MoodService) notifyFollowers(ctx context.Context, mood *MoodEvent) {
	if s.events == nil {
		return
	}

	followers, err := s.graph.FollowerIDs(ctx, mood.UserID)
	if err != nil {
		s.logger.Warn("listing followers for push failed",
			zap.String("user_id", mood.UserID.String()),
			zap.Error(err),
		)
		return
	}
	for _, followerID := range followers {
		s.events.PublishToUser(followerID, EventFeedUpdated, mood)
	}
}
