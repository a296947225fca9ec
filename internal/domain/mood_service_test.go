package domain

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
)

type memoryMoodRepo struct {
	mu        sync.Mutex
	moods     []*MoodEvent
	feeds     map[uuid.UUID]map[uuid.UUID]uuid.UUID // owner -> author -> mood event
	fanouts   int
	upserts   int
	latestErr error
}

func newMemoryMoodRepo() *memoryMoodRepo {
	return &memoryMoodRepo{feeds: make(map[uuid.UUID]map[uuid.UUID]uuid.UUID)}
}

func (s *memoryMoodRepo) CreateMoodEvent(_ context.Context, params CreateMoodParams) (*MoodEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mood := &MoodEvent{
		ID:              uuid.New(),
		UserID:          params.UserID,
		Emotion:         params.Emotion,
		Reason:          params.Reason,
		SocialSituation: params.SocialSituation,
	}
	s.moods = append(s.moods, mood)
	return mood, nil
}

func (s *memoryMoodRepo) LatestMoodEvent(_ context.Context, userID uuid.UUID) (*MoodEvent, error) {
	if s.latestErr != nil {
		return nil, s.latestErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.moods) - 1; i >= 0; i-- {
		if s.moods[i].UserID == userID {
			return s.moods[i], nil
		}
	}
	return nil, nil
}

func (s *memoryMoodRepo) UpsertFeedEntry(_ context.Context, ownerID, authorID, moodEventID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.feeds[ownerID]; !ok {
		s.feeds[ownerID] = make(map[uuid.UUID]uuid.UUID)
	}
	s.feeds[ownerID][authorID] = moodEventID
	s.upserts++
	return nil
}

func (s *memoryMoodRepo) FanOutMood(_ context.Context, authorID, moodEventID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fanouts++
	return nil
}

func (s *memoryMoodRepo) GetFeed(_ context.Context, ownerID uuid.UUID) ([]*FeedEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := []*FeedEntry{}
	for authorID, moodID := range s.feeds[ownerID] {
		entries = append(entries, &FeedEntry{
			OwnerID:  ownerID,
			AuthorID: authorID,
			Mood:     MoodEvent{ID: moodID, UserID: authorID},
		})
	}
	return entries, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	pushes []struct {
		userID uuid.UUID
		event  string
	}
}

func (p *recordingPublisher) PublishToUser(userID uuid.UUID, event string, _ interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pushes = append(p.pushes, struct {
		userID uuid.UUID
		event  string
	}{userID, event})
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pushes)
}

func TestPostMoodRejectsUnknownEmotion(t *testing.T) {
	svc := NewMoodService(newMemoryMoodRepo(), newMemoryFollowRepo(), nil, nil)

	_, err := svc.PostMood(context.Background(), CreateMoodParams{
		UserID:  uuid.New(),
		Emotion: Emotion("ecstatic"),
	})
	if !errors.Is(err, ErrInvalidEmotion) {
		t.Fatalf("expected ErrInvalidEmotion, got %v", err)
	}
}

func TestPostMoodFansOutAndNotifies(t *testing.T) {
	ctx := context.Background()
	moodRepo := newMemoryMoodRepo()
	graph := newMemoryFollowRepo()
	publisher := &recordingPublisher{}
	svc := NewMoodService(moodRepo, graph, publisher, nil)

	bob := uuid.New()
	follower := uuid.New()
	graph.edges[[2]uuid.UUID{follower, bob}] = FollowerEdge{FollowerID: follower, FollowedID: bob}

	mood, err := svc.PostMood(ctx, CreateMoodParams{UserID: bob, Emotion: EmotionHappy})
	if err != nil {
		t.Fatalf("post mood: %v", err)
	}
	if mood.Emotion != EmotionHappy {
		t.Fatalf("stored wrong emotion %q", mood.Emotion)
	}

	if moodRepo.fanouts != 1 {
		t.Fatalf("expected one fanout, got %d", moodRepo.fanouts)
	}
	if publisher.count() != 1 {
		t.Fatalf("expected one push, got %d", publisher.count())
	}
	if publisher.pushes[0].userID != follower || publisher.pushes[0].event != EventFeedUpdated {
		t.Fatalf("pushed wrong event: %+v", publisher.pushes[0])
	}
}

func TestPropagateLatestMood(t *testing.T) {
	ctx := context.Background()
	moodRepo := newMemoryMoodRepo()
	publisher := &recordingPublisher{}
	svc := NewMoodService(moodRepo, newMemoryFollowRepo(), publisher, nil)

	bob := uuid.New()
	follower := uuid.New()

	// A followed user with no moods is a no-op success.
	if err := svc.PropagateLatestMood(ctx, follower, bob); err != nil {
		t.Fatalf("propagation with no moods should succeed: %v", err)
	}
	if moodRepo.upserts != 0 {
		t.Fatalf("expected no upsert, got %d", moodRepo.upserts)
	}

	first, err := moodRepo.CreateMoodEvent(ctx, CreateMoodParams{UserID: bob, Emotion: EmotionSad})
	if err != nil {
		t.Fatalf("create mood: %v", err)
	}
	latest, err := moodRepo.CreateMoodEvent(ctx, CreateMoodParams{UserID: bob, Emotion: EmotionHappy})
	if err != nil {
		t.Fatalf("create mood: %v", err)
	}
	_ = first

	if err := svc.PropagateLatestMood(ctx, follower, bob); err != nil {
		t.Fatalf("propagate: %v", err)
	}

	if got := moodRepo.feeds[follower][bob]; got != latest.ID {
		t.Fatalf("feed entry points at %v, want latest %v", got, latest.ID)
	}
	if publisher.count() != 1 {
		t.Fatalf("expected a feed.updated push, got %d", publisher.count())
	}
}

func TestPropagateLatestMoodStoreFailure(t *testing.T) {
	moodRepo := newMemoryMoodRepo()
	moodRepo.latestErr = ErrStoreUnavailable
	svc := NewMoodService(moodRepo, newMemoryFollowRepo(), nil, nil)

	err := svc.PropagateLatestMood(context.Background(), uuid.New(), uuid.New())
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestGetFeedNeverNil(t *testing.T) {
	svc := NewMoodService(newMemoryMoodRepo(), newMemoryFollowRepo(), nil, nil)

	feed, err := svc.GetFeed(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("get feed: %v", err)
	}
	if feed == nil {
		t.Fatal("feed must never be nil")
	}
}

func TestPostMoodSocialSituation(t *testing.T) {
	ctx := context.Background()
	svc := NewMoodService(newMemoryMoodRepo(), newMemoryFollowRepo(), nil, nil)

	situation := string(SituationAlone)
	mood, err := svc.PostMood(ctx, CreateMoodParams{
		UserID:          uuid.New(),
		Emotion:         EmotionHappy,
		SocialSituation: &situation,
	})
	if err != nil {
		t.Fatalf("post mood: %v", err)
	}
	if mood.SocialSituation == nil || *mood.SocialSituation != situation {
		t.Fatalf("expected situation to be stored, got %v", mood.SocialSituation)
	}

	unknown := "at the gym"
	if _, err := svc.PostMood(ctx, CreateMoodParams{
		UserID:          uuid.New(),
		Emotion:         EmotionHappy,
		SocialSituation: &unknown,
	}); !errors.Is(err, ErrInvalidSocialSituation) {
		t.Fatalf("expected ErrInvalidSocialSituation, got %v", err)
	}
}
