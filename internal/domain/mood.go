package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Emotion is the emotional state attached to a mood event.
type Emotion string

const (
	EmotionHappy     Emotion = "happy"
	EmotionSad       Emotion = "sad"
	EmotionAngry     Emotion = "angry"
	EmotionDisgusted Emotion = "disgusted"
	EmotionScared    Emotion = "scared"
	EmotionSurprised Emotion = "surprised"
)

var validEmotions = map[Emotion]struct{}{
	EmotionHappy:     {},
	EmotionSad:       {},
	EmotionAngry:     {},
	EmotionDisgusted: {},
	EmotionScared:    {},
	EmotionSurprised: {},
}

// Valid reports whether the emotion is one of the recognised states.
func (e Emotion) Valid() bool {
	_, ok := validEmotions[e]
	return ok
}

// SocialSituation describes the company a mood was experienced in.
type SocialSituation string

const (
	SituationAlone         SocialSituation = "alone"
	SituationOnePerson     SocialSituation = "with_one_person"
	SituationSeveralPeople SocialSituation = "with_several_people"
	SituationCrowd         SocialSituation = "with_a_crowd"
)

var validSituations = map[SocialSituation]struct{}{
	SituationAlone:         {},
	SituationOnePerson:     {},
	SituationSeveralPeople: {},
	SituationCrowd:         {},
}

// Valid reports whether the situation is one of the recognised values.
func (s SocialSituation) Valid() bool {
	_, ok := validSituations[s]
	return ok
}

// MoodEvent is a single mood shared by a user.
type MoodEvent struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"user_id"`
	Emotion         Emotion   `json:"emotion"`
	Reason          *string   `json:"reason,omitempty"`
	SocialSituation *string   `json:"social_situation,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// CreateMoodParams carries the fields needed to post a mood event.
type CreateMoodParams struct {
	UserID          uuid.UUID
	Emotion         Emotion
	Reason          *string
	SocialSituation *string
}

// FeedEntry is one row of a user's feed: the latest mood of one followed
// user.
type FeedEntry struct {
	OwnerID   uuid.UUID `json:"owner_id"`
	AuthorID  uuid.UUID `json:"author_id"`
	Mood      MoodEvent `json:"mood"`
	UpdatedAt time.Time `json:"updated_at"`

	Author *User `json:"author,omitempty"`
}

type MoodRepository interface {
	CreateMoodEvent(ctx context.Context, params CreateMoodParams) (*MoodEvent, error)

	// LatestMoodEvent returns userID's most recent mood, or nil when the
	// user has not posted any.
	LatestMoodEvent(ctx context.Context, userID uuid.UUID) (*MoodEvent, error)

	// UpsertFeedEntry makes moodEventID the feed entry for authorID in
	// ownerID's feed, replacing any previous entry for that author.
	UpsertFeedEntry(ctx context.Context, ownerID, authorID, moodEventID uuid.UUID) error

	// FanOutMood upserts moodEventID into the feed of every current
	// follower of authorID in one statement.
	FanOutMood(ctx context.Context, authorID, moodEventID uuid.UUID) error

	// GetFeed returns ownerID's feed, newest mood first. Never returns a
	// nil slice.
	GetFeed(ctx context.Context, ownerID uuid.UUID) ([]*FeedEntry, error)
}
