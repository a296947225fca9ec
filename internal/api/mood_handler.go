package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/moodgraph/backend/internal/domain"
	"github.com/moodgraph/backend/internal/middleware"
	"github.com/moodgraph/backend/pkg/response"
	"github.com/moodgraph/backend/pkg/validator"
)

const (
	maxReasonLength    = 280
	maxSituationLength = 60
)

// MoodHandler exposes mood posting and the feed view.
type MoodHandler struct {
	moods  *domain.MoodService
	logger *zap.Logger
}

func NewMoodHandler(moods *domain.MoodService, logger *zap.Logger) *MoodHandler {
	return &MoodHandler{
		moods:  moods,
		logger: logger,
	}
}

// PostMood handles POST /moods
func (h *MoodHandler) PostMood(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "not authenticated")
		return
	}

	var req struct {
		Emotion         string  `json:"emotion"`
		Reason          *string `json:"reason,omitempty"`
		SocialSituation *string `json:"social_situation,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if req.Reason != nil {
		trimmed := validator.SanitizeString(*req.Reason, maxReasonLength)
		req.Reason = &trimmed
	}
	if req.SocialSituation != nil {
		trimmed := validator.SanitizeString(*req.SocialSituation, maxSituationLength)
		req.SocialSituation = &trimmed
	}

	mood, err := h.moods.PostMood(r.Context(), domain.CreateMoodParams{
		UserID:          userID,
		Emotion:         domain.Emotion(req.Emotion),
		Reason:          req.Reason,
		SocialSituation: req.SocialSituation,
	})
	if err != nil {
		writeDomainError(w, h.logger, err, "failed to post mood")
		return
	}

	response.Created(w, mood)
}

// GetFeed handles GET /feed
func (h *MoodHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "not authenticated")
		return
	}

	feed, err := h.moods.GetFeed(r.Context(), userID)
	if err != nil {
		writeDomainError(w, h.logger, err, "failed to load feed")
		return
	}

	response.OK(w, feed)
}
