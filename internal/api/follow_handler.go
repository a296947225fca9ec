package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/moodgraph/backend/internal/domain"
	"github.com/moodgraph/backend/internal/middleware"
	"github.com/moodgraph/backend/pkg/response"
)

// FollowHandler exposes the follow-request workflow over HTTP.
type FollowHandler struct {
	follows *domain.FollowGraphService
	hub     *FeedEventsHub
	logger  *zap.Logger
}

func NewFollowHandler(follows *domain.FollowGraphService, hub *FeedEventsHub, logger *zap.Logger) *FollowHandler {
	return &FollowHandler{
		follows: follows,
		hub:     hub,
		logger:  logger,
	}
}

// SendRequest handles POST /follows/requests
func (h *FollowHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "not authenticated")
		return
	}

	var req struct {
		ToUserID string `json:"to_user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	toID, err := uuid.Parse(req.ToUserID)
	if err != nil {
		response.BadRequest(w, "invalid target user id")
		return
	}

	request, err := h.follows.SendFollowRequest(r.Context(), userID, toID)
	if err != nil {
		writeDomainError(w, h.logger, err, "failed to send follow request")
		return
	}

	response.Created(w, request)
}

// ListIncoming handles GET /follows/requests
func (h *FollowHandler) ListIncoming(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "not authenticated")
		return
	}

	requests, err := h.follows.ListIncomingRequests(r.Context(), userID)
	if err != nil {
		writeDomainError(w, h.logger, err, "failed to list follow requests")
		return
	}

	response.OK(w, requests)
}

// Accept handles POST /follows/requests/{id}/accept
func (h *FollowHandler) Accept(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "not authenticated")
		return
	}

	requestID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid request id")
		return
	}

	edge, err := h.follows.AcceptFollowRequest(r.Context(), userID, requestID)
	if err != nil {
		writeDomainError(w, h.logger, err, "failed to accept follow request")
		return
	}

	if h.hub != nil {
		h.hub.PublishToUser(edge.FollowerID, domain.EventFollowAccepted, edge)
	}

	response.OK(w, edge)
}

// Decline handles POST /follows/requests/{id}/decline
func (h *FollowHandler) Decline(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "not authenticated")
		return
	}

	requestID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid request id")
		return
	}

	if err := h.follows.DeclineFollowRequest(r.Context(), userID, requestID); err != nil {
		writeDomainError(w, h.logger, err, "failed to decline follow request")
		return
	}

	response.NoContent(w)
}
