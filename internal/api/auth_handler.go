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

// AuthHandler handles registration, login and user lookup endpoints.
type AuthHandler struct {
	users  *domain.UserService
	logger *zap.Logger
}

func NewAuthHandler(users *domain.UserService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		users:  users,
		logger: logger,
	}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register handles user registration
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	req.Username = validator.SanitizeString(req.Username, 30)
	if !validator.ValidateUsername(req.Username) {
		response.BadRequest(w, "username must be 3-30 letters, digits or underscores")
		return
	}

	if errs := validator.ValidatePassword(req.Password); errs.HasErrors() {
		response.BadRequest(w, errs.Error())
		return
	}

	req.DisplayName = validator.SanitizeString(req.DisplayName, 100)
	if req.DisplayName == "" {
		req.DisplayName = req.Username
	}
	if !validator.ValidateDisplayName(req.DisplayName) {
		response.BadRequest(w, "display name must be 1-100 characters")
		return
	}

	result, err := h.users.Register(r.Context(), req.Username, req.DisplayName, req.Password)
	if err != nil {
		writeDomainError(w, h.logger, err, "registration failed")
		return
	}

	response.Created(w, result)
}

// Login handles user login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	result, err := h.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeDomainError(w, h.logger, err, "login failed")
		return
	}

	response.OK(w, result)
}

// Me returns the authenticated user's account
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "not authenticated")
		return
	}

	user, err := h.users.Me(r.Context(), userID)
	if err != nil {
		writeDomainError(w, h.logger, err, "failed to load account")
		return
	}

	response.OK(w, user)
}

// SearchUsers handles GET /users/search?q=
func (h *AuthHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "not authenticated")
		return
	}

	prefix := validator.SanitizeString(r.URL.Query().Get("q"), 30)

	users, err := h.users.SearchUsers(r.Context(), userID, prefix)
	if err != nil {
		writeDomainError(w, h.logger, err, "user search failed")
		return
	}

	response.OK(w, users)
}
