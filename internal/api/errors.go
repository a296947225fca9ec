package api

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/moodgraph/backend/internal/domain"
	"github.com/moodgraph/backend/pkg/response"
)

// writeDomainError maps domain sentinels onto the response envelope.
// Unknown errors are logged and reported as a generic failure.
func writeDomainError(w http.ResponseWriter, logger *zap.Logger, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrSelfRequest):
		response.BadRequest(w, err.Error())
	case errors.Is(err, domain.ErrInvalidEmotion),
		errors.Is(err, domain.ErrInvalidSocialSituation):
		response.BadRequest(w, err.Error())
	case errors.Is(err, domain.ErrDuplicateRequest),
		errors.Is(err, domain.ErrAlreadyConnected),
		errors.Is(err, domain.ErrAlreadyResolved),
		errors.Is(err, domain.ErrUsernameTaken):
		response.Conflict(w, err.Error())
	case errors.Is(err, domain.ErrRequestNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, domain.ErrNotRequestReceiver):
		response.Forbidden(w, err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		response.Unauthorized(w, err.Error())
	case errors.Is(err, domain.ErrStoreUnavailable):
		logger.Error(fallback, zap.Error(err))
		response.ServiceUnavailable(w, "store unavailable")
	default:
		logger.Error(fallback, zap.Error(err))
		response.InternalError(w, fallback)
	}
}
