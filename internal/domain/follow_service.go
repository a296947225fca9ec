package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/moodgraph/backend/pkg/result"
)

// FeedPropagator makes a newly followed user's latest mood event visible in
// the follower's feed. Failures are reported out of band and never undo an
// accepted request.
type FeedPropagator interface {
	PropagateLatestMood(ctx context.Context, followerID, followedID uuid.UUID) error
}

const propagationTimeout = 10 * time.Second

// FollowGraphService orchestrates the follow-request workflow: creation,
// listing, accept and decline. Requests move pending -> accepted or
// pending -> declined, both terminal.
type FollowGraphService struct {
	repo       FollowRepository
	propagator FeedPropagator
	logger     *zap.Logger

	// scope bounds delivery of propagation outcomes; once it is done,
	// in-flight outcomes are dropped instead of delivered.
	scope context.Context

	// OnPropagationFailure, when set, receives feed propagation failures
	// after an accepted request. The accept itself has already succeeded.
	OnPropagationFailure func(edge FollowerEdge, err error)
}

// NewFollowGraphService wires the workflow to its repository and the
// best-effort feed propagator. propagator may be nil. scope owns the
// service lifecycle; nil means the service outlives every call.
func NewFollowGraphService(scope context.Context, repo FollowRepository, propagator FeedPropagator, logger *zap.Logger) *FollowGraphService {
	if scope == nil {
		scope = context.Background()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FollowGraphService{
		repo:       repo,
		propagator: propagator,
		logger:     logger,
		scope:      scope,
	}
}

// SendFollowRequest creates a pending request from fromID to toID. It
// rejects self-follows before touching the store, and rejects pairs that
// are already connected by a pending request or an accepted edge.
func (s *FollowGraphService) SendFollowRequest(ctx context.Context, fromID, toID uuid.UUID) (*FollowRequest, error) {
	if fromID == toID {
		return nil, ErrSelfRequest
	}

	following, err := s.repo.EdgeExists(ctx, fromID, toID)
	if err != nil {
		return nil, err
	}
	if following {
		return nil, ErrAlreadyConnected
	}

	pending, err := s.repo.PendingRequestBetween(ctx, fromID, toID)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		return nil, ErrDuplicateRequest
	}

	return s.repo.CreateRequest(ctx, fromID, toID)
}

// ListIncomingRequests returns the pending requests addressed to userID in
// display order. The returned slice is a full replacement snapshot, not a
// delta; a request it contains may be resolved concurrently.
func (s *FollowGraphService) ListIncomingRequests(ctx context.Context, userID uuid.UUID) ([]*FollowRequest, error) {
	requests, err := s.repo.PendingRequestsTo(ctx, userID)
	if err != nil {
		return nil, err
	}
	if requests == nil {
		requests = []*FollowRequest{}
	}
	return requests, nil
}

// AcceptFollowRequest resolves a pending request as accepted and creates
// the follower edge as one atomic unit. Only the addressee may accept. On
// success, feed propagation is started on its own goroutine; its failure is
// logged and reported through OnPropagationFailure, never as an accept
// failure.
func (s *FollowGraphService) AcceptFollowRequest(ctx context.Context, actorID, requestID uuid.UUID) (*FollowerEdge, error) {
	request, err := s.repo.RequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.ToUserID != actorID {
		return nil, ErrNotRequestReceiver
	}
	if request.Status.Terminal() {
		return nil, ErrAlreadyResolved
	}

	edge, err := s.repo.ResolveRequest(ctx, requestID, StatusAccepted)
	if err != nil {
		return nil, err
	}

	s.propagate(*edge)

	return edge, nil
}

// DeclineFollowRequest removes a pending request without creating an edge.
// A request that no longer exists counts as success: the desired end state
// already holds.
func (s *FollowGraphService) DeclineFollowRequest(ctx context.Context, actorID, requestID uuid.UUID) error {
	request, err := s.repo.RequestByID(ctx, requestID)
	if err != nil {
		if err == ErrRequestNotFound {
			return nil
		}
		return err
	}
	if request.ToUserID != actorID {
		return ErrNotRequestReceiver
	}
	if request.Status.Terminal() {
		return ErrAlreadyResolved
	}

	return s.repo.DeleteRequest(ctx, requestID)
}

// propagate fires the best-effort feed update for a new edge.
func (s *FollowGraphService) propagate(edge FollowerEdge) {
	if s.propagator == nil {
		return
	}

	result.Dispatch(s.scope, func() (FollowerEdge, error) {
		ctx, cancel := context.WithTimeout(context.Background(), propagationTimeout)
		defer cancel()
		return edge, s.propagator.PropagateLatestMood(ctx, edge.FollowerID, edge.FollowedID)
	}, func(res result.Result[FollowerEdge]) {
		if res.Err == nil {
			return
		}
		s.logger.Warn("feed propagation failed",
			zap.String("follower_id", edge.FollowerID.String()),
			zap.String("followed_id", edge.FollowedID.String()),
			zap.Error(res.Err),
		)
		if s.OnPropagationFailure != nil {
			s.OnPropagationFailure(res.Value, res.Err)
		}
	})
}
