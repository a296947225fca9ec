package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RequestStatus is the lifecycle state of a follow request. A request is
// created pending and moves to exactly one terminal status.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusAccepted RequestStatus = "accepted"
	StatusDeclined RequestStatus = "declined"
)

// Terminal reports whether the status permits no further transitions.
func (s RequestStatus) Terminal() bool {
	return s == StatusAccepted || s == StatusDeclined
}

// FollowRequest is a proposal by FromUserID to follow ToUserID.
type FollowRequest struct {
	ID         uuid.UUID     `json:"id"`
	FromUserID uuid.UUID     `json:"from_user_id"`
	ToUserID   uuid.UUID     `json:"to_user_id"`
	Status     RequestStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`

	// For API responses
	FromUser *User `json:"from_user,omitempty"`
}

// FollowerEdge is an established directed follow relationship, created only
// when a request is accepted.
type FollowerEdge struct {
	FollowerID uuid.UUID `json:"follower_id"`
	FollowedID uuid.UUID `json:"followed_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// FollowRepository is the only component that touches the store's
// follow-request and edge records. Every writer goes through it.
type FollowRepository interface {
	// PendingRequestsTo lists pending requests addressed to userID, ordered
	// by creation time then id. Never returns a nil slice.
	PendingRequestsTo(ctx context.Context, userID uuid.UUID) ([]*FollowRequest, error)

	// PendingRequestBetween returns the pending request for the ordered
	// pair, or nil when none exists.
	PendingRequestBetween(ctx context.Context, fromID, toID uuid.UUID) (*FollowRequest, error)

	// RequestByID returns a request in any status, or ErrRequestNotFound.
	RequestByID(ctx context.Context, id uuid.UUID) (*FollowRequest, error)

	// CreateRequest inserts a new pending request. Fails with
	// ErrSelfRequest or ErrDuplicateRequest.
	CreateRequest(ctx context.Context, fromID, toID uuid.UUID) (*FollowRequest, error)

	// ResolveRequest moves a pending request to the given terminal status.
	// Accepting also creates the follower edge; the status flip and the
	// edge insert are one atomic unit, so of two concurrent resolves
	// exactly one succeeds. Fails with ErrRequestNotFound when the request
	// does not exist and ErrAlreadyResolved when it is already terminal.
	ResolveRequest(ctx context.Context, id uuid.UUID, outcome RequestStatus) (*FollowerEdge, error)

	// DeleteRequest removes a pending request. Deleting a request that no
	// longer exists is a success; deleting one that reached a terminal
	// status fails with ErrAlreadyResolved.
	DeleteRequest(ctx context.Context, id uuid.UUID) error

	// EdgeExists reports whether followerID already follows followedID.
	EdgeExists(ctx context.Context, followerID, followedID uuid.UUID) (bool, error)

	// FollowerIDs returns the ids of everyone following userID.
	FollowerIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}
