package domain

import "errors"

var (
	// Follow workflow
	ErrSelfRequest        = errors.New("cannot follow yourself")
	ErrDuplicateRequest   = errors.New("follow request already pending")
	ErrAlreadyConnected   = errors.New("already following this user")
	ErrRequestNotFound    = errors.New("follow request not found")
	ErrAlreadyResolved    = errors.New("follow request already resolved")
	ErrNotRequestReceiver = errors.New("only the request receiver may resolve it")

	// Accounts
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrStoreUnavailable wraps transport failures talking to the store;
	// match with errors.Is.
	ErrStoreUnavailable = errors.New("store unavailable")
)
