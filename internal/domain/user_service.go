package domain

import (
	"context"

	"github.com/google/uuid"

	"github.com/moodgraph/backend/internal/auth"
)

const searchLimit = 20

// UserService handles registration, login and user search.
type UserService struct {
	repo       UserRepository
	jwtManager *auth.JWTManager
}

func NewUserService(repo UserRepository, jwtManager *auth.JWTManager) *UserService {
	return &UserService{
		repo:       repo,
		jwtManager: jwtManager,
	}
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// Register creates an account. Usernames are unique case-insensitively.
func (s *UserService) Register(ctx context.Context, username, displayName, password string) (*AuthResult, error) {
	existing, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil && err != ErrUserNotFound {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.CreateUser(ctx, CreateUserParams{
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, err
	}

	return s.issueToken(user)
}

// Login verifies credentials and issues a token.
func (s *UserService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	user, hash, err := s.repo.GetUserPasswordHash(ctx, username)
	if err != nil {
		if err == ErrUserNotFound {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := auth.VerifyPassword(password, hash); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issueToken(user)
}

// Me returns the account behind an authenticated user id.
func (s *UserService) Me(ctx context.Context, userID uuid.UUID) (*User, error) {
	return s.repo.GetUserByID(ctx, userID)
}

// SearchUsers finds users by username prefix, excluding the caller.
func (s *UserService) SearchUsers(ctx context.Context, callerID uuid.UUID, prefix string) ([]*User, error) {
	if prefix == "" {
		return []*User{}, nil
	}
	users, err := s.repo.SearchUsers(ctx, prefix, callerID, searchLimit)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []*User{}
	}
	return users, nil
}

func (s *UserService) issueToken(user *User) (*AuthResult, error) {
	token, err := s.jwtManager.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token}, nil
}
