package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/moodgraph/backend/internal/domain"
)

// PostgresRepository implements the domain repositories over PostgreSQL.
// It is the only component that issues queries or writes against the store.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// storeErr wraps transport-level failures so callers can match
// domain.ErrStoreUnavailable while the cause stays in the message.
func storeErr(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation
}

// escapeLike neutralises LIKE metacharacters in user input so a prefix
// matches literally.
var escapeLike = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// CreateUser creates a new user. Username uniqueness is enforced
// case-insensitively by the store.
func (r *PostgresRepository) CreateUser(ctx context.Context, params domain.CreateUserParams) (*domain.User, error) {
	query := `
		INSERT INTO users (username, display_name, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, username, display_name, created_at
	`

	row := r.db.QueryRow(ctx, query, params.Username, params.DisplayName, params.PasswordHash)

	user, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrUsernameTaken
		}
		return nil, storeErr(err)
	}
	return user, nil
}

// GetUserByID retrieves a user by ID
func (r *PostgresRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `
		SELECT id, username, display_name, created_at
		FROM users WHERE id = $1
	`
	row := r.db.QueryRow(ctx, query, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, storeErr(err)
	}
	return user, nil
}

// GetUserByUsername retrieves a user by username, case-insensitively.
func (r *PostgresRepository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `
		SELECT id, username, display_name, created_at
		FROM users WHERE lower(username) = lower($1)
	`
	row := r.db.QueryRow(ctx, query, username)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, storeErr(err)
	}
	return user, nil
}

// GetUserPasswordHash retrieves a user with password hash for verification
func (r *PostgresRepository) GetUserPasswordHash(ctx context.Context, username string) (*domain.User, string, error) {
	query := `
		SELECT id, username, display_name, created_at, password_hash
		FROM users WHERE lower(username) = lower($1)
	`
	row := r.db.QueryRow(ctx, query, username)

	var user domain.User
	var hash string
	err := row.Scan(&user.ID, &user.Username, &user.DisplayName, &user.CreatedAt, &hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", domain.ErrUserNotFound
		}
		return nil, "", storeErr(err)
	}

	return &user, hash, nil
}

// SearchUsers finds users by username prefix, case-insensitively.
func (r *PostgresRepository) SearchUsers(ctx context.Context, prefix string, excludeID uuid.UUID, limit int) ([]*domain.User, error) {
	query := `
		SELECT id, username, display_name, created_at
		FROM users
		WHERE lower(username) LIKE lower($1) || '%' AND id <> $2
		ORDER BY lower(username)
		LIMIT $3
	`
	rows, err := r.db.Query(ctx, query, escapeLike.Replace(prefix), excludeID, limit)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	users := []*domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, storeErr(err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}
	return users, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(&user.ID, &user.Username, &user.DisplayName, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
