package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/campusdesk/issue-tracker/internal/domain"
)

const usersEmailConstraint = "users_email_key"

// UserRepository defines persistence access for users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
}

type userRepository struct {
	db DBTX
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, name, email, password_hash, role, school, created_at, updated_at`

// Create inserts the user. Email uniqueness is left to the users_email_key constraint.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (name, email, password_hash, role, school)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.School,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if isUniqueViolation(err, usersEmailConstraint) {
		return ErrDuplicateEmail
	}
	return err
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if !ValidID(id) {
		return nil, ErrNotFound
	}
	const query = `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email=$1`
	return scanUser(r.db.QueryRow(ctx, query, email))
}

func (r *userRepository) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE role=$1 ORDER BY name ASC`

	rows, err := r.db.Query(ctx, query, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *user)
	}
	return result, rows.Err()
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.School,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}
