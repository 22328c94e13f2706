package service

import (
	"context"
	"errors"
	"strings"

	"github.com/campusdesk/issue-tracker/internal/auth"
	"github.com/campusdesk/issue-tracker/internal/config"
	"github.com/campusdesk/issue-tracker/internal/domain"
	"github.com/campusdesk/issue-tracker/internal/repository"
	apperrors "github.com/campusdesk/issue-tracker/pkg/util/errorutil"
)

// AuthService coordinates registration, login and user lookups.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo repository.UserRepository
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL()),
		bcryptCost: cfg.BcryptCost,
	}
}

// RegisterInput describes a new account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
	School   *string
}

// Register creates a user. Role defaults to faculty.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	name := strings.TrimSpace(input.Name)
	email := normalizeEmail(input.Email)

	var violations []apperrors.FieldViolation
	if name == "" {
		violations = append(violations, apperrors.FieldViolation{Field: "name", Message: "name is required"})
	}
	if email == "" {
		violations = append(violations, apperrors.FieldViolation{Field: "email", Message: "email is required"})
	}
	switch {
	case input.Password == "":
		violations = append(violations, apperrors.FieldViolation{Field: "password", Message: "password is required"})
	case len(input.Password) > auth.MaxPasswordBytes:
		violations = append(violations, apperrors.FieldViolation{Field: "password", Message: "password must be at most 72 bytes"})
	}
	role := input.Role
	if role == "" {
		role = domain.RoleFaculty
	}
	if !role.Valid() {
		violations = append(violations, apperrors.FieldViolation{Field: "role", Message: "role must be one of operator, faculty, admin"})
	}
	if len(violations) > 0 {
		return nil, apperrors.NewFieldValidationError(violations)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		School:       trimOptional(input.School),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperrors.NewDuplicateEmail(email)
		}
		return nil, apperrors.MapError(err)
	}
	user.PasswordHash = ""
	return user, nil
}

// Login verifies credentials and issues a bearer token.
// Unknown email and wrong password fail identically.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperrors.NewValidationError("email and password required", nil)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewInvalidCredentials()
		}
		return nil, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewInvalidCredentials()
	}

	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	user.PasswordHash = ""
	return &domain.Session{Token: token, ExpiresAt: exp, User: user}, nil
}

// ListFaculties returns every faculty account without password hashes.
func (s *AuthService) ListFaculties(ctx context.Context) ([]domain.User, error) {
	faculties, err := s.users.ListByRole(ctx, domain.RoleFaculty)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	for i := range faculties {
		faculties[i].PasswordHash = ""
	}
	return faculties, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
