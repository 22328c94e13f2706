package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/campusdesk/issue-tracker/internal/domain"
	"github.com/campusdesk/issue-tracker/internal/repository"
	apperrors "github.com/campusdesk/issue-tracker/pkg/util/errorutil"
)

const identityKey = "auth_identity"

// UserLookup resolves token subjects to persisted users.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// AuthMiddleware validates bearer tokens and attaches the caller identity.
type AuthMiddleware struct {
	tokens *TokenManager
	users  UserLookup
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, users UserLookup) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users}
}

// Authenticate resolves an Authorization header value to a user.
func (m *AuthMiddleware) Authenticate(ctx context.Context, authHeader string) (*domain.User, error) {
	token, ok := bearerToken(authHeader)
	if !ok {
		return nil, apperrors.NewMissingToken()
	}

	claims, err := m.tokens.ParseToken(token)
	if err != nil {
		return nil, apperrors.NewInvalidToken(err)
	}

	user, err := m.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUnknownUser()
		}
		return nil, apperrors.MapError(err)
	}
	user.PasswordHash = ""
	return user, nil
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	user, err := m.Authenticate(c.UserContext(), c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return err
	}
	c.Locals(identityKey, user)
	return c.Next()
}

// IdentityFromContext retrieves the authenticated user.
func IdentityFromContext(c *fiber.Ctx) (*domain.User, bool) {
	val := c.Locals(identityKey)
	if val == nil {
		return nil, false
	}
	user, ok := val.(*domain.User)
	return user, ok && user != nil
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
