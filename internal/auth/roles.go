package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/campusdesk/issue-tracker/internal/domain"
	apperrors "github.com/campusdesk/issue-tracker/pkg/util/errorutil"
)

// RoleSet is an allow-list of roles for one operation.
type RoleSet map[domain.Role]struct{}

// Roles builds a RoleSet.
func Roles(allowed ...domain.Role) RoleSet {
	set := make(RoleSet, len(allowed))
	for _, role := range allowed {
		set[role] = struct{}{}
	}
	return set
}

// Allows reports whether role is in the set.
func (s RoleSet) Allows(role domain.Role) bool {
	_, ok := s[role]
	return ok
}

// Authorize checks identity against the allowed roles.
func Authorize(identity *domain.User, allowed RoleSet) error {
	if identity == nil {
		return apperrors.NewUnauthorized("unauthorized")
	}
	if !allowed.Allows(identity.Role) {
		return apperrors.NewForbidden("access denied: insufficient permissions")
	}
	return nil
}

// RequireRoles ensures the caller holds one of the allowed roles.
func RequireRoles(allowed ...domain.Role) fiber.Handler {
	allowedSet := Roles(allowed...)
	return func(c *fiber.Ctx) error {
		identity, _ := IdentityFromContext(c)
		if err := Authorize(identity, allowedSet); err != nil {
			return err
		}
		return c.Next()
	}
}

// RequireAuthenticated ensures any caller identity is attached.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := IdentityFromContext(c); !ok {
			return apperrors.NewUnauthorized("unauthorized")
		}
		return c.Next()
	}
}
