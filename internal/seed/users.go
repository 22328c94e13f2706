// Package seed registers the default accounts used in development.
package seed

import (
	"context"

	"go.uber.org/zap"

	"github.com/campusdesk/issue-tracker/internal/domain"
	"github.com/campusdesk/issue-tracker/internal/service"
	apperrors "github.com/campusdesk/issue-tracker/pkg/util/errorutil"
)

// Account is one user to seed.
type Account struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
	School   string
}

// DefaultAccounts are the development users.
var DefaultAccounts = []Account{
	{Name: "Operator One", Email: "operator@example.com", Password: "operator123", Role: domain.RoleOperator},
	{Name: "Dr. Faculty A", Email: "faculty.a@example.com", Password: "faculty123", Role: domain.RoleFaculty, School: "SCOPE"},
	{Name: "Dr. Faculty B", Email: "faculty.b@example.com", Password: "faculty123", Role: domain.RoleFaculty, School: "SMEC"},
}

// Result counts what a seeding run did.
type Result struct {
	Created int
	Skipped int
}

// Users registers each account, skipping emails that already exist.
func Users(ctx context.Context, authService *service.AuthService, accounts []Account, logger *zap.Logger) (Result, error) {
	var res Result
	for _, a := range accounts {
		var school *string
		if a.School != "" {
			s := a.School
			school = &s
		}
		_, err := authService.Register(ctx, service.RegisterInput{
			Name:     a.Name,
			Email:    a.Email,
			Password: a.Password,
			Role:     a.Role,
			School:   school,
		})
		if apperrors.HasCode(err, apperrors.CodeDuplicateEmail) {
			logger.Info("skipping existing user", zap.String("email", a.Email))
			res.Skipped++
			continue
		}
		if err != nil {
			return res, err
		}
		logger.Info("seeded user", zap.String("email", a.Email), zap.String("role", string(a.Role)))
		res.Created++
	}
	return res, nil
}
