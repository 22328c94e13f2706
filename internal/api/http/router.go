package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/campusdesk/issue-tracker/internal/api/http/handlers"
	"github.com/campusdesk/issue-tracker/internal/auth"
	"github.com/campusdesk/issue-tracker/internal/domain"
)

// Banner is served on GET /.
const Banner = "Issue tracker API is running"

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Issues         *handlers.IssuesHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(Banner)
	})

	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated(), cfg.Auth.Me)
	authGroup.Get("/faculties", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated(), cfg.Auth.Faculties)

	staff := auth.RequireRoles(domain.RoleOperator, domain.RoleFaculty, domain.RoleAdmin)

	issues := app.Group("/issues", cfg.AuthMiddleware.Handle)
	issues.Post("/", auth.RequireRoles(domain.RoleOperator, domain.RoleAdmin), cfg.Issues.Create)
	issues.Get("/", staff, cfg.Issues.List)
	// must precede /:id
	issues.Get("/open", auth.RequireAuthenticated(), cfg.Issues.ListOpen)
	issues.Get("/:id", staff, cfg.Issues.Get)
	issues.Patch("/:id/pick", auth.RequireRoles(domain.RoleFaculty), cfg.Issues.Pick)
	issues.Patch("/:id/resolve", auth.RequireRoles(domain.RoleFaculty), cfg.Issues.Resolve)
}
