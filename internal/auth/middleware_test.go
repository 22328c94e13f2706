package auth_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"time"

	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/campusdesk/issue-tracker/internal/auth"
	"github.com/campusdesk/issue-tracker/internal/domain"
	"github.com/campusdesk/issue-tracker/internal/repository/memory"
	apperrors "github.com/campusdesk/issue-tracker/pkg/util/errorutil"
)

// errorJSON renders DomainErrors the way the API does, minus logging.
func errorJSON(c *fiber.Ctx, err error) error {
	de := apperrors.ToDomainError(err)
	return c.Status(de.HTTPStatus).JSON(fiber.Map{"code": de.Code, "message": de.Message})
}

var _ = Describe("AuthMiddleware", func() {
	var (
		tokens   *auth.TokenManager
		store    *memory.Store
		mw       *auth.AuthMiddleware
		operator *domain.User
		faculty  *domain.User
		app      *fiber.App
	)

	BeforeEach(func() {
		tokens = auth.NewTokenManager("mw-secret", time.Hour)
		store = memory.NewStore()
		mw = auth.NewAuthMiddleware(tokens, store.Users())

		operator = &domain.User{Name: "Op", Email: "op@example.com", PasswordHash: "hash", Role: domain.RoleOperator}
		faculty = &domain.User{Name: "Fac", Email: "fac@example.com", PasswordHash: "hash", Role: domain.RoleFaculty}
		Expect(store.Users().Create(context.Background(), operator)).To(Succeed())
		Expect(store.Users().Create(context.Background(), faculty)).To(Succeed())

		app = fiber.New(fiber.Config{ErrorHandler: errorJSON})
		app.Get("/me", mw.Handle, auth.RequireAuthenticated(), func(c *fiber.Ctx) error {
			user, _ := auth.IdentityFromContext(c)
			return c.JSON(fiber.Map{"id": user.ID, "passwordHash": user.PasswordHash})
		})
		app.Get("/faculty-only", mw.Handle, auth.RequireRoles(domain.RoleFaculty), func(c *fiber.Ctx) error {
			return c.SendStatus(fiber.StatusNoContent)
		})
		app.Get("/no-auth-gate", auth.RequireRoles(domain.RoleFaculty), func(c *fiber.Ctx) error {
			return c.SendStatus(fiber.StatusNoContent)
		})
	})

	call := func(path, header string) (int, map[string]any) {
		req := httptest.NewRequest("GET", path, nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req)
		Expect(err).NotTo(HaveOccurred())
		body := map[string]any{}
		if resp.StatusCode != fiber.StatusNoContent {
			Expect(json.NewDecoder(resp.Body).Decode(&body)).To(Succeed())
		}
		return resp.StatusCode, body
	}

	bearer := func(u *domain.User) string {
		token, _, err := tokens.GenerateToken(u.ID, u.Role)
		Expect(err).NotTo(HaveOccurred())
		return "Bearer " + token
	}

	It("attaches the identity without its password hash", func() {
		status, body := call("/me", bearer(operator))
		Expect(status).To(Equal(fiber.StatusOK))
		Expect(body["id"]).To(Equal(operator.ID))
		Expect(body["passwordHash"]).To(BeEmpty())
	})

	It("does not clear the stored hash", func() {
		call("/me", bearer(operator))
		stored, err := store.Users().GetByID(context.Background(), operator.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.PasswordHash).To(Equal("hash"))
	})

	DescribeTable("authentication failures",
		func(header string, code string) {
			status, body := call("/me", header)
			Expect(status).To(Equal(fiber.StatusUnauthorized))
			Expect(body["code"]).To(Equal(code))
		},
		Entry("no header", "", apperrors.CodeMissingToken),
		Entry("wrong scheme", "Basic abc", apperrors.CodeMissingToken),
		Entry("empty bearer", "Bearer ", apperrors.CodeMissingToken),
		Entry("bad token", "Bearer nope", apperrors.CodeInvalidToken),
	)

	It("rejects a token whose user no longer resolves", func() {
		token, _, err := tokens.GenerateToken("3f1c8f2e-8d7a-4c64-9a55-0f1b2c3d4e5f", domain.RoleAdmin)
		Expect(err).NotTo(HaveOccurred())

		status, body := call("/me", "Bearer "+token)
		Expect(status).To(Equal(fiber.StatusUnauthorized))
		Expect(body["code"]).To(Equal(apperrors.CodeUnknownUser))
	})

	It("forbids roles outside the allowed set", func() {
		status, body := call("/faculty-only", bearer(operator))
		Expect(status).To(Equal(fiber.StatusForbidden))
		Expect(body["code"]).To(Equal(apperrors.CodeForbidden))

		status, _ = call("/faculty-only", bearer(faculty))
		Expect(status).To(Equal(fiber.StatusNoContent))
	})

	It("reports unauthenticated when no identity was attached", func() {
		status, body := call("/no-auth-gate", "")
		Expect(status).To(Equal(fiber.StatusUnauthorized))
		Expect(body["code"]).To(Equal(apperrors.CodeUnauthenticated))
	})
})

var _ = Describe("Authorize", func() {
	It("checks membership in the role set", func() {
		allowed := auth.Roles(domain.RoleOperator, domain.RoleAdmin)
		Expect(auth.Authorize(&domain.User{Role: domain.RoleAdmin}, allowed)).To(Succeed())
		Expect(apperrors.HasCode(auth.Authorize(&domain.User{Role: domain.RoleFaculty}, allowed), apperrors.CodeForbidden)).To(BeTrue())
		Expect(apperrors.HasCode(auth.Authorize(nil, allowed), apperrors.CodeUnauthenticated)).To(BeTrue())
	})
})
