package service_test

import (
	"context"
	"net/http"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/campusdesk/issue-tracker/internal/auth"
	"github.com/campusdesk/issue-tracker/internal/config"
	"github.com/campusdesk/issue-tracker/internal/domain"
	"github.com/campusdesk/issue-tracker/internal/repository/memory"
	"github.com/campusdesk/issue-tracker/internal/service"
	apperrors "github.com/campusdesk/issue-tracker/pkg/util/errorutil"
)

var testAuthConfig = config.AuthConfig{JWTSecret: "service-secret", TokenTTLHours: 168, BcryptCost: 4}

var _ = Describe("AuthService", func() {
	var (
		ctx   context.Context
		store *memory.Store
		svc   *service.AuthService
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = memory.NewStore()
		svc = service.NewAuthService(testAuthConfig, service.AuthDependencies{UserRepo: store.Users()})
	})

	Describe("Register", func() {
		It("defaults to faculty and hides the hash", func() {
			user, err := svc.Register(ctx, service.RegisterInput{Name: " Dr. A ", Email: "A@Example.com ", Password: "pw"})
			Expect(err).NotTo(HaveOccurred())
			Expect(user.ID).NotTo(BeEmpty())
			Expect(user.Name).To(Equal("Dr. A"))
			Expect(user.Email).To(Equal("a@example.com"))
			Expect(user.Role).To(Equal(domain.RoleFaculty))
			Expect(user.PasswordHash).To(BeEmpty())

			stored, err := store.Users().GetByID(ctx, user.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.PasswordHash).NotTo(Equal("pw"))
			Expect(auth.ComparePassword(stored.PasswordHash, "pw")).To(Succeed())
		})

		It("keeps an optional school", func() {
			school := "SCOPE"
			user, err := svc.Register(ctx, service.RegisterInput{Name: "Dr. A", Email: "a@example.com", Password: "pw", School: &school})
			Expect(err).NotTo(HaveOccurred())
			Expect(*user.School).To(Equal("SCOPE"))
		})

		It("rejects passwords bcrypt cannot hash", func() {
			long := strings.Repeat("p", auth.MaxPasswordBytes+8)
			_, err := svc.Register(ctx, service.RegisterInput{Name: "Dr. A", Email: "a@example.com", Password: long})
			Expect(apperrors.HasCode(err, apperrors.CodeValidation)).To(BeTrue())
			Expect(apperrors.ToDomainError(err).HTTPStatus).To(Equal(http.StatusBadRequest))
			violations := apperrors.ToDomainError(err).Details["errors"].([]apperrors.FieldViolation)
			Expect(violations).To(ConsistOf(HaveField("Field", "password")))

			_, err = store.Users().GetByEmail(ctx, "a@example.com")
			Expect(err).To(HaveOccurred())
		})

		It("accepts a password of exactly 72 bytes", func() {
			_, err := svc.Register(ctx, service.RegisterInput{Name: "Dr. A", Email: "a@example.com", Password: strings.Repeat("p", auth.MaxPasswordBytes)})
			Expect(err).NotTo(HaveOccurred())
		})

		It("reports every missing field", func() {
			_, err := svc.Register(ctx, service.RegisterInput{})
			Expect(apperrors.HasCode(err, apperrors.CodeValidation)).To(BeTrue())
			violations := apperrors.ToDomainError(err).Details["errors"].([]apperrors.FieldViolation)
			fields := []string{}
			for _, v := range violations {
				fields = append(fields, v.Field)
			}
			Expect(fields).To(ConsistOf("name", "email", "password"))
		})

		It("rejects unknown roles", func() {
			_, err := svc.Register(ctx, service.RegisterInput{Name: "X", Email: "x@example.com", Password: "pw", Role: "student"})
			Expect(apperrors.HasCode(err, apperrors.CodeValidation)).To(BeTrue())
		})

		It("rejects duplicate emails regardless of case", func() {
			_, err := svc.Register(ctx, service.RegisterInput{Name: "A", Email: "a@example.com", Password: "pw"})
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.Register(ctx, service.RegisterInput{Name: "B", Email: "A@EXAMPLE.COM", Password: "pw"})
			Expect(apperrors.HasCode(err, apperrors.CodeDuplicateEmail)).To(BeTrue())
		})
	})

	Describe("Login", func() {
		BeforeEach(func() {
			_, err := svc.Register(ctx, service.RegisterInput{Name: "Op", Email: "op@example.com", Password: "secret", Role: domain.RoleOperator})
			Expect(err).NotTo(HaveOccurred())
		})

		It("issues a token carrying id and role", func() {
			session, err := svc.Login(ctx, "OP@example.com", "secret")
			Expect(err).NotTo(HaveOccurred())
			Expect(session.User.PasswordHash).To(BeEmpty())

			claims, err := svc.TokenManager().ParseToken(session.Token)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.UserID).To(Equal(session.User.ID))
			Expect(claims.Role).To(Equal(domain.RoleOperator))
		})

		It("fails the same way for unknown email and wrong password", func() {
			_, errUnknown := svc.Login(ctx, "nobody@example.com", "secret")
			_, errWrong := svc.Login(ctx, "op@example.com", "nope")

			Expect(apperrors.HasCode(errUnknown, apperrors.CodeInvalidCredentials)).To(BeTrue())
			Expect(apperrors.HasCode(errWrong, apperrors.CodeInvalidCredentials)).To(BeTrue())
			Expect(errUnknown.Error()).To(Equal(errWrong.Error()))
		})

		It("requires both fields", func() {
			_, err := svc.Login(ctx, "", "")
			Expect(apperrors.HasCode(err, apperrors.CodeValidation)).To(BeTrue())
		})
	})

	It("lists only faculty without hashes", func() {
		for _, in := range []service.RegisterInput{
			{Name: "Op", Email: "op@example.com", Password: "pw", Role: domain.RoleOperator},
			{Name: "Dr. B", Email: "b@example.com", Password: "pw"},
			{Name: "Dr. A", Email: "a@example.com", Password: "pw"},
		} {
			_, err := svc.Register(ctx, in)
			Expect(err).NotTo(HaveOccurred())
		}

		faculties, err := svc.ListFaculties(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(faculties).To(HaveLen(2))
		Expect(faculties[0].Name).To(Equal("Dr. A"))
		for _, f := range faculties {
			Expect(f.Role).To(Equal(domain.RoleFaculty))
			Expect(f.PasswordHash).To(BeEmpty())
		}
	})
})
