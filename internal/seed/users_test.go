package seed_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/campusdesk/issue-tracker/internal/config"
	"github.com/campusdesk/issue-tracker/internal/domain"
	"github.com/campusdesk/issue-tracker/internal/repository/memory"
	"github.com/campusdesk/issue-tracker/internal/seed"
	"github.com/campusdesk/issue-tracker/internal/service"
)

var _ = Describe("Users", func() {
	It("creates the default accounts once", func() {
		ctx := context.Background()
		store := memory.NewStore()
		authService := service.NewAuthService(
			config.AuthConfig{JWTSecret: "seed-secret", BcryptCost: 4},
			service.AuthDependencies{UserRepo: store.Users()},
		)

		res, err := seed.Users(ctx, authService, seed.DefaultAccounts, zap.NewNop())
		Expect(err).NotTo(HaveOccurred())
		Expect(res).To(Equal(seed.Result{Created: 3}))

		res, err = seed.Users(ctx, authService, seed.DefaultAccounts, zap.NewNop())
		Expect(err).NotTo(HaveOccurred())
		Expect(res).To(Equal(seed.Result{Skipped: 3}))

		faculties, err := authService.ListFaculties(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(faculties).To(HaveLen(2))
		Expect(*faculties[0].School).To(Equal("SCOPE"))

		session, err := authService.Login(ctx, "operator@example.com", "operator123")
		Expect(err).NotTo(HaveOccurred())
		Expect(session.User.Role).To(Equal(domain.RoleOperator))
	})
})
