package memory_test

import (
	"context"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/campusdesk/issue-tracker/internal/domain"
	"github.com/campusdesk/issue-tracker/internal/repository"
	"github.com/campusdesk/issue-tracker/internal/repository/memory"
)

var _ = Describe("Store", func() {
	var (
		ctx     context.Context
		clock   time.Time
		store   *memory.Store
		users   repository.UserRepository
		issues  repository.IssueRepository
		handler *domain.User
		faculty *domain.User
	)

	newIssue := func(name string, date time.Time) *domain.Issue {
		issue := &domain.Issue{
			Name:        name,
			RegNo:       "REG-" + name,
			Date:        date,
			School:      "SCOPE",
			Programme:   "BTech",
			Category:    domain.CategoryIndian,
			Gender:      domain.GenderFemale,
			Description: "hostel wifi",
			Status:      domain.IssueStatusOpen,
			HandlerID:   handler.ID,
		}
		Expect(issues.Create(ctx, issue)).To(Succeed())
		clock = clock.Add(time.Minute)
		return issue
	}

	BeforeEach(func() {
		ctx = context.Background()
		clock = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
		store = memory.NewStore(memory.WithClock(func() time.Time { return clock }))
		users = store.Users()
		issues = store.Issues()

		school := "SCOPE"
		handler = &domain.User{Name: "Operator", Email: "op@example.com", Role: domain.RoleOperator, School: &school}
		faculty = &domain.User{Name: "Dr. A", Email: "a@example.com", Role: domain.RoleFaculty, School: &school}
		Expect(users.Create(ctx, handler)).To(Succeed())
		Expect(users.Create(ctx, faculty)).To(Succeed())
	})

	Describe("users", func() {
		It("rejects duplicate emails", func() {
			dup := &domain.User{Name: "Other", Email: "a@example.com", Role: domain.RoleFaculty}
			Expect(users.Create(ctx, dup)).To(MatchError(repository.ErrDuplicateEmail))
		})

		It("returns copies", func() {
			u, err := users.GetByEmail(ctx, "a@example.com")
			Expect(err).NotTo(HaveOccurred())
			*u.School = "CHANGED"
			u.Name = "CHANGED"

			again, err := users.GetByID(ctx, faculty.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(again.Name).To(Equal("Dr. A"))
			Expect(*again.School).To(Equal("SCOPE"))
		})

		It("lists by role ordered by name", func() {
			Expect(users.Create(ctx, &domain.User{Name: "Dr. B", Email: "b@example.com", Role: domain.RoleFaculty})).To(Succeed())
			list, err := users.ListByRole(ctx, domain.RoleFaculty)
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(2))
			Expect(list[0].Name).To(Equal("Dr. A"))
			Expect(list[1].Name).To(Equal("Dr. B"))
		})

		It("reports unknown ids", func() {
			_, err := users.GetByID(ctx, "missing")
			Expect(err).To(MatchError(repository.ErrNotFound))
		})
	})

	Describe("transitions", func() {
		var issue *domain.Issue

		BeforeEach(func() {
			issue = newIssue("Asha", clock)
		})

		It("picks only unassigned open issues", func() {
			picked, err := issues.Pick(ctx, issue.ID, faculty.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(*picked.AssignedFacultyID).To(Equal(faculty.ID))
			Expect(picked.Status).To(Equal(domain.IssueStatusOpen))

			_, err = issues.Pick(ctx, issue.ID, "someone-else")
			Expect(err).To(MatchError(repository.ErrPreconditionFailed))
		})

		It("resolves only for the assignee", func() {
			_, err := issues.Resolve(ctx, issue.ID, faculty.ID, "fixed", clock)
			Expect(err).To(MatchError(repository.ErrPreconditionFailed))

			_, err = issues.Pick(ctx, issue.ID, faculty.ID)
			Expect(err).NotTo(HaveOccurred())

			_, err = issues.Resolve(ctx, issue.ID, "someone-else", "fixed", clock)
			Expect(err).To(MatchError(repository.ErrPreconditionFailed))

			resolved, err := issues.Resolve(ctx, issue.ID, faculty.ID, "fixed", clock)
			Expect(err).NotTo(HaveOccurred())
			Expect(resolved.Status).To(Equal(domain.IssueStatusResolved))
			Expect(*resolved.Remark).To(Equal("fixed"))
			Expect(*resolved.ResolvedAt).To(Equal(clock))

			_, err = issues.Resolve(ctx, issue.ID, faculty.ID, "again", clock)
			Expect(err).To(MatchError(repository.ErrPreconditionFailed))
		})

		It("lets exactly one concurrent pick win", func() {
			const pickers = 16
			var (
				wg   sync.WaitGroup
				mu   sync.Mutex
				wins int
			)
			for i := 0; i < pickers; i++ {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					if _, err := issues.Pick(ctx, issue.ID, faculty.ID); err == nil {
						mu.Lock()
						wins++
						mu.Unlock()
					}
				}()
			}
			wg.Wait()
			Expect(wins).To(Equal(1))
		})

		It("joins faculty and handler summaries on read", func() {
			_, err := issues.Pick(ctx, issue.ID, faculty.ID)
			Expect(err).NotTo(HaveOccurred())

			detail, err := issues.GetDetail(ctx, issue.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(detail.AssignedFaculty.Name).To(Equal("Dr. A"))
			Expect(*detail.AssignedFaculty.School).To(Equal("SCOPE"))
			Expect(detail.Handler.Name).To(Equal("Operator"))
			Expect(detail.Handler.School).To(BeNil())
		})
	})

	Describe("Search", func() {
		var first, second, third *domain.Issue

		BeforeEach(func() {
			day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
			first = newIssue("Asha", day)
			second = newIssue("Bilal", day.Add(24*time.Hour))
			third = newIssue("asha k", day.Add(48*time.Hour))
			_, err := issues.Pick(ctx, second.ID, faculty.ID)
			Expect(err).NotTo(HaveOccurred())
		})

		It("defaults to everything, paginated", func() {
			items, total, err := issues.Search(ctx, repository.IssueFilter{
				SortField: repository.SortByCreatedAt,
				SortDesc:  true,
				Limit:     2,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(3))
			Expect(items).To(HaveLen(2))
			Expect(items[0].ID).To(Equal(third.ID))
			Expect(items[1].ID).To(Equal(second.ID))
		})

		It("matches names case-insensitively", func() {
			name := "ASHA"
			items, total, err := issues.Search(ctx, repository.IssueFilter{NameContains: &name, SortField: repository.SortByName})
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(2))
			Expect(items[0].ID).To(Equal(first.ID))
		})

		It("filters by assignment", func() {
			assigned := false
			_, total, err := issues.Search(ctx, repository.IssueFilter{Assigned: &assigned})
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(2))

			items, total, err := issues.Search(ctx, repository.IssueFilter{AssignedFacultyID: &faculty.ID, Assigned: &assigned})
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(1))
			Expect(items[0].ID).To(Equal(second.ID))
		})

		It("filters by inclusive date range", func() {
			from := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
			to := from.Add(24*time.Hour - time.Millisecond)
			items, total, err := issues.Search(ctx, repository.IssueFilter{DateFrom: &from, DateTo: &to})
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(1))
			Expect(items[0].ID).To(Equal(second.ID))
		})

		It("returns an empty page beyond the end", func() {
			items, total, err := issues.Search(ctx, repository.IssueFilter{Limit: 25, Offset: 50})
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(3))
			Expect(items).To(BeEmpty())
		})
	})
})
