package service_test

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/campusdesk/issue-tracker/internal/config"
	"github.com/campusdesk/issue-tracker/internal/domain"
	"github.com/campusdesk/issue-tracker/internal/events"
	"github.com/campusdesk/issue-tracker/internal/notify"
	"github.com/campusdesk/issue-tracker/internal/repository/memory"
	"github.com/campusdesk/issue-tracker/internal/service"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.Notification
	err  error
}

func (r *recordingNotifier) Notify(_ context.Context, n notify.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return r.err
}

var _ = Describe("NotificationService", func() {
	var (
		ctx        context.Context
		dispatcher events.Dispatcher
		notifier   *recordingNotifier
	)

	BeforeEach(func() {
		ctx = context.Background()
		dispatcher = events.NewInMemoryDispatcher()
		notifier = &recordingNotifier{}
		ns := service.NewNotificationService(dispatcher, notifier, zap.NewNop(), config.NotificationConfig{EmailFrom: "desk@example.com"})
		ns.RegisterHandlers()
	})

	assigned := events.Event{
		ID:        "evt-1",
		Type:      events.EventIssueAssigned,
		IssueID:   "issue-1",
		Timestamp: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		Payload: events.IssueAssignedPayload{
			FacultyID:    "fac-1",
			FacultyName:  "Dr. A",
			FacultyEmail: "a@example.com",
			StudentName:  "Asha Rao",
			RegNo:        "21BCE0001",
			School:       "SCOPE",
			Summary:      "Hostel wifi down",
		},
	}

	It("mails the assigned faculty", func() {
		Expect(dispatcher.Publish(ctx, assigned)).To(Succeed())

		Expect(notifier.sent).To(HaveLen(1))
		n := notifier.sent[0]
		Expect(n.To).To(Equal("a@example.com"))
		Expect(n.From).To(Equal("desk@example.com"))
		Expect(n.IssueID).To(Equal("issue-1"))
		Expect(n.FacultyID).To(Equal("fac-1"))
		Expect(n.Subject).To(ContainSubstring("21BCE0001"))
		Expect(n.Body).To(ContainSubstring("Hostel wifi down"))
	})

	It("never fails the publisher when delivery fails", func() {
		notifier.err = errors.New("queue down")
		Expect(dispatcher.Publish(ctx, assigned)).To(Succeed())
		Expect(notifier.sent).To(HaveLen(1))
	})

	It("only logs the other lifecycle events", func() {
		for _, t := range []events.EventType{events.EventIssueCreated, events.EventIssuePicked, events.EventIssueResolved} {
			Expect(dispatcher.Publish(ctx, events.Event{Type: t, IssueID: "issue-1"})).To(Succeed())
		}
		Expect(notifier.sent).To(BeEmpty())
	})

	It("is triggered by creating an issue with an assignee", func() {
		store := memory.NewStore()
		op := &domain.User{Name: "Op", Email: "op@example.com", Role: domain.RoleOperator}
		fac := &domain.User{Name: "Dr. A", Email: "a@example.com", Role: domain.RoleFaculty}
		Expect(store.Users().Create(ctx, op)).To(Succeed())
		Expect(store.Users().Create(ctx, fac)).To(Succeed())

		issues := service.NewIssueService(service.IssueDependencies{
			IssueRepo:  store.Issues(),
			UserRepo:   store.Users(),
			Dispatcher: dispatcher,
		})
		in := validIssueInput()
		in.AssignedFacultyID = &fac.ID
		issue, err := issues.Create(ctx, op, in)
		Expect(err).NotTo(HaveOccurred())

		Expect(notifier.sent).To(HaveLen(1))
		Expect(notifier.sent[0].IssueID).To(Equal(issue.ID))
		Expect(notifier.sent[0].To).To(Equal("a@example.com"))
	})
})
