package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campusdesk/issue-tracker/internal/config"
	"github.com/campusdesk/issue-tracker/internal/events"
	"github.com/campusdesk/issue-tracker/internal/notify"
)

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	notifier   notify.Notifier
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, notifier notify.Notifier, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		notifier:   notifier,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventIssueCreated, n.logEvent)
	n.dispatcher.Subscribe(events.EventIssueAssigned, n.handleIssueAssigned)
	n.dispatcher.Subscribe(events.EventIssuePicked, n.logEvent)
	n.dispatcher.Subscribe(events.EventIssueResolved, n.logEvent)
}

func (n *NotificationService) logEvent(_ context.Context, event events.Event) error {
	n.logger.Info(string(event.Type),
		zap.String("issue_id", event.IssueID),
		zap.String("actor_id", event.Actor.UserID),
		zap.Any("payload", event.Payload))
	return nil
}

// handleIssueAssigned notifies the faculty member. Delivery failures are logged, never returned.
func (n *NotificationService) handleIssueAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.IssueAssignedPayload)
	if !ok {
		n.logger.Warn("unexpected payload", zap.String("event_type", string(event.Type)))
		return nil
	}
	n.logger.Info(string(event.Type),
		zap.String("issue_id", event.IssueID),
		zap.String("faculty_id", payload.FacultyID))

	if n.notifier == nil || strings.TrimSpace(payload.FacultyEmail) == "" {
		return nil
	}
	msg := notify.Notification{
		ID:        uuid.NewString(),
		IssueID:   event.IssueID,
		FacultyID: payload.FacultyID,
		To:        payload.FacultyEmail,
		From:      n.cfg.EmailFrom,
		Subject:   fmt.Sprintf("New issue assigned: %s (%s)", payload.StudentName, payload.RegNo),
		Body:      assignmentBody(payload),
		CreatedAt: event.Timestamp,
	}
	if err := n.notifier.Notify(ctx, msg); err != nil {
		n.logger.Error("notify assigned faculty failed",
			zap.String("issue_id", event.IssueID),
			zap.String("faculty_id", payload.FacultyID),
			zap.Error(err))
	}
	return nil
}

func assignmentBody(p events.IssueAssignedPayload) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", p.FacultyName)
	fmt.Fprintf(&b, "An issue raised by %s (%s, %s) has been assigned to you.\n\n", p.StudentName, p.RegNo, p.School)
	if p.Summary != "" {
		fmt.Fprintf(&b, "%s\n\n", p.Summary)
	}
	b.WriteString("Please pick it up from the faculty dashboard.\n")
	return b.String()
}
