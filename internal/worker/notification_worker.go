package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/campusdesk/issue-tracker/internal/notify"
	"github.com/campusdesk/issue-tracker/internal/service"
)

// StartNotificationWorker registers notification handlers on the in-process dispatcher.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}

// Mailer delivers a notification to its recipient.
type Mailer interface {
	Send(ctx context.Context, n notify.Notification) error
}

// LogMailer writes notifications to the log instead of sending email.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer constructs a LogMailer.
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send logs the message.
func (m *LogMailer) Send(_ context.Context, n notify.Notification) error {
	m.logger.Info("mail",
		zap.String("notification_id", n.ID),
		zap.String("issue_id", n.IssueID),
		zap.String("faculty_id", n.FacultyID),
		zap.String("from", n.From),
		zap.String("to", n.To),
		zap.String("subject", n.Subject))
	return nil
}

// NotificationWorker drains a notification queue into a Mailer.
type NotificationWorker struct {
	consumer notify.Consumer
	mailer   Mailer
	logger   *zap.Logger
}

// NewNotificationWorker constructs the worker.
func NewNotificationWorker(consumer notify.Consumer, mailer Mailer, logger *zap.Logger) *NotificationWorker {
	return &NotificationWorker{consumer: consumer, mailer: mailer, logger: logger}
}

// Run blocks until ctx is cancelled, then closes the consumer.
func (w *NotificationWorker) Run(ctx context.Context) error {
	w.logger.Info("notification worker started")
	defer func() {
		if err := w.consumer.Close(); err != nil {
			w.logger.Warn("closing notification consumer", zap.Error(err))
		}
		w.logger.Info("notification worker stopped")
	}()
	return w.consumer.Consume(ctx, w.Deliver)
}

// Deliver sends one notification. Failures are returned to the consumer, which logs them.
func (w *NotificationWorker) Deliver(ctx context.Context, n notify.Notification) error {
	if n.To == "" {
		w.logger.Warn("notification without recipient", zap.String("notification_id", n.ID))
		return nil
	}
	return w.mailer.Send(ctx, n)
}
