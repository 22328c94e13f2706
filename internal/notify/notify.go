// Package notify carries assignment notifications from the API process to
// whatever delivers email.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

// Notification is one message for a faculty member.
type Notification struct {
	ID        string    `json:"id"`
	IssueID   string    `json:"issueId"`
	FacultyID string    `json:"facultyId"`
	To        string    `json:"to"`
	From      string    `json:"from"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// Notifier hands a notification to a transport.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// HandlerFunc processes one consumed notification.
type HandlerFunc func(ctx context.Context, n Notification) error

// Consumer drains a transport until ctx is cancelled.
type Consumer interface {
	Consume(ctx context.Context, handle HandlerFunc) error
	Close() error
}

func encode(n Notification) ([]byte, error) {
	return json.Marshal(n)
}

func decode(raw []byte) (Notification, error) {
	var n Notification
	err := json.Unmarshal(raw, &n)
	return n, err
}

// LogNotifier only records notifications in the log.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier constructs a LogNotifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the notification.
func (l *LogNotifier) Notify(_ context.Context, n Notification) error {
	l.logger.Info("notification",
		zap.String("notification_id", n.ID),
		zap.String("issue_id", n.IssueID),
		zap.String("to", n.To),
		zap.String("subject", n.Subject))
	return nil
}
