package events

import (
	"time"

	"github.com/campusdesk/issue-tracker/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventIssueCreated  EventType = "issue_created"
	EventIssueAssigned EventType = "issue_assigned"
	EventIssuePicked   EventType = "issue_picked"
	EventIssueResolved EventType = "issue_resolved"
)

// Actor identifies who caused an event.
type Actor struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	IssueID   string      `json:"issue_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// IssueCreatedPayload payload.
type IssueCreatedPayload struct {
	RegNo     string `json:"reg_no"`
	School    string `json:"school"`
	Programme string `json:"programme"`
}

// IssueAssignedPayload is published when an issue is assigned at creation.
type IssueAssignedPayload struct {
	FacultyID    string `json:"faculty_id"`
	FacultyName  string `json:"faculty_name"`
	FacultyEmail string `json:"faculty_email"`
	StudentName  string `json:"student_name"`
	RegNo        string `json:"reg_no"`
	School       string `json:"school"`
	Summary      string `json:"summary"`
}

// IssuePickedPayload payload.
type IssuePickedPayload struct {
	FacultyID string `json:"faculty_id"`
}

// IssueResolvedPayload payload.
type IssueResolvedPayload struct {
	FacultyID  string    `json:"faculty_id"`
	Remark     string    `json:"remark"`
	ResolvedAt time.Time `json:"resolved_at"`
}
