package domain

import "time"

// IssueStatus enumerates lifecycle states for issues. Open moves to Resolved once.
type IssueStatus string

const (
	IssueStatusOpen     IssueStatus = "Open"
	IssueStatusResolved IssueStatus = "Resolved"
)

// StudentCategory classifies the student who raised the issue.
type StudentCategory string

const (
	CategoryIndian  StudentCategory = "Indian"
	CategoryNRI     StudentCategory = "NRI"
	CategoryForeign StudentCategory = "Foreign"
)

// Valid reports whether c is a known category.
func (c StudentCategory) Valid() bool {
	switch c {
	case CategoryIndian, CategoryNRI, CategoryForeign:
		return true
	}
	return false
}

// Gender of the student who raised the issue.
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

// Valid reports whether g is a known gender value.
func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// Issue is a logged student concern.
type Issue struct {
	ID                string
	Name              string
	RegNo             string
	Date              time.Time
	School            string
	Programme         string
	Category          StudentCategory
	Gender            Gender
	Description       string
	Status            IssueStatus
	AssignedFacultyID *string
	HandlerID         string
	Remark            *string
	ResolvedAt        *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsAssigned reports whether a faculty member holds the issue.
func (i *Issue) IsAssigned() bool {
	return i.AssignedFacultyID != nil && *i.AssignedFacultyID != ""
}

// AssignedTo reports whether facultyID holds the issue.
func (i *Issue) AssignedTo(facultyID string) bool {
	return i.IsAssigned() && *i.AssignedFacultyID == facultyID
}

// IssueDetail is an issue with its user references resolved for display.
type IssueDetail struct {
	Issue
	AssignedFaculty *UserSummary
	Handler         *UserSummary
}
