package dto

import (
	"time"

	"github.com/campusdesk/issue-tracker/internal/domain"
)

// CreateIssueRequest payload.
type CreateIssueRequest struct {
	Name              string  `json:"name"`
	RegNo             string  `json:"regNo"`
	Date              string  `json:"date"`
	School            string  `json:"school"`
	Programme         string  `json:"programme"`
	Category          string  `json:"category"`
	Gender            string  `json:"gender"`
	Issue             string  `json:"issue"`
	AssignedFacultyID *string `json:"assignedFacultyId"`
}

// ResolveIssueRequest payload.
type ResolveIssueRequest struct {
	Remark string `json:"remark"`
}

// IssueSearchQuery binds list query parameters.
type IssueSearchQuery struct {
	Status    string `query:"status"`
	Name      string `query:"name"`
	RegNo     string `query:"regNo"`
	School    string `query:"school"`
	Programme string `query:"programme"`
	Assigned  string `query:"assigned"`
	Mine      string `query:"mine"`
	Date      string `query:"date"`
	DateFrom  string `query:"dateFrom"`
	DateTo    string `query:"dateTo"`
	Page      string `query:"page"`
	Limit     string `query:"limit"`
	SortBy    string `query:"sortBy"`
	SortOrder string `query:"sortOrder"`
}

// IssueResponse is an issue with raw user references.
type IssueResponse struct {
	ID              string                 `json:"id"`
	Name            string                 `json:"name"`
	RegNo           string                 `json:"regNo"`
	Date            time.Time              `json:"date"`
	School          string                 `json:"school"`
	Programme       string                 `json:"programme"`
	Category        domain.StudentCategory `json:"category"`
	Gender          domain.Gender          `json:"gender"`
	Issue           string                 `json:"issue"`
	Status          domain.IssueStatus     `json:"status"`
	AssignedFaculty *string                `json:"assignedFaculty"`
	Handler         string                 `json:"handler"`
	Remark          *string                `json:"remark"`
	ResolvedAt      *time.Time             `json:"resolvedAt"`
	CreatedAt       time.Time              `json:"createdAt"`
	UpdatedAt       time.Time              `json:"updatedAt"`
}

// UserSummaryResponse is the user record joined onto issue reads.
type UserSummaryResponse struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Email  string      `json:"email"`
	Role   domain.Role `json:"role"`
	School *string     `json:"school,omitempty"`
}

// IssueDetailResponse is an issue with faculty and handler resolved.
type IssueDetailResponse struct {
	ID              string                 `json:"id"`
	Name            string                 `json:"name"`
	RegNo           string                 `json:"regNo"`
	Date            time.Time              `json:"date"`
	School          string                 `json:"school"`
	Programme       string                 `json:"programme"`
	Category        domain.StudentCategory `json:"category"`
	Gender          domain.Gender          `json:"gender"`
	Issue           string                 `json:"issue"`
	Status          domain.IssueStatus     `json:"status"`
	AssignedFaculty *UserSummaryResponse   `json:"assignedFaculty"`
	Handler         *UserSummaryResponse   `json:"handler"`
	Remark          *string                `json:"remark"`
	ResolvedAt      *time.Time             `json:"resolvedAt"`
	CreatedAt       time.Time              `json:"createdAt"`
	UpdatedAt       time.Time              `json:"updatedAt"`
}

// IssueMutationResponse is returned by create, pick and resolve.
type IssueMutationResponse struct {
	Message string        `json:"message"`
	Issue   IssueResponse `json:"issue"`
}

// IssueGetResponse wraps a single resolved issue.
type IssueGetResponse struct {
	Issue IssueDetailResponse `json:"issue"`
}

// IssueSearchResponse is one page of resolved issues.
type IssueSearchResponse struct {
	Total  int                   `json:"total"`
	Page   int                   `json:"page"`
	Limit  int                   `json:"limit"`
	Issues []IssueDetailResponse `json:"issues"`
}

// NewIssueResponse maps a domain issue.
func NewIssueResponse(i *domain.Issue) IssueResponse {
	return IssueResponse{
		ID:              i.ID,
		Name:            i.Name,
		RegNo:           i.RegNo,
		Date:            i.Date,
		School:          i.School,
		Programme:       i.Programme,
		Category:        i.Category,
		Gender:          i.Gender,
		Issue:           i.Description,
		Status:          i.Status,
		AssignedFaculty: i.AssignedFacultyID,
		Handler:         i.HandlerID,
		Remark:          i.Remark,
		ResolvedAt:      i.ResolvedAt,
		CreatedAt:       i.CreatedAt,
		UpdatedAt:       i.UpdatedAt,
	}
}

// NewIssueDetailResponse maps a resolved issue.
func NewIssueDetailResponse(d *domain.IssueDetail) IssueDetailResponse {
	return IssueDetailResponse{
		ID:              d.ID,
		Name:            d.Name,
		RegNo:           d.RegNo,
		Date:            d.Date,
		School:          d.School,
		Programme:       d.Programme,
		Category:        d.Category,
		Gender:          d.Gender,
		Issue:           d.Description,
		Status:          d.Status,
		AssignedFaculty: newUserSummaryResponse(d.AssignedFaculty),
		Handler:         newUserSummaryResponse(d.Handler),
		Remark:          d.Remark,
		ResolvedAt:      d.ResolvedAt,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

// NewIssueDetailResponses maps a page of resolved issues.
func NewIssueDetailResponses(items []domain.IssueDetail) []IssueDetailResponse {
	out := make([]IssueDetailResponse, 0, len(items))
	for i := range items {
		out = append(out, NewIssueDetailResponse(&items[i]))
	}
	return out
}

func newUserSummaryResponse(s *domain.UserSummary) *UserSummaryResponse {
	if s == nil {
		return nil
	}
	return &UserSummaryResponse{
		ID:     s.ID,
		Name:   s.Name,
		Email:  s.Email,
		Role:   s.Role,
		School: s.School,
	}
}
