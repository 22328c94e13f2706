package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campusdesk/issue-tracker/internal/domain"
	"github.com/campusdesk/issue-tracker/internal/events"
	"github.com/campusdesk/issue-tracker/internal/repository"
	apperrors "github.com/campusdesk/issue-tracker/pkg/util/errorutil"
)

const (
	defaultPageSize = 25
	maxPageSize     = 200
	dayLayout       = "2006-01-02"
	summaryPreview  = 200
)

// IssueService coordinates the issue lifecycle and search.
type IssueService struct {
	issues     repository.IssueRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	loc        *time.Location
	now        func() time.Time
	logger     *zap.Logger
}

// IssueDependencies bundles collaborators for the issue service.
type IssueDependencies struct {
	IssueRepo  repository.IssueRepository
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
	// Location defines calendar-day boundaries for dates. Defaults to UTC.
	Location *time.Location
	Now      func() time.Time
	Logger   *zap.Logger
}

// NewIssueService constructs the service.
func NewIssueService(deps IssueDependencies) *IssueService {
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IssueService{
		issues:     deps.IssueRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		loc:        loc,
		now:        now,
		logger:     logger,
	}
}

// CreateIssueInput carries raw issue fields as submitted.
type CreateIssueInput struct {
	Name              string
	RegNo             string
	Date              string
	School            string
	Programme         string
	Category          string
	Gender            string
	Description       string
	AssignedFacultyID *string
}

// SearchInput carries raw query parameters. Empty strings mean "not supplied".
type SearchInput struct {
	Status    string
	Name      string
	RegNo     string
	School    string
	Programme string
	Assigned  string
	Mine      string
	Date      string
	DateFrom  string
	DateTo    string
	Page      string
	Limit     string
	SortBy    string
	SortOrder string
}

// SearchResult is one page of issues plus the unpaginated total.
type SearchResult struct {
	Total  int
	Page   int
	Limit  int
	Issues []domain.IssueDetail
}

// Create validates and stores a new Open issue handled by the caller.
// A supplied assignee must be an existing faculty member; it is checked before anything is stored.
func (s *IssueService) Create(ctx context.Context, handler *domain.User, input CreateIssueInput) (*domain.Issue, error) {
	if handler == nil {
		return nil, apperrors.NewUnauthorized("unauthorized")
	}

	issue, violations := s.buildIssue(input)
	if len(violations) > 0 {
		return nil, apperrors.NewFieldValidationError(violations)
	}
	issue.HandlerID = handler.ID

	var faculty *domain.User
	if input.AssignedFacultyID != nil && strings.TrimSpace(*input.AssignedFacultyID) != "" {
		facultyID := strings.TrimSpace(*input.AssignedFacultyID)
		f, err := s.users.GetByID(ctx, facultyID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.MapError(err)
		}
		if f == nil || f.Role != domain.RoleFaculty {
			return nil, apperrors.NewInvalidAssignee(facultyID)
		}
		faculty = f
		issue.AssignedFacultyID = &f.ID
	}

	if err := s.issues.Create(ctx, issue); err != nil {
		return nil, apperrors.MapError(err)
	}

	actor := userActor(handler)
	s.publishEvent(ctx, events.Event{
		Type:    events.EventIssueCreated,
		IssueID: issue.ID,
		Actor:   actor,
		Payload: events.IssueCreatedPayload{
			RegNo:     issue.RegNo,
			School:    issue.School,
			Programme: issue.Programme,
		},
	})
	if faculty != nil {
		s.publishEvent(ctx, events.Event{
			Type:    events.EventIssueAssigned,
			IssueID: issue.ID,
			Actor:   actor,
			Payload: events.IssueAssignedPayload{
				FacultyID:    faculty.ID,
				FacultyName:  faculty.Name,
				FacultyEmail: faculty.Email,
				StudentName:  issue.Name,
				RegNo:        issue.RegNo,
				School:       issue.School,
				Summary:      stringPreview(issue.Description, summaryPreview),
			},
		})
	}
	return issue, nil
}

func (s *IssueService) buildIssue(input CreateIssueInput) (*domain.Issue, []apperrors.FieldViolation) {
	var violations []apperrors.FieldViolation
	required := func(field, value string) string {
		value = strings.TrimSpace(value)
		if value == "" {
			violations = append(violations, apperrors.FieldViolation{Field: field, Message: field + " is required"})
		}
		return value
	}

	issue := &domain.Issue{
		Name:        required("name", input.Name),
		RegNo:       required("regNo", input.RegNo),
		School:      required("school", input.School),
		Programme:   required("programme", input.Programme),
		Description: required("issue", input.Description),
		Status:      domain.IssueStatusOpen,
	}

	if raw := strings.TrimSpace(input.Date); raw == "" {
		violations = append(violations, apperrors.FieldViolation{Field: "date", Message: "date is required"})
	} else if date, err := s.parseDate(raw); err != nil {
		violations = append(violations, apperrors.FieldViolation{Field: "date", Message: "date must be YYYY-MM-DD or RFC3339"})
	} else {
		issue.Date = date
	}

	issue.Category = domain.StudentCategory(strings.TrimSpace(input.Category))
	if !issue.Category.Valid() {
		violations = append(violations, apperrors.FieldViolation{Field: "category", Message: "category must be one of Indian, NRI, Foreign"})
	}
	issue.Gender = domain.Gender(strings.TrimSpace(input.Gender))
	if !issue.Gender.Valid() {
		violations = append(violations, apperrors.FieldViolation{Field: "gender", Message: "gender must be one of Male, Female, Other"})
	}
	return issue, violations
}

// Get returns an issue with its faculty and handler resolved.
func (s *IssueService) Get(ctx context.Context, id string) (*domain.IssueDetail, error) {
	detail, err := s.issues.GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("issue", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return detail, nil
}

// Pick assigns an unassigned Open issue to the calling faculty member.
func (s *IssueService) Pick(ctx context.Context, faculty *domain.User, id string) (*domain.Issue, error) {
	if faculty == nil {
		return nil, apperrors.NewUnauthorized("unauthorized")
	}

	issue, err := s.issues.Pick(ctx, id, faculty.ID)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		return nil, apperrors.NewNotFound("issue", map[string]any{"id": id})
	case errors.Is(err, repository.ErrPreconditionFailed):
		return nil, s.diagnosePick(ctx, id)
	default:
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventIssuePicked,
		IssueID: issue.ID,
		Actor:   userActor(faculty),
		Payload: events.IssuePickedPayload{FacultyID: faculty.ID},
	})
	return issue, nil
}

// diagnosePick explains why the conditional pick matched nothing.
func (s *IssueService) diagnosePick(ctx context.Context, id string) error {
	current, err := s.issues.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("issue", map[string]any{"id": id})
		}
		return apperrors.MapError(err)
	}
	if current.IsAssigned() {
		return apperrors.NewAlreadyAssigned(map[string]any{"id": id})
	}
	if current.Status != domain.IssueStatusOpen {
		return apperrors.NewInvalidState("only open issues can be picked", map[string]any{"status": current.Status})
	}
	return apperrors.NewInvalidState("issue changed concurrently", map[string]any{"id": id})
}

// Resolve closes an Open issue held by the calling faculty member.
func (s *IssueService) Resolve(ctx context.Context, faculty *domain.User, id, remark string) (*domain.Issue, error) {
	if faculty == nil {
		return nil, apperrors.NewUnauthorized("unauthorized")
	}

	resolvedAt := s.now()
	issue, err := s.issues.Resolve(ctx, id, faculty.ID, strings.TrimSpace(remark), resolvedAt)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		return nil, apperrors.NewNotFound("issue", map[string]any{"id": id})
	case errors.Is(err, repository.ErrPreconditionFailed):
		return nil, s.diagnoseResolve(ctx, id, faculty.ID)
	default:
		return nil, apperrors.MapError(err)
	}

	payload := events.IssueResolvedPayload{FacultyID: faculty.ID, ResolvedAt: resolvedAt}
	if issue.Remark != nil {
		payload.Remark = *issue.Remark
	}
	s.publishEvent(ctx, events.Event{
		Type:    events.EventIssueResolved,
		IssueID: issue.ID,
		Actor:   userActor(faculty),
		Payload: payload,
	})
	return issue, nil
}

// diagnoseResolve explains why the conditional resolve matched nothing.
// Ownership is reported before state.
func (s *IssueService) diagnoseResolve(ctx context.Context, id, facultyID string) error {
	current, err := s.issues.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("issue", map[string]any{"id": id})
		}
		return apperrors.MapError(err)
	}
	if !current.AssignedTo(facultyID) {
		return apperrors.NewForbidden("you are not assigned to this issue")
	}
	if current.Status != domain.IssueStatusOpen {
		return apperrors.NewInvalidState("only open issues can be resolved", map[string]any{"status": current.Status})
	}
	return apperrors.NewInvalidState("issue changed concurrently", map[string]any{"id": id})
}

// Search filters, sorts and paginates issues on behalf of caller.
func (s *IssueService) Search(ctx context.Context, caller *domain.User, input SearchInput) (*SearchResult, error) {
	filter, page, err := s.buildFilter(caller, input)
	if err != nil {
		return nil, err
	}
	items, total, err := s.issues.Search(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &SearchResult{
		Total:  total,
		Page:   page,
		Limit:  filter.Limit,
		Issues: items,
	}, nil
}

// SearchOpen is Search with the status forced to Open.
func (s *IssueService) SearchOpen(ctx context.Context, caller *domain.User, input SearchInput) (*SearchResult, error) {
	input.Status = string(domain.IssueStatusOpen)
	return s.Search(ctx, caller, input)
}

func (s *IssueService) buildFilter(caller *domain.User, input SearchInput) (repository.IssueFilter, int, error) {
	var filter repository.IssueFilter

	if v := strings.TrimSpace(input.Status); v != "" {
		status := domain.IssueStatus(v)
		filter.Status = &status
	}
	filter.NameContains = optional(input.Name)
	filter.RegNo = optional(input.RegNo)
	filter.School = optional(input.School)
	filter.Programme = optional(input.Programme)

	switch strings.TrimSpace(input.Assigned) {
	case "true":
		filter.Assigned = boolPtr(true)
	case "false":
		filter.Assigned = boolPtr(false)
	}
	if strings.TrimSpace(input.Mine) == "true" && caller != nil && caller.Role == domain.RoleFaculty {
		id := caller.ID
		filter.AssignedFacultyID = &id
	}

	if day := strings.TrimSpace(input.Date); day != "" {
		from, to, err := s.dayBounds("date", day)
		if err != nil {
			return filter, 0, err
		}
		filter.DateFrom, filter.DateTo = &from, &to
	} else {
		if v := strings.TrimSpace(input.DateFrom); v != "" {
			from, _, err := s.dayBounds("dateFrom", v)
			if err != nil {
				return filter, 0, err
			}
			filter.DateFrom = &from
		}
		if v := strings.TrimSpace(input.DateTo); v != "" {
			_, to, err := s.dayBounds("dateTo", v)
			if err != nil {
				return filter, 0, err
			}
			filter.DateTo = &to
		}
	}

	page, limit := parsePaging(input.Page, input.Limit)
	filter.Limit = limit
	filter.Offset = (page - 1) * limit

	filter.SortField = repository.ParseSortField(input.SortBy)
	filter.SortDesc = strings.ToLower(strings.TrimSpace(input.SortOrder)) != "asc"
	return filter, page, nil
}

// dayBounds returns the first and last millisecond of the calendar day named by raw.
func (s *IssueService) dayBounds(field, raw string) (time.Time, time.Time, error) {
	t, err := s.parseDate(raw)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.NewValidationError("invalid date filter", map[string]any{
			"field": field,
			"value": raw,
		})
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.loc)
	// AddDate keeps 23 and 25 hour days intact across DST changes.
	end := start.AddDate(0, 0, 1).Add(-time.Millisecond)
	return start, end, nil
}

// parseDate accepts a calendar day or a full RFC3339 timestamp.
func (s *IssueService) parseDate(raw string) (time.Time, error) {
	if t, err := time.ParseInLocation(dayLayout, raw, s.loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.In(s.loc), nil
}

func parsePaging(rawPage, rawLimit string) (int, int) {
	page, err := strconv.Atoi(strings.TrimSpace(rawPage))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(strings.TrimSpace(rawLimit))
	if err != nil || limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

func (s *IssueService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	// the transition is already committed; subscriber failures are only reported
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("issue event subscriber failed",
			zap.String("event_type", string(event.Type)),
			zap.String("issue_id", event.IssueID),
			zap.Error(err))
	}
}

func userActor(user *domain.User) events.Actor {
	return events.Actor{UserID: user.ID, Role: user.Role}
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func boolPtr(v bool) *bool {
	return &v
}

// stringPreview shortens body to at most max runes.
func stringPreview(body string, max int) string {
	runes := []rune(strings.TrimSpace(body))
	if len(runes) <= max {
		return string(runes)
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
