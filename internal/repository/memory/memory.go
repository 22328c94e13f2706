// Package memory holds in-process implementations of the repository
// interfaces. They back the server when no Postgres DSN is configured and
// back the service and HTTP tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/campusdesk/issue-tracker/internal/domain"
	"github.com/campusdesk/issue-tracker/internal/repository"
)

// Store owns users and issues behind one lock so that joins see a consistent view.
type Store struct {
	mu     sync.RWMutex
	users  map[string]domain.User
	emails map[string]string
	issues map[string]domain.Issue
	now    func() time.Time
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore returns an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		users:  make(map[string]domain.User),
		emails: make(map[string]string),
		issues: make(map[string]domain.Issue),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Users returns the user repository view of the store.
func (s *Store) Users() repository.UserRepository {
	return &userRepository{store: s}
}

// Issues returns the issue repository view of the store.
func (s *Store) Issues() repository.IssueRepository {
	return &issueRepository{store: s}
}

type userRepository struct {
	store *Store
}

func (r *userRepository) Create(_ context.Context, user *domain.User) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.emails[user.Email]; exists {
		return repository.ErrDuplicateEmail
	}
	now := s.now()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.ID] = cloneUser(*user)
	s.emails[user.Email] = user.ID
	return nil
}

func (r *userRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := cloneUser(user)
	return &out, nil
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := cloneUser(s.users[id])
	return &out, nil
}

func (r *userRepository) ListByRole(_ context.Context, role domain.Role) ([]domain.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []domain.User{}
	for _, user := range s.users {
		if user.Role == role {
			result = append(result, cloneUser(user))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

type issueRepository struct {
	store *Store
}

func (r *issueRepository) Create(_ context.Context, issue *domain.Issue) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	issue.ID = uuid.NewString()
	issue.CreatedAt = now
	issue.UpdatedAt = now
	s.issues[issue.ID] = cloneIssue(*issue)
	return nil
}

func (r *issueRepository) GetByID(_ context.Context, id string) (*domain.Issue, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	issue, ok := s.issues[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := cloneIssue(issue)
	return &out, nil
}

func (r *issueRepository) GetDetail(_ context.Context, id string) (*domain.IssueDetail, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	issue, ok := s.issues[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	detail := s.detailLocked(issue)
	return &detail, nil
}

func (r *issueRepository) Search(_ context.Context, filter repository.IssueFilter) ([]domain.IssueDetail, int, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := []domain.Issue{}
	for _, issue := range s.issues {
		if matches(issue, filter) {
			matched = append(matched, issue)
		}
	}
	sortIssues(matched, filter.SortField, filter.SortDesc)

	total := len(matched)
	limit := filter.Limit
	if limit <= 0 {
		limit = 25
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	result := make([]domain.IssueDetail, 0, end-offset)
	for _, issue := range matched[offset:end] {
		result = append(result, s.detailLocked(issue))
	}
	return result, total, nil
}

func (r *issueRepository) Pick(_ context.Context, id, facultyID string) (*domain.Issue, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	issue, ok := s.issues[id]
	if !ok || issue.IsAssigned() || issue.Status != domain.IssueStatusOpen {
		return nil, repository.ErrPreconditionFailed
	}
	assignee := facultyID
	issue.AssignedFacultyID = &assignee
	issue.UpdatedAt = s.now()
	s.issues[id] = issue
	out := cloneIssue(issue)
	return &out, nil
}

func (r *issueRepository) Resolve(_ context.Context, id, facultyID, remark string, resolvedAt time.Time) (*domain.Issue, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	issue, ok := s.issues[id]
	if !ok || !issue.AssignedTo(facultyID) || issue.Status != domain.IssueStatusOpen {
		return nil, repository.ErrPreconditionFailed
	}
	note := remark
	at := resolvedAt
	issue.Status = domain.IssueStatusResolved
	issue.Remark = &note
	issue.ResolvedAt = &at
	issue.UpdatedAt = s.now()
	s.issues[id] = issue
	out := cloneIssue(issue)
	return &out, nil
}

func (s *Store) detailLocked(issue domain.Issue) domain.IssueDetail {
	detail := domain.IssueDetail{Issue: cloneIssue(issue)}
	if issue.AssignedFacultyID != nil {
		if faculty, ok := s.users[*issue.AssignedFacultyID]; ok {
			detail.AssignedFaculty = faculty.Summary()
		}
	}
	if handler, ok := s.users[issue.HandlerID]; ok {
		summary := handler.Summary()
		summary.School = nil
		detail.Handler = summary
	}
	return detail
}

func matches(issue domain.Issue, f repository.IssueFilter) bool {
	if f.Status != nil && issue.Status != *f.Status {
		return false
	}
	if f.NameContains != nil && *f.NameContains != "" &&
		!strings.Contains(strings.ToLower(issue.Name), strings.ToLower(*f.NameContains)) {
		return false
	}
	if f.RegNo != nil && issue.RegNo != *f.RegNo {
		return false
	}
	if f.School != nil && issue.School != *f.School {
		return false
	}
	if f.Programme != nil && issue.Programme != *f.Programme {
		return false
	}
	if f.AssignedFacultyID != nil {
		if !issue.AssignedTo(*f.AssignedFacultyID) {
			return false
		}
	} else if f.Assigned != nil && issue.IsAssigned() != *f.Assigned {
		return false
	}
	if f.DateFrom != nil && issue.Date.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && issue.Date.After(*f.DateTo) {
		return false
	}
	return true
}

func sortIssues(issues []domain.Issue, field repository.IssueSortField, desc bool) {
	sort.SliceStable(issues, func(i, j int) bool {
		c := compareIssues(issues[i], issues[j], field)
		if c == 0 {
			c = strings.Compare(issues[i].ID, issues[j].ID)
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func compareIssues(a, b domain.Issue, field repository.IssueSortField) int {
	switch field {
	case repository.SortByUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	case repository.SortByDate:
		return a.Date.Compare(b.Date)
	case repository.SortByName:
		return strings.Compare(a.Name, b.Name)
	case repository.SortByRegNo:
		return strings.Compare(a.RegNo, b.RegNo)
	case repository.SortBySchool:
		return strings.Compare(a.School, b.School)
	case repository.SortByProgramme:
		return strings.Compare(a.Programme, b.Programme)
	case repository.SortByStatus:
		return strings.Compare(string(a.Status), string(b.Status))
	case repository.SortByCategory:
		return strings.Compare(string(a.Category), string(b.Category))
	case repository.SortByGender:
		return strings.Compare(string(a.Gender), string(b.Gender))
	case repository.SortByResolvedAt:
		return compareOptionalTime(a.ResolvedAt, b.ResolvedAt)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

// compareOptionalTime orders NULLs last in ascending order, as Postgres does.
func compareOptionalTime(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return a.Compare(*b)
}

func cloneUser(u domain.User) domain.User {
	if u.School != nil {
		school := *u.School
		u.School = &school
	}
	return u
}

func cloneIssue(i domain.Issue) domain.Issue {
	if i.AssignedFacultyID != nil {
		id := *i.AssignedFacultyID
		i.AssignedFacultyID = &id
	}
	if i.Remark != nil {
		remark := *i.Remark
		i.Remark = &remark
	}
	if i.ResolvedAt != nil {
		at := *i.ResolvedAt
		i.ResolvedAt = &at
	}
	return i
}
