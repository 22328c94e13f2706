package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/campusdesk/issue-tracker/internal/domain"
)

// IssueRepository encapsulates issue persistence.
type IssueRepository interface {
	Create(ctx context.Context, issue *domain.Issue) error
	GetByID(ctx context.Context, id string) (*domain.Issue, error)
	GetDetail(ctx context.Context, id string) (*domain.IssueDetail, error)
	Search(ctx context.Context, filter IssueFilter) ([]domain.IssueDetail, int, error)
	// Pick sets the assignee only while the issue is Open and unassigned.
	Pick(ctx context.Context, id, facultyID string) (*domain.Issue, error)
	// Resolve closes the issue only while it is Open and held by facultyID.
	Resolve(ctx context.Context, id, facultyID, remark string, resolvedAt time.Time) (*domain.Issue, error)
}

type issueRepository struct {
	db DBTX
}

// NewIssueRepository instantiates repository.
func NewIssueRepository(db DBTX) IssueRepository {
	return &issueRepository{db: db}
}

const issueColumns = `i.id, i.name, i.reg_no, i.incident_date, i.school, i.programme, i.category, i.gender,
               i.description, i.status, i.assigned_faculty_id, i.handler_id, i.remark, i.resolved_at,
               i.created_at, i.updated_at`

const issueReturning = `RETURNING id, name, reg_no, incident_date, school, programme, category, gender,
               description, status, assigned_faculty_id, handler_id, remark, resolved_at,
               created_at, updated_at`

const issueDetailSelect = `SELECT ` + issueColumns + `,
               f.id, f.name, f.email, f.role, f.school,
               h.id, h.name, h.email, h.role
        FROM issues i
        LEFT JOIN users f ON f.id = i.assigned_faculty_id
        LEFT JOIN users h ON h.id = i.handler_id`

func (r *issueRepository) Create(ctx context.Context, issue *domain.Issue) error {
	const query = `
        INSERT INTO issues (name, reg_no, incident_date, school, programme, category, gender,
                            description, status, assigned_faculty_id, handler_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		issue.Name,
		issue.RegNo,
		issue.Date,
		issue.School,
		issue.Programme,
		issue.Category,
		issue.Gender,
		issue.Description,
		issue.Status,
		issue.AssignedFacultyID,
		issue.HandlerID,
	).Scan(&issue.ID, &issue.CreatedAt, &issue.UpdatedAt)
}

func (r *issueRepository) GetByID(ctx context.Context, id string) (*domain.Issue, error) {
	if !ValidID(id) {
		return nil, ErrNotFound
	}
	const query = `SELECT ` + issueColumns + ` FROM issues i WHERE i.id=$1`
	return scanIssue(r.db.QueryRow(ctx, query, id))
}

func (r *issueRepository) GetDetail(ctx context.Context, id string) (*domain.IssueDetail, error) {
	if !ValidID(id) {
		return nil, ErrNotFound
	}
	query := issueDetailSelect + ` WHERE i.id=$1`
	detail, err := scanIssueDetail(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	return detail, nil
}

func (r *issueRepository) Search(ctx context.Context, filter IssueFilter) ([]domain.IssueDetail, int, error) {
	count := buildIssueCount(filter)
	var total int
	if err := r.db.QueryRow(ctx, count.text, count.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	search := buildIssueSearch(filter)
	rows, err := r.db.Query(ctx, search.text, search.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	result := []domain.IssueDetail{}
	for rows.Next() {
		detail, err := scanIssueDetail(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *detail)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (r *issueRepository) Pick(ctx context.Context, id, facultyID string) (*domain.Issue, error) {
	if !ValidID(id) {
		return nil, ErrNotFound
	}
	const query = `
        UPDATE issues SET assigned_faculty_id=$2, updated_at=NOW()
        WHERE id=$1 AND assigned_faculty_id IS NULL AND status='Open'
        ` + issueReturning
	return conditional(scanIssue(r.db.QueryRow(ctx, query, id, facultyID)))
}

func (r *issueRepository) Resolve(ctx context.Context, id, facultyID, remark string, resolvedAt time.Time) (*domain.Issue, error) {
	if !ValidID(id) {
		return nil, ErrNotFound
	}
	const query = `
        UPDATE issues SET status='Resolved', remark=$3, resolved_at=$4, updated_at=NOW()
        WHERE id=$1 AND assigned_faculty_id=$2 AND status='Open'
        ` + issueReturning
	return conditional(scanIssue(r.db.QueryRow(ctx, query, id, facultyID, remark, resolvedAt)))
}

// conditional reports a guarded UPDATE that matched nothing as ErrPreconditionFailed.
func conditional(issue *domain.Issue, err error) (*domain.Issue, error) {
	if errors.Is(err, ErrNotFound) {
		return nil, ErrPreconditionFailed
	}
	return issue, err
}

func issueScanTargets(issue *domain.Issue) []any {
	return []any{
		&issue.ID,
		&issue.Name,
		&issue.RegNo,
		&issue.Date,
		&issue.School,
		&issue.Programme,
		&issue.Category,
		&issue.Gender,
		&issue.Description,
		&issue.Status,
		&issue.AssignedFacultyID,
		&issue.HandlerID,
		&issue.Remark,
		&issue.ResolvedAt,
		&issue.CreatedAt,
		&issue.UpdatedAt,
	}
}

func scanIssue(row pgx.Row) (*domain.Issue, error) {
	var issue domain.Issue
	if err := row.Scan(issueScanTargets(&issue)...); err != nil {
		return nil, notFound(err)
	}
	return &issue, nil
}

func scanIssueDetail(row pgx.Row) (*domain.IssueDetail, error) {
	var (
		detail  domain.IssueDetail
		faculty nullableSummary
		handler nullableSummary
	)
	targets := issueScanTargets(&detail.Issue)
	targets = append(targets,
		&faculty.ID, &faculty.Name, &faculty.Email, &faculty.Role, &faculty.School,
		&handler.ID, &handler.Name, &handler.Email, &handler.Role,
	)
	if err := row.Scan(targets...); err != nil {
		return nil, err
	}
	detail.AssignedFaculty = faculty.summary()
	detail.Handler = handler.summary()
	return &detail, nil
}

// nullableSummary scans the LEFT JOINed user columns.
type nullableSummary struct {
	ID     *string
	Name   *string
	Email  *string
	Role   *string
	School *string
}

func (n nullableSummary) summary() *domain.UserSummary {
	if n.ID == nil {
		return nil
	}
	s := &domain.UserSummary{ID: *n.ID, School: n.School}
	if n.Name != nil {
		s.Name = *n.Name
	}
	if n.Email != nil {
		s.Email = *n.Email
	}
	if n.Role != nil {
		s.Role = domain.Role(*n.Role)
	}
	return s
}
