package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/campusdesk/issue-tracker/internal/domain"
)

// IssueSortField names a sortable issue attribute.
type IssueSortField string

const (
	SortByCreatedAt  IssueSortField = "createdAt"
	SortByUpdatedAt  IssueSortField = "updatedAt"
	SortByDate       IssueSortField = "date"
	SortByName       IssueSortField = "name"
	SortByRegNo      IssueSortField = "regNo"
	SortBySchool     IssueSortField = "school"
	SortByProgramme  IssueSortField = "programme"
	SortByStatus     IssueSortField = "status"
	SortByCategory   IssueSortField = "category"
	SortByGender     IssueSortField = "gender"
	SortByResolvedAt IssueSortField = "resolvedAt"
)

var sortColumns = map[IssueSortField]string{
	SortByCreatedAt:  "i.created_at",
	SortByUpdatedAt:  "i.updated_at",
	SortByDate:       "i.incident_date",
	SortByName:       "i.name",
	SortByRegNo:      "i.reg_no",
	SortBySchool:     "i.school",
	SortByProgramme:  "i.programme",
	SortByStatus:     "i.status",
	SortByCategory:   "i.category",
	SortByGender:     "i.gender",
	SortByResolvedAt: "i.resolved_at",
}

// ParseSortField maps a client sort key to a known field, defaulting to createdAt.
func ParseSortField(raw string) IssueSortField {
	field := IssueSortField(strings.TrimSpace(raw))
	if _, ok := sortColumns[field]; ok {
		return field
	}
	return SortByCreatedAt
}

// IssueFilter captures search predicates, ordering and paging.
// All predicates are ANDed.
type IssueFilter struct {
	Status            *domain.IssueStatus
	NameContains      *string
	RegNo             *string
	School            *string
	Programme         *string
	Assigned          *bool
	AssignedFacultyID *string
	DateFrom          *time.Time
	DateTo            *time.Time
	SortField         IssueSortField
	SortDesc          bool
	Limit             int
	Offset            int
}

type sqlQuery struct {
	text string
	args []any
}

// buildIssueWhere renders the filter predicates as a WHERE clause over alias i.
func buildIssueWhere(filter IssueFilter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		clauses = append(clauses, fmt.Sprintf("i.status=$%d", len(args)))
	}
	if filter.NameContains != nil && *filter.NameContains != "" {
		args = append(args, "%"+escapeLike(*filter.NameContains)+"%")
		clauses = append(clauses, fmt.Sprintf(`i.name ILIKE $%d ESCAPE '\'`, len(args)))
	}
	if filter.RegNo != nil {
		args = append(args, *filter.RegNo)
		clauses = append(clauses, fmt.Sprintf("i.reg_no=$%d", len(args)))
	}
	if filter.School != nil {
		args = append(args, *filter.School)
		clauses = append(clauses, fmt.Sprintf("i.school=$%d", len(args)))
	}
	if filter.Programme != nil {
		args = append(args, *filter.Programme)
		clauses = append(clauses, fmt.Sprintf("i.programme=$%d", len(args)))
	}
	if filter.AssignedFacultyID != nil {
		args = append(args, *filter.AssignedFacultyID)
		clauses = append(clauses, fmt.Sprintf("i.assigned_faculty_id=$%d", len(args)))
	} else if filter.Assigned != nil {
		if *filter.Assigned {
			clauses = append(clauses, "i.assigned_faculty_id IS NOT NULL")
		} else {
			clauses = append(clauses, "i.assigned_faculty_id IS NULL")
		}
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		clauses = append(clauses, fmt.Sprintf("i.incident_date >= $%d", len(args)))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		clauses = append(clauses, fmt.Sprintf("i.incident_date <= $%d", len(args)))
	}

	return strings.Join(clauses, " AND "), args
}

func buildIssueCount(filter IssueFilter) sqlQuery {
	where, args := buildIssueWhere(filter)
	return sqlQuery{
		text: "SELECT COUNT(*) FROM issues i WHERE " + where,
		args: args,
	}
}

func buildIssueSearch(filter IssueFilter) sqlQuery {
	where, args := buildIssueWhere(filter)

	column, ok := sortColumns[filter.SortField]
	if !ok {
		column = sortColumns[SortByCreatedAt]
	}
	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 25
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	text := fmt.Sprintf(`%s WHERE %s ORDER BY %s %s, i.id %s LIMIT %d OFFSET %d`,
		issueDetailSelect, where, column, direction, direction, limit, offset)
	return sqlQuery{text: text, args: args}
}

func escapeLike(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(term)
}
