package repository

import (
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/campusdesk/issue-tracker/internal/domain"
)

func strPtr(s string) *string { return &s }

var _ = Describe("issue query builder", func() {
	It("selects everything newest first by default", func() {
		q := buildIssueSearch(IssueFilter{SortField: SortByCreatedAt, SortDesc: true})
		Expect(q.text).To(ContainSubstring("WHERE 1=1 ORDER BY i.created_at DESC, i.id DESC LIMIT 25 OFFSET 0"))
		Expect(q.args).To(BeEmpty())
	})

	It("ANDs predicates with positional args", func() {
		status := domain.IssueStatusOpen
		assigned := true
		from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
		to := from.Add(24*time.Hour - time.Millisecond)

		where, args := buildIssueWhere(IssueFilter{
			Status:       &status,
			NameContains: strPtr("ann"),
			School:       strPtr("SCOPE"),
			Assigned:     &assigned,
			DateFrom:     &from,
			DateTo:       &to,
		})

		Expect(where).To(Equal(`1=1 AND i.status=$1 AND i.name ILIKE $2 ESCAPE '\' AND i.school=$3` +
			` AND i.assigned_faculty_id IS NOT NULL AND i.incident_date >= $4 AND i.incident_date <= $5`))
		Expect(args).To(Equal([]any{"Open", "%ann%", "SCOPE", from, to}))
	})

	It("lets a specific assignee override the assigned flag", func() {
		unassigned := false
		where, args := buildIssueWhere(IssueFilter{Assigned: &unassigned, AssignedFacultyID: strPtr("f-1")})
		Expect(where).To(Equal("1=1 AND i.assigned_faculty_id=$1"))
		Expect(args).To(Equal([]any{"f-1"}))
	})

	It("filters unassigned issues", func() {
		unassigned := false
		where, _ := buildIssueWhere(IssueFilter{Assigned: &unassigned})
		Expect(where).To(Equal("1=1 AND i.assigned_faculty_id IS NULL"))
	})

	It("escapes LIKE metacharacters in name searches", func() {
		_, args := buildIssueWhere(IssueFilter{NameContains: strPtr(`50%_off\`)})
		Expect(args).To(Equal([]any{`%50\%\_off\\%`}))
	})

	It("counts with the same predicates", func() {
		q := buildIssueCount(IssueFilter{RegNo: strPtr("21BCE001")})
		Expect(q.text).To(Equal("SELECT COUNT(*) FROM issues i WHERE 1=1 AND i.reg_no=$1"))
		Expect(q.args).To(Equal([]any{"21BCE001"}))
	})

	It("applies sort direction and paging", func() {
		q := buildIssueSearch(IssueFilter{SortField: SortByName, Limit: 10, Offset: 20})
		Expect(q.text).To(HaveSuffix("ORDER BY i.name ASC, i.id ASC LIMIT 10 OFFSET 20"))
	})

	It("never renders an unknown sort field", func() {
		q := buildIssueSearch(IssueFilter{SortField: IssueSortField("1; DROP TABLE issues"), SortDesc: true})
		Expect(q.text).To(ContainSubstring("ORDER BY i.created_at DESC"))
		Expect(q.text).NotTo(ContainSubstring("DROP"))
	})

	DescribeTable("ParseSortField",
		func(raw string, want IssueSortField) {
			Expect(ParseSortField(raw)).To(Equal(want))
		},
		Entry("known", "regNo", SortByRegNo),
		Entry("padded", " date ", SortByDate),
		Entry("empty", "", SortByCreatedAt),
		Entry("unknown", "password_hash", SortByCreatedAt),
	)
})

var _ = Describe("error helpers", func() {
	It("maps no rows to ErrNotFound", func() {
		Expect(notFound(pgx.ErrNoRows)).To(MatchError(ErrNotFound))
		other := errors.New("boom")
		Expect(notFound(other)).To(Equal(other))
	})

	It("recognises the email unique violation", func() {
		err := &pgconn.PgError{Code: "23505", ConstraintName: usersEmailConstraint}
		Expect(isUniqueViolation(err, usersEmailConstraint)).To(BeTrue())
		Expect(isUniqueViolation(err, "other_key")).To(BeFalse())
		Expect(isUniqueViolation(errors.New("x"), usersEmailConstraint)).To(BeFalse())
	})

	It("turns an unmatched conditional update into ErrPreconditionFailed", func() {
		_, err := conditional(nil, ErrNotFound)
		Expect(err).To(MatchError(ErrPreconditionFailed))
	})

	It("validates identifiers", func() {
		Expect(ValidID("3f1c8f2e-8d7a-4c64-9a55-0f1b2c3d4e5f")).To(BeTrue())
		Expect(ValidID("64f0c2a9e4b0a1b2c3d4e5f6")).To(BeFalse())
	})
})
