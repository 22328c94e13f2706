package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/campusdesk/issue-tracker/internal/api/dto"
	"github.com/campusdesk/issue-tracker/internal/auth"
	"github.com/campusdesk/issue-tracker/internal/service"
)

// IssuesHandler exposes the issue lifecycle and search endpoints.
type IssuesHandler struct {
	issues *service.IssueService
}

// NewIssuesHandler constructs handler.
func NewIssuesHandler(issueService *service.IssueService) *IssuesHandler {
	return &IssuesHandler{issues: issueService}
}

// Create handles POST /issues.
func (h *IssuesHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	caller, _ := auth.IdentityFromContext(c)

	issue, err := h.issues.Create(c.UserContext(), caller, service.CreateIssueInput{
		Name:              req.Name,
		RegNo:             req.RegNo,
		Date:              req.Date,
		School:            req.School,
		Programme:         req.Programme,
		Category:          req.Category,
		Gender:            req.Gender,
		Description:       req.Issue,
		AssignedFacultyID: req.AssignedFacultyID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.IssueMutationResponse{
		Message: "Issue created successfully",
		Issue:   dto.NewIssueResponse(issue),
	})
}

// List handles GET /issues.
func (h *IssuesHandler) List(c *fiber.Ctx) error {
	input, err := searchInput(c)
	if err != nil {
		return err
	}
	caller, _ := auth.IdentityFromContext(c)
	result, err := h.issues.Search(c.UserContext(), caller, input)
	if err != nil {
		return err
	}
	return c.JSON(searchResponse(result))
}

// ListOpen handles GET /issues/open.
func (h *IssuesHandler) ListOpen(c *fiber.Ctx) error {
	input, err := searchInput(c)
	if err != nil {
		return err
	}
	caller, _ := auth.IdentityFromContext(c)
	result, err := h.issues.SearchOpen(c.UserContext(), caller, input)
	if err != nil {
		return err
	}
	return c.JSON(searchResponse(result))
}

// Get handles GET /issues/:id.
func (h *IssuesHandler) Get(c *fiber.Ctx) error {
	detail, err := h.issues.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.IssueGetResponse{Issue: dto.NewIssueDetailResponse(detail)})
}

// Pick handles PATCH /issues/:id/pick.
func (h *IssuesHandler) Pick(c *fiber.Ctx) error {
	caller, _ := auth.IdentityFromContext(c)
	issue, err := h.issues.Pick(c.UserContext(), caller, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.IssueMutationResponse{
		Message: "Issue picked successfully",
		Issue:   dto.NewIssueResponse(issue),
	})
}

// Resolve handles PATCH /issues/:id/resolve. The body is optional.
func (h *IssuesHandler) Resolve(c *fiber.Ctx) error {
	var req dto.ResolveIssueRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid payload")
		}
	}
	caller, _ := auth.IdentityFromContext(c)
	issue, err := h.issues.Resolve(c.UserContext(), caller, c.Params("id"), req.Remark)
	if err != nil {
		return err
	}
	return c.JSON(dto.IssueMutationResponse{
		Message: "Issue resolved successfully",
		Issue:   dto.NewIssueResponse(issue),
	})
}

func searchInput(c *fiber.Ctx) (service.SearchInput, error) {
	var q dto.IssueSearchQuery
	if err := c.QueryParser(&q); err != nil {
		return service.SearchInput{}, fiber.NewError(http.StatusBadRequest, "invalid query")
	}
	return service.SearchInput{
		Status:    q.Status,
		Name:      q.Name,
		RegNo:     q.RegNo,
		School:    q.School,
		Programme: q.Programme,
		Assigned:  q.Assigned,
		Mine:      q.Mine,
		Date:      q.Date,
		DateFrom:  q.DateFrom,
		DateTo:    q.DateTo,
		Page:      q.Page,
		Limit:     q.Limit,
		SortBy:    q.SortBy,
		SortOrder: q.SortOrder,
	}, nil
}

func searchResponse(result *service.SearchResult) dto.IssueSearchResponse {
	return dto.IssueSearchResponse{
		Total:  result.Total,
		Page:   result.Page,
		Limit:  result.Limit,
		Issues: dto.NewIssueDetailResponses(result.Issues),
	}
}
