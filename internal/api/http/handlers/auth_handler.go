package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/campusdesk/issue-tracker/internal/api/dto"
	"github.com/campusdesk/issue-tracker/internal/auth"
	"github.com/campusdesk/issue-tracker/internal/domain"
	"github.com/campusdesk/issue-tracker/internal/service"
	apperrors "github.com/campusdesk/issue-tracker/pkg/util/errorutil"
)

// AuthHandler exposes account endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	user, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.Role(req.Role),
		School:   req.School,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(dto.RegisterResponse{
		Message: "User registered successfully",
		User:    dto.NewUserResponse(user),
	})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	session, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(dto.LoginResponse{
		Message:   "Login successful",
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		User:      dto.NewUserResponse(session.User),
	})
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("unauthorized")
	}
	return c.JSON(dto.MeResponse{User: dto.NewUserResponse(user)})
}

// Faculties handles GET /auth/faculties.
func (h *AuthHandler) Faculties(c *fiber.Ctx) error {
	faculties, err := h.auth.ListFaculties(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.FacultiesResponse{
		Message:   "Faculties fetched successfully",
		Faculties: dto.NewUserResponses(faculties),
	})
}
