package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/clinicdesk/helpdesk/internal/api/dto"
	"github.com/clinicdesk/helpdesk/internal/domain"
	"github.com/clinicdesk/helpdesk/internal/service"
	"github.com/clinicdesk/helpdesk/pkg/apperrors"
)

// AuthHandler manages authentication endpoints.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{service: authService}
}

// Login POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Login == "" || req.Password == "" {
		return apperrors.NewValidationError("login and password required", nil)
	}

	result, err := h.service.Login(c.Context(), req.Login, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.LoginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      userResponse(result.User),
	}})
}

// Register POST /admin/users (admin only at the route level).
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.service.CreateUser(c.Context(), service.UserCreateInput{
		Name:         req.Name,
		Login:        req.Login,
		Phone:        req.Phone,
		JobTitle:     req.JobTitle,
		Role:         req.Role,
		ClinicUnitID: req.ClinicUnitID,
		Password:     req.Password,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": userResponse(user)})
}

func userResponse(user *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:           user.ID,
		Name:         user.Name,
		Login:        user.Login,
		Phone:        user.Phone,
		JobTitle:     user.JobTitle,
		Role:         user.Role,
		ClinicUnitID: user.ClinicUnitID,
		Active:       user.Active,
		CreatedAt:    user.CreatedAt,
	}
}
