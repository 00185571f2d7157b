package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/clinicdesk/helpdesk/internal/api/dto"
	"github.com/clinicdesk/helpdesk/internal/domain"
	"github.com/clinicdesk/helpdesk/internal/service"
	"github.com/clinicdesk/helpdesk/pkg/apperrors"
)

// AdminHandler manages reference data endpoints.
type AdminHandler struct {
	service *service.AdminService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{service: adminService}
}

// CreateClinicUnit POST /admin/clinic-units.
func (h *AdminHandler) CreateClinicUnit(c *fiber.Ctx) error {
	var req dto.ClinicUnitRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	unit, err := h.service.CreateClinicUnit(c.Context(), req.Name)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": clinicUnitResponse(unit)})
}

// RenameClinicUnit PATCH /admin/clinic-units/:id.
func (h *AdminHandler) RenameClinicUnit(c *fiber.Ctx) error {
	var req dto.ClinicUnitRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	unit, err := h.service.RenameClinicUnit(c.Context(), c.Params("id"), req.Name)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": clinicUnitResponse(unit)})
}

// ListClinicUnits GET /admin/clinic-units.
func (h *AdminHandler) ListClinicUnits(c *fiber.Ctx) error {
	units, err := h.service.ListClinicUnits(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.ClinicUnitResponse, 0, len(units))
	for i := range units {
		items = append(items, clinicUnitResponse(&units[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateCategory POST /admin/categories.
func (h *AdminHandler) CreateCategory(c *fiber.Ctx) error {
	var req dto.CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	category, err := h.service.CreateCategory(c.Context(), service.CategoryInput{
		Name:                    req.Name,
		Active:                  req.Active,
		DefaultPriority:         req.DefaultPriority,
		ResolutionOverrideHours: req.ResolutionOverrideHours,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": categoryResponse(category)})
}

// UpdateCategory PATCH /admin/categories/:id.
func (h *AdminHandler) UpdateCategory(c *fiber.Ctx) error {
	var req dto.CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	category, err := h.service.UpdateCategory(c.Context(), c.Params("id"), service.CategoryInput{
		Name:                    req.Name,
		Active:                  req.Active,
		DefaultPriority:         req.DefaultPriority,
		ResolutionOverrideHours: req.ResolutionOverrideHours,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": categoryResponse(category)})
}

// ListCategories GET /categories.
func (h *AdminHandler) ListCategories(c *fiber.Ctx) error {
	includeInactive := c.Query("include_inactive") == "true"
	categories, err := h.service.ListCategories(c.Context(), includeInactive)
	if err != nil {
		return err
	}
	items := make([]dto.CategoryResponse, 0, len(categories))
	for i := range categories {
		items = append(items, categoryResponse(&categories[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListUsers GET /admin/users.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	var role *domain.Role
	if roleStr := c.Query("role"); roleStr != "" {
		r := domain.Role(roleStr)
		if !r.Valid() {
			return apperrors.NewValidationError("invalid role", map[string]any{"role": roleStr})
		}
		role = &r
	}
	var clinicUnitID *string
	if unit := c.Query("clinic_unit_id"); unit != "" {
		clinicUnitID = &unit
	}

	users, err := h.service.ListUsers(c.Context(), role, clinicUnitID)
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, userResponse(&users[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// SetUserActive PATCH /admin/users/:id/active.
func (h *AdminHandler) SetUserActive(c *fiber.Ctx) error {
	var req dto.SetActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, err := h.service.SetUserActive(c.Context(), c.Params("id"), req.Active)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

func clinicUnitResponse(unit *domain.ClinicUnit) dto.ClinicUnitResponse {
	return dto.ClinicUnitResponse{ID: unit.ID, Name: unit.Name, CreatedAt: unit.CreatedAt}
}

func categoryResponse(category *domain.Category) dto.CategoryResponse {
	return dto.CategoryResponse{
		ID:                      category.ID,
		Name:                    category.Name,
		System:                  category.System,
		Active:                  category.Active,
		DefaultPriority:         category.DefaultPriority,
		ResolutionOverrideHours: category.ResolutionOverrideHours,
	}
}
