package service

import (
	"context"
	"strings"

	"github.com/clinicdesk/helpdesk/internal/domain"
	"github.com/clinicdesk/helpdesk/internal/repository"
	"github.com/clinicdesk/helpdesk/pkg/apperrors"
)

// AdminService manages the reference data behind tickets: clinic units,
// categories and accounts.
type AdminService struct {
	units      repository.ClinicUnitRepository
	categories repository.CategoryRepository
	users      repository.UserRepository
}

// NewAdminService constructs the service.
func NewAdminService(units repository.ClinicUnitRepository, categories repository.CategoryRepository, users repository.UserRepository) *AdminService {
	return &AdminService{units: units, categories: categories, users: users}
}

// CreateClinicUnit registers a clinic unit.
func (s *AdminService) CreateClinicUnit(ctx context.Context, name string) (*domain.ClinicUnit, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("name required", nil)
	}
	unit := &domain.ClinicUnit{Name: name}
	if err := s.units.Create(ctx, unit); err != nil {
		return nil, apperrors.MapError(err)
	}
	return unit, nil
}

// RenameClinicUnit updates a unit's name.
func (s *AdminService) RenameClinicUnit(ctx context.Context, id, name string) (*domain.ClinicUnit, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("name required", nil)
	}
	unit, err := s.units.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	unit.Name = name
	if err := s.units.Update(ctx, unit); err != nil {
		return nil, apperrors.MapError(err)
	}
	return unit, nil
}

// ListClinicUnits returns every clinic unit.
func (s *AdminService) ListClinicUnits(ctx context.Context) ([]domain.ClinicUnit, error) {
	units, err := s.units.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return units, nil
}

// CategoryInput describes category create/update payloads.
type CategoryInput struct {
	Name                    string
	Active                  *bool
	DefaultPriority         domain.TicketPriority
	ResolutionOverrideHours *int
}

// CreateCategory registers a ticket category.
func (s *AdminService) CreateCategory(ctx context.Context, input CategoryInput) (*domain.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("name required", nil)
	}
	priority := input.DefaultPriority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	if !priority.Valid() {
		return nil, apperrors.NewValidationError("invalid default priority", map[string]any{"priority": priority})
	}
	if input.ResolutionOverrideHours != nil && *input.ResolutionOverrideHours <= 0 {
		return nil, apperrors.NewValidationError("resolution override must be positive", nil)
	}

	category := &domain.Category{
		Name:                    name,
		Active:                  true,
		DefaultPriority:         priority,
		ResolutionOverrideHours: input.ResolutionOverrideHours,
	}
	if input.Active != nil {
		category.Active = *input.Active
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, apperrors.MapError(err)
	}
	return category, nil
}

// UpdateCategory changes a category's mutable fields. System categories keep
// their name.
func (s *AdminService) UpdateCategory(ctx context.Context, id string, input CategoryInput) (*domain.Category, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		if category.System && name != category.Name {
			return nil, apperrors.NewValidationError("system categories cannot be renamed", nil)
		}
		category.Name = name
	}
	if input.Active != nil {
		category.Active = *input.Active
	}
	if input.DefaultPriority != "" {
		if !input.DefaultPriority.Valid() {
			return nil, apperrors.NewValidationError("invalid default priority", map[string]any{"priority": input.DefaultPriority})
		}
		category.DefaultPriority = input.DefaultPriority
	}
	if input.ResolutionOverrideHours != nil {
		if *input.ResolutionOverrideHours <= 0 {
			return nil, apperrors.NewValidationError("resolution override must be positive", nil)
		}
		category.ResolutionOverrideHours = input.ResolutionOverrideHours
	}

	if err := s.categories.Update(ctx, category); err != nil {
		return nil, apperrors.MapError(err)
	}
	return category, nil
}

// ListCategories returns categories, optionally including inactive ones.
func (s *AdminService) ListCategories(ctx context.Context, includeInactive bool) ([]domain.Category, error) {
	categories, err := s.categories.List(ctx, includeInactive)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return categories, nil
}

// ListUsers returns accounts filtered by role and clinic unit.
func (s *AdminService) ListUsers(ctx context.Context, role *domain.Role, clinicUnitID *string) ([]domain.User, error) {
	users, err := s.users.List(ctx, role, clinicUnitID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// SetUserActive enables or disables an account.
func (s *AdminService) SetUserActive(ctx context.Context, id string, active bool) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	user.Active = active
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}
