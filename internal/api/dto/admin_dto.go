package dto

import (
	"time"

	"github.com/clinicdesk/helpdesk/internal/domain"
)

// LoginRequest is the credential payload.
type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// LoginResponse carries the issued token.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// CreateUserRequest is the account registration payload.
type CreateUserRequest struct {
	Name         string      `json:"name"`
	Login        string      `json:"login"`
	Phone        string      `json:"phone"`
	JobTitle     string      `json:"job_title"`
	Role         domain.Role `json:"role"`
	ClinicUnitID string      `json:"clinic_unit_id"`
	Password     string      `json:"password"`
}

// UserResponse is the account representation. Password hashes never leave
// the service.
type UserResponse struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Login        string      `json:"login"`
	Phone        string      `json:"phone,omitempty"`
	JobTitle     string      `json:"job_title,omitempty"`
	Role         domain.Role `json:"role"`
	ClinicUnitID string      `json:"clinic_unit_id"`
	Active       bool        `json:"active"`
	CreatedAt    time.Time   `json:"created_at"`
}

// ClinicUnitRequest is the unit create/rename payload.
type ClinicUnitRequest struct {
	Name string `json:"name"`
}

// ClinicUnitResponse is the unit representation.
type ClinicUnitResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// CategoryRequest is the category create/update payload.
type CategoryRequest struct {
	Name                    string                `json:"name"`
	Active                  *bool                 `json:"active,omitempty"`
	DefaultPriority         domain.TicketPriority `json:"default_priority,omitempty"`
	ResolutionOverrideHours *int                  `json:"resolution_override_hours,omitempty"`
}

// CategoryResponse is the category representation.
type CategoryResponse struct {
	ID                      string                `json:"id"`
	Name                    string                `json:"name"`
	System                  bool                  `json:"system"`
	Active                  bool                  `json:"active"`
	DefaultPriority         domain.TicketPriority `json:"default_priority"`
	ResolutionOverrideHours *int                  `json:"resolution_override_hours,omitempty"`
}

// SetActiveRequest toggles an account or record.
type SetActiveRequest struct {
	Active bool `json:"active"`
}
