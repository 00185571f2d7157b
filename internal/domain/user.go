package domain

import "time"

// Role enumerates account capability levels. Only technicians carry
// resolving authority over tickets.
type Role string

const (
	RoleRequester   Role = "REQUESTER"
	RoleCoordinator Role = "COORDINATOR"
	RoleTech        Role = "TECH"
	RoleAdmin       Role = "ADMIN"
)

// Valid reports whether the role is a known enum value.
func (r Role) Valid() bool {
	switch r {
	case RoleRequester, RoleCoordinator, RoleTech, RoleAdmin:
		return true
	}
	return false
}

// User is an account belonging to a clinic unit.
type User struct {
	ID           string
	Name         string
	Login        string
	Phone        string
	JobTitle     string
	Role         Role
	ClinicUnitID string
	PasswordHash string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
