package domain

import "time"

// ClinicUnit is a health unit served by the help desk.
type ClinicUnit struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
