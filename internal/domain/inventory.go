package domain

import "time"

// StockItem tracks consumables and spare parts held by the IT team.
type StockItem struct {
	ID          string
	Name        string
	Quantity    int
	MinQuantity int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BelowMinimum reports whether the item needs restocking.
func (s StockItem) BelowMinimum() bool {
	return s.Quantity < s.MinQuantity
}

// HardwareStatus enumerates asset lifecycle states.
type HardwareStatus string

const (
	HardwareActive      HardwareStatus = "ACTIVE"
	HardwareMaintenance HardwareStatus = "MAINTENANCE"
	HardwareRetired     HardwareStatus = "RETIRED"
)

// Valid reports whether the hardware status is a known enum value.
func (s HardwareStatus) Valid() bool {
	switch s {
	case HardwareActive, HardwareMaintenance, HardwareRetired:
		return true
	}
	return false
}

// HardwareAsset is an inventoried device installed at a clinic unit.
type HardwareAsset struct {
	ID           string
	AssetTag     string
	ClinicUnitID string
	Room         Room
	Type         string
	Model        *string
	AnyDeskID    *string
	Status       HardwareStatus
	Notes        *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
