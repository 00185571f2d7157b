package dto

import (
	"time"

	"github.com/clinicdesk/helpdesk/internal/domain"
)

// StockItemRequest is the stock create/update payload.
type StockItemRequest struct {
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	MinQuantity int    `json:"min_quantity"`
}

// StockAdjustRequest applies a relative quantity change.
type StockAdjustRequest struct {
	Delta int `json:"delta"`
}

// StockItemResponse is the stock representation.
type StockItemResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Quantity     int       `json:"quantity"`
	MinQuantity  int       `json:"min_quantity"`
	BelowMinimum bool      `json:"below_minimum"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HardwareRequest is the hardware asset payload.
type HardwareRequest struct {
	AssetTag     string                `json:"asset_tag"`
	ClinicUnitID string                `json:"clinic_unit_id"`
	Room         domain.Room           `json:"room"`
	Type         string                `json:"type"`
	Model        *string               `json:"model,omitempty"`
	AnyDeskID    *string               `json:"anydesk_id,omitempty"`
	Status       domain.HardwareStatus `json:"status,omitempty"`
	Notes        *string               `json:"notes,omitempty"`
}

// HardwareResponse is the hardware asset representation.
type HardwareResponse struct {
	ID           string                `json:"id"`
	AssetTag     string                `json:"asset_tag"`
	ClinicUnitID string                `json:"clinic_unit_id"`
	Room         domain.Room           `json:"room"`
	Type         string                `json:"type"`
	Model        *string               `json:"model,omitempty"`
	AnyDeskID    *string               `json:"anydesk_id,omitempty"`
	Status       domain.HardwareStatus `json:"status"`
	Notes        *string               `json:"notes,omitempty"`
	UpdatedAt    time.Time             `json:"updated_at"`
}
