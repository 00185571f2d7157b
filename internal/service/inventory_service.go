package service

import (
	"context"
	"strings"

	"github.com/clinicdesk/helpdesk/internal/domain"
	"github.com/clinicdesk/helpdesk/internal/repository"
	"github.com/clinicdesk/helpdesk/pkg/apperrors"
)

// InventoryService manages spare part stock and the hardware asset register.
type InventoryService struct {
	stock    repository.StockRepository
	hardware repository.HardwareRepository
}

// NewInventoryService constructs the service.
func NewInventoryService(stock repository.StockRepository, hardware repository.HardwareRepository) *InventoryService {
	return &InventoryService{stock: stock, hardware: hardware}
}

// StockInput describes stock item payloads.
type StockInput struct {
	Name        string
	Quantity    int
	MinQuantity int
}

// CreateStockItem registers a stock item. Duplicate names surface as a
// CONFLICT, never as an upsert.
func (s *InventoryService) CreateStockItem(ctx context.Context, input StockInput) (*domain.StockItem, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("name required", nil)
	}
	if input.Quantity < 0 || input.MinQuantity < 0 {
		return nil, apperrors.NewValidationError("quantities must be non-negative", nil)
	}
	item := &domain.StockItem{Name: name, Quantity: input.Quantity, MinQuantity: input.MinQuantity}
	if err := s.stock.Create(ctx, item); err != nil {
		return nil, apperrors.MapError(err)
	}
	return item, nil
}

// UpdateStockItem replaces a stock item's fields.
func (s *InventoryService) UpdateStockItem(ctx context.Context, id string, input StockInput) (*domain.StockItem, error) {
	item, err := s.stock.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if name := strings.TrimSpace(input.Name); name != "" {
		item.Name = name
	}
	if input.Quantity < 0 || input.MinQuantity < 0 {
		return nil, apperrors.NewValidationError("quantities must be non-negative", nil)
	}
	item.Quantity = input.Quantity
	item.MinQuantity = input.MinQuantity
	if err := s.stock.Update(ctx, item); err != nil {
		return nil, apperrors.MapError(err)
	}
	return item, nil
}

// AdjustStock applies a relative quantity change, for part consumption
// during repairs and restocking.
func (s *InventoryService) AdjustStock(ctx context.Context, id string, delta int) (*domain.StockItem, error) {
	item, err := s.stock.AdjustQuantity(ctx, id, delta)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return item, nil
}

// ListStock returns stock items, optionally only those below minimum.
func (s *InventoryService) ListStock(ctx context.Context, belowMinimumOnly bool) ([]domain.StockItem, error) {
	items, err := s.stock.List(ctx, belowMinimumOnly)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return items, nil
}

// HardwareInput describes hardware asset payloads.
type HardwareInput struct {
	AssetTag     string
	ClinicUnitID string
	Room         domain.Room
	Type         string
	Model        *string
	AnyDeskID    *string
	Status       domain.HardwareStatus
	Notes        *string
}

// RegisterHardware records a hardware asset.
func (s *InventoryService) RegisterHardware(ctx context.Context, input HardwareInput) (*domain.HardwareAsset, error) {
	tag := strings.TrimSpace(input.AssetTag)
	if tag == "" || strings.TrimSpace(input.Type) == "" {
		return nil, apperrors.NewValidationError("asset tag and type required", nil)
	}
	if !input.Room.Valid() {
		return nil, apperrors.NewValidationError("invalid room", map[string]any{"room": input.Room})
	}
	status := input.Status
	if status == "" {
		status = domain.HardwareActive
	}
	if !status.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": status})
	}

	asset := &domain.HardwareAsset{
		AssetTag:     tag,
		ClinicUnitID: input.ClinicUnitID,
		Room:         input.Room,
		Type:         strings.TrimSpace(input.Type),
		Model:        input.Model,
		AnyDeskID:    input.AnyDeskID,
		Status:       status,
		Notes:        input.Notes,
	}
	if err := s.hardware.Create(ctx, asset); err != nil {
		return nil, apperrors.MapError(err)
	}
	return asset, nil
}

// UpdateHardware changes a hardware asset's mutable fields.
func (s *InventoryService) UpdateHardware(ctx context.Context, id string, input HardwareInput) (*domain.HardwareAsset, error) {
	asset, err := s.hardware.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	if input.ClinicUnitID != "" {
		asset.ClinicUnitID = input.ClinicUnitID
	}
	if input.Room != "" {
		if !input.Room.Valid() {
			return nil, apperrors.NewValidationError("invalid room", map[string]any{"room": input.Room})
		}
		asset.Room = input.Room
	}
	if t := strings.TrimSpace(input.Type); t != "" {
		asset.Type = t
	}
	if input.Model != nil {
		asset.Model = input.Model
	}
	if input.AnyDeskID != nil {
		asset.AnyDeskID = input.AnyDeskID
	}
	if input.Status != "" {
		if !input.Status.Valid() {
			return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": input.Status})
		}
		asset.Status = input.Status
	}
	if input.Notes != nil {
		asset.Notes = input.Notes
	}

	if err := s.hardware.Update(ctx, asset); err != nil {
		return nil, apperrors.MapError(err)
	}
	return asset, nil
}

// ListHardware returns assets filtered by clinic unit and status.
func (s *InventoryService) ListHardware(ctx context.Context, clinicUnitID *string, status *domain.HardwareStatus) ([]domain.HardwareAsset, error) {
	assets, err := s.hardware.List(ctx, clinicUnitID, status)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return assets, nil
}
