package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/clinicdesk/helpdesk/internal/api/dto"
	"github.com/clinicdesk/helpdesk/internal/domain"
	"github.com/clinicdesk/helpdesk/internal/service"
	"github.com/clinicdesk/helpdesk/pkg/apperrors"
)

// InventoryHandler manages stock and hardware endpoints.
type InventoryHandler struct {
	service *service.InventoryService
}

// NewInventoryHandler constructs handler.
func NewInventoryHandler(inventoryService *service.InventoryService) *InventoryHandler {
	return &InventoryHandler{service: inventoryService}
}

// CreateStockItem POST /inventory/stock.
func (h *InventoryHandler) CreateStockItem(c *fiber.Ctx) error {
	var req dto.StockItemRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	item, err := h.service.CreateStockItem(c.Context(), service.StockInput{
		Name:        req.Name,
		Quantity:    req.Quantity,
		MinQuantity: req.MinQuantity,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": stockResponse(item)})
}

// UpdateStockItem PUT /inventory/stock/:id.
func (h *InventoryHandler) UpdateStockItem(c *fiber.Ctx) error {
	var req dto.StockItemRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	item, err := h.service.UpdateStockItem(c.Context(), c.Params("id"), service.StockInput{
		Name:        req.Name,
		Quantity:    req.Quantity,
		MinQuantity: req.MinQuantity,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stockResponse(item)})
}

// AdjustStock POST /inventory/stock/:id/adjust.
func (h *InventoryHandler) AdjustStock(c *fiber.Ctx) error {
	var req dto.StockAdjustRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Delta == 0 {
		return apperrors.NewValidationError("delta must be non-zero", nil)
	}
	item, err := h.service.AdjustStock(c.Context(), c.Params("id"), req.Delta)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stockResponse(item)})
}

// ListStock GET /inventory/stock.
func (h *InventoryHandler) ListStock(c *fiber.Ctx) error {
	belowMinimum := c.Query("below_minimum") == "true"
	items, err := h.service.ListStock(c.Context(), belowMinimum)
	if err != nil {
		return err
	}
	result := make([]dto.StockItemResponse, 0, len(items))
	for i := range items {
		result = append(result, stockResponse(&items[i]))
	}
	return c.JSON(fiber.Map{"data": result})
}

// RegisterHardware POST /inventory/hardware.
func (h *InventoryHandler) RegisterHardware(c *fiber.Ctx) error {
	var req dto.HardwareRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	asset, err := h.service.RegisterHardware(c.Context(), hardwareInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": hardwareResponse(asset)})
}

// UpdateHardware PATCH /inventory/hardware/:id.
func (h *InventoryHandler) UpdateHardware(c *fiber.Ctx) error {
	var req dto.HardwareRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	asset, err := h.service.UpdateHardware(c.Context(), c.Params("id"), hardwareInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": hardwareResponse(asset)})
}

// ListHardware GET /inventory/hardware.
func (h *InventoryHandler) ListHardware(c *fiber.Ctx) error {
	var clinicUnitID *string
	if unit := c.Query("clinic_unit_id"); unit != "" {
		clinicUnitID = &unit
	}
	var status *domain.HardwareStatus
	if statusStr := c.Query("status"); statusStr != "" {
		s := domain.HardwareStatus(statusStr)
		if !s.Valid() {
			return apperrors.NewValidationError("invalid status", map[string]any{"status": statusStr})
		}
		status = &s
	}

	assets, err := h.service.ListHardware(c.Context(), clinicUnitID, status)
	if err != nil {
		return err
	}
	result := make([]dto.HardwareResponse, 0, len(assets))
	for i := range assets {
		result = append(result, hardwareResponse(&assets[i]))
	}
	return c.JSON(fiber.Map{"data": result})
}

func hardwareInput(req dto.HardwareRequest) service.HardwareInput {
	return service.HardwareInput{
		AssetTag:     req.AssetTag,
		ClinicUnitID: req.ClinicUnitID,
		Room:         req.Room,
		Type:         req.Type,
		Model:        req.Model,
		AnyDeskID:    req.AnyDeskID,
		Status:       req.Status,
		Notes:        req.Notes,
	}
}

func stockResponse(item *domain.StockItem) dto.StockItemResponse {
	return dto.StockItemResponse{
		ID:           item.ID,
		Name:         item.Name,
		Quantity:     item.Quantity,
		MinQuantity:  item.MinQuantity,
		BelowMinimum: item.BelowMinimum(),
		UpdatedAt:    item.UpdatedAt,
	}
}

func hardwareResponse(asset *domain.HardwareAsset) dto.HardwareResponse {
	return dto.HardwareResponse{
		ID:           asset.ID,
		AssetTag:     asset.AssetTag,
		ClinicUnitID: asset.ClinicUnitID,
		Room:         asset.Room,
		Type:         asset.Type,
		Model:        asset.Model,
		AnyDeskID:    asset.AnyDeskID,
		Status:       asset.Status,
		Notes:        asset.Notes,
		UpdatedAt:    asset.UpdatedAt,
	}
}
