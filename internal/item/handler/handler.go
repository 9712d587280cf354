package handler

import (
	"errors"

	"github.com/fekuna/omnipos-stock-service/internal/auth"
	"github.com/fekuna/omnipos-stock-service/internal/item"
	"github.com/fekuna/omnipos-stock-service/internal/item/dto"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ItemHandler struct {
	uc     item.UseCase
	logger logger.ZapLogger
}

func NewItemHandler(uc item.UseCase, log logger.ZapLogger) *ItemHandler {
	return &ItemHandler{
		uc:     uc,
		logger: log,
	}
}

// Register mounts the routes on r. Reads are public, writes need a manager.
func (h *ItemHandler) Register(r fiber.Router) {
	manager := []fiber.Handler{auth.Middleware(), auth.RequireManager()}

	r.Get("/store/:storeId", h.ListByStore)
	r.Get("/manager/low-stock", append(manager, h.ListLowStock)...)
	r.Get("/:id", h.Get)
	r.Post("/store/:storeId", append(manager, h.Create)...)
	r.Put("/:id", append(manager, h.Update)...)
	r.Patch("/:id/stock", append(manager, h.AdjustStock)...)
	r.Delete("/:id", append(manager, h.Deactivate)...)
}

type createItemRequest struct {
	Name             string  `json:"name"`
	Description      string  `json:"description"`
	Category         string  `json:"category"`
	Price            float64 `json:"price"`
	Quantity         *int    `json:"quantity"`
	ReorderThreshold *int    `json:"reorderThreshold"`
}

type updateItemRequest struct {
	Name             *string  `json:"name"`
	Description      *string  `json:"description"`
	Category         *string  `json:"category"`
	Price            *float64 `json:"price"`
	Quantity         *int     `json:"quantity"`
	ReorderThreshold *int     `json:"reorderThreshold"`
}

type adjustStockRequest struct {
	Delta int `json:"delta"`
}

func (h *ItemHandler) ListByStore(c *fiber.Ctx) error {
	items, err := h.uc.ListStoreItems(c.UserContext(), c.Params("storeId"))
	if err != nil {
		return h.fail(c, err, "Failed to fetch items")
	}
	return c.JSON(fiber.Map{"items": items})
}

func (h *ItemHandler) Get(c *fiber.Ctx) error {
	i, err := h.uc.GetItem(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err, "Failed to fetch item")
	}
	return c.JSON(fiber.Map{"item": i})
}

func (h *ItemHandler) Create(c *fiber.Ctx) error {
	var req createItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	i, err := h.uc.CreateItem(c.UserContext(), &dto.CreateItemInput{
		ManagerID:        auth.FromContext(c.UserContext()).UserID,
		StoreID:          c.Params("storeId"),
		Name:             req.Name,
		Description:      req.Description,
		Category:         req.Category,
		Price:            req.Price,
		Quantity:         req.Quantity,
		ReorderThreshold: req.ReorderThreshold,
	})
	if err != nil {
		return h.fail(c, err, "Failed to create item")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Item created successfully",
		"item":    i,
	})
}

func (h *ItemHandler) Update(c *fiber.Ctx) error {
	var req updateItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	i, err := h.uc.UpdateItem(c.UserContext(), &dto.UpdateItemInput{
		ManagerID:        auth.FromContext(c.UserContext()).UserID,
		ItemID:           c.Params("id"),
		Name:             req.Name,
		Description:      req.Description,
		Category:         req.Category,
		Price:            req.Price,
		Quantity:         req.Quantity,
		ReorderThreshold: req.ReorderThreshold,
	})
	if err != nil {
		return h.fail(c, err, "Failed to update item")
	}
	return c.JSON(fiber.Map{
		"message": "Item updated successfully",
		"item":    i,
	})
}

func (h *ItemHandler) AdjustStock(c *fiber.Ctx) error {
	var req adjustStockRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	i, err := h.uc.AdjustStock(c.UserContext(), &dto.AdjustStockInput{
		ManagerID: auth.FromContext(c.UserContext()).UserID,
		ItemID:    c.Params("id"),
		Delta:     req.Delta,
	})
	if err != nil {
		return h.fail(c, err, "Failed to adjust stock")
	}
	return c.JSON(fiber.Map{"item": i})
}

func (h *ItemHandler) Deactivate(c *fiber.Ctx) error {
	err := h.uc.DeactivateItem(c.UserContext(), auth.FromContext(c.UserContext()).UserID, c.Params("id"))
	if err != nil {
		return h.fail(c, err, "Failed to delete item")
	}
	return c.JSON(fiber.Map{"message": "Item deleted successfully"})
}

func (h *ItemHandler) ListLowStock(c *fiber.Ctx) error {
	items, err := h.uc.ListLowStock(c.UserContext(), auth.FromContext(c.UserContext()).UserID)
	if err != nil {
		return h.fail(c, err, "Failed to fetch low stock items")
	}
	return c.JSON(fiber.Map{"items": items})
}

func (h *ItemHandler) fail(c *fiber.Ctx, err error, internal string) error {
	switch {
	case errors.Is(err, item.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Item not found"})
	case errors.Is(err, item.ErrStoreNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Store not found"})
	case errors.Is(err, item.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, item.ErrInvalidInput), errors.Is(err, item.ErrInsufficientStock):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	default:
		h.logger.Error(internal, zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": internal})
	}
}
