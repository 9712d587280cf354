package handler

import (
	"errors"

	"github.com/fekuna/omnipos-stock-service/internal/auth"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/store"
	"github.com/fekuna/omnipos-stock-service/internal/store/dto"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type StoreHandler struct {
	uc     store.UseCase
	logger logger.ZapLogger
}

func NewStoreHandler(uc store.UseCase, log logger.ZapLogger) *StoreHandler {
	return &StoreHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *StoreHandler) Register(r fiber.Router) {
	manager := []fiber.Handler{auth.Middleware(), auth.RequireManager()}

	r.Get("/", auth.Middleware(), h.List)
	r.Get("/public", h.ListPublic)
	r.Get("/manager/my-stores", append(manager, h.List)...)
	r.Get("/:id", h.Get)
	r.Post("/", append(manager, h.Create)...)
	r.Put("/:id", append(manager, h.Update)...)
	r.Delete("/:id", append(manager, h.Deactivate)...)
}

type storeRequest struct {
	Name        *string   `json:"name"`
	Address     *string   `json:"address"`
	Coordinates []float64 `json:"coordinates"`
}

func (r *storeRequest) location() (*model.GeoPoint, error) {
	if r.Coordinates == nil {
		return nil, nil
	}
	p, err := model.PointFromCoordinates(r.Coordinates)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (h *StoreHandler) List(c *fiber.Ctx) error {
	stores, err := h.uc.ListStores(c.UserContext(), auth.FromContext(c.UserContext()))
	if err != nil {
		return h.fail(c, err, "Failed to fetch stores")
	}
	return c.JSON(fiber.Map{"stores": stores})
}

func (h *StoreHandler) ListPublic(c *fiber.Ctx) error {
	stores, err := h.uc.ListPublic(c.UserContext())
	if err != nil {
		return h.fail(c, err, "Failed to fetch stores")
	}
	return c.JSON(fiber.Map{"stores": stores})
}

func (h *StoreHandler) Get(c *fiber.Ctx) error {
	s, err := h.uc.GetStore(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err, "Failed to fetch store")
	}
	return c.JSON(fiber.Map{"store": s})
}

func (h *StoreHandler) Create(c *fiber.Ctx) error {
	var req storeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	loc, err := req.location()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	input := &dto.CreateStoreInput{
		ManagerID: auth.FromContext(c.UserContext()).UserID,
		Location:  loc,
	}
	if req.Name != nil {
		input.Name = *req.Name
	}
	if req.Address != nil {
		input.Address = *req.Address
	}

	s, err := h.uc.CreateStore(c.UserContext(), input)
	if err != nil {
		return h.fail(c, err, "Failed to create store")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Store created successfully",
		"store":   s,
	})
}

func (h *StoreHandler) Update(c *fiber.Ctx) error {
	var req storeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	loc, err := req.location()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	s, err := h.uc.UpdateStore(c.UserContext(), &dto.UpdateStoreInput{
		ManagerID: auth.FromContext(c.UserContext()).UserID,
		StoreID:   c.Params("id"),
		Name:      req.Name,
		Address:   req.Address,
		Location:  loc,
	})
	if err != nil {
		return h.fail(c, err, "Failed to update store")
	}
	return c.JSON(fiber.Map{
		"message": "Store updated successfully",
		"store":   s,
	})
}

func (h *StoreHandler) Deactivate(c *fiber.Ctx) error {
	err := h.uc.DeactivateStore(c.UserContext(), auth.FromContext(c.UserContext()).UserID, c.Params("id"))
	if err != nil {
		return h.fail(c, err, "Failed to delete store")
	}
	return c.JSON(fiber.Map{"message": "Store deleted successfully"})
}

func (h *StoreHandler) fail(c *fiber.Ctx, err error, internal string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Store not found"})
	case errors.Is(err, store.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, store.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	default:
		h.logger.Error(internal, zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": internal})
	}
}
