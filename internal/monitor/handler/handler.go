package handler

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/fekuna/omnipos-stock-service/internal/auth"
	"github.com/fekuna/omnipos-stock-service/internal/forecast"
	"github.com/fekuna/omnipos-stock-service/internal/monitor"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ForecastService interface {
	Forecast(ctx context.Context, storeID, itemID string) (*forecast.Suggestion, error)
	StoreForecast(ctx context.Context, storeID string) (json.RawMessage, error)
	Health(ctx context.Context) (*forecast.HealthStatus, error)
	HealthCheck(ctx context.Context) bool
}

type Trigger interface {
	Trigger(ctx context.Context) monitor.RunResult
}

type MonitorHandler struct {
	forecasts ForecastService
	trigger   Trigger
	logger    logger.ZapLogger
}

func NewMonitorHandler(forecasts ForecastService, trigger Trigger, log logger.ZapLogger) *MonitorHandler {
	return &MonitorHandler{
		forecasts: forecasts,
		trigger:   trigger,
		logger:    log,
	}
}

// RegisterML mounts the forecast proxy under r.
func (h *MonitorHandler) RegisterML(r fiber.Router) {
	manager := []fiber.Handler{auth.Middleware(), auth.RequireManager()}

	r.Get("/health", h.ForecastHealth)
	r.Get("/suggestions/:storeId/:itemId", append(manager, h.ItemSuggestion)...)
	r.Get("/suggestions/:storeId", append(manager, h.StoreSuggestions)...)
}

// RegisterOps mounts the diagnostic endpoints under r.
func (h *MonitorHandler) RegisterOps(r fiber.Router) {
	r.Get("/test-ml", h.TestForecast)
	r.Post("/test-cron", h.TestCron)
}

func (h *MonitorHandler) ItemSuggestion(c *fiber.Ctx) error {
	s, err := h.forecasts.Forecast(c.UserContext(), c.Params("storeId"), c.Params("itemId"))
	if err != nil {
		return h.relay(c, err)
	}
	return c.JSON(s)
}

func (h *MonitorHandler) StoreSuggestions(c *fiber.Ctx) error {
	raw, err := h.forecasts.StoreForecast(c.UserContext(), c.Params("storeId"))
	if err != nil {
		return h.relay(c, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(raw)
}

func (h *MonitorHandler) ForecastHealth(c *fiber.Ctx) error {
	hs, err := h.forecasts.Health(c.UserContext())
	if err != nil {
		h.logger.Warn("forecast service health check failed", zap.Error(err))
		return c.JSON(fiber.Map{
			"status": "disconnected",
			"error":  "ML service unavailable",
		})
	}
	return c.JSON(fiber.Map{
		"status":    "connected",
		"mlService": hs,
	})
}

func (h *MonitorHandler) TestForecast(c *fiber.Ctx) error {
	connected := h.forecasts.HealthCheck(c.UserContext())
	message := "ML service is not accessible"
	if connected {
		message = "ML service is accessible"
	}
	return c.JSON(fiber.Map{
		"mlServiceConnected": connected,
		"message":            message,
	})
}

// TestCron runs the monitoring pipeline synchronously and always reports it
// executed; result carries the outcome of each pass.
func (h *MonitorHandler) TestCron(c *fiber.Ctx) error {
	res := h.trigger.Trigger(c.UserContext())
	if res.Status != monitor.StatusSuccess {
		h.logger.Warn("manual monitoring run did not fully succeed",
			zap.String("status", string(res.Status)),
			zap.String("detail", res.Message()),
		)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Cron job executed successfully",
		"result":  newRunResponse(res),
	})
}

type passResponse struct {
	Scanned int    `json:"scanned"`
	Created int    `json:"created"`
	Skipped int    `json:"skipped"`
	Failed  int    `json:"failed"`
	Error   string `json:"error,omitempty"`
}

type runResponse struct {
	Status      monitor.Status `json:"status"`
	Detail      string         `json:"detail"`
	Levels      passResponse   `json:"levels"`
	Suggestions passResponse   `json:"suggestions"`
	DurationMS  int64          `json:"durationMs"`
}

func newRunResponse(r monitor.RunResult) runResponse {
	return runResponse{
		Status:      r.Status,
		Detail:      r.Message(),
		Levels:      newPassResponse(r.Levels),
		Suggestions: newPassResponse(r.Suggestions),
		DurationMS:  r.Duration.Milliseconds(),
	}
}

func newPassResponse(p monitor.PassResult) passResponse {
	out := passResponse{Scanned: p.Scanned, Created: p.Created, Skipped: p.Skipped, Failed: p.Failed}
	if p.Err != nil {
		out.Error = p.Err.Error()
	}
	return out
}

// relay forwards the forecast service's own error reply when there is one.
func (h *MonitorHandler) relay(c *fiber.Ctx, err error) error {
	h.logger.Error("forecast service error", zap.Error(err))

	var se *forecast.StatusError
	switch {
	case errors.As(err, &se):
		if json.Valid(se.Body) {
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.Status(se.Code).Send(se.Body)
		}
		return c.Status(se.Code).JSON(fiber.Map{"error": string(se.Body)})
	case errors.Is(err, forecast.ErrInvalidForecast):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "ML service unavailable",
			"message": "Unable to get inventory suggestions at this time",
		})
	}
}
