package middleware

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	app := fiber.New()
	app.Use(RequestLogger(logger.Wrap(zap.New(core))))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusTeapot) })

	resp, err := app.Test(httptest.NewRequest("GET", "/ok", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTeapot, resp.StatusCode)

	entries := logs.FilterMessage("http request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "/ok", entries[0].ContextMap()["path"])
	assert.Equal(t, int64(fiber.StatusTeapot), entries[0].ContextMap()["status"])
}

func TestUnaryLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	intercept := UnaryLogger(logger.Wrap(zap.New(core)))

	_, err := intercept(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"},
		func(ctx context.Context, req interface{}) (interface{}, error) {
			return nil, status.Error(codes.NotFound, "unknown service")
		})
	assert.Equal(t, codes.NotFound, status.Code(err))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "NotFound", entries[0].ContextMap()["code"])
}
