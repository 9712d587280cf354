package middleware

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// RequestLogger logs one line per HTTP request after the handler returns.
func RequestLogger(log logger.ZapLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("latency", time.Since(start)),
		}
		if err != nil {
			log.Error("http request failed", append(fields, zap.Error(err))...)
			return err
		}
		log.Info("http request", fields...)
		return nil
	}
}

// UnaryLogger logs every unary gRPC call with its status code.
func UnaryLogger(log logger.ZapLogger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		log.Debug("grpc request",
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("latency", time.Since(start)),
		)
		return resp, err
	}
}
