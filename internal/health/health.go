package health

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ForecastService is the gRPC health service name tracking the forecast dependency.
const ForecastService = "forecast"

type Prober interface {
	HealthCheck(ctx context.Context) bool
}

// Reporter mirrors the forecast service's liveness into a gRPC health server.
// The overall ("") status stays SERVING.
type Reporter struct {
	server   *health.Server
	prober   Prober
	interval time.Duration
	logger   logger.ZapLogger
}

func NewReporter(server *health.Server, prober Prober, interval time.Duration, log logger.ZapLogger) *Reporter {
	server.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	return &Reporter{server: server, prober: prober, interval: interval, logger: log}
}

// Probe checks once and publishes the result.
func (r *Reporter) Probe(ctx context.Context) bool {
	ok := r.prober.HealthCheck(ctx)
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		st = healthpb.HealthCheckResponse_SERVING
	}
	r.server.SetServingStatus(ForecastService, st)
	return ok
}

// Run probes every interval until ctx is cancelled, logging transitions.
func (r *Reporter) Run(ctx context.Context) {
	last := r.Probe(ctx)
	r.logger.Info("forecast service status", zap.Bool("connected", last))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.server.Shutdown()
			return
		case <-ticker.C:
			if ok := r.Probe(ctx); ok != last {
				r.logger.Warn("forecast service status changed", zap.Bool("connected", ok))
				last = ok
			}
		}
	}
}
