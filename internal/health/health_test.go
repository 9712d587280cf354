package health

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type flagProber struct{ up atomic.Bool }

func (p *flagProber) HealthCheck(context.Context) bool { return p.up.Load() }

func status(t *testing.T, srv *health.Server, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := srv.Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return healthpb.HealthCheckResponse_SERVICE_UNKNOWN
	}
	return resp.Status
}

func TestReporter_Probe(t *testing.T) {
	srv := health.NewServer()
	prober := &flagProber{}
	r := NewReporter(srv, prober, time.Hour, logger.NewNop())

	assert.False(t, r.Probe(context.Background()))
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, status(t, srv, ForecastService))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, status(t, srv, ""))

	prober.up.Store(true)
	assert.True(t, r.Probe(context.Background()))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, status(t, srv, ForecastService))
}

func TestReporter_RunTracksChanges(t *testing.T) {
	srv := health.NewServer()
	prober := &flagProber{}
	r := NewReporter(srv, prober, 5*time.Millisecond, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return status(t, srv, ForecastService) == healthpb.HealthCheckResponse_NOT_SERVING
	}, time.Second, time.Millisecond)

	prober.up.Store(true)
	require.Eventually(t, func() bool {
		return status(t, srv, ForecastService) == healthpb.HealthCheckResponse_SERVING
	}, time.Second, time.Millisecond)

	cancel()
	<-done
}
