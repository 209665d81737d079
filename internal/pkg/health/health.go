package health

import (
	"context"
	"time"

	"github.com/fekuna/marketplace-listing-service/internal/pkg/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

// Watch keeps the overall and named service status of srv in line with the
// database until ctx is done, then marks everything NOT_SERVING.
func Watch(ctx context.Context, srv *health.Server, service string, db Pinger, interval time.Duration, log logger.ZapLogger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := healthpb.HealthCheckResponse_UNKNOWN
	for {
		status := Probe(ctx, db, interval)
		if status != last {
			log.Info("health status changed", zap.String("status", status.String()))
			last = status
		}
		srv.SetServingStatus("", status)
		srv.SetServingStatus(service, status)

		select {
		case <-ctx.Done():
			srv.Shutdown()
			return
		case <-ticker.C:
		}
	}
}

// Probe pings db with a deadline of timeout.
func Probe(ctx context.Context, db Pinger, timeout time.Duration) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return healthpb.HealthCheckResponse_NOT_SERVING
	}
	return healthpb.HealthCheckResponse_SERVING
}
