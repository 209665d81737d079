package health

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fekuna/marketplace-listing-service/internal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type flakyDB struct {
	down atomic.Bool
}

func (f *flakyDB) PingContext(context.Context) error {
	if f.down.Load() {
		return errors.New("connection refused")
	}
	return nil
}

func status(t *testing.T, srv *health.Server, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := srv.Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN
	}
	return resp.Status
}

func TestProbe(t *testing.T) {
	db := &flakyDB{}
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, Probe(context.Background(), db, time.Second))
	db.down.Store(true)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, Probe(context.Background(), db, time.Second))
}

func TestWatch_FollowsDatabase(t *testing.T) {
	db := &flakyDB{}
	srv := health.NewServer()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Watch(ctx, srv, "listing", db, 5*time.Millisecond, logger.NewNop())

	assert.Eventually(t, func() bool {
		return status(t, srv, "listing") == healthpb.HealthCheckResponse_SERVING
	}, time.Second, 5*time.Millisecond)

	db.down.Store(true)
	assert.Eventually(t, func() bool {
		return status(t, srv, "") == healthpb.HealthCheckResponse_NOT_SERVING
	}, time.Second, 5*time.Millisecond)
}
