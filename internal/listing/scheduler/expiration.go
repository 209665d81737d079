package scheduler

import (
	"context"
	"time"

	"github.com/fekuna/marketplace-listing-service/internal/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const lockKey = "listing:expiration:lock"

type Expirer interface {
	ExpireOverdue(ctx context.Context) (int, error)
}

// Locker keeps replicas from sweeping at the same time. The sweep is safe to run
// concurrently, the lock only saves work.
type Locker interface {
	AcquireLock(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, value string) error
}

type ExpirationJob struct {
	expirer  Expirer
	locker   Locker
	interval time.Duration
	holder   string
	logger   logger.ZapLogger
}

// NewExpirationJob builds the job; locker may be nil for a single instance.
func NewExpirationJob(expirer Expirer, locker Locker, interval time.Duration, log logger.ZapLogger) *ExpirationJob {
	if interval <= 0 {
		interval = time.Hour
	}
	return &ExpirationJob{
		expirer:  expirer,
		locker:   locker,
		interval: interval,
		holder:   uuid.NewString(),
		logger:   log,
	}
}

// Start sweeps once immediately and then on every tick until ctx is done.
func (j *ExpirationJob) Start(ctx context.Context) {
	j.logger.Info("Starting listing expiration job", zap.Duration("interval", j.interval))
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			j.logger.Info("Stopping listing expiration job")
			return
		case <-ticker.C:
			j.RunOnce(ctx)
		}
	}
}

// RunOnce performs one sweep and reports how many listings expired. Failures are
// logged; the next tick retries.
func (j *ExpirationJob) RunOnce(ctx context.Context) int {
	if j.locker != nil {
		ok, err := j.locker.AcquireLock(ctx, lockKey, j.holder, j.interval)
		if err != nil {
			j.logger.Error("Failed to acquire expiration lock", zap.Error(err))
			return 0
		}
		if !ok {
			j.logger.Debug("Expiration sweep already running elsewhere")
			return 0
		}
		defer func() {
			if err := j.locker.ReleaseLock(context.WithoutCancel(ctx), lockKey, j.holder); err != nil {
				j.logger.Warn("Failed to release expiration lock", zap.Error(err))
			}
		}()
	}

	n, err := j.expirer.ExpireOverdue(ctx)
	if err != nil {
		j.logger.Error("Expiration sweep failed", zap.Int("expired", n), zap.Error(err))
	}
	return n
}
