package service

import (
	"context"
	"fmt"
	"time"

	"github.com/layer-3/dapptober/internal/metrics"
	"github.com/layer-3/dapptober/ports"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Jobs runs periodic maintenance: sweeping expired nonces and invalidation
// records from in-memory stores, and pruning idle rate limiters.
type Jobs struct {
	cron   *cron.Cron
	logger *zap.Logger
	now    func() time.Time
}

func NewJobs(logger *zap.Logger) *Jobs {
	return &Jobs{
		cron:   cron.New(),
		logger: logger.Named("jobs"),
		now:    time.Now,
	}
}

// AddSweep schedules sweeper every interval
func (j *Jobs) AddSweep(name string, interval time.Duration, sweeper ports.Sweeper) error {
	return j.AddFunc(name, interval, func() {
		j.RunSweep(context.Background(), name, sweeper)
	})
}

// AddFunc schedules fn every interval
func (j *Jobs) AddFunc(name string, interval time.Duration, fn func()) error {
	if interval <= 0 {
		return fmt.Errorf("job %s: interval must be positive", name)
	}
	if _, err := j.cron.AddFunc(fmt.Sprintf("@every %s", interval), fn); err != nil {
		return fmt.Errorf("job %s: %w", name, err)
	}
	return nil
}

// RunSweep performs one sweep pass and records how many entries it removed
func (j *Jobs) RunSweep(ctx context.Context, name string, sweeper ports.Sweeper) int {
	n, err := sweeper.Sweep(ctx, j.now())
	if err != nil {
		j.logger.Warn("sweep failed", zap.String("job", name), zap.Error(err))
		return 0
	}
	metrics.RecordSweep(name, n)
	if n > 0 {
		j.logger.Debug("swept expired entries", zap.String("job", name), zap.Int("removed", n))
	}
	return n
}

func (j *Jobs) Start() {
	j.cron.Start()
}

// Stop halts scheduling and waits for running jobs or ctx
func (j *Jobs) Stop(ctx context.Context) error {
	done := j.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
