// Package jobs runs the recurring sweeps: the monthly fulfilment rollup and
// the nightly integrity sweep. Redis locks keep multi-instance deployments
// from running the same sweep twice.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"lifeos/internal/agents"
	"lifeos/internal/config"
	"lifeos/internal/services"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// sweepLockTTL bounds how long one instance may hold a sweep lock.
const sweepLockTTL = 10 * time.Minute

// Scheduler owns the gocron instance and the sweep definitions.
type Scheduler struct {
	scheduler  gocron.Scheduler
	redis      *services.RedisService // nil disables cross-instance locking
	fulfilment *agents.FulfilmentAgent
	integrity  *agents.IntegrityAgent
	instanceID string
}

// NewScheduler creates the sweep scheduler. Cron expressions are validated
// up front so a bad config fails at startup, not at first fire.
func NewScheduler(cfg *config.Config, redis *services.RedisService, fa *agents.FulfilmentAgent, ia *agents.IntegrityAgent) (*Scheduler, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	for name, expr := range map[string]string{
		"rollup sweep":    cfg.RollupSweepCron,
		"integrity sweep": cfg.IntegritySweepCron,
	} {
		if _, err := parser.Parse(expr); err != nil {
			return nil, fmt.Errorf("invalid %s cron %q: %w", name, expr, err)
		}
	}

	sched, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	s := &Scheduler{
		scheduler:  sched,
		redis:      redis,
		fulfilment: fa,
		integrity:  ia,
		instanceID: uuid.New().String(),
	}

	if _, err := sched.NewJob(
		gocron.CronJob(cfg.RollupSweepCron, false),
		gocron.NewTask(s.runRollupSweep),
		gocron.WithName("fulfilment-rollup-sweep"),
	); err != nil {
		return nil, fmt.Errorf("failed to schedule rollup sweep: %w", err)
	}
	if _, err := sched.NewJob(
		gocron.CronJob(cfg.IntegritySweepCron, false),
		gocron.NewTask(s.runIntegritySweep),
		gocron.WithName("integrity-sweep"),
	); err != nil {
		return nil, fmt.Errorf("failed to schedule integrity sweep: %w", err)
	}
	return s, nil
}

// Start begins firing scheduled sweeps.
func (s *Scheduler) Start() {
	s.scheduler.Start()
	slog.Info("sweep scheduler started")
}

// Stop shuts the scheduler down, waiting for running sweeps.
func (s *Scheduler) Stop() error {
	return s.scheduler.Shutdown()
}

// runRollupSweep rolls up the month that just closed for every user.
func (s *Scheduler) runRollupSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepLockTTL)
	defer cancel()

	if !s.acquire(ctx, "lock:sweep:rollup") {
		return
	}
	defer s.release(ctx, "lock:sweep:rollup")

	period := agents.PeriodOf(time.Now().UTC().AddDate(0, -1, 0))
	slog.Info("running scheduled rollup sweep", "period", period)
	if err := s.fulfilment.RunScheduledRollup(ctx, period); err != nil {
		slog.Error("rollup sweep failed", "period", period, "error", err)
	}
}

// runIntegritySweep marks overdue commitments broken and raises issues.
func (s *Scheduler) runIntegritySweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepLockTTL)
	defer cancel()

	if !s.acquire(ctx, "lock:sweep:integrity") {
		return
	}
	defer s.release(ctx, "lock:sweep:integrity")

	slog.Info("running scheduled integrity sweep")
	if err := s.integrity.Sweep(ctx, time.Now().UTC()); err != nil {
		slog.Error("integrity sweep failed", "error", err)
	}
}

func (s *Scheduler) acquire(ctx context.Context, key string) bool {
	if s.redis == nil {
		return true
	}
	got, err := s.redis.AcquireLock(ctx, key, s.instanceID, sweepLockTTL)
	if err != nil {
		slog.Error("sweep lock acquisition failed", "key", key, "error", err)
		return false
	}
	if !got {
		slog.Info("sweep already running elsewhere, skipping", "key", key)
	}
	return got
}

func (s *Scheduler) release(ctx context.Context, key string) {
	if s.redis == nil {
		return
	}
	if _, err := s.redis.ReleaseLock(ctx, key, s.instanceID); err != nil {
		slog.Warn("sweep lock release failed", "key", key, "error", err)
	}
}
