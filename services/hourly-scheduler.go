package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"home-energy/usecases"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// HourlyIntegrator integrates the hour that has just completed.
type HourlyIntegrator interface {
	RunPreviousHour(ctx context.Context) (*usecases.IntegrationReport, error)
}

// HourlyScheduler fires the integrator shortly after every top of the hour.
// Missed hours are not backfilled.
type HourlyScheduler struct {
	integrator HourlyIntegrator
	spec       string
	cron       *cron.Cron
	log        *zap.Logger

	mu      sync.Mutex
	running bool
	lastRun *usecases.IntegrationReport
	lastErr error
	lastAt  time.Time
}

func NewHourlyScheduler(integrator HourlyIntegrator, spec string, log *zap.Logger) *HourlyScheduler {
	if spec == "" {
		spec = "5 0 * * * *"
	}
	return &HourlyScheduler{
		integrator: integrator,
		spec:       spec,
		cron:       cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC)),
		log:        log.Named("scheduler"),
	}
}

// Start registers the hourly job and starts the cron runner. Jobs stop
// being scheduled once ctx is done.
func (s *HourlyScheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("schedule hourly integration %q: %w", s.spec, err)
	}
	s.cron.Start()
	s.log.Info("hourly integration scheduled", zap.String("spec", s.spec))

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

func (s *HourlyScheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunOnce integrates the previous hour unless a run is already in progress.
func (s *HourlyScheduler) RunOnce(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.log.Warn("hourly integration still running, skipping tick")
		return
	}
	s.running = true
	s.mu.Unlock()

	report, err := s.integrator.RunPreviousHour(ctx)
	if err != nil {
		s.log.Error("hourly integration failed", zap.Error(err))
	}

	s.mu.Lock()
	s.running = false
	s.lastRun, s.lastErr, s.lastAt = report, err, time.Now().UTC()
	s.mu.Unlock()
}

// GetStats returns the outcome of the latest run.
func (s *HourlyScheduler) GetStats() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := map[string]interface{}{
		"spec":    s.spec,
		"running": s.running,
	}
	if !s.lastAt.IsZero() {
		stats["last_run_at"] = s.lastAt
	}
	if s.lastRun != nil {
		stats["last_report"] = s.lastRun
	}
	if s.lastErr != nil {
		stats["last_error"] = s.lastErr.Error()
	}
	return stats
}
