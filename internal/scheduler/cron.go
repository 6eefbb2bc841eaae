package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/amaumene/goboxarr/internal/config"
	"github.com/amaumene/goboxarr/internal/controllers"
)

// misfireGrace is how far back a missed fire time still triggers a catch-up
// run at startup.
const misfireGrace = time.Hour

// runTimeout bounds a single pipeline run
const runTimeout = 10 * time.Minute

// PipelineRunner is the part of the update controller the scheduler needs
type PipelineRunner interface {
	Run(ctx context.Context) (*controllers.RunResult, error)
}

// LastRunSource reports when a pipeline run was last recorded
type LastRunSource interface {
	LastRunTime() (time.Time, bool)
}

// Status describes the scheduler for the status route
type Status struct {
	Enabled    bool       `json:"enabled"`
	Cron       string     `json:"cron"`
	Timezone   string     `json:"timezone"`
	NextRun    *time.Time `json:"next_run,omitempty"`
	LastRun    *time.Time `json:"last_run,omitempty"`
	LastError  string     `json:"last_error,omitempty"`
	JobRunning bool       `json:"job_running"`
}

// Scheduler runs the update pipeline on a cron schedule. One job instance
// at a time; overlapping fires are skipped.
type Scheduler struct {
	cfg      *config.Config
	runner   PipelineRunner
	lastRuns LastRunSource
	logger   *logrus.Logger
	location *time.Location
	cron     *cron.Cron

	mu       sync.Mutex
	entryID  cron.EntryID
	cronExpr string
	lastRun  time.Time
	lastErr  error
	running  bool
}

// New creates a scheduler in the configured timezone
func New(cfg *config.Config, runner PipelineRunner, lastRuns LastRunSource, logger *logrus.Logger) (*Scheduler, error) {
	location, err := time.LoadLocation(cfg.SchedulerTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid scheduler timezone %q: %w", cfg.SchedulerTimezone, err)
	}

	s := &Scheduler{
		cfg:      cfg,
		runner:   runner,
		lastRuns: lastRuns,
		logger:   logger,
		location: location,
		cronExpr: cfg.SchedulerCron,
	}

	s.cron = cron.New(
		cron.WithLocation(location),
		cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(logger))),
	)
	return s, nil
}

// Start schedules the job and starts the cron loop. When a fire time was
// missed within the grace window since the last recorded run, the job runs
// once immediately. With the scheduler disabled the cron loop stays stopped
// but manual triggers keep working.
func (s *Scheduler) Start() error {
	if !s.cfg.SchedulerEnabled {
		s.logger.Info("Scheduler disabled, automatic updates off")
		return nil
	}

	entryID, err := s.cron.AddFunc(s.cronExpr, s.runJob)
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", s.cronExpr, err)
	}

	s.mu.Lock()
	s.entryID = entryID
	s.mu.Unlock()

	s.cron.Start()
	s.logger.WithFields(logrus.Fields{
		"cron":     s.cronExpr,
		"timezone": s.cfg.SchedulerTimezone,
	}).Info("Scheduler started")

	if s.missedFire() {
		s.logger.Info("Missed scheduled run detected, running catch-up update")
		go s.runJob()
	}
	return nil
}

// missedFire reports whether a scheduled fire time fell inside the grace
// window and after the last recorded run.
func (s *Scheduler) missedFire() bool {
	schedule, err := cron.ParseStandard(s.cronExpr)
	if err != nil {
		return false
	}

	now := time.Now().In(s.location)
	missed := schedule.Next(now.Add(-misfireGrace))
	if !missed.Before(now) {
		return false
	}

	if lastRun, ok := s.lastRuns.LastRunTime(); ok && !lastRun.Before(missed) {
		return false
	}
	return true
}

// Stop stops the cron loop and waits for a running job to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Scheduler stopped")
}

// Reload swaps the cron expression without restarting the process
func (s *Scheduler) Reload(cronExpr string) error {
	if _, err := cron.ParseStandard(cronExpr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entryID != 0 {
		s.cron.Remove(s.entryID)
		s.entryID = 0
	}

	entryID, err := s.cron.AddFunc(cronExpr, s.runJob)
	if err != nil {
		return err
	}
	s.entryID = entryID
	s.cronExpr = cronExpr
	s.cfg.SchedulerCron = cronExpr

	s.logger.WithField("cron", cronExpr).Info("Scheduler reloaded")
	return nil
}

// NextRunTime returns the next scheduled fire time
func (s *Scheduler) NextRunTime() (time.Time, bool) {
	s.mu.Lock()
	entryID := s.entryID
	s.mu.Unlock()

	if entryID == 0 {
		return time.Time{}, false
	}
	entry := s.cron.Entry(entryID)
	if entry.Next.IsZero() {
		return time.Time{}, false
	}
	return entry.Next, true
}

// TriggerNow runs the pipeline synchronously, outside the cron schedule
func (s *Scheduler) TriggerNow(ctx context.Context) (*controllers.RunResult, error) {
	s.setRunning(true)
	defer s.setRunning(false)

	result, err := s.runner.Run(ctx)
	s.recordRun(err)
	return result, err
}

// Status reports the scheduler state for the status route
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := Status{
		Enabled:    s.cfg.SchedulerEnabled,
		Cron:       s.cronExpr,
		Timezone:   s.cfg.SchedulerTimezone,
		JobRunning: s.running,
	}
	if !s.lastRun.IsZero() {
		lastRun := s.lastRun
		status.LastRun = &lastRun
	}
	if s.lastErr != nil {
		status.LastError = s.lastErr.Error()
	}
	if s.entryID != 0 {
		if next := s.cron.Entry(s.entryID).Next; !next.IsZero() {
			status.NextRun = &next
		}
	}
	return status
}

// runJob is the cron entry point
func (s *Scheduler) runJob() {
	s.setRunning(true)
	defer s.setRunning(false)

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	_, err := s.runner.Run(ctx)
	s.recordRun(err)
	if err != nil {
		s.logger.WithError(err).Error("Scheduled update failed")
	}
}

func (s *Scheduler) setRunning(running bool) {
	s.mu.Lock()
	s.running = running
	s.mu.Unlock()
}

func (s *Scheduler) recordRun(err error) {
	s.mu.Lock()
	s.lastRun = time.Now()
	s.lastErr = err
	s.mu.Unlock()
}
