package jobs

import (
	"fmt"
	"strings"
	"time"

	"water-scheduler-backend/internal/config"
	"water-scheduler-backend/internal/logger"
	"water-scheduler-backend/internal/metrics"
	"water-scheduler-backend/internal/service"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	services *Services
	config   *config.Config
	metrics  *metrics.Metrics
	now      func() time.Time
}

// Services holds all service dependencies needed by jobs
type Services struct {
	Slot    service.SlotService
	Booking service.BookingService
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(services *Services, cfg *config.Config, m *metrics.Metrics) *JobRunner {
	return &JobRunner{
		services: services,
		config:   cfg,
		metrics:  m,
		now:      time.Now,
	}
}

func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery and records the outcome
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
			err = fmt.Errorf("job %s panicked: %v", jobName, r)
		}
		jr.metrics.JobRun(jobName, err)
	}()

	started := jr.now()
	logger.Info("Starting job", "job", jobName)
	if err = jobFunc(); err != nil {
		logger.Error("Job failed", "job", jobName, "error", err)
		return err
	}
	logger.Info("Job completed", "job", jobName, "duration", time.Since(started))
	return nil
}

// Job is one schedulable unit of work.
type Job struct {
	Name string
	Spec string
	Run  func() error
}

// Jobs lists the scheduled jobs with their cron expressions.
func (jr *JobRunner) Jobs() []Job {
	cfg := jr.config.Scheduler
	return []Job{
		{Name: "generate-slots", Spec: cfg.GenerateSlots, Run: jr.GenerateUpcomingSlots},
		{Name: "mark-missed-collections", Spec: cfg.MarkMissedCollections, Run: jr.MarkMissedCollections},
	}
}

// RunByName runs one job, or every job in order for "all".
func (jr *JobRunner) RunByName(name string) error {
	if name == "all" {
		return jr.RunAll()
	}
	var names []string
	for _, job := range jr.Jobs() {
		if job.Name == name {
			return job.Run()
		}
		names = append(names, job.Name)
	}
	return fmt.Errorf("unknown job %q, available: %s, all", name, strings.Join(names, ", "))
}

// RunAll runs every job once. A failing job does not stop the ones after it.
func (jr *JobRunner) RunAll() error {
	var failed []string
	for _, job := range jr.Jobs() {
		if err := job.Run(); err != nil {
			failed = append(failed, job.Name)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("jobs failed: %s", strings.Join(failed, ", "))
	}
	return nil
}
