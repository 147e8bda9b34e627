package scheduler

import (
	"fmt"

	"github.com/robfig/cron/v3"

	"water-scheduler-backend/internal/jobs"
	"water-scheduler-backend/internal/logger"
)

// Scheduler fires the job runner's jobs on their cron expressions. Expressions carry a
// seconds field and are evaluated in the configured scheduler timezone.
type Scheduler struct {
	cron    *cron.Cron
	entries map[string]cron.EntryID
}

func NewScheduler(jobRunner *jobs.JobRunner) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(jobRunner.Config().Location()),
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		entries: make(map[string]cron.EntryID),
	}

	for _, job := range jobRunner.Jobs() {
		run := job.Run
		id, err := s.cron.AddFunc(job.Spec, func() { _ = run() })
		if err != nil {
			return nil, fmt.Errorf("schedule %s (%q): %w", job.Name, job.Spec, err)
		}
		s.entries[job.Name] = id
		logger.Info("Job scheduled", "job", job.Name, "spec", job.Spec)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	for name, id := range s.entries {
		logger.Info("Next run", "job", name, "at", s.cron.Entry(id).Next)
	}
}

// Stop waits for running jobs to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	logger.Info("Scheduler stopped")
}

// Jobs returns the names of the registered jobs.
func (s *Scheduler) Jobs() []string {
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	return names
}
