package jobs

import (
	"context"
	"time"

	"water-scheduler-backend/internal/logger"
)

// GenerateUpcomingSlots makes sure every active resource has slots for today and the
// configured number of days ahead. Existing slots are left untouched.
func (jr *JobRunner) GenerateUpcomingSlots() error {
	return jr.runWithRecovery("GenerateUpcomingSlots", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		cfg := jr.config.Scheduler
		today := jr.now().In(jr.config.Location())
		inserted, err := jr.services.Slot.GenerateUpcoming(ctx, today, cfg.DaysAhead)
		logger.Info("Generated upcoming slots", "from", today.Format("2006-01-02"), "days", cfg.DaysAhead, "inserted", inserted)
		return err
	})
}
