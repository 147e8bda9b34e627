package jobs

import (
	"context"
	"time"

	"water-scheduler-backend/internal/logger"
)

// MarkMissedCollections flags approved bookings whose slot ended more than the grace
// period ago without a recorded collection.
func (jr *JobRunner) MarkMissedCollections() error {
	return jr.runWithRecovery("MarkMissedCollections", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		grace := time.Duration(jr.config.Scheduler.MissedGraceMinutes) * time.Minute
		cutoff := jr.now().In(jr.config.Location()).Add(-grace)
		n, err := jr.services.Booking.MarkMissedCollections(ctx, cutoff)
		if err != nil {
			return err
		}
		logger.Info("Marked missed collections", "count", n, "cutoff", cutoff.Format(time.RFC3339))
		return nil
	})
}
