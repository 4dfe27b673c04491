package main

import (
	"context"
	"errors"
	"time"

	"loancrm/internal/logging"
	"loancrm/internal/usecase/escalation"
)

// loop runs s once immediately and then on every tick until ctx ends. A run
// refused because another instance holds the lock is not an error.
func loop(ctx context.Context, s escalation.Scheduler, every time.Duration, now func() time.Time, log logging.Logger) {
	tick := time.NewTicker(every)
	defer tick.Stop()
	for {
		rep, err := s.Run(ctx, now())
		switch {
		case errors.Is(err, escalation.ErrRunInProgress):
			log.Info(ctx, "escalation run skipped", "reason", err.Error())
		case err != nil:
			log.Error(ctx, "escalation run failed", "error", err)
		default:
			t := rep.Totals()
			log.Info(ctx, "escalation run finished", "date", rep.Date,
				"candidates", t.Candidates, "dispatched", t.Dispatched, "skipped", t.Skipped, "failed", t.Failed)
		}

		select {
		case <-ctx.Done():
			return
		case <-tick.C:
		}
	}
}
