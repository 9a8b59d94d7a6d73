package scheduler

import (
	"log"
	"os"
	"strconv"
	"time"

	"dutyreport_backend/internals/features/dormitory/duty_reports/service"
)

// StartChallengeCleanupScheduler sweeps expired delete-confirmation codes so
// the in-memory store cannot grow without bound.
func StartChallengeCleanupScheduler(store *service.ChallengeStore) {
	go func() {
		// Interval from env (default: 1 minute)
		intervalSec := 60
		if val := os.Getenv("CHALLENGE_SWEEP_INTERVAL_SECONDS"); val != "" {
			if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
				intervalSec = parsed
			}
		}

		for {
			time.Sleep(time.Duration(intervalSec) * time.Second)
			if removed := store.Sweep(); removed > 0 {
				log.Printf("[CLEANUP] %d expired delete challenge(s) removed, %d pending", removed, store.Pending())
			}
		}
	}()
}
