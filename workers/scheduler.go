package workers

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"tutor-marketplace/services"
)

// StartScheduler runs the periodic maintenance jobs. Call Shutdown on the returned
// scheduler when the service stops.
func StartScheduler(ctx context.Context, packages *services.PackageService, every time.Duration, logger *zap.Logger) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(func() {
			if _, err := packages.ExpireSubscriptions(ctx); err != nil {
				logger.Error("[SCHEDULER] subscription expiry failed", zap.Error(err))
			}
		}),
		gocron.WithName("expire-subscriptions"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, err
	}

	sched.Start()
	logger.Info("[SCHEDULER] started", zap.Duration("expire_every", every))
	return sched, nil
}
