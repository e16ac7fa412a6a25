package reconciler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Amund211/fragstat/internal/app"
	"github.com/Amund211/fragstat/internal/logging"
	"github.com/go-co-op/gocron/v2"
)

// Start runs the reconciliation sweep every interval until the returned shutdown is called.
// A sweep still running when the next one is due delays it rather than overlapping.
func Start(interval time.Duration, reconcile app.ReconcileAllPlayers, logger *slog.Logger) (func() error, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("reconcile interval must be positive, got %s", interval)
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func(ctx context.Context) {
			ctx = logging.AddToContext(ctx, logger)

			started := time.Now()
			summary, err := reconcile(ctx)
			if err != nil {
				logger.ErrorContext(ctx, "Reconciliation sweep failed", "error", err)
				return
			}
			logger.InfoContext(ctx, "Reconciliation sweep finished",
				"players", summary.Players,
				"failed", summary.Failed,
				"duration", time.Since(started).String(),
			)
		}),
		gocron.WithName("reconcile-players"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return nil, fmt.Errorf("failed to schedule reconciliation: %w", err)
	}

	scheduler.Start()
	logger.Info("Scheduled reconciliation sweep", "interval", interval.String())

	return scheduler.Shutdown, nil
}
