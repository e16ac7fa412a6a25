package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/Amund211/fragstat/internal/domain"
	"github.com/Amund211/fragstat/internal/logging"
	"github.com/Amund211/fragstat/internal/reporting"
	"golang.org/x/time/rate"
)

type ReconcileSummary struct {
	Players    int
	Recomputed int
	Failed     int
}

// ReconcileAllPlayers recomputes every player, repairing aggregates left stale by
// failed recomputations
type ReconcileAllPlayers func(ctx context.Context) (ReconcileSummary, error)

type playerIDLister interface {
	ListPlayerIDs(ctx context.Context) ([]string, error)
}

// BuildReconcileAllPlayers recomputes players one at a time, no faster than the limiter allows
func BuildReconcileAllPlayers(repo playerIDLister, recompute RecomputePlayer, limiter *rate.Limiter) ReconcileAllPlayers {
	return func(ctx context.Context) (ReconcileSummary, error) {
		logger := logging.FromContext(ctx)

		ids, err := repo.ListPlayerIDs(ctx)
		if err != nil {
			// NOTE: playerRepository implementations handle their own error reporting
			return ReconcileSummary{}, fmt.Errorf("failed to list players: %w", err)
		}

		summary := ReconcileSummary{Players: len(ids)}
		for _, playerID := range ids {
			if err := limiter.Wait(ctx); err != nil {
				return summary, fmt.Errorf("reconciliation interrupted: %w", err)
			}

			_, err := recompute(ctx, playerID)
			if errors.Is(err, domain.ErrPlayerNotFound) {
				// Deleted since listing
				continue
			}
			if err != nil {
				if ctx.Err() != nil {
					return summary, fmt.Errorf("reconciliation interrupted: %w", ctx.Err())
				}
				summary.Failed++
				logger.ErrorContext(ctx, "Failed to recompute player", "playerID", playerID, "error", err)
				continue
			}
			summary.Recomputed++
		}

		if summary.Failed > 0 {
			reporting.Report(ctx, fmt.Errorf("reconciliation failed for some players"), map[string]string{
				"failed":  fmt.Sprintf("%d", summary.Failed),
				"players": fmt.Sprintf("%d", summary.Players),
			})
		}

		logger.InfoContext(ctx, "Reconciled players",
			"players", summary.Players,
			"recomputed", summary.Recomputed,
			"failed", summary.Failed,
		)

		return summary, nil
	}
}
