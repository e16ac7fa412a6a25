package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/Amund211/fragstat/internal/domain"
	"github.com/Amund211/fragstat/internal/logging"
	"github.com/Amund211/fragstat/internal/strutils"
	"golang.org/x/sync/errgroup"
)

// RecomputePlayer rebuilds the stored aggregate of a player from every match they appear in
type RecomputePlayer func(ctx context.Context, playerID string) (domain.Player, error)

type aggregateUpdater interface {
	UpdateAggregate(ctx context.Context, playerID string, compute func([]domain.StatLine) domain.PlayerAggregate) (domain.Player, error)
}

// BuildRecomputePlayer serializes recomputations per player within the process
func BuildRecomputePlayer(repo aggregateUpdater) RecomputePlayer {
	locks := newPlayerLocks()

	return func(ctx context.Context, playerID string) (domain.Player, error) {
		normalizedID, err := strutils.NormalizeUUID(playerID)
		if err != nil {
			return domain.Player{}, domain.ErrPlayerNotFound
		}

		unlock := locks.lock(normalizedID)
		defer unlock()

		if err := ctx.Err(); err != nil {
			return domain.Player{}, fmt.Errorf("recompute cancelled: %w", err)
		}

		player, err := repo.UpdateAggregate(ctx, normalizedID, domain.AggregateStatLines)
		if err != nil {
			// NOTE: playerRepository implementations handle their own error reporting
			return domain.Player{}, fmt.Errorf("failed to update aggregate: %w", err)
		}

		return player, nil
	}
}

const maxConcurrentRecomputations = 8

// recomputeParticipants recomputes every given player and waits for all of them.
// Players that no longer exist are skipped.
func recomputeParticipants(ctx context.Context, recompute RecomputePlayer, playerIDs []string) error {
	var group errgroup.Group
	group.SetLimit(maxConcurrentRecomputations)

	for _, playerID := range playerIDs {
		group.Go(func() error {
			_, err := recompute(ctx, playerID)
			if errors.Is(err, domain.ErrPlayerNotFound) {
				logging.FromContext(ctx).InfoContext(ctx, "Skipping recompute of missing player", "playerID", playerID)
				return nil
			}
			if err != nil {
				return fmt.Errorf("player %s: %w", playerID, err)
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrAggregation, err)
	}
	return nil
}
