package app

import (
	"context"
	"fmt"

	"github.com/Amund211/fragstat/internal/adapters/cache"
	"github.com/Amund211/fragstat/internal/domain"
	"github.com/Amund211/fragstat/internal/strutils"
)

// DeleteMatch removes a match and recomputes the players that appeared in it
type DeleteMatch func(ctx context.Context, matchID string) error

type matchDeleter interface {
	DeleteMatch(ctx context.Context, matchID string) (domain.Match, error)
}

func BuildDeleteMatch(matchCache cache.Cache[domain.Match], repo matchDeleter, recompute RecomputePlayer) DeleteMatch {
	return func(ctx context.Context, matchID string) error {
		normalizedID, err := strutils.NormalizeUUID(matchID)
		if err != nil {
			return domain.ErrMatchNotFound
		}

		deleted, err := repo.DeleteMatch(ctx, normalizedID)
		if err != nil {
			// NOTE: matchRepository implementations handle their own error reporting
			return fmt.Errorf("failed to delete match: %w", err)
		}

		cache.Invalidate(matchCache, normalizedID)

		err = recomputeParticipants(ctx, recompute, deleted.ParticipantIDs())
		if err != nil {
			return fmt.Errorf("match %s deleted: %w", normalizedID, err)
		}

		return nil
	}
}
