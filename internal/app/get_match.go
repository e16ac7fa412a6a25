package app

import (
	"context"
	"fmt"

	"github.com/Amund211/fragstat/internal/adapters/cache"
	"github.com/Amund211/fragstat/internal/domain"
	"github.com/Amund211/fragstat/internal/strutils"
)

// GetMatch returns a match with every participant resolved
type GetMatch func(ctx context.Context, matchID string) (domain.ResolvedMatch, error)

type matchGetter interface {
	GetMatch(ctx context.Context, matchID string) (domain.Match, error)
}

type playersGetter interface {
	GetPlayers(ctx context.Context, playerIDs []string) ([]domain.Player, error)
}

// resolveParticipants looks up every participant of the matches.
// Players that no longer exist resolve to the unknown player.
func resolveParticipants(ctx context.Context, players playersGetter, matches []domain.Match) ([]domain.ResolvedMatch, error) {
	seen := map[string]struct{}{}
	ids := []string{}
	for i := range matches {
		for _, id := range matches[i].ParticipantIDs() {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	found, err := players.GetPlayers(ctx, ids)
	if err != nil {
		// NOTE: playerRepository implementations handle their own error reporting
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}

	summaries := make(map[string]domain.PlayerSummary, len(found))
	for i := range found {
		summaries[found[i].ID] = found[i].Summary()
	}

	resolved := make([]domain.ResolvedMatch, 0, len(matches))
	for _, match := range matches {
		participants := make(map[string]domain.PlayerSummary, len(match.PlayerStats))
		for _, id := range match.ParticipantIDs() {
			summary, ok := summaries[id]
			if !ok {
				summary = domain.UnknownPlayer(id)
			}
			participants[id] = summary
		}
		resolved = append(resolved, domain.ResolvedMatch{
			Match:        match,
			Participants: participants,
		})
	}

	return resolved, nil
}

// BuildGetMatchWithCache caches the stored match. Participants are resolved on every
// read since players can be renamed or deleted after the match was recorded.
func BuildGetMatchWithCache(matchCache cache.Cache[domain.Match], repo matchGetter, players playersGetter) GetMatch {
	return func(ctx context.Context, matchID string) (domain.ResolvedMatch, error) {
		normalizedID, err := strutils.NormalizeUUID(matchID)
		if err != nil {
			return domain.ResolvedMatch{}, domain.ErrMatchNotFound
		}

		match, _, err := cache.GetOrCreate(ctx, matchCache, normalizedID, func() (domain.Match, error) {
			return repo.GetMatch(ctx, normalizedID)
		})
		if err != nil {
			// NOTE: GetOrCreate only returns an error if create() fails.
			// matchRepository implementations handle their own error reporting
			return domain.ResolvedMatch{}, fmt.Errorf("failed to cache.GetOrCreate match: %w", err)
		}

		resolved, err := resolveParticipants(ctx, players, []domain.Match{match})
		if err != nil {
			return domain.ResolvedMatch{}, err
		}

		return resolved[0], nil
	}
}
