package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Amund211/fragstat/internal/domain"
	"github.com/Amund211/fragstat/internal/strutils"
)

// CreateMatch stores a match and brings every participant's aggregate up to date.
//
// If the match is stored but a recomputation fails, the stored match is returned
// together with an error wrapping domain.ErrAggregation.
type CreateMatch func(ctx context.Context, draft domain.MatchDraft) (domain.Match, error)

type matchStorer interface {
	StoreMatch(ctx context.Context, match domain.Match) (domain.Match, error)
}

func BuildCreateMatch(repo matchStorer, recompute RecomputePlayer, nowFunc func() time.Time) CreateMatch {
	return func(ctx context.Context, draft domain.MatchDraft) (domain.Match, error) {
		draft.PlayerStats = append([]domain.StatLineDraft(nil), draft.PlayerStats...)
		for i := range draft.PlayerStats {
			line := &draft.PlayerStats[i]
			if line.PlayerID == "" {
				// Reported by validation
				continue
			}
			normalizedID, err := strutils.NormalizeUUID(line.PlayerID)
			if err != nil {
				return domain.Match{}, fmt.Errorf("%w: player stat %d: invalid player id", domain.ErrValidation, i)
			}
			line.PlayerID = normalizedID
		}

		match, err := domain.PrepareMatch(draft, nowFunc())
		if err != nil {
			return domain.Match{}, err
		}

		stored, err := repo.StoreMatch(ctx, match)
		if err != nil {
			// NOTE: matchRepository implementations handle their own error reporting
			return domain.Match{}, fmt.Errorf("failed to store match: %w", err)
		}

		err = recomputeParticipants(ctx, recompute, stored.ParticipantIDs())
		if err != nil {
			return stored, fmt.Errorf("match %s stored: %w", stored.ID, err)
		}

		return stored, nil
	}
}
