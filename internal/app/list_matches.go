package app

import (
	"context"
	"fmt"
	"math"

	"github.com/Amund211/fragstat/internal/domain"
)

const (
	DefaultMatchPageLimit = 20
	MaxMatchPageLimit     = 100
)

// ListMatches returns one page of the match log, newest first.
// Out of range pages and limits are replaced by the defaults.
type ListMatches func(ctx context.Context, page, limit int) (domain.MatchPage, error)

type matchLister interface {
	ListMatches(ctx context.Context, offset, limit int) ([]domain.Match, int, error)
}

func BuildListMatches(repo matchLister, players playersGetter) ListMatches {
	return func(ctx context.Context, page, limit int) (domain.MatchPage, error) {
		if page < 1 {
			page = 1
		}
		if limit < 1 {
			limit = DefaultMatchPageLimit
		}
		if limit > MaxMatchPageLimit {
			limit = MaxMatchPageLimit
		}

		// Pages past the addressable range are empty, like any page past the end
		offset := math.MaxInt
		if page-1 <= math.MaxInt/limit {
			offset = (page - 1) * limit
		}

		matches, total, err := repo.ListMatches(ctx, offset, limit)
		if err != nil {
			// NOTE: matchRepository implementations handle their own error reporting
			return domain.MatchPage{}, fmt.Errorf("failed to list matches: %w", err)
		}

		resolved, err := resolveParticipants(ctx, players, matches)
		if err != nil {
			return domain.MatchPage{}, err
		}

		return domain.MatchPage{
			Matches: resolved,
			Total:   total,
			Page:    page,
			Limit:   limit,
		}, nil
	}
}
