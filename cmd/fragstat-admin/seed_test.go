package main

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Amund211/fragstat/internal/domain"
	"github.com/Amund211/fragstat/internal/domaintest"
	"github.com/stretchr/testify/require"
)

func TestSeed(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.May, 10, 12, 0, 0, 0, time.UTC)

	t.Run("all players and matches are created", func(t *testing.T) {
		t.Parallel()

		var profiles []domain.PlayerProfile
		var matches []domain.Match
		createPlayer := func(ctx context.Context, profile domain.PlayerProfile) (domain.Player, error) {
			profiles = append(profiles, profile)
			return domain.Player{ID: domaintest.NewUUID(t), Name: profile.Name}, nil
		}
		createMatch := func(ctx context.Context, draft domain.MatchDraft) (domain.Match, error) {
			match, err := domain.PrepareMatch(draft, now)
			require.NoError(t, err)
			matches = append(matches, match)
			return match, nil
		}

		result, err := seed(t.Context(), createPlayer, createMatch, now)
		require.NoError(t, err)

		require.Equal(t, seedResult{players: len(seedPlayers), matches: len(seedMatches)}, result)
		require.Len(t, profiles, len(seedPlayers))
		require.Len(t, matches, len(seedMatches))

		for _, match := range matches {
			require.Equal(t, match.ScoreA+match.ScoreB, match.TotalRounds)
			require.True(t, match.Date.Before(now))
			for _, line := range match.PlayerStats {
				require.Equal(t, match.TotalRounds, line.Rounds)
			}
		}
	})

	t.Run("stops at the first duplicate player", func(t *testing.T) {
		t.Parallel()

		createdMatches := 0
		createPlayer := func(ctx context.Context, profile domain.PlayerProfile) (domain.Player, error) {
			return domain.Player{}, fmt.Errorf("failed to create player: %w", domain.ErrDuplicateName)
		}
		createMatch := func(ctx context.Context, draft domain.MatchDraft) (domain.Match, error) {
			createdMatches++
			return domain.Match{}, nil
		}

		_, err := seed(t.Context(), createPlayer, createMatch, now)
		require.ErrorIs(t, err, domain.ErrDuplicateName)
		require.Zero(t, createdMatches)
	})
}

func TestSeedMatchDraft(t *testing.T) {
	t.Parallel()

	_, err := seedMatches[0].draft(map[string]string{"Viper": domaintest.NewUUID(t)}, time.Now())
	require.ErrorContains(t, err, "unknown player")
}
