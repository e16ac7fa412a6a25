package app

import (
	"context"
	"fmt"

	"github.com/Amund211/fragstat/internal/domain"
	"github.com/Amund211/fragstat/internal/strutils"
)

type CreatePlayer func(ctx context.Context, profile domain.PlayerProfile) (domain.Player, error)

type playerCreator interface {
	CreatePlayer(ctx context.Context, profile domain.PlayerProfile) (domain.Player, error)
}

func BuildCreatePlayer(repo playerCreator) CreatePlayer {
	return func(ctx context.Context, profile domain.PlayerProfile) (domain.Player, error) {
		// Re-validate profiles that were not built with domain.NewPlayerProfile
		profile, err := domain.NewPlayerProfile(profile.Name, profile.Team, profile.Country, profile.Avatar)
		if err != nil {
			return domain.Player{}, err
		}

		player, err := repo.CreatePlayer(ctx, profile)
		if err != nil {
			// NOTE: playerRepository implementations handle their own error reporting
			return domain.Player{}, fmt.Errorf("failed to create player: %w", err)
		}
		return player, nil
	}
}

// UpdatePlayer changes the provided profile fields of a player. Statistics are never edited directly.
type UpdatePlayer func(ctx context.Context, playerID string, update domain.PlayerUpdate) (domain.Player, error)

type playerUpdater interface {
	UpdatePlayer(ctx context.Context, playerID string, update domain.PlayerUpdate) (domain.Player, error)
}

func BuildUpdatePlayer(repo playerUpdater) UpdatePlayer {
	return func(ctx context.Context, playerID string, update domain.PlayerUpdate) (domain.Player, error) {
		normalizedID, err := strutils.NormalizeUUID(playerID)
		if err != nil {
			return domain.Player{}, domain.ErrPlayerNotFound
		}

		player, err := repo.UpdatePlayer(ctx, normalizedID, update)
		if err != nil {
			return domain.Player{}, fmt.Errorf("failed to update player: %w", err)
		}
		return player, nil
	}
}

// DeletePlayer removes a player. Matches they played keep their lines and show them as unknown.
type DeletePlayer func(ctx context.Context, playerID string) error

type playerDeleter interface {
	DeletePlayer(ctx context.Context, playerID string) error
}

func BuildDeletePlayer(repo playerDeleter) DeletePlayer {
	return func(ctx context.Context, playerID string) error {
		normalizedID, err := strutils.NormalizeUUID(playerID)
		if err != nil {
			return domain.ErrPlayerNotFound
		}

		err = repo.DeletePlayer(ctx, normalizedID)
		if err != nil {
			return fmt.Errorf("failed to delete player: %w", err)
		}
		return nil
	}
}

// ListPlayers lists players by their stored aggregates
type ListPlayers func(ctx context.Context, query domain.PlayerQuery) ([]domain.Player, error)

type playerLister interface {
	ListPlayers(ctx context.Context, query domain.PlayerQuery) ([]domain.Player, error)
}

func BuildListPlayers(repo playerLister) ListPlayers {
	return func(ctx context.Context, query domain.PlayerQuery) ([]domain.Player, error) {
		players, err := repo.ListPlayers(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("failed to list players: %w", err)
		}
		return players, nil
	}
}

const PlayerHistoryLimit = 20

// GetPlayerWithHistory returns a player and their most recent matches, newest first
type GetPlayerWithHistory func(ctx context.Context, playerID string) (domain.Player, []domain.PlayerMatch, error)

type playerGetter interface {
	GetPlayer(ctx context.Context, playerID string) (domain.Player, error)
}

type playerHistoryGetter interface {
	GetPlayerHistory(ctx context.Context, playerID string, limit int) ([]domain.PlayerMatch, error)
}

func BuildGetPlayerWithHistory(players playerGetter, matches playerHistoryGetter) GetPlayerWithHistory {
	return func(ctx context.Context, playerID string) (domain.Player, []domain.PlayerMatch, error) {
		normalizedID, err := strutils.NormalizeUUID(playerID)
		if err != nil {
			return domain.Player{}, nil, domain.ErrPlayerNotFound
		}

		player, err := players.GetPlayer(ctx, normalizedID)
		if err != nil {
			return domain.Player{}, nil, fmt.Errorf("failed to get player: %w", err)
		}

		history, err := matches.GetPlayerHistory(ctx, normalizedID, PlayerHistoryLimit)
		if err != nil {
			return domain.Player{}, nil, fmt.Errorf("failed to get player history: %w", err)
		}

		return player, history, nil
	}
}
