package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Amund211/fragstat/internal/app"
	"github.com/Amund211/fragstat/internal/domain"
	"github.com/Amund211/fragstat/internal/logging"
)

type seedPlayer struct {
	name    string
	team    string
	country string
}

type seedLine struct {
	player                                    string
	kills, deaths, assists, headshots, damage int
	kast                                      float64
	won                                       bool
}

type seedMatch struct {
	title        string
	mapName      string
	daysAgo      int
	teamA, teamB string
	scoreA       int
	scoreB       int
	lines        []seedLine
}

var seedPlayers = []seedPlayer{
	{name: "Viper", team: "Northwind", country: "Sweden"},
	{name: "Halcyon", team: "Northwind", country: "Norway"},
	{name: "Quill", team: "Northwind", country: "Denmark"},
	{name: "Brakka", team: "Red Lantern", country: "Poland"},
	{name: "Solène", team: "Red Lantern", country: "France"},
	{name: "Tamsin", team: "Red Lantern", country: "Ireland"},
}

var seedMatches = []seedMatch{
	{
		title: "Northwind vs Red Lantern, map 1", mapName: "Mirage", daysAgo: 3,
		teamA: "Northwind", teamB: "Red Lantern", scoreA: 13, scoreB: 9,
		lines: []seedLine{
			{player: "Viper", kills: 27, deaths: 14, assists: 4, headshots: 13, damage: 2310, kast: 82, won: true},
			{player: "Halcyon", kills: 15, deaths: 16, assists: 9, headshots: 5, damage: 1650, kast: 77, won: true},
			{player: "Quill", kills: 12, deaths: 15, assists: 11, headshots: 6, damage: 1390, kast: 73, won: true},
			{player: "Brakka", kills: 18, deaths: 18, assists: 3, headshots: 11, damage: 1820, kast: 64},
			{player: "Solène", kills: 14, deaths: 18, assists: 6, headshots: 4, damage: 1540, kast: 59},
			{player: "Tamsin", kills: 9, deaths: 17, assists: 7, headshots: 5, damage: 1120, kast: 55},
		},
	},
	{
		title: "Northwind vs Red Lantern, map 2", mapName: "Nuke", daysAgo: 3,
		teamA: "Northwind", teamB: "Red Lantern", scoreA: 11, scoreB: 13,
		lines: []seedLine{
			{player: "Viper", kills: 19, deaths: 19, assists: 5, headshots: 8, damage: 1980, kast: 67},
			{player: "Halcyon", kills: 17, deaths: 18, assists: 6, headshots: 9, damage: 1870, kast: 71},
			{player: "Quill", kills: 10, deaths: 19, assists: 12, headshots: 3, damage: 1210, kast: 63},
			{player: "Brakka", kills: 24, deaths: 15, assists: 5, headshots: 15, damage: 2480, kast: 79, won: true},
			{player: "Solène", kills: 20, deaths: 14, assists: 8, headshots: 7, damage: 2030, kast: 83, won: true},
			{player: "Tamsin", kills: 12, deaths: 16, assists: 10, headshots: 6, damage: 1400, kast: 75, won: true},
		},
	},
	{
		title: "Scrim", mapName: "Ancient", daysAgo: 1,
		teamA: "Northwind", teamB: "Red Lantern", scoreA: 13, scoreB: 4,
		lines: []seedLine{
			{player: "Viper", kills: 22, deaths: 7, assists: 3, headshots: 12, damage: 1900, kast: 88, won: true},
			{player: "Quill", kills: 9, deaths: 8, assists: 10, headshots: 4, damage: 980, kast: 82, won: true},
			{player: "Tamsin", kills: 8, deaths: 15, assists: 2, headshots: 2, damage: 870, kast: 47},
		},
	},
}

type seedResult struct {
	players int
	matches int
}

func (m seedMatch) draft(playerIDs map[string]string, now time.Time) (domain.MatchDraft, error) {
	date := now.AddDate(0, 0, -m.daysAgo)
	draft := domain.MatchDraft{
		Title:       m.title,
		Map:         m.mapName,
		Date:        &date,
		TeamA:       m.teamA,
		TeamB:       m.teamB,
		ScoreA:      m.scoreA,
		ScoreB:      m.scoreB,
		TotalRounds: m.scoreA + m.scoreB,
		PlayerStats: make([]domain.StatLineDraft, 0, len(m.lines)),
	}

	for _, line := range m.lines {
		playerID, ok := playerIDs[line.player]
		if !ok {
			return domain.MatchDraft{}, fmt.Errorf("seed match %q references unknown player %q", m.title, line.player)
		}
		draft.PlayerStats = append(draft.PlayerStats, domain.StatLineDraft{
			PlayerID:  playerID,
			Kills:     line.kills,
			Deaths:    line.deaths,
			Assists:   line.assists,
			Headshots: line.headshots,
			Damage:    line.damage,
			Kast:      line.kast,
			Won:       line.won,
		})
	}
	return draft, nil
}

// seed registers the demo players and then their matches, which updates the player aggregates
func seed(ctx context.Context, createPlayer app.CreatePlayer, createMatch app.CreateMatch, now time.Time) (seedResult, error) {
	logger := logging.FromContext(ctx)

	playerIDs := make(map[string]string, len(seedPlayers))
	for _, p := range seedPlayers {
		profile, err := domain.NewPlayerProfile(p.name, p.team, p.country, nil)
		if err != nil {
			return seedResult{}, fmt.Errorf("invalid seed player %q: %w", p.name, err)
		}

		player, err := createPlayer(ctx, profile)
		if err != nil {
			return seedResult{}, fmt.Errorf("failed to create player %q (already seeded?): %w", p.name, err)
		}
		playerIDs[p.name] = player.ID
		logger.DebugContext(ctx, "Created seed player", "name", player.Name, "playerID", player.ID)
	}

	for _, m := range seedMatches {
		draft, err := m.draft(playerIDs, now)
		if err != nil {
			return seedResult{}, err
		}

		match, err := createMatch(ctx, draft)
		if err != nil {
			return seedResult{}, fmt.Errorf("failed to create match %q: %w", m.title, err)
		}
		logger.DebugContext(ctx, "Created seed match", "title", match.Title, "matchID", match.ID)
	}

	return seedResult{players: len(seedPlayers), matches: len(seedMatches)}, nil
}
