package domain_test

import (
	"testing"
	"time"

	"github.com/Amund211/fragstat/internal/domain"
	"github.com/stretchr/testify/require"
)

func validDraft() domain.MatchDraft {
	return domain.MatchDraft{
		Title:       "Scrim vs bravo",
		TotalRounds: 20,
		PlayerStats: []domain.StatLineDraft{
			{
				PlayerID:  "player-1",
				Kills:     10,
				Deaths:    5,
				Assists:   2,
				Headshots: 5,
				Damage:    1500,
				Kast:      70,
				Won:       true,
			},
		},
	}
}

func TestMatchDraftValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, func() error {
		draft := validDraft()
		return draft.Validate()
	}())

	cases := []struct {
		name   string
		mutate func(d *domain.MatchDraft)
	}{
		{name: "empty title", mutate: func(d *domain.MatchDraft) { d.Title = "  " }},
		{name: "no rounds", mutate: func(d *domain.MatchDraft) { d.TotalRounds = 0 }},
		{name: "negative score", mutate: func(d *domain.MatchDraft) { d.ScoreA = -1 }},
		{name: "no stat lines", mutate: func(d *domain.MatchDraft) { d.PlayerStats = nil }},
		{name: "missing player", mutate: func(d *domain.MatchDraft) { d.PlayerStats[0].PlayerID = "" }},
		{name: "negative kills", mutate: func(d *domain.MatchDraft) { d.PlayerStats[0].Kills = -1 }},
		{name: "negative damage", mutate: func(d *domain.MatchDraft) { d.PlayerStats[0].Damage = -10 }},
		{name: "kast above 100", mutate: func(d *domain.MatchDraft) { d.PlayerStats[0].Kast = 100.5 }},
		{name: "negative kast", mutate: func(d *domain.MatchDraft) { d.PlayerStats[0].Kast = -1 }},
		{name: "negative rounds", mutate: func(d *domain.MatchDraft) { d.PlayerStats[0].Rounds = -1 }},
		{name: "more headshots than kills", mutate: func(d *domain.MatchDraft) { d.PlayerStats[0].Headshots = 11 }},
		{name: "too many total rounds", mutate: func(d *domain.MatchDraft) { d.TotalRounds = domain.MaxRounds + 1 }},
		{name: "score too high", mutate: func(d *domain.MatchDraft) { d.ScoreB = domain.MaxRounds + 1 }},
		{name: "too many line rounds", mutate: func(d *domain.MatchDraft) { d.PlayerStats[0].Rounds = domain.MaxRounds + 1 }},
		{name: "too many kills", mutate: func(d *domain.MatchDraft) {
			d.PlayerStats[0].Kills = domain.MaxLineCount + 1
			d.PlayerStats[0].Headshots = 0
		}},
		{name: "too many deaths", mutate: func(d *domain.MatchDraft) { d.PlayerStats[0].Deaths = domain.MaxLineCount + 1 }},
		{name: "too many assists", mutate: func(d *domain.MatchDraft) { d.PlayerStats[0].Assists = domain.MaxLineCount + 1 }},
		{name: "too much damage", mutate: func(d *domain.MatchDraft) { d.PlayerStats[0].Damage = 1_500_000_000 }},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			draft := validDraft()
			c.mutate(&draft)
			require.ErrorIs(t, draft.Validate(), domain.ErrValidation)
		})
	}
}

func TestMatchDraftBounds(t *testing.T) {
	t.Parallel()

	t.Run("values at the bounds are accepted", func(t *testing.T) {
		t.Parallel()

		draft := validDraft()
		draft.TotalRounds = domain.MaxRounds
		draft.ScoreA = domain.MaxRounds
		line := &draft.PlayerStats[0]
		line.Kills = domain.MaxLineCount
		line.Deaths = domain.MaxLineCount
		line.Assists = domain.MaxLineCount
		line.Headshots = domain.MaxLineCount
		line.Damage = domain.MaxLineDamage
		line.Rounds = domain.MaxRounds

		require.NoError(t, draft.Validate())
	})

	t.Run("oversized damage is rejected before storage", func(t *testing.T) {
		t.Parallel()

		draft := validDraft()
		draft.PlayerStats[0].Damage = 1_500_000_000

		_, err := domain.PrepareMatch(draft, time.Now())
		require.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestEnrichStatLine(t *testing.T) {
	t.Parallel()

	t.Run("uses total rounds by default", func(t *testing.T) {
		t.Parallel()

		line := domain.EnrichStatLine(validDraft().PlayerStats[0], 20)
		require.Equal(t, 20, line.Rounds)
		require.InDelta(t, 0.5, line.KPR, 1e-9)
		require.InDelta(t, 0.25, line.DPR, 1e-9)
		require.InDelta(t, 0.1, line.APR, 1e-9)
		require.InDelta(t, 50.0, line.HSR, 1e-9)
		require.InDelta(t, 75.0, line.ADR, 1e-9)
		require.InDelta(t, 0.717, line.Rating, 1e-9)
		require.True(t, line.Won)
	})

	t.Run("own rounds and rounding", func(t *testing.T) {
		t.Parallel()

		line := domain.EnrichStatLine(domain.StatLineDraft{
			PlayerID:  "player-2",
			Kills:     7,
			Deaths:    9,
			Assists:   3,
			Headshots: 4,
			Damage:    1999,
			Kast:      60,
			Rounds:    24,
		}, 30)
		require.Equal(t, 24, line.Rounds)
		require.InDelta(t, 0.292, line.KPR, 1e-9)
		require.InDelta(t, 0.375, line.DPR, 1e-9)
		require.InDelta(t, 0.125, line.APR, 1e-9)
		require.InDelta(t, 57.1, line.HSR, 1e-9)
		require.InDelta(t, 83.3, line.ADR, 1e-9)
		require.Equal(t, domain.ComputeRating(line.Totals()), line.Rating)
		require.False(t, line.Won)
	})

	t.Run("no kills", func(t *testing.T) {
		t.Parallel()

		line := domain.EnrichStatLine(domain.StatLineDraft{PlayerID: "p", Deaths: 3}, 10)
		require.Zero(t, line.HSR)
		require.Zero(t, line.KPR)
	})
}

func TestPrepareMatch(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.March, 3, 12, 0, 0, 0, time.UTC)

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		match, err := domain.PrepareMatch(validDraft(), now)
		require.NoError(t, err)
		require.Empty(t, match.ID)
		require.Equal(t, "Scrim vs bravo", match.Title)
		require.Equal(t, domain.DefaultMap, match.Map)
		require.Equal(t, now, match.Date)
		require.Equal(t, domain.DefaultTeamA, match.TeamA)
		require.Equal(t, domain.DefaultTeamB, match.TeamB)
		require.Zero(t, match.ScoreA)
		require.Zero(t, match.ScoreB)
		require.Empty(t, match.Notes)
		require.Len(t, match.PlayerStats, 1)
		require.InDelta(t, 0.717, match.PlayerStats[0].Rating, 1e-9)
	})

	t.Run("provided fields", func(t *testing.T) {
		t.Parallel()

		date := now.Add(-48 * time.Hour)
		draft := validDraft()
		draft.Map = "Mirage"
		draft.Date = &date
		draft.TeamA = "Alpha"
		draft.TeamB = "Bravo"
		draft.ScoreA = 13
		draft.ScoreB = 7
		draft.Notes = "close game"

		match, err := domain.PrepareMatch(draft, now)
		require.NoError(t, err)
		require.Equal(t, "Mirage", match.Map)
		require.Equal(t, date, match.Date)
		require.Equal(t, "Alpha", match.TeamA)
		require.Equal(t, "Bravo", match.TeamB)
		require.Equal(t, 13, match.ScoreA)
		require.Equal(t, 7, match.ScoreB)
		require.Equal(t, "close game", match.Notes)
	})

	t.Run("invalid", func(t *testing.T) {
		t.Parallel()

		draft := validDraft()
		draft.PlayerStats = []domain.StatLineDraft{}
		_, err := domain.PrepareMatch(draft, now)
		require.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestMatchParticipants(t *testing.T) {
	t.Parallel()

	match := domain.Match{
		PlayerStats: []domain.StatLine{
			{PlayerID: "a", Kills: 1},
			{PlayerID: "b"},
			{PlayerID: "a", Kills: 2},
			{PlayerID: "c"},
		},
	}

	require.Equal(t, []string{"a", "b", "c"}, match.ParticipantIDs())

	line, ok := match.LineFor("a")
	require.True(t, ok)
	require.Equal(t, 1, line.Kills)

	_, ok = match.LineFor("d")
	require.False(t, ok)

	resolved := domain.ResolvedMatch{
		Match: match,
		Participants: map[string]domain.PlayerSummary{
			"a": {ID: "a", Name: "alpha", Known: true},
		},
	}
	require.Equal(t, "alpha", resolved.Participant("a").Name)
	require.Equal(t, domain.UnknownPlayer("b"), resolved.Participant("b"))
}

func TestAggregateStatLines(t *testing.T) {
	t.Parallel()

	t.Run("no matches", func(t *testing.T) {
		t.Parallel()

		require.Equal(t, domain.EmptyAggregate(), domain.AggregateStatLines(nil))
	})

	t.Run("single match equals the line", func(t *testing.T) {
		t.Parallel()

		line := domain.EnrichStatLine(domain.StatLineDraft{
			PlayerID: "alpha", Kills: 16, Deaths: 10, Assists: 4, Headshots: 9, Damage: 1800, Kast: 75, Won: true,
		}, 20)

		aggregate := domain.AggregateStatLines([]domain.StatLine{line})
		require.Equal(t, 1, aggregate.MatchesPlayed)
		require.Equal(t, 1, aggregate.Wins)
		require.Equal(t, 0, aggregate.Losses)
		require.InDelta(t, 0.887, aggregate.Rating, 1e-9)
		require.Equal(t, line.Rating, aggregate.Rating)
		require.Equal(t, domain.TierC, aggregate.Tier)
	})

	t.Run("career", func(t *testing.T) {
		t.Parallel()

		lines := []domain.StatLine{
			{Kills: 26, Deaths: 18, Assists: 6, Headshots: 12, Damage: 2400, Kast: 80, Rounds: 24, Won: true},
			{Kills: 16, Deaths: 10, Assists: 4, Headshots: 9, Damage: 1800, Kast: 75, Rounds: 20, Won: false},
		}

		aggregate := domain.AggregateStatLines(lines)
		require.Equal(t, domain.PlayerAggregate{
			TotalRounds:    44,
			TotalKills:     42,
			TotalDeaths:    28,
			TotalAssists:   10,
			TotalHeadshots: 21,
			TotalDamage:    4200,
			TotalKast:      155,
			MatchesPlayed:  2,
			Wins:           1,
			Losses:         1,
			Rating:         aggregate.Rating,
			Tier:           domain.TierB,
			Role:           domain.RoleEntryFragger,
		}, aggregate)
		require.InDelta(t, 0.956, aggregate.Rating, 1e-9)
		require.Equal(t, aggregate.MatchesPlayed, aggregate.Wins+aggregate.Losses)
	})

	t.Run("order does not matter", func(t *testing.T) {
		t.Parallel()

		a := domain.StatLine{Kills: 3, Deaths: 7, Rounds: 16, Kast: 40}
		b := domain.StatLine{Kills: 20, Deaths: 4, Headshots: 15, Damage: 2100, Rounds: 18, Kast: 95, Won: true}
		require.Equal(t,
			domain.AggregateStatLines([]domain.StatLine{a, b}),
			domain.AggregateStatLines([]domain.StatLine{b, a}),
		)
	})
}
