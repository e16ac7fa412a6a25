package app_test

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Amund211/fragstat/internal/domain"
)

// memoryRepository stores players and matches in memory.
// It behaves like the postgres repositories for the operations the app layer uses.
type memoryRepository struct {
	t *testing.T

	mu      sync.Mutex
	players map[string]domain.Player
	matches map[string]domain.Match

	updateAggregateCalls map[string]int
	updateAggregateErr   map[string]error
	getMatchCalls        int
}

func newMemoryRepository(t *testing.T) *memoryRepository {
	return &memoryRepository{
		t:                    t,
		players:              map[string]domain.Player{},
		matches:              map[string]domain.Match{},
		updateAggregateCalls: map[string]int{},
		updateAggregateErr:   map[string]error{},
	}
}

func newID(t *testing.T) string {
	t.Helper()
	id, err := uuid.NewV7()
	require.NoError(t, err)
	return id.String()
}

func (m *memoryRepository) CreatePlayer(ctx context.Context, profile domain.PlayerProfile) (domain.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, player := range m.players {
		if player.Name == profile.Name {
			return domain.Player{}, fmt.Errorf("%w: %s", domain.ErrDuplicateName, profile.Name)
		}
	}

	now := time.Now()
	player := domain.Player{
		ID:              newID(m.t),
		Name:            profile.Name,
		Team:            profile.Team,
		Country:         profile.Country,
		Avatar:          profile.Avatar,
		PlayerAggregate: domain.EmptyAggregate(),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	m.players[player.ID] = player
	return player, nil
}

func (m *memoryRepository) GetPlayer(ctx context.Context, playerID string) (domain.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	player, ok := m.players[playerID]
	if !ok {
		return domain.Player{}, domain.ErrPlayerNotFound
	}
	return player, nil
}

func (m *memoryRepository) GetPlayers(ctx context.Context, playerIDs []string) ([]domain.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	players := []domain.Player{}
	for _, id := range playerIDs {
		if player, ok := m.players[id]; ok {
			players = append(players, player)
		}
	}
	return players, nil
}

func (m *memoryRepository) UpdatePlayer(ctx context.Context, playerID string, update domain.PlayerUpdate) (domain.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	player, ok := m.players[playerID]
	if !ok {
		return domain.Player{}, domain.ErrPlayerNotFound
	}

	profile, err := update.Apply(player.Profile())
	if err != nil {
		return domain.Player{}, err
	}
	for id, other := range m.players {
		if id != playerID && other.Name == profile.Name {
			return domain.Player{}, fmt.Errorf("%w: %s", domain.ErrDuplicateName, profile.Name)
		}
	}

	player.Name = profile.Name
	player.Team = profile.Team
	player.Country = profile.Country
	player.Avatar = profile.Avatar
	player.UpdatedAt = time.Now()
	m.players[playerID] = player
	return player, nil
}

func (m *memoryRepository) DeletePlayer(ctx context.Context, playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.players[playerID]; !ok {
		return domain.ErrPlayerNotFound
	}
	delete(m.players, playerID)
	return nil
}

func (m *memoryRepository) ListPlayers(ctx context.Context, query domain.PlayerQuery) ([]domain.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	players := []domain.Player{}
	for _, player := range m.players {
		if query.Tier != "" && player.Tier != query.Tier {
			continue
		}
		if query.Role != "" && player.Role != query.Role {
			continue
		}
		if query.Team != "" && !strings.Contains(strings.ToLower(player.Team), strings.ToLower(query.Team)) {
			continue
		}
		players = append(players, player)
	}

	slices.SortFunc(players, func(a, b domain.Player) int {
		var c int
		switch query.Sort {
		case domain.SortByName:
			c = cmp.Compare(a.Name, b.Name)
		case domain.SortByTotalKills:
			c = cmp.Compare(a.TotalKills, b.TotalKills)
		case domain.SortByMatchesPlayed:
			c = cmp.Compare(a.MatchesPlayed, b.MatchesPlayed)
		case domain.SortByWins:
			c = cmp.Compare(a.Wins, b.Wins)
		default:
			c = cmp.Compare(a.Rating, b.Rating)
		}
		if !query.Ascending {
			c = -c
		}
		if c == 0 {
			c = cmp.Compare(a.Name, b.Name)
		}
		return c
	})

	return players, nil
}

func (m *memoryRepository) ListPlayerIDs(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.players))
	for id := range m.players {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

func (m *memoryRepository) firstLines(playerID string) []domain.StatLine {
	lines := []domain.StatLine{}
	for _, match := range m.matches {
		if line, ok := match.LineFor(playerID); ok {
			lines = append(lines, line)
		}
	}
	return lines
}

func (m *memoryRepository) UpdateAggregate(ctx context.Context, playerID string, compute func([]domain.StatLine) domain.PlayerAggregate) (domain.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.updateAggregateCalls[playerID]++
	if err := m.updateAggregateErr[playerID]; err != nil {
		return domain.Player{}, err
	}

	player, ok := m.players[playerID]
	if !ok {
		return domain.Player{}, domain.ErrPlayerNotFound
	}

	player.PlayerAggregate = compute(m.firstLines(playerID))
	player.UpdatedAt = time.Now()
	m.players[playerID] = player
	return player, nil
}

func (m *memoryRepository) StoreMatch(ctx context.Context, match domain.Match) (domain.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	match.ID = newID(m.t)
	match.CreatedAt = now
	match.UpdatedAt = now
	match.PlayerStats = slices.Clone(match.PlayerStats)
	m.matches[match.ID] = match
	return match, nil
}

func (m *memoryRepository) GetMatch(ctx context.Context, matchID string) (domain.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.getMatchCalls++
	match, ok := m.matches[matchID]
	if !ok {
		return domain.Match{}, domain.ErrMatchNotFound
	}
	return match, nil
}

func (m *memoryRepository) DeleteMatch(ctx context.Context, matchID string) (domain.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	match, ok := m.matches[matchID]
	if !ok {
		return domain.Match{}, domain.ErrMatchNotFound
	}
	delete(m.matches, matchID)
	return match, nil
}

func (m *memoryRepository) sortedMatches() []domain.Match {
	matches := make([]domain.Match, 0, len(m.matches))
	for _, match := range m.matches {
		matches = append(matches, match)
	}
	slices.SortFunc(matches, func(a, b domain.Match) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return matches
}

func (m *memoryRepository) ListMatches(ctx context.Context, offset, limit int) ([]domain.Match, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if offset < 0 || limit < 1 {
		return nil, 0, fmt.Errorf("invalid offset %d or limit %d", offset, limit)
	}

	matches := m.sortedMatches()
	total := len(matches)
	if offset >= total {
		return []domain.Match{}, total, nil
	}
	return matches[offset:min(offset+limit, total)], total, nil
}

func (m *memoryRepository) GetPlayerHistory(ctx context.Context, playerID string, limit int) ([]domain.PlayerMatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	history := []domain.PlayerMatch{}
	for _, match := range m.sortedMatches() {
		line, ok := match.LineFor(playerID)
		if !ok {
			continue
		}
		history = append(history, domain.PlayerMatch{
			MatchID:     match.ID,
			Title:       match.Title,
			Map:         match.Map,
			Date:        match.Date,
			TeamA:       match.TeamA,
			TeamB:       match.TeamB,
			ScoreA:      match.ScoreA,
			ScoreB:      match.ScoreB,
			TotalRounds: match.TotalRounds,
			Line:        line,
		})
		if len(history) == limit {
			break
		}
	}
	return history, nil
}

func (m *memoryRepository) player(t *testing.T, playerID string) domain.Player {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()

	player, ok := m.players[playerID]
	require.True(t, ok, "player %s not found", playerID)
	return player
}

func (m *memoryRepository) aggregateCalls(playerID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateAggregateCalls[playerID]
}

func (m *memoryRepository) failAggregate(playerID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateAggregateErr[playerID] = err
}
