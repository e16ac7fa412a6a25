package ports

import (
	"fmt"
	"strings"
	"time"

	"github.com/Amund211/fragstat/internal/domain"
)

type playerResponse struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Team    string  `json:"team"`
	Country string  `json:"country"`
	Avatar  *string `json:"avatar"`

	TotalRounds    int     `json:"totalRounds"`
	TotalKills     int     `json:"totalKills"`
	TotalDeaths    int     `json:"totalDeaths"`
	TotalAssists   int     `json:"totalAssists"`
	TotalHeadshots int     `json:"totalHeadshots"`
	TotalDamage    int     `json:"totalDamage"`
	TotalKast      float64 `json:"totalKast"`
	MatchesPlayed  int     `json:"matchesPlayed"`
	Wins           int     `json:"wins"`
	Losses         int     `json:"losses"`

	Rating    float64 `json:"rating"`
	Tier      string  `json:"tier"`
	TierLabel string  `json:"tierLabel"`
	Role      string  `json:"role"`

	KD      float64 `json:"kd"`
	KPR     float64 `json:"kpr"`
	DPR     float64 `json:"dpr"`
	APR     float64 `json:"apr"`
	HSR     float64 `json:"hsr"`
	ADR     float64 `json:"adr"`
	AvgKast float64 `json:"avgKast"`
	WinRate float64 `json:"winRate"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func playerToResponse(player domain.Player) playerResponse {
	return playerResponse{
		ID:      player.ID,
		Name:    player.Name,
		Team:    player.Team,
		Country: player.Country,
		Avatar:  player.Avatar,

		TotalRounds:    player.TotalRounds,
		TotalKills:     player.TotalKills,
		TotalDeaths:    player.TotalDeaths,
		TotalAssists:   player.TotalAssists,
		TotalHeadshots: player.TotalHeadshots,
		TotalDamage:    player.TotalDamage,
		TotalKast:      player.TotalKast,
		MatchesPlayed:  player.MatchesPlayed,
		Wins:           player.Wins,
		Losses:         player.Losses,

		Rating:    player.Rating,
		Tier:      string(player.Tier),
		TierLabel: player.Tier.Label(),
		Role:      string(player.Role),

		KD:      player.KD(),
		KPR:     player.KPR(),
		DPR:     player.DPR(),
		APR:     player.APR(),
		HSR:     player.HSR(),
		ADR:     player.ADR(),
		AvgKast: player.AvgKast(),
		WinRate: player.WinRate(),

		CreatedAt: player.CreatedAt,
		UpdatedAt: player.UpdatedAt,
	}
}

type playerMatchResponse struct {
	MatchID     string    `json:"id"`
	Title       string    `json:"title"`
	Map         string    `json:"map"`
	Date        time.Time `json:"date"`
	TeamA       string    `json:"teamA"`
	TeamB       string    `json:"teamB"`
	ScoreA      int       `json:"scoreA"`
	ScoreB      int       `json:"scoreB"`
	TotalRounds int       `json:"totalRounds"`

	Kills     int     `json:"kills"`
	Deaths    int     `json:"deaths"`
	Assists   int     `json:"assists"`
	Headshots int     `json:"headshots"`
	Damage    int     `json:"damage"`
	Kast      float64 `json:"kast"`
	Won       bool    `json:"won"`
	Rating    float64 `json:"rating"`
	KPR       float64 `json:"kpr"`
	DPR       float64 `json:"dpr"`
	HSR       float64 `json:"hsr"`
	ADR       float64 `json:"adr"`
}

type playerDetailResponse struct {
	playerResponse
	MatchHistory []playerMatchResponse `json:"matchHistory"`
}

func playerDetailToResponse(player domain.Player, history []domain.PlayerMatch) playerDetailResponse {
	matchHistory := make([]playerMatchResponse, 0, len(history))
	for _, entry := range history {
		matchHistory = append(matchHistory, playerMatchResponse{
			MatchID:     entry.MatchID,
			Title:       entry.Title,
			Map:         entry.Map,
			Date:        entry.Date,
			TeamA:       entry.TeamA,
			TeamB:       entry.TeamB,
			ScoreA:      entry.ScoreA,
			ScoreB:      entry.ScoreB,
			TotalRounds: entry.TotalRounds,

			Kills:     entry.Line.Kills,
			Deaths:    entry.Line.Deaths,
			Assists:   entry.Line.Assists,
			Headshots: entry.Line.Headshots,
			Damage:    entry.Line.Damage,
			Kast:      entry.Line.Kast,
			Won:       entry.Line.Won,
			Rating:    entry.Line.Rating,
			KPR:       entry.Line.KPR,
			DPR:       entry.Line.DPR,
			HSR:       entry.Line.HSR,
			ADR:       entry.Line.ADR,
		})
	}

	return playerDetailResponse{
		playerResponse: playerToResponse(player),
		MatchHistory:   matchHistory,
	}
}

type playerSummaryResponse struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Team    string  `json:"team"`
	Country string  `json:"country"`
	Avatar  *string `json:"avatar"`
	Known   bool    `json:"known"`
}

type statLineResponse struct {
	PlayerID string `json:"playerId"`
	// Player is only set when the participants have been resolved
	Player *playerSummaryResponse `json:"player,omitempty"`

	Kills     int     `json:"kills"`
	Deaths    int     `json:"deaths"`
	Assists   int     `json:"assists"`
	Headshots int     `json:"headshots"`
	Damage    int     `json:"damage"`
	Kast      float64 `json:"kast"`
	Rounds    int     `json:"rounds"`
	Won       bool    `json:"won"`

	Rating float64 `json:"rating"`
	KPR    float64 `json:"kpr"`
	DPR    float64 `json:"dpr"`
	APR    float64 `json:"apr"`
	HSR    float64 `json:"hsr"`
	ADR    float64 `json:"adr"`
}

type matchResponse struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Map         string             `json:"map"`
	Date        time.Time          `json:"date"`
	TeamA       string             `json:"teamA"`
	TeamB       string             `json:"teamB"`
	ScoreA      int                `json:"scoreA"`
	ScoreB      int                `json:"scoreB"`
	TotalRounds int                `json:"totalRounds"`
	Notes       string             `json:"notes"`
	PlayerStats []statLineResponse `json:"playerStats"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

func statLineToResponse(line domain.StatLine) statLineResponse {
	return statLineResponse{
		PlayerID:  line.PlayerID,
		Kills:     line.Kills,
		Deaths:    line.Deaths,
		Assists:   line.Assists,
		Headshots: line.Headshots,
		Damage:    line.Damage,
		Kast:      line.Kast,
		Rounds:    line.Rounds,
		Won:       line.Won,

		Rating: line.Rating,
		KPR:    line.KPR,
		DPR:    line.DPR,
		APR:    line.APR,
		HSR:    line.HSR,
		ADR:    line.ADR,
	}
}

func matchToResponse(match domain.Match) matchResponse {
	lines := make([]statLineResponse, 0, len(match.PlayerStats))
	for _, line := range match.PlayerStats {
		lines = append(lines, statLineToResponse(line))
	}

	return matchResponse{
		ID:          match.ID,
		Title:       match.Title,
		Map:         match.Map,
		Date:        match.Date,
		TeamA:       match.TeamA,
		TeamB:       match.TeamB,
		ScoreA:      match.ScoreA,
		ScoreB:      match.ScoreB,
		TotalRounds: match.TotalRounds,
		Notes:       match.Notes,
		PlayerStats: lines,
		CreatedAt:   match.CreatedAt,
		UpdatedAt:   match.UpdatedAt,
	}
}

func resolvedMatchToResponse(match domain.ResolvedMatch) matchResponse {
	response := matchToResponse(match.Match)
	for i := range response.PlayerStats {
		summary := match.Participant(response.PlayerStats[i].PlayerID)
		response.PlayerStats[i].Player = &playerSummaryResponse{
			ID:      summary.ID,
			Name:    summary.Name,
			Team:    summary.Team,
			Country: summary.Country,
			Avatar:  summary.Avatar,
			Known:   summary.Known,
		}
	}
	return response
}

type playerRequest struct {
	Name    *string `json:"name"`
	Team    *string `json:"team"`
	Country *string `json:"country"`
	Avatar  *string `json:"avatar"`
}

func (r playerRequest) toProfile() (domain.PlayerProfile, error) {
	deref := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}
	return domain.NewPlayerProfile(deref(r.Name), deref(r.Team), deref(r.Country), r.Avatar)
}

func (r playerRequest) toUpdate() domain.PlayerUpdate {
	return domain.PlayerUpdate{
		Name:    r.Name,
		Team:    r.Team,
		Country: r.Country,
		Avatar:  r.Avatar,
	}
}

// matchDate accepts either a full RFC3339 timestamp or a plain date
type matchDate struct {
	time.Time
}

func (d *matchDate) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		return nil
	}

	for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
		parsed, err := time.Parse(layout, raw)
		if err == nil {
			d.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("%w: invalid date %q", domain.ErrValidation, raw)
}

type statLineRequest struct {
	Player    string  `json:"player"`
	Kills     int     `json:"kills"`
	Deaths    int     `json:"deaths"`
	Assists   int     `json:"assists"`
	Headshots int     `json:"headshots"`
	Damage    int     `json:"damage"`
	Kast      float64 `json:"kast"`
	Rounds    int     `json:"rounds"`
	Won       bool    `json:"won"`
}

type matchRequest struct {
	Title       string            `json:"title"`
	Map         string            `json:"map"`
	Date        *matchDate        `json:"date"`
	TeamA       string            `json:"teamA"`
	TeamB       string            `json:"teamB"`
	ScoreA      int               `json:"scoreA"`
	ScoreB      int               `json:"scoreB"`
	TotalRounds int               `json:"totalRounds"`
	Notes       string            `json:"notes"`
	PlayerStats []statLineRequest `json:"playerStats"`
}

func (r matchRequest) toDraft() domain.MatchDraft {
	draft := domain.MatchDraft{
		Title:       r.Title,
		Map:         r.Map,
		TeamA:       r.TeamA,
		TeamB:       r.TeamB,
		ScoreA:      r.ScoreA,
		ScoreB:      r.ScoreB,
		TotalRounds: r.TotalRounds,
		Notes:       r.Notes,
		PlayerStats: make([]domain.StatLineDraft, 0, len(r.PlayerStats)),
	}
	if r.Date != nil && !r.Date.IsZero() {
		date := r.Date.Time
		draft.Date = &date
	}
	for _, line := range r.PlayerStats {
		draft.PlayerStats = append(draft.PlayerStats, domain.StatLineDraft{
			PlayerID:  line.Player,
			Kills:     line.Kills,
			Deaths:    line.Deaths,
			Assists:   line.Assists,
			Headshots: line.Headshots,
			Damage:    line.Damage,
			Kast:      line.Kast,
			Rounds:    line.Rounds,
			Won:       line.Won,
		})
	}
	return draft
}
