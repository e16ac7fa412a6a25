package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	DefaultTeam    = "Unaffiliated"
	DefaultCountry = "Unknown"

	maxPlayerNameLength = 64
)

// PlayerAggregate holds the career totals of a player and the labels derived from them.
// It is only valid directly after a recomputation over the player's matches.
type PlayerAggregate struct {
	TotalRounds    int
	TotalKills     int
	TotalDeaths    int
	TotalAssists   int
	TotalHeadshots int
	TotalDamage    int
	// Sum of per-match KAST percentages
	TotalKast float64

	MatchesPlayed int
	Wins          int
	Losses        int

	Rating float64
	Tier   Tier
	Role   Role
}

// EmptyAggregate is the aggregate of a player without any matches
func EmptyAggregate() PlayerAggregate {
	return PlayerAggregate{
		Tier: TierD,
		Role: RoleLurker,
	}
}

type Player struct {
	ID      string
	Name    string
	Team    string
	Country string
	Avatar  *string

	PlayerAggregate

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p *Player) KD() float64 {
	if p.TotalDeaths > 0 {
		return roundTo(float64(p.TotalKills)/float64(p.TotalDeaths), 2)
	}
	return float64(p.TotalKills)
}

func (p *Player) perRound(value int) float64 {
	if p.TotalRounds <= 0 {
		return 0
	}
	return float64(value) / float64(p.TotalRounds)
}

func (p *Player) KPR() float64 {
	return roundTo(p.perRound(p.TotalKills), 2)
}

func (p *Player) DPR() float64 {
	return roundTo(p.perRound(p.TotalDeaths), 2)
}

func (p *Player) APR() float64 {
	return roundTo(p.perRound(p.TotalAssists), 2)
}

// HSR is the headshot percentage of all kills
func (p *Player) HSR() float64 {
	if p.TotalKills <= 0 {
		return 0
	}
	return roundTo(float64(p.TotalHeadshots)/float64(p.TotalKills)*100, 1)
}

func (p *Player) ADR() float64 {
	return roundTo(p.perRound(p.TotalDamage), 1)
}

func (p *Player) AvgKast() float64 {
	if p.MatchesPlayed <= 0 {
		return 0
	}
	return roundTo(p.TotalKast/float64(p.MatchesPlayed), 1)
}

func (p *Player) WinRate() float64 {
	if p.MatchesPlayed <= 0 {
		return 0
	}
	return roundTo(float64(p.Wins)/float64(p.MatchesPlayed)*100, 1)
}

// PlayerProfile is the user-editable identity of a player
type PlayerProfile struct {
	Name    string
	Team    string
	Country string
	Avatar  *string
}

// NewPlayerProfile trims the input, applies defaults and validates the name
func NewPlayerProfile(name, team, country string, avatar *string) (PlayerProfile, error) {
	profile := PlayerProfile{
		Name:    strings.TrimSpace(name),
		Team:    strings.TrimSpace(team),
		Country: strings.TrimSpace(country),
		Avatar:  normalizeAvatar(avatar),
	}

	if err := validatePlayerName(profile.Name); err != nil {
		return PlayerProfile{}, err
	}
	if profile.Team == "" {
		profile.Team = DefaultTeam
	}
	if profile.Country == "" {
		profile.Country = DefaultCountry
	}

	return profile, nil
}

// PlayerUpdate holds the fields to change on a player. Nil fields are left untouched.
type PlayerUpdate struct {
	Name    *string
	Team    *string
	Country *string
	// An empty avatar removes the current one
	Avatar *string
}

// Apply returns the profile with the update applied
func (u PlayerUpdate) Apply(profile PlayerProfile) (PlayerProfile, error) {
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if err := validatePlayerName(name); err != nil {
			return PlayerProfile{}, err
		}
		profile.Name = name
	}
	if u.Team != nil {
		profile.Team = strings.TrimSpace(*u.Team)
		if profile.Team == "" {
			profile.Team = DefaultTeam
		}
	}
	if u.Country != nil {
		profile.Country = strings.TrimSpace(*u.Country)
		if profile.Country == "" {
			profile.Country = DefaultCountry
		}
	}
	if u.Avatar != nil {
		profile.Avatar = normalizeAvatar(u.Avatar)
	}
	return profile, nil
}

func (p *Player) Profile() PlayerProfile {
	return PlayerProfile{
		Name:    p.Name,
		Team:    p.Team,
		Country: p.Country,
		Avatar:  p.Avatar,
	}
}

func validatePlayerName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: player name is required", ErrValidation)
	}
	if utf8.RuneCountInString(name) > maxPlayerNameLength {
		return fmt.Errorf("%w: player name must be at most %d characters", ErrValidation, maxPlayerNameLength)
	}
	return nil
}

func normalizeAvatar(avatar *string) *string {
	if avatar == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*avatar)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// PlayerSummary is how a match refers to a participant.
// Participants may have been deleted since the match was recorded.
type PlayerSummary struct {
	ID      string
	Name    string
	Team    string
	Country string
	Avatar  *string
	Known   bool
}

const UnknownPlayerName = "Unknown player"

func UnknownPlayer(id string) PlayerSummary {
	return PlayerSummary{
		ID:      id,
		Name:    UnknownPlayerName,
		Team:    DefaultTeam,
		Country: DefaultCountry,
		Known:   false,
	}
}

func (p *Player) Summary() PlayerSummary {
	return PlayerSummary{
		ID:      p.ID,
		Name:    p.Name,
		Team:    p.Team,
		Country: p.Country,
		Avatar:  p.Avatar,
		Known:   true,
	}
}

type PlayerSortField string

const (
	SortByRating        PlayerSortField = "rating"
	SortByTotalKills    PlayerSortField = "totalKills"
	SortByMatchesPlayed PlayerSortField = "matchesPlayed"
	SortByWins          PlayerSortField = "wins"
	SortByName          PlayerSortField = "name"
)

// ParsePlayerSortField falls back to sorting by rating for unknown fields
func ParsePlayerSortField(raw string) PlayerSortField {
	switch field := PlayerSortField(raw); field {
	case SortByRating, SortByTotalKills, SortByMatchesPlayed, SortByWins, SortByName:
		return field
	default:
		return SortByRating
	}
}

// PlayerQuery selects and orders players for a listing
type PlayerQuery struct {
	Sort      PlayerSortField
	Ascending bool

	// Empty filters match every player
	Tier Tier
	Role Role
	// Case-insensitive substring of the team name
	Team string
}

// NewPlayerQuery builds a query from raw listing parameters.
// Any order other than "asc" sorts descending.
func NewPlayerQuery(sort, order, tier, role, team string) PlayerQuery {
	return PlayerQuery{
		Sort:      ParsePlayerSortField(sort),
		Ascending: order == "asc",
		Tier:      Tier(tier),
		Role:      Role(role),
		Team:      strings.TrimSpace(team),
	}
}
