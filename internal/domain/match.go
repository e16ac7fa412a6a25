package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultMap   = "Unknown"
	DefaultTeamA = "Team A"
	DefaultTeamB = "Team B"
)

// StatLine is one player's box score in a match, with rates derived when the match was stored
type StatLine struct {
	PlayerID  string
	Kills     int
	Deaths    int
	Assists   int
	Headshots int
	Damage    int
	Kast      float64
	Rounds    int
	Won       bool

	Rating float64
	KPR    float64
	DPR    float64
	APR    float64
	HSR    float64
	ADR    float64
}

func (l StatLine) Totals() StatTotals {
	return StatTotals{
		Kills:     l.Kills,
		Deaths:    l.Deaths,
		Assists:   l.Assists,
		Headshots: l.Headshots,
		Damage:    l.Damage,
		Rounds:    l.Rounds,
		Kast:      l.Kast,
	}
}

type Match struct {
	ID          string
	Title       string
	Map         string
	Date        time.Time
	TeamA       string
	TeamB       string
	ScoreA      int
	ScoreB      int
	TotalRounds int
	Notes       string

	PlayerStats []StatLine

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ParticipantIDs returns the distinct players of the match in order of first appearance
func (m *Match) ParticipantIDs() []string {
	seen := make(map[string]struct{}, len(m.PlayerStats))
	ids := make([]string, 0, len(m.PlayerStats))
	for _, line := range m.PlayerStats {
		if _, ok := seen[line.PlayerID]; ok {
			continue
		}
		seen[line.PlayerID] = struct{}{}
		ids = append(ids, line.PlayerID)
	}
	return ids
}

// LineFor returns the first line of the given player in the match
func (m *Match) LineFor(playerID string) (StatLine, bool) {
	for _, line := range m.PlayerStats {
		if line.PlayerID == playerID {
			return line, true
		}
	}
	return StatLine{}, false
}

type StatLineDraft struct {
	PlayerID  string
	Kills     int
	Deaths    int
	Assists   int
	Headshots int
	Damage    int
	Kast      float64
	// Zero means the line lasted the whole match
	Rounds int
	Won    bool
}

// MatchDraft is a match submission before validation and enrichment
type MatchDraft struct {
	Title       string
	Map         string
	Date        *time.Time
	TeamA       string
	TeamB       string
	ScoreA      int
	ScoreB      int
	TotalRounds int
	Notes       string

	PlayerStats []StatLineDraft
}

// Upper bounds for submitted values. A line at every bound still fits the
// 32-bit columns it is stored in.
const (
	MaxRounds     = 1_000
	MaxLineCount  = 10_000
	MaxLineDamage = 1_000_000
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func (d *MatchDraft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return validationError("match title is required")
	}
	if d.TotalRounds < 1 {
		return validationError("total rounds must be at least 1")
	}
	if d.TotalRounds > MaxRounds {
		return validationError("total rounds must be at most %d", MaxRounds)
	}
	if d.ScoreA < 0 || d.ScoreB < 0 {
		return validationError("scores must be non-negative")
	}
	if d.ScoreA > MaxRounds || d.ScoreB > MaxRounds {
		return validationError("scores must be at most %d", MaxRounds)
	}
	if len(d.PlayerStats) == 0 {
		return validationError("at least one player stat is required")
	}

	for i, line := range d.PlayerStats {
		if err := line.validate(); err != nil {
			return fmt.Errorf("player stat %d: %w", i, err)
		}
	}

	return nil
}

func (l *StatLineDraft) validate() error {
	if strings.TrimSpace(l.PlayerID) == "" {
		return validationError("player is required")
	}
	if l.Kills < 0 || l.Deaths < 0 || l.Assists < 0 || l.Headshots < 0 || l.Damage < 0 {
		return validationError("kills, deaths, assists, headshots and damage must be non-negative")
	}
	if l.Kills > MaxLineCount || l.Deaths > MaxLineCount || l.Assists > MaxLineCount || l.Headshots > MaxLineCount {
		return validationError("kills, deaths, assists and headshots must be at most %d", MaxLineCount)
	}
	if l.Damage > MaxLineDamage {
		return validationError("damage must be at most %d", MaxLineDamage)
	}
	if l.Kast < 0 || l.Kast > 100 {
		return validationError("kast must be between 0 and 100")
	}
	if l.Rounds < 0 {
		return validationError("rounds must be non-negative")
	}
	if l.Rounds > MaxRounds {
		return validationError("rounds must be at most %d", MaxRounds)
	}
	if l.Headshots > l.Kills {
		return validationError("headshots cannot exceed kills")
	}
	return nil
}

// EnrichStatLine computes the per-round rates and the rating of a line
func EnrichStatLine(draft StatLineDraft, totalRounds int) StatLine {
	rounds := draft.Rounds
	if rounds <= 0 {
		rounds = totalRounds
	}

	line := StatLine{
		PlayerID:  draft.PlayerID,
		Kills:     draft.Kills,
		Deaths:    draft.Deaths,
		Assists:   draft.Assists,
		Headshots: draft.Headshots,
		Damage:    draft.Damage,
		Kast:      draft.Kast,
		Rounds:    rounds,
		Won:       draft.Won,
	}

	if rounds > 0 {
		r := float64(rounds)
		line.KPR = roundTo(float64(draft.Kills)/r, 3)
		line.DPR = roundTo(float64(draft.Deaths)/r, 3)
		line.APR = roundTo(float64(draft.Assists)/r, 3)
		line.ADR = roundTo(float64(draft.Damage)/r, 1)
	}
	if draft.Kills > 0 {
		line.HSR = roundTo(float64(draft.Headshots)/float64(draft.Kills)*100, 1)
	}
	line.Rating = ComputeRating(line.Totals())

	return line
}

// PrepareMatch validates the draft and builds the match to store.
// The match has no ID until it is stored.
func PrepareMatch(draft MatchDraft, now time.Time) (Match, error) {
	if err := draft.Validate(); err != nil {
		return Match{}, err
	}

	match := Match{
		Title:       strings.TrimSpace(draft.Title),
		Map:         strings.TrimSpace(draft.Map),
		Date:        now,
		TeamA:       strings.TrimSpace(draft.TeamA),
		TeamB:       strings.TrimSpace(draft.TeamB),
		ScoreA:      draft.ScoreA,
		ScoreB:      draft.ScoreB,
		TotalRounds: draft.TotalRounds,
		Notes:       draft.Notes,
		PlayerStats: make([]StatLine, 0, len(draft.PlayerStats)),
	}
	if draft.Date != nil && !draft.Date.IsZero() {
		match.Date = *draft.Date
	}
	if match.Map == "" {
		match.Map = DefaultMap
	}
	if match.TeamA == "" {
		match.TeamA = DefaultTeamA
	}
	if match.TeamB == "" {
		match.TeamB = DefaultTeamB
	}

	for _, lineDraft := range draft.PlayerStats {
		match.PlayerStats = append(match.PlayerStats, EnrichStatLine(lineDraft, draft.TotalRounds))
	}

	return match, nil
}

// PlayerMatch is a match seen from one participant
type PlayerMatch struct {
	MatchID     string
	Title       string
	Map         string
	Date        time.Time
	TeamA       string
	TeamB       string
	ScoreA      int
	ScoreB      int
	TotalRounds int

	Line StatLine
}

// ResolvedMatch is a match with every participant resolved
type ResolvedMatch struct {
	Match
	Participants map[string]PlayerSummary
}

func (m *ResolvedMatch) Participant(playerID string) PlayerSummary {
	if summary, ok := m.Participants[playerID]; ok {
		return summary
	}
	return UnknownPlayer(playerID)
}

// MatchPage is one page of the match log, newest first
type MatchPage struct {
	Matches []ResolvedMatch
	Total   int
	Page    int
	Limit   int
}
