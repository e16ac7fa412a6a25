package domaintest

import (
	"time"

	"github.com/Amund211/fragstat/internal/domain"
)

type matchDraftBuilder struct {
	draft *domain.MatchDraft
}

// WithLine adds a line for the player. Rounds default to the match's total rounds.
func (mb *matchDraftBuilder) WithLine(playerID string, kills, deaths, assists, headshots, damage int, kast float64, won bool) *matchDraftBuilder {
	mb.draft.PlayerStats = append(mb.draft.PlayerStats, domain.StatLineDraft{
		PlayerID:  playerID,
		Kills:     kills,
		Deaths:    deaths,
		Assists:   assists,
		Headshots: headshots,
		Damage:    damage,
		Kast:      kast,
		Won:       won,
	})
	return mb
}

func (mb *matchDraftBuilder) WithDate(date time.Time) *matchDraftBuilder {
	mb.draft.Date = &date
	return mb
}

func (mb *matchDraftBuilder) WithTotalRounds(totalRounds int) *matchDraftBuilder {
	mb.draft.TotalRounds = totalRounds
	return mb
}

func (mb *matchDraftBuilder) Build() domain.MatchDraft {
	draft := *mb.draft
	draft.PlayerStats = append([]domain.StatLineDraft(nil), mb.draft.PlayerStats...)
	return draft
}

func NewMatchDraftBuilder(title string) *matchDraftBuilder {
	return &matchDraftBuilder{
		draft: &domain.MatchDraft{
			Title:       title,
			TotalRounds: 20,
		},
	}
}
