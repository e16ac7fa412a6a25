package domaintest

import (
	"time"

	"github.com/Amund211/fragstat/internal/domain"
)

type playerBuilder struct {
	player *domain.Player
}

func (pb *playerBuilder) WithName(name string) *playerBuilder {
	pb.player.Name = name
	return pb
}

func (pb *playerBuilder) WithTeam(team string) *playerBuilder {
	pb.player.Team = team
	return pb
}

func (pb *playerBuilder) WithAggregate(aggregate domain.PlayerAggregate) *playerBuilder {
	pb.player.PlayerAggregate = aggregate
	return pb
}

func (pb *playerBuilder) WithRating(rating float64) *playerBuilder {
	pb.player.Rating = rating
	pb.player.Tier = domain.ComputeTier(rating)
	return pb
}

func (pb *playerBuilder) Build() domain.Player {
	return *pb.player
}

func (pb *playerBuilder) BuildPtr() *domain.Player {
	// Make a copy, so further mutations to the builder don't affect the returned player
	player := pb.Build()
	return &player
}

func NewPlayerBuilder(id string, createdAt time.Time) *playerBuilder {
	player := &domain.Player{
		ID:              id,
		Name:            "player-" + id,
		Team:            domain.DefaultTeam,
		Country:         domain.DefaultCountry,
		PlayerAggregate: domain.EmptyAggregate(),
		CreatedAt:       createdAt,
		UpdatedAt:       createdAt,
	}
	return &playerBuilder{
		player: player,
	}
}
