package domain

// AggregateStatLines sums a player's lines into a career aggregate.
// lines must hold at most one line per match.
func AggregateStatLines(lines []StatLine) PlayerAggregate {
	aggregate := EmptyAggregate()

	for _, line := range lines {
		aggregate.TotalRounds += line.Rounds
		aggregate.TotalKills += line.Kills
		aggregate.TotalDeaths += line.Deaths
		aggregate.TotalAssists += line.Assists
		aggregate.TotalHeadshots += line.Headshots
		aggregate.TotalDamage += line.Damage
		aggregate.TotalKast += line.Kast
		if line.Won {
			aggregate.Wins++
		}
	}
	aggregate.MatchesPlayed = len(lines)
	aggregate.Losses = aggregate.MatchesPlayed - aggregate.Wins

	totals := StatTotals{
		Kills:     aggregate.TotalKills,
		Deaths:    aggregate.TotalDeaths,
		Assists:   aggregate.TotalAssists,
		Headshots: aggregate.TotalHeadshots,
		Damage:    aggregate.TotalDamage,
		Rounds:    aggregate.TotalRounds,
	}
	if aggregate.MatchesPlayed > 0 {
		// The rating uses the average KAST over the matches, not the sum
		totals.Kast = aggregate.TotalKast / float64(aggregate.MatchesPlayed)
	}

	aggregate.Rating = ComputeRating(totals)
	aggregate.Tier = ComputeTier(aggregate.Rating)
	aggregate.Role = ComputeRole(totals)

	return aggregate
}
