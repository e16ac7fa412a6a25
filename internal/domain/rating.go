package domain

// Per-round benchmarks of an average player
const (
	benchmarkKPR        = 0.679
	benchmarkAPR        = 0.3
	benchmarkHeadshotRT = 0.45
	benchmarkADR        = 75.0
)

// Component weights, summing to 1
const (
	weightKill     = 0.38
	weightSurvival = 0.22
	weightKast     = 0.22
	weightAssist   = 0.1
	weightHeadshot = 0.04
	weightDamage   = 0.04
)

type Tier string

const (
	TierS Tier = "S"
	TierA Tier = "A"
	TierB Tier = "B"
	TierC Tier = "C"
	TierD Tier = "D"
)

func (t Tier) Label() string {
	switch t {
	case TierS:
		return "Elite"
	case TierA:
		return "Strong"
	case TierB:
		return "Solid"
	case TierC:
		return "Average"
	default:
		return "Developing"
	}
}

type Role string

const (
	RoleAWPer        Role = "AWPer"
	RoleEntryFragger Role = "Entry Fragger"
	RoleSupport      Role = "Support"
	RoleIGL          Role = "IGL"
	RoleLurker       Role = "Lurker"
)

// StatTotals is a statistical profile over some number of rounds.
// It describes either a single stat line or a player's career.
type StatTotals struct {
	Kills     int
	Deaths    int
	Assists   int
	Headshots int
	Damage    int
	Rounds    int
	// KAST percentage in [0, 100]
	Kast float64
}

// ComputeRating returns the performance rating for the profile, rounded to 3 decimals.
// A profile without rounds has a rating of 0.
func ComputeRating(stats StatTotals) float64 {
	if stats.Rounds <= 0 {
		return 0
	}

	rounds := float64(stats.Rounds)
	kills := float64(stats.Kills)

	kpr := kills / rounds
	survival := (rounds - float64(stats.Deaths)) / rounds
	aprNorm := float64(stats.Assists) / rounds / benchmarkAPR
	hsrNorm := 0.0
	if stats.Kills > 0 {
		hsrNorm = float64(stats.Headshots) / kills / benchmarkHeadshotRT
	}
	adrNorm := float64(stats.Damage) / rounds / benchmarkADR
	kastNorm := stats.Kast / 100
	killNorm := kpr / benchmarkKPR

	rating := killNorm*weightKill +
		survival*weightSurvival +
		kastNorm*weightKast +
		aprNorm*weightAssist +
		hsrNorm*weightHeadshot +
		adrNorm*weightDamage

	return roundTo(rating, 3)
}

func ComputeTier(rating float64) Tier {
	switch {
	case rating >= 1.3:
		return TierS
	case rating >= 1.1:
		return TierA
	case rating >= 0.9:
		return TierB
	case rating >= 0.7:
		return TierC
	default:
		return TierD
	}
}

// ComputeRole infers a play-style from the profile.
// The rules overlap, so the first matching rule wins.
func ComputeRole(stats StatTotals) Role {
	if stats.Rounds <= 0 {
		return RoleLurker
	}

	rounds := float64(stats.Rounds)
	kpr := float64(stats.Kills) / rounds
	apr := float64(stats.Assists) / rounds
	adr := float64(stats.Damage) / rounds
	hsr := 0.0
	if stats.Kills > 0 {
		hsr = float64(stats.Headshots) / float64(stats.Kills) * 100
	}

	switch {
	case hsr > 55 && adr > 90:
		return RoleAWPer
	case kpr > 0.82 && apr < 0.28:
		return RoleEntryFragger
	case apr > 0.45:
		return RoleSupport
	case adr > 82 && kpr < 0.68:
		return RoleIGL
	default:
		return RoleLurker
	}
}
