package service

import (
	"cmp"
	"slices"

	"github.com/AdamBeresnev/padel-elo/internal/padel"
)

// Rank orders teams by rating, highest first. Equal ratings keep their roster order.
func Rank(teams []padel.Team) padel.Ranking {
	sorted := slices.Clone(teams)
	slices.SortStableFunc(sorted, func(a, b padel.Team) int {
		return cmp.Compare(b.Rating, a.Rating)
	})

	ranked := make([]padel.RankedTeam, len(sorted))
	for i, t := range sorted {
		ranked[i] = padel.RankedTeam{Team: t, Position: i + 1}
	}

	return padel.Ranking{Total: len(ranked), Teams: ranked}
}
