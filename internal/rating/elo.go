package rating

import "math"

const DefaultKFactor = 32

// ExpectedScore is the probability that a team rated a beats a team rated b
func ExpectedScore(a, b int) float64 {
	return 1 / (1 + math.Pow(10, float64(b-a)/400))
}

// ComputeUpdate applies one Elo result. Each side is rounded on its own (half away from zero),
// so the pair may drift one point off zero-sum.
func ComputeUpdate(winnerRating, loserRating, kFactor int) (int, int) {
	expectedWin := ExpectedScore(winnerRating, loserRating)
	expectedLoss := 1 - expectedWin

	k := float64(kFactor)
	newWinner := math.Round(float64(winnerRating) + k*(1-expectedWin))
	newLoser := math.Round(float64(loserRating) + k*(0-expectedLoss))

	return int(newWinner), int(newLoser)
}
