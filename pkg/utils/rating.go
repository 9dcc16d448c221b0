package utils

import "math"

// RatingFloor is applied after every update. No player drops below it.
const RatingFloor = 100

const DefaultKFactor = 32

// Outcome values fed into the expected-score formula.
const (
	OutcomeWin  = 1.0
	OutcomeDraw = 0.5
	OutcomeLoss = 0.0
)

// expectedScore is the logistic Elo curve.
func expectedScore(playerRating, opponentRating int) float64 {
	return 1 / (1 + math.Pow(10, float64(opponentRating-playerRating)/400))
}

// RatingDelta computes the rounded Elo rating change for a player given the
// opponent's pre-match rating and the match outcome. The two deltas of a
// match are not zero-sum across asymmetric ratings.
func RatingDelta(playerRating, opponentRating int, outcome float64, kFactor int) int {
	expected := expectedScore(playerRating, opponentRating)
	return int(math.Round(float64(kFactor) * (outcome - expected)))
}

// ApplyDelta adds a rating delta and clamps the result to the floor.
func ApplyDelta(rating, delta int) int {
	updated := rating + delta
	if updated < RatingFloor {
		return RatingFloor
	}
	return updated
}
