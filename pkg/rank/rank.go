// Package rank turns quiz results into rank points (RP) and RP totals into tiers.
package rank

import (
	"errors"
	"math"
)

// Difficulty labels understood by CalculateRP. Matching is exact, so "Hard"
// or "HARD" is unrecognized and scored as Medium.
const (
	Easy   = "easy"
	Medium = "medium"
	Hard   = "hard"
)

// Tier labels, lowest first.
const (
	TierSilver   = "Silver"
	TierGold     = "Gold"
	TierPlatinum = "Platinum"
	TierDiamond  = "Diamond"
)

// Lower bounds (inclusive) of the tiers above Silver.
const (
	GoldThreshold     = 500
	PlatinumThreshold = 1000
	DiamondThreshold  = 2000
)

// ErrInvalidInput is returned when a quiz result cannot be scored.
var ErrInvalidInput = errors.New("invalid quiz result")

var maxRP = map[string]int{
	Easy:   50,
	Medium: 100,
	Hard:   200,
}

// MaxRP returns the points awarded for a perfect score at the given difficulty.
func MaxRP(difficulty string) int {
	if v, ok := maxRP[difficulty]; ok {
		return v
	}
	return maxRP[Medium]
}

// CalculateRP returns round(score/totalQuestions * MaxRP(difficulty)).
// totalQuestions must be positive and score must lie in [0, totalQuestions].
func CalculateRP(score, totalQuestions int, difficulty string) (int, error) {
	if totalQuestions <= 0 || score < 0 || score > totalQuestions {
		return 0, ErrInvalidInput
	}
	ratio := float64(score) / float64(totalQuestions)
	return int(math.Round(ratio * float64(MaxRP(difficulty)))), nil
}

// GetTier maps a cumulative RP total to its tier label.
func GetTier(rp int) string {
	switch {
	case rp >= DiamondThreshold:
		return TierDiamond
	case rp >= PlatinumThreshold:
		return TierPlatinum
	case rp >= GoldThreshold:
		return TierGold
	default:
		return TierSilver
	}
}
