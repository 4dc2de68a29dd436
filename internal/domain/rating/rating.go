// Package rating implements the Elo update rule used for pairwise
// comparisons, including the convergence heuristics (provisional
// period, K decay, upset and draw-gap boosts).
//
// All functions here are pure and total: they never fail and never
// touch shared state. Callers are responsible for supplying sane
// inputs (non-negative K, finite ratings); no sanitization happens
// here so the math stays transparent and trivially testable.
package rating

import (
	"math"

	"github.com/okian/duelo/internal/domain/model"
)

// Default rating configuration constants.
const (
	// DefaultBaseK is the K factor used when nothing is configured.
	DefaultBaseK = 24.0

	// logisticScale is the standard Elo spread: a 400-point gap means
	// a 10:1 expected win ratio.
	logisticScale = 400.0
)

// ExpectedScore returns the probability, in (0,1), that the player
// rated a beats the player rated b under the logistic Elo model.
// ExpectedScore(a,b) + ExpectedScore(b,a) == 1 within floating
// tolerance.
func ExpectedScore(a, b float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (b-a)/logisticScale))
}

// EffectiveK computes the per-player K factor for a player with the
// given pre-match count. The provisional phase takes precedence over
// decay while active; the two are phases of a player's lifetime, not
// multipliers that stack.
func EffectiveK(baseK float64, matches int, h Heuristics) float64 {
	if h.Provisional.Enabled && matches < h.Provisional.Matches {
		return baseK * h.Provisional.Multiplier
	}
	if h.Decay.Enabled && h.Decay.HalfLife > 0 {
		k := baseK / (1.0 + float64(matches)/h.Decay.HalfLife)
		return math.Max(k, h.Decay.MinK)
	}
	return baseK
}

// UpdateRatings applies one comparison outcome and returns the new
// ratings for both players. matchesA and matchesB are the pre-match
// counts; the effective K factors are derived from them, so the caller
// must pass the counts as they were before this comparison.
//
// The sum of ratings is preserved only when both sides end up with the
// same effective K. The upset and draw-gap boosts multiply both sides
// identically and therefore keep whatever symmetry already exists;
// only differing provisional/decay phases break the zero-sum property.
func UpdateRatings(a, b float64, matchesA, matchesB int, out model.Outcome, baseK float64, h Heuristics) (float64, float64) {
	eA := ExpectedScore(a, b)
	eB := 1.0 - eA

	var scoreA float64
	switch out {
	case model.FirstWins:
		scoreA = 1.0
	case model.SecondWins:
		scoreA = 0.0
	case model.Draw:
		scoreA = 0.5
	}
	scoreB := 1.0 - scoreA

	kA := EffectiveK(baseK, matchesA, h)
	kB := EffectiveK(baseK, matchesB, h)

	gap := math.Abs(a - b)
	switch {
	case h.UpsetBoost.Enabled && isUpset(a, b, out) && gap >= h.UpsetBoost.Threshold:
		kA *= h.UpsetBoost.Multiplier
		kB *= h.UpsetBoost.Multiplier
	case h.DrawGapBoost.Enabled && out == model.Draw && gap >= h.DrawGapBoost.Threshold:
		kA *= h.DrawGapBoost.Multiplier
		kB *= h.DrawGapBoost.Multiplier
	}

	return a + kA*(scoreA-eA), b + kB*(scoreB-eB)
}

// isUpset reports whether the outcome's winner was the lower-rated
// side before the match. Draws and equal ratings are never upsets.
func isUpset(a, b float64, out model.Outcome) bool {
	switch out {
	case model.FirstWins:
		return a < b
	case model.SecondWins:
		return b < a
	default:
		return false
	}
}
