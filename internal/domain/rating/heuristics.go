package rating

// Provisional amplifies rating changes during a player's earliest
// matches so new items converge quickly.
type Provisional struct {
	Enabled    bool
	Matches    int     // phase length in matches
	Multiplier float64 // applied to baseK while the phase is active, >= 1.0
}

// Decay shrinks K as a player accumulates matches, stabilizing
// long-lived ratings. MinK floors the result.
type Decay struct {
	Enabled  bool
	HalfLife float64 // matches at which K has halved
	MinK     float64
}

// Boost multiplies both players' K when a trigger condition holds for
// a match (upset win, or a draw across a large gap).
type Boost struct {
	Enabled    bool
	Threshold  float64 // minimum pre-match rating gap to trigger
	Multiplier float64
}

// Heuristics bundles all convergence heuristics. The zero value
// disables everything, yielding plain fixed-K Elo.
type Heuristics struct {
	Provisional  Provisional
	Decay        Decay
	UpsetBoost   Boost
	DrawGapBoost Boost
}
