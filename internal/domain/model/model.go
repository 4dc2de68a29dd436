// Package model contains domain models passed between layers.
package model

import "time"

// DefaultRating is the rating assigned to a player on first comparison.
const DefaultRating = 1500.0

// Outcome is the result of a single pairwise comparison.
type Outcome int

// Comparison outcomes. Draw counts toward neither side's wins.
const (
	FirstWins Outcome = iota
	SecondWins
	Draw
)

// String returns the persisted name of the outcome.
func (o Outcome) String() string {
	switch o {
	case FirstWins:
		return "first"
	case SecondWins:
		return "second"
	case Draw:
		return "draw"
	default:
		return "unknown"
	}
}

// PlayerRecord holds the persistent skill state of one item within one
// cohort. Field names are part of the saved-data format.
//
// Invariant: Wins <= Matches.
type PlayerRecord struct {
	Rating  float64 `json:"rating"`
	Matches int     `json:"matches"`
	Wins    int     `json:"wins"`
}

// NewPlayerRecord returns a fresh record at the default rating.
func NewPlayerRecord() *PlayerRecord {
	return &PlayerRecord{Rating: DefaultRating}
}

// PlayerSnapshot captures one player's full state at a point in time.
// Revert restores these exact values, so undo is drift-free regardless
// of how nonlinear the rating update was.
type PlayerSnapshot struct {
	ID      string
	Rating  float64
	Matches int
	Wins    int
}

// UndoFrame reverses exactly one comparison. Frames live in a
// caller-owned LIFO stack; popping a frame discards it permanently.
type UndoFrame struct {
	CohortKey string
	A         PlayerSnapshot
	B         PlayerSnapshot
	Outcome   Outcome
	At        time.Time
}

// MatchResult is returned by the store after applying a comparison.
// WinnerID is empty on a draw.
type MatchResult struct {
	WinnerID string
	Frame    UndoFrame
}

// Pair is a selected matchup. First/Second ordering is randomized for
// presentation neutrality; Signature is order-independent and used for
// repeat avoidance.
type Pair struct {
	First     string
	Second    string
	Signature string
}
