// Package repository owns the durable rating model: per-cohort player
// records, cohort definitions, and the last-used cohort pointer.
package repository

import (
	"context"
	"encoding/json"

	"github.com/okian/duelo/internal/domain/cohort"
	"github.com/okian/duelo/internal/domain/model"
)

// CohortData maps item id to its player record within one cohort.
// Distinct cohorts are fully independent rating universes.
type CohortData map[string]*model.PlayerRecord

// Entry is one row of a cohort's standings.
type Entry struct {
	Rank    int
	ID      string
	Rating  float64
	Matches int
	Wins    int
}

// Store provides read/write access to the rating state. All rating
// mutations funnel through ApplyMatch; Revert is its exact inverse.
//
// The store assumes single-writer access per cohort at any instant:
// ApplyMatch and Revert on the same cohort must be serialized by the
// caller.
type Store interface {
	// EnsurePlayer returns the existing record for the item or creates
	// one with defaults. Idempotent.
	EnsurePlayer(ctx context.Context, cohortKey, id string) model.PlayerRecord

	// Player returns a copy of the record, false when absent.
	Player(ctx context.Context, cohortKey, id string) (model.PlayerRecord, bool)

	// ApplyMatch applies one comparison outcome to both players and
	// returns the winner id ("" on draw) plus the frame that reverses
	// it. ok is false when the ids are empty or identical; no state is
	// touched in that case.
	ApplyMatch(ctx context.Context, cohortKey, idA, idB string, out model.Outcome) (model.MatchResult, bool)

	// Revert restores both players to the frame's captured values.
	// Returns false, without partial mutation, when the cohort or
	// either record is missing.
	Revert(ctx context.Context, frame model.UndoFrame) bool

	// Rank returns item id -> standard competition rank ("1224") for
	// the cohort, descending by rating. Empty map for unknown cohorts.
	Rank(ctx context.Context, cohortKey string) map[string]int

	// Standings returns the cohort's entries best-first with ranks
	// assigned, ties sharing a rank.
	Standings(ctx context.Context, cohortKey string) []Entry

	// StatsFor returns a live lookup of (rating, matches) for items in
	// the cohort, suitable for matchmaking. Unknown items report the
	// default rating and zero matches.
	StatsFor(cohortKey string) func(id string) (float64, int)

	// Count returns the number of players tracked in the cohort.
	Count(ctx context.Context, cohortKey string) int

	// UpsertDefinition creates or updates the definition stored under
	// its canonical key, bumping its timestamp.
	UpsertDefinition(ctx context.Context, def cohort.Definition)

	// Definition returns the stored definition for the key.
	Definition(ctx context.Context, key string) (cohort.Definition, bool)

	// Definitions returns a copy of all stored definitions by key.
	Definitions(ctx context.Context) map[string]cohort.Definition

	// RenameCohortKey migrates data and definition from oldKey to the
	// new definition's key, merging conservatively when data already
	// exists under the new key.
	RenameCohortKey(ctx context.Context, oldKey string, def cohort.Definition)

	// DeleteCohort removes a cohort's data and definition. Explicit
	// user action only; returns false when nothing existed.
	DeleteCohort(ctx context.Context, key string) bool

	// LastUsedCohortKey and SetLastUsedCohortKey track the cohort the
	// user compared in most recently.
	LastUsedCohortKey(ctx context.Context) string
	SetLastUsedCohortKey(ctx context.Context, key string)

	// Settings round-trips the opaque settings blob persisted next to
	// the store. The store never interprets it.
	Settings(ctx context.Context) json.RawMessage
	SetSettings(ctx context.Context, settings json.RawMessage)

	// MarshalSnapshot serializes the whole aggregate at one consistent
	// point in time.
	MarshalSnapshot(ctx context.Context) ([]byte, error)

	// LoadSnapshot replaces the aggregate with the parsed snapshot.
	// On missing (ErrMissingSnapshot) or unparseable
	// (ErrMalformedSnapshot) input the store resets to empty and the
	// caller should persist a fresh baseline.
	LoadSnapshot(ctx context.Context, data []byte) error
}
