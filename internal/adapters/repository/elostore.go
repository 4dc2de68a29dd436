package repository

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/okian/duelo/internal/domain/cohort"
	"github.com/okian/duelo/internal/domain/model"
	"github.com/okian/duelo/internal/domain/rating"
	"github.com/okian/duelo/pkg/metrics"
)

// Current persisted format versions.
const (
	snapshotVersion = 1
	storeVersion    = 1
)

// EloStore is the in-memory Store implementation backing the engine.
// An RWMutex guards the aggregate: snapshot marshaling holds the read
// lock so every persisted write reflects one consistent point in time.
type EloStore struct {
	mu sync.RWMutex

	cohorts     map[string]CohortData
	cohortDefs  map[string]cohort.Definition
	lastUsedKey string
	settings    json.RawMessage

	baseK      float64
	heuristics rating.Heuristics

	// now is swappable for deterministic timestamps in tests.
	now func() time.Time
}

// NewEloStore creates an empty store with configuration options.
func NewEloStore(opts ...Option) *EloStore {
	s := &EloStore{
		cohorts:    make(map[string]CohortData),
		cohortDefs: make(map[string]cohort.Definition),
		baseK:      rating.DefaultBaseK,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// EnsurePlayer returns the existing record or creates one lazily.
func (s *EloStore) EnsurePlayer(ctx context.Context, cohortKey, id string) model.PlayerRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.ensureLocked(cohortKey, id)
	s.publishGaugesLocked()
	return *rec
}

// ensureLocked returns the live record, creating cohort and record as
// needed. Caller holds the write lock.
func (s *EloStore) ensureLocked(cohortKey, id string) *model.PlayerRecord {
	data, ok := s.cohorts[cohortKey]
	if !ok {
		data = make(CohortData)
		s.cohorts[cohortKey] = data
	}
	rec, ok := data[id]
	if !ok {
		rec = model.NewPlayerRecord()
		data[id] = rec
	}
	return rec
}

// Player returns a copy of the record, false when absent.
func (s *EloStore) Player(ctx context.Context, cohortKey, id string) (model.PlayerRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.cohorts[cohortKey][id]
	if !ok {
		return model.PlayerRecord{}, false
	}
	return *rec, true
}

// ApplyMatch is the single mutation entry point for ratings. It
// snapshots both players before the update so the returned frame
// restores them exactly, no matter how nonlinear the effective K was.
func (s *EloStore) ApplyMatch(ctx context.Context, cohortKey, idA, idB string, out model.Outcome) (model.MatchResult, bool) {
	if idA == "" || idB == "" || idA == idB {
		return model.MatchResult{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	recA := s.ensureLocked(cohortKey, idA)
	recB := s.ensureLocked(cohortKey, idB)

	frame := model.UndoFrame{
		CohortKey: cohortKey,
		A:         model.PlayerSnapshot{ID: idA, Rating: recA.Rating, Matches: recA.Matches, Wins: recA.Wins},
		B:         model.PlayerSnapshot{ID: idB, Rating: recB.Rating, Matches: recB.Matches, Wins: recB.Wins},
		Outcome:   out,
		At:        s.now(),
	}

	newA, newB := rating.UpdateRatings(recA.Rating, recB.Rating, recA.Matches, recB.Matches, out, s.baseK, s.heuristics)
	recA.Rating = newA
	recB.Rating = newB
	recA.Matches++
	recB.Matches++

	winner := ""
	switch out {
	case model.FirstWins:
		recA.Wins++
		winner = idA
	case model.SecondWins:
		recB.Wins++
		winner = idB
	case model.Draw:
		metrics.RecordDraw()
	}

	metrics.RecordMatchApplied()
	s.publishGaugesLocked()

	return model.MatchResult{WinnerID: winner, Frame: frame}, true
}

// Revert restores both players to the frame's captured values. The
// check-then-write is all-or-nothing: either both records exist and
// both are overwritten, or nothing changes.
func (s *EloStore) Revert(ctx context.Context, frame model.UndoFrame) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.cohorts[frame.CohortKey]
	if !ok {
		metrics.RecordUndoFailure()
		return false
	}
	recA, okA := data[frame.A.ID]
	recB, okB := data[frame.B.ID]
	if !okA || !okB {
		metrics.RecordUndoFailure()
		return false
	}

	recA.Rating, recA.Matches, recA.Wins = frame.A.Rating, frame.A.Matches, frame.A.Wins
	recB.Rating, recB.Matches, recB.Wins = frame.B.Rating, frame.B.Matches, frame.B.Wins

	metrics.RecordUndo()
	return true
}

// Rank computes standard competition ranks ("1224"): equal ratings
// share a rank, and the next distinct rating's rank counts every
// player strictly above it.
func (s *EloStore) Rank(ctx context.Context, cohortKey string) map[string]int {
	entries := s.Standings(ctx, cohortKey)
	ranks := make(map[string]int, len(entries))
	for _, e := range entries {
		ranks[e.ID] = e.Rank
	}
	return ranks
}

// Standings returns the cohort's entries best-first with competition
// ranks assigned. Ties are ordered by id for deterministic output.
func (s *EloStore) Standings(ctx context.Context, cohortKey string) []Entry {
	s.mu.RLock()
	data := s.cohorts[cohortKey]
	entries := make([]Entry, 0, len(data))
	for id, rec := range data {
		entries = append(entries, Entry{ID: id, Rating: rec.Rating, Matches: rec.Matches, Wins: rec.Wins})
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Rating != entries[j].Rating {
			return entries[i].Rating > entries[j].Rating
		}
		return entries[i].ID < entries[j].ID
	})

	for i := range entries {
		if i > 0 && entries[i].Rating == entries[i-1].Rating {
			entries[i].Rank = entries[i-1].Rank
			continue
		}
		entries[i].Rank = i + 1
	}
	return entries
}

// StatsFor returns a live (rating, matches) lookup for matchmaking.
func (s *EloStore) StatsFor(cohortKey string) func(id string) (float64, int) {
	return func(id string) (float64, int) {
		s.mu.RLock()
		defer s.mu.RUnlock()

		rec, ok := s.cohorts[cohortKey][id]
		if !ok {
			return model.DefaultRating, 0
		}
		return rec.Rating, rec.Matches
	}
}

// Count returns the number of players tracked in the cohort.
func (s *EloStore) Count(ctx context.Context, cohortKey string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cohorts[cohortKey])
}

// UpsertDefinition stores the definition under its canonical key with
// a fresh timestamp.
func (s *EloStore) UpsertDefinition(ctx context.Context, def cohort.Definition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertDefinitionLocked(def)
}

func (s *EloStore) upsertDefinitionLocked(def cohort.Definition) {
	def.UpdatedAt = s.now()
	s.cohortDefs[def.Key()] = def
}

// Definition returns the stored definition for the key.
func (s *EloStore) Definition(ctx context.Context, key string) (cohort.Definition, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	def, ok := s.cohortDefs[key]
	return def, ok
}

// Definitions returns a copy of all stored definitions by key.
func (s *EloStore) Definitions(ctx context.Context) map[string]cohort.Definition {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]cohort.Definition, len(s.cohortDefs))
	for k, v := range s.cohortDefs {
		out[k] = v
	}
	return out
}

// RenameCohortKey migrates a cohort whose membership parameters
// changed while its identity persists. Same key: definition upsert
// only. Different key with no data at the destination: move wholesale.
// Data under both keys: merge conservatively, never overwriting a
// player already present under the new key. The old key's data and
// definition are deleted afterwards, and the last-used pointer follows
// the rename.
func (s *EloStore) RenameCohortKey(ctx context.Context, oldKey string, def cohort.Definition) {
	s.mu.Lock()
	defer s.mu.Unlock()

	newKey := def.Key()
	if newKey == oldKey {
		s.upsertDefinitionLocked(def)
		return
	}

	oldData, hasOld := s.cohorts[oldKey]
	if hasOld {
		newData, hasNew := s.cohorts[newKey]
		if !hasNew {
			s.cohorts[newKey] = oldData
		} else {
			for id, rec := range oldData {
				if _, exists := newData[id]; !exists {
					newData[id] = rec
				}
			}
		}
		delete(s.cohorts, oldKey)
	}
	delete(s.cohortDefs, oldKey)
	s.upsertDefinitionLocked(def)

	if s.lastUsedKey == oldKey {
		s.lastUsedKey = newKey
	}
	s.publishGaugesLocked()
}

// DeleteCohort removes a cohort's data and definition.
func (s *EloStore) DeleteCohort(ctx context.Context, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, hadData := s.cohorts[key]
	_, hadDef := s.cohortDefs[key]
	delete(s.cohorts, key)
	delete(s.cohortDefs, key)
	if s.lastUsedKey == key {
		s.lastUsedKey = ""
	}
	s.publishGaugesLocked()
	return hadData || hadDef
}

// LastUsedCohortKey returns the most recently compared cohort key.
func (s *EloStore) LastUsedCohortKey(ctx context.Context) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUsedKey
}

// SetLastUsedCohortKey records the most recently compared cohort key.
func (s *EloStore) SetLastUsedCohortKey(ctx context.Context, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsedKey = key
}

// Settings returns the opaque settings blob.
func (s *EloStore) Settings(ctx context.Context) json.RawMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// SetSettings replaces the opaque settings blob.
func (s *EloStore) SetSettings(ctx context.Context, settings json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
}

// publishGaugesLocked refreshes the store-shape gauges. Caller holds
// at least the read lock.
func (s *EloStore) publishGaugesLocked() {
	players := 0
	for _, data := range s.cohorts {
		players += len(data)
	}
	metrics.UpdatePlayersTotal(players)
	metrics.UpdateCohortsTotal(len(s.cohorts))
}
