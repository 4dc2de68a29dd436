package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/okian/duelo/internal/domain/cohort"
	"github.com/okian/duelo/internal/domain/model"
	"github.com/okian/duelo/pkg/metrics"
)

// snapshotJSON is the persisted envelope. Field names are the
// interoperability surface for existing saved data and must not
// change.
type snapshotJSON struct {
	Version  int             `json:"version"`
	Settings json.RawMessage `json:"settings,omitempty"`
	Store    storeJSON       `json:"store"`
}

type storeJSON struct {
	Version           int                          `json:"version"`
	Cohorts           map[string]CohortData        `json:"cohorts"`
	CohortDefs        map[string]cohort.Definition `json:"cohortDefs"`
	LastUsedCohortKey string                       `json:"lastUsedCohortKey"`
}

// MarshalSnapshot serializes the whole aggregate under the read lock,
// so the bytes reflect one consistent point in time even while
// mutations continue afterwards.
func (s *EloStore) MarshalSnapshot(ctx context.Context) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := snapshotJSON{
		Version:  snapshotVersion,
		Settings: s.settings,
		Store: storeJSON{
			Version:           storeVersion,
			Cohorts:           s.cohorts,
			CohortDefs:        s.cohortDefs,
			LastUsedCohortKey: s.lastUsedKey,
		},
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncodeSnapshot, err)
	}
	return data, nil
}

// LoadSnapshot replaces the aggregate with the parsed snapshot. A
// missing or malformed snapshot resets the store to empty and reports
// which of the two happened; either way the caller should persist a
// fresh baseline right away.
func (s *EloStore) LoadSnapshot(ctx context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(data) == 0 {
		s.resetLocked()
		return ErrMissingSnapshot
	}

	var snap snapshotJSON
	if err := json.Unmarshal(data, &snap); err != nil {
		s.resetLocked()
		metrics.RecordMalformedLoad()
		return fmt.Errorf("%w: %w", ErrMalformedSnapshot, err)
	}

	s.settings = snap.Settings
	s.lastUsedKey = snap.Store.LastUsedCohortKey
	s.cohorts = make(map[string]CohortData, len(snap.Store.Cohorts))
	for key, cohortData := range snap.Store.Cohorts {
		clean := make(CohortData, len(cohortData))
		for id, rec := range cohortData {
			if rec == nil {
				rec = model.NewPlayerRecord()
			}
			clean[id] = rec
		}
		s.cohorts[key] = clean
	}
	s.cohortDefs = snap.Store.CohortDefs
	if s.cohortDefs == nil {
		s.cohortDefs = make(map[string]cohort.Definition)
	}

	s.publishGaugesLocked()
	return nil
}

// resetLocked replaces all state with an empty store.
func (s *EloStore) resetLocked() {
	s.cohorts = make(map[string]CohortData)
	s.cohortDefs = make(map[string]cohort.Definition)
	s.lastUsedKey = ""
	s.settings = nil
	s.publishGaugesLocked()
}
