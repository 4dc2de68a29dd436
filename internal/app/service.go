// Package service provides the rating session: the one root object
// that owns the store, the matchmaking selector, the persistence
// gateway, and the undo stack, and wires them into the
// resolve -> pick -> judge -> persist loop.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/okian/duelo/internal/adapters/persistence"
	"github.com/okian/duelo/internal/adapters/repository"
	"github.com/okian/duelo/internal/adapters/resolve"
	"github.com/okian/duelo/internal/domain/cohort"
	"github.com/okian/duelo/internal/domain/matchmaking"
	"github.com/okian/duelo/internal/domain/model"
	"github.com/okian/duelo/internal/domain/rating"
	"github.com/okian/duelo/pkg/logger"
	"github.com/okian/duelo/pkg/metrics"
)

// Default session configuration constants.
const (
	defaultUndoDepth = 50
)

// Service is the rating session. All state lives here or below; there
// are no package-level singletons. A Service serializes judgment and
// undo application with its own mutex, satisfying the store's
// single-writer-per-cohort requirement.
type Service struct {
	mu sync.Mutex

	store    repository.Store
	gateway  *persistence.Gateway
	selector *matchmaking.Selector
	resolver resolve.Resolver
	storage  persistence.Storage

	// Per-session undo stack, strictly LIFO, bounded. Popping a frame
	// discards it permanently; there is no redo.
	undo      []model.UndoFrame
	undoDepth int

	// Last pair signature per cohort, for repeat avoidance.
	lastPair map[string]string

	baseK      float64
	heuristics rating.Heuristics
	mmConfig   matchmaking.Config
	debounce   time.Duration
	rng        *rand.Rand

	started bool
	logger  logger.Logger
}

// sessionSettings is the engine configuration persisted alongside the
// store so a host can display what produced the ratings.
type sessionSettings struct {
	BaseK       float64            `json:"baseK"`
	Heuristics  rating.Heuristics  `json:"heuristics"`
	Matchmaking matchmaking.Config `json:"matchmaking"`
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		undoDepth: defaultUndoDepth,
		lastPair:  make(map[string]string),
		baseK:     rating.DefaultBaseK,
		mmConfig:  matchmaking.DefaultConfig(),
		logger:    logger.Nop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.resolver == nil {
		s.resolver = resolve.NewInMemoryResolver()
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // matchmaking variety, not cryptography
	}

	s.store = repository.NewEloStore(
		repository.WithBaseK(s.baseK),
		repository.WithHeuristics(s.heuristics),
	)
	s.selector = matchmaking.New(
		matchmaking.WithConfig(s.mmConfig),
		matchmaking.WithRand(s.rng),
	)

	return s
}

// Start loads the persisted snapshot and brings up the persistence
// gateway. A missing or malformed snapshot yields an empty store and
// an immediate fresh baseline write.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrAlreadyStarted
	}
	if s.storage == nil {
		return ErrNoStorage
	}

	gwOpts := []persistence.Option{persistence.WithLogger(s.logger.Named("persistence"))}
	if s.debounce > 0 {
		gwOpts = append(gwOpts, persistence.WithDebounce(s.debounce))
	}
	s.gateway = persistence.New(s.storage, s.store.MarshalSnapshot, gwOpts...)

	data, err := s.storage.Load(ctx)
	if err != nil {
		// Unreadable is handled like absent: the session must come up.
		s.logger.Warn(ctx, "failed to read snapshot; starting empty", logger.Error(err))
		data = nil
	}

	baseline := false
	if loadErr := s.store.LoadSnapshot(ctx, data); loadErr != nil {
		baseline = true
		s.logger.Warn(ctx, "no usable snapshot; persisting fresh baseline", logger.Error(loadErr))
	}
	settingsChanged := s.persistSettingsLocked(ctx)

	s.started = true

	switch {
	case baseline:
		if flushErr := s.gateway.FlushNow(ctx); flushErr != nil {
			s.logger.Error(ctx, "baseline write failed", logger.Error(flushErr))
		}
	case settingsChanged:
		// A reconfigured session must reach disk even if the user never
		// judges anything.
		s.gateway.ScheduleSave()
	}

	s.logger.Info(ctx, "rating session started",
		logger.Float64("base_k", s.baseK),
		logger.Int("undo_depth", s.undoDepth),
		logger.String("last_cohort", s.store.LastUsedCohortKey(ctx)))
	return nil
}

// persistSettingsLocked refreshes the settings blob stored next to the
// rating data, preserving it if it already matches. It reports whether
// the stored blob actually changed.
func (s *Service) persistSettingsLocked(ctx context.Context) bool {
	settings, err := json.Marshal(sessionSettings{
		BaseK:       s.baseK,
		Heuristics:  s.heuristics,
		Matchmaking: s.mmConfig,
	})
	if err != nil {
		s.logger.Warn(ctx, "failed to encode session settings", logger.Error(err))
		return false
	}
	if bytes.Equal(settings, s.store.Settings(ctx)) {
		return false
	}
	s.store.SetSettings(ctx, settings)
	return true
}

// NextPair resolves the cohort's current members and selects the next
// comparison pair. Returns ok=false when fewer than two members exist.
func (s *Service) NextPair(ctx context.Context, def cohort.Definition) (model.Pair, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return model.Pair{}, false, ErrNotStarted
	}

	key := def.Key()
	s.ensureDefinitionLocked(ctx, def)
	s.store.SetLastUsedCohortKey(ctx, key)

	members, err := s.resolver.Resolve(ctx, def)
	if err != nil {
		return model.Pair{}, false, err
	}

	pair, ok := s.selector.PickNextPair(members, s.store.StatsFor(key), s.lastPair[key])
	if !ok {
		metrics.RecordNoPairRound()
		s.logger.Debug(ctx, "not enough members to pair", logger.String("cohort", key), logger.Int("members", len(members)))
		return model.Pair{}, false, nil
	}

	s.lastPair[key] = pair.Signature
	metrics.RecordPairPicked()
	return pair, true, nil
}

// ensureDefinitionLocked upserts the definition on first use or when
// its label or overrides changed.
func (s *Service) ensureDefinitionLocked(ctx context.Context, def cohort.Definition) {
	existing, ok := s.store.Definition(ctx, def.Key())
	if ok && existing.Label == def.Label && bytes.Equal(existing.Overrides, def.Overrides) {
		return
	}
	s.store.UpsertDefinition(ctx, def)
}

// RecordJudgment applies a human judgment to the pair and schedules a
// save. Returns the winner id ("" on draw) and whether anything was
// applied.
func (s *Service) RecordJudgment(ctx context.Context, cohortKey, first, second string, out model.Outcome) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return "", false
	}

	res, ok := s.store.ApplyMatch(ctx, cohortKey, first, second, out)
	if !ok {
		return "", false
	}

	s.undo = append(s.undo, res.Frame)
	if len(s.undo) > s.undoDepth {
		// Oldest frames fall off; only the most recent N comparisons
		// stay reversible.
		s.undo = s.undo[len(s.undo)-s.undoDepth:]
	}

	s.store.SetLastUsedCohortKey(ctx, cohortKey)
	s.gateway.ScheduleSave()

	s.logger.Debug(ctx, "judgment recorded",
		logger.String("cohort", cohortKey),
		logger.String("outcome", out.String()),
		logger.String("winner", res.WinnerID))
	return res.WinnerID, true
}

// Undo reverses the most recent comparison. The frame is consumed
// either way; when the referenced records no longer exist the undo
// reports failure and the session moves on.
func (s *Service) Undo(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started || len(s.undo) == 0 {
		return false
	}

	frame := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]

	if !s.store.Revert(ctx, frame) {
		s.logger.Warn(ctx, "undo found no matching records", logger.String("cohort", frame.CohortKey))
		return false
	}

	s.gateway.ScheduleSave()
	s.logger.Debug(ctx, "comparison undone", logger.String("cohort", frame.CohortKey))
	return true
}

// PendingUndos returns how many comparisons are currently reversible.
func (s *Service) PendingUndos() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.undo)
}

// Rank returns item id -> competition rank for the cohort.
func (s *Service) Rank(ctx context.Context, cohortKey string) map[string]int {
	return s.store.Rank(ctx, cohortKey)
}

// Standings returns the cohort's ranked entries, best first.
func (s *Service) Standings(ctx context.Context, cohortKey string) []repository.Entry {
	return s.store.Standings(ctx, cohortKey)
}

// Player returns a copy of one player's record.
func (s *Service) Player(ctx context.Context, cohortKey, id string) (model.PlayerRecord, bool) {
	return s.store.Player(ctx, cohortKey, id)
}

// Definitions lists the known cohort definitions by key.
func (s *Service) Definitions(ctx context.Context) map[string]cohort.Definition {
	return s.store.Definitions(ctx)
}

// LastUsedCohortKey returns the cohort the user compared in most
// recently.
func (s *Service) LastUsedCohortKey(ctx context.Context) string {
	return s.store.LastUsedCohortKey(ctx)
}

// RenameCohort migrates a cohort to a changed definition, keeping its
// rating data, and schedules a save.
func (s *Service) RenameCohort(ctx context.Context, oldKey string, def cohort.Definition) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.store.RenameCohortKey(ctx, oldKey, def)
	if sig, ok := s.lastPair[oldKey]; ok && oldKey != def.Key() {
		delete(s.lastPair, oldKey)
		s.lastPair[def.Key()] = sig
	}
	s.gateway.ScheduleSave()
}

// DeleteCohort removes a cohort on explicit user request and schedules
// a save.
func (s *Service) DeleteCohort(ctx context.Context, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return false
	}
	removed := s.store.DeleteCohort(ctx, key)
	if removed {
		delete(s.lastPair, key)
		s.gateway.ScheduleSave()
	}
	return removed
}

// Stop flushes outstanding writes and shuts the session down.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return ErrNotStarted
	}
	s.started = false

	err := s.gateway.Close(ctx)
	s.logger.Info(ctx, "rating session stopped")
	return err
}
