package service

import (
	"math/rand"
	"time"

	"github.com/okian/duelo/internal/adapters/persistence"
	"github.com/okian/duelo/internal/adapters/resolve"
	"github.com/okian/duelo/internal/domain/matchmaking"
	"github.com/okian/duelo/internal/domain/rating"
	"github.com/okian/duelo/pkg/logger"
)

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the session logger. Defaults to a no-op logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStorage sets the snapshot storage backend. Required before Start.
func WithStorage(st persistence.Storage) Option {
	return func(s *Service) {
		s.storage = st
	}
}

// WithResolver sets the cohort membership resolver. Defaults to an
// empty in-memory resolver.
func WithResolver(r resolve.Resolver) Option {
	return func(s *Service) {
		if r != nil {
			s.resolver = r
		}
	}
}

// WithBaseK sets the base K-factor for rating updates.
func WithBaseK(k float64) Option {
	return func(s *Service) {
		if k > 0 {
			s.baseK = k
		}
	}
}

// WithHeuristics sets the rating heuristics. The zero value means
// plain Elo.
func WithHeuristics(h rating.Heuristics) Option {
	return func(s *Service) {
		s.heuristics = h
	}
}

// WithMatchmaking sets the pair-selection policy.
func WithMatchmaking(cfg matchmaking.Config) Option {
	return func(s *Service) {
		s.mmConfig = cfg
	}
}

// WithSaveDebounce sets the quiet window before a scheduled save is
// written.
func WithSaveDebounce(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.debounce = d
		}
	}
}

// WithUndoDepth bounds how many comparisons stay reversible.
func WithUndoDepth(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.undoDepth = n
		}
	}
}

// WithRand sets the randomness source used for matchmaking, for
// reproducible runs.
func WithRand(rng *rand.Rand) Option {
	return func(s *Service) {
		if rng != nil {
			s.rng = rng
		}
	}
}
