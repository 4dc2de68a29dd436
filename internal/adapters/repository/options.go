package repository

import "github.com/okian/duelo/internal/domain/rating"

// Option applies a configuration option to the EloStore.
type Option func(*EloStore)

// WithBaseK sets the base K factor used for every rating update.
func WithBaseK(k float64) Option {
	return func(s *EloStore) {
		if k > 0 {
			s.baseK = k
		}
	}
}

// WithHeuristics sets the convergence heuristics applied per match.
func WithHeuristics(h rating.Heuristics) Option {
	return func(s *EloStore) {
		s.heuristics = h
	}
}
