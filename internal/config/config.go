// Package config defines engine configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults; Load() layers file/env.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"time"

	"github.com/okian/duelo/internal/domain/matchmaking"
	"github.com/okian/duelo/internal/domain/rating"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// DataFile is where the rating snapshot is persisted.
	DataFile string `koanf:"data_file"`

	// MetricsAddr, when non-empty, serves Prometheus metrics on this
	// address.
	MetricsAddr string `koanf:"metrics_addr"`

	// BaseK is the base Elo K factor.
	BaseK float64 `koanf:"base_k"`

	// UndoDepth bounds the per-session undo stack.
	UndoDepth int `koanf:"undo_depth"`

	// SaveDebounceMS is the save coalescing window in milliseconds.
	SaveDebounceMS int `koanf:"save_debounce_ms"`

	// Provisional period: amplified K for an item's earliest matches.
	ProvisionalEnabled    bool    `koanf:"provisional_enabled"`
	ProvisionalMatches    int     `koanf:"provisional_matches"`
	ProvisionalMultiplier float64 `koanf:"provisional_multiplier"`

	// K decay for long-lived items.
	DecayEnabled  bool    `koanf:"decay_enabled"`
	DecayHalfLife float64 `koanf:"decay_half_life"`
	DecayMinK     float64 `koanf:"decay_min_k"`

	// Upset boost: amplified K when the underdog wins across a gap.
	UpsetBoostEnabled    bool    `koanf:"upset_boost_enabled"`
	UpsetBoostThreshold  float64 `koanf:"upset_boost_threshold"`
	UpsetBoostMultiplier float64 `koanf:"upset_boost_multiplier"`

	// Draw-gap boost: amplified K when far-apart items draw.
	DrawGapBoostEnabled    bool    `koanf:"draw_gap_boost_enabled"`
	DrawGapBoostThreshold  float64 `koanf:"draw_gap_boost_threshold"`
	DrawGapBoostMultiplier float64 `koanf:"draw_gap_boost_multiplier"`

	// Matchmaking policy.
	MatchmakingEnabled    bool    `koanf:"matchmaking_enabled"`
	LowMatchBiasEnabled   bool    `koanf:"low_match_bias_enabled"`
	LowMatchBiasExponent  float64 `koanf:"low_match_bias_exponent"`
	SimilarRatingsEnabled bool    `koanf:"similar_ratings_enabled"`
	SimilarSampleSize     int     `koanf:"similar_sample_size"`
	UpsetProbesEnabled    bool    `koanf:"upset_probes_enabled"`
	UpsetProbeProbability float64 `koanf:"upset_probe_probability"`
	UpsetProbeMinGap      float64 `koanf:"upset_probe_min_gap"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		DataFile:       "duelo.json",
		BaseK:          24,
		UndoDepth:      50,
		SaveDebounceMS: 300,

		ProvisionalEnabled:    true,
		ProvisionalMatches:    10,
		ProvisionalMultiplier: 2.0,

		DecayEnabled:  true,
		DecayHalfLife: 200,
		DecayMinK:     8,

		UpsetBoostEnabled:    true,
		UpsetBoostThreshold:  150,
		UpsetBoostMultiplier: 1.5,

		DrawGapBoostEnabled:    true,
		DrawGapBoostThreshold:  200,
		DrawGapBoostMultiplier: 1.5,

		MatchmakingEnabled:    true,
		LowMatchBiasEnabled:   true,
		LowMatchBiasExponent:  1.0,
		SimilarRatingsEnabled: true,
		SimilarSampleSize:     12,
		UpsetProbesEnabled:    true,
		UpsetProbeProbability: 0.1,
		UpsetProbeMinGap:      200,
	}
}

// Heuristics converts the flat config into the rating engine's
// heuristics structure.
func (c *Config) Heuristics() rating.Heuristics {
	return rating.Heuristics{
		Provisional: rating.Provisional{
			Enabled:    c.ProvisionalEnabled,
			Matches:    c.ProvisionalMatches,
			Multiplier: c.ProvisionalMultiplier,
		},
		Decay: rating.Decay{
			Enabled:  c.DecayEnabled,
			HalfLife: c.DecayHalfLife,
			MinK:     c.DecayMinK,
		},
		UpsetBoost: rating.Boost{
			Enabled:    c.UpsetBoostEnabled,
			Threshold:  c.UpsetBoostThreshold,
			Multiplier: c.UpsetBoostMultiplier,
		},
		DrawGapBoost: rating.Boost{
			Enabled:    c.DrawGapBoostEnabled,
			Threshold:  c.DrawGapBoostThreshold,
			Multiplier: c.DrawGapBoostMultiplier,
		},
	}
}

// Matchmaking converts the flat config into the selector's policy
// structure.
func (c *Config) Matchmaking() matchmaking.Config {
	return matchmaking.Config{
		Enabled: c.MatchmakingEnabled,
		LowMatchBias: matchmaking.LowMatchBias{
			Enabled:  c.LowMatchBiasEnabled,
			Exponent: c.LowMatchBiasExponent,
		},
		SimilarRatings: matchmaking.SimilarRatings{
			Enabled:    c.SimilarRatingsEnabled,
			SampleSize: c.SimilarSampleSize,
		},
		UpsetProbes: matchmaking.UpsetProbes{
			Enabled:     c.UpsetProbesEnabled,
			Probability: c.UpsetProbeProbability,
			MinGap:      c.UpsetProbeMinGap,
		},
	}
}

// SaveDebounce returns the save coalescing window as a duration.
func (c *Config) SaveDebounce() time.Duration {
	return time.Duration(c.SaveDebounceMS) * time.Millisecond
}
