// Package simulate drives a full rating session against a synthetic
// corpus: items with hidden true skills, a noisy judge, undo churn,
// and a restart to prove the snapshot round-trips. It is the
// end-to-end exerciser for the engine.
package simulate

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/okian/duelo/internal/adapters/identity"
	"github.com/okian/duelo/internal/adapters/persistence"
	"github.com/okian/duelo/internal/adapters/resolve"
	service "github.com/okian/duelo/internal/app"
	"github.com/okian/duelo/internal/domain/cohort"
	"github.com/okian/duelo/internal/domain/model"
	"github.com/okian/duelo/pkg/logger"
)

// Skill distribution constants for the synthetic corpus.
const (
	skillMean   = 1500.0
	skillSpread = 200.0

	logisticScale = 400.0
)

// Run executes the complete simulation.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting rating simulation",
		logger.Int("items", config.NumItems),
		logger.Int("rounds", config.NumRounds),
		logger.Any("seed", config.Seed),
		logger.String("dataFile", config.DataFile),
		logger.Float64("drawRate", config.DrawRate),
		logger.Float64("undoRate", config.UndoRate),
		logger.Float64("sharpness", config.Sharpness))

	rng := rand.New(rand.NewSource(config.Seed)) //nolint:gosec // reproducible simulation, not cryptography

	// Step 1: Build the corpus with hidden skills and stable ids.
	items, byID, err := buildCorpus(ctx, config, rng, stats)
	if err != nil {
		return fmt.Errorf("corpus construction failed: %w", err)
	}

	// Step 2: Start a session over the corpus.
	resolver := resolve.NewInMemoryResolver()
	for _, it := range items {
		resolver.Upsert(resolve.Item{ID: it.ID, Path: "/corpus/" + it.Name})
	}

	storage := persistence.NewFileStorage(config.DataFile)
	svc := newSession(storage, resolver, rng)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("session start failed: %w", err)
	}

	// Step 3: Play the rounds with a noisy judge and occasional undos.
	if err := playRounds(ctx, config, svc, byID, rng, stats); err != nil {
		return fmt.Errorf("round play failed: %w", err)
	}

	// Step 4: Stop the session so everything outstanding is flushed.
	if err := svc.Stop(ctx); err != nil {
		return fmt.Errorf("session stop failed: %w", err)
	}

	// Step 5: Restart on the same file and verify the state survived.
	reborn := newSession(storage, resolver, rng)
	if err := reborn.Start(ctx); err != nil {
		return fmt.Errorf("session restart failed: %w", err)
	}
	defer func() {
		if stopErr := reborn.Stop(context.Background()); stopErr != nil {
			logger.Get().Error(context.Background(), "failed to stop reloaded session", logger.Error(stopErr))
		}
	}()

	if err := verifyConvergence(ctx, config, reborn, items, stats); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "simulation completed successfully")
	return nil
}

// newSession wires a session with a fast debounce so the run exercises
// many debounced writes.
func newSession(storage persistence.Storage, resolver resolve.Resolver, rng *rand.Rand) *service.Service {
	return service.New(
		service.WithStorage(storage),
		service.WithResolver(resolver),
		service.WithRand(rng),
		service.WithSaveDebounce(20*time.Millisecond),
		service.WithLogger(logger.Get().Named("session")),
	)
}

// buildCorpus mints stable ids for the synthetic items and draws each
// one's hidden skill.
func buildCorpus(ctx context.Context, config *Config, rng *rand.Rand, stats *Stats) ([]item, map[string]item, error) {
	if config.NumItems < 2 {
		return nil, nil, fmt.Errorf("need at least 2 items, got %d", config.NumItems)
	}

	registry := identity.NewRegistry()
	items := make([]item, 0, config.NumItems)
	byID := make(map[string]item, config.NumItems)

	for i := 0; i < config.NumItems; i++ {
		name := fmt.Sprintf("item-%04d", i)
		it := item{
			Name:  name,
			ID:    registry.IdentityOf(ctx, name),
			Skill: skillMean + rng.NormFloat64()*skillSpread,
		}
		items = append(items, it)
		byID[it.ID] = it
	}

	stats.ItemsCreated = len(items)
	logger.Get().Info(ctx, "corpus built", logger.Int("items", len(items)))
	return items, byID, nil
}

// playRounds runs the compare loop: pick a pair, consult the noisy
// judge, record the outcome, and occasionally undo and replay.
func playRounds(ctx context.Context, config *Config, svc *service.Service, byID map[string]item, rng *rand.Rand, stats *Stats) error {
	def := cohort.Definition{Scope: cohort.AllScope{}, Label: "simulated corpus"}

	for round := 0; round < config.NumRounds; round++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		pair, ok, err := svc.NextPair(ctx, def)
		if err != nil {
			return err
		}
		if !ok {
			stats.EmptyRounds++
			continue
		}
		stats.RoundsPlayed++

		out := judge(config, byID[pair.First], byID[pair.Second], rng)
		if _, applied := svc.RecordJudgment(ctx, def.Key(), pair.First, pair.Second, out); !applied {
			continue
		}
		stats.JudgmentsApplied++
		if out == model.Draw {
			stats.Draws++
		}

		// Simulate a user second-guessing themselves: undo the judgment
		// and record a fresh one for the same pair.
		if config.UndoRate > 0 && rng.Float64() < config.UndoRate {
			if svc.Undo(ctx) {
				stats.Undos++
				redo := judge(config, byID[pair.First], byID[pair.Second], rng)
				if _, applied := svc.RecordJudgment(ctx, def.Key(), pair.First, pair.Second, redo); applied {
					stats.JudgmentsApplied++
					if redo == model.Draw {
						stats.Draws++
					}
				}
			}
		}

		if config.Verbose && round%100 == 0 {
			logger.Get().Debug(ctx, "round played",
				logger.Int("round", round),
				logger.String("pair", pair.Signature),
				logger.String("outcome", out.String()))
		}
	}

	logger.Get().Info(ctx, "rounds complete",
		logger.Int("played", stats.RoundsPlayed),
		logger.Int("judgments", stats.JudgmentsApplied),
		logger.Int("draws", stats.Draws),
		logger.Int("undos", stats.Undos))
	return nil
}

// judge decides an outcome from the items' hidden skills. The win
// probability follows a logistic curve on the skill gap; sharpness
// above 1 makes the judge more reliable than the gap alone implies.
func judge(config *Config, a, b item, rng *rand.Rand) model.Outcome {
	if config.DrawRate > 0 && rng.Float64() < config.DrawRate {
		return model.Draw
	}

	sharpness := config.Sharpness
	if sharpness <= 0 {
		sharpness = 1
	}
	pFirst := 1.0 / (1.0 + math.Pow(10, sharpness*(b.Skill-a.Skill)/logisticScale))
	if rng.Float64() < pFirst {
		return model.FirstWins
	}
	return model.SecondWins
}

// displayFinalStats prints the final simulation statistics.
func displayFinalStats(stats *Stats) {
	var judgmentsPerSecond float64
	if stats.Duration > 0 {
		judgmentsPerSecond = float64(stats.JudgmentsApplied) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("itemsCreated", stats.ItemsCreated),
		logger.Int("roundsPlayed", stats.RoundsPlayed),
		logger.Int("judgmentsApplied", stats.JudgmentsApplied),
		logger.Int("draws", stats.Draws),
		logger.Int("undos", stats.Undos),
		logger.Int("emptyRounds", stats.EmptyRounds),
		logger.Float64("kendallTau", stats.KendallTau),
		logger.Float64("topOverlap", stats.TopOverlap),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("judgmentsPerSecond", judgmentsPerSecond))
}
