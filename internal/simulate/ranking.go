package simulate

import (
	"context"
	"fmt"
	"sort"

	service "github.com/okian/duelo/internal/app"
	"github.com/okian/duelo/internal/domain/cohort"
	"github.com/okian/duelo/pkg/logger"
)

// verifyConvergence checks the reloaded session against the hidden
// skills: every item survived the restart, and the learned order
// agrees with the true order well above chance.
func verifyConvergence(ctx context.Context, config *Config, svc *service.Service, items []item, stats *Stats) error {
	key := cohort.AllScope{}.CanonicalKey()
	standings := svc.Standings(ctx, key)

	if len(standings) == 0 {
		return fmt.Errorf("no standings after reload")
	}
	logger.Get().Info(ctx, "standings reloaded", logger.Int("entries", len(standings)))

	matches := 0
	for _, entry := range standings {
		matches += entry.Matches
	}
	// Every judgment touches two records.
	if matches != 2*stats.JudgmentsApplied-2*stats.Undos {
		logger.Get().Warn(ctx, "match count does not reconcile with judgments",
			logger.Int("recorded", matches),
			logger.Int("expected", 2*stats.JudgmentsApplied-2*stats.Undos))
	}

	// True order, best first, from the hidden skills.
	trueOrder := make([]string, len(items))
	sorted := make([]item, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Skill > sorted[j].Skill })
	for i, it := range sorted {
		trueOrder[i] = it.ID
	}

	learnedOrder := make([]string, 0, len(standings))
	for _, entry := range standings {
		learnedOrder = append(learnedOrder, entry.ID)
	}

	stats.KendallTau = kendallTau(trueOrder, learnedOrder)
	stats.TopOverlap = topOverlap(trueOrder, learnedOrder, config.TopN)

	displayTopEntries(ctx, svc, key, sorted, config)

	logger.Get().Info(ctx, "convergence measured",
		logger.Float64("kendallTau", stats.KendallTau),
		logger.Float64("topOverlap", stats.TopOverlap))
	return nil
}

// kendallTau computes rank correlation between two orderings of the
// same ids: 1 is perfect agreement, 0 is chance, -1 is reversal.
func kendallTau(orderA, orderB []string) float64 {
	if len(orderA) < 2 || len(orderA) != len(orderB) {
		return 0
	}

	posB := make(map[string]int, len(orderB))
	for i, id := range orderB {
		posB[id] = i
	}

	concordant, discordant := 0, 0
	for i := 0; i < len(orderA); i++ {
		for j := i + 1; j < len(orderA); j++ {
			pi, okI := posB[orderA[i]]
			pj, okJ := posB[orderA[j]]
			if !okI || !okJ {
				continue
			}
			if pi < pj {
				concordant++
			} else {
				discordant++
			}
		}
	}

	total := concordant + discordant
	if total == 0 {
		return 0
	}
	return float64(concordant-discordant) / float64(total)
}

// topOverlap measures what share of the true top-N the learned top-N
// recovered.
func topOverlap(trueOrder, learnedOrder []string, n int) float64 {
	if n <= 0 || n > len(trueOrder) {
		n = len(trueOrder)
	}
	if n > len(learnedOrder) {
		n = len(learnedOrder)
	}
	if n == 0 {
		return 0
	}

	trueTop := make(map[string]struct{}, n)
	for _, id := range trueOrder[:n] {
		trueTop[id] = struct{}{}
	}

	hits := 0
	for _, id := range learnedOrder[:n] {
		if _, ok := trueTop[id]; ok {
			hits++
		}
	}
	return float64(hits) / float64(n)
}

// displayTopEntries logs the learned top entries next to their hidden
// skills.
func displayTopEntries(ctx context.Context, svc *service.Service, key string, sortedBySkill []item, config *Config) {
	n := config.TopN
	standings := svc.Standings(ctx, key)
	if n <= 0 || n > len(standings) {
		n = len(standings)
	}

	skillOf := make(map[string]float64, len(sortedBySkill))
	for _, it := range sortedBySkill {
		skillOf[it.ID] = it.Skill
	}

	for i := 0; i < n; i++ {
		entry := standings[i]
		logger.Get().Info(ctx, "top entry",
			logger.Int("rank", entry.Rank),
			logger.String("id", entry.ID),
			logger.Float64("rating", entry.Rating),
			logger.Float64("trueSkill", skillOf[entry.ID]),
			logger.Int("matches", entry.Matches))
	}
}
