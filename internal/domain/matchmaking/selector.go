// Package matchmaking chooses which two items are compared next.
//
// Selection runs in two steps: a weighted anchor pick biased toward
// under-matched items, then an opponent pick from a bounded random
// sample favoring similar ratings, with occasional upset probes. An
// anti-repeat guard keeps the same pair from showing up twice in a
// row. All randomness flows through one injectable *rand.Rand so every
// decision is reproducible under a seeded source.
package matchmaking

import (
	"math"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/okian/duelo/internal/domain/model"
)

// maxRepeatRetries bounds the anti-repeat loop; after that the last
// drawn pair is accepted even if it repeats.
const maxRepeatRetries = 10

// pairSeparator joins the two ids of a pair signature.
const pairSeparator = "|"

// StatsFunc supplies the live rating and match count for an item. The
// selector never caches lookups; the caller owns the state.
type StatsFunc func(id string) (rating float64, matches int)

// Selector picks comparison pairs from candidate lists.
type Selector struct {
	cfg Config
	rng *rand.Rand
}

// Option applies a configuration option to the Selector.
type Option func(*Selector)

// WithConfig sets the matchmaking policy.
func WithConfig(cfg Config) Option {
	return func(s *Selector) {
		s.cfg = cfg
	}
}

// WithRand sets the randomness source, e.g. a seeded one for tests.
func WithRand(rng *rand.Rand) Option {
	return func(s *Selector) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// New creates a Selector with configuration options.
func New(opts ...Option) *Selector {
	s := &Selector{
		cfg: DefaultConfig(),
		rng: rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // matchmaking needs variety, not cryptographic randomness
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// PairSignature returns the order-independent signature of a pair,
// used for repeat-avoidance bookkeeping.
func PairSignature(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + pairSeparator + b
}

// PickNextPair selects the next comparison pair from candidates.
// lastPair is the previous pair's signature ("" when unknown). Returns
// ok=false when fewer than two candidates exist.
func (s *Selector) PickNextPair(candidates []string, stats StatsFunc, lastPair string) (model.Pair, bool) {
	switch len(candidates) {
	case 0, 1:
		return model.Pair{}, false
	case 2:
		// Only one possible matchup; no anchor/opponent logic and no
		// presentation flip, so the result is fully deterministic.
		return model.Pair{
			First:     candidates[0],
			Second:    candidates[1],
			Signature: PairSignature(candidates[0], candidates[1]),
		}, true
	}

	anchor := s.PickAnchorIndex(candidates, stats, lastPair)
	opponent := s.PickOpponentIndex(candidates, stats, anchor)
	sig := PairSignature(candidates[anchor], candidates[opponent])

	// Retry opponent selection when the draw repeats the previous
	// pair; after the retry budget the repeat is accepted rather than
	// failing the round.
	for attempt := 0; attempt < maxRepeatRetries && sig == lastPair; attempt++ {
		opponent = s.PickOpponentIndex(candidates, stats, anchor)
		sig = PairSignature(candidates[anchor], candidates[opponent])
	}

	first, second := candidates[anchor], candidates[opponent]
	if s.rng.Float64() < 0.5 {
		first, second = second, first
	}
	return model.Pair{First: first, Second: second, Signature: sig}, true
}

// PickAnchorIndex chooses the anchor item's index. When a last-pair
// signature is known and at least three candidates exist, both members
// of that pair are excluded from the pool. Returns -1 when there are
// no candidates; selection never panics on degenerate input.
func (s *Selector) PickAnchorIndex(candidates []string, stats StatsFunc, lastPair string) int {
	if len(candidates) == 0 {
		return -1
	}

	pool := s.anchorPool(candidates, lastPair)

	if !s.cfg.Enabled || !s.cfg.LowMatchBias.Enabled {
		return pool[s.rng.Intn(len(pool))]
	}

	exp := clampFloat(s.cfg.LowMatchBias.Exponent, 0, maxBiasExponent)
	weights := make([]float64, len(pool))
	for i, idx := range pool {
		_, matches := stats(candidates[idx])
		if matches < 0 {
			matches = 0
		}
		weights[i] = 1.0 / math.Pow(1.0+float64(matches), exp)
	}

	choice := WeightedChoice(weights, s.rng)
	if choice < 0 {
		choice = s.rng.Intn(len(pool))
	}
	return pool[choice]
}

// anchorPool returns the allowed anchor indices.
func (s *Selector) anchorPool(candidates []string, lastPair string) []int {
	excluded := map[string]struct{}{}
	if lastPair != "" && len(candidates) >= 3 {
		for _, id := range strings.SplitN(lastPair, pairSeparator, 2) {
			excluded[id] = struct{}{}
		}
	}

	pool := make([]int, 0, len(candidates))
	for i, id := range candidates {
		if _, skip := excluded[id]; skip {
			continue
		}
		pool = append(pool, i)
	}
	if len(pool) == 0 {
		// Every candidate was excluded (stale signature); fall back to
		// the full list.
		for i := range candidates {
			pool = append(pool, i)
		}
	}
	return pool
}

// PickOpponentIndex chooses an opponent for the anchor at anchorIndex.
// Returns -1 when the anchor index is out of range or no other
// candidate exists to oppose it; selection never panics on degenerate
// input.
func (s *Selector) PickOpponentIndex(candidates []string, stats StatsFunc, anchorIndex int) int {
	if anchorIndex < 0 || anchorIndex >= len(candidates) {
		return -1
	}

	pool := make([]int, 0, len(candidates)-1)
	for i := range candidates {
		if i != anchorIndex {
			pool = append(pool, i)
		}
	}
	if len(pool) == 0 {
		return -1
	}

	if !s.cfg.Enabled {
		return pool[s.rng.Intn(len(pool))]
	}

	sample := s.sampleOpponents(pool)
	anchorRating, _ := stats(candidates[anchorIndex])

	if s.cfg.UpsetProbes.Enabled && s.rng.Float64() < s.cfg.UpsetProbes.Probability {
		if probe, ok := s.widestGap(candidates, stats, sample, anchorRating); ok {
			return probe
		}
	}

	if s.cfg.SimilarRatings.Enabled {
		return s.closestRated(candidates, stats, sample, anchorRating)
	}

	return sample[s.rng.Intn(len(sample))]
}

// sampleOpponents draws the bounded opponent sample from the pool.
func (s *Selector) sampleOpponents(pool []int) []int {
	size := s.cfg.SimilarRatings.SampleSize
	if size <= 0 {
		size = defaultSampleSize
	}
	minSize := 1
	if s.cfg.SimilarRatings.Enabled {
		minSize = 2
	}
	size = clampInt(size, minSize, len(pool))

	picked := ReservoirSample(len(pool), size, s.rng)
	sample := make([]int, len(picked))
	for i, p := range picked {
		sample[i] = pool[p]
	}
	return sample
}

// widestGap returns the sample member with the largest rating gap to
// the anchor among those at or beyond the probe's minimum gap.
func (s *Selector) widestGap(candidates []string, stats StatsFunc, sample []int, anchorRating float64) (int, bool) {
	best, bestGap, found := -1, 0.0, false
	for _, idx := range sample {
		r, _ := stats(candidates[idx])
		gap := math.Abs(r - anchorRating)
		if gap < s.cfg.UpsetProbes.MinGap {
			continue
		}
		if !found || gap > bestGap {
			best, bestGap, found = idx, gap, true
		}
	}
	return best, found
}

// closestRated returns the sample member with the smallest rating gap
// to the anchor, preferring the less-seen item on equal gaps.
func (s *Selector) closestRated(candidates []string, stats StatsFunc, sample []int, anchorRating float64) int {
	type entry struct {
		idx     int
		gap     float64
		matches int
	}
	entries := make([]entry, len(sample))
	for i, idx := range sample {
		r, m := stats(candidates[idx])
		entries[i] = entry{idx: idx, gap: math.Abs(r - anchorRating), matches: m}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].gap != entries[j].gap {
			return entries[i].gap < entries[j].gap
		}
		return entries[i].matches < entries[j].matches
	})
	return entries[0].idx
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		v = lo
	}
	if v > hi {
		v = hi
	}
	return v
}
