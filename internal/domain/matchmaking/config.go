package matchmaking

// Default matchmaking configuration constants.
const (
	defaultSampleSize           = 12
	defaultLowMatchBiasExponent = 1.0
	defaultUpsetProbability     = 0.1
	defaultUpsetMinGap          = 200.0

	maxBiasExponent = 3.0
)

// LowMatchBias skews anchor selection toward items with few matches so
// newcomers get rated quickly.
type LowMatchBias struct {
	Enabled  bool
	Exponent float64 // clamped to [0, 3]
}

// SimilarRatings steers opponent selection toward the closest-rated
// candidate in a bounded random sample.
type SimilarRatings struct {
	Enabled    bool
	SampleSize int
}

// UpsetProbes occasionally pits the anchor against a far-rated
// candidate to test whether the standings still hold.
type UpsetProbes struct {
	Enabled     bool
	Probability float64 // chance per opponent pick, in [0,1]
	MinGap      float64 // minimum rating gap for a probe target
}

// Config controls pair selection. Enabled=false degrades everything to
// uniform random choice.
type Config struct {
	Enabled        bool
	LowMatchBias   LowMatchBias
	SimilarRatings SimilarRatings
	UpsetProbes    UpsetProbes
}

// DefaultConfig returns the matchmaking policy used when nothing is
// configured.
func DefaultConfig() Config {
	return Config{
		Enabled:        true,
		LowMatchBias:   LowMatchBias{Enabled: true, Exponent: defaultLowMatchBiasExponent},
		SimilarRatings: SimilarRatings{Enabled: true, SampleSize: defaultSampleSize},
		UpsetProbes:    UpsetProbes{Enabled: true, Probability: defaultUpsetProbability, MinGap: defaultUpsetMinGap},
	}
}
