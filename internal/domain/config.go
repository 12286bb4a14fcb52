package domain

// Algorithm selects the initial scheduler.
type Algorithm string

const (
	AlgorithmDP      Algorithm = "DP"
	AlgorithmGreedy   Algorithm = "GREEDY"
)

// GDDModel selects the phenology thermal-accumulation model.
type GDDModel string

const (
	// GDDModified is the default: temperature-efficiency modulated GDD.
	GDDModified GDDModel = "MODIFIED"
	// GDDLegacyLinear is max(0, t_mean-base), kept for backward compatibility.
	GDDLegacyLinear GDDModel = "LEGACY_LINEAR"
)

// OptimizationConfig is the single explicit structure carrying every
// behavioral knob of the pipeline. There is no global/ambient state: all
// components receive their configuration through this struct.
type OptimizationConfig struct {
	Algorithm      Algorithm `validate:"required,oneof=DP GREEDY"`
	GDDModel       GDDModel  `validate:"required,oneof=MODIFIED LEGACY_LINEAR"`

	EnableLocalSearch bool
	EnableALNS        bool

	MaxLocalSearchIterations int     `validate:"gte=0"`
	MaxNoImprovement         int     `validate:"gte=0"`

	ALNSIterations   int     `validate:"gte=0"`
	ALNSRemovalRate  float64 `validate:"gt=0,lte=1"`

	EnableCandidateFiltering            bool
	EnableParallelCandidateGeneration    bool

	ImprovementThresholdRatio float64 `validate:"gte=0"`

	QuantityLevels                 []float64 `validate:"required,min=1,dive,gt=0,lte=1"`
	QuantityAdjustmentMultipliers   []float64 `validate:"required,min=1,dive,gt=0"`

	TopPeriodCandidatesPerPair int `validate:"gte=1"`

	// RandomSeed drives every PRNG consumed by ALNS. Fixed by default for
	// reproducibility; callers needing non-determinism supply a seed
	// derived from wall-clock time themselves.
	RandomSeed int64

	// DeadlineSeconds, when > 0, bounds wall-clock time spent in the
	// improvement phase (C8/C9). Zero means no deadline.
	DeadlineSeconds float64
}

// DefaultOptimizationConfig returns the documented default tuning values.
func DefaultOptimizationConfig() OptimizationConfig {
	return OptimizationConfig{
		Algorithm:                         AlgorithmDP,
		GDDModel:                          GDDModified,
		EnableLocalSearch:                 true,
		EnableALNS:                        false,
		MaxLocalSearchIterations:          200,
		MaxNoImprovement:                  20,
		ALNSIterations:                    1000,
		ALNSRemovalRate:                   0.2,
		EnableCandidateFiltering:          true,
		EnableParallelCandidateGeneration: true,
		ImprovementThresholdRatio:         0.0,
		QuantityLevels:                    []float64{1.0, 0.75, 0.5, 0.25},
		QuantityAdjustmentMultipliers:     []float64{0.8, 0.9, 1.1, 1.2},
		TopPeriodCandidatesPerPair:        5,
		RandomSeed:                        42,
	}
}
