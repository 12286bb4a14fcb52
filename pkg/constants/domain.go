// Package constants provides centralized definition of constants used throughout the field allocation optimizer
package constants

// DefaultFallowDays is used when a field definition omits an explicit
// fallow period.
const DefaultFallowDays = 28

// Soil-recovery tiers (§4.2 step 4): gap in days -> multiplicative bonus,
// applied in ascending-gap order and capped at SoilRecoveryCap.
const (
	SoilRecoveryTier1Days = 15
	SoilRecoveryTier2Days = 30
	SoilRecoveryTier3Days = 60

	SoilRecoveryBase  = 1.00
	SoilRecoveryTier1 = 1.02
	SoilRecoveryTier2 = 1.05
	SoilRecoveryTier3 = 1.10
	SoilRecoveryCap   = 1.10
)

// MaxTemperatureHeadroom is added to a stage's high-stress threshold to
// auto-estimate the developmental-arrest ceiling when it is not supplied
// explicitly.
const MaxTemperatureHeadroom = 7.0

// InterpolationGapDays bounds how many consecutive missing-temperature
// days the phenology evaluator will bridge by linear interpolation before
// failing a candidate.
const InterpolationGapDays = 3
