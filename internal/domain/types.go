// Package domain holds the immutable input types and value-typed solution
// types shared by every stage of the allocation pipeline.
package domain

import (
	"time"
)

// Field is a plot of land available for cultivation. Fields are loaded
// once per run and are never mutated afterward.
type Field struct {
	ID             string
	Name           string
	AreaM2         float64
	DailyFixedCost float64
	// FallowDays is the minimum idle time required after an allocation
	// completes before the field may be reused. Zero means back-to-back
	// scheduling is allowed.
	FallowDays int
}

// FallowPeriod returns the field's fallow interval as a Duration.
func (f Field) FallowPeriod() time.Duration {
	return time.Duration(f.FallowDays) * 24 * time.Hour
}

// Crop is a cultivar definition: area per plant, revenue per area, and an
// optional annual market-demand cap shared across every allocation of this
// crop in a solution.
type Crop struct {
	ID             string
	Name           string
	Variety        string
	AreaPerUnitM2  float64
	RevenuePerArea float64
	// MaxRevenue is the market-demand cap. Nil means uncapped.
	MaxRevenue *float64
	Groups     []string
}

// HasGroup reports whether the crop carries the given group tag (e.g. a
// botanical family such as "Solanaceae").
func (c Crop) HasGroup(group string) bool {
	for _, g := range c.Groups {
		if g == group {
			return true
		}
	}
	return false
}

// ThermalProfile parameterizes GDD accumulation for one growth stage.
type ThermalProfile struct {
	BaseTemperature   float64
	OptimalMin        float64
	OptimalMax        float64
	HighStressThresh  float64
	// MaxTemperature is the developmental-arrest ceiling. Zero means
	// "not set"; ThermalProfile.EffectiveMaxTemperature auto-estimates
	// it from HighStressThresh when absent.
	MaxTemperature float64
}

// EffectiveMaxTemperature returns MaxTemperature, auto-estimating it as
// HighStressThresh+7.0 when it was left unset.
func (t ThermalProfile) EffectiveMaxTemperature() (float64, bool) {
	if t.MaxTemperature > 0 {
		return t.MaxTemperature, true
	}
	if t.HighStressThresh > 0 {
		return t.HighStressThresh + 7.0, true
	}
	return 0, false
}

// StageRequirement is one phenological stage of a crop's growth cycle.
type StageRequirement struct {
	StageName       string
	Order           int
	Thermal         ThermalProfile
	RequiredGDD     float64
	HarvestStartGDD *float64
}

// WeatherRecord carries one day's observed weather. TempMean is required
// for GDD accumulation (directly, or derived/interpolated); the rest are
// optional context fields.
type WeatherRecord struct {
	Date               time.Time
	TempMean           *float64
	TempMax            *float64
	TempMin            *float64
	Precipitation      *float64
	SunshineDuration   *float64
	WindSpeed          *float64
}

// RuleType enumerates the supported interaction-rule kinds.
type RuleType string

const (
	RuleContinuousCultivation RuleType = "CONTINUOUS_CULTIVATION"
	RuleBeneficialRotation    RuleType = "BENEFICIAL_ROTATION"
)

// InteractionRule describes a revenue multiplier that applies when a crop
// follows another crop in the same field whose groups match.
type InteractionRule struct {
	RuleType      RuleType
	SourceGroup   string
	TargetGroup   string
	ImpactRatio   float64
	IsDirectional bool
}

// Matches reports whether the rule applies given the previous allocation's
// groups and the candidate crop's groups.
func (r InteractionRule) Matches(prevGroups, nextGroups []string) bool {
	has := func(groups []string, g string) bool {
		for _, x := range groups {
			if x == g {
				return true
			}
		}
		return false
	}
	forward := has(prevGroups, r.SourceGroup) && has(nextGroups, r.TargetGroup)
	if forward {
		return true
	}
	if !r.IsDirectional {
		return has(prevGroups, r.TargetGroup) && has(nextGroups, r.SourceGroup)
	}
	return false
}

// Horizon is the inclusive planning window.
type Horizon struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether [from, to] lies entirely within the horizon.
func (h Horizon) Contains(from, to time.Time) bool {
	return !from.Before(h.Start) && !to.After(h.End)
}

// Days returns the number of calendar days spanned by the horizon,
// inclusive of both endpoints.
func (h Horizon) Days() int {
	return int(h.End.Sub(h.Start).Hours()/24) + 1
}

// AllocationCandidate is a precomputed, immutable window: one feasible
// (field, crop, start, completion) pairing at one area level. It
// deliberately omits revenue/cost/profit — those are priced on demand by
// the metric calculator against the solution they would join, to prevent
// stale-value bugs from context-free caching.
type AllocationCandidate struct {
	Field           Field
	Crop            Crop
	StartDate       time.Time
	CompletionDate  time.Time
	GrowthDays      int
	AccumulatedGDD  float64
	AreaUsedM2      float64
	Quantity        int
}

// BaselineProfitRate computes a context-free profit rate (profit/cost)
// used only for candidate ordering and filtering in C3, never for the
// revenue actually booked into a solution.
func (c AllocationCandidate) BaselineProfitRate() float64 {
	cost := float64(c.GrowthDays) * c.Field.DailyFixedCost
	revenue := c.AreaUsedM2 * c.Crop.RevenuePerArea
	if c.Crop.MaxRevenue != nil && revenue > *c.Crop.MaxRevenue {
		revenue = *c.Crop.MaxRevenue
	}
	profit := revenue - cost
	if cost <= 0 {
		if profit > 0 {
			return profit
		}
		return 0
	}
	return profit / cost
}

// CropAllocation is a scheduled allocation within a Solution.
type CropAllocation struct {
	AllocationID   string
	Field          Field
	Crop           Crop
	StartDate      time.Time
	CompletionDate time.Time
	GrowthDays     int
	AccumulatedGDD float64
	AreaUsedM2     float64
	Quantity       int

	TotalCost       float64
	ExpectedRevenue *float64
	Profit          *float64
}

// FromCandidate builds an unpriced CropAllocation from a candidate.
func FromCandidate(c AllocationCandidate, allocationID string) CropAllocation {
	return CropAllocation{
		AllocationID:   allocationID,
		Field:          c.Field,
		Crop:           c.Crop,
		StartDate:      c.StartDate,
		CompletionDate: c.CompletionDate,
		GrowthDays:     c.GrowthDays,
		AccumulatedGDD: c.AccumulatedGDD,
		AreaUsedM2:     c.AreaUsedM2,
		Quantity:       c.Quantity,
		TotalCost:      float64(c.GrowthDays) * c.Field.DailyFixedCost,
	}
}

// FallowEnd returns the earliest date the field may host a new allocation.
func (a CropAllocation) FallowEnd() time.Time {
	return a.CompletionDate.AddDate(0, 0, a.Field.FallowDays)
}

// Overlaps reports whether two same-field allocations violate the
// fallow-aware non-overlap invariant.
func (a CropAllocation) Overlaps(b CropAllocation) bool {
	if a.Field.ID != b.Field.ID {
		return false
	}
	aEnd := a.FallowEnd()
	bEnd := b.FallowEnd()
	return a.StartDate.Before(bEnd) && b.StartDate.Before(aEnd)
}

// Solution is an ordered, value-typed collection of allocations. A
// neighbor is a new Solution snapshot; the immutable Field/Crop/candidate
// data it references is shared, never deep-cloned.
type Solution struct {
	Allocations []CropAllocation
}

// Clone returns a snapshot with an independently mutable allocation slice.
// The allocation structs are copied by value (cheap: no pointers to
// mutable state), so callers may freely append/remove on the clone.
func (s Solution) Clone() Solution {
	out := make([]CropAllocation, len(s.Allocations))
	copy(out, s.Allocations)
	return Solution{Allocations: out}
}

// ByField returns the allocations that belong to the given field, in the
// solution's original order. Materialized on demand; Field never carries
// a back-reference to its allocations.
func (s Solution) ByField(fieldID string) []CropAllocation {
	var out []CropAllocation
	for _, a := range s.Allocations {
		if a.Field.ID == fieldID {
			out = append(out, a)
		}
	}
	return out
}

// TotalCost, TotalRevenue, TotalProfit sum the priced fields across every
// allocation currently in the solution. Unpriced allocations (nil
// Revenue/Profit) contribute zero revenue/profit but still their cost.
func (s Solution) TotalCost() float64 {
	var total float64
	for _, a := range s.Allocations {
		total += a.TotalCost
	}
	return total
}

func (s Solution) TotalRevenue() float64 {
	var total float64
	for _, a := range s.Allocations {
		if a.ExpectedRevenue != nil {
			total += *a.ExpectedRevenue
		}
	}
	return total
}

func (s Solution) TotalProfit() float64 {
	var total float64
	for _, a := range s.Allocations {
		if a.Profit != nil {
			total += *a.Profit
		}
	}
	return total
}

// IndexOf returns the index of the allocation with the given ID, or -1.
func (s Solution) IndexOf(allocationID string) int {
	for i, a := range s.Allocations {
		if a.AllocationID == allocationID {
			return i
		}
	}
	return -1
}
