// Package phenology implements C1: the growing-degree-day stage-progression
// simulation that turns a crop's stage requirements, a start date, and a
// weather series into a completion date or a failure.
package phenology

import (
	"errors"
	"time"

	"github.com/fieldplan/allocator/internal/domain"
	"github.com/fieldplan/allocator/pkg/constants"
)

// Errors returned by Evaluate. All of them are candidate-level failures
// (§7 "Phenology failure"): callers drop the candidate silently, they are
// never surfaced to the top-level caller.
var (
	ErrHorizonExceeded  = errors.New("phenology: horizon ended before completion")
	ErrMissingWeather   = errors.New("phenology: weather data missing beyond interpolation gap")
	ErrNoStages         = errors.New("phenology: crop has no stage requirements")
	ErrNoMaxTemperature = errors.New("phenology: max_temperature absent and cannot be auto-estimated")
)

// WeatherLookup is the abstract per-date weather accessor C1 consumes
// (§6.4): the core never prescribes the underlying storage.
type WeatherLookup func(date time.Time) (domain.WeatherRecord, bool)

// Result is the outcome of a successful phenology run.
type Result struct {
	CompletionDate time.Time
	GrowthDays     int
	AccumulatedGDD float64
}

// Evaluate walks forward from startDate, accumulating GDD per the
// configured model, until every stage in stages completes or horizonEnd
// is reached. horizonEnd is inclusive.
func Evaluate(stages []domain.StageRequirement, startDate, horizonEnd time.Time, weather WeatherLookup, model domain.GDDModel) (Result, error) {
	if len(stages) == 0 {
		return Result{}, ErrNoStages
	}

	stageIdx := 0
	cumulative := 0.0
	totalGDD := 0.0

	for date := startDate; !date.After(horizonEnd); date = date.AddDate(0, 0, 1) {
		stage := stages[stageIdx]
		maxTemp, ok := stage.Thermal.EffectiveMaxTemperature()
		if !ok {
			return Result{}, ErrNoMaxTemperature
		}

		tMean, err := resolveTempMean(date, weather)
		if err != nil {
			return Result{}, err
		}

		dayGDD := dailyGDD(tMean, stage.Thermal, maxTemp, model)
		cumulative += dayGDD
		totalGDD += dayGDD

		if cumulative >= stage.RequiredGDD {
			overflow := cumulative - stage.RequiredGDD
			stageIdx++
			if stageIdx >= len(stages) {
				return Result{
					CompletionDate: date,
					GrowthDays:     int(date.Sub(startDate).Hours()/24) + 1,
					AccumulatedGDD: totalGDD,
				}, nil
			}
			cumulative = overflow
		}
	}

	return Result{}, ErrHorizonExceeded
}

// dailyGDD implements §4.1's per-day GDD model.
func dailyGDD(tMean float64, thermal domain.ThermalProfile, maxTemp float64, model domain.GDDModel) float64 {
	base := thermal.BaseTemperature

	if model == domain.GDDLegacyLinear {
		if tMean <= base {
			return 0
		}
		return tMean - base
	}

	switch {
	case tMean <= base || tMean >= maxTemp:
		return 0
	case thermal.OptimalMin <= tMean && tMean <= thermal.OptimalMax:
		return tMean - base
	case tMean < thermal.OptimalMin:
		efficiency := (tMean - base) / (thermal.OptimalMin - base)
		return (tMean - base) * efficiency
	default: // optimalMax < tMean < maxTemp
		efficiency := (maxTemp - tMean) / (maxTemp - thermal.OptimalMax)
		return (tMean - base) * efficiency
	}
}

// resolveTempMean implements §4.1's missing-weather handling: direct
// TempMean, else derived from TempMax/TempMin, else bounded linear
// interpolation from surrounding days, else failure.
func resolveTempMean(date time.Time, weather WeatherLookup) (float64, error) {
	if rec, ok := weather(date); ok {
		if rec.TempMean != nil {
			return *rec.TempMean, nil
		}
		if rec.TempMax != nil && rec.TempMin != nil {
			return (*rec.TempMax + *rec.TempMin) / 2, nil
		}
	}
	return interpolate(date, weather)
}

// interpolate searches up to constants.InterpolationGapDays on either side
// of date for known TempMean values and linearly interpolates between the
// nearest pair. Fails if no bracketing pair is found within the gap.
func interpolate(date time.Time, weather WeatherLookup) (float64, error) {
	var beforeDate, afterDate time.Time
	var beforeTemp, afterTemp float64
	haveBefore, haveAfter := false, false

	for d := 1; d <= constants.InterpolationGapDays; d++ {
		if !haveBefore {
			candidate := date.AddDate(0, 0, -d)
			if rec, ok := weather(candidate); ok && rec.TempMean != nil {
				beforeDate, beforeTemp, haveBefore = candidate, *rec.TempMean, true
			}
		}
		if !haveAfter {
			candidate := date.AddDate(0, 0, d)
			if rec, ok := weather(candidate); ok && rec.TempMean != nil {
				afterDate, afterTemp, haveAfter = candidate, *rec.TempMean, true
			}
		}
		if haveBefore && haveAfter {
			break
		}
	}

	switch {
	case haveBefore && haveAfter:
		span := afterDate.Sub(beforeDate).Hours()
		if span <= 0 {
			return beforeTemp, nil
		}
		frac := date.Sub(beforeDate).Hours() / span
		return beforeTemp + frac*(afterTemp-beforeTemp), nil
	default:
		return 0, ErrMissingWeather
	}
}

// SliceLookup builds a WeatherLookup over a pre-fetched slice of records,
// the typical adapter for an in-memory weather series (§6.4).
func SliceLookup(records []domain.WeatherRecord) WeatherLookup {
	byDate := make(map[string]domain.WeatherRecord, len(records))
	for _, r := range records {
		byDate[r.Date.Format("2006-01-02")] = r
	}
	return func(date time.Time) (domain.WeatherRecord, bool) {
		rec, ok := byDate[date.Format("2006-01-02")]
		return rec, ok
	}
}
