// Package dto provides the wire-level request/response types for the
// field allocation optimizer's HTTP gateway, translated to/from
// internal/domain and internal/engine values at the API boundary.
package dto

import (
	"time"

	"github.com/fieldplan/allocator/internal/adjust"
	"github.com/fieldplan/allocator/internal/domain"
	"github.com/fieldplan/allocator/internal/engine"
	"github.com/fieldplan/allocator/internal/phenology"
)

// FieldInput is one plot of land available for cultivation.
type FieldInput struct {
	ID             string  `json:"id" validate:"required"`
	Name           string  `json:"name"`
	AreaM2         float64 `json:"area_m2" validate:"gt=0"`
	DailyFixedCost float64 `json:"daily_fixed_cost" validate:"gte=0"`
	FallowDays     int     `json:"fallow_days" validate:"gte=0"`
}

func (f FieldInput) toDomain() domain.Field {
	return domain.Field{
		ID:             f.ID,
		Name:           f.Name,
		AreaM2:         f.AreaM2,
		DailyFixedCost: f.DailyFixedCost,
		FallowDays:     f.FallowDays,
	}
}

// CropInput is one cultivar definition.
type CropInput struct {
	ID             string   `json:"id" validate:"required"`
	Name           string   `json:"name"`
	Variety        string   `json:"variety"`
	AreaPerUnitM2  float64  `json:"area_per_unit_m2" validate:"gt=0"`
	RevenuePerArea float64  `json:"revenue_per_area" validate:"gte=0"`
	MaxRevenue     *float64 `json:"max_revenue,omitempty"`
	Groups         []string `json:"groups,omitempty"`
}

func (c CropInput) toDomain() domain.Crop {
	return domain.Crop{
		ID:             c.ID,
		Name:           c.Name,
		Variety:        c.Variety,
		AreaPerUnitM2:  c.AreaPerUnitM2,
		RevenuePerArea: c.RevenuePerArea,
		MaxRevenue:     c.MaxRevenue,
		Groups:         c.Groups,
	}
}

// ThermalProfileInput parameterizes GDD accumulation for one growth stage.
type ThermalProfileInput struct {
	BaseTemperature  float64 `json:"base_temperature"`
	OptimalMin       float64 `json:"optimal_min"`
	OptimalMax       float64 `json:"optimal_max"`
	HighStressThresh float64 `json:"high_stress_threshold"`
	MaxTemperature   float64 `json:"max_temperature,omitempty"`
}

func (t ThermalProfileInput) toDomain() domain.ThermalProfile {
	return domain.ThermalProfile{
		BaseTemperature:  t.BaseTemperature,
		OptimalMin:       t.OptimalMin,
		OptimalMax:       t.OptimalMax,
		HighStressThresh: t.HighStressThresh,
		MaxTemperature:   t.MaxTemperature,
	}
}

// StageRequirementInput is one phenological stage of a crop's growth cycle.
type StageRequirementInput struct {
	StageName       string              `json:"stage_name" validate:"required"`
	Order           int                 `json:"order"`
	Thermal         ThermalProfileInput `json:"thermal"`
	RequiredGDD     float64             `json:"required_gdd" validate:"gt=0"`
	HarvestStartGDD *float64            `json:"harvest_start_gdd,omitempty"`
}

func (s StageRequirementInput) toDomain() domain.StageRequirement {
	return domain.StageRequirement{
		StageName:       s.StageName,
		Order:           s.Order,
		Thermal:         s.Thermal.toDomain(),
		RequiredGDD:     s.RequiredGDD,
		HarvestStartGDD: s.HarvestStartGDD,
	}
}

// InteractionRuleInput describes a revenue multiplier between two crop
// groups sharing a field across time.
type InteractionRuleInput struct {
	RuleType      string  `json:"rule_type" validate:"required,oneof=CONTINUOUS_CULTIVATION BENEFICIAL_ROTATION"`
	SourceGroup   string  `json:"source_group" validate:"required"`
	TargetGroup   string  `json:"target_group" validate:"required"`
	ImpactRatio   float64 `json:"impact_ratio"`
	IsDirectional bool    `json:"is_directional"`
}

func (r InteractionRuleInput) toDomain() domain.InteractionRule {
	return domain.InteractionRule{
		RuleType:      domain.RuleType(r.RuleType),
		SourceGroup:   r.SourceGroup,
		TargetGroup:   r.TargetGroup,
		ImpactRatio:   r.ImpactRatio,
		IsDirectional: r.IsDirectional,
	}
}

// WeatherRecordInput carries one day's observed weather.
type WeatherRecordInput struct {
	Date             time.Time `json:"date" validate:"required"`
	TempMean         *float64  `json:"temp_mean,omitempty"`
	TempMax          *float64  `json:"temp_max,omitempty"`
	TempMin          *float64  `json:"temp_min,omitempty"`
	Precipitation    *float64  `json:"precipitation,omitempty"`
	SunshineDuration *float64  `json:"sunshine_duration,omitempty"`
	WindSpeed        *float64  `json:"wind_speed,omitempty"`
}

func (w WeatherRecordInput) toDomain() domain.WeatherRecord {
	return domain.WeatherRecord{
		Date:             w.Date,
		TempMean:         w.TempMean,
		TempMax:          w.TempMax,
		TempMin:          w.TempMin,
		Precipitation:    w.Precipitation,
		SunshineDuration: w.SunshineDuration,
		WindSpeed:        w.WindSpeed,
	}
}

// HorizonInput is the inclusive planning window.
type HorizonInput struct {
	Start time.Time `json:"start" validate:"required"`
	End   time.Time `json:"end" validate:"required,gtfield=Start"`
}

func (h HorizonInput) toDomain() domain.Horizon {
	return domain.Horizon{Start: h.Start, End: h.End}
}

// OptimizationConfigInput overrides domain.DefaultOptimizationConfig
// field-by-field; zero values mean "use the default".
type OptimizationConfigInput struct {
	Algorithm  string `json:"algorithm,omitempty" validate:"omitempty,oneof=DP GREEDY"`
	GDDModel   string `json:"gdd_model,omitempty" validate:"omitempty,oneof=MODIFIED LEGACY_LINEAR"`
	EnableALNS bool   `json:"enable_alns,omitempty"`

	MaxLocalSearchIterations int     `json:"max_local_search_iterations,omitempty"`
	ALNSIterations           int     `json:"alns_iterations,omitempty"`
	RandomSeed               int64   `json:"random_seed,omitempty"`
	DeadlineSeconds          float64 `json:"deadline_seconds,omitempty"`
}

func (c OptimizationConfigInput) toDomain() domain.OptimizationConfig {
	cfg := domain.DefaultOptimizationConfig()
	if c.Algorithm != "" {
		cfg.Algorithm = domain.Algorithm(c.Algorithm)
	}
	if c.GDDModel != "" {
		cfg.GDDModel = domain.GDDModel(c.GDDModel)
	}
	if c.EnableALNS {
		cfg.EnableALNS = true
	}
	if c.MaxLocalSearchIterations > 0 {
		cfg.MaxLocalSearchIterations = c.MaxLocalSearchIterations
	}
	if c.ALNSIterations > 0 {
		cfg.ALNSIterations = c.ALNSIterations
	}
	if c.RandomSeed != 0 {
		cfg.RandomSeed = c.RandomSeed
	}
	if c.DeadlineSeconds > 0 {
		cfg.DeadlineSeconds = c.DeadlineSeconds
	}
	return cfg
}

// OptimizeRequest is the wire shape of POST /api/v1/optimize. Profiles and
// Weather may be omitted when the gateway has a catalog database
// configured: the handler then fetches them from internal/profile and
// internal/weather's Postgres-backed sources instead.
type OptimizeRequest struct {
	Fields           []FieldInput                      `json:"fields" validate:"required,min=1,dive"`
	Crops            []CropInput                        `json:"crops" validate:"required,min=1,dive"`
	Profiles         map[string][]StageRequirementInput `json:"profiles,omitempty"`
	InteractionRules []InteractionRuleInput             `json:"interaction_rules,omitempty" validate:"dive"`
	Weather          []WeatherRecordInput                `json:"weather,omitempty" validate:"omitempty,dive"`
	Horizon          HorizonInput                        `json:"horizon" validate:"required"`
	Config           OptimizationConfigInput             `json:"config,omitempty"`
}

// ToEngineRequest converts the wire request into internal/engine's Request,
// building a WeatherLookup from the inlined daily records via
// phenology.SliceLookup.
func (r OptimizeRequest) ToEngineRequest() engine.Request {
	fields := make([]domain.Field, len(r.Fields))
	for i, f := range r.Fields {
		fields[i] = f.toDomain()
	}

	crops := make([]domain.Crop, len(r.Crops))
	for i, c := range r.Crops {
		crops[i] = c.toDomain()
	}

	profiles := make(map[string][]domain.StageRequirement, len(r.Profiles))
	for cropID, stages := range r.Profiles {
		out := make([]domain.StageRequirement, len(stages))
		for i, s := range stages {
			out[i] = s.toDomain()
		}
		profiles[cropID] = out
	}

	rules := make([]domain.InteractionRule, len(r.InteractionRules))
	for i, rule := range r.InteractionRules {
		rules[i] = rule.toDomain()
	}

	records := make([]domain.WeatherRecord, len(r.Weather))
	for i, w := range r.Weather {
		records[i] = w.toDomain()
	}

	return engine.Request{
		Fields:           fields,
		Crops:            crops,
		Profiles:         profiles,
		Weather:          phenology.SliceLookup(records),
		InteractionRules: rules,
		Horizon:          r.Horizon.toDomain(),
		Config:           r.Config.toDomain(),
	}
}

// AllocationOutput is the wire shape of one scheduled allocation.
type AllocationOutput struct {
	AllocationID    string    `json:"allocation_id"`
	FieldID         string    `json:"field_id"`
	CropID          string    `json:"crop_id"`
	StartDate       time.Time `json:"start_date"`
	CompletionDate  time.Time `json:"completion_date"`
	GrowthDays      int       `json:"growth_days"`
	AccumulatedGDD  float64   `json:"accumulated_gdd"`
	AreaUsedM2      float64   `json:"area_used_m2"`
	Quantity        int       `json:"quantity"`
	TotalCost       float64   `json:"total_cost"`
	ExpectedRevenue *float64  `json:"expected_revenue,omitempty"`
	Profit          *float64  `json:"profit,omitempty"`
}

func allocationFromDomain(a domain.CropAllocation) AllocationOutput {
	return AllocationOutput{
		AllocationID:    a.AllocationID,
		FieldID:         a.Field.ID,
		CropID:          a.Crop.ID,
		StartDate:       a.StartDate,
		CompletionDate:  a.CompletionDate,
		GrowthDays:      a.GrowthDays,
		AccumulatedGDD:  a.AccumulatedGDD,
		AreaUsedM2:      a.AreaUsedM2,
		Quantity:        a.Quantity,
		TotalCost:       a.TotalCost,
		ExpectedRevenue: a.ExpectedRevenue,
		Profit:          a.Profit,
	}
}

// OptimizeResponse is the wire shape of a successful optimize call.
type OptimizeResponse struct {
	OptimizationID string             `json:"optimization_id"`
	AlgorithmUsed  string             `json:"algorithm_used"`
	Allocations    []AllocationOutput `json:"allocations"`
	TotalCost      float64            `json:"total_cost"`
	TotalRevenue   float64            `json:"total_revenue"`
	TotalProfit    float64            `json:"total_profit"`
	Diagnostic     string             `json:"diagnostic,omitempty"`
}

// OptimizeResponseFromResult builds the wire response from an engine.Result.
func OptimizeResponseFromResult(res engine.Result) OptimizeResponse {
	allocs := make([]AllocationOutput, len(res.Solution.Allocations))
	for i, a := range res.Solution.Allocations {
		allocs[i] = allocationFromDomain(a)
	}
	return OptimizeResponse{
		OptimizationID: res.OptimizationID,
		AlgorithmUsed:  res.AlgorithmUsed,
		Allocations:    allocs,
		TotalCost:      res.Solution.TotalCost(),
		TotalRevenue:   res.Solution.TotalRevenue(),
		TotalProfit:    res.Solution.TotalProfit(),
		Diagnostic:     res.Diagnostic,
	}
}

// InstructionInput is one requested change to an existing solution.
type InstructionInput struct {
	Kind         string     `json:"kind" validate:"required,oneof=MOVE REMOVE"`
	AllocationID string     `json:"allocation_id" validate:"required"`
	ToFieldID    string     `json:"to_field_id,omitempty"`
	ToStartDate  *time.Time `json:"to_start_date,omitempty"`
	ToArea       *float64   `json:"to_area,omitempty"`
}

func (i InstructionInput) toDomain() adjust.Instruction {
	instr := adjust.Instruction{
		Kind:         adjust.InstructionKind(i.Kind),
		AllocationID: i.AllocationID,
		ToFieldID:    i.ToFieldID,
		ToArea:       i.ToArea,
	}
	if i.ToStartDate != nil {
		instr.ToStartDate = *i.ToStartDate
	}
	return instr
}

// AdjustRequest is the wire shape of POST /api/v1/adjust: the same catalog
// inputs as OptimizeRequest, plus the seed solution being revised and the
// move/remove instructions to apply before re-optimizing.
type AdjustRequest struct {
	OptimizeRequest
	Seed         []AllocationOutput  `json:"seed" validate:"required,min=1,dive"`
	Instructions []InstructionInput `json:"instructions" validate:"required,min=1,dive"`
}

func (r AdjustRequest) seedSolution() domain.Solution {
	allocs := make([]domain.CropAllocation, len(r.Seed))

	fieldsByID := make(map[string]domain.Field, len(r.Fields))
	for _, f := range r.Fields {
		fieldsByID[f.ID] = f.toDomain()
	}
	cropsByID := make(map[string]domain.Crop, len(r.Crops))
	for _, c := range r.Crops {
		cropsByID[c.ID] = c.toDomain()
	}

	for i, a := range r.Seed {
		allocs[i] = domain.CropAllocation{
			AllocationID:    a.AllocationID,
			Field:           fieldsByID[a.FieldID],
			Crop:            cropsByID[a.CropID],
			StartDate:       a.StartDate,
			CompletionDate:  a.CompletionDate,
			GrowthDays:      a.GrowthDays,
			AccumulatedGDD:  a.AccumulatedGDD,
			AreaUsedM2:      a.AreaUsedM2,
			Quantity:        a.Quantity,
			TotalCost:       a.TotalCost,
			ExpectedRevenue: a.ExpectedRevenue,
			Profit:          a.Profit,
		}
	}
	return domain.Solution{Allocations: allocs}
}

// ToEngineRequest converts the wire request into internal/engine's
// AdjustRequest.
func (r AdjustRequest) ToEngineRequest() engine.AdjustRequest {
	instructions := make([]adjust.Instruction, len(r.Instructions))
	for i, instr := range r.Instructions {
		instructions[i] = instr.toDomain()
	}

	return engine.AdjustRequest{
		Request:      r.OptimizeRequest.ToEngineRequest(),
		Seed:         r.seedSolution(),
		Instructions: instructions,
	}
}

// InstructionOutput mirrors InstructionInput for round-tripping the
// applied/rejected lists back to the caller.
type InstructionOutput struct {
	Kind         string     `json:"kind"`
	AllocationID string     `json:"allocation_id"`
	ToFieldID    string     `json:"to_field_id,omitempty"`
	ToStartDate  *time.Time `json:"to_start_date,omitempty"`
	ToArea       *float64   `json:"to_area,omitempty"`
}

func instructionFromDomain(i adjust.Instruction) InstructionOutput {
	out := InstructionOutput{
		Kind:         string(i.Kind),
		AllocationID: i.AllocationID,
		ToFieldID:    i.ToFieldID,
		ToArea:       i.ToArea,
	}
	if !i.ToStartDate.IsZero() {
		t := i.ToStartDate
		out.ToStartDate = &t
	}
	return out
}

// RejectedOutput is one instruction that could not be applied, with why.
type RejectedOutput struct {
	Instruction InstructionOutput `json:"instruction"`
	Reason      string            `json:"reason"`
}

// AdjustResponse is the wire shape of a successful adjust call.
type AdjustResponse struct {
	OptimizeResponse
	Applied  []InstructionOutput `json:"applied"`
	Rejected []RejectedOutput    `json:"rejected"`
}

// AdjustResponseFromResult builds the wire response from an
// engine.AdjustResult.
func AdjustResponseFromResult(res engine.AdjustResult) AdjustResponse {
	applied := make([]InstructionOutput, len(res.Applied))
	for i, instr := range res.Applied {
		applied[i] = instructionFromDomain(instr)
	}
	rejected := make([]RejectedOutput, len(res.Rejected))
	for i, rej := range res.Rejected {
		rejected[i] = RejectedOutput{
			Instruction: instructionFromDomain(rej.Instruction),
			Reason:      string(rej.Reason),
		}
	}
	return AdjustResponse{
		OptimizeResponse: OptimizeResponseFromResult(res.Result),
		Applied:          applied,
		Rejected:         rejected,
	}
}
