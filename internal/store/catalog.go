// Package store provides database models and repository access for the
// field allocation optimizer's catalog data (fields, crops, phenology
// profiles, interaction rules) and optimization run audit trail.
package store

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldplan/allocator/internal/domain"
)

// Custom validation errors
var (
	ErrInvalidFieldArea = errors.New("field area must be positive")
	ErrInvalidCropID    = errors.New("crop ID is required")
)

// FieldRecord is the persisted form of domain.Field.
type FieldRecord struct {
	ID             string    `gorm:"type:uuid;primary_key"`
	Name           string    `gorm:"type:varchar(100);not null"`
	AreaM2         float64   `gorm:"type:decimal(12,2);not null"`
	DailyFixedCost float64   `gorm:"type:decimal(10,2);not null"`
	FallowDays     int       `gorm:"not null;default:28"`
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
	DeletedAt      *time.Time `gorm:"index"`
}

// BeforeCreate implements a GORM hook for pre-creation validation and UUID generation.
func (f *FieldRecord) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	return f.Validate()
}

// BeforeUpdate implements a GORM hook for pre-update validation.
func (f *FieldRecord) BeforeUpdate(tx *gorm.DB) error {
	return f.Validate()
}

// Validate checks the record's invariants before it reaches the database.
func (f *FieldRecord) Validate() error {
	if f.AreaM2 <= 0 {
		return ErrInvalidFieldArea
	}
	return nil
}

// ToDomain converts the record to the scheduler-facing domain.Field.
func (f FieldRecord) ToDomain() domain.Field {
	return domain.Field{
		ID:             f.ID,
		Name:           f.Name,
		AreaM2:         f.AreaM2,
		DailyFixedCost: f.DailyFixedCost,
		FallowDays:     f.FallowDays,
	}
}

// FieldRecordFromDomain builds a FieldRecord ready for upsert from a domain.Field.
func FieldRecordFromDomain(f domain.Field) FieldRecord {
	return FieldRecord{
		ID:             f.ID,
		Name:           f.Name,
		AreaM2:         f.AreaM2,
		DailyFixedCost: f.DailyFixedCost,
		FallowDays:     f.FallowDays,
	}
}

// TableName specifies the database table name for FieldRecord.
func (FieldRecord) TableName() string {
	return "fields"
}

// CropRecord is the persisted form of domain.Crop. MaxRevenue is stored as a
// nullable column since an uncapped crop has no market ceiling.
type CropRecord struct {
	ID             string    `gorm:"type:uuid;primary_key"`
	Name           string    `gorm:"type:varchar(100);not null"`
	Variety        string    `gorm:"type:varchar(100)"`
	AreaPerUnitM2  float64   `gorm:"type:decimal(10,4);not null"`
	RevenuePerArea float64   `gorm:"type:decimal(10,2);not null"`
	MaxRevenue     *float64  `gorm:"type:decimal(12,2)"`
	Groups         StringSlice `gorm:"type:varchar(500)"`
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
	DeletedAt      *time.Time `gorm:"index"`
}

// BeforeCreate implements a GORM hook for pre-creation validation and UUID generation.
func (c *CropRecord) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return c.Validate()
}

// Validate checks the record's invariants before it reaches the database.
func (c *CropRecord) Validate() error {
	if c.ID == "" {
		return ErrInvalidCropID
	}
	return nil
}

// ToDomain converts the record to the scheduler-facing domain.Crop.
func (c CropRecord) ToDomain() domain.Crop {
	return domain.Crop{
		ID:             c.ID,
		Name:           c.Name,
		Variety:        c.Variety,
		AreaPerUnitM2:  c.AreaPerUnitM2,
		RevenuePerArea: c.RevenuePerArea,
		MaxRevenue:     c.MaxRevenue,
		Groups:         []string(c.Groups),
	}
}

// CropRecordFromDomain builds a CropRecord ready for upsert from a domain.Crop.
func CropRecordFromDomain(c domain.Crop) CropRecord {
	return CropRecord{
		ID:             c.ID,
		Name:           c.Name,
		Variety:        c.Variety,
		AreaPerUnitM2:  c.AreaPerUnitM2,
		RevenuePerArea: c.RevenuePerArea,
		MaxRevenue:     c.MaxRevenue,
		Groups:         StringSlice(c.Groups),
	}
}

// TableName specifies the database table name for CropRecord.
func (CropRecord) TableName() string {
	return "crops"
}

// StageRequirementRecord is the persisted form of one domain.StageRequirement,
// scoped to the crop it belongs to.
type StageRequirementRecord struct {
	ID               string  `gorm:"type:uuid;primary_key"`
	CropID           string  `gorm:"type:uuid;not null;index"`
	StageName        string  `gorm:"type:varchar(50);not null"`
	StageOrder       int     `gorm:"not null"`
	BaseTemperature  float64 `gorm:"type:decimal(6,2);not null"`
	OptimalMin       float64 `gorm:"type:decimal(6,2);not null"`
	OptimalMax       float64 `gorm:"type:decimal(6,2);not null"`
	HighStressThresh float64 `gorm:"type:decimal(6,2);not null"`
	MaxTemperature   float64 `gorm:"type:decimal(6,2)"`
	RequiredGDD      float64 `gorm:"type:decimal(10,2);not null"`
	HarvestStartGDD  *float64 `gorm:"type:decimal(10,2)"`
}

// BeforeCreate implements a GORM hook for UUID generation.
func (s *StageRequirementRecord) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

// ToDomain converts the record to domain.StageRequirement.
func (s StageRequirementRecord) ToDomain() domain.StageRequirement {
	return domain.StageRequirement{
		StageName: s.StageName,
		Order:     s.StageOrder,
		Thermal: domain.ThermalProfile{
			BaseTemperature:  s.BaseTemperature,
			OptimalMin:       s.OptimalMin,
			OptimalMax:       s.OptimalMax,
			HighStressThresh: s.HighStressThresh,
			MaxTemperature:   s.MaxTemperature,
		},
		RequiredGDD:     s.RequiredGDD,
		HarvestStartGDD: s.HarvestStartGDD,
	}
}

// StageRequirementRecordFromDomain builds a StageRequirementRecord for a given crop.
func StageRequirementRecordFromDomain(cropID string, s domain.StageRequirement) StageRequirementRecord {
	return StageRequirementRecord{
		CropID:           cropID,
		StageName:        s.StageName,
		StageOrder:       s.Order,
		BaseTemperature:  s.Thermal.BaseTemperature,
		OptimalMin:       s.Thermal.OptimalMin,
		OptimalMax:       s.Thermal.OptimalMax,
		HighStressThresh: s.Thermal.HighStressThresh,
		MaxTemperature:   s.Thermal.MaxTemperature,
		RequiredGDD:      s.RequiredGDD,
		HarvestStartGDD:  s.HarvestStartGDD,
	}
}

// TableName specifies the database table name for StageRequirementRecord.
func (StageRequirementRecord) TableName() string {
	return "stage_requirements"
}

// InteractionRuleRecord is the persisted form of domain.InteractionRule.
type InteractionRuleRecord struct {
	ID            string  `gorm:"type:uuid;primary_key"`
	RuleType      string  `gorm:"type:varchar(30);not null"`
	SourceGroup   string  `gorm:"type:varchar(100);not null"`
	TargetGroup   string  `gorm:"type:varchar(100);not null"`
	ImpactRatio   float64 `gorm:"type:decimal(6,4);not null"`
	IsDirectional bool    `gorm:"not null"`
}

// BeforeCreate implements a GORM hook for UUID generation.
func (r *InteractionRuleRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// ToDomain converts the record to domain.InteractionRule.
func (r InteractionRuleRecord) ToDomain() domain.InteractionRule {
	return domain.InteractionRule{
		RuleType:      domain.RuleType(r.RuleType),
		SourceGroup:   r.SourceGroup,
		TargetGroup:   r.TargetGroup,
		ImpactRatio:   r.ImpactRatio,
		IsDirectional: r.IsDirectional,
	}
}

// InteractionRuleRecordFromDomain builds an InteractionRuleRecord from a domain.InteractionRule.
func InteractionRuleRecordFromDomain(r domain.InteractionRule) InteractionRuleRecord {
	return InteractionRuleRecord{
		RuleType:      string(r.RuleType),
		SourceGroup:   r.SourceGroup,
		TargetGroup:   r.TargetGroup,
		ImpactRatio:   r.ImpactRatio,
		IsDirectional: r.IsDirectional,
	}
}

// TableName specifies the database table name for InteractionRuleRecord.
func (InteractionRuleRecord) TableName() string {
	return "interaction_rules"
}
