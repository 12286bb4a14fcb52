package store

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldplan/allocator/internal/domain"
)

// OptimizationRunRecord is the audit trail entry the gateway's optimize and
// adjust handlers write after each successful call when a catalog
// Repository is configured: enough to reconstruct what was asked
// for, which algorithm answered, and what it produced, without persisting
// the full candidate pool that produced it.
type OptimizationRunRecord struct {
	ID             string    `gorm:"type:uuid;primary_key"`
	AlgorithmUsed  string    `gorm:"type:varchar(50);not null"`
	HorizonStart   time.Time `gorm:"not null"`
	HorizonEnd     time.Time `gorm:"not null"`
	FieldCount     int       `gorm:"not null"`
	CropCount      int       `gorm:"not null"`
	AllocationCount int      `gorm:"not null"`
	TotalProfit    float64   `gorm:"type:decimal(14,2)"`
	Diagnostic     string    `gorm:"type:text"`
	SolutionJSON   string    `gorm:"type:jsonb"`
	CreatedAt      time.Time `gorm:"not null"`
}

// BeforeCreate implements a GORM hook for UUID generation.
func (r *OptimizationRunRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the database table name for OptimizationRunRecord.
func (OptimizationRunRecord) TableName() string {
	return "optimization_runs"
}

// NewOptimizationRunRecord builds an audit record from a finished optimization
// result, serializing the solution's allocations for later inspection.
func NewOptimizationRunRecord(algorithmUsed string, horizon domain.Horizon, fieldCount, cropCount int, solution domain.Solution, diagnostic string) (OptimizationRunRecord, error) {
	body, err := json.Marshal(solution.Allocations)
	if err != nil {
		return OptimizationRunRecord{}, err
	}

	return OptimizationRunRecord{
		AlgorithmUsed:   algorithmUsed,
		HorizonStart:    horizon.Start,
		HorizonEnd:      horizon.End,
		FieldCount:      fieldCount,
		CropCount:       cropCount,
		AllocationCount: len(solution.Allocations),
		TotalProfit:     solution.TotalProfit(),
		Diagnostic:      diagnostic,
		SolutionJSON:    string(body),
	}, nil
}
