// Repository wraps the catalog and audit models behind a transactional
// data-access layer, grounded in the same db/cache/logger shape the crop
// manager and maintenance scheduler services use.
package store

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache" // v2.1.0
	"github.com/pkg/errors"         // v0.9.1
	"go.uber.org/zap"               // v1.27.0
	"gorm.io/gorm"

	"github.com/fieldplan/allocator/internal/domain"
)

const (
	catalogCacheTTL          = 10 * time.Minute
	catalogCacheCleanup      = 20 * time.Minute
	fieldsCacheKey           = "catalog:fields"
	cropsCacheKey            = "catalog:crops"
	interactionRulesCacheKey = "catalog:interaction_rules"
)

// Repository is the optimizer's single access point onto the catalog and
// run-audit tables.
type Repository struct {
	db     *gorm.DB
	cache  *cache.Cache
	logger *zap.Logger
}

// NewRepository creates a Repository over an existing *gorm.DB connection.
func NewRepository(db *gorm.DB, logger *zap.Logger) *Repository {
	return &Repository{
		db:     db,
		cache:  cache.New(catalogCacheTTL, catalogCacheCleanup),
		logger: logger.Named("store"),
	}
}

// AutoMigrate creates or updates the catalog and audit tables.
func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(
		&FieldRecord{},
		&CropRecord{},
		&StageRequirementRecord{},
		&InteractionRuleRecord{},
		&OptimizationRunRecord{},
	)
}

// LoadFields returns every catalogued field, preferring the in-process
// cache over a database round trip.
func (r *Repository) LoadFields(ctx context.Context) ([]domain.Field, error) {
	if cached, ok := r.cache.Get(fieldsCacheKey); ok {
		return cached.([]domain.Field), nil
	}

	var records []FieldRecord
	if err := r.db.WithContext(ctx).Find(&records).Error; err != nil {
		return nil, errors.Wrap(err, "failed to load fields")
	}

	out := make([]domain.Field, len(records))
	for i, rec := range records {
		out[i] = rec.ToDomain()
	}
	r.cache.Set(fieldsCacheKey, out, cache.DefaultExpiration)
	return out, nil
}

// LoadCrops returns every catalogued crop alongside its phenology profile,
// keyed by crop ID, ready to feed engine.Request.
func (r *Repository) LoadCrops(ctx context.Context) ([]domain.Crop, map[string][]domain.StageRequirement, error) {
	if cached, ok := r.cache.Get(cropsCacheKey); ok {
		bundle := cached.(cropBundle)
		return bundle.crops, bundle.profiles, nil
	}

	var cropRecords []CropRecord
	if err := r.db.WithContext(ctx).Find(&cropRecords).Error; err != nil {
		return nil, nil, errors.Wrap(err, "failed to load crops")
	}

	var stageRecords []StageRequirementRecord
	if err := r.db.WithContext(ctx).Order("stage_order asc").Find(&stageRecords).Error; err != nil {
		return nil, nil, errors.Wrap(err, "failed to load stage requirements")
	}

	profiles := make(map[string][]domain.StageRequirement)
	for _, sr := range stageRecords {
		profiles[sr.CropID] = append(profiles[sr.CropID], sr.ToDomain())
	}

	crops := make([]domain.Crop, len(cropRecords))
	for i, rec := range cropRecords {
		crops[i] = rec.ToDomain()
	}

	r.cache.Set(cropsCacheKey, cropBundle{crops: crops, profiles: profiles}, cache.DefaultExpiration)
	return crops, profiles, nil
}

type cropBundle struct {
	crops    []domain.Crop
	profiles map[string][]domain.StageRequirement
}

// LoadInteractionRules returns the catalogued crop-rotation interaction rules.
func (r *Repository) LoadInteractionRules(ctx context.Context) ([]domain.InteractionRule, error) {
	if cached, ok := r.cache.Get(interactionRulesCacheKey); ok {
		return cached.([]domain.InteractionRule), nil
	}

	var records []InteractionRuleRecord
	if err := r.db.WithContext(ctx).Find(&records).Error; err != nil {
		return nil, errors.Wrap(err, "failed to load interaction rules")
	}

	out := make([]domain.InteractionRule, len(records))
	for i, rec := range records {
		out[i] = rec.ToDomain()
	}
	r.cache.Set(interactionRulesCacheKey, out, cache.DefaultExpiration)
	return out, nil
}

// SaveCatalog upserts the given fields, crops (with their stage
// requirements), and interaction rules in a single transaction, then
// invalidates the in-process cache so the next Load* call reflects it.
func (r *Repository) SaveCatalog(ctx context.Context, fields []domain.Field, crops []domain.Crop, profiles map[string][]domain.StageRequirement, rules []domain.InteractionRule) error {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return errors.Wrap(tx.Error, "failed to start transaction")
	}
	defer tx.Rollback()

	for _, f := range fields {
		rec := FieldRecordFromDomain(f)
		if err := tx.Save(&rec).Error; err != nil {
			return errors.Wrapf(err, "failed to save field %s", f.ID)
		}
	}

	for _, c := range crops {
		rec := CropRecordFromDomain(c)
		if err := tx.Save(&rec).Error; err != nil {
			return errors.Wrapf(err, "failed to save crop %s", c.ID)
		}

		if err := tx.Where("crop_id = ?", c.ID).Delete(&StageRequirementRecord{}).Error; err != nil {
			return errors.Wrapf(err, "failed to clear stage requirements for crop %s", c.ID)
		}
		for _, stage := range profiles[c.ID] {
			stageRec := StageRequirementRecordFromDomain(c.ID, stage)
			if err := tx.Create(&stageRec).Error; err != nil {
				return errors.Wrapf(err, "failed to save stage requirement for crop %s", c.ID)
			}
		}
	}

	for _, rule := range rules {
		rec := InteractionRuleRecordFromDomain(rule)
		if err := tx.Create(&rec).Error; err != nil {
			return errors.Wrap(err, "failed to save interaction rule")
		}
	}

	if err := tx.Commit().Error; err != nil {
		return errors.Wrap(err, "failed to commit catalog transaction")
	}

	r.cache.Delete(fieldsCacheKey)
	r.cache.Delete(cropsCacheKey)
	r.cache.Delete(interactionRulesCacheKey)
	return nil
}

// RecordRun persists an optimization run's audit record.
func (r *Repository) RecordRun(ctx context.Context, run OptimizationRunRecord) error {
	if err := r.db.WithContext(ctx).Create(&run).Error; err != nil {
		return errors.Wrap(err, "failed to record optimization run")
	}
	return nil
}
