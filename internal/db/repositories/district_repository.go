package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pcwl/territory/internal/constants"
	gormModels "pcwl/territory/internal/models/gorm"
)

type DistrictRepository struct {
	db *gorm.DB
}

func NewDistrictRepository(db *gorm.DB) *DistrictRepository {
	return &DistrictRepository{db: db}
}

// Ensure provisions the district on first reference and refreshes its name.
// code must already be normalized.
func (r *DistrictRepository) Ensure(ctx context.Context, code, name string) (*gormModels.District, error) {
	seed := gormModels.District{
		Code:            code,
		Name:            name,
		BaseStrength:    constants.DistrictBaseStrength,
		CurrentStrength: constants.DistrictBaseStrength,
		IsActive:        true,
	}
	if seed.Name == "" {
		seed.Name = fmt.Sprintf("District %s", code)
	}

	db := r.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return nil, fmt.Errorf("failed to provision district: %w", err)
	}

	var district gormModels.District
	if err := db.Where("code = ?", code).First(&district).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch district: %w", err)
	}

	updates := map[string]interface{}{}
	if name != "" && district.Name != name {
		updates["name"] = name
		district.Name = name
	}
	if !district.IsActive {
		updates["is_active"] = true
		district.IsActive = true
	}
	if len(updates) > 0 {
		if err := db.Model(&district).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to refresh district: %w", err)
		}
	}
	return &district, nil
}

// GetByCode returns nil when the district does not exist.
func (r *DistrictRepository) GetByCode(ctx context.Context, code string) (*gormModels.District, error) {
	var district gormModels.District
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&district).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch district: %w", err)
	}
	return &district, nil
}

// ApplyDelta folds one check-in's signed delta into the district totals atomically.
func (r *DistrictRepository) ApplyDelta(ctx context.Context, code string, delta int, at time.Time) error {
	defended, attacked := 0, 0
	if delta > 0 {
		defended = delta
	} else {
		attacked = -delta
	}

	res := r.db.WithContext(ctx).
		Model(&gormModels.District{}).
		Where("code = ?", code).
		UpdateColumns(map[string]interface{}{
			"current_strength":      gorm.Expr("current_strength + ?", delta),
			"defended_points_total": gorm.Expr("defended_points_total + ?", defended),
			"attacked_points_total": gorm.Expr("attacked_points_total + ?", attacked),
			"checkin_total":         gorm.Expr("checkin_total + 1"),
			"last_activity_at":      at,
			"updated_at":            at,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to apply district delta: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("failed to apply district delta: district %q missing", code)
	}
	return nil
}
