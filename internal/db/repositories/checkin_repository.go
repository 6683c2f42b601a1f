package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	gormModels "pcwl/territory/internal/models/gorm"
)

type CheckInRepository struct {
	db *gorm.DB
}

func NewCheckInRepository(db *gorm.DB) *CheckInRepository {
	return &CheckInRepository{db: db}
}

func (r *CheckInRepository) Create(ctx context.Context, c *gormModels.CheckIn) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("failed to create check-in: %w", err)
	}
	return nil
}

// Latest returns the player's most recent check-in, restricted to partyCode when set.
// Returns nil when there is none.
func (r *CheckInRepository) Latest(ctx context.Context, playerID uint, partyCode string) (*gormModels.CheckIn, error) {
	q := r.db.WithContext(ctx).Where("player_id = ?", playerID)
	if partyCode != "" {
		q = q.Where("party_code = ?", partyCode)
	}

	var checkIn gormModels.CheckIn
	if err := q.Order("occurred_at DESC").Order("id DESC").First(&checkIn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch latest check-in: %w", err)
	}
	return &checkIn, nil
}

// ListForPlayer returns the player's check-ins oldest first.
func (r *CheckInRepository) ListForPlayer(ctx context.Context, playerID uint) ([]gormModels.CheckIn, error) {
	var rows []gormModels.CheckIn
	err := r.db.WithContext(ctx).
		Where("player_id = ?", playerID).
		Order("occurred_at ASC").Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list check-ins: %w", err)
	}
	return rows, nil
}
