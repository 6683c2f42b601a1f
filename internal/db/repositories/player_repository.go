package repositories

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"gorm.io/gorm"

	gormModels "pcwl/territory/internal/models/gorm"
)

// ledgerColumns are the Player fields owned by the check-in engine and charge.
var ledgerColumns = []string{
	"score",
	"checkins",
	"attack_points",
	"defend_points",
	"attack_ratio",
	"defend_ratio",
	"next_checkin_multiplier",
	"cooldowns",
	"checkin_history",
	"last_known_location",
	"updated_at",
}

type PlayerRepository struct {
	db *gorm.DB
}

func NewPlayerRepository(db *gorm.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// GetByID returns nil when the player does not exist.
func (r *PlayerRepository) GetByID(ctx context.Context, id uint) (*gormModels.Player, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

// GetByUsername returns nil when the player does not exist.
func (r *PlayerRepository) GetByUsername(ctx context.Context, username string) (*gormModels.Player, error) {
	return r.first(r.db.WithContext(ctx).Where("username = ?", username))
}

// LockByID selects the player FOR UPDATE.
func (r *PlayerRepository) LockByID(ctx context.Context, id uint) (*gormModels.Player, error) {
	return r.first(forUpdate(r.db.WithContext(ctx)).Where("id = ?", id))
}

// LockMany locks the given players in ascending id order and returns them in that order.
func (r *PlayerRepository) LockMany(ctx context.Context, ids []uint) ([]gormModels.Player, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	sorted := append([]uint(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var players []gormModels.Player
	err := forUpdate(r.db.WithContext(ctx)).
		Where("id IN ?", sorted).
		Order("id ASC").
		Find(&players).Error
	if err != nil {
		return nil, fmt.Errorf("failed to lock players: %w", err)
	}
	return players, nil
}

func (r *PlayerRepository) Create(ctx context.Context, p *gormModels.Player) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("failed to create player: %w", err)
	}
	return nil
}

// SaveLedger writes the engine-owned columns, including zero values.
func (r *PlayerRepository) SaveLedger(ctx context.Context, p *gormModels.Player) error {
	err := r.db.WithContext(ctx).
		Model(p).
		Select(ledgerColumns).
		Updates(p).Error
	if err != nil {
		return fmt.Errorf("failed to save player ledger: %w", err)
	}
	return nil
}

// SaveHome writes the home district columns.
func (r *PlayerRepository) SaveHome(ctx context.Context, p *gormModels.Player) error {
	err := r.db.WithContext(ctx).
		Model(p).
		Select("home_district_code", "home_district_name", "home_district_id", "updated_at").
		Updates(p).Error
	if err != nil {
		return fmt.Errorf("failed to save home district: %w", err)
	}
	return nil
}

func (r *PlayerRepository) first(q *gorm.DB) (*gormModels.Player, error) {
	var player gormModels.Player
	if err := q.First(&player).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch player: %w", err)
	}
	return &player, nil
}
