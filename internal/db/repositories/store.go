package repositories

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store bundles the write-side repositories over one *gorm.DB.
// Inside Transaction every repository is bound to the same tx.
type Store struct {
	db          *gorm.DB
	lockTimeout time.Duration

	Players    *PlayerRepository
	Districts  *DistrictRepository
	CheckIns   *CheckInRepository
	Parties    *PartyRepository
	Aggregates *AggregateRepository
}

func NewStore(db *gorm.DB, lockTimeout time.Duration) *Store {
	return &Store{
		db:          db,
		lockTimeout: lockTimeout,
		Players:     NewPlayerRepository(db),
		Districts:   NewDistrictRepository(db),
		CheckIns:    NewCheckInRepository(db),
		Parties:     NewPartyRepository(db),
		Aggregates:  NewAggregateRepository(db),
	}
}

// DB returns the underlying handle.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Transaction runs fn atomically. Any error returned by fn rolls everything back.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := applyLockTimeout(tx, s.lockTimeout); err != nil {
			return err
		}
		return fn(NewStore(tx, s.lockTimeout))
	})
}

// applyLockTimeout bounds row-lock waits for the current transaction on Postgres.
func applyLockTimeout(tx *gorm.DB, timeout time.Duration) error {
	if timeout <= 0 || tx.Dialector.Name() != "postgres" {
		return nil
	}
	stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", timeout.Milliseconds())
	if err := tx.Exec(stmt).Error; err != nil {
		return fmt.Errorf("set lock timeout: %w", err)
	}
	return nil
}

func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// lockOrCreate inserts seed unless a row matching where already exists,
// then returns the row under an exclusive lock.
func lockOrCreate[T any](ctx context.Context, db *gorm.DB, seed *T, where map[string]interface{}) (*T, error) {
	if err := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(seed).Error; err != nil {
		return nil, fmt.Errorf("insert aggregate row: %w", err)
	}

	var row T
	if err := forUpdate(db.WithContext(ctx)).Where(where).First(&row).Error; err != nil {
		return nil, fmt.Errorf("lock aggregate row: %w", err)
	}
	return &row, nil
}
