package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"gorm.io/gorm"
)

// ReadDB wraps the ORM's pool with sqlx for read projections.
// driverName decides the bind style ("postgres" or "sqlite3").
func ReadDB(db *gorm.DB, driverName string) (*sqlx.DB, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("read db: %w", err)
	}
	return sqlx.NewDb(sqlDB, driverName), nil
}
