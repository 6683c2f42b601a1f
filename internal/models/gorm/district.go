package gorm

import "time"

type District struct {
	ID                  uint       `gorm:"column:id;primaryKey"`
	Code                string     `gorm:"column:code;size:64;uniqueIndex;not null"`
	Name                string     `gorm:"column:name;size:120"`
	BaseStrength        int        `gorm:"column:base_strength;not null;default:2000"`
	CurrentStrength     int        `gorm:"column:current_strength;not null;default:2000"`
	DefendedPointsTotal int        `gorm:"column:defended_points_total;not null;default:0"`
	AttackedPointsTotal int        `gorm:"column:attacked_points_total;not null;default:0"`
	CheckinTotal        int        `gorm:"column:checkin_total;not null;default:0"`
	LastActivityAt      *time.Time `gorm:"column:last_activity_at"`
	IsActive            bool       `gorm:"column:is_active;default:true"`
	CreatedAt           time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (District) TableName() string {
	return "districts"
}
