package gorm

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"pcwl/territory/internal/constants"
)

// CheckIn is the append-only audit row every ledger aggregate derives from.
type CheckIn struct {
	ID                      uint              `gorm:"column:id;primaryKey"`
	PlayerID                uint              `gorm:"column:player_id;not null;index"`
	OccurredAt              time.Time         `gorm:"column:occurred_at;not null;index"`
	DistrictCode            string            `gorm:"column:district_code;size:64;not null;index"`
	DistrictName            string            `gorm:"column:district_name;size:120"`
	Action                  constants.Action  `gorm:"column:action;size:16;not null"`
	Mode                    constants.Mode    `gorm:"column:mode;size:16;not null"`
	Multiplier              decimal.Decimal   `gorm:"column:multiplier;type:decimal(10,2);not null"`
	BasePoints              int               `gorm:"column:base_points;not null"`
	PointsAwarded           int               `gorm:"column:points_awarded;not null"`
	DistrictPointsDelta     int               `gorm:"column:district_points_delta;not null"`
	PartySizeSnapshot       int               `gorm:"column:party_size_snapshot;not null;default:1"`
	PartyMultiplierSnapshot decimal.Decimal   `gorm:"column:party_multiplier_snapshot;type:decimal(10,2);not null"`
	HomeDistrictCodeSnap    string            `gorm:"column:home_district_code_snapshot;size:64"`
	HomeDistrictNameSnap    string            `gorm:"column:home_district_name_snapshot;size:120"`
	PartyCode               string            `gorm:"column:party_code;size:16;index"`
	IsPartyContribution     bool              `gorm:"column:is_party_contribution;not null;default:false"`
	Metadata                datatypes.JSONMap `gorm:"column:metadata"`
	CreatedAt               time.Time         `gorm:"column:created_at;autoCreateTime"`

	Player *Player `gorm:"foreignKey:PlayerID"`
}

// TableName specifies the table name for GORM
func (CheckIn) TableName() string {
	return "check_ins"
}
