package gorm

import (
	"time"

	"gorm.io/datatypes"
)

// DistrictEngagement accumulates attacks launched from one home district against a target.
type DistrictEngagement struct {
	ID                  uint              `gorm:"column:id;primaryKey"`
	HomeDistrictCode    string            `gorm:"column:home_district_code;size:64;not null;uniqueIndex:idx_engagement_home_target"`
	HomeDistrictName    string            `gorm:"column:home_district_name;size:120"`
	TargetDistrictCode  string            `gorm:"column:target_district_code;size:64;not null;uniqueIndex:idx_engagement_home_target"`
	TargetDistrictName  string            `gorm:"column:target_district_name;size:120"`
	AttackPointsTotal   int               `gorm:"column:attack_points_total;not null;default:0"`
	AttackCheckins      int               `gorm:"column:attack_checkins;not null;default:0"`
	PartyAttackCheckins int               `gorm:"column:party_attack_checkins;not null;default:0"`
	LastAttackAt        *time.Time        `gorm:"column:last_attack_at"`
	Metadata            datatypes.JSONMap `gorm:"column:metadata"`
	UpdatedAt           time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (DistrictEngagement) TableName() string {
	return "district_engagements"
}

type PlayerDistrictContribution struct {
	ID                uint       `gorm:"column:id;primaryKey"`
	PlayerID          uint       `gorm:"column:player_id;not null;uniqueIndex:idx_player_district_contribution"`
	DistrictID        uint       `gorm:"column:district_id;not null;uniqueIndex:idx_player_district_contribution"`
	DefendPointsTotal int        `gorm:"column:defend_points_total;not null;default:0"`
	AttackPointsTotal int        `gorm:"column:attack_points_total;not null;default:0"`
	DefendCheckins    int        `gorm:"column:defend_checkins;not null;default:0"`
	AttackCheckins    int        `gorm:"column:attack_checkins;not null;default:0"`
	LastCheckinAt     *time.Time `gorm:"column:last_checkin_at"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (PlayerDistrictContribution) TableName() string {
	return "player_district_contributions"
}

// DistrictContributionStat tracks support a player gave to someone else's home district.
type DistrictContributionStat struct {
	ID                   uint       `gorm:"column:id;primaryKey"`
	DistrictCode         string     `gorm:"column:district_code;size:64;not null;uniqueIndex:idx_contribution_district_supporter"`
	SupporterID          uint       `gorm:"column:supporter_id;not null;uniqueIndex:idx_contribution_district_supporter"`
	ContributionPoints   int        `gorm:"column:contribution_points;not null;default:0"`
	ContributionCheckins int        `gorm:"column:contribution_checkins;not null;default:0"`
	LastContributionAt   *time.Time `gorm:"column:last_contribution_at"`
	UpdatedAt            time.Time  `gorm:"column:updated_at;autoUpdateTime"`

	Supporter *Player `gorm:"foreignKey:SupporterID"`
}

// TableName specifies the table name for GORM
func (DistrictContributionStat) TableName() string {
	return "district_contribution_stats"
}

// PlayerPartyBond is stored as two directed rows (A->B and B->A).
type PlayerPartyBond struct {
	ID                       uint       `gorm:"column:id;primaryKey"`
	PlayerID                 uint       `gorm:"column:player_id;not null;uniqueIndex:idx_bond_player_partner"`
	PartnerID                uint       `gorm:"column:partner_id;not null;uniqueIndex:idx_bond_player_partner"`
	SharedCheckins           int        `gorm:"column:shared_checkins;not null;default:0"`
	SharedAttackPoints       int        `gorm:"column:shared_attack_points;not null;default:0"`
	SharedContributionPoints int        `gorm:"column:shared_contribution_points;not null;default:0"`
	LastSharedAt             *time.Time `gorm:"column:last_shared_at"`
	UpdatedAt                time.Time  `gorm:"column:updated_at;autoUpdateTime"`

	Partner *Player `gorm:"foreignKey:PartnerID"`
}

// TableName specifies the table name for GORM
func (PlayerPartyBond) TableName() string {
	return "player_party_bonds"
}

// AllModels lists every table in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&District{},
		&Player{},
		&CheckIn{},
		&Party{},
		&PartyMembership{},
		&PartyInvitation{},
		&PartyJoinRequest{},
		&DistrictEngagement{},
		&PlayerDistrictContribution{},
		&DistrictContributionStat{},
		&PlayerPartyBond{},
	}
}
