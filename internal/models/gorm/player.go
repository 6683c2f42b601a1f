package gorm

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// CooldownEntry records one running cooldown. All instants are epoch milliseconds.
type CooldownEntry struct {
	Deadline  int64  `json:"deadline"`
	Mode      string `json:"mode,omitempty"`
	Duration  int64  `json:"duration"`
	StartedAt int64  `json:"startedAt"`
}

// CooldownState is keyed by cooldown kind rather than an open map.
type CooldownState struct {
	Attack *CooldownEntry `json:"attack,omitempty"`
	Defend *CooldownEntry `json:"defend,omitempty"`
	Charge *CooldownEntry `json:"charge,omitempty"`
}

// HistoryEntry is one element of Player.CheckinHistory, newest first.
type HistoryEntry struct {
	Timestamp         int64   `json:"timestamp"`
	DistrictID        string  `json:"districtId"`
	DistrictName      string  `json:"districtName"`
	Type              string  `json:"type"`
	Multiplier        float64 `json:"multiplier"`
	Ranged            bool    `json:"ranged"`
	Melee             bool    `json:"melee"`
	CooldownType      string  `json:"cooldownType"`
	CooldownMode      string  `json:"cooldownMode"`
	Points            int     `json:"points"`
	DistrictPoints    int     `json:"districtPoints"`
	PartySize         int     `json:"partySize"`
	PartyMultiplier   float64 `json:"partyMultiplier"`
	PartyContribution bool    `json:"partyContribution"`
	Precision         string  `json:"precision,omitempty"`
	PartyCode         string  `json:"partyCode,omitempty"`
	Synchronized      bool    `json:"synchronized,omitempty"`
}

// Location is the last place a player was seen.
type Location struct {
	Lng          *float64 `json:"lng,omitempty"`
	Lat          *float64 `json:"lat,omitempty"`
	DistrictID   string   `json:"districtId"`
	DistrictName string   `json:"districtName"`
	Timestamp    int64    `json:"timestamp"`
	Source       string   `json:"source"`
}

type Player struct {
	ID          uint   `gorm:"column:id;primaryKey"`
	Username    string `gorm:"column:username;size:50;uniqueIndex;not null"`
	DisplayName string `gorm:"column:display_name;size:100"`
	IsActive    bool   `gorm:"column:is_active;default:true"`

	Score        int             `gorm:"column:score;not null;default:0"`
	Checkins     int             `gorm:"column:checkins;not null;default:0"`
	AttackPoints int             `gorm:"column:attack_points;not null;default:0"`
	DefendPoints int             `gorm:"column:defend_points;not null;default:0"`
	AttackRatio  decimal.Decimal `gorm:"column:attack_ratio;type:decimal(8,2);not null;default:0"`
	DefendRatio  decimal.Decimal `gorm:"column:defend_ratio;type:decimal(8,2);not null;default:0"`

	HomeDistrictCode string `gorm:"column:home_district_code;size:64"`
	HomeDistrictName string `gorm:"column:home_district_name;size:120"`
	HomeDistrictID   *uint  `gorm:"column:home_district_id;index"`

	NextCheckinMultiplier int                                `gorm:"column:next_checkin_multiplier;not null;default:1"`
	Cooldowns             datatypes.JSONType[CooldownState]  `gorm:"column:cooldowns"`
	CheckinHistory        datatypes.JSONType[[]HistoryEntry] `gorm:"column:checkin_history"`
	LastKnownLocation     datatypes.JSONType[*Location]      `gorm:"column:last_known_location"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`

	HomeDistrict *District `gorm:"foreignKey:HomeDistrictID"`
}

// TableName specifies the table name for GORM
func (Player) TableName() string {
	return "players"
}

// NewPlayer returns a player with empty ledgers.
func NewPlayer(username string) *Player {
	return &Player{
		Username:              username,
		IsActive:              true,
		AttackRatio:           decimal.Zero,
		DefendRatio:           decimal.Zero,
		NextCheckinMultiplier: 1,
		Cooldowns:             datatypes.NewJSONType(CooldownState{}),
		CheckinHistory:        datatypes.NewJSONType([]HistoryEntry{}),
		LastKnownLocation:     datatypes.NewJSONType[*Location](nil),
	}
}
