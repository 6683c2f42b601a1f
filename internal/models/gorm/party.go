package gorm

import (
	"time"

	"pcwl/territory/internal/constants"
)

type Party struct {
	ID        uint                  `gorm:"column:id;primaryKey"`
	Code      string                `gorm:"column:code;size:16;uniqueIndex;not null"`
	Name      string                `gorm:"column:name;size:48"`
	LeaderID  uint                  `gorm:"column:leader_id;not null;index"`
	Status    constants.PartyStatus `gorm:"column:status;size:16;not null;default:'active';index"`
	ExpiresAt time.Time             `gorm:"column:expires_at;not null;index"`
	EndedAt   *time.Time            `gorm:"column:ended_at"`
	CreatedAt time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time             `gorm:"column:updated_at;autoUpdateTime"`

	Leader *Player `gorm:"foreignKey:LeaderID"`
}

// TableName specifies the table name for GORM
func (Party) TableName() string {
	return "parties"
}

// IsActive reports whether the party is still running at now.
func (p *Party) IsActive(now time.Time) bool {
	return p.Status == constants.PartyStatusActive && p.ExpiresAt.After(now)
}

type PartyMembership struct {
	ID       uint       `gorm:"column:id;primaryKey"`
	PartyID  uint       `gorm:"column:party_id;not null;index"`
	PlayerID uint       `gorm:"column:player_id;not null;index"`
	IsLeader bool       `gorm:"column:is_leader;not null;default:false"`
	JoinedAt time.Time  `gorm:"column:joined_at;not null"`
	LeftAt   *time.Time `gorm:"column:left_at;index"`

	Party  *Party  `gorm:"foreignKey:PartyID"`
	Player *Player `gorm:"foreignKey:PlayerID"`
}

// TableName specifies the table name for GORM
func (PartyMembership) TableName() string {
	return "party_memberships"
}

type PartyInvitation struct {
	ID           uint                    `gorm:"column:id;primaryKey"`
	PartyID      uint                    `gorm:"column:party_id;not null;index:idx_invitation_party_target"`
	FromPlayerID uint                    `gorm:"column:from_player_id;not null"`
	ToPlayerID   uint                    `gorm:"column:to_player_id;not null;index:idx_invitation_party_target"`
	Status       constants.RequestStatus `gorm:"column:status;size:16;not null;default:'pending'"`
	CreatedAt    time.Time               `gorm:"column:created_at"`
	RespondedAt  *time.Time              `gorm:"column:responded_at"`

	Party *Party `gorm:"foreignKey:PartyID"`
}

// TableName specifies the table name for GORM
func (PartyInvitation) TableName() string {
	return "party_invitations"
}

type PartyJoinRequest struct {
	ID           uint                    `gorm:"column:id;primaryKey"`
	PartyID      uint                    `gorm:"column:party_id;not null;index:idx_join_request_party_player"`
	FromPlayerID uint                    `gorm:"column:from_player_id;not null;index:idx_join_request_party_player"`
	Status       constants.RequestStatus `gorm:"column:status;size:16;not null;default:'pending'"`
	CreatedAt    time.Time               `gorm:"column:created_at"`
	RespondedAt  *time.Time              `gorm:"column:responded_at"`

	Party *Party `gorm:"foreignKey:PartyID"`
}

// TableName specifies the table name for GORM
func (PartyJoinRequest) TableName() string {
	return "party_join_requests"
}
