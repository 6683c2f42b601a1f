package entities

import "database/sql"

// BondRow is a player's bond with one partner, joined to the partner's name.
type BondRow struct {
	PartnerID                uint         `db:"partner_id"`
	Username                 string       `db:"username"`
	DisplayName              string       `db:"display_name"`
	SharedCheckins           int          `db:"shared_checkins"`
	SharedAttackPoints       int          `db:"shared_attack_points"`
	SharedContributionPoints int          `db:"shared_contribution_points"`
	LastSharedAt             sql.NullTime `db:"last_shared_at"`
}

// ContributorRow is one supporter of a district, joined to their name.
type ContributorRow struct {
	SupporterID        uint         `db:"supporter_id"`
	Username           string       `db:"username"`
	DisplayName        string       `db:"display_name"`
	Points             int          `db:"contribution_points"`
	Checkins           int          `db:"contribution_checkins"`
	LastContributionAt sql.NullTime `db:"last_contribution_at"`
}

// PartyTotals sums a party's check-ins by kind.
type PartyTotals struct {
	AttackPoints         int `db:"attack_points"`
	AttackCheckins       int `db:"attack_checkins"`
	ContributionPoints   int `db:"contribution_points"`
	ContributionCheckins int `db:"contribution_checkins"`
}
