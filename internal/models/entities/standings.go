package entities

import (
	"database/sql"
)

// PlayerStanding is one row of the player leaderboard projection.
type PlayerStanding struct {
	ID               uint   `db:"id"`
	Username         string `db:"username"`
	DisplayName      string `db:"display_name"`
	Score            int    `db:"score"`
	AttackPoints     int    `db:"attack_points"`
	DefendPoints     int    `db:"defend_points"`
	Checkins         int    `db:"checkins"`
	HomeDistrictCode string `db:"home_district_code"`
	HomeDistrictName string `db:"home_district_name"`
}

// DistrictStanding is one row of the district ledger projection.
type DistrictStanding struct {
	Code            string       `db:"code"`
	Name            string       `db:"name"`
	BaseStrength    int          `db:"base_strength"`
	CurrentStrength int          `db:"current_strength"`
	Defended        int          `db:"defended_points_total"`
	Attacked        int          `db:"attacked_points_total"`
	CheckinTotal    int          `db:"checkin_total"`
	LastActivityAt  sql.NullTime `db:"last_activity_at"`
}

// DistrictActivity is the defended/attacked volume of one district inside a window.
type DistrictActivity struct {
	Code     string `db:"district_code"`
	Defended int    `db:"defended"`
	Attacked int    `db:"attacked"`
}

// EngagementRow is a (home, target) attack aggregate.
type EngagementRow struct {
	HomeCode            string       `db:"home_district_code"`
	HomeName            string       `db:"home_district_name"`
	TargetCode          string       `db:"target_district_code"`
	TargetName          string       `db:"target_district_name"`
	AttackPointsTotal   int          `db:"attack_points_total"`
	AttackCheckins      int          `db:"attack_checkins"`
	PartyAttackCheckins int          `db:"party_attack_checkins"`
	LastAttackAt        sql.NullTime `db:"last_attack_at"`
}
