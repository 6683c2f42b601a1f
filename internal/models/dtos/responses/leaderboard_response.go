package responses

import "time"

type PlayerBoardEntry struct {
	Username         string `json:"username"`
	DisplayName      string `json:"display_name"`
	Score            int    `json:"score"`
	AttackPoints     int    `json:"attack_points"`
	DefendPoints     int    `json:"defend_points"`
	Checkins         int    `json:"checkins"`
	HomeDistrictCode string `json:"home_district_code"`
	HomeDistrictName string `json:"home_district_name"`
}

type DistrictBoardEntry struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Score        int    `json:"score"`
	Change       int    `json:"change"`
	Defended     int    `json:"defended"`
	Attacked     int    `json:"attacked"`
	Status       string `json:"status"`
	RecentChange int    `json:"recent_change"`
	RecentStatus string `json:"recent_status"`
}

type LeaderboardResponse struct {
	Players     []PlayerBoardEntry   `json:"players"`
	Districts   []DistrictBoardEntry `json:"districts"`
	GeneratedAt time.Time            `json:"generated_at"`
}

type StrategyTarget struct {
	TargetDistrictCode  string     `json:"target_district_code"`
	TargetDistrictName  string     `json:"target_district_name"`
	AttackPointsTotal   int        `json:"attack_points_total"`
	AttackCheckins      int        `json:"attack_checkins"`
	PartyAttackCheckins int        `json:"party_attack_checkins"`
	LastAttackAt        *time.Time `json:"last_attack_at"`
}

type HomeStrategy struct {
	HomeDistrictCode string           `json:"home_district_code"`
	HomeDistrictName string           `json:"home_district_name"`
	TotalPoints      int              `json:"total_points"`
	TotalCheckins    int              `json:"total_checkins"`
	PrimaryTarget    *StrategyTarget  `json:"primary_target"`
	TopTargets       []StrategyTarget `json:"top_targets"`
}

type DistrictStrategyResponse struct {
	Homes []HomeStrategy `json:"homes"`
}
