package responses

import "time"

type PartnerSummary struct {
	Username                 string     `json:"username"`
	DisplayName              string     `json:"display_name"`
	SharedCheckins           int        `json:"shared_checkins"`
	SharedAttackPoints       int        `json:"shared_attack_points"`
	SharedContributionPoints int        `json:"shared_contribution_points"`
	LastSharedAt             *time.Time `json:"last_shared_at"`
}

type ContributorSummary struct {
	Username           string     `json:"username"`
	DisplayName        string     `json:"display_name"`
	Points             int        `json:"points"`
	Checkins           int        `json:"checkins"`
	LastContributionAt *time.Time `json:"last_contribution_at"`
}

type PartyMemberSummary struct {
	Username         string `json:"username"`
	DisplayName      string `json:"display_name"`
	HomeDistrictCode string `json:"home_district_code"`
	IsLeader         bool   `json:"is_leader"`
	IsSelf           bool   `json:"is_self"`
}

type PartySummary struct {
	Code                         string               `json:"code"`
	Name                         string               `json:"name"`
	ExpiresAt                    time.Time            `json:"expires_at"`
	SecondsRemaining             int                  `json:"seconds_remaining"`
	Size                         int                  `json:"size"`
	AttackMultiplier             float64              `json:"attack_multiplier"`
	ContributionMultiplier       float64              `json:"contribution_multiplier"`
	PlayerContributionMultiplier float64              `json:"player_contribution_multiplier"`
	AttackPoints                 int                  `json:"attack_points"`
	ContributionPoints           int                  `json:"contribution_points"`
	AttackCheckins               int                  `json:"attack_checkins"`
	ContributionCheckins         int                  `json:"contribution_checkins"`
	Focus                        string               `json:"focus"`
	Members                      []PartyMemberSummary `json:"members"`
	IsLeader                     bool                 `json:"is_leader"`
}

type PlayerInsightsResponse struct {
	BestPartner     *PartnerSummary      `json:"best_partner"`
	TopContributors []ContributorSummary `json:"top_contributors"`
	Party           *PartySummary        `json:"party"`
}
