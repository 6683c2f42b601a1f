package constants

import "time"

type (
	APIStatus   string
	CachePrefix string
)

const (
	APIStatusOk    APIStatus = "ok"
	APIStatusError APIStatus = "error"

	CachePrefixLeaderboard    CachePrefix = "LEADERBOARD_"
	CachePrefixPlayerInsights CachePrefix = "PLAYER_INSIGHTS_"
)

// Scoring
const (
	PointsPerCheckIn       = 10
	ChargeAttackMultiplier = 3
	MaxHistoryEntries      = 50
	MaxPartyMembers        = 4
	MinActiveDistrictCount = 2
)

// Party multipliers, kept as decimal strings so the engine can parse them exactly.
const (
	PartyAttackBonusPerPlayer          = "2"
	PartyContributionDistrictPerPlayer = "2.5"
	PartyContributionPlayerMultiplier  = "5"
)

const (
	DefaultPartyDuration = 3 * time.Hour

	CooldownAttack       = 3 * time.Minute
	CooldownDefendLocal  = 3 * time.Minute
	CooldownDefendRemote = 10 * time.Minute
	CooldownCharge       = 2 * time.Minute
)

// District ledger and leaderboard tuning
const (
	DistrictBaseStrength      = 2000
	DistrictSecureThreshold   = 200
	DistrictRecentThreshold   = 100
	DistrictRecentWindow      = 24 * time.Hour
	DistrictNameMaxLength     = 120
	DistrictCodeMaxLength     = 64
	LeaderboardDefaultLimit   = 50
	TopContributorsLimit      = 5
	PartyNameMinLength        = 3
	PartyNameMaxLength        = 48
	PartyCodeLength           = 8
	PartyCodeAlphabet         = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	PartyCodeGenerateAttempts = 5
)

const (
	PrecisionPrecise = "precise"

	LocationSourceGeolocated = "geolocated"
	LocationSourceProfile    = "profile"
	LocationSourceHomeRemote = "home-remote"
)
