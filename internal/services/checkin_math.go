package services

import (
	"github.com/shopspring/decimal"

	"pcwl/territory/internal/constants"
)

var (
	partyAttackBonusPerPlayer          = decimal.RequireFromString(constants.PartyAttackBonusPerPlayer)
	partyContributionDistrictPerPlayer = decimal.RequireFromString(constants.PartyContributionDistrictPerPlayer)
	partyContributionPlayerMultiplier  = decimal.RequireFromString(constants.PartyContributionPlayerMultiplier)
	basePoints                         = decimal.NewFromInt(constants.PointsPerCheckIn)
)

// MultiplierInput is everything that feeds a check-in's multipliers.
// PartySize is zero when no party bonus applies.
type MultiplierInput struct {
	PendingMultiplier   int
	Mode                constants.Mode
	Precision           string
	Action              constants.Action
	IsPartyContribution bool
	PartySize           int
}

type Multipliers struct {
	Charge        decimal.Decimal
	LocalBonus    decimal.Decimal
	Effective     decimal.Decimal
	Player        decimal.Decimal
	District      decimal.Decimal
	TotalPlayer   decimal.Decimal
	TotalDistrict decimal.Decimal
}

func ComputeMultipliers(in MultiplierInput) Multipliers {
	m := Multipliers{
		Charge:     decimal.NewFromInt(int64(max(1, in.PendingMultiplier))),
		LocalBonus: decimal.NewFromInt(1),
		Player:     decimal.NewFromInt(1),
		District:   decimal.NewFromInt(1),
	}

	if in.Mode == constants.ModeLocal && in.Precision == constants.PrecisionPrecise &&
		(in.Action == constants.ActionAttack || in.IsPartyContribution) {
		m.LocalBonus = decimal.NewFromInt(2)
	}

	if in.PartySize > 0 {
		size := decimal.NewFromInt(int64(in.PartySize))
		if in.IsPartyContribution {
			m.District = partyContributionDistrictPerPlayer.Mul(size)
			m.Player = m.District.Mul(partyContributionPlayerMultiplier)
		} else {
			m.District = partyAttackBonusPerPlayer.Mul(size)
			m.Player = m.District
		}
	}

	m.Effective = m.Charge.Mul(m.LocalBonus)
	m.TotalPlayer = m.Effective.Mul(m.Player)
	m.TotalDistrict = m.Effective.Mul(m.District)
	return m
}

// RawDistrictPoints is the unsigned district damage of one check-in before splitting.
func (m Multipliers) RawDistrictPoints() int {
	return int(roundHalfUp(basePoints.Mul(m.TotalDistrict), 0).IntPart())
}

// roundHalfUp rounds non-negative values with ties going up.
func roundHalfUp(d decimal.Decimal, places int32) decimal.Decimal {
	return d.Round(places)
}

// SplitReward divides total evenly among n participants.
// The remainder goes one unit at a time to the first participants; every share is at least 1.
func SplitReward(total, n int) []int {
	if n <= 0 {
		return nil
	}
	if total < 0 {
		total = -total
	}
	shares := make([]int, n)
	base, rem := total/n, total%n
	for i := range shares {
		shares[i] = base
		if i < rem {
			shares[i]++
		}
		if shares[i] < 1 {
			shares[i] = 1
		}
	}
	return shares
}

// signedDelta applies the district sign convention: attacks subtract, defends add.
func signedDelta(action constants.Action, points int) int {
	if points < 0 {
		points = -points
	}
	if action == constants.ActionAttack {
		return -points
	}
	return points
}

// ratio is points/checkins rounded half-up to 2 places, or zero without check-ins.
func ratio(points, checkins int) decimal.Decimal {
	if checkins == 0 {
		return decimal.Zero
	}
	return roundHalfUp(decimal.NewFromInt(int64(points)).Div(decimal.NewFromInt(int64(checkins))), 2)
}
