package repositories

import (
	"context"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"pcwl/territory/internal/constants"
	gormModels "pcwl/territory/internal/models/gorm"
)

// AggregateRepository maintains the derived ledgers updated alongside check-ins.
type AggregateRepository struct {
	db *gorm.DB
}

func NewAggregateRepository(db *gorm.DB) *AggregateRepository {
	return &AggregateRepository{db: db}
}

// EngagementDelta is one attack folded into a (home, target) engagement.
type EngagementDelta struct {
	HomeCode   string
	HomeName   string
	TargetCode string
	TargetName string
	Points     int
	PartyCode  string
	At         time.Time
}

// RecordEngagement skips attacks without a home district or without points.
func (r *AggregateRepository) RecordEngagement(ctx context.Context, d EngagementDelta) error {
	if d.HomeCode == "" || d.TargetCode == "" || d.Points <= 0 {
		return nil
	}

	row, err := lockOrCreate(ctx, r.db, &gormModels.DistrictEngagement{
		HomeDistrictCode:   d.HomeCode,
		HomeDistrictName:   d.HomeName,
		TargetDistrictCode: d.TargetCode,
		TargetDistrictName: d.TargetName,
		Metadata:           datatypes.JSONMap{},
	}, map[string]interface{}{
		"home_district_code":   d.HomeCode,
		"target_district_code": d.TargetCode,
	})
	if err != nil {
		return err
	}

	if d.HomeName != "" {
		row.HomeDistrictName = d.HomeName
	}
	if d.TargetName != "" {
		row.TargetDistrictName = d.TargetName
	}
	row.AttackPointsTotal += d.Points
	row.AttackCheckins++
	if row.Metadata == nil {
		row.Metadata = datatypes.JSONMap{}
	}
	if d.PartyCode != "" {
		row.PartyAttackCheckins++
		row.Metadata["last_party_code"] = d.PartyCode
	}
	row.LastAttackAt = &d.At

	if err := r.db.WithContext(ctx).Save(row).Error; err != nil {
		return fmt.Errorf("failed to save engagement: %w", err)
	}
	return nil
}

// RecordPlayerContribution adds a signed district delta to the player's per-district totals.
func (r *AggregateRepository) RecordPlayerContribution(ctx context.Context, playerID, districtID uint, action constants.Action, points int, at time.Time) error {
	row, err := lockOrCreate(ctx, r.db, &gormModels.PlayerDistrictContribution{
		PlayerID:   playerID,
		DistrictID: districtID,
	}, map[string]interface{}{
		"player_id":   playerID,
		"district_id": districtID,
	})
	if err != nil {
		return err
	}

	if points < 0 {
		points = -points
	}
	if action == constants.ActionAttack {
		row.AttackPointsTotal += points
		row.AttackCheckins++
	} else {
		row.DefendPointsTotal += points
		row.DefendCheckins++
	}
	row.LastCheckinAt = &at

	if err := r.db.WithContext(ctx).Save(row).Error; err != nil {
		return fmt.Errorf("failed to save player contribution: %w", err)
	}
	return nil
}

// RecordContributionStat credits a supporter for defending someone else's home district.
func (r *AggregateRepository) RecordContributionStat(ctx context.Context, districtCode string, supporterID uint, points int, at time.Time) error {
	if districtCode == "" || points <= 0 {
		return nil
	}

	row, err := lockOrCreate(ctx, r.db, &gormModels.DistrictContributionStat{
		DistrictCode: districtCode,
		SupporterID:  supporterID,
	}, map[string]interface{}{
		"district_code": districtCode,
		"supporter_id":  supporterID,
	})
	if err != nil {
		return err
	}

	row.ContributionPoints += points
	row.ContributionCheckins++
	row.LastContributionAt = &at

	if err := r.db.WithContext(ctx).Omit("Supporter").Save(row).Error; err != nil {
		return fmt.Errorf("failed to save contribution stat: %w", err)
	}
	return nil
}

// RecordBond updates both directed rows between player and partner.
func (r *AggregateRepository) RecordBond(ctx context.Context, playerID, partnerID uint, attackPoints, contributionPoints int, at time.Time) error {
	attackPoints = max(attackPoints, 0)
	contributionPoints = max(contributionPoints, 0)

	for _, pair := range [][2]uint{{playerID, partnerID}, {partnerID, playerID}} {
		row, err := lockOrCreate(ctx, r.db, &gormModels.PlayerPartyBond{
			PlayerID:  pair[0],
			PartnerID: pair[1],
		}, map[string]interface{}{
			"player_id":  pair[0],
			"partner_id": pair[1],
		})
		if err != nil {
			return err
		}

		row.SharedCheckins++
		row.SharedAttackPoints += attackPoints
		row.SharedContributionPoints += contributionPoints
		row.LastSharedAt = &at

		if err := r.db.WithContext(ctx).Omit("Partner").Save(row).Error; err != nil {
			return fmt.Errorf("failed to save party bond: %w", err)
		}
	}
	return nil
}
