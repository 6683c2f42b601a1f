package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"pcwl/territory/internal/apperror"
	"pcwl/territory/internal/common"
	"pcwl/territory/internal/constants"
	"pcwl/territory/internal/db/repositories"
	"pcwl/territory/internal/metrics"
	"pcwl/territory/internal/models/dtos/responses"
	gormModels "pcwl/territory/internal/models/gorm"
)

const (
	PartyFocusAggressive = "aggressive"
	PartyFocusDefensive  = "defensive"
	PartyFocusBalanced   = "balanced"
)

// PartyInsightsService reports a player's party activity and cooperative history.
type PartyInsightsService struct {
	store   *repositories.Store
	reads   *repositories.LeaderboardRepository
	cache   common.CacheInterface
	metrics *metrics.MetricsRegistry
	ttl     time.Duration
	now     Clock
}

func NewPartyInsightsService(
	store *repositories.Store,
	reads *repositories.LeaderboardRepository,
	cache common.CacheInterface,
	m *metrics.MetricsRegistry,
	ttl time.Duration,
	clock Clock,
) *PartyInsightsService {
	return &PartyInsightsService{
		store:   store,
		reads:   reads,
		cache:   cache,
		metrics: m,
		ttl:     ttl,
		now:     clockOrDefault(clock),
	}
}

// cooperation is the cacheable part of a player's insights.
type cooperation struct {
	BestPartner     *responses.PartnerSummary      `json:"best_partner"`
	TopContributors []responses.ContributorSummary `json:"top_contributors"`
}

func (s *PartyInsightsService) PlayerInsights(ctx context.Context, playerID uint) (*responses.PlayerInsightsResponse, error) {
	player, err := s.store.Players.GetByID(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if player == nil {
		return nil, apperror.NotFound(constants.ErrCodePlayerNotFound)
	}

	key := fmt.Sprintf("%s%d", constants.CachePrefixPlayerInsights, playerID)
	coop, hit, err := common.GetOrSet(s.cache, key, s.ttl, func() (cooperation, error) {
		return s.cooperation(ctx, player)
	})
	s.metrics.ObserveCache("player_insights", hit)
	if err != nil {
		return nil, err
	}

	party, err := s.PartySummary(ctx, player)
	if err != nil {
		return nil, err
	}

	return &responses.PlayerInsightsResponse{
		BestPartner:     coop.BestPartner,
		TopContributors: coop.TopContributors,
		Party:           party,
	}, nil
}

func (s *PartyInsightsService) cooperation(ctx context.Context, player *gormModels.Player) (cooperation, error) {
	coop := cooperation{TopContributors: []responses.ContributorSummary{}}

	bond, err := s.reads.BestPartner(ctx, player.ID)
	if err != nil {
		return coop, err
	}
	if bond != nil {
		coop.BestPartner = &responses.PartnerSummary{
			Username:                 bond.Username,
			DisplayName:              bond.DisplayName,
			SharedCheckins:           bond.SharedCheckins,
			SharedAttackPoints:       bond.SharedAttackPoints,
			SharedContributionPoints: bond.SharedContributionPoints,
			LastSharedAt:             nullTime(bond.LastSharedAt),
		}
	}

	home := common.NormalizeDistrictCode(player.HomeDistrictCode)
	if home == "" {
		return coop, nil
	}
	rows, err := s.reads.TopContributors(ctx, home, player.ID, constants.TopContributorsLimit)
	if err != nil {
		return coop, err
	}
	for _, row := range rows {
		coop.TopContributors = append(coop.TopContributors, responses.ContributorSummary{
			Username:           row.Username,
			DisplayName:        row.DisplayName,
			Points:             row.Points,
			Checkins:           row.Checkins,
			LastContributionAt: nullTime(row.LastContributionAt),
		})
	}
	return coop, nil
}

// PartySummary describes the player's running party, or returns nil without one.
func (s *PartyInsightsService) PartySummary(ctx context.Context, player *gormModels.Player) (*responses.PartySummary, error) {
	now := s.now()

	var (
		party   *gormModels.Party
		members []gormModels.PartyMembership
	)
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		membership, err := activeMembership(ctx, tx, player.ID, false, now)
		if err != nil || membership == nil {
			return err
		}
		party = membership.Party
		members, err = tx.Parties.ActiveMembers(ctx, party.ID)
		return err
	})
	if err != nil || party == nil {
		return nil, err
	}

	totals, err := s.reads.PartyTotals(ctx, party.Code)
	if err != nil {
		return nil, err
	}

	size := len(members)
	sizeDec := decimal.NewFromInt(int64(size))
	contribution := partyContributionDistrictPerPlayer.Mul(sizeDec)

	summary := &responses.PartySummary{
		Code:                         party.Code,
		Name:                         party.Name,
		ExpiresAt:                    party.ExpiresAt,
		SecondsRemaining:             max(0, int(party.ExpiresAt.Sub(now).Seconds())),
		Size:                         size,
		AttackMultiplier:             partyAttackBonusPerPlayer.Mul(sizeDec).InexactFloat64(),
		ContributionMultiplier:       contribution.InexactFloat64(),
		PlayerContributionMultiplier: contribution.Mul(partyContributionPlayerMultiplier).InexactFloat64(),
		AttackPoints:                 totals.AttackPoints,
		ContributionPoints:           totals.ContributionPoints,
		AttackCheckins:               totals.AttackCheckins,
		ContributionCheckins:         totals.ContributionCheckins,
		Focus:                        partyFocus(totals.AttackPoints, totals.ContributionPoints),
		Members:                      make([]responses.PartyMemberSummary, 0, size),
	}
	for _, m := range members {
		entry := responses.PartyMemberSummary{IsLeader: m.IsLeader, IsSelf: m.PlayerID == player.ID}
		if m.Player != nil {
			entry.Username = m.Player.Username
			entry.DisplayName = m.Player.DisplayName
			entry.HomeDistrictCode = m.Player.HomeDistrictCode
		}
		if entry.IsSelf && m.IsLeader {
			summary.IsLeader = true
		}
		summary.Members = append(summary.Members, entry)
	}
	return summary, nil
}

func partyFocus(attackPoints, contributionPoints int) string {
	switch {
	case attackPoints > contributionPoints:
		return PartyFocusAggressive
	case contributionPoints > attackPoints:
		return PartyFocusDefensive
	default:
		return PartyFocusBalanced
	}
}
