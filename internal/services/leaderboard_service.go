package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"pcwl/territory/internal/common"
	"pcwl/territory/internal/constants"
	"pcwl/territory/internal/db/repositories"
	"pcwl/territory/internal/metrics"
	"pcwl/territory/internal/models/dtos/responses"
	"pcwl/territory/internal/models/entities"
)

const (
	DistrictStatusSecure    = "secure"
	DistrictStatusOverrun   = "overrun"
	DistrictStatusContested = "contested"

	maxLeaderboardLimit = 200
	defaultPerHome      = 3
	maxPerHome          = 5
)

// LeaderboardService builds the cached player and district standings.
type LeaderboardService struct {
	repo    *repositories.LeaderboardRepository
	cache   common.CacheInterface
	metrics *metrics.MetricsRegistry
	ttl     time.Duration
	now     Clock
}

func NewLeaderboardService(
	repo *repositories.LeaderboardRepository,
	cache common.CacheInterface,
	m *metrics.MetricsRegistry,
	ttl time.Duration,
	clock Clock,
) *LeaderboardService {
	return &LeaderboardService{
		repo:    repo,
		cache:   cache,
		metrics: m,
		ttl:     ttl,
		now:     clockOrDefault(clock),
	}
}

// ClassifyDistrictState labels a district by its net defended-minus-attacked volume.
func ClassifyDistrictState(defended, attacked, threshold int) string {
	net := defended - attacked
	switch {
	case net >= threshold:
		return DistrictStatusSecure
	case net <= -threshold:
		return DistrictStatusOverrun
	default:
		return DistrictStatusContested
	}
}

func (s *LeaderboardService) Leaderboard(ctx context.Context, limit int) (*responses.LeaderboardResponse, error) {
	if limit <= 0 || limit > maxLeaderboardLimit {
		limit = constants.LeaderboardDefaultLimit
	}
	key := fmt.Sprintf("%s%d", constants.CachePrefixLeaderboard, limit)

	board, hit, err := common.GetOrSet(s.cache, key, s.ttl, func() (responses.LeaderboardResponse, error) {
		return s.build(ctx, limit)
	})
	s.metrics.ObserveCache("leaderboard", hit)
	if err != nil {
		return nil, err
	}
	return &board, nil
}

func (s *LeaderboardService) build(ctx context.Context, limit int) (responses.LeaderboardResponse, error) {
	now := s.now()
	var (
		players   []entities.PlayerStanding
		districts []entities.DistrictStanding
		recent    map[string]entities.DistrictActivity
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		players, err = s.repo.TopPlayers(gctx, limit)
		return err
	})
	g.Go(func() error {
		var err error
		districts, err = s.repo.Districts(gctx, limit)
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = s.repo.ActivitySince(gctx, now.Add(-constants.DistrictRecentWindow))
		return err
	})
	if err := g.Wait(); err != nil {
		return responses.LeaderboardResponse{}, err
	}

	board := responses.LeaderboardResponse{
		Players:     make([]responses.PlayerBoardEntry, 0, len(players)),
		Districts:   make([]responses.DistrictBoardEntry, 0, len(districts)),
		GeneratedAt: now,
	}
	for _, p := range players {
		board.Players = append(board.Players, responses.PlayerBoardEntry{
			Username:         p.Username,
			DisplayName:      p.DisplayName,
			Score:            p.Score,
			AttackPoints:     p.AttackPoints,
			DefendPoints:     p.DefendPoints,
			Checkins:         p.Checkins,
			HomeDistrictCode: p.HomeDistrictCode,
			HomeDistrictName: p.HomeDistrictName,
		})
	}
	for _, d := range districts {
		name := d.Name
		if name == "" {
			name = fmt.Sprintf("District %s", d.Code)
		}
		r := recent[d.Code]
		board.Districts = append(board.Districts, responses.DistrictBoardEntry{
			ID:           d.Code,
			Name:         name,
			Score:        d.CurrentStrength,
			Change:       d.CurrentStrength - d.BaseStrength,
			Defended:     d.Defended,
			Attacked:     d.Attacked,
			Status:       ClassifyDistrictState(d.Defended, d.Attacked, constants.DistrictSecureThreshold),
			RecentChange: r.Defended - r.Attacked,
			RecentStatus: ClassifyDistrictState(r.Defended, r.Attacked, constants.DistrictRecentThreshold),
		})
	}
	return board, nil
}

// DistrictStrategy summarizes where each home district focuses its attacks.
func (s *LeaderboardService) DistrictStrategy(ctx context.Context, perHome int) (*responses.DistrictStrategyResponse, error) {
	if perHome <= 0 {
		perHome = defaultPerHome
	}
	perHome = min(perHome, maxPerHome)

	rows, err := s.repo.Engagements(ctx)
	if err != nil {
		return nil, err
	}

	resp := &responses.DistrictStrategyResponse{Homes: []responses.HomeStrategy{}}
	var current *responses.HomeStrategy
	for _, row := range rows {
		if current == nil || current.HomeDistrictCode != row.HomeCode {
			resp.Homes = append(resp.Homes, responses.HomeStrategy{
				HomeDistrictCode: row.HomeCode,
				HomeDistrictName: nameOrPlaceholder(row.HomeName, row.HomeCode),
				TopTargets:       []responses.StrategyTarget{},
			})
			current = &resp.Homes[len(resp.Homes)-1]
		}
		current.TotalPoints += row.AttackPointsTotal
		current.TotalCheckins += row.AttackCheckins
		if len(current.TopTargets) < perHome {
			current.TopTargets = append(current.TopTargets, responses.StrategyTarget{
				TargetDistrictCode:  row.TargetCode,
				TargetDistrictName:  nameOrPlaceholder(row.TargetName, row.TargetCode),
				AttackPointsTotal:   row.AttackPointsTotal,
				AttackCheckins:      row.AttackCheckins,
				PartyAttackCheckins: row.PartyAttackCheckins,
				LastAttackAt:        nullTime(row.LastAttackAt),
			})
		}
	}
	for i := range resp.Homes {
		if len(resp.Homes[i].TopTargets) > 0 {
			primary := resp.Homes[i].TopTargets[0]
			resp.Homes[i].PrimaryTarget = &primary
		}
	}
	return resp, nil
}

func nameOrPlaceholder(name, code string) string {
	if name != "" {
		return name
	}
	return fmt.Sprintf("District %s", code)
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
