package api

import (
	"time"

	"gorm.io/gorm"

	"pcwl/territory/internal/common"
	"pcwl/territory/internal/config"
	"pcwl/territory/internal/db"
	"pcwl/territory/internal/db/repositories"
	"pcwl/territory/internal/metrics"
	"pcwl/territory/internal/services"
)

type Repositories struct {
	Store *repositories.Store
	Reads *repositories.LeaderboardRepository
}

type Services struct {
	Cache       common.CacheInterface
	CheckIns    *services.CheckInService
	Players     *services.PlayerService
	Parties     *services.PartyService
	Leaderboard *services.LeaderboardService
	Insights    *services.PartyInsightsService
}

type Dependencies struct {
	DB       *gorm.DB
	Repo     *Repositories
	Services *Services
	Metrics  *metrics.MetricsRegistry
}

// InitDependencies wires repositories and services over an open database.
// driverName selects the sqlx dialect for the read projections.
func InitDependencies(cfg *config.Config, gormDB *gorm.DB, driverName string, cache common.CacheInterface, metricsReg *metrics.MetricsRegistry, clock services.Clock) (*Dependencies, error) {
	reads, err := db.ReadDB(gormDB, driverName)
	if err != nil {
		return nil, err
	}

	repos := &Repositories{
		Store: repositories.NewStore(gormDB, cfg.LockTimeout),
		Reads: repositories.NewLeaderboardRepository(reads),
	}

	svcs := &Services{
		Cache:       cache,
		CheckIns:    services.NewCheckInService(repos.Store, metricsReg, clock),
		Players:     services.NewPlayerService(repos.Store, metricsReg, clock),
		Parties:     services.NewPartyService(repos.Store, metricsReg, clock, cfg.PartyDuration),
		Leaderboard: services.NewLeaderboardService(repos.Reads, cache, metricsReg, cfg.LeaderboardCacheTTL, clock),
		Insights:    services.NewPartyInsightsService(repos.Store, repos.Reads, cache, metricsReg, cfg.LeaderboardCacheTTL, clock),
	}

	return &Dependencies{
		DB:       gormDB,
		Repo:     repos,
		Services: svcs,
		Metrics:  metricsReg,
	}, nil
}

// NewCache picks Redis when configured and falls back to the in-process cache.
func NewCache(cfg *config.Config) common.CacheInterface {
	if cfg.UseRedis() {
		return common.NewRedisCacheService(common.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword))
	}
	return common.NewCacheService(time.Minute, 10*time.Minute)
}
