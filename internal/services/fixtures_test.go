package services

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pcwl/territory/internal/common"
	"pcwl/territory/internal/db"
	"pcwl/territory/internal/db/repositories"
	"pcwl/territory/internal/metrics"
	gormModels "pcwl/territory/internal/models/gorm"
)

// Setup test database
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	// every connection to :memory: is a separate database
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return gdb
}

type testClock struct {
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// testEnv wires every service over one in-memory database and a pinned clock.
type testEnv struct {
	t        *testing.T
	ctx      context.Context
	db       *gorm.DB
	store    *repositories.Store
	reads    *repositories.LeaderboardRepository
	clock    *testClock
	metrics  *metrics.MetricsRegistry
	cache    common.CacheInterface
	checkIns *CheckInService
	players  *PlayerService
	parties  *PartyService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gdb := setupTestDB(t)
	clock := newTestClock()
	m := metrics.NewMetricsRegistry(prometheus.NewRegistry())
	store := repositories.NewStore(gdb, 0)

	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}

	return &testEnv{
		t:        t,
		ctx:      context.Background(),
		db:       gdb,
		store:    store,
		reads:    repositories.NewLeaderboardRepository(sqlx.NewDb(sqlDB, "sqlite3")),
		clock:    clock,
		metrics:  m,
		cache:    common.NewCacheService(time.Minute, time.Minute),
		checkIns: NewCheckInService(store, m, clock.Now),
		players:  NewPlayerService(store, m, clock.Now),
		parties:  NewPartyService(store, m, clock.Now, 3*time.Hour),
	}
}

// player creates a player with an optional home district.
func (e *testEnv) player(username, home string) *gormModels.Player {
	e.t.Helper()
	p, err := e.players.EnsurePlayer(e.ctx, username, "")
	if err != nil {
		e.t.Fatalf("EnsurePlayer(%s): %v", username, err)
	}
	if home != "" {
		if p, err = e.players.SetHomeDistrict(e.ctx, p.ID, home, "Home "+home); err != nil {
			e.t.Fatalf("SetHomeDistrict(%s): %v", username, err)
		}
	}
	return p
}

// locate pins the player's last known location to a district at the current clock.
func (e *testEnv) locate(p *gormModels.Player, code string) {
	e.t.Helper()
	if _, err := e.players.UpdateLastKnownLocation(e.ctx, p.ID, LocationInput{DistrictCode: code}); err != nil {
		e.t.Fatalf("UpdateLastKnownLocation(%d): %v", p.ID, err)
	}
}

// party forms a party led by the first player with every other player joined.
func (e *testEnv) party(leader *gormModels.Player, members ...*gormModels.Player) *gormModels.Party {
	e.t.Helper()
	party, err := e.parties.CreateParty(e.ctx, leader.ID, "")
	if err != nil {
		e.t.Fatalf("CreateParty: %v", err)
	}
	for _, m := range members {
		invite, err := e.parties.InvitePlayerToParty(e.ctx, leader.ID, m.ID)
		if err != nil {
			e.t.Fatalf("InvitePlayerToParty(%d): %v", m.ID, err)
		}
		if _, err := e.parties.RespondToPartyInvitation(e.ctx, invite.ID, m.ID, true); err != nil {
			e.t.Fatalf("RespondToPartyInvitation(%d): %v", m.ID, err)
		}
	}
	return party
}

func (e *testEnv) reload(p *gormModels.Player) *gormModels.Player {
	e.t.Helper()
	fresh, err := e.store.Players.GetByID(e.ctx, p.ID)
	if err != nil || fresh == nil {
		e.t.Fatalf("reload player %d: %v", p.ID, err)
	}
	return fresh
}

func (e *testEnv) district(code string) *gormModels.District {
	e.t.Helper()
	d, err := e.store.Districts.GetByCode(e.ctx, code)
	if err != nil {
		e.t.Fatalf("GetByCode(%s): %v", code, err)
	}
	return d
}

func (e *testEnv) count(model interface{}, query string, args ...interface{}) int64 {
	e.t.Helper()
	var n int64
	q := e.db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		e.t.Fatalf("count: %v", err)
	}
	return n
}

func decimalFrom(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("decimal %q: %v", s, err)
	}
	return d
}
