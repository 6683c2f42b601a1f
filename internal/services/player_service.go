package services

import (
	"context"
	"math"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm/clause"

	"pcwl/territory/internal/apperror"
	"pcwl/territory/internal/common"
	"pcwl/territory/internal/constants"
	"pcwl/territory/internal/db/repositories"
	"pcwl/territory/internal/logging"
	"pcwl/territory/internal/metrics"
	gormModels "pcwl/territory/internal/models/gorm"
)

// PlayerService owns the profile-side mutations of the player ledger.
type PlayerService struct {
	store   *repositories.Store
	metrics *metrics.MetricsRegistry
	now     Clock
}

func NewPlayerService(store *repositories.Store, m *metrics.MetricsRegistry, clock Clock) *PlayerService {
	return &PlayerService{
		store:   store,
		metrics: m,
		now:     clockOrDefault(clock),
	}
}

// EnsurePlayer returns the player with the username, creating it on first sight.
func (s *PlayerService) EnsurePlayer(ctx context.Context, username, displayName string) (*gormModels.Player, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperror.Validation(constants.ErrCodeUsernameRequired)
	}

	if p, err := s.store.Players.GetByUsername(ctx, username); err != nil || p != nil {
		return p, err
	}

	seed := gormModels.NewPlayer(username)
	seed.DisplayName = strings.TrimSpace(displayName)
	err := s.store.DB().WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "username"}}, DoNothing: true}).
		Create(seed).Error
	if err != nil {
		return nil, err
	}

	p, err := s.store.Players.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if p != nil && p.ID == seed.ID {
		logging.Info("Player created", "player_id", p.ID, "username", p.Username)
	}
	return p, nil
}

func (s *PlayerService) GetPlayer(ctx context.Context, playerID uint) (*gormModels.Player, error) {
	p, err := s.store.Players.GetByID(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperror.NotFound(constants.ErrCodePlayerNotFound)
	}
	return p, nil
}

// StartCharge arms a 3x multiplier for the next check-in unless a charge cooldown is running.
func (s *PlayerService) StartCharge(ctx context.Context, playerID uint) (*gormModels.Player, error) {
	var player *gormModels.Player
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		now := s.now()
		p, err := tx.Players.LockByID(ctx, playerID)
		if err != nil {
			return err
		}
		if p == nil {
			return apperror.NotFound(constants.ErrCodePlayerNotFound)
		}

		cooldowns := p.Cooldowns.Data()
		if remaining := cooldownRemaining(cooldowns, cooldownCharge, now); remaining > 0 {
			return apperror.Cooldown(string(cooldownCharge), remaining)
		}

		p.NextCheckinMultiplier = constants.ChargeAttackMultiplier
		startCooldown(&cooldowns, cooldownCharge, constants.CooldownCharge, "", now)
		p.Cooldowns = datatypes.NewJSONType(cooldowns)
		if err := tx.Players.SaveLedger(ctx, p); err != nil {
			return err
		}
		player = p
		return nil
	})
	if err != nil {
		if code := apperror.Code(err); code != "" {
			s.metrics.ObserveRejection(code)
		}
		return nil, err
	}

	s.metrics.ObserveCharge()
	logging.Info("Charge started", "player_id", playerID)
	return player, nil
}

// SetHomeDistrict reassigns the player's home, provisioning the district when needed.
// An empty code clears the home district.
func (s *PlayerService) SetHomeDistrict(ctx context.Context, playerID uint, code, name string) (*gormModels.Player, error) {
	code = common.NormalizeDistrictCode(code)
	name = common.NormalizeDistrictName(name)

	var player *gormModels.Player
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		p, err := tx.Players.LockByID(ctx, playerID)
		if err != nil {
			return err
		}
		if p == nil {
			return apperror.NotFound(constants.ErrCodePlayerNotFound)
		}

		p.HomeDistrictCode, p.HomeDistrictName, p.HomeDistrictID = "", "", nil
		if code != "" {
			district, err := tx.Districts.Ensure(ctx, code, name)
			if err != nil {
				return err
			}
			p.HomeDistrictCode = district.Code
			p.HomeDistrictName = district.Name
			p.HomeDistrictID = &district.ID
		}
		if err := tx.Players.SaveHome(ctx, p); err != nil {
			return err
		}
		player = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.Info("Home district set", "player_id", playerID, "district", code)
	return player, nil
}

// LocationInput is a client-reported position, trusted as given.
type LocationInput struct {
	Lng          *float64
	Lat          *float64
	DistrictCode string
	DistrictName string
	Source       string
}

// UpdateLastKnownLocation records where the player currently is.
func (s *PlayerService) UpdateLastKnownLocation(ctx context.Context, playerID uint, in LocationInput) (*gormModels.Player, error) {
	code := common.NormalizeDistrictCode(in.DistrictCode)
	if code == "" {
		return nil, apperror.Validation(constants.ErrCodeDistrictCodeRequired)
	}
	source := strings.TrimSpace(in.Source)
	if source == "" {
		source = constants.LocationSourceProfile
	}

	var player *gormModels.Player
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		p, err := tx.Players.LockByID(ctx, playerID)
		if err != nil {
			return err
		}
		if p == nil {
			return apperror.NotFound(constants.ErrCodePlayerNotFound)
		}

		loc := &gormModels.Location{
			DistrictID:   code,
			DistrictName: common.NormalizeDistrictName(in.DistrictName),
			Timestamp:    s.now().UnixMilli(),
			Source:       source,
		}
		if finite(in.Lng) && finite(in.Lat) {
			loc.Lng, loc.Lat = in.Lng, in.Lat
		}
		p.LastKnownLocation = datatypes.NewJSONType(loc)
		if err := tx.Players.SaveLedger(ctx, p); err != nil {
			return err
		}
		player = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return player, nil
}

func finite(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}
