package services

import (
	"context"
	"errors"
	"math"
	"time"

	"gorm.io/datatypes"

	"pcwl/territory/internal/apperror"
	"pcwl/territory/internal/common"
	"pcwl/territory/internal/constants"
	"pcwl/territory/internal/db/repositories"
	"pcwl/territory/internal/logging"
	"pcwl/territory/internal/metrics"
	gormModels "pcwl/territory/internal/models/gorm"
)

type Coordinates struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// CheckInInput is an already-authenticated check-in request.
type CheckInInput struct {
	PlayerID     uint
	DistrictCode string
	DistrictName string
	Mode         constants.Mode
	Precision    string
	Coordinates  *Coordinates
	Metadata     map[string]interface{}
}

type CheckInResult struct {
	Player        *gormModels.Player
	CheckIn       *gormModels.CheckIn
	PointsAwarded int
	// Synchronized holds the check-ins replicated to co-located teammates.
	Synchronized []gormModels.CheckIn
}

// CheckInService scores check-ins and propagates them across a co-located party.
type CheckInService struct {
	store   *repositories.Store
	metrics *metrics.MetricsRegistry
	now     Clock
}

func NewCheckInService(store *repositories.Store, m *metrics.MetricsRegistry, clock Clock) *CheckInService {
	return &CheckInService{
		store:   store,
		metrics: m,
		now:     clockOrDefault(clock),
	}
}

// partyContext is the actor's party as seen at check-in time.
type partyContext struct {
	party *gormModels.Party
	// members are every active member in join order, locked.
	members []*gormModels.Player
	// inMajority is set when the actor stands in the party's active district.
	inMajority bool
	// teammates are the other members of that majority, in join order.
	teammates       []*gormModels.Player
	hasHomeTeammate bool
}

func (pc *partyContext) code() string {
	if pc.party == nil {
		return ""
	}
	return pc.party.Code
}

func (s *CheckInService) ApplyCheckIn(ctx context.Context, in CheckInInput) (*CheckInResult, error) {
	started := time.Now()

	code := common.NormalizeDistrictCode(in.DistrictCode)
	if code == "" {
		return nil, s.reject(apperror.Validation(constants.ErrCodeDistrictCodeRequired), in)
	}
	if !in.Mode.IsClientMode() {
		return nil, s.reject(apperror.Validation(constants.ErrCodeUnsupportedMode), in)
	}
	name := common.NormalizeDistrictName(in.DistrictName)

	var (
		result *CheckInResult
		err    error
	)
	for attempt := 1; ; attempt++ {
		err = s.store.Transaction(ctx, func(tx *repositories.Store) error {
			r, err := s.apply(ctx, tx, code, name, in)
			result = r
			return err
		})
		if !errors.Is(err, errPartyChanged) || attempt == maxLockAttempts {
			break
		}
		logging.Debug("Party changed while locking, retrying check-in", "player_id", in.PlayerID, "attempt", attempt)
	}
	if err != nil {
		return nil, s.reject(err, in)
	}

	c := result.CheckIn
	s.metrics.ObserveCheckIn(string(c.Action), string(c.Mode), c.IsPartyContribution, c.PointsAwarded, time.Since(started).Seconds())
	s.metrics.ObserveSyncedCheckIns(len(result.Synchronized))
	logging.Info("Check-in applied",
		"player_id", c.PlayerID,
		"district", c.DistrictCode,
		"action", c.Action,
		"mode", c.Mode,
		"points", c.PointsAwarded,
		"district_delta", c.DistrictPointsDelta,
		"party_code", c.PartyCode,
		"synchronized", len(result.Synchronized),
	)
	return result, nil
}

func (s *CheckInService) reject(err error, in CheckInInput) error {
	code := apperror.Code(err)
	if code == "" {
		logging.Error("Check-in failed", "player_id", in.PlayerID, "district", in.DistrictCode, "error", err)
		return err
	}
	s.metrics.ObserveRejection(code)
	if errors.Is(err, apperror.ErrCooldownActive) {
		logging.Debug("Check-in rejected by cooldown", "player_id", in.PlayerID, "district", in.DistrictCode, "error", err)
	}
	return err
}

func (s *CheckInService) apply(ctx context.Context, tx *repositories.Store, code, name string, in CheckInInput) (*CheckInResult, error) {
	now := s.now()

	locked, err := s.lockActorAndParty(ctx, tx, in.PlayerID)
	if err != nil {
		return nil, err
	}
	actor := locked[in.PlayerID]
	if actor == nil {
		return nil, apperror.NotFound(constants.ErrCodePlayerNotFound)
	}

	home := common.NormalizeDistrictCode(actor.HomeDistrictCode)
	action := constants.ActionAttack
	if home != "" && home == code {
		action = constants.ActionDefend
	}
	if in.Mode == constants.ModeRemote && action != constants.ActionDefend {
		return nil, apperror.Validation(constants.ErrCodeRemoteRequiresHome)
	}
	if in.Mode == constants.ModeRanged && action != constants.ActionAttack {
		return nil, apperror.Validation(constants.ErrCodeRangedRequiresAttack)
	}

	district, err := tx.Districts.Ensure(ctx, code, name)
	if err != nil {
		return nil, err
	}
	districtName := name
	if districtName == "" {
		districtName = district.Name
	}

	pc, err := s.resolveParty(ctx, tx, actor, code, locked, now)
	if err != nil {
		return nil, err
	}

	isContribution := false
	if pc.inMajority && pc.hasHomeTeammate {
		action = constants.ActionDefend
		isContribution = true
	}

	cooldowns := actor.Cooldowns.Data()
	if cooldownRemaining(cooldowns, cooldownCharge, now) > 0 {
		actor.NextCheckinMultiplier = max(actor.NextCheckinMultiplier, 1)
	}
	kind := cooldownKindFor(action)
	if remaining := cooldownRemaining(cooldowns, kind, now); remaining > 0 {
		return nil, apperror.Cooldown(string(kind), remaining)
	}

	partySize := 0
	if pc.inMajority {
		partySize = len(pc.members)
	}
	mult := ComputeMultipliers(MultiplierInput{
		PendingMultiplier:   actor.NextCheckinMultiplier,
		Mode:                in.Mode,
		Precision:           in.Precision,
		Action:              action,
		IsPartyContribution: isContribution,
		PartySize:           partySize,
	})
	raw := mult.RawDistrictPoints()

	participants := append([]*gormModels.Player{actor}, pc.teammates...)
	shares := SplitReward(raw, len(participants))

	sizeSnapshot := 1
	if pc.party != nil {
		sizeSnapshot = len(pc.members)
	}
	totalPlayer := roundHalfUp(mult.TotalPlayer, 2)
	partyMultiplier := roundHalfUp(mult.Player, 2)
	duration := cooldownDuration(action, in.Mode)
	coords := validCoordinates(in.Coordinates)
	metadata := checkInMetadata(in, coords, pc, isContribution)

	result := &CheckInResult{}
	for i, p := range participants {
		mode := in.Mode
		meta := metadata
		if i > 0 {
			mode = constants.ModeParty
			meta = synchronizedMetadata(metadata, actor)
		}

		pHome := common.NormalizeDistrictCode(p.HomeDistrictCode)
		delta := signedDelta(action, shares[i])
		checkIn := &gormModels.CheckIn{
			PlayerID:                p.ID,
			OccurredAt:              now,
			DistrictCode:            code,
			DistrictName:            districtName,
			Action:                  action,
			Mode:                    mode,
			Multiplier:              totalPlayer,
			BasePoints:              constants.PointsPerCheckIn,
			PointsAwarded:           shares[i],
			DistrictPointsDelta:     delta,
			PartySizeSnapshot:       sizeSnapshot,
			PartyMultiplierSnapshot: partyMultiplier,
			HomeDistrictCodeSnap:    pHome,
			HomeDistrictNameSnap:    p.HomeDistrictName,
			PartyCode:               pc.code(),
			IsPartyContribution:     isContribution,
			Metadata:                meta,
		}
		if err := tx.CheckIns.Create(ctx, checkIn); err != nil {
			return nil, err
		}
		if err := tx.Districts.ApplyDelta(ctx, code, delta, now); err != nil {
			return nil, err
		}
		if err := tx.Aggregates.RecordPlayerContribution(ctx, p.ID, district.ID, action, delta, now); err != nil {
			return nil, err
		}
		if isContribution && pHome != code {
			if err := tx.Aggregates.RecordContributionStat(ctx, code, p.ID, delta, now); err != nil {
				return nil, err
			}
		}
		if action == constants.ActionAttack {
			err := tx.Aggregates.RecordEngagement(ctx, repositories.EngagementDelta{
				HomeCode:   pHome,
				HomeName:   p.HomeDistrictName,
				TargetCode: code,
				TargetName: districtName,
				Points:     shares[i],
				PartyCode:  pc.code(),
				At:         now,
			})
			if err != nil {
				return nil, err
			}
		}

		cooldownMode := in.Mode
		if i > 0 {
			cooldownMode = constants.ModeParty
		}
		applyToLedger(p, checkIn, cooldownMode, duration, in.Precision, i > 0, now)
		if i == 0 {
			actor.NextCheckinMultiplier = 1
			refreshLocation(actor, action, in.Mode, in.Precision, coords, code, districtName, metadata, now)
		}
		if err := tx.Players.SaveLedger(ctx, p); err != nil {
			return nil, err
		}

		if i == 0 {
			result.CheckIn = checkIn
		} else {
			result.Synchronized = append(result.Synchronized, *checkIn)
		}
	}

	if pc.party != nil && len(pc.members) > 1 {
		attackPoints, contributionPoints := 0, 0
		if action == constants.ActionAttack {
			attackPoints = raw
		}
		if isContribution {
			contributionPoints = raw
		}
		for _, member := range pc.members {
			if member.ID == actor.ID {
				continue
			}
			if err := tx.Aggregates.RecordBond(ctx, actor.ID, member.ID, attackPoints, contributionPoints, now); err != nil {
				return nil, err
			}
		}
	}

	result.Player = actor
	result.PointsAwarded = shares[0]
	return result, nil
}

// errPartyChanged aborts a check-in whose party gained a member between reading the
// member list and locking it. The transaction is retried from scratch.
var errPartyChanged = errors.New("party membership changed while locking")

const maxLockAttempts = 3

// lockActorAndParty locks the actor and its current party members in ascending id order.
// A member who joins after the lock is taken is not part of this check-in.
func (s *CheckInService) lockActorAndParty(ctx context.Context, tx *repositories.Store, playerID uint) (map[uint]*gormModels.Player, error) {
	ids, err := partyMemberIDs(ctx, tx, playerID)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Players.LockMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	locked := make(map[uint]*gormModels.Player, len(rows))
	for i := range rows {
		locked[rows[i].ID] = &rows[i]
	}

	// a member locked out of order could deadlock against that member's own check-in
	current, err := partyMemberIDs(ctx, tx, playerID)
	if err != nil {
		return nil, err
	}
	for _, id := range current {
		if _, ok := locked[id]; !ok {
			return nil, errPartyChanged
		}
	}
	return locked, nil
}

// partyMemberIDs returns the actor followed by the other active members of its party.
func partyMemberIDs(ctx context.Context, tx *repositories.Store, playerID uint) ([]uint, error) {
	ids := []uint{playerID}
	membership, err := tx.Parties.ActiveMembership(ctx, playerID, false)
	if err != nil || membership == nil {
		return ids, err
	}
	members, err := tx.Parties.ActiveMembers(ctx, membership.PartyID)
	if err != nil {
		return nil, err
	}
	for _, m := range members {
		if m.PlayerID != playerID {
			ids = append(ids, m.PlayerID)
		}
	}
	return ids, nil
}

func (s *CheckInService) resolveParty(
	ctx context.Context,
	tx *repositories.Store,
	actor *gormModels.Player,
	code string,
	locked map[uint]*gormModels.Player,
	now time.Time,
) (*partyContext, error) {
	pc := &partyContext{}
	membership, err := activeMembership(ctx, tx, actor.ID, false, now)
	if err != nil || membership == nil {
		return pc, err
	}
	pc.party = membership.Party

	rows, err := tx.Parties.ActiveMembers(ctx, membership.PartyID)
	if err != nil {
		return nil, err
	}

	locations := make([]MemberLocation, 0, len(rows))
	for _, row := range rows {
		p, ok := locked[row.PlayerID]
		if !ok {
			// joined after the lock was taken; the check-in is ordered before that join
			continue
		}
		pc.members = append(pc.members, p)

		if p.ID == actor.ID {
			locations = append(locations, MemberLocation{PlayerID: p.ID, DistrictCode: code, At: now})
			continue
		}
		loc, found, err := memberLocation(ctx, tx, p, pc.party.Code)
		if err != nil {
			return nil, err
		}
		if found {
			locations = append(locations, loc)
		}
	}

	activeCode, majority, ok := ResolveActiveDistrict(locations, constants.MinActiveDistrictCount)
	if !ok || activeCode != code {
		return pc, nil
	}
	pc.inMajority = true
	for _, id := range majority {
		if id == actor.ID {
			continue
		}
		teammate := locked[id]
		pc.teammates = append(pc.teammates, teammate)
		if common.NormalizeDistrictCode(teammate.HomeDistrictCode) == code {
			pc.hasHomeTeammate = true
		}
	}
	return pc, nil
}

func memberLocation(ctx context.Context, tx *repositories.Store, p *gormModels.Player, partyCode string) (MemberLocation, bool, error) {
	last := p.LastKnownLocation.Data()
	if last != nil && common.NormalizeDistrictCode(last.DistrictID) != "" {
		loc, ok := ResolveMemberDistrict(p.ID, last, nil, nil)
		return loc, ok, nil
	}

	partyCheckIn, err := tx.CheckIns.Latest(ctx, p.ID, partyCode)
	if err != nil {
		return MemberLocation{}, false, err
	}
	var anyCheckIn *gormModels.CheckIn
	if partyCheckIn == nil {
		if anyCheckIn, err = tx.CheckIns.Latest(ctx, p.ID, ""); err != nil {
			return MemberLocation{}, false, err
		}
	}
	loc, ok := ResolveMemberDistrict(p.ID, last, partyCheckIn, anyCheckIn)
	return loc, ok, nil
}

func applyToLedger(p *gormModels.Player, c *gormModels.CheckIn, cooldownMode constants.Mode, d time.Duration, precision string, synchronized bool, now time.Time) {
	p.Score += c.PointsAwarded
	p.Checkins++
	if c.Action == constants.ActionAttack {
		p.AttackPoints += c.PointsAwarded
	} else {
		p.DefendPoints += c.PointsAwarded
	}
	p.AttackRatio = ratio(p.AttackPoints, p.Checkins)
	p.DefendRatio = ratio(p.DefendPoints, p.Checkins)

	kind := cooldownKindFor(c.Action)
	cooldowns := p.Cooldowns.Data()
	startCooldown(&cooldowns, kind, d, cooldownMode, now)
	p.Cooldowns = datatypes.NewJSONType(cooldowns)

	entry := gormModels.HistoryEntry{
		Timestamp:         now.UnixMilli(),
		DistrictID:        c.DistrictCode,
		DistrictName:      c.DistrictName,
		Type:              string(c.Action),
		Multiplier:        c.Multiplier.InexactFloat64(),
		Ranged:            c.Mode == constants.ModeRanged,
		Melee:             c.Mode == constants.ModeLocal,
		CooldownType:      string(kind),
		CooldownMode:      string(cooldownMode),
		Points:            c.PointsAwarded,
		DistrictPoints:    c.DistrictPointsDelta,
		PartySize:         c.PartySizeSnapshot,
		PartyMultiplier:   c.PartyMultiplierSnapshot.InexactFloat64(),
		PartyContribution: c.IsPartyContribution,
		Precision:         precision,
		PartyCode:         c.PartyCode,
		Synchronized:      synchronized,
	}
	history := p.CheckinHistory.Data()
	if len(history) >= constants.MaxHistoryEntries {
		history = history[:constants.MaxHistoryEntries-1]
	}
	p.CheckinHistory = datatypes.NewJSONType(append([]gormModels.HistoryEntry{entry}, history...))
}

func refreshLocation(
	p *gormModels.Player,
	action constants.Action,
	mode constants.Mode,
	precision string,
	coords *Coordinates,
	code, name string,
	metadata map[string]interface{},
	now time.Time,
) {
	switch {
	case coords != nil:
		source, _ := metadata["source"].(string)
		if source == "" {
			source = constants.LocationSourceProfile
			if precision == constants.PrecisionPrecise {
				source = constants.LocationSourceGeolocated
			}
		}
		lng, lat := coords.Lng, coords.Lat
		p.LastKnownLocation = datatypes.NewJSONType(&gormModels.Location{
			Lng:          &lng,
			Lat:          &lat,
			DistrictID:   code,
			DistrictName: name,
			Timestamp:    now.UnixMilli(),
			Source:       source,
		})
	case action == constants.ActionDefend && mode == constants.ModeRemote && p.LastKnownLocation.Data() == nil:
		p.LastKnownLocation = datatypes.NewJSONType(&gormModels.Location{
			DistrictID:   code,
			DistrictName: name,
			Timestamp:    now.UnixMilli(),
			Source:       constants.LocationSourceHomeRemote,
		})
	}
}

// validCoordinates drops coordinates that cannot be stored.
func validCoordinates(c *Coordinates) *Coordinates {
	if c == nil {
		return nil
	}
	for _, v := range []float64{c.Lng, c.Lat} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
	}
	return c
}

func checkInMetadata(in CheckInInput, coords *Coordinates, pc *partyContext, contribution bool) datatypes.JSONMap {
	meta := datatypes.JSONMap{}
	for k, v := range in.Metadata {
		meta[k] = v
	}
	if in.Precision != "" {
		meta["precision"] = in.Precision
	} else {
		meta["precision"] = nil
	}
	if coords != nil {
		meta["coordinates"] = map[string]interface{}{"lng": coords.Lng, "lat": coords.Lat}
	}
	if pc.party != nil {
		meta["party"] = map[string]interface{}{
			"size":         len(pc.members),
			"code":         pc.party.Code,
			"contribution": contribution,
		}
	}
	return meta
}

func synchronizedMetadata(base datatypes.JSONMap, actor *gormModels.Player) datatypes.JSONMap {
	meta := datatypes.JSONMap{}
	for k, v := range base {
		meta[k] = v
	}
	delete(meta, "coordinates")
	meta["synchronized"] = true
	meta["triggeredBy"] = map[string]interface{}{
		"id":       actor.ID,
		"username": actor.Username,
	}
	return meta
}
