package services

import (
	"context"
	"time"

	"pcwl/territory/internal/apperror"
	"pcwl/territory/internal/common"
	"pcwl/territory/internal/constants"
	"pcwl/territory/internal/db/repositories"
	"pcwl/territory/internal/logging"
	"pcwl/territory/internal/metrics"
	gormModels "pcwl/territory/internal/models/gorm"
)

// PartyService coordinates party lifecycle, invitations and join requests.
// Player rows are always locked first, in ascending id order.
type PartyService struct {
	store    *repositories.Store
	metrics  *metrics.MetricsRegistry
	now      Clock
	duration time.Duration
}

func NewPartyService(store *repositories.Store, m *metrics.MetricsRegistry, clock Clock, duration time.Duration) *PartyService {
	if duration <= 0 {
		duration = constants.DefaultPartyDuration
	}
	return &PartyService{
		store:    store,
		metrics:  m,
		now:      clockOrDefault(clock),
		duration: duration,
	}
}

// lockPlayers locks every id and fails with not-found when one is missing.
func lockPlayers(ctx context.Context, tx *repositories.Store, ids ...uint) (map[uint]*gormModels.Player, error) {
	rows, err := tx.Players.LockMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	locked := make(map[uint]*gormModels.Player, len(rows))
	for i := range rows {
		locked[rows[i].ID] = &rows[i]
	}
	for _, id := range ids {
		if locked[id] == nil {
			return nil, apperror.NotFound(constants.ErrCodePlayerNotFound)
		}
	}
	return locked, nil
}

// leaderMembership returns the leader's membership with its party locked ahead of it.
func leaderMembership(ctx context.Context, tx *repositories.Store, leaderID uint, now time.Time) (*gormModels.PartyMembership, error) {
	membership, err := activeMembership(ctx, tx, leaderID, true, now)
	if err != nil {
		return nil, err
	}
	if membership == nil || !membership.IsLeader {
		return nil, apperror.Conflict(constants.ErrCodeNotPartyLeader)
	}
	if membership.Party == nil {
		return nil, apperror.NotFound(constants.ErrCodePartyNotFound)
	}
	return membership, nil
}

func (s *PartyService) event(event string, kv ...interface{}) {
	s.metrics.ObservePartyEvent(event)
	logging.Info("Party "+event, kv...)
}

func (s *PartyService) CreateParty(ctx context.Context, leaderID uint, name string) (*gormModels.Party, error) {
	name, err := common.NormalizePartyName(name)
	if err != nil {
		return nil, err
	}

	var party *gormModels.Party
	err = s.store.Transaction(ctx, func(tx *repositories.Store) error {
		now := s.now()
		if _, err := lockPlayers(ctx, tx, leaderID); err != nil {
			return err
		}
		existing, err := activeMembership(ctx, tx, leaderID, true, now)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperror.Conflict(constants.ErrCodeAlreadyInParty)
		}

		code, err := common.GeneratePartyCode(func(c string) (bool, error) {
			return tx.Parties.CodeExists(ctx, c)
		})
		if err != nil {
			return err
		}

		party = &gormModels.Party{
			Code:      code,
			Name:      name,
			LeaderID:  leaderID,
			Status:    constants.PartyStatusActive,
			ExpiresAt: now.Add(s.duration),
		}
		if err := tx.Parties.Create(ctx, party); err != nil {
			return err
		}
		return tx.Parties.CreateMembership(ctx, &gormModels.PartyMembership{
			PartyID:  party.ID,
			PlayerID: leaderID,
			IsLeader: true,
			JoinedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.event(constants.PartyEventCreated, "party", party.Code, "leader_id", leaderID)
	return party, nil
}

func (s *PartyService) InvitePlayerToParty(ctx context.Context, leaderID, targetID uint) (*gormModels.PartyInvitation, error) {
	if leaderID == targetID {
		return nil, apperror.Validation(constants.ErrCodeCannotInviteSelf)
	}

	var invite *gormModels.PartyInvitation
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		now := s.now()
		if _, err := lockPlayers(ctx, tx, leaderID, targetID); err != nil {
			return err
		}
		membership, err := leaderMembership(ctx, tx, leaderID, now)
		if err != nil {
			return err
		}
		party := membership.Party

		count, err := tx.Parties.CountActiveMembers(ctx, party.ID)
		if err != nil {
			return err
		}
		if count >= constants.MaxPartyMembers {
			return apperror.Conflict(constants.ErrCodePartyFull)
		}
		other, err := activeMembership(ctx, tx, targetID, true, now)
		if err != nil {
			return err
		}
		if other != nil {
			return apperror.Conflict(constants.ErrCodeAlreadyInParty)
		}

		invite, err = tx.Parties.FindInvitation(ctx, party.ID, targetID)
		if err != nil {
			return err
		}
		if invite != nil && invite.Status != constants.RequestStatusPending {
			return apperror.Conflict(constants.ErrCodeInvitationResolved)
		}
		if invite == nil {
			invite = &gormModels.PartyInvitation{PartyID: party.ID, ToPlayerID: targetID}
		}
		invite.FromPlayerID = leaderID
		invite.Status = constants.RequestStatusPending
		invite.CreatedAt = now
		invite.RespondedAt = nil
		if err := tx.Parties.SaveInvitation(ctx, invite); err != nil {
			return err
		}
		invite.Party = party
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.event(constants.PartyEventInvited, "party", invite.Party.Code, "leader_id", leaderID, "target_id", targetID)
	return invite, nil
}

func (s *PartyService) RespondToPartyInvitation(ctx context.Context, invitationID, playerID uint, accept bool) (*gormModels.PartyInvitation, error) {
	var (
		invite  *gormModels.PartyInvitation
		outcome error
	)
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		now := s.now()
		if _, err := lockPlayers(ctx, tx, playerID); err != nil {
			return err
		}
		var err error
		invite, err = tx.Parties.LockInvitation(ctx, invitationID)
		if err != nil {
			return err
		}
		if invite == nil {
			return apperror.NotFound(constants.ErrCodeInvitationNotFound)
		}
		if invite.ToPlayerID != playerID {
			return apperror.Conflict(constants.ErrCodeInvitationNotYours)
		}
		if invite.Status != constants.RequestStatusPending {
			return apperror.Conflict(constants.ErrCodeInvitationResolved)
		}

		if accept {
			joinErr, err := s.join(ctx, tx, invite.PartyID, playerID, now)
			if err != nil {
				return err
			}
			if joinErr != nil {
				// the expiry cleanup still commits
				outcome = joinErr
				return nil
			}
			invite.Status = constants.RequestStatusAccepted
		} else {
			invite.Status = constants.RequestStatusDeclined
		}
		invite.RespondedAt = &now
		return tx.Parties.SaveInvitation(ctx, invite)
	})
	if err != nil {
		return nil, err
	}
	if outcome != nil {
		return nil, outcome
	}

	event := constants.PartyEventInviteDeclined
	if accept {
		event = constants.PartyEventInviteAccepted
	}
	s.event(event, "invitation_id", invitationID, "player_id", playerID)
	return invite, nil
}

// join adds playerID to the party. A rejection must not roll back the expiry cleanup
// join may have performed, so it is returned apart from fatal errors.
func (s *PartyService) join(ctx context.Context, tx *repositories.Store, partyID, playerID uint, now time.Time) (*apperror.AppError, error) {
	existing, err := activeMembership(ctx, tx, playerID, true, now)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return apperror.Conflict(constants.ErrCodeAlreadyInParty), nil
	}

	party, err := tx.Parties.LockByID(ctx, partyID)
	if err != nil {
		return nil, err
	}
	if party == nil {
		return apperror.NotFound(constants.ErrCodePartyNotFound), nil
	}
	if !party.IsActive(now) {
		if err := endParty(ctx, tx, party, now, constants.PartyEventExpired); err != nil {
			return nil, err
		}
		return apperror.Conflict(constants.ErrCodePartyInactive), nil
	}

	count, err := tx.Parties.CountActiveMembers(ctx, party.ID)
	if err != nil {
		return nil, err
	}
	if count >= constants.MaxPartyMembers {
		return apperror.Conflict(constants.ErrCodePartyFull), nil
	}

	return nil, tx.Parties.CreateMembership(ctx, &gormModels.PartyMembership{
		PartyID:  party.ID,
		PlayerID: playerID,
		JoinedAt: now,
	})
}

// CancelInvitation withdraws a pending invitation. Only the party leader may cancel.
func (s *PartyService) CancelInvitation(ctx context.Context, leaderID, invitationID uint) (*gormModels.PartyInvitation, error) {
	var invite *gormModels.PartyInvitation
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		now := s.now()
		if _, err := lockPlayers(ctx, tx, leaderID); err != nil {
			return err
		}
		var err error
		invite, err = tx.Parties.LockInvitation(ctx, invitationID)
		if err != nil {
			return err
		}
		if invite == nil {
			return apperror.NotFound(constants.ErrCodeInvitationNotFound)
		}
		if invite.Party == nil || invite.Party.LeaderID != leaderID {
			return apperror.Conflict(constants.ErrCodeNotPartyLeader)
		}
		if invite.Status != constants.RequestStatusPending {
			return apperror.Conflict(constants.ErrCodeInvitationResolved)
		}
		invite.Status = constants.RequestStatusCancelled
		invite.RespondedAt = &now
		return tx.Parties.SaveInvitation(ctx, invite)
	})
	if err != nil {
		return nil, err
	}

	s.event(constants.PartyEventInviteCancelled, "invitation_id", invitationID, "leader_id", leaderID)
	return invite, nil
}

// RequestToJoinParty asks the leader of the party with code for a place.
// A pending request is refreshed; a resolved one may be followed by a new request.
func (s *PartyService) RequestToJoinParty(ctx context.Context, playerID uint, partyCode string) (*gormModels.PartyJoinRequest, error) {
	var (
		req     *gormModels.PartyJoinRequest
		outcome error
	)
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		now := s.now()
		if _, err := lockPlayers(ctx, tx, playerID); err != nil {
			return err
		}
		existing, err := activeMembership(ctx, tx, playerID, true, now)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperror.Conflict(constants.ErrCodeAlreadyInParty)
		}

		found, err := tx.Parties.GetByCode(ctx, partyCode)
		if err != nil {
			return err
		}
		if found == nil {
			return apperror.NotFound(constants.ErrCodePartyNotFound)
		}
		party, err := tx.Parties.LockByID(ctx, found.ID)
		if err != nil {
			return err
		}
		if !party.IsActive(now) {
			if err := endParty(ctx, tx, party, now, constants.PartyEventExpired); err != nil {
				return err
			}
			outcome = apperror.Conflict(constants.ErrCodePartyInactive)
			return nil
		}
		count, err := tx.Parties.CountActiveMembers(ctx, party.ID)
		if err != nil {
			return err
		}
		if count >= constants.MaxPartyMembers {
			return apperror.Conflict(constants.ErrCodePartyFull)
		}

		req, err = tx.Parties.FindJoinRequest(ctx, party.ID, playerID)
		if err != nil {
			return err
		}
		if req == nil || req.Status != constants.RequestStatusPending {
			req = &gormModels.PartyJoinRequest{PartyID: party.ID, FromPlayerID: playerID}
		}
		req.Status = constants.RequestStatusPending
		req.CreatedAt = now
		req.RespondedAt = nil
		if err := tx.Parties.SaveJoinRequest(ctx, req); err != nil {
			return err
		}
		req.Party = party
		return nil
	})
	if err != nil {
		return nil, err
	}
	if outcome != nil {
		return nil, outcome
	}

	s.event(constants.PartyEventJoinRequested, "party", partyCode, "player_id", playerID)
	return req, nil
}

// RespondToJoinRequest lets the leader accept or decline a pending join request.
func (s *PartyService) RespondToJoinRequest(ctx context.Context, leaderID, requestID uint, accept bool) (*gormModels.PartyJoinRequest, error) {
	var (
		req     *gormModels.PartyJoinRequest
		outcome error
	)
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		now := s.now()
		peek, err := tx.Parties.GetJoinRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if peek == nil {
			return apperror.NotFound(constants.ErrCodeJoinRequestNotFound)
		}
		if _, err := lockPlayers(ctx, tx, leaderID, peek.FromPlayerID); err != nil {
			return err
		}
		if req, err = tx.Parties.LockJoinRequest(ctx, requestID); err != nil {
			return err
		}
		if req == nil {
			return apperror.NotFound(constants.ErrCodeJoinRequestNotFound)
		}
		if req.Party == nil || req.Party.LeaderID != leaderID {
			return apperror.Conflict(constants.ErrCodeNotPartyLeader)
		}
		if req.Status != constants.RequestStatusPending {
			return apperror.Conflict(constants.ErrCodeJoinRequestResolved)
		}

		if accept {
			joinErr, err := s.join(ctx, tx, req.PartyID, req.FromPlayerID, now)
			if err != nil {
				return err
			}
			if joinErr != nil {
				outcome = joinErr
				return nil
			}
			req.Status = constants.RequestStatusAccepted
		} else {
			req.Status = constants.RequestStatusDeclined
		}
		req.RespondedAt = &now
		return tx.Parties.SaveJoinRequest(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	if outcome != nil {
		return nil, outcome
	}

	event := constants.PartyEventJoinDeclined
	if accept {
		event = constants.PartyEventJoinAccepted
	}
	s.event(event, "request_id", requestID, "leader_id", leaderID)
	return req, nil
}

// CancelJoinRequest withdraws the requester's own pending request.
func (s *PartyService) CancelJoinRequest(ctx context.Context, playerID, requestID uint) (*gormModels.PartyJoinRequest, error) {
	var req *gormModels.PartyJoinRequest
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		now := s.now()
		if _, err := lockPlayers(ctx, tx, playerID); err != nil {
			return err
		}
		var err error
		req, err = tx.Parties.LockJoinRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if req == nil {
			return apperror.NotFound(constants.ErrCodeJoinRequestNotFound)
		}
		if req.FromPlayerID != playerID {
			return apperror.Conflict(constants.ErrCodeJoinRequestNotYours)
		}
		if req.Status != constants.RequestStatusPending {
			return apperror.Conflict(constants.ErrCodeJoinRequestResolved)
		}
		req.Status = constants.RequestStatusCancelled
		req.RespondedAt = &now
		return tx.Parties.SaveJoinRequest(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	s.event(constants.PartyEventJoinCancelled, "request_id", requestID, "player_id", playerID)
	return req, nil
}

func (s *PartyService) SetPartyName(ctx context.Context, leaderID uint, name string) (*gormModels.Party, error) {
	name, err := common.NormalizePartyName(name)
	if err != nil {
		return nil, err
	}

	var party *gormModels.Party
	err = s.store.Transaction(ctx, func(tx *repositories.Store) error {
		if _, err := lockPlayers(ctx, tx, leaderID); err != nil {
			return err
		}
		membership, err := leaderMembership(ctx, tx, leaderID, s.now())
		if err != nil {
			return err
		}
		party = membership.Party
		party.Name = name
		return tx.Parties.SaveName(ctx, party)
	})
	if err != nil {
		return nil, err
	}

	s.event(constants.PartyEventRenamed, "party", party.Code, "leader_id", leaderID)
	return party, nil
}

// LeaveParty is a no-op without an active membership. A leaving leader ends the party,
// as does the last member leaving.
func (s *PartyService) LeaveParty(ctx context.Context, playerID uint) error {
	var (
		left  *gormModels.PartyMembership
		ended bool
	)
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		now := s.now()
		if _, err := lockPlayers(ctx, tx, playerID); err != nil {
			return err
		}
		membership, err := activeMembership(ctx, tx, playerID, true, now)
		if err != nil || membership == nil || membership.Party == nil {
			return err
		}
		party := membership.Party
		if err := tx.Parties.CloseMembership(ctx, membership, now); err != nil {
			return err
		}
		left = membership

		if !membership.IsLeader {
			remaining, err := tx.Parties.CountActiveMembers(ctx, party.ID)
			if err != nil || remaining > 0 {
				return err
			}
		}
		ended = true
		return endParty(ctx, tx, party, now, constants.PartyEventLeft)
	})
	if err != nil || left == nil {
		return err
	}

	s.event(constants.PartyEventLeft, "party", left.Party.Code, "player_id", playerID)
	if ended {
		s.event(constants.PartyEventEnded, "party", left.Party.Code)
	}
	return nil
}

// DisbandParty ends the leader's party for everyone.
func (s *PartyService) DisbandParty(ctx context.Context, leaderID uint) error {
	var party *gormModels.Party
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		now := s.now()
		if _, err := lockPlayers(ctx, tx, leaderID); err != nil {
			return err
		}
		membership, err := leaderMembership(ctx, tx, leaderID, now)
		if err != nil {
			return err
		}
		party = membership.Party
		return endParty(ctx, tx, party, now, constants.PartyEventEnded)
	})
	if err != nil {
		return err
	}

	s.event(constants.PartyEventEnded, "party", party.Code, "leader_id", leaderID)
	return nil
}

// GetActiveParty returns the player's running party, or nil. An expired party is ended on the way.
func (s *PartyService) GetActiveParty(ctx context.Context, playerID uint) (*gormModels.Party, error) {
	var party *gormModels.Party
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		membership, err := activeMembership(ctx, tx, playerID, false, s.now())
		if err != nil || membership == nil {
			return err
		}
		party = membership.Party
		return nil
	})
	return party, err
}

func (s *PartyService) ListActiveMembers(ctx context.Context, partyID uint) ([]gormModels.PartyMembership, error) {
	return s.store.Parties.ActiveMembers(ctx, partyID)
}

func (s *PartyService) PendingInvitationsFor(ctx context.Context, playerID uint) ([]gormModels.PartyInvitation, error) {
	invites, err := s.store.Parties.PendingInvitationsFor(ctx, playerID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	live := invites[:0]
	for _, invite := range invites {
		if invite.Party != nil && invite.Party.IsActive(now) {
			live = append(live, invite)
		}
	}
	return live, nil
}

// ExpireDueParties ends every party past its expiry and reports how many it ended.
func (s *PartyService) ExpireDueParties(ctx context.Context) (int, error) {
	now := s.now()
	due, err := s.store.Parties.ListDueForExpiry(ctx, now)
	if err != nil {
		return 0, err
	}

	ended := 0
	for _, candidate := range due {
		expired := false
		err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
			party, err := tx.Parties.LockByID(ctx, candidate.ID)
			if err != nil || party == nil || party.IsActive(now) || party.Status == constants.PartyStatusEnded {
				return err
			}
			expired = true
			return endParty(ctx, tx, party, now, constants.PartyEventExpired)
		})
		if err != nil {
			return ended, err
		}
		if expired {
			ended++
			s.event(constants.PartyEventExpired, "party", candidate.Code)
		}
	}
	return ended, nil
}
