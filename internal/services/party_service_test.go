package services

import (
	"errors"
	"testing"
	"time"

	"pcwl/territory/internal/apperror"
	"pcwl/territory/internal/constants"
	gormModels "pcwl/territory/internal/models/gorm"
)

func expectCode(t *testing.T, err error, kind error, code string) {
	t.Helper()
	if !errors.Is(err, kind) {
		t.Fatalf("expected %v, got %v", kind, err)
	}
	if got := apperror.Code(err); got != code {
		t.Fatalf("expected code %s, got %s", code, got)
	}
}

func TestCreateParty(t *testing.T) {
	env := newTestEnv(t)
	alice := env.player("alice", "")

	party, err := env.parties.CreateParty(env.ctx, alice.ID, "  Night   Owls ")
	if err != nil {
		t.Fatalf("CreateParty: %v", err)
	}
	if party.Name != "Night Owls" || len(party.Code) != constants.PartyCodeLength {
		t.Errorf("unexpected party: %+v", party)
	}
	if !party.ExpiresAt.Equal(env.clock.Now().Add(3 * time.Hour)) {
		t.Errorf("expected 3h expiry, got %s", party.ExpiresAt)
	}

	members, err := env.parties.ListActiveMembers(env.ctx, party.ID)
	if err != nil {
		t.Fatalf("ListActiveMembers: %v", err)
	}
	if len(members) != 1 || !members[0].IsLeader || members[0].PlayerID != alice.ID {
		t.Errorf("expected leader membership, got %+v", members)
	}

	_, err = env.parties.CreateParty(env.ctx, alice.ID, "")
	expectCode(t, err, apperror.ErrConflict, constants.ErrCodeAlreadyInParty)

	bob := env.player("bob", "")
	_, err = env.parties.CreateParty(env.ctx, bob.ID, "ab")
	expectCode(t, err, apperror.ErrValidation, constants.ErrCodeInvalidPartyName)
}

func TestInvitePlayerToParty_Rules(t *testing.T) {
	env := newTestEnv(t)
	alice := env.player("alice", "")
	bob := env.player("bob", "")
	carol := env.player("carol", "")
	env.party(alice)

	_, err := env.parties.InvitePlayerToParty(env.ctx, alice.ID, alice.ID)
	expectCode(t, err, apperror.ErrValidation, constants.ErrCodeCannotInviteSelf)

	_, err = env.parties.InvitePlayerToParty(env.ctx, bob.ID, carol.ID)
	expectCode(t, err, apperror.ErrConflict, constants.ErrCodeNotPartyLeader)

	_, err = env.parties.InvitePlayerToParty(env.ctx, alice.ID, 999)
	expectCode(t, err, apperror.ErrNotFound, constants.ErrCodePlayerNotFound)

	first, err := env.parties.InvitePlayerToParty(env.ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("InvitePlayerToParty: %v", err)
	}

	// a stale pending invitation is reset rather than duplicated
	env.clock.Advance(time.Minute)
	again, err := env.parties.InvitePlayerToParty(env.ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("re-invite: %v", err)
	}
	if again.ID != first.ID || !again.CreatedAt.Equal(env.clock.Now()) {
		t.Errorf("expected the pending invitation to be refreshed, got %+v", again)
	}

	_, err = env.parties.RespondToPartyInvitation(env.ctx, first.ID, carol.ID, true)
	expectCode(t, err, apperror.ErrConflict, constants.ErrCodeInvitationNotYours)

	if _, err := env.parties.RespondToPartyInvitation(env.ctx, first.ID, bob.ID, false); err != nil {
		t.Fatalf("decline: %v", err)
	}
	_, err = env.parties.RespondToPartyInvitation(env.ctx, first.ID, bob.ID, true)
	expectCode(t, err, apperror.ErrConflict, constants.ErrCodeInvitationResolved)

	_, err = env.parties.InvitePlayerToParty(env.ctx, alice.ID, bob.ID)
	expectCode(t, err, apperror.ErrConflict, constants.ErrCodeInvitationResolved)

	// carol already belongs to a party of her own
	env.party(carol)
	_, err = env.parties.InvitePlayerToParty(env.ctx, alice.ID, carol.ID)
	expectCode(t, err, apperror.ErrConflict, constants.ErrCodeAlreadyInParty)
}

func TestInvitePlayerToParty_Capacity(t *testing.T) {
	env := newTestEnv(t)
	leader := env.player("leader", "")
	members := []*gormModels.Player{env.player("m1", ""), env.player("m2", ""), env.player("m3", "")}
	env.party(leader, members...)

	extra := env.player("m4", "")
	_, err := env.parties.InvitePlayerToParty(env.ctx, leader.ID, extra.ID)
	expectCode(t, err, apperror.ErrConflict, constants.ErrCodePartyFull)
}

func TestRespondToPartyInvitation_FullOnAccept(t *testing.T) {
	env := newTestEnv(t)
	leader := env.player("leader", "")
	m1, m2 := env.player("m1", ""), env.player("m2", "")
	late1, late2 := env.player("late1", ""), env.player("late2", "")
	env.party(leader, m1, m2)

	inv1, err := env.parties.InvitePlayerToParty(env.ctx, leader.ID, late1.ID)
	if err != nil {
		t.Fatalf("invite late1: %v", err)
	}
	inv2, err := env.parties.InvitePlayerToParty(env.ctx, leader.ID, late2.ID)
	if err != nil {
		t.Fatalf("invite late2: %v", err)
	}

	if _, err := env.parties.RespondToPartyInvitation(env.ctx, inv1.ID, late1.ID, true); err != nil {
		t.Fatalf("accept late1: %v", err)
	}
	_, err = env.parties.RespondToPartyInvitation(env.ctx, inv2.ID, late2.ID, true)
	expectCode(t, err, apperror.ErrConflict, constants.ErrCodePartyFull)
}

func TestRespondToPartyInvitation_ExpiredPartyIsCleanedUp(t *testing.T) {
	env := newTestEnv(t)
	alice := env.player("alice", "")
	bob := env.player("bob", "")
	party := env.party(alice)

	invite, err := env.parties.InvitePlayerToParty(env.ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("InvitePlayerToParty: %v", err)
	}

	env.clock.Advance(4 * time.Hour)
	_, err = env.parties.RespondToPartyInvitation(env.ctx, invite.ID, bob.ID, true)
	expectCode(t, err, apperror.ErrConflict, constants.ErrCodePartyInactive)

	// the rejection must not roll back the expiry cleanup
	var stored gormModels.Party
	if err := env.db.First(&stored, party.ID).Error; err != nil {
		t.Fatalf("load party: %v", err)
	}
	if stored.Status != constants.PartyStatusEnded {
		t.Errorf("expected party ended, got %s", stored.Status)
	}
	var inv gormModels.PartyInvitation
	if err := env.db.First(&inv, invite.ID).Error; err != nil {
		t.Fatalf("load invitation: %v", err)
	}
	if inv.Status != constants.RequestStatusCancelled {
		t.Errorf("expected invitation cancelled, got %s", inv.Status)
	}
	if n := env.count(&gormModels.PartyMembership{}, "player_id = ?", bob.ID); n != 0 {
		t.Errorf("expected no membership for bob, got %d", n)
	}
}

func TestLeaveParty(t *testing.T) {
	env := newTestEnv(t)
	alice := env.player("alice", "")
	bob := env.player("bob", "")
	carol := env.player("carol", "")
	dave := env.player("dave", "")
	party := env.party(alice, bob, carol)

	if err := env.parties.LeaveParty(env.ctx, dave.ID); err != nil {
		t.Fatalf("leave without party should be a no-op: %v", err)
	}

	if err := env.parties.LeaveParty(env.ctx, bob.ID); err != nil {
		t.Fatalf("LeaveParty(bob): %v", err)
	}
	if p, err := env.parties.GetActiveParty(env.ctx, bob.ID); err != nil || p != nil {
		t.Errorf("expected bob partyless, got %+v (%v)", p, err)
	}
	if p, err := env.parties.GetActiveParty(env.ctx, carol.ID); err != nil || p == nil || p.ID != party.ID {
		t.Errorf("expected carol still in the party, got %+v (%v)", p, err)
	}

	pending, err := env.parties.InvitePlayerToParty(env.ctx, alice.ID, dave.ID)
	if err != nil {
		t.Fatalf("invite dave: %v", err)
	}

	// the leader leaving ends the party for everyone
	if err := env.parties.LeaveParty(env.ctx, alice.ID); err != nil {
		t.Fatalf("LeaveParty(alice): %v", err)
	}
	if n := env.count(&gormModels.PartyMembership{}, "party_id = ? AND left_at IS NULL", party.ID); n != 0 {
		t.Errorf("expected every membership closed, got %d", n)
	}
	var inv gormModels.PartyInvitation
	if err := env.db.First(&inv, pending.ID).Error; err != nil {
		t.Fatalf("load invitation: %v", err)
	}
	if inv.Status != constants.RequestStatusCancelled {
		t.Errorf("expected pending invitation cancelled, got %s", inv.Status)
	}
	if invites, err := env.parties.PendingInvitationsFor(env.ctx, dave.ID); err != nil || len(invites) != 0 {
		t.Errorf("expected no pending invitations, got %d (%v)", len(invites), err)
	}
}

func TestLeaveParty_LastMemberEndsParty(t *testing.T) {
	env := newTestEnv(t)
	alice := env.player("alice", "")
	bob := env.player("bob", "")
	party := env.party(alice, bob)

	// close the leader's membership directly to leave bob as the last member
	if err := env.db.Model(&gormModels.PartyMembership{}).
		Where("party_id = ? AND player_id = ?", party.ID, alice.ID).
		Update("left_at", env.clock.Now()).Error; err != nil {
		t.Fatalf("close leader membership: %v", err)
	}

	if err := env.parties.LeaveParty(env.ctx, bob.ID); err != nil {
		t.Fatalf("LeaveParty: %v", err)
	}
	var stored gormModels.Party
	if err := env.db.First(&stored, party.ID).Error; err != nil {
		t.Fatalf("load party: %v", err)
	}
	if stored.Status != constants.PartyStatusEnded {
		t.Errorf("expected party ended after the last member left, got %s", stored.Status)
	}
}

func TestJoinRequests(t *testing.T) {
	env := newTestEnv(t)
	alice := env.player("alice", "")
	bob := env.player("bob", "")
	carol := env.player("carol", "")
	party := env.party(alice)

	_, err := env.parties.RequestToJoinParty(env.ctx, bob.ID, "NOPE1234")
	expectCode(t, err, apperror.ErrNotFound, constants.ErrCodePartyNotFound)

	req, err := env.parties.RequestToJoinParty(env.ctx, bob.ID, party.Code)
	if err != nil {
		t.Fatalf("RequestToJoinParty: %v", err)
	}
	again, err := env.parties.RequestToJoinParty(env.ctx, bob.ID, party.Code)
	if err != nil {
		t.Fatalf("repeat request: %v", err)
	}
	if again.ID != req.ID {
		t.Errorf("expected the pending request to be refreshed, got new id %d", again.ID)
	}

	_, err = env.parties.RespondToJoinRequest(env.ctx, carol.ID, req.ID, true)
	expectCode(t, err, apperror.ErrConflict, constants.ErrCodeNotPartyLeader)

	accepted, err := env.parties.RespondToJoinRequest(env.ctx, alice.ID, req.ID, true)
	if err != nil {
		t.Fatalf("RespondToJoinRequest: %v", err)
	}
	if accepted.Status != constants.RequestStatusAccepted || accepted.RespondedAt == nil {
		t.Errorf("unexpected request after accept: %+v", accepted)
	}
	if p, err := env.parties.GetActiveParty(env.ctx, bob.ID); err != nil || p == nil || p.ID != party.ID {
		t.Errorf("expected bob to have joined, got %+v (%v)", p, err)
	}

	_, err = env.parties.RespondToJoinRequest(env.ctx, alice.ID, req.ID, false)
	expectCode(t, err, apperror.ErrConflict, constants.ErrCodeJoinRequestResolved)

	_, err = env.parties.RequestToJoinParty(env.ctx, bob.ID, party.Code)
	expectCode(t, err, apperror.ErrConflict, constants.ErrCodeAlreadyInParty)

	carolReq, err := env.parties.RequestToJoinParty(env.ctx, carol.ID, party.Code)
	if err != nil {
		t.Fatalf("carol request: %v", err)
	}
	_, err = env.parties.CancelJoinRequest(env.ctx, bob.ID, carolReq.ID)
	expectCode(t, err, apperror.ErrConflict, constants.ErrCodeJoinRequestNotYours)

	cancelled, err := env.parties.CancelJoinRequest(env.ctx, carol.ID, carolReq.ID)
	if err != nil {
		t.Fatalf("CancelJoinRequest: %v", err)
	}
	if cancelled.Status != constants.RequestStatusCancelled {
		t.Errorf("expected cancelled, got %s", cancelled.Status)
	}

	// a resolved request may be followed by a fresh one
	fresh, err := env.parties.RequestToJoinParty(env.ctx, carol.ID, party.Code)
	if err != nil {
		t.Fatalf("new request after cancel: %v", err)
	}
	if fresh.ID == carolReq.ID || fresh.Status != constants.RequestStatusPending {
		t.Errorf("expected a new pending request, got %+v", fresh)
	}
	if _, err := env.parties.RespondToJoinRequest(env.ctx, alice.ID, fresh.ID, false); err != nil {
		t.Fatalf("decline: %v", err)
	}
	if p, _ := env.parties.GetActiveParty(env.ctx, carol.ID); p != nil {
		t.Errorf("expected carol to stay partyless, got %+v", p)
	}
}

func TestCancelInvitationAndRename(t *testing.T) {
	env := newTestEnv(t)
	alice := env.player("alice", "")
	bob := env.player("bob", "")
	env.party(alice)

	invite, err := env.parties.InvitePlayerToParty(env.ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("InvitePlayerToParty: %v", err)
	}
	_, err = env.parties.CancelInvitation(env.ctx, bob.ID, invite.ID)
	expectCode(t, err, apperror.ErrConflict, constants.ErrCodeNotPartyLeader)

	cancelled, err := env.parties.CancelInvitation(env.ctx, alice.ID, invite.ID)
	if err != nil {
		t.Fatalf("CancelInvitation: %v", err)
	}
	if cancelled.Status != constants.RequestStatusCancelled {
		t.Errorf("expected cancelled, got %s", cancelled.Status)
	}
	_, err = env.parties.RespondToPartyInvitation(env.ctx, invite.ID, bob.ID, true)
	expectCode(t, err, apperror.ErrConflict, constants.ErrCodeInvitationResolved)

	renamed, err := env.parties.SetPartyName(env.ctx, alice.ID, "Dawn Patrol")
	if err != nil {
		t.Fatalf("SetPartyName: %v", err)
	}
	if renamed.Name != "Dawn Patrol" {
		t.Errorf("expected new name, got %q", renamed.Name)
	}
	_, err = env.parties.SetPartyName(env.ctx, bob.ID, "Usurpers")
	expectCode(t, err, apperror.ErrConflict, constants.ErrCodeNotPartyLeader)
}

func TestDisbandAndExpireDueParties(t *testing.T) {
	env := newTestEnv(t)
	alice := env.player("alice", "")
	bob := env.player("bob", "")
	carol := env.player("carol", "")
	dave := env.player("dave", "")

	disbanded := env.party(alice, bob)
	if err := env.parties.DisbandParty(env.ctx, bob.ID); !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("expected non-leader disband to fail, got %v", err)
	}
	if err := env.parties.DisbandParty(env.ctx, alice.ID); err != nil {
		t.Fatalf("DisbandParty: %v", err)
	}
	if n := env.count(&gormModels.PartyMembership{}, "party_id = ? AND left_at IS NULL", disbanded.ID); n != 0 {
		t.Errorf("expected disbanded party to have no members, got %d", n)
	}

	env.party(carol)
	env.clock.Advance(time.Hour)
	env.party(dave)

	// only carol's party has run its three hours
	env.clock.Advance(2*time.Hour + time.Minute)
	n, err := env.parties.ExpireDueParties(env.ctx)
	if err != nil {
		t.Fatalf("ExpireDueParties: %v", err)
	}
	if n != 1 {
		t.Errorf("expected one expired party, got %d", n)
	}
	if p, _ := env.parties.GetActiveParty(env.ctx, carol.ID); p != nil {
		t.Errorf("expected carol's party gone, got %+v", p)
	}
	if p, _ := env.parties.GetActiveParty(env.ctx, dave.ID); p == nil {
		t.Error("expected dave's party to still run")
	}

	if n, err := env.parties.ExpireDueParties(env.ctx); err != nil || n != 0 {
		t.Errorf("expected a second sweep to find nothing, got %d (%v)", n, err)
	}
}
