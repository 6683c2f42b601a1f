package services

import (
	"testing"
	"time"

	"pcwl/territory/internal/apperror"
	"pcwl/territory/internal/constants"
)

func newInsights(env *testEnv) *PartyInsightsService {
	return NewPartyInsightsService(env.store, env.reads, env.cache, env.metrics, time.Minute, env.clock.Now)
}

func TestPartyFocus(t *testing.T) {
	if got := partyFocus(30, 10); got != PartyFocusAggressive {
		t.Errorf("expected aggressive, got %s", got)
	}
	if got := partyFocus(10, 30); got != PartyFocusDefensive {
		t.Errorf("expected defensive, got %s", got)
	}
	if got := partyFocus(0, 0); got != PartyFocusBalanced {
		t.Errorf("expected balanced, got %s", got)
	}
}

func TestPlayerInsights_UnknownPlayer(t *testing.T) {
	env := newTestEnv(t)

	_, err := newInsights(env).PlayerInsights(env.ctx, 42)
	expectCode(t, err, apperror.ErrNotFound, constants.ErrCodePlayerNotFound)
}

func TestPlayerInsights_WithoutHistory(t *testing.T) {
	env := newTestEnv(t)
	alice := env.player("alice", "")

	resp, err := newInsights(env).PlayerInsights(env.ctx, alice.ID)
	if err != nil {
		t.Fatalf("PlayerInsights: %v", err)
	}
	if resp.BestPartner != nil || resp.Party != nil {
		t.Errorf("expected empty insights, got %+v", resp)
	}
	if resp.TopContributors == nil || len(resp.TopContributors) != 0 {
		t.Errorf("expected an empty contributor list, got %v", resp.TopContributors)
	}
}

func TestPlayerInsights_ContributionParty(t *testing.T) {
	env := newTestEnv(t)
	alice := env.player("alice", "H1")
	bob := env.player("bob", "T1")
	party := env.party(alice, bob)
	env.locate(bob, "T1")

	if _, err := env.checkIns.ApplyCheckIn(env.ctx, CheckInInput{PlayerID: alice.ID, DistrictCode: "T1", Mode: constants.ModeLocal}); err != nil {
		t.Fatalf("ApplyCheckIn: %v", err)
	}

	resp, err := newInsights(env).PlayerInsights(env.ctx, bob.ID)
	if err != nil {
		t.Fatalf("PlayerInsights: %v", err)
	}

	if resp.BestPartner == nil || resp.BestPartner.Username != "alice" {
		t.Fatalf("expected alice as best partner, got %+v", resp.BestPartner)
	}
	if resp.BestPartner.SharedCheckins != 1 || resp.BestPartner.SharedContributionPoints != 50 {
		t.Errorf("unexpected partner summary: %+v", resp.BestPartner)
	}

	if len(resp.TopContributors) != 1 {
		t.Fatalf("expected one contributor to T1, got %+v", resp.TopContributors)
	}
	if c := resp.TopContributors[0]; c.Username != "alice" || c.Points != 25 || c.Checkins != 1 || c.LastContributionAt == nil {
		t.Errorf("unexpected contributor: %+v", c)
	}

	p := resp.Party
	if p == nil {
		t.Fatal("expected a party summary")
	}
	if p.Code != party.Code || p.Size != 2 || p.IsLeader {
		t.Errorf("unexpected party summary: %+v", p)
	}
	if p.AttackMultiplier != 4 || p.ContributionMultiplier != 5 || p.PlayerContributionMultiplier != 25 {
		t.Errorf("unexpected multipliers: %+v", p)
	}
	if p.ContributionPoints != 50 || p.ContributionCheckins != 2 || p.AttackPoints != 0 {
		t.Errorf("unexpected party totals: %+v", p)
	}
	if p.Focus != PartyFocusDefensive {
		t.Errorf("expected defensive focus, got %s", p.Focus)
	}
	if p.SecondsRemaining != int((3 * time.Hour).Seconds()) {
		t.Errorf("expected full three hours remaining, got %d", p.SecondsRemaining)
	}
	var self, leader int
	for _, m := range p.Members {
		if m.IsSelf {
			self++
			if m.Username != "bob" {
				t.Errorf("expected bob flagged as self, got %s", m.Username)
			}
		}
		if m.IsLeader {
			leader++
			if m.Username != "alice" {
				t.Errorf("expected alice flagged as leader, got %s", m.Username)
			}
		}
	}
	if len(p.Members) != 2 || self != 1 || leader != 1 {
		t.Errorf("unexpected members: %+v", p.Members)
	}
}

func TestPartySummary_AttackFocusAndLeader(t *testing.T) {
	env := newTestEnv(t)
	alice := env.player("alice", "H1")
	bob := env.player("bob", "H2")
	env.party(alice, bob)
	env.locate(alice, "T1")
	env.locate(bob, "T1")

	if _, err := env.checkIns.ApplyCheckIn(env.ctx, localAttack(alice.ID, "T1")); err != nil {
		t.Fatalf("ApplyCheckIn: %v", err)
	}
	env.clock.Advance(30 * time.Minute)

	summary, err := newInsights(env).PartySummary(env.ctx, env.reload(alice))
	if err != nil {
		t.Fatalf("PartySummary: %v", err)
	}
	if summary == nil || !summary.IsLeader {
		t.Fatalf("expected alice to lead a running party, got %+v", summary)
	}
	// precise local 2x, party 2x2: raw 80 over two check-ins
	if summary.AttackPoints != 80 || summary.AttackCheckins != 2 || summary.Focus != PartyFocusAggressive {
		t.Errorf("unexpected attack totals: %+v", summary)
	}
	if want := int((150 * time.Minute).Seconds()); summary.SecondsRemaining != want {
		t.Errorf("expected %d seconds remaining, got %d", want, summary.SecondsRemaining)
	}

	env.clock.Advance(3 * time.Hour)
	expired, err := newInsights(env).PartySummary(env.ctx, env.reload(alice))
	if err != nil {
		t.Fatalf("PartySummary: %v", err)
	}
	if expired != nil {
		t.Errorf("expected no summary for an expired party, got %+v", expired)
	}
}
