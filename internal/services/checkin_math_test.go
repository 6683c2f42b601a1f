package services

import (
	"reflect"
	"testing"

	"pcwl/territory/internal/constants"
)

func TestComputeMultipliers(t *testing.T) {
	tests := []struct {
		name        string
		in          MultiplierInput
		wantPlayer  string
		wantTotal   string
		wantRaw     int
		wantLocal   string
		wantCharged string
	}{
		{
			name:       "lone precise local attack",
			in:         MultiplierInput{Mode: constants.ModeLocal, Precision: constants.PrecisionPrecise, Action: constants.ActionAttack},
			wantPlayer: "1", wantTotal: "2", wantRaw: 20, wantLocal: "2", wantCharged: "1",
		},
		{
			name:       "imprecise local attack gets no bonus",
			in:         MultiplierInput{Mode: constants.ModeLocal, Action: constants.ActionAttack},
			wantPlayer: "1", wantTotal: "1", wantRaw: 10, wantLocal: "1", wantCharged: "1",
		},
		{
			name:       "precise local defend gets no bonus",
			in:         MultiplierInput{Mode: constants.ModeLocal, Precision: constants.PrecisionPrecise, Action: constants.ActionDefend},
			wantPlayer: "1", wantTotal: "1", wantRaw: 10, wantLocal: "1", wantCharged: "1",
		},
		{
			name:       "charged ranged attack",
			in:         MultiplierInput{PendingMultiplier: 3, Mode: constants.ModeRanged, Action: constants.ActionAttack},
			wantPlayer: "1", wantTotal: "3", wantRaw: 30, wantLocal: "1", wantCharged: "3",
		},
		{
			name:       "zero pending multiplier floors at one",
			in:         MultiplierInput{PendingMultiplier: 0, Mode: constants.ModeRemote, Action: constants.ActionDefend},
			wantPlayer: "1", wantTotal: "1", wantRaw: 10, wantLocal: "1", wantCharged: "1",
		},
		{
			name:       "coordinated attack of two",
			in:         MultiplierInput{Mode: constants.ModeRanged, Action: constants.ActionAttack, PartySize: 2},
			wantPlayer: "4", wantTotal: "4", wantRaw: 40, wantLocal: "1", wantCharged: "1",
		},
		{
			name: "precise contribution of two",
			in: MultiplierInput{
				Mode: constants.ModeLocal, Precision: constants.PrecisionPrecise,
				Action: constants.ActionDefend, IsPartyContribution: true, PartySize: 2,
			},
			wantPlayer: "25", wantTotal: "50", wantRaw: 100, wantLocal: "2", wantCharged: "1",
		},
		{
			name:       "contribution of three rounds district damage",
			in:         MultiplierInput{Mode: constants.ModeLocal, Action: constants.ActionDefend, IsPartyContribution: true, PartySize: 3},
			wantPlayer: "37.5", wantTotal: "37.5", wantRaw: 75, wantLocal: "1", wantCharged: "1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := ComputeMultipliers(tt.in)
			if !m.Player.Equal(decimalFrom(t, tt.wantPlayer)) {
				t.Errorf("player multiplier: expected %s, got %s", tt.wantPlayer, m.Player)
			}
			if !m.TotalPlayer.Equal(decimalFrom(t, tt.wantTotal)) {
				t.Errorf("total player multiplier: expected %s, got %s", tt.wantTotal, m.TotalPlayer)
			}
			if !m.LocalBonus.Equal(decimalFrom(t, tt.wantLocal)) {
				t.Errorf("local bonus: expected %s, got %s", tt.wantLocal, m.LocalBonus)
			}
			if !m.Charge.Equal(decimalFrom(t, tt.wantCharged)) {
				t.Errorf("charge: expected %s, got %s", tt.wantCharged, m.Charge)
			}
			if got := m.RawDistrictPoints(); got != tt.wantRaw {
				t.Errorf("raw district points: expected %d, got %d", tt.wantRaw, got)
			}
		})
	}
}

func TestSplitReward(t *testing.T) {
	tests := []struct {
		total, n int
		want     []int
	}{
		{20, 1, []int{20}},
		{40, 2, []int{20, 20}},
		{25, 2, []int{13, 12}},
		{50, 3, []int{17, 17, 16}},
		{-41, 4, []int{11, 10, 10, 10}},
		{2, 4, []int{1, 1, 1, 1}},
		{10, 0, nil},
	}
	for _, tt := range tests {
		if got := SplitReward(tt.total, tt.n); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitReward(%d, %d): expected %v, got %v", tt.total, tt.n, tt.want, got)
		}
	}
}

func TestSignedDeltaAndRatio(t *testing.T) {
	if got := signedDelta(constants.ActionAttack, 20); got != -20 {
		t.Errorf("attack delta: expected -20, got %d", got)
	}
	if got := signedDelta(constants.ActionDefend, -15); got != 15 {
		t.Errorf("defend delta: expected 15, got %d", got)
	}
	if got := ratio(10, 3); !got.Equal(decimalFrom(t, "3.33")) {
		t.Errorf("ratio(10,3): expected 3.33, got %s", got)
	}
	if got := ratio(5, 8); !got.Equal(decimalFrom(t, "0.63")) {
		t.Errorf("ratio(5,8): expected 0.63 (half up), got %s", got)
	}
	if got := ratio(7, 0); !got.IsZero() {
		t.Errorf("ratio without check-ins: expected 0, got %s", got)
	}
}
