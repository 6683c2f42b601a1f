package services

import (
	"reflect"
	"testing"
	"time"

	gormModels "pcwl/territory/internal/models/gorm"
)

func TestResolveMemberDistrict(t *testing.T) {
	at := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	partyCheckIn := &gormModels.CheckIn{DistrictCode: "P1", OccurredAt: at.Add(-time.Hour)}
	anyCheckIn := &gormModels.CheckIn{DistrictCode: "A1", OccurredAt: at.Add(-2 * time.Hour)}

	tests := []struct {
		name     string
		last     *gormModels.Location
		party    *gormModels.CheckIn
		any      *gormModels.CheckIn
		wantCode string
		wantOK   bool
	}{
		{"last location wins", &gormModels.Location{DistrictID: " L1 ", Timestamp: at.UnixMilli()}, partyCheckIn, anyCheckIn, "L1", true},
		{"blank location falls through", &gormModels.Location{DistrictID: " "}, partyCheckIn, anyCheckIn, "P1", true},
		{"party check-in before any", nil, partyCheckIn, anyCheckIn, "P1", true},
		{"any check-in last", nil, nil, anyCheckIn, "A1", true},
		{"nothing known", nil, nil, nil, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, ok := ResolveMemberDistrict(7, tt.last, tt.party, tt.any)
			if ok != tt.wantOK || loc.DistrictCode != tt.wantCode {
				t.Fatalf("expected (%q, %v), got (%q, %v)", tt.wantCode, tt.wantOK, loc.DistrictCode, ok)
			}
			if ok && loc.PlayerID != 7 {
				t.Errorf("expected player id 7, got %d", loc.PlayerID)
			}
		})
	}
}

func TestResolveActiveDistrict(t *testing.T) {
	base := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	loc := func(id uint, code string, minutes int) MemberLocation {
		return MemberLocation{PlayerID: id, DistrictCode: code, At: base.Add(time.Duration(minutes) * time.Minute)}
	}

	tests := []struct {
		name        string
		locations   []MemberLocation
		wantCode    string
		wantMembers []uint
		wantOK      bool
	}{
		{
			name:        "clear majority",
			locations:   []MemberLocation{loc(1, "A", 0), loc(2, "A", 1), loc(3, "B", 5)},
			wantCode:    "A",
			wantMembers: []uint{1, 2},
			wantOK:      true,
		},
		{
			name:      "everyone apart",
			locations: []MemberLocation{loc(1, "A", 0), loc(2, "B", 1)},
		},
		{
			name:        "tie goes to the most recent sighting",
			locations:   []MemberLocation{loc(1, "A", 0), loc(2, "A", 1), loc(3, "B", 2), loc(4, "B", 9)},
			wantCode:    "B",
			wantMembers: []uint{3, 4},
			wantOK:      true,
		},
		{
			name:        "full tie goes to the smaller code",
			locations:   []MemberLocation{loc(1, "B", 0), loc(2, "B", 3), loc(3, "A", 1), loc(4, "A", 3)},
			wantCode:    "A",
			wantMembers: []uint{3, 4},
			wantOK:      true,
		},
		{
			name:      "nobody located",
			locations: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, members, ok := ResolveActiveDistrict(tt.locations, 2)
			if ok != tt.wantOK || code != tt.wantCode {
				t.Fatalf("expected (%q, %v), got (%q, %v)", tt.wantCode, tt.wantOK, code, ok)
			}
			if ok && !reflect.DeepEqual(members, tt.wantMembers) {
				t.Errorf("expected members %v, got %v", tt.wantMembers, members)
			}
		})
	}
}
