package services

import (
	"time"

	"pcwl/territory/internal/common"
	gormModels "pcwl/territory/internal/models/gorm"
)

// MemberLocation is where a party member is believed to be.
type MemberLocation struct {
	PlayerID     uint
	DistrictCode string
	At           time.Time
}

// ResolveMemberDistrict infers a member's district in priority order:
// last known location, then the latest check-in under the party code, then the latest check-in.
func ResolveMemberDistrict(playerID uint, last *gormModels.Location, partyCheckIn, anyCheckIn *gormModels.CheckIn) (MemberLocation, bool) {
	if last != nil {
		if code := common.NormalizeDistrictCode(last.DistrictID); code != "" {
			return MemberLocation{PlayerID: playerID, DistrictCode: code, At: time.UnixMilli(last.Timestamp).UTC()}, true
		}
	}
	for _, c := range []*gormModels.CheckIn{partyCheckIn, anyCheckIn} {
		if c == nil {
			continue
		}
		if code := common.NormalizeDistrictCode(c.DistrictCode); code != "" {
			return MemberLocation{PlayerID: playerID, DistrictCode: code, At: c.OccurredAt}, true
		}
	}
	return MemberLocation{}, false
}

// ResolveActiveDistrict picks the district holding the most members, requiring at least two.
// Ties go to the most recent sighting, then the smaller code. Member ids keep input order.
func ResolveActiveDistrict(locations []MemberLocation, minCount int) (string, []uint, bool) {
	type tally struct {
		count  int
		latest time.Time
	}
	tallies := map[string]*tally{}
	for _, loc := range locations {
		if loc.DistrictCode == "" {
			continue
		}
		t, ok := tallies[loc.DistrictCode]
		if !ok {
			t = &tally{}
			tallies[loc.DistrictCode] = t
		}
		t.count++
		if loc.At.After(t.latest) {
			t.latest = loc.At
		}
	}

	best := ""
	for code, t := range tallies {
		if best == "" {
			best = code
			continue
		}
		b := tallies[best]
		switch {
		case t.count > b.count:
			best = code
		case t.count == b.count && t.latest.After(b.latest):
			best = code
		case t.count == b.count && t.latest.Equal(b.latest) && code < best:
			best = code
		}
	}
	if best == "" || tallies[best].count < minCount {
		return "", nil, false
	}

	members := make([]uint, 0, tallies[best].count)
	for _, loc := range locations {
		if loc.DistrictCode == best {
			members = append(members, loc.PlayerID)
		}
	}
	return best, members, true
}
