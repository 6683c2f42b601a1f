package services

import (
	"context"
	"time"

	"pcwl/territory/internal/constants"
	"pcwl/territory/internal/db/repositories"
	"pcwl/territory/internal/logging"
	gormModels "pcwl/territory/internal/models/gorm"
)

// activeMembership returns the player's open membership, ending the party first when it has expired.
func activeMembership(ctx context.Context, tx *repositories.Store, playerID uint, lock bool, now time.Time) (*gormModels.PartyMembership, error) {
	membership, err := tx.Parties.ActiveMembership(ctx, playerID, lock)
	if err != nil || membership == nil {
		return nil, err
	}
	if membership.Party == nil || membership.Party.IsActive(now) {
		return membership, nil
	}
	if err := endParty(ctx, tx, membership.Party, now, constants.PartyEventExpired); err != nil {
		return nil, err
	}
	return nil, nil
}

func endParty(ctx context.Context, tx *repositories.Store, party *gormModels.Party, now time.Time, event string) error {
	if party.Status == constants.PartyStatusEnded {
		return nil
	}
	if err := tx.Parties.End(ctx, party, now); err != nil {
		return err
	}
	logging.Info("Party ended", "party", party.Code, "reason", event)
	return nil
}
