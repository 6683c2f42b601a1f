package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"pcwl/territory/internal/constants"
	gormModels "pcwl/territory/internal/models/gorm"
)

type PartyRepository struct {
	db *gorm.DB
}

func NewPartyRepository(db *gorm.DB) *PartyRepository {
	return &PartyRepository{db: db}
}

/* ---------- parties ---------- */

func (r *PartyRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&gormModels.Party{}).Where("code = ?", code).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check party code: %w", err)
	}
	return count > 0, nil
}

func (r *PartyRepository) Create(ctx context.Context, party *gormModels.Party) error {
	if err := r.db.WithContext(ctx).Create(party).Error; err != nil {
		return fmt.Errorf("failed to create party: %w", err)
	}
	return nil
}

// GetByCode returns nil when no party has the code.
func (r *PartyRepository) GetByCode(ctx context.Context, code string) (*gormModels.Party, error) {
	var party gormModels.Party
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&party).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch party: %w", err)
	}
	return &party, nil
}

// LockByID returns nil when the party does not exist.
func (r *PartyRepository) LockByID(ctx context.Context, id uint) (*gormModels.Party, error) {
	var party gormModels.Party
	if err := forUpdate(r.db.WithContext(ctx)).Where("id = ?", id).First(&party).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock party: %w", err)
	}
	return &party, nil
}

func (r *PartyRepository) SaveName(ctx context.Context, party *gormModels.Party) error {
	err := r.db.WithContext(ctx).Model(party).Select("name", "updated_at").Updates(party).Error
	if err != nil {
		return fmt.Errorf("failed to rename party: %w", err)
	}
	return nil
}

// End closes every active membership and cancels pending invitations and join requests.
// Ending an already ended party is a no-op.
func (r *PartyRepository) End(ctx context.Context, party *gormModels.Party, when time.Time) error {
	if party.Status == constants.PartyStatusEnded {
		return nil
	}
	db := r.db.WithContext(ctx)

	// the party row goes first so the memberships are taken in party -> membership order
	party.Status = constants.PartyStatusEnded
	party.EndedAt = &when
	if err := db.Model(party).Select("status", "ended_at", "updated_at").Updates(party).Error; err != nil {
		return fmt.Errorf("failed to end party: %w", err)
	}

	if err := db.Model(&gormModels.PartyMembership{}).
		Where("party_id = ? AND left_at IS NULL", party.ID).
		Update("left_at", when).Error; err != nil {
		return fmt.Errorf("failed to close memberships: %w", err)
	}

	cancel := map[string]interface{}{
		"status":       constants.RequestStatusCancelled,
		"responded_at": when,
	}
	if err := db.Model(&gormModels.PartyInvitation{}).
		Where("party_id = ? AND status = ?", party.ID, constants.RequestStatusPending).
		Updates(cancel).Error; err != nil {
		return fmt.Errorf("failed to cancel invitations: %w", err)
	}
	if err := db.Model(&gormModels.PartyJoinRequest{}).
		Where("party_id = ? AND status = ?", party.ID, constants.RequestStatusPending).
		Updates(cancel).Error; err != nil {
		return fmt.Errorf("failed to cancel join requests: %w", err)
	}
	return nil
}

// ListDueForExpiry returns active parties whose expiry is at or before now.
func (r *PartyRepository) ListDueForExpiry(ctx context.Context, now time.Time) ([]gormModels.Party, error) {
	var parties []gormModels.Party
	err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at <= ?", constants.PartyStatusActive, now).
		Order("id ASC").
		Find(&parties).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list expired parties: %w", err)
	}
	return parties, nil
}

/* ---------- memberships ---------- */

// ActiveMembership returns the player's open membership with its party, or nil.
// With lock set the party row is locked before the membership row, the order every
// party mutation follows.
func (r *PartyRepository) ActiveMembership(ctx context.Context, playerID uint, lock bool) (*gormModels.PartyMembership, error) {
	var membership gormModels.PartyMembership
	err := r.db.WithContext(ctx).
		Preload("Party").
		Where("player_id = ? AND left_at IS NULL", playerID).
		Order("id DESC").
		First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch membership: %w", err)
	}
	if !lock {
		return &membership, nil
	}

	party, err := r.LockByID(ctx, membership.PartyID)
	if err != nil {
		return nil, err
	}
	var locked gormModels.PartyMembership
	err = forUpdate(r.db.WithContext(ctx)).
		Where("id = ? AND left_at IS NULL", membership.ID).
		First(&locked).Error
	if err != nil {
		// closed while the party lock was awaited
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock membership: %w", err)
	}
	locked.Party = party
	return &locked, nil
}

// ActiveMembers returns open memberships in join order with players preloaded.
func (r *PartyRepository) ActiveMembers(ctx context.Context, partyID uint) ([]gormModels.PartyMembership, error) {
	var members []gormModels.PartyMembership
	err := r.db.WithContext(ctx).
		Preload("Player").
		Where("party_id = ? AND left_at IS NULL", partyID).
		Order("joined_at ASC").Order("id ASC").
		Find(&members).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

func (r *PartyRepository) CountActiveMembers(ctx context.Context, partyID uint) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&gormModels.PartyMembership{}).
		Where("party_id = ? AND left_at IS NULL", partyID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count members: %w", err)
	}
	return int(count), nil
}

func (r *PartyRepository) CreateMembership(ctx context.Context, m *gormModels.PartyMembership) error {
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("failed to create membership: %w", err)
	}
	return nil
}

func (r *PartyRepository) CloseMembership(ctx context.Context, m *gormModels.PartyMembership, when time.Time) error {
	m.LeftAt = &when
	if err := r.db.WithContext(ctx).Model(m).Update("left_at", when).Error; err != nil {
		return fmt.Errorf("failed to close membership: %w", err)
	}
	return nil
}

/* ---------- invitations ---------- */

// FindInvitation returns the newest invitation of target to the party, or nil.
func (r *PartyRepository) FindInvitation(ctx context.Context, partyID, toPlayerID uint) (*gormModels.PartyInvitation, error) {
	var invite gormModels.PartyInvitation
	err := forUpdate(r.db.WithContext(ctx)).
		Where("party_id = ? AND to_player_id = ?", partyID, toPlayerID).
		Order("id DESC").
		First(&invite).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch invitation: %w", err)
	}
	return &invite, nil
}

// LockInvitation returns nil when the invitation does not exist.
func (r *PartyRepository) LockInvitation(ctx context.Context, id uint) (*gormModels.PartyInvitation, error) {
	var invite gormModels.PartyInvitation
	err := forUpdate(r.db.WithContext(ctx)).Preload("Party").Where("id = ?", id).First(&invite).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock invitation: %w", err)
	}
	return &invite, nil
}

func (r *PartyRepository) SaveInvitation(ctx context.Context, invite *gormModels.PartyInvitation) error {
	if err := r.db.WithContext(ctx).Omit("Party").Save(invite).Error; err != nil {
		return fmt.Errorf("failed to save invitation: %w", err)
	}
	return nil
}

// PendingInvitationsFor lists invitations awaiting the player's answer, newest first.
func (r *PartyRepository) PendingInvitationsFor(ctx context.Context, playerID uint) ([]gormModels.PartyInvitation, error) {
	var invites []gormModels.PartyInvitation
	err := r.db.WithContext(ctx).
		Preload("Party").
		Where("to_player_id = ? AND status = ?", playerID, constants.RequestStatusPending).
		Order("created_at DESC").
		Find(&invites).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	return invites, nil
}

/* ---------- join requests ---------- */

// FindJoinRequest returns the newest request by the player for the party, or nil.
func (r *PartyRepository) FindJoinRequest(ctx context.Context, partyID, fromPlayerID uint) (*gormModels.PartyJoinRequest, error) {
	var req gormModels.PartyJoinRequest
	err := forUpdate(r.db.WithContext(ctx)).
		Where("party_id = ? AND from_player_id = ?", partyID, fromPlayerID).
		Order("id DESC").
		First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch join request: %w", err)
	}
	return &req, nil
}

// GetJoinRequest reads the request without locking it. Returns nil when it does not exist.
func (r *PartyRepository) GetJoinRequest(ctx context.Context, id uint) (*gormModels.PartyJoinRequest, error) {
	var req gormModels.PartyJoinRequest
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&req).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch join request: %w", err)
	}
	return &req, nil
}

// LockJoinRequest returns nil when the request does not exist.
func (r *PartyRepository) LockJoinRequest(ctx context.Context, id uint) (*gormModels.PartyJoinRequest, error) {
	var req gormModels.PartyJoinRequest
	err := forUpdate(r.db.WithContext(ctx)).Preload("Party").Where("id = ?", id).First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock join request: %w", err)
	}
	return &req, nil
}

func (r *PartyRepository) SaveJoinRequest(ctx context.Context, req *gormModels.PartyJoinRequest) error {
	if err := r.db.WithContext(ctx).Omit("Party").Save(req).Error; err != nil {
		return fmt.Errorf("failed to save join request: %w", err)
	}
	return nil
}
