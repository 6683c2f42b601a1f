package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"pcwl/territory/internal/constants"
	"pcwl/territory/internal/models/entities"
)

// LeaderboardRepository serves the read projections over plain SQL.
type LeaderboardRepository struct {
	db *sqlx.DB
}

func NewLeaderboardRepository(db *sqlx.DB) *LeaderboardRepository {
	return &LeaderboardRepository{db: db}
}

func (r *LeaderboardRepository) TopPlayers(ctx context.Context, limit int) ([]entities.PlayerStanding, error) {
	query := r.db.Rebind(`
		SELECT id, username, COALESCE(display_name, '') AS display_name,
		       score, attack_points, defend_points, checkins,
		       COALESCE(home_district_code, '') AS home_district_code,
		       COALESCE(home_district_name, '') AS home_district_name
		FROM players
		WHERE is_active = ?
		ORDER BY score DESC, defend_points DESC, username ASC
		LIMIT ?`)

	rows := []entities.PlayerStanding{}
	if err := r.db.SelectContext(ctx, &rows, query, true, limit); err != nil {
		return nil, fmt.Errorf("failed to load player standings: %w", err)
	}
	return rows, nil
}

func (r *LeaderboardRepository) Districts(ctx context.Context, limit int) ([]entities.DistrictStanding, error) {
	query := r.db.Rebind(`
		SELECT code, COALESCE(name, '') AS name, base_strength, current_strength,
		       defended_points_total, attacked_points_total, checkin_total, last_activity_at
		FROM districts
		WHERE checkin_total > 0
		ORDER BY current_strength DESC, defended_points_total DESC, name ASC
		LIMIT ?`)

	rows := []entities.DistrictStanding{}
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("failed to load district standings: %w", err)
	}
	return rows, nil
}

// ActivitySince sums defended and attacked volume per district from check-ins at or after since.
func (r *LeaderboardRepository) ActivitySince(ctx context.Context, since time.Time) (map[string]entities.DistrictActivity, error) {
	query := r.db.Rebind(`
		SELECT district_code,
		       COALESCE(SUM(CASE WHEN action = ? THEN district_points_delta ELSE 0 END), 0) AS defended,
		       COALESCE(SUM(CASE WHEN action = ? THEN -district_points_delta ELSE 0 END), 0) AS attacked
		FROM check_ins
		WHERE occurred_at >= ?
		GROUP BY district_code`)

	rows := []entities.DistrictActivity{}
	err := r.db.SelectContext(ctx, &rows, query,
		string(constants.ActionDefend), string(constants.ActionAttack), since)
	if err != nil {
		return nil, fmt.Errorf("failed to load district activity: %w", err)
	}

	activity := make(map[string]entities.DistrictActivity, len(rows))
	for _, row := range rows {
		activity[row.Code] = row
	}
	return activity, nil
}

// Engagements returns every engagement with a home district, strongest first.
func (r *LeaderboardRepository) Engagements(ctx context.Context) ([]entities.EngagementRow, error) {
	query := `
		SELECT home_district_code, COALESCE(home_district_name, '') AS home_district_name,
		       target_district_code, COALESCE(target_district_name, '') AS target_district_name,
		       attack_points_total, attack_checkins, party_attack_checkins, last_attack_at
		FROM district_engagements
		WHERE home_district_code <> ''
		ORDER BY home_district_code ASC, attack_points_total DESC, attack_checkins DESC`

	rows := []entities.EngagementRow{}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to load engagements: %w", err)
	}
	return rows, nil
}

// BestPartner returns the player's strongest bond, or nil.
func (r *LeaderboardRepository) BestPartner(ctx context.Context, playerID uint) (*entities.BondRow, error) {
	query := r.db.Rebind(`
		SELECT b.partner_id, p.username, COALESCE(p.display_name, '') AS display_name,
		       b.shared_checkins, b.shared_attack_points, b.shared_contribution_points, b.last_shared_at
		FROM player_party_bonds b
		JOIN players p ON p.id = b.partner_id
		WHERE b.player_id = ?
		ORDER BY b.shared_checkins DESC, b.shared_contribution_points DESC, b.shared_attack_points DESC
		LIMIT 1`)

	var row entities.BondRow
	if err := r.db.GetContext(ctx, &row, query, playerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load best partner: %w", err)
	}
	return &row, nil
}

// TopContributors lists supporters of the district, excluding excludeID.
func (r *LeaderboardRepository) TopContributors(ctx context.Context, districtCode string, excludeID uint, limit int) ([]entities.ContributorRow, error) {
	query := r.db.Rebind(`
		SELECT s.supporter_id, p.username, COALESCE(p.display_name, '') AS display_name,
		       s.contribution_points, s.contribution_checkins, s.last_contribution_at
		FROM district_contribution_stats s
		JOIN players p ON p.id = s.supporter_id
		WHERE s.district_code = ? AND s.supporter_id <> ?
		ORDER BY s.contribution_points DESC, s.contribution_checkins DESC
		LIMIT ?`)

	rows := []entities.ContributorRow{}
	if err := r.db.SelectContext(ctx, &rows, query, districtCode, excludeID, limit); err != nil {
		return nil, fmt.Errorf("failed to load contributors: %w", err)
	}
	return rows, nil
}

// PartyTotals sums attack damage and contribution points over a party's check-ins.
func (r *LeaderboardRepository) PartyTotals(ctx context.Context, partyCode string) (entities.PartyTotals, error) {
	query := r.db.Rebind(`
		SELECT
		  COALESCE(SUM(CASE WHEN action = ? THEN -district_points_delta ELSE 0 END), 0) AS attack_points,
		  COALESCE(SUM(CASE WHEN action = ? THEN 1 ELSE 0 END), 0) AS attack_checkins,
		  COALESCE(SUM(CASE WHEN is_party_contribution = ? THEN district_points_delta ELSE 0 END), 0) AS contribution_points,
		  COALESCE(SUM(CASE WHEN is_party_contribution = ? THEN 1 ELSE 0 END), 0) AS contribution_checkins
		FROM check_ins
		WHERE party_code = ?`)

	var totals entities.PartyTotals
	attack := string(constants.ActionAttack)
	err := r.db.GetContext(ctx, &totals, query, attack, attack, true, true, partyCode)
	if err != nil {
		return entities.PartyTotals{}, fmt.Errorf("failed to load party totals: %w", err)
	}
	return totals, nil
}
