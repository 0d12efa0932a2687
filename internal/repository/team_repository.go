package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Team carries the denormalized roster and counters. member_ids/admin_ids and
// the numeric totals are only ever mutated through the single-statement
// atomic operations below, never by writing a whole Team back.
type Team struct {
	ID          string
	Name        string
	Description *string
	Image       *string
	MemberIDs   []string
	AdminIDs    []string
	MemberCount int
	TotalMiles  decimal.Decimal
	TotalRides  int
	IsActive    bool
	CreatedBy   string
	CreatedAt   time.Time
	LastUpdated time.Time
}

type TeamRepository interface {
	Create(ctx context.Context, team *Team) error
	FindByID(ctx context.Context, id string) (*Team, error)
	FindAll(ctx context.Context) ([]*Team, error)
	FindAllByTotalMiles(ctx context.Context) ([]*Team, error)
	UpdateInfo(ctx context.Context, teamID, name string, description, image *string) error

	// Atomic array membership operations. Union is a no-op when the id is
	// already present; remove is a no-op when it is absent.
	AddMemberID(ctx context.Context, teamID, userID string) error
	RemoveMemberID(ctx context.Context, teamID, userID string) error
	AddAdminID(ctx context.Context, teamID, userID string) error
	RemoveAdminID(ctx context.Context, teamID, userID string) error

	// Atomic counter increments.
	AdjustMemberCount(ctx context.Context, teamID string, delta int) error
	AdjustTotals(ctx context.Context, teamID string, milesDelta decimal.Decimal, ridesDelta int) error

	SumTotalRides(ctx context.Context) (int, error)
	Count(ctx context.Context) (int, error)
}

type pgTeamRepository struct {
	pool *pgxpool.Pool
}

func NewTeamRepository(pool *pgxpool.Pool) TeamRepository {
	return &pgTeamRepository{pool: pool}
}

const teamColumns = `id, name, description, image, member_ids, admin_ids, member_count, total_miles, total_rides, is_active, created_by, created_at, last_updated`

func (r *pgTeamRepository) Create(ctx context.Context, team *Team) error {
	if team.ID == "" {
		team.ID = uuid.New().String()
	}
	if team.MemberIDs == nil {
		team.MemberIDs = []string{}
	}
	if team.AdminIDs == nil {
		team.AdminIDs = []string{}
	}
	query := `
		INSERT INTO teams (id, name, description, image, member_ids, admin_ids, member_count, total_miles, total_rides, is_active, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, last_updated
	`
	return r.pool.QueryRow(ctx, query,
		team.ID, team.Name, team.Description, team.Image, team.MemberIDs, team.AdminIDs,
		team.MemberCount, team.TotalMiles, team.TotalRides, team.IsActive, team.CreatedBy,
	).Scan(&team.CreatedAt, &team.LastUpdated)
}

func (r *pgTeamRepository) FindByID(ctx context.Context, id string) (*Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE id = $1`
	team := &Team{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&team.ID, &team.Name, &team.Description, &team.Image, &team.MemberIDs, &team.AdminIDs,
		&team.MemberCount, &team.TotalMiles, &team.TotalRides, &team.IsActive,
		&team.CreatedBy, &team.CreatedAt, &team.LastUpdated,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return team, nil
}

func (r *pgTeamRepository) FindAll(ctx context.Context) ([]*Team, error) {
	return r.queryTeams(ctx, `SELECT `+teamColumns+` FROM teams ORDER BY name`)
}

func (r *pgTeamRepository) FindAllByTotalMiles(ctx context.Context) ([]*Team, error) {
	return r.queryTeams(ctx, `SELECT `+teamColumns+` FROM teams ORDER BY total_miles DESC, name`)
}

func (r *pgTeamRepository) queryTeams(ctx context.Context, query string, args ...interface{}) ([]*Team, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []*Team
	for rows.Next() {
		team := &Team{}
		if err := rows.Scan(
			&team.ID, &team.Name, &team.Description, &team.Image, &team.MemberIDs, &team.AdminIDs,
			&team.MemberCount, &team.TotalMiles, &team.TotalRides, &team.IsActive,
			&team.CreatedBy, &team.CreatedAt, &team.LastUpdated,
		); err != nil {
			return nil, err
		}
		teams = append(teams, team)
	}
	return teams, rows.Err()
}

func (r *pgTeamRepository) UpdateInfo(ctx context.Context, teamID, name string, description, image *string) error {
	query := `
		UPDATE teams
		SET name = $2,
		    description = COALESCE($3, description),
		    image = COALESCE($4, image),
		    last_updated = now()
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, teamID, name, description, image)
	return err
}

func (r *pgTeamRepository) AddMemberID(ctx context.Context, teamID, userID string) error {
	query := `
		UPDATE teams
		SET member_ids = array_append(member_ids, $2), last_updated = now()
		WHERE id = $1 AND NOT (member_ids @> ARRAY[$2]::text[])
	`
	_, err := r.pool.Exec(ctx, query, teamID, userID)
	return err
}

func (r *pgTeamRepository) RemoveMemberID(ctx context.Context, teamID, userID string) error {
	query := `
		UPDATE teams
		SET member_ids = array_remove(member_ids, $2), last_updated = now()
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, teamID, userID)
	return err
}

func (r *pgTeamRepository) AddAdminID(ctx context.Context, teamID, userID string) error {
	query := `
		UPDATE teams
		SET admin_ids = array_append(admin_ids, $2), last_updated = now()
		WHERE id = $1 AND NOT (admin_ids @> ARRAY[$2]::text[])
	`
	_, err := r.pool.Exec(ctx, query, teamID, userID)
	return err
}

func (r *pgTeamRepository) RemoveAdminID(ctx context.Context, teamID, userID string) error {
	query := `
		UPDATE teams
		SET admin_ids = array_remove(admin_ids, $2), last_updated = now()
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, teamID, userID)
	return err
}

func (r *pgTeamRepository) AdjustMemberCount(ctx context.Context, teamID string, delta int) error {
	query := `UPDATE teams SET member_count = member_count + $2, last_updated = now() WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, teamID, delta)
	return err
}

func (r *pgTeamRepository) AdjustTotals(ctx context.Context, teamID string, milesDelta decimal.Decimal, ridesDelta int) error {
	query := `
		UPDATE teams
		SET total_miles = total_miles + $2, total_rides = total_rides + $3, last_updated = now()
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, teamID, milesDelta, ridesDelta)
	return err
}

func (r *pgTeamRepository) SumTotalRides(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(total_rides), 0) FROM teams`).Scan(&n)
	return n, err
}

func (r *pgTeamRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM teams`).Scan(&n)
	return n, err
}
