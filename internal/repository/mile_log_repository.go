package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// MileLog is immutable once created. Team fields are a snapshot taken at
// logging time; later roster changes do not rewrite history.
type MileLog struct {
	ID        string
	UserID    string
	UserName  string
	TeamID    *string
	TeamName  *string
	Miles     decimal.Decimal
	RideDate  time.Time
	Notes     *string
	CreatedAt time.Time
}

type MileLogRepository interface {
	Create(ctx context.Context, log *MileLog) error
	FindByUser(ctx context.Context, userID string, limit int) ([]*MileLog, error)
	FindByTeam(ctx context.Context, teamID string, limit int) ([]*MileLog, error)
}

type pgMileLogRepository struct {
	pool *pgxpool.Pool
}

func NewMileLogRepository(pool *pgxpool.Pool) MileLogRepository {
	return &pgMileLogRepository{pool: pool}
}

func (r *pgMileLogRepository) Create(ctx context.Context, log *MileLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	query := `
		INSERT INTO mile_logs (id, user_id, user_name, team_id, team_name, miles, ride_date, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`
	return r.pool.QueryRow(ctx, query,
		log.ID, log.UserID, log.UserName, log.TeamID, log.TeamName, log.Miles, log.RideDate, log.Notes,
	).Scan(&log.CreatedAt)
}

func (r *pgMileLogRepository) FindByUser(ctx context.Context, userID string, limit int) ([]*MileLog, error) {
	query := `
		SELECT id, user_id, user_name, team_id, team_name, miles, ride_date, notes, created_at
		FROM mile_logs WHERE user_id = $1
		ORDER BY ride_date DESC, created_at DESC
		LIMIT $2
	`
	return r.queryLogs(ctx, query, userID, limit)
}

func (r *pgMileLogRepository) FindByTeam(ctx context.Context, teamID string, limit int) ([]*MileLog, error) {
	query := `
		SELECT id, user_id, user_name, team_id, team_name, miles, ride_date, notes, created_at
		FROM mile_logs WHERE team_id = $1
		ORDER BY ride_date DESC, created_at DESC
		LIMIT $2
	`
	return r.queryLogs(ctx, query, teamID, limit)
}

func (r *pgMileLogRepository) queryLogs(ctx context.Context, query string, args ...interface{}) ([]*MileLog, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*MileLog
	for rows.Next() {
		log := &MileLog{}
		if err := rows.Scan(
			&log.ID, &log.UserID, &log.UserName, &log.TeamID, &log.TeamName,
			&log.Miles, &log.RideDate, &log.Notes, &log.CreatedAt,
		); err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}
