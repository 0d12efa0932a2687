package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/b2wmke/miletracker-backend/internal/types"
)

// OperationLog is the intent record written around every composite operation.
// A record stuck in the started state marks a sequence that was interrupted
// between its first and last write and needs operator reconciliation.
type OperationLog struct {
	ID          string
	Operation   string
	SubjectID   *string
	TeamID      *string
	Status      string
	Detail      *string
	CreatedAt   time.Time
	CompletedAt *time.Time
}

type OperationLogRepository interface {
	Begin(ctx context.Context, operation string, subjectID, teamID *string) (string, error)
	Complete(ctx context.Context, id string) error
	FindStale(ctx context.Context, olderThan time.Time) ([]*OperationLog, error)
}

type pgOperationLogRepository struct {
	pool *pgxpool.Pool
}

func NewOperationLogRepository(pool *pgxpool.Pool) OperationLogRepository {
	return &pgOperationLogRepository{pool: pool}
}

func (r *pgOperationLogRepository) Begin(ctx context.Context, operation string, subjectID, teamID *string) (string, error) {
	id := uuid.New().String()
	query := `
		INSERT INTO operation_logs (id, operation, subject_id, team_id, status)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.pool.Exec(ctx, query, id, operation, subjectID, teamID, types.OpStatusStarted); err != nil {
		return "", err
	}
	return id, nil
}

func (r *pgOperationLogRepository) Complete(ctx context.Context, id string) error {
	query := `UPDATE operation_logs SET status = $2, completed_at = now() WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, types.OpStatusCompleted)
	return err
}

func (r *pgOperationLogRepository) FindStale(ctx context.Context, olderThan time.Time) ([]*OperationLog, error) {
	query := `
		SELECT id, operation, subject_id, team_id, status, detail, created_at, completed_at
		FROM operation_logs
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at
	`
	rows, err := r.pool.Query(ctx, query, types.OpStatusStarted, olderThan)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*OperationLog
	for rows.Next() {
		l := &OperationLog{}
		if err := rows.Scan(&l.ID, &l.Operation, &l.SubjectID, &l.TeamID, &l.Status, &l.Detail, &l.CreatedAt, &l.CompletedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
