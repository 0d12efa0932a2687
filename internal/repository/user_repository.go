package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/b2wmke/miletracker-backend/internal/types"
)

type User struct {
	ID           string
	Email        string
	UserName     string
	Role         types.Role
	TeamID       *string
	TeamName     *string
	TotalMiles   decimal.Decimal
	JoinedTeamAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type RefreshToken struct {
	ID        string
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByUserName(ctx context.Context, userName string) (*User, error)
	FindByTeamID(ctx context.Context, teamID string) ([]*User, error)
	FindAll(ctx context.Context) ([]*User, error)

	// Roster-owned fields
	AssignTeam(ctx context.Context, userID, teamID, teamName string, joinedAt time.Time) error
	ClearTeam(ctx context.Context, userID string) error
	UpdateTeamName(ctx context.Context, teamID, teamName string) error

	// Role state machine-owned field
	SetRole(ctx context.Context, userID string, role types.Role) error

	// Counter maintainer-owned field: single-statement atomic increment
	AddMiles(ctx context.Context, userID string, delta decimal.Decimal) error

	SumTotalMiles(ctx context.Context) (decimal.Decimal, error)
	Count(ctx context.Context) (int, error)

	SaveRefreshToken(ctx context.Context, token *RefreshToken) error
	FindRefreshToken(ctx context.Context, token string) (*RefreshToken, error)
	DeleteRefreshToken(ctx context.Context, token string) error
}

type pgUserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &pgUserRepository{pool: pool}
}

const userColumns = `id, email, user_name, role, team_id, team_name, total_miles, joined_team_at, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID, &user.Email, &user.UserName, &user.Role, &user.TeamID,
		&user.TeamName, &user.TotalMiles, &user.JoinedTeamAt, &user.CreatedAt, &user.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *pgUserRepository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, email, user_name, role, team_id, team_name, total_miles, joined_team_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`
	if user.TotalMiles.IsZero() {
		user.TotalMiles = decimal.Zero
	}
	return r.pool.QueryRow(ctx, query,
		user.ID, user.Email, user.UserName, user.Role, user.TeamID,
		user.TeamName, user.TotalMiles, user.JoinedTeamAt,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
}

func (r *pgUserRepository) FindByID(ctx context.Context, id string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *pgUserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *pgUserRepository) FindByUserName(ctx context.Context, userName string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_name = $1`
	return scanUser(r.pool.QueryRow(ctx, query, userName))
}

func (r *pgUserRepository) FindByTeamID(ctx context.Context, teamID string) ([]*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE team_id = $1 ORDER BY user_name`
	return r.queryUsers(ctx, query, teamID)
}

func (r *pgUserRepository) FindAll(ctx context.Context) ([]*User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY user_name`
	return r.queryUsers(ctx, query)
}

func (r *pgUserRepository) queryUsers(ctx context.Context, query string, args ...interface{}) ([]*User, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		user := &User{}
		if err := rows.Scan(
			&user.ID, &user.Email, &user.UserName, &user.Role, &user.TeamID,
			&user.TeamName, &user.TotalMiles, &user.JoinedTeamAt, &user.CreatedAt, &user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *pgUserRepository) AssignTeam(ctx context.Context, userID, teamID, teamName string, joinedAt time.Time) error {
	query := `
		UPDATE users SET team_id = $2, team_name = $3, joined_team_at = $4, updated_at = now()
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, userID, teamID, teamName, joinedAt)
	return err
}

func (r *pgUserRepository) ClearTeam(ctx context.Context, userID string) error {
	query := `
		UPDATE users SET team_id = NULL, team_name = NULL, joined_team_at = NULL, updated_at = now()
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, userID)
	return err
}

func (r *pgUserRepository) UpdateTeamName(ctx context.Context, teamID, teamName string) error {
	query := `UPDATE users SET team_name = $2, updated_at = now() WHERE team_id = $1`
	_, err := r.pool.Exec(ctx, query, teamID, teamName)
	return err
}

func (r *pgUserRepository) SetRole(ctx context.Context, userID string, role types.Role) error {
	query := `UPDATE users SET role = $2, updated_at = now() WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, userID, role)
	return err
}

func (r *pgUserRepository) AddMiles(ctx context.Context, userID string, delta decimal.Decimal) error {
	// Atomic increment; never read-modify-write.
	query := `UPDATE users SET total_miles = total_miles + $2, updated_at = now() WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, userID, delta)
	return err
}

func (r *pgUserRepository) SumTotalMiles(ctx context.Context) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(total_miles), 0) FROM users`).Scan(&sum)
	return sum, err
}

func (r *pgUserRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

func (r *pgUserRepository) SaveRefreshToken(ctx context.Context, token *RefreshToken) error {
	if token.ID == "" {
		token.ID = uuid.New().String()
	}
	query := `
		INSERT INTO refresh_tokens (id, token, user_id, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	return r.pool.QueryRow(ctx, query, token.ID, token.Token, token.UserID, token.ExpiresAt).Scan(&token.CreatedAt)
}

func (r *pgUserRepository) FindRefreshToken(ctx context.Context, token string) (*RefreshToken, error) {
	query := `SELECT id, token, user_id, expires_at, created_at FROM refresh_tokens WHERE token = $1`
	rt := &RefreshToken{}
	err := r.pool.QueryRow(ctx, query, token).Scan(&rt.ID, &rt.Token, &rt.UserID, &rt.ExpiresAt, &rt.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rt, nil
}

func (r *pgUserRepository) DeleteRefreshToken(ctx context.Context, token string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE token = $1`, token)
	return err
}
