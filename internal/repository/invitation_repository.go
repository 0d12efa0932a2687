package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/b2wmke/miletracker-backend/internal/types"
)

// Invitation is keyed by the invitee email: the primary key gives the
// at-most-one-live-invitation-per-email guarantee at the store layer. Role is
// the variant tag; TeamID/TeamName are set only for member invitations
// (team_admin and app_admin invites create a team on acceptance).
type Invitation struct {
	Email           string
	Role            types.Role
	TeamID          *string
	TeamName        *string
	InvitedBy       string
	InviterUserName *string
	Used            bool
	UsedAt          *time.Time
	CreatedAt       time.Time
	ExpiresAt       time.Time
}

type InvitationRepository interface {
	// CreateIfAbsent persists the invitation unless a live one already holds
	// the email key. An expired, unconsumed invitation is replaced in the same
	// statement. Returns false when the key is held.
	CreateIfAbsent(ctx context.Context, invitation *Invitation) (bool, error)
	FindByEmail(ctx context.Context, email string) (*Invitation, error)
	FindPendingByTeam(ctx context.Context, teamID string, now time.Time) ([]*Invitation, error)
	FindPendingAdminInvites(ctx context.Context, now time.Time) ([]*Invitation, error)
	// ConsumeIfValid marks the invitation used in a single statement guarded
	// by the used flag and the expiry, so it can succeed at most once.
	ConsumeIfValid(ctx context.Context, email string, now time.Time) (bool, error)
	Delete(ctx context.Context, email string) error
	DeleteExpired(ctx context.Context, before time.Time) (int, error)
}

type pgInvitationRepository struct {
	pool *pgxpool.Pool
}

func NewInvitationRepository(pool *pgxpool.Pool) InvitationRepository {
	return &pgInvitationRepository{pool: pool}
}

const invitationColumns = `email, role, team_id, team_name, invited_by, inviter_user_name, used, used_at, created_at, expires_at`

func (r *pgInvitationRepository) CreateIfAbsent(ctx context.Context, invitation *Invitation) (bool, error) {
	query := `
		INSERT INTO invitations (email, role, team_id, team_name, invited_by, inviter_user_name, used, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, false, $7)
		ON CONFLICT (email) DO UPDATE
		SET role = EXCLUDED.role,
		    team_id = EXCLUDED.team_id,
		    team_name = EXCLUDED.team_name,
		    invited_by = EXCLUDED.invited_by,
		    inviter_user_name = EXCLUDED.inviter_user_name,
		    used = false,
		    used_at = NULL,
		    created_at = now(),
		    expires_at = EXCLUDED.expires_at
		WHERE NOT invitations.used AND invitations.expires_at <= now()
	`
	tag, err := r.pool.Exec(ctx, query,
		invitation.Email, invitation.Role, invitation.TeamID, invitation.TeamName,
		invitation.InvitedBy, invitation.InviterUserName, invitation.ExpiresAt,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *pgInvitationRepository) FindByEmail(ctx context.Context, email string) (*Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE email = $1`
	inv := &Invitation{}
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&inv.Email, &inv.Role, &inv.TeamID, &inv.TeamName, &inv.InvitedBy,
		&inv.InviterUserName, &inv.Used, &inv.UsedAt, &inv.CreatedAt, &inv.ExpiresAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *pgInvitationRepository) FindPendingByTeam(ctx context.Context, teamID string, now time.Time) ([]*Invitation, error) {
	query := `
		SELECT ` + invitationColumns + ` FROM invitations
		WHERE team_id = $1 AND NOT used AND expires_at > $2
		ORDER BY created_at DESC
	`
	return r.queryInvitations(ctx, query, teamID, now)
}

func (r *pgInvitationRepository) FindPendingAdminInvites(ctx context.Context, now time.Time) ([]*Invitation, error) {
	query := `
		SELECT ` + invitationColumns + ` FROM invitations
		WHERE role IN ($1, $2) AND NOT used AND expires_at > $3
		ORDER BY created_at DESC
	`
	return r.queryInvitations(ctx, query, types.RoleTeamAdmin, types.RoleAppAdmin, now)
}

func (r *pgInvitationRepository) queryInvitations(ctx context.Context, query string, args ...interface{}) ([]*Invitation, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invitations []*Invitation
	for rows.Next() {
		inv := &Invitation{}
		if err := rows.Scan(
			&inv.Email, &inv.Role, &inv.TeamID, &inv.TeamName, &inv.InvitedBy,
			&inv.InviterUserName, &inv.Used, &inv.UsedAt, &inv.CreatedAt, &inv.ExpiresAt,
		); err != nil {
			return nil, err
		}
		invitations = append(invitations, inv)
	}
	return invitations, rows.Err()
}

func (r *pgInvitationRepository) ConsumeIfValid(ctx context.Context, email string, now time.Time) (bool, error) {
	query := `
		UPDATE invitations SET used = true, used_at = $2
		WHERE email = $1 AND NOT used AND expires_at > $2
	`
	tag, err := r.pool.Exec(ctx, query, email, now)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *pgInvitationRepository) Delete(ctx context.Context, email string) error {
	// Idempotent: deleting an absent invitation is not an error.
	_, err := r.pool.Exec(ctx, `DELETE FROM invitations WHERE email = $1`, email)
	return err
}

func (r *pgInvitationRepository) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM invitations WHERE NOT used AND expires_at <= $1`, before)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
