package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/badoux/checkmail"
	"github.com/b2wmke/miletracker-backend/internal/repository"
	"github.com/b2wmke/miletracker-backend/internal/types"
)

// ============================================
// Invitation Lifecycle Manager
// ============================================

const invitationTTL = 30 * 24 * time.Hour

// Expired invitations stay readable for a grace period so a late visitor
// still sees an expired verdict instead of not found.
const expiredRetention = 30 * 24 * time.Hour

// InvitationService creates, validates, consumes and cancels invitations.
// Expiry is evaluated lazily at read time; there is no background state
// change, only the cron sweep that deletes long-expired rows.
type InvitationService interface {
	Create(ctx context.Context, email string, role types.Role, teamID *string, invitedBy string) (*repository.Invitation, string, error)
	Validate(ctx context.Context, email string) (types.InvitationVerdict, *repository.Invitation, error)
	Consume(ctx context.Context, email string) (*repository.Invitation, error)
	Cancel(ctx context.Context, email, actorID string) error
	ListPendingByTeam(ctx context.Context, teamID, actorID string) ([]*repository.Invitation, error)
	ListPendingAdminInvites(ctx context.Context) ([]*repository.Invitation, error)
	DeleteExpired(ctx context.Context) (int, error)
	BuildLink(invitation *repository.Invitation) string
}

type invitationService struct {
	invRepo     repository.InvitationRepository
	userRepo    repository.UserRepository
	teamRepo    repository.TeamRepository
	frontendURL string
	now         nowFunc
}

func NewInvitationService(invRepo repository.InvitationRepository, userRepo repository.UserRepository, teamRepo repository.TeamRepository, frontendURL string) InvitationService {
	return &invitationService{
		invRepo:     invRepo,
		userRepo:    userRepo,
		teamRepo:    teamRepo,
		frontendURL: frontendURL,
		now:         time.Now,
	}
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

// authorizeInvite enforces who may grant which invitation. App admins may
// grant any invitable role; team admins may only invite members to a team
// they administer.
func authorizeInvite(inviter *repository.User, role types.Role, team *repository.Team) error {
	if inviter.Role == types.RoleAppAdmin {
		return nil
	}
	if role != types.RoleMember {
		return ErrForbidden
	}
	if team == nil || !contains(team.AdminIDs, inviter.ID) {
		return ErrForbidden
	}
	return nil
}

func (s *invitationService) Create(ctx context.Context, email string, role types.Role, teamID *string, invitedBy string) (*repository.Invitation, string, error) {
	email = normalizeEmail(email)
	if err := checkmail.ValidateFormat(email); err != nil {
		return nil, "", ErrInvalidEmail
	}
	invitable := false
	for _, r := range types.InvitableRoles() {
		if r == role {
			invitable = true
		}
	}
	if !invitable {
		return nil, "", ErrInvalidInput
	}
	// Member invites target an existing team; admin invites create their own
	// team at acceptance and must not carry one.
	if role == types.RoleMember && teamID == nil {
		return nil, "", ErrInvalidInput
	}
	if role != types.RoleMember {
		teamID = nil
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, "", ErrAlreadyRegistered
	}

	inviter, err := s.userRepo.FindByID(ctx, invitedBy)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load inviter: %w", err)
	}
	if inviter == nil {
		return nil, "", ErrUserNotFound
	}

	var team *repository.Team
	if teamID != nil {
		team, err = s.teamRepo.FindByID(ctx, *teamID)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load team: %w", err)
		}
		if team == nil {
			return nil, "", ErrTeamNotFound
		}
	}

	if err := authorizeInvite(inviter, role, team); err != nil {
		return nil, "", err
	}

	invitation := &repository.Invitation{
		Email:           email,
		Role:            role,
		InvitedBy:       invitedBy,
		InviterUserName: &inviter.UserName,
		ExpiresAt:       s.now().Add(invitationTTL),
	}
	if team != nil {
		invitation.TeamID = teamID
		invitation.TeamName = &team.Name
	}

	created, err := s.invRepo.CreateIfAbsent(ctx, invitation)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create invitation: %w", err)
	}
	if !created {
		return nil, "", ErrAlreadyInvited
	}

	return invitation, s.BuildLink(invitation), nil
}

func (s *invitationService) Validate(ctx context.Context, email string) (types.InvitationVerdict, *repository.Invitation, error) {
	email = normalizeEmail(email)
	invitation, err := s.invRepo.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, fmt.Errorf("failed to load invitation: %w", err)
	}
	if invitation == nil {
		return types.InvitationNotFound, nil, nil
	}
	if invitation.Used {
		return types.InvitationAlreadyUsed, invitation, nil
	}
	// The boundary instant counts as expired.
	if !s.now().Before(invitation.ExpiresAt) {
		return types.InvitationExpired, invitation, nil
	}
	return types.InvitationOK, invitation, nil
}

func (s *invitationService) Consume(ctx context.Context, email string) (*repository.Invitation, error) {
	email = normalizeEmail(email)

	// The guarded update is the authoritative check: it flips used exactly
	// once no matter how many callers race here.
	consumed, err := s.invRepo.ConsumeIfValid(ctx, email, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to consume invitation: %w", err)
	}
	if !consumed {
		verdict, _, err := s.Validate(ctx, email)
		if err != nil {
			return nil, err
		}
		return nil, verdictError(verdict)
	}

	invitation, err := s.invRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to reload invitation: %w", err)
	}
	if invitation == nil {
		return nil, ErrInvitationNotFound
	}
	return invitation, nil
}

// Cancel deletes a pending invitation if the actor may administer it.
// Cancelling an absent invitation is still a success.
func (s *invitationService) Cancel(ctx context.Context, email, actorID string) error {
	email = normalizeEmail(email)

	invitation, err := s.invRepo.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to load invitation: %w", err)
	}
	if invitation == nil {
		return nil
	}

	actor, err := s.userRepo.FindByID(ctx, actorID)
	if err != nil {
		return fmt.Errorf("failed to load actor: %w", err)
	}
	if actor == nil {
		return ErrUserNotFound
	}
	if actor.Role != types.RoleAppAdmin {
		if invitation.TeamID == nil {
			return ErrForbidden
		}
		team, err := s.teamRepo.FindByID(ctx, *invitation.TeamID)
		if err != nil {
			return fmt.Errorf("failed to load team: %w", err)
		}
		if team == nil || !contains(team.AdminIDs, actorID) {
			return ErrForbidden
		}
	}

	return s.invRepo.Delete(ctx, email)
}

func (s *invitationService) ListPendingByTeam(ctx context.Context, teamID, actorID string) ([]*repository.Invitation, error) {
	actor, err := s.userRepo.FindByID(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load actor: %w", err)
	}
	if actor == nil {
		return nil, ErrUserNotFound
	}
	team, err := s.teamRepo.FindByID(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to load team: %w", err)
	}
	if team == nil {
		return nil, ErrTeamNotFound
	}
	if actor.Role != types.RoleAppAdmin && !contains(team.AdminIDs, actorID) {
		return nil, ErrForbidden
	}
	return s.invRepo.FindPendingByTeam(ctx, teamID, s.now())
}

func (s *invitationService) ListPendingAdminInvites(ctx context.Context) ([]*repository.Invitation, error) {
	return s.invRepo.FindPendingAdminInvites(ctx, s.now())
}

// DeleteExpired removes invitations that expired more than the retention
// period ago.
func (s *invitationService) DeleteExpired(ctx context.Context) (int, error) {
	return s.invRepo.DeleteExpired(ctx, s.now().Add(-expiredRetention))
}

// BuildLink produces the registration URL encoding the invitation variant.
// Delivery is out of band.
func (s *invitationService) BuildLink(invitation *repository.Invitation) string {
	params := url.Values{}
	params.Set("email", invitation.Email)
	switch invitation.Role {
	case types.RoleAppAdmin:
		params.Set("appadmin", "true")
	case types.RoleTeamAdmin:
		params.Set("admin", "true")
	default:
		if invitation.TeamName != nil {
			params.Set("team", *invitation.TeamName)
		}
	}
	return fmt.Sprintf("%s/register?%s", strings.TrimRight(s.frontendURL, "/"), params.Encode())
}

func verdictError(verdict types.InvitationVerdict) error {
	switch verdict {
	case types.InvitationNotFound:
		return ErrInvitationNotFound
	case types.InvitationExpired:
		return ErrInvitationExpired
	case types.InvitationAlreadyUsed:
		return ErrInvitationUsed
	default:
		return ErrInvalidInput
	}
}
