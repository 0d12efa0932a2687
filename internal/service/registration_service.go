package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/badoux/checkmail"
	"github.com/b2wmke/miletracker-backend/internal/identity"
	"github.com/b2wmke/miletracker-backend/internal/repository"
	"github.com/b2wmke/miletracker-backend/internal/socket"
	"github.com/b2wmke/miletracker-backend/internal/types"
)

// ============================================
// Registration Coordinator
// ============================================

// RegistrationService turns a valid invitation into an identity, a user
// record and the roster and counter writes that follow from the invitation's
// role variant. Each flow is a fixed sequence of independent single-record
// writes; the invitation is consumed last so an interrupted run leaves a
// retryable invitation rather than a burned one.
type RegistrationService interface {
	Register(ctx context.Context, email, password, userName string) (*repository.User, error)
	CheckInvitation(ctx context.Context, email string) (types.InvitationVerdict, *repository.Invitation, error)
}

type registrationService struct {
	identity    identity.Provider
	invitations InvitationService
	roster      RosterService
	counter     CounterService
	userRepo    repository.UserRepository
	teamRepo    repository.TeamRepository
	opLogRepo   repository.OperationLogRepository
	broadcaster *socket.Broadcaster
	now         nowFunc
}

func NewRegistrationService(
	identityProvider identity.Provider,
	invitations InvitationService,
	roster RosterService,
	counter CounterService,
	userRepo repository.UserRepository,
	teamRepo repository.TeamRepository,
	opLogRepo repository.OperationLogRepository,
	broadcaster *socket.Broadcaster,
) RegistrationService {
	return &registrationService{
		identity:    identityProvider,
		invitations: invitations,
		roster:      roster,
		counter:     counter,
		userRepo:    userRepo,
		teamRepo:    teamRepo,
		opLogRepo:   opLogRepo,
		broadcaster: broadcaster,
		now:         time.Now,
	}
}

func (s *registrationService) CheckInvitation(ctx context.Context, email string) (types.InvitationVerdict, *repository.Invitation, error) {
	return s.invitations.Validate(ctx, email)
}

func (s *registrationService) Register(ctx context.Context, email, password, userName string) (*repository.User, error) {
	email = normalizeEmail(email)
	userName = strings.TrimSpace(userName)

	if err := checkmail.ValidateFormat(email); err != nil {
		return nil, ErrInvalidEmail
	}
	if len(userName) < 3 {
		return nil, ErrInvalidInput
	}

	verdict, invitation, err := s.invitations.Validate(ctx, email)
	if err != nil {
		return nil, err
	}
	if verdict != types.InvitationOK {
		return nil, verdictError(verdict)
	}

	taken, err := s.userRepo.FindByUserName(ctx, userName)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if taken != nil {
		return nil, ErrNameTaken
	}

	// Each invitation variant gets its own flow; there is no shared
	// role-parameterized path.
	switch invitation.Role {
	case types.RoleMember:
		return s.registerMember(ctx, invitation, email, password, userName)
	case types.RoleTeamAdmin:
		return s.registerWithNewTeam(ctx, invitation, email, password, userName,
			types.RoleTeamAdmin, types.OpRegisterTeamAdmin,
			fmt.Sprintf("%s's Team", userName), "A new cycling team")
	case types.RoleAppAdmin:
		return s.registerWithNewTeam(ctx, invitation, email, password, userName,
			types.RoleAppAdmin, types.OpRegisterAppAdmin,
			"System Administrators", "Application administrators team")
	default:
		return nil, ErrInvalidInput
	}
}

func (s *registrationService) registerMember(ctx context.Context, invitation *repository.Invitation, email, password, userName string) (*repository.User, error) {
	if invitation.TeamID == nil {
		return nil, ErrInvalidInput
	}
	team, err := s.teamRepo.FindByID(ctx, *invitation.TeamID)
	if err != nil {
		return nil, fmt.Errorf("failed to load team: %w", err)
	}
	if team == nil {
		return nil, ErrTeamNotFound
	}

	userID, err := s.identity.CreateIdentity(ctx, email, password)
	if err != nil {
		return nil, mapIdentityError(err)
	}

	intentID, err := s.opLogRepo.Begin(ctx, types.OpRegisterMember, &userID, invitation.TeamID)
	if err != nil {
		return nil, fmt.Errorf("failed to record operation intent: %w", err)
	}

	user := &repository.User{
		ID:       userID,
		Email:    email,
		UserName: userName,
		Role:     types.RoleMember,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		logPartialFailure(types.OpRegisterMember, intentID, 1, err)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	if err := s.roster.AddMember(ctx, team.ID, userID); err != nil {
		logPartialFailure(types.OpRegisterMember, intentID, 2, err)
		return nil, err
	}
	if err := s.counter.AdjustMemberCount(ctx, team.ID, 1); err != nil {
		logPartialFailure(types.OpRegisterMember, intentID, 3, err)
		return nil, err
	}
	if _, err := s.invitations.Consume(ctx, invitation.Email); err != nil {
		logPartialFailure(types.OpRegisterMember, intentID, 4, err)
		return nil, err
	}
	if err := s.opLogRepo.Complete(ctx, intentID); err != nil {
		logPartialFailure(types.OpRegisterMember, intentID, 5, err)
	}

	s.broadcaster.BroadcastMemberJoined(team.ID, userID, userName)

	return s.reload(ctx, userID, user)
}

func (s *registrationService) registerWithNewTeam(ctx context.Context, invitation *repository.Invitation, email, password, userName string, role types.Role, operation, teamName, teamDescription string) (*repository.User, error) {
	userID, err := s.identity.CreateIdentity(ctx, email, password)
	if err != nil {
		return nil, mapIdentityError(err)
	}

	intentID, err := s.opLogRepo.Begin(ctx, operation, &userID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to record operation intent: %w", err)
	}

	// The admin's own team is created up front with the creator already in
	// both roster arrays, so no separate roster writes follow.
	team := &repository.Team{
		Name:        teamName,
		Description: &teamDescription,
		MemberIDs:   []string{userID},
		AdminIDs:    []string{userID},
		MemberCount: 1,
		IsActive:    true,
		CreatedBy:   userID,
	}
	if err := s.teamRepo.Create(ctx, team); err != nil {
		logPartialFailure(operation, intentID, 1, err)
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	joinedAt := s.now()
	user := &repository.User{
		ID:           userID,
		Email:        email,
		UserName:     userName,
		Role:         role,
		TeamID:       &team.ID,
		TeamName:     &team.Name,
		JoinedTeamAt: &joinedAt,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		logPartialFailure(operation, intentID, 2, err)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	if _, err := s.invitations.Consume(ctx, invitation.Email); err != nil {
		logPartialFailure(operation, intentID, 3, err)
		return nil, err
	}
	if err := s.opLogRepo.Complete(ctx, intentID); err != nil {
		logPartialFailure(operation, intentID, 4, err)
	}

	return s.reload(ctx, userID, user)
}

func (s *registrationService) reload(ctx context.Context, userID string, fallback *repository.User) (*repository.User, error) {
	fresh, err := s.userRepo.FindByID(ctx, userID)
	if err != nil || fresh == nil {
		return fallback, nil
	}
	return fresh, nil
}

func mapIdentityError(err error) error {
	switch err {
	case identity.ErrEmailInUse:
		return ErrAlreadyRegistered
	case identity.ErrWeakCredential, identity.ErrInvalidEmail:
		return ErrInvalidInput
	default:
		return fmt.Errorf("failed to create identity: %w", err)
	}
}
