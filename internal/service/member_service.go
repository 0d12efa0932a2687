package service

import (
	"context"
	"fmt"

	"github.com/b2wmke/miletracker-backend/internal/repository"
	"github.com/b2wmke/miletracker-backend/internal/socket"
	"github.com/b2wmke/miletracker-backend/internal/types"
)

// ============================================
// Member Management
// ============================================

// MemberService covers removal from a team and role changes. Removal is a
// fixed write sequence that subtracts the member's lifetime miles from the
// team totals; the member's personal total is untouched.
type MemberService interface {
	RemoveMember(ctx context.Context, actorID, teamID, userID string) error
	LeaveTeam(ctx context.Context, userID string) error
	ChangeRole(ctx context.Context, actorID, userID string, to types.Role) error
}

type memberService struct {
	roster      RosterService
	counter     CounterService
	role        RoleService
	userRepo    repository.UserRepository
	teamRepo    repository.TeamRepository
	opLogRepo   repository.OperationLogRepository
	broadcaster *socket.Broadcaster
}

func NewMemberService(
	roster RosterService,
	counter CounterService,
	role RoleService,
	userRepo repository.UserRepository,
	teamRepo repository.TeamRepository,
	opLogRepo repository.OperationLogRepository,
	broadcaster *socket.Broadcaster,
) MemberService {
	return &memberService{
		roster:      roster,
		counter:     counter,
		role:        role,
		userRepo:    userRepo,
		teamRepo:    teamRepo,
		opLogRepo:   opLogRepo,
		broadcaster: broadcaster,
	}
}

func (s *memberService) RemoveMember(ctx context.Context, actorID, teamID, userID string) error {
	actor, err := s.userRepo.FindByID(ctx, actorID)
	if err != nil {
		return fmt.Errorf("failed to load actor: %w", err)
	}
	if actor == nil {
		return ErrUserNotFound
	}
	team, err := s.teamRepo.FindByID(ctx, teamID)
	if err != nil {
		return fmt.Errorf("failed to load team: %w", err)
	}
	if team == nil {
		return ErrTeamNotFound
	}
	if actor.Role != types.RoleAppAdmin && !contains(team.AdminIDs, actorID) {
		return ErrForbidden
	}
	return s.remove(ctx, team, userID)
}

// LeaveTeam is the self-service variant; the member is always authorized to
// remove themselves.
func (s *memberService) LeaveTeam(ctx context.Context, userID string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}
	if user.TeamID == nil {
		return ErrNotAMember
	}
	team, err := s.teamRepo.FindByID(ctx, *user.TeamID)
	if err != nil {
		return fmt.Errorf("failed to load team: %w", err)
	}
	if team == nil {
		return ErrTeamNotFound
	}
	return s.remove(ctx, team, userID)
}

func (s *memberService) remove(ctx context.Context, team *repository.Team, userID string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}
	if user.TeamID == nil || *user.TeamID != team.ID {
		return ErrNotAMember
	}

	// Snapshot the lifetime miles before any write; the team totals shed
	// this amount while the user keeps it.
	miles := user.TotalMiles

	intentID, err := s.opLogRepo.Begin(ctx, types.OpRemoveMember, &userID, &team.ID)
	if err != nil {
		return fmt.Errorf("failed to record operation intent: %w", err)
	}

	if err := s.roster.RemoveMember(ctx, team.ID, userID); err != nil {
		logPartialFailure(types.OpRemoveMember, intentID, 1, err)
		return err
	}
	if err := s.counter.AdjustMemberCount(ctx, team.ID, -1); err != nil {
		logPartialFailure(types.OpRemoveMember, intentID, 2, err)
		return err
	}
	if err := s.counter.AdjustTeamTotals(ctx, team.ID, miles.Neg(), 0); err != nil {
		logPartialFailure(types.OpRemoveMember, intentID, 3, err)
		return err
	}
	if err := s.opLogRepo.Complete(ctx, intentID); err != nil {
		logPartialFailure(types.OpRemoveMember, intentID, 4, err)
	}

	s.broadcaster.BroadcastMemberRemoved(team.ID, userID)
	return nil
}

func (s *memberService) ChangeRole(ctx context.Context, actorID, userID string, to types.Role) error {
	if actorID == userID {
		return ErrSelfRoleChange
	}
	if !types.IsValidRole(to) {
		return ErrInvalidInput
	}

	actor, err := s.userRepo.FindByID(ctx, actorID)
	if err != nil {
		return fmt.Errorf("failed to load actor: %w", err)
	}
	if actor == nil {
		return ErrUserNotFound
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}

	// Promotion to app_admin is reserved to app admins. Team admins may
	// promote or demote within their own roster.
	switch {
	case actor.Role == types.RoleAppAdmin:
	case to == types.RoleAppAdmin:
		return ErrForbidden
	case actor.Role == types.RoleTeamAdmin && actor.TeamID != nil && user.TeamID != nil && *actor.TeamID == *user.TeamID:
	default:
		return ErrForbidden
	}

	intentID, err := s.opLogRepo.Begin(ctx, types.OpChangeRole, &userID, user.TeamID)
	if err != nil {
		return fmt.Errorf("failed to record operation intent: %w", err)
	}

	if err := s.role.Transition(ctx, userID, user.Role, to); err != nil {
		logPartialFailure(types.OpChangeRole, intentID, 1, err)
		return err
	}
	if err := s.opLogRepo.Complete(ctx, intentID); err != nil {
		logPartialFailure(types.OpChangeRole, intentID, 2, err)
	}

	if user.TeamID != nil {
		s.broadcaster.BroadcastRoleChanged(*user.TeamID, userID, string(to))
	}
	return nil
}
