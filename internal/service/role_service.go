package service

import (
	"context"
	"fmt"

	"github.com/b2wmke/miletracker-backend/internal/repository"
	"github.com/b2wmke/miletracker-backend/internal/types"
)

// ============================================
// Role Transition State Machine
// ============================================

// RoleService performs legal role changes. The roster side effect lands
// before the role write: a crash mid-transition leaves the admin list updated
// with the role stale, never a role claiming admin rights the roster does not
// reflect.
type RoleService interface {
	Transition(ctx context.Context, userID string, from, to types.Role) error
}

type roleService struct {
	userRepo repository.UserRepository
	roster   RosterService
}

func NewRoleService(userRepo repository.UserRepository, roster RosterService) RoleService {
	return &roleService{userRepo: userRepo, roster: roster}
}

func (s *roleService) Transition(ctx context.Context, userID string, from, to types.Role) error {
	if !types.IsValidRole(from) || !types.IsValidRole(to) {
		return ErrInvalidInput
	}
	if !types.CanTransition(from, to) {
		return ErrRoleChangeNotAllowed
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}
	// Optimistic check only: another actor can still win a race between this
	// read and the writes below.
	if user.Role != from {
		return ErrRoleMismatch
	}

	if user.TeamID != nil {
		switch {
		case to == types.RoleTeamAdmin || to == types.RoleAppAdmin:
			if err := s.roster.SetAdmin(ctx, *user.TeamID, userID, true); err != nil {
				return err
			}
		case from == types.RoleTeamAdmin && to == types.RoleMember:
			if err := s.roster.SetAdmin(ctx, *user.TeamID, userID, false); err != nil {
				return err
			}
		}
	}

	// Role write last, after the roster side effect succeeded.
	if err := s.userRepo.SetRole(ctx, userID, to); err != nil {
		return fmt.Errorf("failed to write role: %w", err)
	}
	return nil
}
