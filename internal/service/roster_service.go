package service

import (
	"context"
	"fmt"
	"time"

	"github.com/b2wmke/miletracker-backend/internal/repository"
)

// ============================================
// Roster Synchronizer
// ============================================

// RosterService is the single owner of the link between a team's member/admin
// lists and a user's team assignment. Array mutations go through the store's
// atomic union/remove operations so concurrent callers cannot lose updates.
type RosterService interface {
	AddMember(ctx context.Context, teamID, userID string) error
	RemoveMember(ctx context.Context, teamID, userID string) error
	SetAdmin(ctx context.Context, teamID, userID string, isAdmin bool) error
}

type rosterService struct {
	teamRepo repository.TeamRepository
	userRepo repository.UserRepository
	now      nowFunc
}

func NewRosterService(teamRepo repository.TeamRepository, userRepo repository.UserRepository) RosterService {
	return &rosterService{teamRepo: teamRepo, userRepo: userRepo, now: time.Now}
}

func (s *rosterService) AddMember(ctx context.Context, teamID, userID string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}
	if user.TeamID != nil {
		return ErrAlreadyOnTeam
	}

	team, err := s.teamRepo.FindByID(ctx, teamID)
	if err != nil {
		return fmt.Errorf("failed to load team: %w", err)
	}
	if team == nil {
		return ErrTeamNotFound
	}

	if err := s.teamRepo.AddMemberID(ctx, teamID, userID); err != nil {
		return fmt.Errorf("failed to add member to roster: %w", err)
	}
	if err := s.userRepo.AssignTeam(ctx, userID, teamID, team.Name, s.now()); err != nil {
		return fmt.Errorf("failed to assign team to user: %w", err)
	}
	return nil
}

func (s *rosterService) RemoveMember(ctx context.Context, teamID, userID string) error {
	team, err := s.teamRepo.FindByID(ctx, teamID)
	if err != nil {
		return fmt.Errorf("failed to load team: %w", err)
	}
	if team == nil {
		return ErrTeamNotFound
	}
	if !contains(team.MemberIDs, userID) {
		return ErrNotAMember
	}

	if err := s.teamRepo.RemoveMemberID(ctx, teamID, userID); err != nil {
		return fmt.Errorf("failed to remove member from roster: %w", err)
	}
	// Removing a non-admin from admin_ids is a no-op, not an error.
	if err := s.teamRepo.RemoveAdminID(ctx, teamID, userID); err != nil {
		return fmt.Errorf("failed to remove member from admin list: %w", err)
	}
	if err := s.userRepo.ClearTeam(ctx, userID); err != nil {
		return fmt.Errorf("failed to clear user's team assignment: %w", err)
	}
	return nil
}

func (s *rosterService) SetAdmin(ctx context.Context, teamID, userID string, isAdmin bool) error {
	team, err := s.teamRepo.FindByID(ctx, teamID)
	if err != nil {
		return fmt.Errorf("failed to load team: %w", err)
	}
	if team == nil {
		return ErrTeamNotFound
	}
	if !contains(team.MemberIDs, userID) {
		return ErrNotAMember
	}

	// Both directions are idempotent at the store layer.
	if isAdmin {
		return s.teamRepo.AddAdminID(ctx, teamID, userID)
	}
	return s.teamRepo.RemoveAdminID(ctx, teamID, userID)
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
