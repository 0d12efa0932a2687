package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/b2wmke/miletracker-backend/internal/db"
	"github.com/b2wmke/miletracker-backend/internal/repository"
	"github.com/b2wmke/miletracker-backend/internal/socket"
	"github.com/b2wmke/miletracker-backend/internal/types"
)

// ============================================
// Team Service
// ============================================

type TeamService interface {
	GetByID(ctx context.Context, id string) (*repository.Team, error)
	List(ctx context.Context) ([]*repository.Team, error)
	Members(ctx context.Context, teamID string) ([]*repository.User, error)
	UpdateInfo(ctx context.Context, actorID, teamID, name string, description, image *string) (*repository.Team, error)
}

type teamService struct {
	teamRepo    repository.TeamRepository
	userRepo    repository.UserRepository
	redis       *db.RedisDB
	broadcaster *socket.Broadcaster
}

func NewTeamService(teamRepo repository.TeamRepository, userRepo repository.UserRepository, redis *db.RedisDB, broadcaster *socket.Broadcaster) TeamService {
	return &teamService{teamRepo: teamRepo, userRepo: userRepo, redis: redis, broadcaster: broadcaster}
}

func (s *teamService) GetByID(ctx context.Context, id string) (*repository.Team, error) {
	team, err := s.teamRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load team: %w", err)
	}
	if team == nil {
		return nil, ErrTeamNotFound
	}
	return team, nil
}

func (s *teamService) List(ctx context.Context) ([]*repository.Team, error) {
	return s.teamRepo.FindAll(ctx)
}

func (s *teamService) Members(ctx context.Context, teamID string) ([]*repository.User, error) {
	team, err := s.teamRepo.FindByID(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to load team: %w", err)
	}
	if team == nil {
		return nil, ErrTeamNotFound
	}
	return s.userRepo.FindByTeamID(ctx, teamID)
}

// UpdateInfo rewrites the descriptive fields whole. A rename also fans out
// the new name to the denormalized team_name on every member profile.
func (s *teamService) UpdateInfo(ctx context.Context, actorID, teamID, name string, description, image *string) (*repository.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidInput
	}

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

	renamed := team.Name != name
	if err := s.teamRepo.UpdateInfo(ctx, teamID, name, description, image); err != nil {
		return nil, fmt.Errorf("failed to update team: %w", err)
	}
	if renamed {
		if err := s.userRepo.UpdateTeamName(ctx, teamID, name); err != nil {
			return nil, fmt.Errorf("failed to propagate team name: %w", err)
		}
	}

	if s.redis != nil {
		s.redis.InvalidateCache(ctx, "leaderboard")
	}
	s.broadcaster.BroadcastTeamUpdated(teamID, name)

	return s.GetByID(ctx, teamID)
}
