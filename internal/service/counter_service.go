package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/b2wmke/miletracker-backend/internal/db"
	"github.com/b2wmke/miletracker-backend/internal/repository"
)

// ============================================
// Counter Maintainer
// ============================================

// CounterService applies signed deltas to the denormalized counters on team
// and user records using the store's atomic increment, never
// read-modify-write. Choosing the correct delta is the coordinator's job.
type CounterService interface {
	AdjustTeamTotals(ctx context.Context, teamID string, milesDelta decimal.Decimal, ridesDelta int) error
	AdjustUserMiles(ctx context.Context, userID string, milesDelta decimal.Decimal) error
	AdjustMemberCount(ctx context.Context, teamID string, delta int) error
}

type counterService struct {
	teamRepo repository.TeamRepository
	userRepo repository.UserRepository
	redis    *db.RedisDB
}

func NewCounterService(teamRepo repository.TeamRepository, userRepo repository.UserRepository, redis *db.RedisDB) CounterService {
	return &counterService{teamRepo: teamRepo, userRepo: userRepo, redis: redis}
}

func (s *counterService) AdjustTeamTotals(ctx context.Context, teamID string, milesDelta decimal.Decimal, ridesDelta int) error {
	if err := s.teamRepo.AdjustTotals(ctx, teamID, milesDelta, ridesDelta); err != nil {
		return fmt.Errorf("failed to adjust team totals: %w", err)
	}
	s.invalidateAggregates(ctx)
	return nil
}

func (s *counterService) AdjustUserMiles(ctx context.Context, userID string, milesDelta decimal.Decimal) error {
	if err := s.userRepo.AddMiles(ctx, userID, milesDelta); err != nil {
		return fmt.Errorf("failed to adjust user miles: %w", err)
	}
	s.invalidateAggregates(ctx)
	return nil
}

func (s *counterService) AdjustMemberCount(ctx context.Context, teamID string, delta int) error {
	if err := s.teamRepo.AdjustMemberCount(ctx, teamID, delta); err != nil {
		return fmt.Errorf("failed to adjust member count: %w", err)
	}
	s.invalidateAggregates(ctx)
	return nil
}

// invalidateAggregates drops the cached leaderboard and app stats after any
// counter write. Best effort: a cache miss is cheaper than a stale read.
func (s *counterService) invalidateAggregates(ctx context.Context) {
	if s.redis == nil {
		return
	}
	_ = s.redis.InvalidateCache(ctx, "leaderboard")
	_ = s.redis.InvalidateCache(ctx, "admin_stats")
}
