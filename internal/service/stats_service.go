package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/b2wmke/miletracker-backend/internal/db"
	"github.com/b2wmke/miletracker-backend/internal/repository"
)

// ============================================
// Stats Service
// ============================================

const statsCacheTTL = 2 * time.Minute

type LeaderboardEntry struct {
	TeamID      string          `json:"teamId"`
	Name        string          `json:"name"`
	MemberCount int             `json:"memberCount"`
	TotalMiles  decimal.Decimal `json:"totalMiles"`
	TotalRides  int             `json:"totalRides"`
	Rank        int             `json:"rank"`
}

type AdminStats struct {
	TotalUsers int             `json:"totalUsers"`
	TotalTeams int             `json:"totalTeams"`
	TotalMiles decimal.Decimal `json:"totalMiles"`
	TotalRides int             `json:"totalRides"`
}

// StatsService serves read-only aggregates off the denormalized counters.
// Results are cached briefly in Redis; counter writes invalidate the keys.
type StatsService interface {
	Leaderboard(ctx context.Context) ([]LeaderboardEntry, error)
	AdminStats(ctx context.Context) (*AdminStats, error)
}

type statsService struct {
	teamRepo repository.TeamRepository
	userRepo repository.UserRepository
	redis    *db.RedisDB
}

func NewStatsService(teamRepo repository.TeamRepository, userRepo repository.UserRepository, redis *db.RedisDB) StatsService {
	return &statsService{teamRepo: teamRepo, userRepo: userRepo, redis: redis}
}

func (s *statsService) Leaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	if s.redis != nil {
		var cached []LeaderboardEntry
		if err := s.redis.GetCache(ctx, "leaderboard", &cached); err == nil {
			return cached, nil
		}
	}

	teams, err := s.teamRepo.FindAllByTotalMiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load teams: %w", err)
	}

	entries := make([]LeaderboardEntry, 0, len(teams))
	for i, team := range teams {
		entries = append(entries, LeaderboardEntry{
			TeamID:      team.ID,
			Name:        team.Name,
			MemberCount: team.MemberCount,
			TotalMiles:  team.TotalMiles,
			TotalRides:  team.TotalRides,
			Rank:        i + 1,
		})
	}

	if s.redis != nil {
		s.redis.SetCache(ctx, "leaderboard", entries, statsCacheTTL)
	}
	return entries, nil
}

func (s *statsService) AdminStats(ctx context.Context) (*AdminStats, error) {
	if s.redis != nil {
		cached := &AdminStats{}
		if err := s.redis.GetCache(ctx, "admin_stats", cached); err == nil {
			return cached, nil
		}
	}

	userCount, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	teamCount, err := s.teamRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count teams: %w", err)
	}
	totalMiles, err := s.userRepo.SumTotalMiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to sum miles: %w", err)
	}
	totalRides, err := s.teamRepo.SumTotalRides(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to sum rides: %w", err)
	}

	stats := &AdminStats{
		TotalUsers: userCount,
		TotalTeams: teamCount,
		TotalMiles: totalMiles,
		TotalRides: totalRides,
	}
	if s.redis != nil {
		s.redis.SetCache(ctx, "admin_stats", stats, statsCacheTTL)
	}
	return stats, nil
}
