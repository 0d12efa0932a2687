package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/b2wmke/miletracker-backend/internal/repository"
	"github.com/b2wmke/miletracker-backend/internal/socket"
	"github.com/b2wmke/miletracker-backend/internal/types"
)

// ============================================
// Activity Logging
// ============================================

// ActivityService appends ride records and rolls their miles into the
// denormalized user and team totals. The append happens first so a failure
// later in the sequence leaves a visible log entry whose miles are not yet
// reflected in the totals, never the reverse.
type ActivityService interface {
	LogMiles(ctx context.Context, userID string, miles decimal.Decimal, rideDate time.Time, notes *string) (*repository.MileLog, error)
	History(ctx context.Context, userID string, limit int) ([]*repository.MileLog, error)
	TeamHistory(ctx context.Context, teamID string, limit int) ([]*repository.MileLog, error)
}

type activityService struct {
	counter     CounterService
	mileLogRepo repository.MileLogRepository
	userRepo    repository.UserRepository
	opLogRepo   repository.OperationLogRepository
	broadcaster *socket.Broadcaster
}

func NewActivityService(
	counter CounterService,
	mileLogRepo repository.MileLogRepository,
	userRepo repository.UserRepository,
	opLogRepo repository.OperationLogRepository,
	broadcaster *socket.Broadcaster,
) ActivityService {
	return &activityService{
		counter:     counter,
		mileLogRepo: mileLogRepo,
		userRepo:    userRepo,
		opLogRepo:   opLogRepo,
		broadcaster: broadcaster,
	}
}

func (s *activityService) LogMiles(ctx context.Context, userID string, miles decimal.Decimal, rideDate time.Time, notes *string) (*repository.MileLog, error) {
	if !miles.IsPositive() {
		return nil, ErrInvalidInput
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	intentID, err := s.opLogRepo.Begin(ctx, types.OpLogActivity, &userID, user.TeamID)
	if err != nil {
		return nil, fmt.Errorf("failed to record operation intent: %w", err)
	}

	entry := &repository.MileLog{
		UserID:   userID,
		UserName: user.UserName,
		TeamID:   user.TeamID,
		TeamName: user.TeamName,
		Miles:    miles,
		RideDate: rideDate,
		Notes:    notes,
	}
	if err := s.mileLogRepo.Create(ctx, entry); err != nil {
		logPartialFailure(types.OpLogActivity, intentID, 1, err)
		return nil, fmt.Errorf("failed to create mile log: %w", err)
	}
	if err := s.counter.AdjustUserMiles(ctx, userID, miles); err != nil {
		logPartialFailure(types.OpLogActivity, intentID, 2, err)
		return nil, err
	}
	if user.TeamID != nil {
		if err := s.counter.AdjustTeamTotals(ctx, *user.TeamID, miles, 1); err != nil {
			logPartialFailure(types.OpLogActivity, intentID, 3, err)
			return nil, err
		}
	}
	if err := s.opLogRepo.Complete(ctx, intentID); err != nil {
		logPartialFailure(types.OpLogActivity, intentID, 4, err)
	}

	if user.TeamID != nil {
		s.broadcaster.BroadcastTeamTotals(*user.TeamID, user.UserName, miles.String())
	}
	return entry, nil
}

func (s *activityService) History(ctx context.Context, userID string, limit int) ([]*repository.MileLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.mileLogRepo.FindByUser(ctx, userID, limit)
}

func (s *activityService) TeamHistory(ctx context.Context, teamID string, limit int) ([]*repository.MileLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.mileLogRepo.FindByTeam(ctx, teamID, limit)
}
