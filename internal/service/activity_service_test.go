package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/b2wmke/miletracker-backend/internal/types"
)

type activityFixture struct {
	users *fakeUserRepo
	teams *fakeTeamRepo
	logs  *fakeMileLogRepo
	ops   *fakeOpLogRepo
	svc   *activityService
}

func newActivityFixture() *activityFixture {
	users := newFakeUserRepo()
	teams := newFakeTeamRepo()
	logs := &fakeMileLogRepo{}
	ops := &fakeOpLogRepo{}
	counter := &counterService{teamRepo: teams, userRepo: users}

	return &activityFixture{
		users: users, teams: teams, logs: logs, ops: ops,
		svc: &activityService{
			counter:     counter,
			mileLogRepo: logs,
			userRepo:    users,
			opLogRepo:   ops,
		},
	}
}

func TestLogMilesRollsUpTotals(t *testing.T) {
	f := newActivityFixture()
	ctx := context.Background()

	team := seedTeam(t, f.teams, "t1", []string{"u1"}, nil)
	teamID := team.ID
	seedUser(t, f.users, "u1", types.RoleMember, &teamID)

	rideDate := time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		if _, err := f.svc.LogMiles(ctx, "u1", decimal.RequireFromString("5.5"), rideDate, nil); err != nil {
			t.Fatalf("LogMiles run %d: %v", i, err)
		}
	}

	user, _ := f.users.FindByID(ctx, "u1")
	if !user.TotalMiles.Equal(decimal.RequireFromString("11.0")) {
		t.Errorf("user totalMiles = %s, want 11.0", user.TotalMiles)
	}

	got, _ := f.teams.FindByID(ctx, team.ID)
	if !got.TotalMiles.Equal(decimal.RequireFromString("11.0")) {
		t.Errorf("team totalMiles = %s, want 11.0", got.TotalMiles)
	}
	if got.TotalRides != 2 {
		t.Errorf("team totalRides = %d, want 2", got.TotalRides)
	}

	if len(f.logs.logs) != 2 {
		t.Fatalf("got %d log entries, want 2", len(f.logs.logs))
	}
	entry := f.logs.logs[0]
	if entry.TeamID == nil || *entry.TeamID != team.ID {
		t.Error("log entry missing team snapshot")
	}
	if entry.UserName != "name_u1" {
		t.Errorf("log entry userName = %q", entry.UserName)
	}
}

func TestLogMilesWithoutTeam(t *testing.T) {
	f := newActivityFixture()
	ctx := context.Background()

	seedUser(t, f.users, "u1", types.RoleMember, nil)

	entry, err := f.svc.LogMiles(ctx, "u1", decimal.RequireFromString("3.2"), testTime, nil)
	if err != nil {
		t.Fatalf("LogMiles: %v", err)
	}
	if entry.TeamID != nil {
		t.Error("solo ride should carry no team snapshot")
	}

	user, _ := f.users.FindByID(ctx, "u1")
	if !user.TotalMiles.Equal(decimal.RequireFromString("3.2")) {
		t.Errorf("user totalMiles = %s, want 3.2", user.TotalMiles)
	}
}

func TestLogMilesRejectsNonPositive(t *testing.T) {
	f := newActivityFixture()
	seedUser(t, f.users, "u1", types.RoleMember, nil)

	for _, miles := range []string{"0", "-1.5"} {
		_, err := f.svc.LogMiles(context.Background(), "u1", decimal.RequireFromString(miles), testTime, nil)
		if err != ErrInvalidInput {
			t.Errorf("LogMiles(%s): expected ErrInvalidInput, got %v", miles, err)
		}
	}
}

func TestLogMilesUnknownUser(t *testing.T) {
	f := newActivityFixture()

	_, err := f.svc.LogMiles(context.Background(), "ghost", decimal.RequireFromString("1"), testTime, nil)
	if err != ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestHistoryLimit(t *testing.T) {
	f := newActivityFixture()
	ctx := context.Background()
	seedUser(t, f.users, "u1", types.RoleMember, nil)

	for i := 0; i < 5; i++ {
		if _, err := f.svc.LogMiles(ctx, "u1", decimal.RequireFromString("1"), testTime, nil); err != nil {
			t.Fatalf("LogMiles: %v", err)
		}
	}

	logs, err := f.svc.History(ctx, "u1", 3)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(logs) != 3 {
		t.Errorf("got %d entries, want 3", len(logs))
	}
}
