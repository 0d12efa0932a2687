package service

import (
	"context"
	"testing"

	"github.com/b2wmke/miletracker-backend/internal/repository"
	"github.com/b2wmke/miletracker-backend/internal/types"
)

func newTestRoster(teams *fakeTeamRepo, users *fakeUserRepo) *rosterService {
	return &rosterService{teamRepo: teams, userRepo: users, now: fixedNow}
}

func seedTeam(t *testing.T, teams *fakeTeamRepo, id string, memberIDs, adminIDs []string) *repository.Team {
	t.Helper()
	team := &repository.Team{
		ID:          id,
		Name:        "Test Riders",
		MemberIDs:   append([]string{}, memberIDs...),
		AdminIDs:    append([]string{}, adminIDs...),
		MemberCount: len(memberIDs),
		IsActive:    true,
		CreatedBy:   "creator",
	}
	if err := teams.Create(context.Background(), team); err != nil {
		t.Fatalf("seed team: %v", err)
	}
	return team
}

func seedUser(t *testing.T, users *fakeUserRepo, id string, role types.Role, teamID *string) *repository.User {
	t.Helper()
	user := &repository.User{
		ID:       id,
		Email:    id + "@example.com",
		UserName: "name_" + id,
		Role:     role,
	}
	if err := users.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	if teamID != nil {
		if err := users.AssignTeam(context.Background(), id, *teamID, "Test Riders", testTime); err != nil {
			t.Fatalf("assign team: %v", err)
		}
	}
	return user
}

func TestRosterAddMember(t *testing.T) {
	teams := newFakeTeamRepo()
	users := newFakeUserRepo()
	roster := newTestRoster(teams, users)
	ctx := context.Background()

	seedTeam(t, teams, "t1", nil, nil)
	seedUser(t, users, "u1", types.RoleMember, nil)

	if err := roster.AddMember(ctx, "t1", "u1"); err != nil {
		t.Fatalf("AddMember: %v", err)
	}

	team, _ := teams.FindByID(ctx, "t1")
	if !contains(team.MemberIDs, "u1") {
		t.Error("user missing from team roster")
	}
	user, _ := users.FindByID(ctx, "u1")
	if user.TeamID == nil || *user.TeamID != "t1" {
		t.Error("user team assignment missing")
	}
	if user.JoinedTeamAt == nil || !user.JoinedTeamAt.Equal(testTime) {
		t.Error("joinedTeamAt not stamped")
	}
}

func TestRosterAddMemberAlreadyOnTeam(t *testing.T) {
	teams := newFakeTeamRepo()
	users := newFakeUserRepo()
	roster := newTestRoster(teams, users)
	ctx := context.Background()

	seedTeam(t, teams, "t1", []string{"u1"}, nil)
	seedTeam(t, teams, "t2", nil, nil)
	teamID := "t1"
	seedUser(t, users, "u1", types.RoleMember, &teamID)

	if err := roster.AddMember(ctx, "t2", "u1"); err != ErrAlreadyOnTeam {
		t.Fatalf("expected ErrAlreadyOnTeam, got %v", err)
	}
}

func TestRosterRemoveMemberAlsoDropsAdmin(t *testing.T) {
	teams := newFakeTeamRepo()
	users := newFakeUserRepo()
	roster := newTestRoster(teams, users)
	ctx := context.Background()

	seedTeam(t, teams, "t1", []string{"u1", "u2"}, []string{"u1"})
	teamID := "t1"
	seedUser(t, users, "u1", types.RoleTeamAdmin, &teamID)

	if err := roster.RemoveMember(ctx, "t1", "u1"); err != nil {
		t.Fatalf("RemoveMember: %v", err)
	}

	team, _ := teams.FindByID(ctx, "t1")
	if contains(team.MemberIDs, "u1") {
		t.Error("user still on roster")
	}
	if contains(team.AdminIDs, "u1") {
		t.Error("user still in admin list")
	}
	user, _ := users.FindByID(ctx, "u1")
	if user.TeamID != nil {
		t.Error("user team assignment not cleared")
	}
}

func TestRosterRemoveNonMember(t *testing.T) {
	teams := newFakeTeamRepo()
	users := newFakeUserRepo()
	roster := newTestRoster(teams, users)
	ctx := context.Background()

	seedTeam(t, teams, "t1", []string{"u2"}, nil)
	seedUser(t, users, "u1", types.RoleMember, nil)

	if err := roster.RemoveMember(ctx, "t1", "u1"); err != ErrNotAMember {
		t.Fatalf("expected ErrNotAMember, got %v", err)
	}
}

func TestRosterSetAdminIdempotent(t *testing.T) {
	teams := newFakeTeamRepo()
	users := newFakeUserRepo()
	roster := newTestRoster(teams, users)
	ctx := context.Background()

	seedTeam(t, teams, "t1", []string{"u1"}, nil)

	for i := 0; i < 2; i++ {
		if err := roster.SetAdmin(ctx, "t1", "u1", true); err != nil {
			t.Fatalf("SetAdmin(true) run %d: %v", i, err)
		}
	}
	team, _ := teams.FindByID(ctx, "t1")
	if len(team.AdminIDs) != 1 {
		t.Fatalf("admin list has %d entries, want 1", len(team.AdminIDs))
	}

	// Revoking twice is equally safe.
	for i := 0; i < 2; i++ {
		if err := roster.SetAdmin(ctx, "t1", "u1", false); err != nil {
			t.Fatalf("SetAdmin(false) run %d: %v", i, err)
		}
	}
	team, _ = teams.FindByID(ctx, "t1")
	if len(team.AdminIDs) != 0 {
		t.Fatalf("admin list has %d entries, want 0", len(team.AdminIDs))
	}
}

func TestRosterSetAdminRequiresMembership(t *testing.T) {
	teams := newFakeTeamRepo()
	users := newFakeUserRepo()
	roster := newTestRoster(teams, users)
	ctx := context.Background()

	seedTeam(t, teams, "t1", nil, nil)

	if err := roster.SetAdmin(ctx, "t1", "u1", true); err != ErrNotAMember {
		t.Fatalf("expected ErrNotAMember, got %v", err)
	}
}
