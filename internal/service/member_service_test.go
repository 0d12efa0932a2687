package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/b2wmke/miletracker-backend/internal/types"
)

type memberFixture struct {
	users *fakeUserRepo
	teams *fakeTeamRepo
	ops   *fakeOpLogRepo
	svc   *memberService
}

func newMemberFixture() *memberFixture {
	users := newFakeUserRepo()
	teams := newFakeTeamRepo()
	ops := &fakeOpLogRepo{}

	roster := &rosterService{teamRepo: teams, userRepo: users, now: fixedNow}
	counter := &counterService{teamRepo: teams, userRepo: users}
	role := &roleService{userRepo: users, roster: roster}

	return &memberFixture{
		users: users, teams: teams, ops: ops,
		svc: &memberService{
			roster:    roster,
			counter:   counter,
			role:      role,
			userRepo:  users,
			teamRepo:  teams,
			opLogRepo: ops,
		},
	}
}

func TestRemoveMemberAdjustsTeamTotals(t *testing.T) {
	f := newMemberFixture()
	ctx := context.Background()

	team := seedTeam(t, f.teams, "t1", []string{"admin", "u1", "u2", "u3"}, []string{"admin"})
	f.teams.AdjustTotals(ctx, team.ID, decimal.RequireFromString("100"), 10)

	teamID := team.ID
	seedUser(t, f.users, "admin", types.RoleTeamAdmin, &teamID)
	victim := seedUser(t, f.users, "u1", types.RoleMember, &teamID)
	f.users.AddMiles(ctx, victim.ID, decimal.RequireFromString("25"))

	if err := f.svc.RemoveMember(ctx, "admin", team.ID, "u1"); err != nil {
		t.Fatalf("RemoveMember: %v", err)
	}

	got, _ := f.teams.FindByID(ctx, team.ID)
	if got.MemberCount != 3 {
		t.Errorf("memberCount = %d, want 3", got.MemberCount)
	}
	if !got.TotalMiles.Equal(decimal.RequireFromString("75")) {
		t.Errorf("team totalMiles = %s, want 75", got.TotalMiles)
	}
	if contains(got.MemberIDs, "u1") {
		t.Error("user still on roster")
	}

	// The removed member keeps their lifetime miles.
	user, _ := f.users.FindByID(ctx, "u1")
	if !user.TotalMiles.Equal(decimal.RequireFromString("25")) {
		t.Errorf("user totalMiles = %s, want 25", user.TotalMiles)
	}
	if user.TeamID != nil {
		t.Error("user still assigned to team")
	}
}

func TestRemoveMemberRequiresAuthority(t *testing.T) {
	f := newMemberFixture()
	ctx := context.Background()

	team := seedTeam(t, f.teams, "t1", []string{"u1", "u2"}, nil)
	teamID := team.ID
	seedUser(t, f.users, "u1", types.RoleMember, &teamID)
	seedUser(t, f.users, "u2", types.RoleMember, &teamID)

	if err := f.svc.RemoveMember(ctx, "u2", team.ID, "u1"); err != ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestRemoveMemberAppAdminAnywhere(t *testing.T) {
	f := newMemberFixture()
	ctx := context.Background()

	team := seedTeam(t, f.teams, "t1", []string{"u1"}, nil)
	teamID := team.ID
	seedUser(t, f.users, "u1", types.RoleMember, &teamID)
	seedUser(t, f.users, "boss", types.RoleAppAdmin, nil)

	if err := f.svc.RemoveMember(ctx, "boss", team.ID, "u1"); err != nil {
		t.Fatalf("RemoveMember by app admin: %v", err)
	}
}

func TestLeaveTeam(t *testing.T) {
	f := newMemberFixture()
	ctx := context.Background()

	team := seedTeam(t, f.teams, "t1", []string{"u1"}, nil)
	teamID := team.ID
	seedUser(t, f.users, "u1", types.RoleMember, &teamID)

	if err := f.svc.LeaveTeam(ctx, "u1"); err != nil {
		t.Fatalf("LeaveTeam: %v", err)
	}
	user, _ := f.users.FindByID(ctx, "u1")
	if user.TeamID != nil {
		t.Error("user still on team")
	}
}

func TestLeaveTeamWithoutTeam(t *testing.T) {
	f := newMemberFixture()
	seedUser(t, f.users, "u1", types.RoleMember, nil)

	if err := f.svc.LeaveTeam(context.Background(), "u1"); err != ErrNotAMember {
		t.Fatalf("expected ErrNotAMember, got %v", err)
	}
}

func TestChangeRolePromoteToTeamAdmin(t *testing.T) {
	f := newMemberFixture()
	ctx := context.Background()

	team := seedTeam(t, f.teams, "t1", []string{"admin", "u1"}, []string{"admin"})
	teamID := team.ID
	seedUser(t, f.users, "admin", types.RoleTeamAdmin, &teamID)
	seedUser(t, f.users, "u1", types.RoleMember, &teamID)

	if err := f.svc.ChangeRole(ctx, "admin", "u1", types.RoleTeamAdmin); err != nil {
		t.Fatalf("ChangeRole: %v", err)
	}

	user, _ := f.users.FindByID(ctx, "u1")
	if user.Role != types.RoleTeamAdmin {
		t.Errorf("role = %q, want team_admin", user.Role)
	}
	got, _ := f.teams.FindByID(ctx, team.ID)
	if !contains(got.AdminIDs, "u1") {
		t.Error("promoted user missing from admin list")
	}
}

func TestChangeRoleDemoteTeamAdmin(t *testing.T) {
	f := newMemberFixture()
	ctx := context.Background()

	team := seedTeam(t, f.teams, "t1", []string{"u1"}, []string{"u1"})
	teamID := team.ID
	seedUser(t, f.users, "u1", types.RoleTeamAdmin, &teamID)
	seedUser(t, f.users, "boss", types.RoleAppAdmin, nil)

	if err := f.svc.ChangeRole(ctx, "boss", "u1", types.RoleMember); err != nil {
		t.Fatalf("ChangeRole: %v", err)
	}

	user, _ := f.users.FindByID(ctx, "u1")
	if user.Role != types.RoleMember {
		t.Errorf("role = %q, want member", user.Role)
	}
	got, _ := f.teams.FindByID(ctx, team.ID)
	if contains(got.AdminIDs, "u1") {
		t.Error("demoted user still in admin list")
	}
	if !contains(got.MemberIDs, "u1") {
		t.Error("demoted user dropped from roster")
	}
}

func TestChangeRoleRejectsSelf(t *testing.T) {
	f := newMemberFixture()
	seedUser(t, f.users, "u1", types.RoleTeamAdmin, nil)

	err := f.svc.ChangeRole(context.Background(), "u1", "u1", types.RoleMember)
	if err != ErrSelfRoleChange {
		t.Fatalf("expected ErrSelfRoleChange, got %v", err)
	}
}

func TestChangeRoleAppAdminIsTerminal(t *testing.T) {
	f := newMemberFixture()
	ctx := context.Background()

	seedUser(t, f.users, "boss", types.RoleAppAdmin, nil)
	seedUser(t, f.users, "other", types.RoleAppAdmin, nil)

	err := f.svc.ChangeRole(ctx, "boss", "other", types.RoleMember)
	if err != ErrRoleChangeNotAllowed {
		t.Fatalf("expected ErrRoleChangeNotAllowed, got %v", err)
	}
}

func TestChangeRoleToAppAdminNeedsAppAdmin(t *testing.T) {
	f := newMemberFixture()
	ctx := context.Background()

	team := seedTeam(t, f.teams, "t1", []string{"admin", "u1"}, []string{"admin"})
	teamID := team.ID
	seedUser(t, f.users, "admin", types.RoleTeamAdmin, &teamID)
	seedUser(t, f.users, "u1", types.RoleMember, &teamID)

	err := f.svc.ChangeRole(ctx, "admin", "u1", types.RoleAppAdmin)
	if err != ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}
