package service

import (
	"context"
	"testing"

	"github.com/b2wmke/miletracker-backend/internal/types"
)

func newTestTeamService(teams *fakeTeamRepo, users *fakeUserRepo) *teamService {
	return &teamService{teamRepo: teams, userRepo: users}
}

func TestUpdateTeamRenameFansOut(t *testing.T) {
	teams := newFakeTeamRepo()
	users := newFakeUserRepo()
	svc := newTestTeamService(teams, users)
	ctx := context.Background()

	team := seedTeam(t, teams, "t1", []string{"admin", "u1"}, []string{"admin"})
	teamID := team.ID
	seedUser(t, users, "admin", types.RoleTeamAdmin, &teamID)
	seedUser(t, users, "u1", types.RoleMember, &teamID)

	updated, err := svc.UpdateInfo(ctx, "admin", teamID, "Night Owls", nil, nil)
	if err != nil {
		t.Fatalf("UpdateInfo: %v", err)
	}
	if updated.Name != "Night Owls" {
		t.Errorf("team name = %q", updated.Name)
	}

	// Every member profile carries the new denormalized name.
	for _, id := range []string{"admin", "u1"} {
		user, _ := users.FindByID(ctx, id)
		if user.TeamName == nil || *user.TeamName != "Night Owls" {
			t.Errorf("user %s teamName not updated: %v", id, user.TeamName)
		}
	}
}

func TestUpdateTeamRequiresAdmin(t *testing.T) {
	teams := newFakeTeamRepo()
	users := newFakeUserRepo()
	svc := newTestTeamService(teams, users)
	ctx := context.Background()

	team := seedTeam(t, teams, "t1", []string{"u1"}, nil)
	teamID := team.ID
	seedUser(t, users, "u1", types.RoleMember, &teamID)

	if _, err := svc.UpdateInfo(ctx, "u1", teamID, "Hijacked", nil, nil); err != ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestUpdateTeamBlankName(t *testing.T) {
	teams := newFakeTeamRepo()
	users := newFakeUserRepo()
	svc := newTestTeamService(teams, users)

	if _, err := svc.UpdateInfo(context.Background(), "admin", "t1", "   ", nil, nil); err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
