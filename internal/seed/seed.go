package seed

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/b2wmke/miletracker-backend/internal/identity"
	"github.com/b2wmke/miletracker-backend/internal/repository"
	"github.com/b2wmke/miletracker-backend/internal/types"
)

// SeedData creates a small development dataset: one app admin with the
// administrators team, one cycling team with an admin and two members, and a
// pending invitation. Safe to call repeatedly; it skips when users exist.
func SeedData(repos *repository.Repositories, provider identity.Provider) {
	ctx := context.Background()

	count, err := repos.UserRepo.Count(ctx)
	if err != nil || count > 0 {
		return
	}

	logrus.Info("seeding development data")

	// App admin and the administrators team
	admin := createUser(ctx, repos, provider, "admin@b2wmke.org", "password123", "appadmin", types.RoleAppAdmin)
	if admin == nil {
		return
	}
	adminTeam := createTeam(ctx, repos, "System Administrators", "Application administrators team", admin.ID)
	attach(ctx, repos, admin, adminTeam, true)

	// A cycling team with an admin and two members
	lead := createUser(ctx, repos, provider, "lead@b2wmke.org", "password123", "teamlead", types.RoleTeamAdmin)
	team := createTeam(ctx, repos, "Lakefront Riders", "Commuters along the lakefront trail", lead.ID)
	attach(ctx, repos, lead, team, true)

	for _, m := range []struct{ email, name string }{
		{"rider1@b2wmke.org", "rider_one"},
		{"rider2@b2wmke.org", "rider_two"},
	} {
		member := createUser(ctx, repos, provider, m.email, "password123", m.name, types.RoleMember)
		if member != nil {
			attach(ctx, repos, member, team, false)
		}
	}

	// A pending member invitation into the cycling team
	repos.InvitationRepo.CreateIfAbsent(ctx, &repository.Invitation{
		Email:           "invited@b2wmke.org",
		Role:            types.RoleMember,
		TeamID:          &team.ID,
		TeamName:        &team.Name,
		InvitedBy:       lead.ID,
		InviterUserName: &lead.UserName,
		ExpiresAt:       time.Now().Add(30 * 24 * time.Hour),
	})

	// A few rides so totals and the leaderboard have data
	seedRide(ctx, repos, lead, team, "12.5")
	seedRide(ctx, repos, lead, team, "8.0")

	logrus.Info("development data seeded")
}

func createUser(ctx context.Context, repos *repository.Repositories, provider identity.Provider, email, password, userName string, role types.Role) *repository.User {
	id, err := provider.CreateIdentity(ctx, email, password)
	if err != nil {
		logrus.WithError(err).WithField("email", email).Warn("seed identity failed")
		return nil
	}
	user := &repository.User{
		ID:       id,
		Email:    email,
		UserName: userName,
		Role:     role,
	}
	if err := repos.UserRepo.Create(ctx, user); err != nil {
		logrus.WithError(err).WithField("email", email).Warn("seed user failed")
		return nil
	}
	return user
}

func createTeam(ctx context.Context, repos *repository.Repositories, name, description, createdBy string) *repository.Team {
	team := &repository.Team{
		Name:        name,
		Description: &description,
		IsActive:    true,
		CreatedBy:   createdBy,
	}
	if err := repos.TeamRepo.Create(ctx, team); err != nil {
		logrus.WithError(err).WithField("team", name).Warn("seed team failed")
	}
	return team
}

func attach(ctx context.Context, repos *repository.Repositories, user *repository.User, team *repository.Team, isAdmin bool) {
	repos.TeamRepo.AddMemberID(ctx, team.ID, user.ID)
	if isAdmin {
		repos.TeamRepo.AddAdminID(ctx, team.ID, user.ID)
	}
	repos.TeamRepo.AdjustMemberCount(ctx, team.ID, 1)
	repos.UserRepo.AssignTeam(ctx, user.ID, team.ID, team.Name, time.Now())
	user.TeamID = &team.ID
	user.TeamName = &team.Name
}

func seedRide(ctx context.Context, repos *repository.Repositories, user *repository.User, team *repository.Team, miles string) {
	amount, err := decimal.NewFromString(miles)
	if err != nil {
		return
	}
	repos.MileLogRepo.Create(ctx, &repository.MileLog{
		UserID:   user.ID,
		UserName: user.UserName,
		TeamID:   &team.ID,
		TeamName: &team.Name,
		Miles:    amount,
		RideDate: time.Now().AddDate(0, 0, -1),
	})
	repos.UserRepo.AddMiles(ctx, user.ID, amount)
	repos.TeamRepo.AdjustTotals(ctx, team.ID, amount, 1)
}
