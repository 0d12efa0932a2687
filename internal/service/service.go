package service

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/b2wmke/miletracker-backend/internal/config"
	"github.com/b2wmke/miletracker-backend/internal/db"
	"github.com/b2wmke/miletracker-backend/internal/identity"
	"github.com/b2wmke/miletracker-backend/internal/repository"
	"github.com/b2wmke/miletracker-backend/internal/socket"
)

var (
	// Validation
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidEmail = errors.New("invalid email address")

	// Conflict
	ErrAlreadyInvited    = errors.New("this email has already been invited")
	ErrAlreadyRegistered = errors.New("a user with this email already exists")
	ErrAlreadyOnTeam     = errors.New("user already belongs to a team")
	ErrNotAMember        = errors.New("user is not a member of this team")
	ErrNameTaken         = errors.New("this username is already taken")

	// Precondition
	ErrInvitationNotFound   = errors.New("this email has not been invited")
	ErrInvitationExpired    = errors.New("this invitation has expired")
	ErrInvitationUsed       = errors.New("this invitation has already been used")
	ErrRoleMismatch         = errors.New("user role changed since it was read")
	ErrRoleChangeNotAllowed = errors.New("role change not allowed")
	ErrSelfRoleChange       = errors.New("cannot change your own role")

	// Lookup / auth
	ErrTeamNotFound       = errors.New("team not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrForbidden          = errors.New("forbidden")
)

// ============================================
// Services Container
// ============================================

type Services struct {
	Auth         AuthService
	User         UserService
	Team         TeamService
	Roster       RosterService
	Counter      CounterService
	Role         RoleService
	Invitation   InvitationService
	Registration RegistrationService
	Member       MemberService
	Activity     ActivityService
	Stats        StatsService
}

// ServiceDeps contains all dependencies needed to create services
type ServiceDeps struct {
	Config      *config.Config
	Repos       *repository.Repositories
	Identity    identity.Provider
	Redis       *db.RedisDB
	Broadcaster *socket.Broadcaster
}

func NewServices(deps *ServiceDeps) *Services {
	counter := NewCounterService(deps.Repos.TeamRepo, deps.Repos.UserRepo, deps.Redis)
	roster := NewRosterService(deps.Repos.TeamRepo, deps.Repos.UserRepo)
	role := NewRoleService(deps.Repos.UserRepo, roster)
	invitation := NewInvitationService(deps.Repos.InvitationRepo, deps.Repos.UserRepo, deps.Repos.TeamRepo, deps.Config.FrontendURL)
	auth := NewAuthService(deps.Config, deps.Identity, deps.Repos.UserRepo)

	return &Services{
		Auth:       auth,
		User:       NewUserService(deps.Repos.UserRepo),
		Team:       NewTeamService(deps.Repos.TeamRepo, deps.Repos.UserRepo, deps.Redis, deps.Broadcaster),
		Roster:     roster,
		Counter:    counter,
		Role:       role,
		Invitation: invitation,
		Registration: NewRegistrationService(
			deps.Identity, invitation, roster, counter,
			deps.Repos.UserRepo, deps.Repos.TeamRepo, deps.Repos.OperationLogRepo,
			deps.Broadcaster,
		),
		Member: NewMemberService(
			roster, counter, role,
			deps.Repos.UserRepo, deps.Repos.TeamRepo, deps.Repos.OperationLogRepo,
			deps.Broadcaster,
		),
		Activity: NewActivityService(
			counter,
			deps.Repos.MileLogRepo, deps.Repos.UserRepo, deps.Repos.OperationLogRepo,
			deps.Broadcaster,
		),
		Stats: NewStatsService(deps.Repos.TeamRepo, deps.Repos.UserRepo, deps.Redis),
	}
}

// logPartialFailure marks a composite operation that failed after its first
// write. The completed prefix is left in place (no compensating transactions);
// the intent record stays in the started state for the reconciliation report.
func logPartialFailure(operation, intentID string, completedSteps int, err error) {
	logrus.WithFields(logrus.Fields{
		"operation":       operation,
		"intent_id":       intentID,
		"completed_steps": completedSteps,
	}).WithError(err).Warn("composite operation failed mid-sequence; completed writes left in place")
}

// nowFunc is the clock used by services; tests substitute a fixed clock.
type nowFunc func() time.Time
