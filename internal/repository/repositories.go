package repository

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repositories struct {
	UserRepo         UserRepository
	TeamRepo         TeamRepository
	InvitationRepo   InvitationRepository
	MileLogRepo      MileLogRepository
	OperationLogRepo OperationLogRepository
}

func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		UserRepo:         NewUserRepository(pool),
		TeamRepo:         NewTeamRepository(pool),
		InvitationRepo:   NewInvitationRepository(pool),
		MileLogRepo:      NewMileLogRepository(pool),
		OperationLogRepo: NewOperationLogRepository(pool),
	}
}
