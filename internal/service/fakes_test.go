package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/b2wmke/miletracker-backend/internal/identity"
	"github.com/b2wmke/miletracker-backend/internal/repository"
	"github.com/b2wmke/miletracker-backend/internal/types"
)

// In-memory fakes mirroring the store semantics: atomic array union/remove,
// guarded single-statement updates, nil for missing rows.

var testTime = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testTime }

// ----- users -----

type fakeUserRepo struct {
	users  map[string]*repository.User
	tokens map[string]*repository.RefreshToken
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:  make(map[string]*repository.User),
		tokens: make(map[string]*repository.RefreshToken),
	}
}

func copyUser(u *repository.User) *repository.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

func (r *fakeUserRepo) Create(ctx context.Context, user *repository.User) error {
	for _, u := range r.users {
		if u.Email == user.Email {
			return errors.New("duplicate email")
		}
		if u.UserName == user.UserName {
			return errors.New("duplicate username")
		}
	}
	if user.ID == "" {
		user.ID = fmt.Sprintf("user-%d", len(r.users)+1)
	}
	user.CreatedAt = testTime
	user.UpdatedAt = testTime
	r.users[user.ID] = copyUser(user)
	return nil
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id string) (*repository.User, error) {
	return copyUser(r.users[id]), nil
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*repository.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) FindByUserName(ctx context.Context, userName string) (*repository.User, error) {
	for _, u := range r.users {
		if u.UserName == userName {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) FindByTeamID(ctx context.Context, teamID string) ([]*repository.User, error) {
	var out []*repository.User
	for _, u := range r.users {
		if u.TeamID != nil && *u.TeamID == teamID {
			out = append(out, copyUser(u))
		}
	}
	return out, nil
}

func (r *fakeUserRepo) FindAll(ctx context.Context) ([]*repository.User, error) {
	var out []*repository.User
	for _, u := range r.users {
		out = append(out, copyUser(u))
	}
	return out, nil
}

func (r *fakeUserRepo) AssignTeam(ctx context.Context, userID, teamID, teamName string, joinedAt time.Time) error {
	u, ok := r.users[userID]
	if !ok {
		return errors.New("no such user")
	}
	u.TeamID = &teamID
	u.TeamName = &teamName
	u.JoinedTeamAt = &joinedAt
	return nil
}

func (r *fakeUserRepo) ClearTeam(ctx context.Context, userID string) error {
	u, ok := r.users[userID]
	if !ok {
		return errors.New("no such user")
	}
	u.TeamID = nil
	u.TeamName = nil
	u.JoinedTeamAt = nil
	return nil
}

func (r *fakeUserRepo) UpdateTeamName(ctx context.Context, teamID, teamName string) error {
	for _, u := range r.users {
		if u.TeamID != nil && *u.TeamID == teamID {
			name := teamName
			u.TeamName = &name
		}
	}
	return nil
}

func (r *fakeUserRepo) SetRole(ctx context.Context, userID string, role types.Role) error {
	u, ok := r.users[userID]
	if !ok {
		return errors.New("no such user")
	}
	u.Role = role
	return nil
}

func (r *fakeUserRepo) AddMiles(ctx context.Context, userID string, delta decimal.Decimal) error {
	u, ok := r.users[userID]
	if !ok {
		return errors.New("no such user")
	}
	u.TotalMiles = u.TotalMiles.Add(delta)
	return nil
}

func (r *fakeUserRepo) SumTotalMiles(ctx context.Context) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, u := range r.users {
		sum = sum.Add(u.TotalMiles)
	}
	return sum, nil
}

func (r *fakeUserRepo) Count(ctx context.Context) (int, error) {
	return len(r.users), nil
}

func (r *fakeUserRepo) SaveRefreshToken(ctx context.Context, token *repository.RefreshToken) error {
	r.tokens[token.Token] = token
	return nil
}

func (r *fakeUserRepo) FindRefreshToken(ctx context.Context, token string) (*repository.RefreshToken, error) {
	return r.tokens[token], nil
}

func (r *fakeUserRepo) DeleteRefreshToken(ctx context.Context, token string) error {
	delete(r.tokens, token)
	return nil
}

// ----- teams -----

type fakeTeamRepo struct {
	teams map[string]*repository.Team
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{teams: make(map[string]*repository.Team)}
}

func copyTeam(t *repository.Team) *repository.Team {
	if t == nil {
		return nil
	}
	c := *t
	c.MemberIDs = append([]string(nil), t.MemberIDs...)
	c.AdminIDs = append([]string(nil), t.AdminIDs...)
	return &c
}

func (r *fakeTeamRepo) Create(ctx context.Context, team *repository.Team) error {
	if team.ID == "" {
		team.ID = fmt.Sprintf("team-%d", len(r.teams)+1)
	}
	if team.MemberIDs == nil {
		team.MemberIDs = []string{}
	}
	if team.AdminIDs == nil {
		team.AdminIDs = []string{}
	}
	team.CreatedAt = testTime
	team.LastUpdated = testTime
	r.teams[team.ID] = copyTeam(team)
	return nil
}

func (r *fakeTeamRepo) FindByID(ctx context.Context, id string) (*repository.Team, error) {
	return copyTeam(r.teams[id]), nil
}

func (r *fakeTeamRepo) FindAll(ctx context.Context) ([]*repository.Team, error) {
	var out []*repository.Team
	for _, t := range r.teams {
		out = append(out, copyTeam(t))
	}
	return out, nil
}

func (r *fakeTeamRepo) FindAllByTotalMiles(ctx context.Context) ([]*repository.Team, error) {
	out, _ := r.FindAll(ctx)
	sort.Slice(out, func(i, j int) bool {
		return out[i].TotalMiles.GreaterThan(out[j].TotalMiles)
	})
	return out, nil
}

func (r *fakeTeamRepo) UpdateInfo(ctx context.Context, teamID, name string, description, image *string) error {
	t, ok := r.teams[teamID]
	if !ok {
		return errors.New("no such team")
	}
	t.Name = name
	if description != nil {
		t.Description = description
	}
	if image != nil {
		t.Image = image
	}
	return nil
}

func (r *fakeTeamRepo) AddMemberID(ctx context.Context, teamID, userID string) error {
	t, ok := r.teams[teamID]
	if !ok {
		return errors.New("no such team")
	}
	for _, id := range t.MemberIDs {
		if id == userID {
			return nil
		}
	}
	t.MemberIDs = append(t.MemberIDs, userID)
	return nil
}

func (r *fakeTeamRepo) RemoveMemberID(ctx context.Context, teamID, userID string) error {
	t, ok := r.teams[teamID]
	if !ok {
		return errors.New("no such team")
	}
	t.MemberIDs = removeID(t.MemberIDs, userID)
	return nil
}

func (r *fakeTeamRepo) AddAdminID(ctx context.Context, teamID, userID string) error {
	t, ok := r.teams[teamID]
	if !ok {
		return errors.New("no such team")
	}
	for _, id := range t.AdminIDs {
		if id == userID {
			return nil
		}
	}
	t.AdminIDs = append(t.AdminIDs, userID)
	return nil
}

func (r *fakeTeamRepo) RemoveAdminID(ctx context.Context, teamID, userID string) error {
	t, ok := r.teams[teamID]
	if !ok {
		return errors.New("no such team")
	}
	t.AdminIDs = removeID(t.AdminIDs, userID)
	return nil
}

func (r *fakeTeamRepo) AdjustMemberCount(ctx context.Context, teamID string, delta int) error {
	t, ok := r.teams[teamID]
	if !ok {
		return errors.New("no such team")
	}
	t.MemberCount += delta
	return nil
}

func (r *fakeTeamRepo) AdjustTotals(ctx context.Context, teamID string, milesDelta decimal.Decimal, ridesDelta int) error {
	t, ok := r.teams[teamID]
	if !ok {
		return errors.New("no such team")
	}
	t.TotalMiles = t.TotalMiles.Add(milesDelta)
	t.TotalRides += ridesDelta
	return nil
}

func (r *fakeTeamRepo) SumTotalRides(ctx context.Context) (int, error) {
	sum := 0
	for _, t := range r.teams {
		sum += t.TotalRides
	}
	return sum, nil
}

func (r *fakeTeamRepo) Count(ctx context.Context) (int, error) {
	return len(r.teams), nil
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// ----- invitations -----

type fakeInvitationRepo struct {
	invitations map[string]*repository.Invitation
}

func newFakeInvitationRepo() *fakeInvitationRepo {
	return &fakeInvitationRepo{invitations: make(map[string]*repository.Invitation)}
}

func copyInvitation(i *repository.Invitation) *repository.Invitation {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}

func (r *fakeInvitationRepo) CreateIfAbsent(ctx context.Context, invitation *repository.Invitation) (bool, error) {
	existing, ok := r.invitations[invitation.Email]
	if ok {
		if existing.Used || testTime.Before(existing.ExpiresAt) {
			return false, nil
		}
	}
	invitation.CreatedAt = testTime
	r.invitations[invitation.Email] = copyInvitation(invitation)
	return true, nil
}

func (r *fakeInvitationRepo) FindByEmail(ctx context.Context, email string) (*repository.Invitation, error) {
	return copyInvitation(r.invitations[email]), nil
}

func (r *fakeInvitationRepo) FindPendingByTeam(ctx context.Context, teamID string, now time.Time) ([]*repository.Invitation, error) {
	var out []*repository.Invitation
	for _, i := range r.invitations {
		if !i.Used && now.Before(i.ExpiresAt) && i.TeamID != nil && *i.TeamID == teamID {
			out = append(out, copyInvitation(i))
		}
	}
	return out, nil
}

func (r *fakeInvitationRepo) FindPendingAdminInvites(ctx context.Context, now time.Time) ([]*repository.Invitation, error) {
	var out []*repository.Invitation
	for _, i := range r.invitations {
		if !i.Used && now.Before(i.ExpiresAt) && i.Role != types.RoleMember {
			out = append(out, copyInvitation(i))
		}
	}
	return out, nil
}

func (r *fakeInvitationRepo) ConsumeIfValid(ctx context.Context, email string, now time.Time) (bool, error) {
	i, ok := r.invitations[email]
	if !ok || i.Used || !now.Before(i.ExpiresAt) {
		return false, nil
	}
	i.Used = true
	usedAt := now
	i.UsedAt = &usedAt
	return true, nil
}

func (r *fakeInvitationRepo) Delete(ctx context.Context, email string) error {
	delete(r.invitations, email)
	return nil
}

func (r *fakeInvitationRepo) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	n := 0
	for email, i := range r.invitations {
		if !i.Used && i.ExpiresAt.Before(before) {
			delete(r.invitations, email)
			n++
		}
	}
	return n, nil
}

// ----- mile logs -----

type fakeMileLogRepo struct {
	logs []*repository.MileLog
}

func (r *fakeMileLogRepo) Create(ctx context.Context, log *repository.MileLog) error {
	if log.ID == "" {
		log.ID = fmt.Sprintf("log-%d", len(r.logs)+1)
	}
	log.CreatedAt = testTime
	c := *log
	r.logs = append(r.logs, &c)
	return nil
}

func (r *fakeMileLogRepo) FindByUser(ctx context.Context, userID string, limit int) ([]*repository.MileLog, error) {
	var out []*repository.MileLog
	for _, l := range r.logs {
		if l.UserID == userID && len(out) < limit {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *fakeMileLogRepo) FindByTeam(ctx context.Context, teamID string, limit int) ([]*repository.MileLog, error) {
	var out []*repository.MileLog
	for _, l := range r.logs {
		if l.TeamID != nil && *l.TeamID == teamID && len(out) < limit {
			out = append(out, l)
		}
	}
	return out, nil
}

// ----- operation intents -----

type fakeOpLogRepo struct {
	ops []*repository.OperationLog
}

func (r *fakeOpLogRepo) Begin(ctx context.Context, operation string, subjectID, teamID *string) (string, error) {
	id := fmt.Sprintf("op-%d", len(r.ops)+1)
	r.ops = append(r.ops, &repository.OperationLog{
		ID:        id,
		Operation: operation,
		SubjectID: subjectID,
		TeamID:    teamID,
		Status:    types.OpStatusStarted,
		CreatedAt: testTime,
	})
	return id, nil
}

func (r *fakeOpLogRepo) Complete(ctx context.Context, id string) error {
	for _, op := range r.ops {
		if op.ID == id {
			op.Status = types.OpStatusCompleted
			done := testTime
			op.CompletedAt = &done
			return nil
		}
	}
	return errors.New("no such intent")
}

func (r *fakeOpLogRepo) FindStale(ctx context.Context, olderThan time.Time) ([]*repository.OperationLog, error) {
	var out []*repository.OperationLog
	for _, op := range r.ops {
		if op.Status == types.OpStatusStarted && op.CreatedAt.Before(olderThan) {
			out = append(out, op)
		}
	}
	return out, nil
}

// ----- identities -----

type fakeIdentityProvider struct {
	byEmail map[string]string
	nextID  int
}

func newFakeIdentityProvider() *fakeIdentityProvider {
	return &fakeIdentityProvider{byEmail: make(map[string]string)}
}

func (p *fakeIdentityProvider) CreateIdentity(ctx context.Context, email, password string) (string, error) {
	if _, ok := p.byEmail[email]; ok {
		return "", identity.ErrEmailInUse
	}
	if len(password) < 6 {
		return "", identity.ErrWeakCredential
	}
	p.nextID++
	id := fmt.Sprintf("identity-%d", p.nextID)
	p.byEmail[email] = id
	return id, nil
}

func (p *fakeIdentityProvider) VerifyIdentity(ctx context.Context, email, password string) (string, error) {
	id, ok := p.byEmail[email]
	if !ok {
		return "", identity.ErrInvalidCredential
	}
	return id, nil
}
