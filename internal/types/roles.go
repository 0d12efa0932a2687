package types

// Role is a user's application role. The set is closed; anything else is
// rejected at the boundary.
type Role string

const (
	RoleMember    Role = "member"
	RoleTeamAdmin Role = "team_admin"
	RoleAppAdmin  Role = "app_admin"
)

var ValidRoles = []Role{RoleMember, RoleTeamAdmin, RoleAppAdmin}

func IsValidRole(r Role) bool {
	for _, v := range ValidRoles {
		if v == r {
			return true
		}
	}
	return false
}

// roleTransitions is the full set of legal role changes. There is no edge out
// of app_admin: the top role is irrevocable.
var roleTransitions = map[Role][]Role{
	RoleMember:    {RoleTeamAdmin, RoleAppAdmin},
	RoleTeamAdmin: {RoleMember, RoleAppAdmin},
	RoleAppAdmin:  {},
}

// CanTransition reports whether from -> to is a legal role change.
func CanTransition(from, to Role) bool {
	for _, v := range roleTransitions[from] {
		if v == to {
			return true
		}
	}
	return false
}

// InvitableRoles returns the closed set of roles an invitation may grant.
// Who may grant which of them is decided by the invitation service.
func InvitableRoles() []Role {
	return []Role{RoleMember, RoleTeamAdmin, RoleAppAdmin}
}
