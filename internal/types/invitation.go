package types

// InvitationVerdict is the result of validating an invitation against the
// current time and its consumption state.
type InvitationVerdict string

const (
	InvitationOK          InvitationVerdict = "ok"
	InvitationNotFound    InvitationVerdict = "not_found"
	InvitationExpired     InvitationVerdict = "expired"
	InvitationAlreadyUsed InvitationVerdict = "already_used"
)

// Operation names recorded in the operation intent log.
const (
	OpRegisterMember    = "register_member"
	OpRegisterTeamAdmin = "register_team_admin"
	OpRegisterAppAdmin  = "register_app_admin"
	OpLogActivity       = "log_activity"
	OpRemoveMember      = "remove_member"
	OpChangeRole        = "change_role"
)

// Operation intent statuses.
const (
	OpStatusStarted   = "started"
	OpStatusCompleted = "completed"
)
