package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/b2wmke/miletracker-backend/internal/models"
	"github.com/b2wmke/miletracker-backend/internal/repository"
	"github.com/b2wmke/miletracker-backend/internal/service"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	Auth       *AuthHandler
	User       *UserHandler
	Team       *TeamHandler
	Invitation *InvitationHandler
	Activity   *ActivityHandler
	Admin      *AdminHandler
}

// NewHandlers creates all handlers
func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		Auth:       &AuthHandler{authService: services.Auth, registrationService: services.Registration},
		User:       &UserHandler{userService: services.User, memberService: services.Member},
		Team:       &TeamHandler{teamService: services.Team, memberService: services.Member, activityService: services.Activity, invitationService: services.Invitation, statsService: services.Stats},
		Invitation: &InvitationHandler{invitationService: services.Invitation},
		Activity:   &ActivityHandler{activityService: services.Activity},
		Admin:      &AdminHandler{statsService: services.Stats, userService: services.User, invitationService: services.Invitation, memberService: services.Member},
	}
}

// ============================================
// Response Mappers
// ============================================

func toUserResponse(u *repository.User) models.UserResponse {
	return models.UserResponse{
		ID:           u.ID,
		Email:        u.Email,
		UserName:     u.UserName,
		Role:         string(u.Role),
		TeamID:       u.TeamID,
		TeamName:     u.TeamName,
		TotalMiles:   u.TotalMiles,
		JoinedTeamAt: u.JoinedTeamAt,
		CreatedAt:    u.CreatedAt,
	}
}

func toUserResponseList(users []*repository.User) []models.UserResponse {
	response := make([]models.UserResponse, len(users))
	for i, u := range users {
		response[i] = toUserResponse(u)
	}
	return response
}

func toTeamResponse(t *repository.Team) models.TeamResponse {
	return models.TeamResponse{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Image:       t.Image,
		MemberIDs:   safeStringSlice(t.MemberIDs),
		AdminIDs:    safeStringSlice(t.AdminIDs),
		MemberCount: t.MemberCount,
		TotalMiles:  t.TotalMiles,
		TotalRides:  t.TotalRides,
		IsActive:    t.IsActive,
		CreatedAt:   t.CreatedAt,
		LastUpdated: t.LastUpdated,
	}
}

func toTeamResponseList(teams []*repository.Team) []models.TeamResponse {
	response := make([]models.TeamResponse, len(teams))
	for i, t := range teams {
		response[i] = toTeamResponse(t)
	}
	return response
}

func toInvitationResponse(inv *repository.Invitation, link string) models.InvitationResponse {
	return models.InvitationResponse{
		Email:           inv.Email,
		Role:            string(inv.Role),
		TeamID:          inv.TeamID,
		TeamName:        inv.TeamName,
		InvitedBy:       inv.InvitedBy,
		InviterUserName: inv.InviterUserName,
		Used:            inv.Used,
		CreatedAt:       inv.CreatedAt,
		ExpiresAt:       inv.ExpiresAt,
		UsedAt:          inv.UsedAt,
		InviteLink:      link,
	}
}

func toMileLogResponse(l *repository.MileLog) models.MileLogResponse {
	return models.MileLogResponse{
		ID:        l.ID,
		UserID:    l.UserID,
		UserName:  l.UserName,
		TeamID:    l.TeamID,
		TeamName:  l.TeamName,
		Miles:     l.Miles,
		RideDate:  l.RideDate.Format("2006-01-02"),
		Notes:     l.Notes,
		CreatedAt: l.CreatedAt,
	}
}

func toMileLogResponseList(logs []*repository.MileLog) []models.MileLogResponse {
	response := make([]models.MileLogResponse, len(logs))
	for i, l := range logs {
		response[i] = toMileLogResponse(l)
	}
	return response
}

// Helper to ensure nil slices become empty slices
func safeStringSlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// ============================================
// Error Mapping
// ============================================

func handleServiceError(c *gin.Context, err error) {
	switch err {
	case service.ErrInvalidInput, service.ErrInvalidEmail:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case service.ErrInvalidCredentials, service.ErrInvalidToken:
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case service.ErrForbidden, service.ErrSelfRoleChange, service.ErrRoleChangeNotAllowed:
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case service.ErrUserNotFound, service.ErrTeamNotFound, service.ErrInvitationNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case service.ErrAlreadyInvited, service.ErrAlreadyRegistered, service.ErrAlreadyOnTeam,
		service.ErrNameTaken, service.ErrNotAMember, service.ErrRoleMismatch:
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case service.ErrInvitationExpired, service.ErrInvitationUsed:
		c.JSON(http.StatusGone, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
