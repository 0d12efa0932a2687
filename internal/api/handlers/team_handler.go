package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/b2wmke/miletracker-backend/internal/api/middleware"
	"github.com/b2wmke/miletracker-backend/internal/models"
	"github.com/b2wmke/miletracker-backend/internal/service"
	"github.com/b2wmke/miletracker-backend/internal/types"
)

// ============================================
// Team Handler
// ============================================

type TeamHandler struct {
	teamService       service.TeamService
	memberService     service.MemberService
	activityService   service.ActivityService
	invitationService service.InvitationService
	statsService      service.StatsService
}

func (h *TeamHandler) ListTeams(c *gin.Context) {
	teams, err := h.teamService.List(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toTeamResponseList(teams))
}

func (h *TeamHandler) GetTeam(c *gin.Context) {
	team, err := h.teamService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toTeamResponse(team))
}

func (h *TeamHandler) GetMembers(c *gin.Context) {
	members, err := h.teamService.Members(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponseList(members))
}

func (h *TeamHandler) UpdateTeam(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.UpdateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	team, err := h.teamService.UpdateInfo(c.Request.Context(), userID, c.Param("id"), req.Name, req.Description, req.Image)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toTeamResponse(team))
}

// RemoveMember drops a member from the team roster. The member's lifetime
// miles leave the team totals with them.
func (h *TeamHandler) RemoveMember(c *gin.Context) {
	actorID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	err := h.memberService.RemoveMember(c.Request.Context(), actorID, c.Param("id"), c.Param("userId"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Member removed"})
}

func (h *TeamHandler) ChangeMemberRole(c *gin.Context) {
	actorID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.memberService.ChangeRole(c.Request.Context(), actorID, c.Param("userId"), types.Role(req.Role))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Role updated"})
}

func (h *TeamHandler) GetTeamActivity(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	logs, err := h.activityService.TeamHistory(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toMileLogResponseList(logs))
}

func (h *TeamHandler) GetPendingInvitations(c *gin.Context) {
	actorID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	invitations, err := h.invitationService.ListPendingByTeam(c.Request.Context(), c.Param("id"), actorID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response := make([]models.InvitationResponse, len(invitations))
	for i, inv := range invitations {
		response[i] = toInvitationResponse(inv, h.invitationService.BuildLink(inv))
	}
	c.JSON(http.StatusOK, response)
}

func (h *TeamHandler) Leaderboard(c *gin.Context) {
	entries, err := h.statsService.Leaderboard(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, entries)
}
