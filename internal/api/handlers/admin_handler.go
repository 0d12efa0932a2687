package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/b2wmke/miletracker-backend/internal/api/middleware"
	"github.com/b2wmke/miletracker-backend/internal/models"
	"github.com/b2wmke/miletracker-backend/internal/service"
	"github.com/b2wmke/miletracker-backend/internal/types"
)

// ============================================
// Admin Handler
// ============================================

// AdminHandler serves the app admin panel. All routes behind RequireAppAdmin.
type AdminHandler struct {
	statsService      service.StatsService
	userService       service.UserService
	invitationService service.InvitationService
	memberService     service.MemberService
}

func (h *AdminHandler) GetStats(c *gin.Context) {
	stats, err := h.statsService.AdminStats(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.List(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponseList(users))
}

// ListAdminInvitations lists pending team_admin and app_admin invitations.
func (h *AdminHandler) ListAdminInvitations(c *gin.Context) {
	invitations, err := h.invitationService.ListPendingAdminInvites(c.Request.Context())
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

func (h *AdminHandler) ChangeUserRole(c *gin.Context) {
	actorID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.memberService.ChangeRole(c.Request.Context(), actorID, c.Param("id"), types.Role(req.Role))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Role updated"})
}
