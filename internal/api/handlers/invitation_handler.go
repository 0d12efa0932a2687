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
// Invitation Handler
// ============================================

type InvitationHandler struct {
	invitationService service.InvitationService
}

// Create issues an invitation keyed by the invitee email. The response
// carries the registration link; delivery is up to the caller.
func (h *InvitationHandler) Create(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.CreateInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	invitation, link, err := h.invitationService.Create(c.Request.Context(), req.Email, types.Role(req.Role), req.TeamID, userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toInvitationResponse(invitation, link))
}

// Cancel deletes an invitation. Deleting an absent one is still a success.
func (h *InvitationHandler) Cancel(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	email := c.Param("email")
	if err := h.invitationService.Cancel(c.Request.Context(), email, userID); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Invitation cancelled"})
}
