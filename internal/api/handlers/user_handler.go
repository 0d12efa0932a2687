package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/b2wmke/miletracker-backend/internal/api/middleware"
	"github.com/b2wmke/miletracker-backend/internal/service"
)

// ============================================
// User Handler
// ============================================

type UserHandler struct {
	userService   service.UserService
	memberService service.MemberService
}

func (h *UserHandler) GetCurrentUser(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}

func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}

// CheckUserName reports username availability for the registration form.
func (h *UserHandler) CheckUserName(c *gin.Context) {
	userName := c.Query("userName")
	available, err := h.userService.CheckUserName(c.Request.Context(), userName)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"available": available})
}

// LeaveTeam removes the caller from their own team.
func (h *UserHandler) LeaveTeam(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	if err := h.memberService.LeaveTeam(c.Request.Context(), userID); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Left team"})
}
