package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/b2wmke/miletracker-backend/internal/api/middleware"
	"github.com/b2wmke/miletracker-backend/internal/models"
	"github.com/b2wmke/miletracker-backend/internal/service"
)

// ============================================
// Activity Handler
// ============================================

type ActivityHandler struct {
	activityService service.ActivityService
}

func (h *ActivityHandler) LogMiles(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.LogMilesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rideDate, err := time.Parse("2006-01-02", req.RideDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rideDate must be YYYY-MM-DD"})
		return
	}

	entry, err := h.activityService.LogMiles(c.Request.Context(), userID, req.Miles, rideDate, req.Notes)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toMileLogResponse(entry))
}

func (h *ActivityHandler) GetHistory(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	logs, err := h.activityService.History(c.Request.Context(), userID, limit)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toMileLogResponseList(logs))
}
