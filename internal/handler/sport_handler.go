package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jengzang/activity-backend-go/internal/service"
	"github.com/jengzang/activity-backend-go/pkg/response"
)

// SportHandler handles HTTP requests for sports
type SportHandler struct {
	activities *service.ActivityService
}

// NewSportHandler creates a new sport handler
func NewSportHandler(activities *service.ActivityService) *SportHandler {
	return &SportHandler{activities: activities}
}

// List handles GET /api/v1/sports
func (h *SportHandler) List(c *gin.Context) {
	sports, err := h.activities.ListSports(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, sports)
}
